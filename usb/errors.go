package usb

import "errors"

// Driver error kinds (spec.md section 7), following ardnew-softusb's pkg
// package convention of one sentinel error per condition rather than a
// custom error type hierarchy.
var (
	// ErrInvalidEndpoint indicates an unknown or out-of-range endpoint.
	ErrInvalidEndpoint = errors.New("usb: invalid endpoint")

	// ErrInvalidState indicates the MMIO endpoint selector did not accept
	// the requested endpoint, which can happen when the clock is frozen.
	ErrInvalidState = errors.New("usb: invalid state")

	// ErrWouldBlock indicates the endpoint's FIFO is not ready.
	ErrWouldBlock = errors.New("usb: would block")

	// ErrBufferOverflow indicates the caller's buffer, or the hardware
	// FIFO, is too small for the data at hand.
	ErrBufferOverflow = errors.New("usb: buffer overflow")

	// ErrEndpointMemoryOverflow indicates no free endpoint slot was found
	// during allocation.
	ErrEndpointMemoryOverflow = errors.New("usb: endpoint memory overflow")
)
