package usb

import (
	"github.com/Ivan-Johnson/avr-hal/internal/bits8"
	"github.com/Ivan-Johnson/avr-hal/internal/irq"
)

// EventKind classifies the single event Poll reports per call (spec.md
// section 4.11).
type EventKind uint8

const (
	// None means no event was pending.
	None EventKind = iota
	// Reset means the host signalled a bus reset; the caller must call
	// Driver.Reset before further transfers.
	Reset
	// Suspend means the bus went idle; the caller should call
	// Driver.Suspend.
	Suspend
	// WakeUp means a suspended bus resumed activity; the caller should
	// call Driver.Resume.
	WakeUp
	// EndpointData means one or more endpoints have pending IN
	// completions or OUT data; see PollResult.Endpoints.
	EndpointData
)

// PollResult is the outcome of one Poll call (spec.md section 4.11).
type PollResult struct {
	Kind EventKind

	// Endpoints is a bitmask over endpoint indices, valid only when Kind
	// is EndpointData: bit i set means endpoint i has a completed IN
	// transfer, a pending OUT packet, or a pending SETUP packet.
	Endpoints uint8
}

// Poll extracts and clears at most one class of pending event, in the
// fixed priority order Resume, Suspend, Reset, then endpoint data (spec.md
// section 4.11). SOFI and VBUSTI are acknowledged and dropped without
// being reported, since no operation in this driver's contract depends on
// them.
func (d *Driver[C]) Poll() PollResult {
	return irq.Free(func(cs irq.CriticalSection) PollResult {
		usb := d.usb.Borrow(cs)

		if bits8.Get(usb.UDINT, bitWAKEUPE_I) {
			clearFlags(usb.UDINT, maskUDINT_PRESERVE, 1<<bitWAKEUPE_I)
			return PollResult{Kind: WakeUp}
		}

		if bits8.Get(usb.UDINT, bitSUSPE_I) {
			clearFlags(usb.UDINT, maskUDINT_PRESERVE, 1<<bitSUSPE_I)
			return PollResult{Kind: Suspend}
		}

		if bits8.Get(usb.UDINT, bitEORSTE_I) {
			clearFlags(usb.UDINT, maskUDINT_PRESERVE, 1<<bitEORSTE_I)
			return PollResult{Kind: Reset}
		}

		if bits8.Get(usb.UDINT, bitSOFE_I) {
			clearFlags(usb.UDINT, maskUDINT_PRESERVE, 1<<bitSOFE_I)
		}
		if bits8.Get(usb.USBINT, bitVBUSTI) {
			clearFlags(usb.USBINT, maskUSBINT_PRESERVE, 1<<bitVBUSTI)
		}

		pending := *d.pendingIns.Borrow(cs)
		var mask uint8
		for _, index := range d.activeIndices() {
			if err := d.selectEndpoint(cs, index); err != nil {
				continue
			}
			if bits8.Get(usb.UEINTX, bitRXOUTI) || bits8.Get(usb.UEINTX, bitRXSTPI) {
				mask |= 1 << index
			}
			if pending&(1<<index) != 0 && bits8.Get(usb.UEINTX, bitTXINI) {
				mask |= 1 << index
				pending &^= 1 << index
			}
		}
		*d.pendingIns.Borrow(cs) = pending

		if mask == 0 {
			return PollResult{Kind: None}
		}
		return PollResult{Kind: EndpointData, Endpoints: mask}
	})
}
