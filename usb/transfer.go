package usb

import (
	"github.com/Ivan-Johnson/avr-hal/internal/bits8"
	"github.com/Ivan-Johnson/avr-hal/internal/irq"
)

// Write attempts to push data into an IN endpoint's FIFO (spec.md section
// 4.7). It returns ErrWouldBlock if TXINI is clear, not an error about the
// data itself; callers are expected to poll and retry as hardware capacity
// allows.
//
// On a control endpoint, a full buffer is pushed in one shot and only
// TXINI is cleared to commit it. On a Bulk/Interrupt/Iso endpoint, TXINI
// and RXOUTI are cleared up front (RXOUTI aliases KILLBK on IN endpoints
// and must stay zero), each byte is pushed only while RWAL holds, and the
// bank is committed by clearing FIFOCON and RXOUTI together — a single
// register write, since the two must change atomically.
func (d *Driver[C]) Write(addr Address, data []byte) (int, error) {
	result := irq.Free(func(cs irq.CriticalSection) transferResult {
		if err := d.selectEndpoint(cs, int(addr.Index)); err != nil {
			return transferResult{err: err}
		}
		usb := d.usb.Borrow(cs)
		ep := d.endpoints[addr.Index]
		if ep == nil {
			return transferResult{err: ErrInvalidEndpoint}
		}

		if !bits8.Get(usb.UEINTX, bitTXINI) {
			return transferResult{err: ErrWouldBlock}
		}

		if ep.epType == Control {
			if len(data) > int(ep.maxPacketSize) {
				return transferResult{err: ErrBufferOverflow}
			}
			for _, b := range data {
				usb.UEDATX.Set(b)
			}
			clearFlags(usb.UEINTX, maskUEINTX_PRESERVE, 1<<bitTXINI)
		} else {
			clearFlags(usb.UEINTX, maskUEINTX_PRESERVE, (1<<bitTXINI)|(1<<bitRXOUTI))

			for _, b := range data {
				if !bits8.Get(usb.UEINTX, bitRWAL) {
					return transferResult{err: ErrBufferOverflow}
				}
				usb.UEDATX.Set(b)
			}

			usb.UEINTX.Set(maskUEINTX_PRESERVE &^ ((1 << bitRXOUTI) | (1 << bitFIFOCON)))
		}

		*d.pendingIns.Borrow(cs) |= 1 << addr.Index

		return transferResult{n: len(data)}
	})
	return result.n, result.err
}

// transferResult packs Write/Read's (int, error) pair into a single value,
// since Free returns exactly one result from its closure.
type transferResult struct {
	n   int
	err error
}

// Read pulls pending OUT data from an endpoint's FIFO into buf (spec.md
// section 4.8).
//
// On a control endpoint, both RXOUTI and RXSTPI gate readiness (their
// presence distinguishes a SETUP packet from a DATA-OUT packet, which the
// stack observes separately via Poll); the 11-bit UEBCHX/UEBCLX byte count
// is read up front and checked against len(buf) before any byte is copied,
// then both flags are cleared together to release the bank. On a
// Bulk/Interrupt endpoint, only RXOUTI gates readiness; bytes are pulled
// one at a time while RWAL holds, and FIFOCON is cleared to release the
// bank only once RWAL has dropped — if it hasn't by the time buf fills up,
// that's ErrBufferOverflow, since more data is pending than buf can hold.
func (d *Driver[C]) Read(addr Address, buf []byte) (int, error) {
	result := irq.Free(func(cs irq.CriticalSection) transferResult {
		if err := d.selectEndpoint(cs, int(addr.Index)); err != nil {
			return transferResult{err: err}
		}
		usb := d.usb.Borrow(cs)
		ep := d.endpoints[addr.Index]
		if ep == nil {
			return transferResult{err: ErrInvalidEndpoint}
		}

		if ep.epType == Control {
			haveOut := bits8.Get(usb.UEINTX, bitRXOUTI)
			haveSetup := bits8.Get(usb.UEINTX, bitRXSTPI)
			if !haveOut && !haveSetup {
				return transferResult{err: ErrWouldBlock}
			}

			count := int(d.endpointByteCount(cs))
			if count > len(buf) {
				return transferResult{err: ErrBufferOverflow}
			}
			for i := 0; i < count; i++ {
				buf[i] = usb.UEDATX.Get()
			}

			clearFlags(usb.UEINTX, maskUEINTX_PRESERVE, (1<<bitRXOUTI)|(1<<bitRXSTPI))
			return transferResult{n: count}
		}

		if !bits8.Get(usb.UEINTX, bitRXOUTI) {
			return transferResult{err: ErrWouldBlock}
		}
		clearFlags(usb.UEINTX, maskUEINTX_PRESERVE, 1<<bitRXOUTI)

		count := 0
		for count < len(buf) && bits8.Get(usb.UEINTX, bitRWAL) {
			buf[count] = usb.UEDATX.Get()
			count++
		}
		if bits8.Get(usb.UEINTX, bitRWAL) {
			return transferResult{err: ErrBufferOverflow}
		}

		clearFlags(usb.UEINTX, maskUEINTX_PRESERVE, 1<<bitFIFOCON)
		return transferResult{n: count}
	})
	return result.n, result.err
}
