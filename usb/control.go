package usb

import (
	"github.com/Ivan-Johnson/avr-hal/internal/bits8"
	"github.com/Ivan-Johnson/avr-hal/internal/irq"
)

// SetDeviceAddress programs the device's USB bus address (spec.md section
// 4.6). The caller must have already completed the status stage of the
// SET_ADDRESS control transfer before calling this, per the USB
// specification's requirement that the new address take effect only after
// the transfer's handshake; the controller does not enforce that ordering
// itself.
//
// addr must fit in 7 bits; passing anything larger truncates silently,
// matching UDADDR.UADD's field width.
func (d *Driver[C]) SetDeviceAddress(addr uint8) {
	irq.Free(func(cs irq.CriticalSection) struct{} {
		usb := d.usb.Borrow(cs)
		bits8.SetN(usb.UDADDR, fieldUADD, maskUADD, addr&maskUADD)
		bits8.Set(usb.UDADDR, bitADDEN)
		return struct{}{}
	})
}

// SetStalled sets or clears the STALL condition on an endpoint (spec.md
// section 4.9). STALLRQ and STALLRQC are edge-triggered, so they must be
// written together, with opposite polarity, in a single modify rather than
// as two separate read-modify-writes. Setting stall on an OUT endpoint also
// implicitly re-arms it to receive, a hardware behavior this driver does
// not need to replicate in software.
func (d *Driver[C]) SetStalled(addr Address, stalled bool) error {
	return irq.Free(func(cs irq.CriticalSection) error {
		if err := d.selectEndpoint(cs, int(addr.Index)); err != nil {
			return err
		}
		usb := d.usb.Borrow(cs)
		v := usb.UECONX.Get() &^ ((1 << bitSTALLRQ) | (1 << bitSTALLRQC))
		if stalled {
			v |= 1 << bitSTALLRQ
		} else {
			v |= 1 << bitSTALLRQC
		}
		usb.UECONX.Set(v)
		return nil
	})
}

// IsStalled reports whether an endpoint currently holds a STALL condition
// (spec.md section 4.9).
func (d *Driver[C]) IsStalled(addr Address) (bool, error) {
	result := irq.Free(func(cs irq.CriticalSection) stalledResult {
		if err := d.selectEndpoint(cs, int(addr.Index)); err != nil {
			return stalledResult{err: err}
		}
		usb := d.usb.Borrow(cs)
		return stalledResult{stalled: bits8.Get(usb.UECONX, bitSTALLRQ)}
	})
	return result.stalled, result.err
}

// stalledResult packs IsStalled's (bool, error) pair into a single value,
// since Free returns exactly one result from its closure.
type stalledResult struct {
	stalled bool
	err     error
}

// Suspend clears SUSPI/WAKEUPI, enables WAKEUPE, disables SUSPE, and
// freezes the clock (spec.md section 4.10), called after Poll reports a
// Suspend event. The caller is responsible for not issuing transfers until
// Resume.
func (d *Driver[C]) Suspend() {
	irq.Free(func(cs irq.CriticalSection) struct{} {
		usb := d.usb.Borrow(cs)
		clearFlags(usb.UDINT, maskUDINT_PRESERVE, (1<<bitSUSPE_I)|(1<<bitWAKEUPE_I))
		bits8.Set(usb.UDIEN, bitWAKEUPE_I)
		bits8.Clear(usb.UDIEN, bitSUSPE_I)
		bits8.Set(usb.USBCON, bitFRZCLK)
		return struct{}{}
	})
}

// Resume unfreezes the clock, clears WAKEUPI/SUSPI, disables WAKEUPE, and
// enables SUSPE (spec.md section 4.10), called after Poll reports a
// WakeUp event.
func (d *Driver[C]) Resume() {
	irq.Free(func(cs irq.CriticalSection) struct{} {
		usb := d.usb.Borrow(cs)
		bits8.Clear(usb.USBCON, bitFRZCLK)
		clearFlags(usb.UDINT, maskUDINT_PRESERVE, (1<<bitWAKEUPE_I)|(1<<bitSUSPE_I))
		bits8.Clear(usb.UDIEN, bitWAKEUPE_I)
		bits8.Set(usb.UDIEN, bitSUSPE_I)
		return struct{}{}
	})
}

// ForceReset detaches and reattaches the device from the bus by toggling
// UDCON.DETACH, forcing the host to rediscover it (spec.md section 9,
// grounded on the original driver's equivalent bus-reset workaround for
// hosts that never send a hardware reset on their own).
func (d *Driver[C]) ForceReset() {
	irq.Free(func(cs irq.CriticalSection) struct{} {
		usb := d.usb.Borrow(cs)
		bits8.Set(usb.UDCON, bitDETACH)
		return struct{}{}
	})

	d.sleep(attachDelay)

	irq.Free(func(cs irq.CriticalSection) struct{} {
		usb := d.usb.Borrow(cs)
		bits8.Clear(usb.UDCON, bitDETACH)
		return struct{}{}
	})
}
