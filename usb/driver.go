package usb

import (
	"log"
	"time"

	"github.com/Ivan-Johnson/avr-hal/internal/bits8"
	"github.com/Ivan-Johnson/avr-hal/internal/irq"
)

// MaxEndpoints is the number of hardware endpoint slots, indices 0 through
// MaxEndpoints-1 (spec.md section 3).
const MaxEndpoints = 7

// endpointCapacity is each slot's fixed DPRAM capacity in bytes (datasheet
// section 22.1): {64, 256, 64, 64, 64, 64, 64}.
var endpointCapacity = [MaxEndpoints]uint16{64, 256, 64, 64, 64, 64, 64}

// attachDelay is the ~1ms delay required after enabling the USB pads,
// empirically needed by some hosts after a reset-via-serial-touch
// (spec.md section 4.4). It is also used by ForceReset's DETACH toggle
// (spec.md section 22.9 in the datasheet).
const attachDelay = time.Millisecond

// sleeper abstracts the 1ms delay so tests don't actually wait on it.
// Production code uses time.Sleep.
type sleeper func(time.Duration)

var defaultSleep sleeper = time.Sleep

// endpointRecord is one allocated endpoint's software state (spec.md
// section 3). A nil *endpointRecord in Driver.endpoints means the slot is
// unallocated.
type endpointRecord struct {
	epType        EndpointType
	dir           Direction
	maxPacketSize uint16
}

// Driver owns the USB and PLL peripherals for the life of the program and
// implements the driver contract of spec.md section 6. C pins the system
// clock at compile time (spec.md section 4.1, section 9).
type Driver[C Clock] struct {
	usb *irq.Guarded[USBPeripheral]
	pll *irq.Guarded[PLLPeripheral]

	endpoints  [MaxEndpoints]*endpointRecord
	pendingIns *irq.Guarded[uint8]

	sleep sleeper
}

// New constructs a Driver, taking ownership of usb and pll. Construction
// does not touch hardware; PLL bring-up and bus attach happen in Enable.
func New[C Clock](usbRegs USBPeripheral, pllRegs PLLPeripheral) *Driver[C] {
	if usbRegs.hasNilField() || pllRegs.hasNilField() {
		log.Printf("usb: New called with a nil register field; every later Get/Set will panic")
	}

	return &Driver[C]{
		usb:        irq.NewGuarded(usbRegs),
		pll:        irq.NewGuarded(pllRegs),
		pendingIns: irq.NewGuarded[uint8](0),
		sleep:      defaultSleep,
	}
}

// activeIndices returns the indices of allocated endpoints in ascending
// order. Hardware requires DPRAM to be laid out in increasing slot order
// (spec.md invariant 6), so every caller that walks endpoints for
// programming must do so in this order.
func (d *Driver[C]) activeIndices() []int {
	var out []int
	for i, ep := range d.endpoints {
		if ep != nil {
			out = append(out, i)
		}
	}
	return out
}

// bringUpPLL executes spec.md section 4.1: program the input divider for
// the pinned clock, reset PLLFRQ to its power-on value, reprogram it to
// select the 48 MHz USB output with high-speed timers disconnected, enable
// the PLL, and spin until it locks. Must be called with interrupts
// disabled; only enable calls it.
func (d *Driver[C]) bringUpPLL(cs irq.CriticalSection) {
	pll := d.pll.Borrow(cs)

	var clock C
	clock.setPLLInputDivider(pll)

	bits8.WriteMasked(pll.PLLFRQ, pllfrqPowerOnValue)
	bits8.SetN(pll.PLLFRQ, fieldPDIV, maskPDIV, pdiv48MHzFull)
	bits8.SetN(pll.PLLFRQ, fieldPLLTM, maskPLLTM, pllTMNoneHS)
	bits8.Clear(pll.PLLFRQ, bitPLLUSB)

	bits8.Set(pll.PLLCSR, bitPLLE)
	for !bits8.Get(pll.PLLCSR, bitPLOCK) {
	}
}

// Enable performs the one-shot transition from "configured in software" to
// "live on the bus" (spec.md section 4.4).
func (d *Driver[C]) Enable() {
	irq.Free(func(cs irq.CriticalSection) struct{} {
		usb := d.usb.Borrow(cs)

		bits8.Set(usb.UHWCON, bitUVREGE)
		bits8.Set(usb.USBCON, bitUSBE)
		bits8.Set(usb.USBCON, bitFRZCLK)

		d.bringUpPLL(cs)

		bits8.Set(usb.USBCON, bitOTGPADE)
		return struct{}{}
	})

	d.sleep(attachDelay)

	irq.Free(func(cs irq.CriticalSection) struct{} {
		usb := d.usb.Borrow(cs)

		bits8.Clear(usb.USBCON, bitFRZCLK)
		bits8.Set(usb.USBCON, bitVBUSTE)

		for _, index := range d.activeIndices() {
			d.configureEndpoint(cs, index)
		}

		bits8.Clear(usb.UDCON, bitDETACH)
		bits8.Set(usb.UDIEN, bitEORSTE_I)
		bits8.Set(usb.UDIEN, bitSOFE_I)
		return struct{}{}
	})
}

// Reset re-programs every allocated endpoint without reallocating any
// endpoint record (spec.md section 4.5), called by the stack after Poll
// returns Reset.
func (d *Driver[C]) Reset() {
	irq.Free(func(cs irq.CriticalSection) struct{} {
		usb := d.usb.Borrow(cs)

		clearFlags(usb.UDINT, maskUDINT_PRESERVE, 1<<bitEORSTE_I)

		for _, index := range d.activeIndices() {
			d.configureEndpoint(cs, index)
		}

		clearFlags(usb.UDINT, maskUDINT_PRESERVE, (1<<bitWAKEUPE_I)|(1<<bitSUSPE_I))
		bits8.Clear(usb.UDIEN, bitWAKEUPE_I)
		bits8.Set(usb.UDIEN, bitSUSPE_I)
		return struct{}{}
	})
}
