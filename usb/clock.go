package usb

import "github.com/Ivan-Johnson/avr-hal/internal/bits8"

// Clock identifies a system clock frequency the USB PLL accepts as input.
// The datasheet only documents PLL bring-up for 8 MHz and 16 MHz crystals
// (spec.md section 4.1); MHz8 and MHz16 are the only two implementations,
// so Driver[C Clock] fails to compile for any other clock literal instead
// of failing at runtime.
type Clock interface {
	// setPLLInputDivider programs PLLCSR.PINDIV for this clock's input
	// frequency.
	setPLLInputDivider(pll *PLLPeripheral)
}

// MHz8 selects an 8 MHz system crystal.
type MHz8 struct{}

func (MHz8) setPLLInputDivider(pll *PLLPeripheral) {
	bits8.Clear(pll.PLLCSR, bitPINDIV)
}

// MHz16 selects a 16 MHz system crystal.
type MHz16 struct{}

func (MHz16) setPLLInputDivider(pll *PLLPeripheral) {
	bits8.Set(pll.PLLCSR, bitPINDIV)
}
