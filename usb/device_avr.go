//go:build avr

package usb

import "device/avr"

// NewFromMCU constructs a Driver wired to the real ATmega32U4 PLL and USB
// register blocks, as generated into TinyGo's device/avr package from the
// vendor SVD. This is the only file in the package that names a concrete
// MCU register; everything else in this package operates on the reg
// interface so it stays host-testable.
func NewFromMCU[C Clock]() *Driver[C] {
	pll := PLLPeripheral{
		PLLCSR: avr.PLLCSR,
		PLLFRQ: avr.PLLFRQ,
	}
	usbRegs := USBPeripheral{
		UHWCON:  avr.UHWCON,
		USBCON:  avr.USBCON,
		USBSTA:  avr.USBSTA,
		USBINT:  avr.USBINT,
		UDCON:   avr.UDCON,
		UDADDR:  avr.UDADDR,
		UDIEN:   avr.UDIEN,
		UDINT:   avr.UDINT,
		UENUM:   avr.UENUM,
		UECONX:  avr.UECONX,
		UECFG0X: avr.UECFG0X,
		UECFG1X: avr.UECFG1X,
		UESTA0X: avr.UESTA0X,
		UEIENX:  avr.UEIENX,
		UEINTX:  avr.UEINTX,
		UEBCHX:  avr.UEBCHX,
		UEBCLX:  avr.UEBCLX,
		UEDATX:  avr.UEDATX,
	}
	return New[C](usbRegs, pll)
}
