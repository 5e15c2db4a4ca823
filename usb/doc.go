// USB device-controller driver for the ATmega32U4
// https://github.com/Ivan-Johnson/avr-hal
//
// Package usb implements a driver for the USB 2.0 full-speed device
// controller integrated into the ATmega32U4 (the microcontroller behind the
// Arduino Micro and Leonardo), adopting the following specification:
//   - ATmega16U4/ATmega32U4 datasheet, section 21 (USB general) and
//     section 22 (USB device controller).
//
// The driver is polled: the surrounding device-class stack (enumeration,
// descriptor dispatch, class routing — none of which lives in this package)
// drives it by allocating endpoints, calling Enable, and then repeatedly
// calling Poll from either its main loop or the USB interrupt vector,
// reacting to the returned event with Read/Write/SetStalled/Suspend/Resume.
//
// This package is only meant to be used with `GOARCH=avr` as built by the
// TinyGo compiler, which injects the `device/avr` register definitions and
// `runtime/volatile` access primitives every AVR build depends on.
package usb
