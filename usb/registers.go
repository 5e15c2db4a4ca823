package usb

import (
	"github.com/Ivan-Johnson/avr-hal/internal/bits8"
)

// reg is the register accessor the driver depends on: satisfied by
// *runtime/volatile.Register8 on a real ATmega32U4 build, and by an
// in-memory fake in the register-trace tests.
type reg = bits8.Reg

// PLLPeripheral is the subset of the ATmega32U4 PLL register block this
// driver touches (datasheet section 6).
type PLLPeripheral struct {
	PLLCSR reg
	PLLFRQ reg
}

// USBPeripheral is the subset of the ATmega32U4 USB_DEVICE register block
// this driver touches (datasheet section 22). Field naming matches the
// datasheet's register names.
type USBPeripheral struct {
	UHWCON  reg
	USBCON  reg
	USBSTA  reg
	USBINT  reg
	UDCON   reg
	UDADDR  reg
	UDIEN   reg
	UDINT   reg
	UENUM   reg
	UECONX  reg
	UECFG0X reg
	UECFG1X reg
	UESTA0X reg
	UEIENX  reg
	UEINTX  reg
	UEBCHX  reg
	UEBCLX  reg
	UEDATX  reg
}

// hasNilField reports whether any register in p was left unset, which
// would otherwise surface only as a nil-pointer panic on first access.
func (p PLLPeripheral) hasNilField() bool {
	return p.PLLCSR == nil || p.PLLFRQ == nil
}

// hasNilField reports whether any register in u was left unset, which
// would otherwise surface only as a nil-pointer panic on first access.
func (u USBPeripheral) hasNilField() bool {
	return u.UHWCON == nil || u.USBCON == nil || u.USBSTA == nil || u.USBINT == nil ||
		u.UDCON == nil || u.UDADDR == nil || u.UDIEN == nil || u.UDINT == nil ||
		u.UENUM == nil || u.UECONX == nil || u.UECFG0X == nil || u.UECFG1X == nil ||
		u.UESTA0X == nil || u.UEIENX == nil || u.UEINTX == nil || u.UEBCHX == nil ||
		u.UEBCLX == nil || u.UEDATX == nil
}

// PLLCSR bits (datasheet section 6).
const (
	bitPLOCK  = 0
	bitPLLE   = 1
	bitPINDIV = 2
)

// PLLFRQ fields (datasheet section 6). Power-on reset value is 0b0000_0100
// (PDIV=4); enable resets to this value explicitly rather than assuming a
// PAC-provided reset, per the original driver's own note that the generated
// reset value could not be trusted.
const (
	pllfrqPowerOnValue = 0b0000_0100

	fieldPDIV     = 0 // bits 3:0, selects the PLL output divider
	maskPDIV      = 0b1111
	pdiv48MHzFull = 0b1010 // datasheet table: PDIV selecting 48 MHz output

	fieldPLLTM  = 4 // bits 5:4, routes the PLL to high-speed timers
	maskPLLTM   = 0b11
	pllTMNoneHS = 0b00 // disconnect timers; USB has the PLL to itself

	bitPLLUSB = 6
)

// UHWCON bits.
const bitUVREGE = 0

// USBCON bits.
const (
	bitVBUSTE  = 0
	bitFRZCLK  = 5
	bitUSBE    = 7
	bitOTGPADE = 4
)

// USBSTA bits.
const bitVBUS = 0

// USBINT bits.
const bitVBUSTI = 0

// UDCON bits.
const bitDETACH = 0

// UDADDR fields.
const (
	fieldUADD = 0 // bits 6:0
	maskUADD  = 0b0111_1111
	bitADDEN  = 7
)

// UDIEN / UDINT bits (shared positions across the two registers).
const (
	bitSUSPE_I   = 0 // SUSPE in UDIEN, SUSPI in UDINT
	bitSOFE_I    = 2 // SOFE in UDIEN, SOFI in UDINT
	bitEORSTE_I  = 3 // EORSTE in UDIEN, EORSTI in UDINT
	bitWAKEUPE_I = 4 // WAKEUPE in UDIEN, WAKEUPI in UDINT
)

// UENUM field.
const maskUENUM = 0b111

// UECONX bits.
const (
	bitEPEN     = 0
	bitSTALLRQC = 4
	bitSTALLRQ  = 5
)

// UECFG0X fields.
const (
	fieldEPTYPE = 6 // bits 7:6
	maskEPTYPE  = 0b11
	bitEPDIR    = 0
)

// UECFG1X fields.
const (
	bitALLOC    = 1
	fieldEPSIZE = 4 // bits 6:4
	maskEPSIZE  = 0b111
	fieldEPBK   = 2 // bits 3:2
	maskEPBK    = 0b11
)

// UESTA0X bits.
const bitCFGOK = 7

// UEIENX bits.
const (
	bitRXOUTE = 2
	bitRXSTPE = 3
)

// UEINTX bits.
const (
	bitTXINI  = 0
	bitFIFOCON = 7
	bitRWAL   = 5
	bitRXOUTI = 2
	bitRXSTPI = 3
)

// Safe interrupt-flag clear masks (spec.md section 4.12). Each is the fixed
// set of "known preserve-as-one" bits: writing it back with specific bits
// cleared cannot race-clear a flag the hardware set between read and write,
// because the write never depends on a read.
const (
	maskUDINT_PRESERVE  uint8 = 0x7D // bits 1, 7 reserved: leave clear
	maskUEINTX_PRESERVE uint8 = 0xDF // bit 5 (RWAL) read-only
	maskUSBINT_PRESERVE uint8 = 0x01 // bits 7:1 reserved: leave clear
)

// clearFlags writes preserve with clearBits forced to zero, releasing only
// the requested interrupt flags without disturbing any flag set by hardware
// in between a read and this write (spec.md section 4.12).
func clearFlags(r reg, preserve, clearBits uint8) {
	bits8.WriteMasked(r, preserve&^clearBits)
}
