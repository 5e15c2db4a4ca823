package usb

import "github.com/Ivan-Johnson/avr-hal/internal/irq"

// testCS returns a zero-value CriticalSection for tests that need to reach
// into a Guarded value directly, bypassing Free since tests run
// single-threaded and don't need the real disable/restore dance.
func testCS() irq.CriticalSection {
	return irq.CriticalSection{}
}

// fakeReg is an in-memory register-trace fake satisfying bits8.Reg, letting
// tests drive and observe every MMIO write the driver makes without any
// real hardware (spec.md section 8). A fakeReg built by newFlagReg models an
// interrupt-flag register: writing 0 to a bit clears it, writing 1 leaves it
// unchanged, and bits in readOnly ignore writes altogether.
type fakeReg struct {
	val   uint8
	reads int
	trace []uint8

	flag     bool
	readOnly uint8
}

func newFakeReg(initial uint8) *fakeReg {
	return &fakeReg{val: initial}
}

func newFlagReg(initial, readOnly uint8) *fakeReg {
	return &fakeReg{val: initial, flag: true, readOnly: readOnly}
}

func (r *fakeReg) Get() uint8 {
	r.reads++
	return r.val
}

func (r *fakeReg) Set(v uint8) {
	r.trace = append(r.trace, v)
	if r.flag {
		v = r.val & (v | r.readOnly)
	}
	r.val = v
}

// fakeUSB builds a USBPeripheral/PLLPeripheral pair of fakeRegs in a
// reset-like state (clock frozen, DETACH set, CFGOK set, the endpoint bank
// ready with TXINI, RWAL and FIFOCON set, PLLFRQ at its power-on value) so
// tests can poke fields directly.
func fakeUSB() (USBPeripheral, PLLPeripheral) {
	usb := USBPeripheral{
		UHWCON:  newFakeReg(0),
		USBCON:  newFakeReg(1 << bitFRZCLK),
		USBSTA:  newFakeReg(0),
		USBINT:  newFlagReg(0, 0),
		UDCON:   newFakeReg(1 << bitDETACH),
		UDADDR:  newFakeReg(0),
		UDIEN:   newFakeReg(0),
		UDINT:   newFlagReg(0, 0),
		UENUM:   newFakeReg(0),
		UECONX:  newFakeReg(0),
		UECFG0X: newFakeReg(0),
		UECFG1X: newFakeReg(0),
		UESTA0X: newFakeReg(1 << bitCFGOK),
		UEIENX:  newFakeReg(0),
		UEINTX:  newFlagReg(1<<bitTXINI|1<<bitRWAL|1<<bitFIFOCON, 1<<bitRWAL),
		UEBCHX:  newFakeReg(0),
		UEBCLX:  newFakeReg(0),
		UEDATX:  newFakeReg(0),
	}
	pll := PLLPeripheral{
		PLLCSR: &lockingPLLCSR{},
		PLLFRQ: newFakeReg(pllfrqPowerOnValue),
	}
	return usb, pll
}

// rwalCountdown models a non-control OUT endpoint's shared-FIFO bank:
// UEDATX.Get drains one byte from data and advances pos; UEINTX.Get
// reports RWAL set only while bytes remain, so a Read loop naturally stops
// once the bank is empty.
type rwalCountdown struct {
	data []byte
	pos  int
}

type rwalUEDATX struct {
	c *rwalCountdown
}

func (r *rwalUEDATX) Get() uint8 {
	b := r.c.data[r.c.pos]
	r.c.pos++
	return b
}

func (r *rwalUEDATX) Set(uint8) {}

type rwalUEINTX struct {
	fakeReg
	c *rwalCountdown
}

func (r *rwalUEINTX) Get() uint8 {
	v := r.fakeReg.Get()
	if r.c.pos < len(r.c.data) {
		return v | 1<<bitRWAL
	}
	return v &^ (1 << bitRWAL)
}

// lockingPLLCSR is a fakeReg whose Get always reports PLOCK set once PLLE
// has been written, modelling a PLL that locks instantly — the common case
// tests want, as opposed to exercising the spin loop itself.
type lockingPLLCSR struct {
	fakeReg
}

func (r *lockingPLLCSR) Set(v uint8) {
	r.fakeReg.Set(v)
	if v&(1<<bitPLLE) != 0 {
		r.val |= 1 << bitPLOCK
	} else {
		r.val &^= 1 << bitPLOCK
	}
}
