package usb

import (
	"fmt"

	"github.com/Ivan-Johnson/avr-hal/internal/bits8"
	"github.com/Ivan-Johnson/avr-hal/internal/irq"
)

// Direction is the data-flow direction of an endpoint, relative to the
// device (spec.md section 3).
type Direction uint8

const (
	Out Direction = iota // host -> device
	In                   // device -> host
)

// EndpointType is the USB transfer type of an endpoint (spec.md section 3).
type EndpointType uint8

const (
	Control EndpointType = iota
	Isochronous
	Bulk
	Interrupt
)

// eptypeBits returns the UECFG0X.EPTYPE encoding for t (datasheet section
// 22.18.2).
func (t EndpointType) eptypeBits() uint8 {
	switch t {
	case Control:
		return 0b00
	case Isochronous:
		return 0b01
	case Bulk:
		return 0b10
	case Interrupt:
		return 0b11
	default:
		panic(fmt.Sprintf("usb: invalid endpoint type %d", t))
	}
}

// Address identifies an endpoint by slot index and direction, following
// ardnew-softusb/device/hal.EndpointConfig's split of a packed USB address
// byte into its constituent fields.
type Address struct {
	Index     uint8
	Direction Direction
}

// epsizeBits returns the UECFG1X.EPSIZE encoding for maxPacketSize, rounded
// up to the next power of two and clamped to at least 8 (spec.md section
// 4.3 step 5).
func epsizeBits(maxPacketSize uint16) uint8 {
	value := nextPow2(maxPacketSize)
	if value < 8 {
		value = 8
	}
	switch value {
	case 8:
		return 0b000
	case 16:
		return 0b001
	case 32:
		return 0b010
	case 64:
		return 0b011
	case 128:
		return 0b100
	case 256:
		return 0b101
	case 512:
		return 0b110
	default:
		panic(fmt.Sprintf("usb: max packet size %d exceeds 512", maxPacketSize))
	}
}

// nextPow2 returns the smallest power of two >= v (v > 0), or 1 if v == 0.
func nextPow2(v uint16) uint16 {
	if v == 0 {
		return 1
	}
	p := uint16(1)
	for p < v {
		p <<= 1
	}
	return p
}

// AllocEndpoint allocates an endpoint and records its parameters for
// programming at the next Enable or Reset (spec.md section 4.2). It
// touches only software state and must be called before Enable, from a
// single context — unlike every other method it does not enter a critical
// section.
//
// interval is accepted but not stored in the endpoint record, and the
// controller never consults it (spec.md section 4.2, section 9).
func (d *Driver[C]) AllocEndpoint(dir Direction, addr *Address, epType EndpointType, maxPacketSize uint16, interval uint8) (Address, error) {
	if addr == nil {
		for index := 1; index < MaxEndpoints; index++ {
			if d.endpoints[index] == nil && maxPacketSize <= endpointCapacity[index] {
				found := Address{Index: uint8(index), Direction: dir}
				return d.AllocEndpoint(dir, &found, epType, maxPacketSize, interval)
			}
		}
		return Address{}, ErrEndpointMemoryOverflow
	}

	index := int(addr.Index)
	if index >= MaxEndpoints {
		return Address{}, ErrInvalidEndpoint
	}

	// EP0 is physically one bidirectional endpoint; the stack may request
	// it redundantly as both directions. The IN duplicate is a no-op
	// success checked before the occupied-slot check below, so re-
	// requesting EP0-IN after EP0-OUT has already been allocated keeps
	// succeeding (spec.md section 4.2, section 6).
	if index == 0 && dir == In {
		return *addr, nil
	}

	if d.endpoints[index] != nil || maxPacketSize > endpointCapacity[index] {
		return Address{}, ErrInvalidEndpoint
	}

	d.endpoints[index] = &endpointRecord{
		epType:        epType,
		dir:           dir,
		maxPacketSize: maxPacketSize,
	}
	return *addr, nil
}

// selectEndpoint selects index as the current endpoint in UENUM and
// verifies the selector accepted it, failing InvalidState if the clock is
// frozen (spec.md section 4.3 step 1, invariant 3).
func (d *Driver[C]) selectEndpoint(cs irq.CriticalSection, index int) error {
	if index >= MaxEndpoints {
		return ErrInvalidEndpoint
	}
	usb := d.usb.Borrow(cs)

	if bits8.Get(usb.USBCON, bitFRZCLK) {
		return ErrInvalidState
	}

	usb.UENUM.Set(uint8(index))
	if usb.UENUM.Get()&maskUENUM != uint8(index) {
		return ErrInvalidState
	}
	return nil
}

// endpointByteCount returns the 11-bit byte count of the currently
// selected endpoint's pending data (spec.md section 4.8).
func (d *Driver[C]) endpointByteCount(cs irq.CriticalSection) uint16 {
	usb := d.usb.Borrow(cs)
	return uint16(usb.UEBCHX.Get())<<8 | uint16(usb.UEBCLX.Get())
}

// configureEndpoint programs one allocated endpoint slot into hardware
// (spec.md section 4.3). It must run under a critical section and is
// called only for indices that hold an allocated record.
func (d *Driver[C]) configureEndpoint(cs irq.CriticalSection, index int) {
	usb := d.usb.Borrow(cs)
	ep := d.endpoints[index]

	if err := d.selectEndpoint(cs, index); err != nil {
		panic(fmt.Sprintf("usb: could not select endpoint %d: %v", index, err))
	}

	bits8.Set(usb.UECONX, bitEPEN)
	bits8.Clear(usb.UECFG1X, bitALLOC)

	usb.UECFG0X.Set(0)
	bits8.SetTo(usb.UECFG0X, bitEPDIR, ep.dir == In)
	bits8.SetN(usb.UECFG0X, fieldEPTYPE, maskEPTYPE, ep.epType.eptypeBits())

	usb.UECFG1X.Set(0)
	bits8.SetN(usb.UECFG1X, fieldEPBK, maskEPBK, 0)
	bits8.SetN(usb.UECFG1X, fieldEPSIZE, maskEPSIZE, epsizeBits(ep.maxPacketSize))

	bits8.Set(usb.UECFG1X, bitALLOC)

	if !bits8.Get(usb.UESTA0X, bitCFGOK) {
		panic(fmt.Sprintf("usb: could not configure endpoint %d: DPRAM exhausted", index))
	}

	bits8.Set(usb.UEIENX, bitRXOUTE)
	bits8.Set(usb.UEIENX, bitRXSTPE)
}
