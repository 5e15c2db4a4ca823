package usb

import "testing"

func TestPollPriorityOrder(t *testing.T) {
	d := newTestDriver()
	d.usb.Borrow(testCS()).USBCON.(*fakeReg).val &^= 1 << bitFRZCLK

	udint := d.usb.Borrow(testCS()).UDINT.(*fakeReg)
	udint.val = 1<<bitWAKEUPE_I | 1<<bitSUSPE_I | 1<<bitEORSTE_I

	if got := d.Poll().Kind; got != WakeUp {
		t.Fatalf("Poll() = %v, want WakeUp", got)
	}
	if got := d.Poll().Kind; got != Suspend {
		t.Fatalf("Poll() = %v, want Suspend", got)
	}
	if got := d.Poll().Kind; got != Reset {
		t.Fatalf("Poll() = %v, want Reset", got)
	}
	if got := d.Poll().Kind; got != None {
		t.Fatalf("Poll() = %v, want None", got)
	}
}

func TestPollEndpointData(t *testing.T) {
	d := newTestDriver()
	d.usb.Borrow(testCS()).USBCON.(*fakeReg).val &^= 1 << bitFRZCLK

	if _, err := d.AllocEndpoint(Out, &Address{Index: 1, Direction: Out}, Bulk, 64, 0); err != nil {
		t.Fatalf("AllocEndpoint: %v", err)
	}

	d.usb.Borrow(testCS()).UEINTX.(*fakeReg).val |= 1 << bitRXOUTI

	result := d.Poll()
	if result.Kind != EndpointData {
		t.Fatalf("Poll() = %v, want EndpointData", result.Kind)
	}
	if result.Endpoints&(1<<1) == 0 {
		t.Errorf("Endpoints mask = %08b, want bit 1 set", result.Endpoints)
	}
}

func TestPollNoneWhenIdle(t *testing.T) {
	d := newTestDriver()
	d.usb.Borrow(testCS()).USBCON.(*fakeReg).val &^= 1 << bitFRZCLK

	if got := d.Poll().Kind; got != None {
		t.Fatalf("Poll() = %v, want None", got)
	}
}

func TestPollAcksSOFAndVBUSWithoutReporting(t *testing.T) {
	d := newTestDriver()
	d.usb.Borrow(testCS()).USBCON.(*fakeReg).val &^= 1 << bitFRZCLK

	udint := d.usb.Borrow(testCS()).UDINT.(*fakeReg)
	udint.val = 1 << bitSOFE_I
	usbint := d.usb.Borrow(testCS()).USBINT.(*fakeReg)
	usbint.val = 1 << bitVBUSTI

	if got := d.Poll().Kind; got != None {
		t.Fatalf("Poll() = %v, want None", got)
	}
	if udint.val&(1<<bitSOFE_I) != 0 {
		t.Errorf("SOFI still set after Poll")
	}
	if usbint.val&(1<<bitVBUSTI) != 0 {
		t.Errorf("VBUSTI still set after Poll")
	}
}
