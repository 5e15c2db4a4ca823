package usb

import "testing"

func TestSetDeviceAddress(t *testing.T) {
	d := newTestDriver()
	d.SetDeviceAddress(0x42)

	udaddr := d.usb.Borrow(testCS()).UDADDR.(*fakeReg)
	if udaddr.val&maskUADD != 0x42 {
		t.Errorf("UADD = %#x, want %#x", udaddr.val&maskUADD, 0x42)
	}
	if udaddr.val&(1<<bitADDEN) == 0 {
		t.Errorf("ADDEN not set")
	}
}

func TestStallRoundTrip(t *testing.T) {
	d, addr := allocatedDriver(t, Bulk, 64)

	if err := d.SetStalled(addr, true); err != nil {
		t.Fatalf("SetStalled(true): %v", err)
	}
	stalled, err := d.IsStalled(addr)
	if err != nil {
		t.Fatalf("IsStalled: %v", err)
	}
	if !stalled {
		t.Errorf("IsStalled = false, want true")
	}

	if err := d.SetStalled(addr, false); err != nil {
		t.Fatalf("SetStalled(false): %v", err)
	}
	stalled, err = d.IsStalled(addr)
	if err != nil {
		t.Fatalf("IsStalled: %v", err)
	}
	if stalled {
		t.Errorf("IsStalled = true, want false")
	}
}

// TestSuspendResume checks Testable Property/Scenario F: FRZCLK toggles
// 0->1->0, UDIEN.SUSPE toggles 1->0->1, and UDIEN.WAKEUPE toggles 0->1->0
// across a Suspend followed by a Resume (spec.md section 4.10).
func TestSuspendResume(t *testing.T) {
	d := newTestDriver()
	udien := d.usb.Borrow(testCS()).UDIEN.(*fakeReg)
	udien.val = 1 << bitSUSPE_I
	d.usb.Borrow(testCS()).USBCON.(*fakeReg).val &^= 1 << bitFRZCLK

	d.Suspend()

	usbc := d.usb.Borrow(testCS()).USBCON.(*fakeReg)
	if usbc.val&(1<<bitFRZCLK) == 0 {
		t.Errorf("FRZCLK not set after Suspend")
	}
	if udien.val&(1<<bitSUSPE_I) != 0 {
		t.Errorf("SUSPE still enabled after Suspend")
	}
	if udien.val&(1<<bitWAKEUPE_I) == 0 {
		t.Errorf("WAKEUPE not enabled after Suspend")
	}

	d.Resume()

	if usbc.val&(1<<bitFRZCLK) != 0 {
		t.Errorf("FRZCLK still set after Resume")
	}
	if udien.val&(1<<bitWAKEUPE_I) != 0 {
		t.Errorf("WAKEUPE still enabled after Resume")
	}
	if udien.val&(1<<bitSUSPE_I) == 0 {
		t.Errorf("SUSPE not re-enabled after Resume")
	}
}
