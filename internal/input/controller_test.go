package input

import "testing"

func TestReadSequenceMatchesButtonBitOrder(t *testing.T) {
	l := New(nil)
	l.Controller1.SetButtons([8]bool{true, false, true, false, false, false, false, true}) // A, Select, Right
	l.Write(0x4016, 1) // strobe high
	l.Write(0x4016, 0) // strobe low, latches buttons

	want := []uint8{1, 0, 1, 0, 0, 0, 0, 1}
	for i, w := range want {
		if got := l.Read(0x4016); got != w {
			t.Fatalf("bit %d: got %d, want %d", i, got, w)
		}
	}
}

func TestReadsPastEighthBitReturnZero(t *testing.T) {
	l := New(nil)
	l.Controller1.SetButtons([8]bool{true, true, true, true, true, true, true, true})
	l.Write(0x4016, 1)
	l.Write(0x4016, 0)
	for i := 0; i < 8; i++ {
		l.Read(0x4016)
	}
	if got := l.Read(0x4016); got != 0 {
		t.Fatalf("9th read = %d, want 0", got)
	}
}

func TestStrobeHighContinuouslyReportsButtonA(t *testing.T) {
	l := New(nil)
	l.Write(0x4016, 1) // strobe high
	l.Controller1.SetButton(ButtonA, true)
	if got := l.Read(0x4016); got != 1 {
		t.Fatalf("A pressed while strobed: got %d, want 1", got)
	}
	l.Controller1.SetButton(ButtonA, false)
	if got := l.Read(0x4016); got != 0 {
		t.Fatalf("A released while strobed: got %d, want 0", got)
	}
}

func TestControllersAreIndependent(t *testing.T) {
	l := New(nil)
	l.Controller1.SetButtons([8]bool{true})
	l.Controller2.SetButtons([8]bool{false})
	l.Write(0x4016, 1)
	l.Write(0x4016, 0)
	if got := l.Read(0x4016); got != 1 {
		t.Fatalf("controller1 bit0 = %d, want 1", got)
	}
	if got := l.Read(0x4017); got != 0 {
		t.Fatalf("controller2 bit0 = %d, want 0", got)
	}
}
