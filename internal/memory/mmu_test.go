package memory

import (
	"bytes"
	"testing"

	"github.com/mehcode/lintel-nes/internal/cartridge"
)

// testCartridge builds a minimal 16 KiB-PRG / 8 KiB-CHR-RAM NROM image and
// loads it through the real iNES parser, so MMU tests exercise the same
// mapper-construction path production code does.
func testCartridge(t *testing.T) *cartridge.Cartridge {
	t.Helper()
	header := []byte{'N', 'E', 'S', 0x1A, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	buf := bytes.NewBuffer(header)
	buf.Write(make([]byte, 16*1024))
	cart, err := cartridge.Load(buf)
	if err != nil {
		t.Fatalf("loading test cartridge: %v", err)
	}
	return cart
}

func TestCPURAMMirrorAcrossAllFourMirrors(t *testing.T) {
	mmu := New(nil)
	mmu.LoadCartridge(testCartridge(t))
	bus := mmu.CPUBus()

	bus.Write(0x0042, 0x77)
	for _, mirror := range []uint16{0x0042, 0x0842, 0x1042, 0x1842} {
		if v := bus.Read(mirror); v != 0x77 {
			t.Errorf("mirror %#x: got %#x, want 0x77", mirror, v)
		}
	}
}

func TestPPUNametableMirrorAt3000(t *testing.T) {
	mmu := New(nil)
	mmu.LoadCartridge(testCartridge(t))
	bus := mmu.PPUBus()

	bus.Write(0x2345, 0x55)
	if v := bus.Read(0x3345); v != 0x55 {
		t.Fatalf("$3000-$3EFF should mirror $2000-$2EFF: got %#x", v)
	}
}

func TestPalette4WayMirrorAndEntryMirror(t *testing.T) {
	mmu := New(nil)
	mmu.LoadCartridge(testCartridge(t))
	bus := mmu.PPUBus()

	bus.Write(0x3F00, 0x0F)
	if v := bus.Read(0x3F20); v != 0x0F {
		t.Errorf("palette should mirror every $20: got %#x", v)
	}

	bus.Write(0x3F00, 0x11)
	if v := bus.Read(0x3F10); v != 0x11 {
		t.Errorf("$3F10 should mirror $3F00: got %#x", v)
	}
	bus.Write(0x3F04, 0x22)
	if v := bus.Read(0x3F14); v != 0x22 {
		t.Errorf("$3F14 should mirror $3F04: got %#x", v)
	}
}

func TestPaletteAddressesMod20MirrorEquivalence(t *testing.T) {
	mmu := New(nil)
	mmu.LoadCartridge(testCartridge(t))
	bus := mmu.PPUBus()

	bus.Write(0x3F05, 0x33)
	a := bus.Read(0x3F05)
	b := bus.Read(0x3F25) // 0x3F25 - 0x3F00 = 0x25 -> mod 0x20 = 0x05
	if a != b {
		t.Fatalf("addresses congruent mod $20 must mirror the same entry: %#x vs %#x", a, b)
	}
}

func TestUnmappedCPUReadReturnsFF(t *testing.T) {
	mmu := New(nil)
	mmu.LoadCartridge(testCartridge(t))
	bus := mmu.CPUBus()
	if v := bus.Read(0x5000); v != 0xFF {
		t.Fatalf("unmapped CPU read should return $FF, got %#x", v)
	}
}

func Test16KiBPRGROMMirrorsAtC000(t *testing.T) {
	mmu := New(nil)
	cart := testCartridge(t)
	cart.PRGROM[0] = 0x42
	mmu.LoadCartridge(cart)
	bus := mmu.CPUBus()

	if a, c := bus.Read(0x8000), bus.Read(0xC000); a != c {
		t.Fatalf("$8000 and $C000 should read identical bytes for 16 KiB PRG-ROM: %#x vs %#x", a, c)
	}
}
