package cartridge

import (
	"bytes"
	"strings"
	"testing"
)

func buildINES(prgBanks, chrBanks uint8, flags6, flags7 uint8) []byte {
	header := []byte{'N', 'E', 'S', 0x1A, prgBanks, chrBanks, flags6, flags7, 0, 0, 0, 0, 0, 0, 0, 0}
	buf := bytes.NewBuffer(header)
	buf.Write(make([]byte, int(prgBanks)*prgBankSize))
	buf.Write(make([]byte, int(chrBanks)*chrBankSize))
	return buf.Bytes()
}

func TestLoadRejectsBadMagic(t *testing.T) {
	data := buildINES(1, 1, 0, 0)
	data[0] = 'X'
	if _, err := Load(bytes.NewReader(data)); err == nil {
		t.Fatal("expected error for bad magic")
	}
}

func TestLoadRejectsZeroPRG(t *testing.T) {
	data := buildINES(0, 1, 0, 0)
	if _, err := Load(bytes.NewReader(data)); err == nil {
		t.Fatal("expected error for zero PRG-ROM size")
	}
}

func TestLoadRejectsUnsupportedMapper(t *testing.T) {
	data := buildINES(1, 1, 0x10, 0) // mapper 1
	if _, err := Load(bytes.NewReader(data)); err == nil {
		t.Fatal("expected error for unsupported mapper")
	}
}

func TestLoadCHRRAMWhenZeroBanks(t *testing.T) {
	data := buildINES(1, 0, 0, 0)
	cart, err := Load(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cart.CHRIsRAM {
		t.Fatal("expected CHR-RAM when header reports zero CHR-ROM banks")
	}
	if len(cart.CHR) != chrBankSize {
		t.Fatalf("expected 8 KiB CHR-RAM, got %d bytes", len(cart.CHR))
	}
}

func TestLoadDefaultsPRGRAMTo8KiB(t *testing.T) {
	data := buildINES(1, 1, 0, 0)
	cart, err := Load(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cart.PRGRAM) != defaultPRGRAMSize {
		t.Fatalf("expected default 8 KiB PRG-RAM, got %d", len(cart.PRGRAM))
	}
}

func TestMirroringModes(t *testing.T) {
	cases := []struct {
		flags6 uint8
		want   Mirror
	}{
		{0x00, MirrorHorizontal},
		{0x01, MirrorVertical},
		{0x08, MirrorFourScreen},
		{0x09, MirrorFourScreen}, // four-screen bit wins over mirroring bit
	}
	for _, c := range cases {
		data := buildINES(1, 1, c.flags6, 0)
		cart, err := Load(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cart.Mirror != c.want {
			t.Errorf("flags6=%#x: got mirror %v, want %v", c.flags6, cart.Mirror, c.want)
		}
	}
}

func TestMapperIDCombinesFlags6And7(t *testing.T) {
	data := buildINES(1, 1, 0x00, 0x00)
	cart, err := Load(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cart.MapperID != 0 {
		t.Fatalf("expected mapper 0, got %d", cart.MapperID)
	}

	// Low nibble from flags6 bits 4-7, high nibble from flags7 bits 4-7:
	// $10 and $20 give mapper $21 = 33, which Load rejects by id.
	data = buildINES(1, 1, 0x10, 0x20)
	_, err = Load(bytes.NewReader(data))
	if err == nil || !strings.Contains(err.Error(), "unsupported mapper 33") {
		t.Fatalf("flags6=$10 flags7=$20: got error %v, want unsupported mapper 33", err)
	}
}
