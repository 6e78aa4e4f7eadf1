package cartridge

// nrom implements mapper 0 (NROM), the simplest iNES board: fixed PRG banks,
// no bank switching. It supports 16 KiB or 32 KiB PRG-ROM (16 KiB mirrors to
// fill the 32 KiB window), 8 KiB CHR-ROM or CHR-RAM, and 8 KiB PRG-RAM at
// $6000-$7FFF.
type nrom struct {
	prgMirrored bool // true when PRG-ROM is exactly 16 KiB and $C000-$FFFF mirrors $8000-$BFFF
}

func newNROM(cart *Cartridge) *nrom {
	return &nrom{prgMirrored: len(cart.PRGROM) == prgBankSize}
}

func (m *nrom) CPURead(ram *RAM, cart *Cartridge, addr uint16) (uint8, bool) {
	switch {
	case addr < 0x2000:
		return ram[addr&0x07FF], true
	case addr >= 0x6000 && addr < 0x8000:
		return cart.PRGRAM[addr-0x6000], true
	case addr >= 0x8000:
		offset := addr - 0x8000
		if m.prgMirrored {
			offset &= 0x3FFF
		}
		return cart.PRGROM[offset], true
	default:
		return 0, false
	}
}

func (m *nrom) CPUWrite(ram *RAM, cart *Cartridge, addr uint16, value uint8) bool {
	switch {
	case addr < 0x2000:
		ram[addr&0x07FF] = value
		return true
	case addr >= 0x6000 && addr < 0x8000:
		cart.PRGRAM[addr-0x6000] = value
		return true
	case addr >= 0x8000:
		// Writes to PRG-ROM are silently accepted per spec.md §4.1.
		return true
	default:
		return false
	}
}

func (m *nrom) PPURead(nt *Nametables, pal *Palette, cart *Cartridge, addr uint16) (uint8, bool) {
	switch {
	case addr < 0x2000:
		return cart.CHR[addr], true
	case addr < 0x3F00:
		return nt[nametableIndex(cart.Mirror, addr)], true
	default:
		return pal[(addr-0x3F00)&0x1F], true
	}
}

func (m *nrom) PPUWrite(nt *Nametables, pal *Palette, cart *Cartridge, addr uint16, value uint8) bool {
	switch {
	case addr < 0x2000:
		if cart.CHRIsRAM {
			cart.CHR[addr] = value
		}
		return true
	case addr < 0x3F00:
		nt[nametableIndex(cart.Mirror, addr)] = value
		return true
	default:
		pal[(addr-0x3F00)&0x1F] = value
		return true
	}
}

// nametableIndex folds one of the four logical 1 KiB nametables ($2000,
// $2400, $2800, $2C00) onto the board's 2 KiB of physical VRAM, per the
// cartridge's mirroring mode. Four-screen mirroring needs cartridge-side
// VRAM this board doesn't have, so it falls back to vertical mirroring
// (spec.md's four-screen-parsed-but-unused Open Question, DESIGN.md).
func nametableIndex(mirror Mirror, addr uint16) uint16 {
	logical := (addr - 0x2000) >> 10 & 0x03
	offset := addr & 0x03FF
	var physPage uint16
	switch mirror {
	case MirrorHorizontal:
		physPage = logical >> 1
	default: // MirrorVertical, MirrorFourScreen
		physPage = logical & 0x01
	}
	return physPage<<10 | offset
}
