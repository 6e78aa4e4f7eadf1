// Package memory implements the NES memory-management unit: the RAM,
// nametable, and palette storage shared by the CPU and PPU address spaces,
// arbitrated through the cartridge's mapper (spec.md §4.2).
package memory

import (
	"log/slog"

	"github.com/mehcode/lintel-nes/internal/cartridge"
)

// MMU owns the storage the CPU and PPU address spaces share: 2 KiB of CPU
// internal RAM, 2 KiB of PPU nametable RAM, 32 bytes of palette RAM, and the
// loaded cartridge (with its active mapper). It exposes two independent bus
// views, CPUBus and PPUBus, each delegating unconditionally to the mapper.
type MMU struct {
	ram   cartridge.RAM
	vram  cartridge.Nametables
	pal   cartridge.Palette
	cart  *cartridge.Cartridge
	log   *slog.Logger
}

// New creates an MMU with no cartridge installed. LoadCartridge must be
// called before any bus access is meaningful.
func New(logger *slog.Logger) *MMU {
	if logger == nil {
		logger = slog.Default()
	}
	return &MMU{log: logger}
}

// LoadCartridge installs a cartridge (and its mapper) as the MMU's backing
// store for cartridge-claimed ranges.
func (m *MMU) LoadCartridge(cart *cartridge.Cartridge) {
	m.cart = cart
}

// CPUBus is the CPU-facing view of the MMU.
type CPUBus struct{ mmu *MMU }

// PPUBus is the PPU-facing view of the MMU.
type PPUBus struct{ mmu *MMU }

// CPUBus returns the CPU-facing bus view.
func (m *MMU) CPUBus() CPUBus { return CPUBus{mmu: m} }

// PPUBus returns the PPU-facing bus view.
func (m *MMU) PPUBus() PPUBus { return PPUBus{mmu: m} }

// Read reads a byte from CPU address space. Unclaimed addresses return $FF
// and are logged (spec.md §4.2, §7).
func (b CPUBus) Read(addr uint16) uint8 {
	m := b.mmu
	if m.cart == nil {
		return 0xFF
	}
	if v, ok := m.cart.Mapper.CPURead(&m.ram, m.cart, addr); ok {
		return v
	}
	m.log.Debug("unmapped CPU read", "addr", addr)
	return 0xFF
}

// Write writes a byte to CPU address space. Unclaimed addresses drop the
// write and log a diagnostic (spec.md §4.2, §7).
func (b CPUBus) Write(addr uint16, value uint8) {
	m := b.mmu
	if m.cart == nil {
		return
	}
	if ok := m.cart.Mapper.CPUWrite(&m.ram, m.cart, addr, value); !ok {
		m.log.Debug("unmapped CPU write", "addr", addr, "value", value)
	}
}

// Read reads a byte from PPU address space ($0000-$3FFF). Palette entries
// $3F10/$14/$18/$1C mirror $3F00/$04/$08/$0C (spec.md §3 invariant); that
// mirroring is this caller's responsibility per spec.md §4.1.
func (b PPUBus) Read(addr uint16) uint8 {
	m := b.mmu
	addr &= 0x3FFF
	if addr >= 0x3000 && addr < 0x3F00 {
		addr -= 0x1000 // $3000-$3EFF mirrors $2000-$2EFF.
	}
	if addr >= 0x3F00 {
		addr = palettemirror(addr)
	}
	if m.cart == nil {
		return 0
	}
	if v, ok := m.cart.Mapper.PPURead(&m.vram, &m.pal, m.cart, addr); ok {
		return v
	}
	m.log.Debug("unmapped PPU read", "addr", addr)
	return 0
}

// Write writes a byte to PPU address space ($0000-$3FFF).
func (b PPUBus) Write(addr uint16, value uint8) {
	m := b.mmu
	addr &= 0x3FFF
	if addr >= 0x3000 && addr < 0x3F00 {
		addr -= 0x1000
	}
	if addr >= 0x3F00 {
		addr = palettemirror(addr)
	}
	if m.cart == nil {
		return
	}
	if ok := m.cart.Mapper.PPUWrite(&m.vram, &m.pal, m.cart, addr, value); !ok {
		m.log.Debug("unmapped PPU write", "addr", addr, "value", value)
	}
}

// palettemirror folds the four background-colour mirror entries
// ($3F10/$14/$18/$1C) onto their $3F00/$04/$08/$0C counterparts, and mirrors
// the whole 32-byte palette across $3F00-$3FFF.
func palettemirror(addr uint16) uint16 {
	index := (addr - 0x3F00) & 0x1F
	if index&0x13 == 0x10 {
		index &= 0x0F
	}
	return 0x3F00 + index
}
