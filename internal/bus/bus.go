// Package bus wires the CPU, PPU, APU, input latch, and MMU into a single
// address space, and drives the PPU at three dots per CPU cycle (spec.md
// §4.5).
package bus

import (
	"log/slog"

	"github.com/mehcode/lintel-nes/internal/apu"
	"github.com/mehcode/lintel-nes/internal/cartridge"
	"github.com/mehcode/lintel-nes/internal/input"
	"github.com/mehcode/lintel-nes/internal/memory"
	"github.com/mehcode/lintel-nes/internal/ppu"
)

// Bus is the shared address space, satisfying both cpu.Bus and ppu.Bus
// structurally (neither package imports this one, avoiding a cycle).
type Bus struct {
	mmu   *memory.MMU
	ppu   *ppu.PPU
	apu   *apu.APU
	input *input.Latch
	log   *slog.Logger
}

// New creates a Bus with a fresh MMU, PPU, APU, and input latch. Install a
// cartridge with LoadCartridge before running.
func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	m := memory.New(logger)
	b := &Bus{
		mmu:   m,
		apu:   apu.New(),
		input: input.New(logger),
		log:   logger,
	}
	b.ppu = ppu.New(m.PPUBus(), logger)
	return b
}

// LoadCartridge installs a cartridge on the underlying MMU.
func (b *Bus) LoadCartridge(cart *cartridge.Cartridge) { b.mmu.LoadCartridge(cart) }

// PPU returns the owned PPU, for frame-callback/button wiring by the console.
func (b *Bus) PPU() *ppu.PPU { return b.ppu }

// Input returns the owned input latch, for button-state pushes.
func (b *Bus) Input() *input.Latch { return b.input }

// Reset resets every owned component.
func (b *Bus) Reset() {
	b.ppu.Reset()
	b.apu.Reset()
	b.input.Reset()
}

// Tick advances the PPU by three dots, the 3:1 NTSC dot-per-CPU-cycle ratio
// (spec.md §4.5). Called once per CPU bus access.
func (b *Bus) Tick() {
	for i := 0; i < 3; i++ {
		b.ppu.Step()
	}
}

// NMIPending reports whether the PPU has an NMI request latched.
func (b *Bus) NMIPending() bool { return b.ppu.NMIPending() }

// ClearNMI clears the PPU's latched NMI request.
func (b *Bus) ClearNMI() { b.ppu.ClearNMI() }

// Read services a CPU bus read (spec.md §4.5 dispatch table).
func (b *Bus) Read(addr uint16) uint8 {
	switch {
	case addr >= 0x2000 && addr < 0x4000:
		return b.ppu.ReadRegister(addr)
	case addr == 0x4016 || addr == 0x4017:
		return b.input.Read(addr)
	case addr == 0x4015 || (addr >= 0x4000 && addr < 0x4014):
		return b.apu.Read(addr)
	case addr == 0x4014:
		b.log.Debug("read of write-only OAM DMA register", "addr", addr)
		return 0xFF
	default:
		return b.mmu.CPUBus().Read(addr)
	}
}

// Write services a CPU bus write (spec.md §4.5 dispatch table).
func (b *Bus) Write(addr uint16, value uint8) {
	switch {
	case addr >= 0x2000 && addr < 0x4000:
		b.ppu.WriteRegister(addr, value)
	case addr == 0x4014:
		b.startOAMDMA(value)
	case addr == 0x4016 || addr == 0x4017:
		b.input.Write(addr, value)
	case addr >= 0x4000 && addr < 0x4016:
		b.apu.Write(addr, value)
	default:
		b.mmu.CPUBus().Write(addr, value)
	}
}

// startOAMDMA copies 256 bytes from page*$100 into OAM (spec.md §4.4 "OAM
// DMA"). Modelled as an immediate bulk copy rather than the hardware's
// 513/514-cycle stall: this core's bus has no separate DMA-stall state
// machine, so the transfer is accounted as 256 bus reads' worth of ticks,
// approximating the real timing without reproducing its odd/even-cycle
// parity quirk (out of scope per spec.md's Non-goals on cycle-exact DMA
// stalling).
func (b *Bus) startOAMDMA(page uint8) {
	base := uint16(page) << 8
	for i := 0; i < 256; i++ {
		b.Tick()
		v := b.Read(base + uint16(i))
		b.ppu.WriteOAMByte(v)
	}
}
