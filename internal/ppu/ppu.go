// Package ppu implements a dot-accurate NES 2C02 picture processing unit:
// 262 scanlines of 341 dots each, a cycle-exact background fetch pipeline,
// and the CPU-facing register port. Sprite rendering and sprite-zero-hit
// are out of scope.
package ppu

import "log/slog"

const (
	dotsPerLine   = 341
	linesPerFrame = 262
	preRenderLine = 261
	visibleLines  = 240

	framebufferWidth  = 256
	framebufferHeight = 240
)

// Bus is the PPU-facing view of VRAM/palette/CHR storage (satisfied by
// memory.PPUBus). Kept local to avoid an import cycle with package memory.
type Bus interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
}

// FrameFunc is invoked once per frame, at V-Blank entry, with a borrowed
// view of the BGRA framebuffer (spec.md §6 "Frame output"). The callee must
// not retain the slice past the call.
type FrameFunc func(frame []uint8)

// PPU is the picture processing unit.
type PPU struct {
	bus Bus
	log *slog.Logger

	// CPU-visible registers, stored raw; individual bits are decoded by the
	// accessor methods below.
	ctrl   uint8 // $2000
	mask   uint8 // $2001
	oamAddr uint8 // $2003

	vblank bool

	// Internal scroll state (spec.md §3): v/t are 15-bit VRAM addresses,
	// x is 3-bit fine-X, w is the first/second-write latch.
	v, t uint16
	x    uint8
	w    bool

	oam [256]uint8

	// Fetch-pipeline latches, filled by the dot%8 fetch state machine and
	// reloaded into the shift registers at dot%8==0.
	nxNametable uint8
	nxAttribute uint8
	nxTileLo    uint8
	nxTileHi    uint8

	patternLo, patternHi uint16
	attrLo, attrHi       uint16 // low byte = next tile's attribute bits, replicated across 8; high byte = current tile's

	line int
	dot  int
	frameOdd bool

	// suppressNextVBlank is set by a $2002 read one dot before the V-Blank
	// set point and consumed by the set point itself (spec.md §4.4).
	suppressNextVBlank bool

	// NMI delay/suppression state (spec.md §4.4).
	nmiDelay   int  // dots remaining until NMI fires, 0 = none pending
	nmiLine    bool // PPU's own signal to the bus's NMI latch
	nmiOutput  bool // decoded from ctrl bit 7

	frame [framebufferWidth * framebufferHeight * 4]uint8

	onFrame FrameFunc
}

// New creates a PPU reading/writing through bus.
func New(bus Bus, logger *slog.Logger) *PPU {
	if logger == nil {
		logger = slog.Default()
	}
	return &PPU{bus: bus, log: logger, line: preRenderLine}
}

// SetFrameFunc installs the per-frame callback.
func (p *PPU) SetFrameFunc(f FrameFunc) { p.onFrame = f }

// Reset clears timing and register state to power-up values.
func (p *PPU) Reset() {
	p.ctrl, p.mask, p.oamAddr = 0, 0, 0
	p.vblank = false
	p.v, p.t, p.x, p.w = 0, 0, 0, false
	p.line, p.dot = preRenderLine, 0
	p.frameOdd = false
	p.nmiDelay, p.nmiOutput, p.nmiLine = 0, false, false
}

// --- decoded register bits -------------------------------------------------

func (p *PPU) bgPatternBase() uint16 {
	if p.ctrl&0x10 != 0 {
		return 0x1000
	}
	return 0x0000
}

func (p *PPU) vramIncrement() uint16 {
	if p.ctrl&0x04 != 0 {
		return 32
	}
	return 1
}

func (p *PPU) renderingEnabled() bool { return p.mask&0x18 != 0 }
func (p *PPU) bgEnabled() bool        { return p.mask&0x08 != 0 }

// --- NMI plumbing -----------------------------------------------------------

// NMIPending reports whether the bus should see a latched NMI request.
func (p *PPU) NMIPending() bool { return p.nmiLine }

// ClearNMI is called by the CPU once it begins servicing the interrupt.
func (p *PPU) ClearNMI() { p.nmiLine = false }

func (p *PPU) armNMI() {
	if p.nmiOutput {
		p.nmiDelay = 2
	}
}

func (p *PPU) cancelNMI() { p.nmiDelay = 0; p.nmiLine = false }

// --- CPU-facing register port ($2000-$2007, mirrored every 8 bytes) -------

// ReadRegister services a CPU read of $2000-$3FFF.
func (p *PPU) ReadRegister(addr uint16) uint8 {
	switch addr & 7 {
	case 2: // PPUSTATUS
		var v uint8
		if p.vblank {
			v |= 0x80
		}
		if p.line == 241 && p.dot == 0 {
			// Reading exactly one dot before the V-Blank set point
			// suppresses that set entirely (spec.md §4.4).
			p.suppressNextVBlank = true
		}
		if p.line == 241 && p.dot >= 1 && p.dot <= 3 {
			// Reading on or within 2 dots after the set point cancels a
			// pending NMI (spec.md §4.4).
			p.cancelNMI()
		}
		p.vblank = false
		p.w = false
		return v
	case 4: // OAMDATA
		return p.oam[p.oamAddr]
	case 7: // PPUDATA
		v := p.bus.Read(p.v)
		p.v += p.vramIncrement()
		return v
	default:
		p.log.Debug("read of write-only PPU register", "addr", addr)
		return 0
	}
}

// WriteRegister services a CPU write to $2000-$3FFF.
func (p *PPU) WriteRegister(addr uint16, value uint8) {
	switch addr & 7 {
	case 0: // PPUCTRL
		if value&0x40 != 0 {
			p.log.Debug("PPU slave-mode bit written (out of range, ignored)", "value", value)
		}
		wasOutput := p.nmiOutput
		p.nmiOutput = value&0x80 != 0
		p.t = (p.t &^ 0x0C00) | (uint16(value&0x03) << 10)
		p.ctrl = value
		if !wasOutput && p.nmiOutput && p.vblank && p.dot != 1 {
			p.armNMI()
		} else if wasOutput && !p.nmiOutput {
			p.cancelNMI()
		}
	case 1: // PPUMASK
		p.mask = value
	case 3: // OAMADDR
		p.oamAddr = value
	case 4: // OAMDATA
		p.oam[p.oamAddr] = value
		p.oamAddr++
	case 5: // PPUSCROLL
		if !p.w {
			p.t = (p.t &^ 0x001F) | uint16(value>>3)
			p.x = value & 7
		} else {
			p.t = (p.t &^ 0x73E0) | (uint16(value&0x07) << 12) | (uint16(value>>3) << 5)
		}
		p.w = !p.w
	case 6: // PPUADDR
		if !p.w {
			p.t = (p.t &^ 0x7F00) | (uint16(value&0x3F) << 8)
		} else {
			p.t = (p.t &^ 0x00FF) | uint16(value)
			p.v = p.t
		}
		p.w = !p.w
	case 7: // PPUDATA
		p.bus.Write(p.v, value)
		p.v += p.vramIncrement()
	}
}

// WriteOAMByte is used by OAM DMA (spec.md §4.4 "OAM DMA") to copy a byte
// into OAM via the same path $2004 writes use, post-incrementing OAMADDR.
func (p *PPU) WriteOAMByte(value uint8) {
	p.oam[p.oamAddr] = value
	p.oamAddr++
}

// Framebuffer returns a read-only view of the current framebuffer.
func (p *PPU) Framebuffer() []uint8 { return p.frame[:] }
