// Package console wires a CPU, the shared Bus, and a loaded cartridge into
// a runnable NES system, exposing the host-facing surface spec.md §6
// describes (load/reset/run, frame callback, button input).
package console

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mehcode/lintel-nes/internal/bus"
	"github.com/mehcode/lintel-nes/internal/cartridge"
	"github.com/mehcode/lintel-nes/internal/cpu"
	"github.com/mehcode/lintel-nes/internal/ppu"
)

// Console owns one running NES system.
type Console struct {
	bus *bus.Bus
	cpu *cpu.CPU
	log *slog.Logger
}

// New creates a Console with no cartridge loaded.
func New(logger *slog.Logger) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	b := bus.New(logger)
	return &Console{
		bus: b,
		cpu: cpu.New(b),
		log: logger,
	}
}

// Open loads an iNES image from path, installs it, and resets the system
// (spec.md §6, §7 — load/decode failures surface as a wrapped error).
func (c *Console) Open(path string) error {
	cart, err := cartridge.LoadFile(path)
	if err != nil {
		return fmt.Errorf("console: opening %s: %w", path, err)
	}
	c.bus.LoadCartridge(cart)
	c.Reset()
	return nil
}

// Reset resets the CPU and every bus-owned component to power-up state.
func (c *Console) Reset() {
	c.bus.Reset()
	c.cpu.Reset()
}

// SetFrameFunc installs the per-frame callback, invoked at V-Blank entry
// with a borrowed view of the BGRA framebuffer (spec.md §6).
func (c *Console) SetFrameFunc(f ppu.FrameFunc) { c.bus.PPU().SetFrameFunc(f) }

// SetButtons pushes the current button state for controller 1 or 2 (1 or 2).
// Host input callbacks (on_key_down/on_key_up) collapse to this per-frame
// push rather than per-edge events.
func (c *Console) SetButtons(controller int, buttons [8]bool) {
	switch controller {
	case 1:
		c.bus.Input().Controller1.SetButtons(buttons)
	case 2:
		c.bus.Input().Controller2.SetButtons(buttons)
	}
}

// Run steps the CPU until ctx is cancelled. Grounded on the teacher's
// signal.Notify-driven graceful shutdown, reworked around context.Context
// rather than an os.Exit call buried in a goroutine.
func (c *Console) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			c.cpu.RunNext()
		}
	}
}
