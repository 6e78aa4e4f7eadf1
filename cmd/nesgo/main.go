// Command nesgo is the ebiten-based host for the NES core: it loads an
// iNES ROM, drives the emulation loop on its own goroutine, and presents
// the resulting framebuffer in a window.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/sync/errgroup"

	"github.com/mehcode/lintel-nes/internal/console"
)

const (
	nesWidth  = 256
	nesHeight = 240
	windowScale = 3
)

func main() {
	romPath := flag.String("rom", "", "path to an iNES ROM file")
	flag.Parse()

	if *romPath == "" {
		fmt.Fprintln(os.Stderr, "usage: nesgo -rom <path.nes>")
		os.Exit(1)
	}

	logger := slog.Default()
	c := console.New(logger)
	if err := c.Open(*romPath); err != nil {
		logger.Error("failed to open ROM", "path", *romPath, "error", err)
		os.Exit(1)
	}

	game := newGame(c)
	c.SetFrameFunc(game.pushFrame)

	ebiten.SetWindowTitle("nesgo")
	ebiten.SetWindowSize(nesWidth*windowScale, nesHeight*windowScale)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// errgroup supervises the emulation goroutine against the ebiten UI
	// goroutine's shutdown only at this outer boundary; the bus/CPU/PPU
	// step path itself stays single-threaded and synchronous.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.Run(gctx)
	})

	if err := ebiten.RunGame(game); err != nil {
		logger.Error("ebiten run loop exited with error", "error", err)
	}
	cancel()

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("emulation loop exited with error", "error", err)
	}
}

// game implements ebiten.Game, bridging window input/output to the
// console running on its own goroutine.
type game struct {
	console *console.Console

	mu    sync.Mutex
	frame []uint8 // latest BGRA framebuffer snapshot, owned by the UI goroutine
}

func newGame(c *console.Console) *game {
	return &game{
		console: c,
		frame:   make([]uint8, nesWidth*nesHeight*4),
	}
}

// pushFrame is the console's per-frame callback, invoked from the
// emulation goroutine; it must not retain the slice past the call.
func (g *game) pushFrame(frame []uint8) {
	g.mu.Lock()
	copy(g.frame, frame)
	g.mu.Unlock()
}

// keyMap is the fixed NES-controller-1 key binding.
var keyMap = []struct {
	key    ebiten.Key
	button int // index into the [8]bool passed to Console.SetButtons
}{
	{ebiten.KeyZ, 0},         // A
	{ebiten.KeyX, 1},         // B
	{ebiten.KeyShiftRight, 2}, // Select
	{ebiten.KeyEnter, 3},     // Start
	{ebiten.KeyArrowUp, 4},
	{ebiten.KeyArrowDown, 5},
	{ebiten.KeyArrowLeft, 6},
	{ebiten.KeyArrowRight, 7},
}

func (g *game) Update() error {
	var buttons [8]bool
	for _, m := range keyMap {
		buttons[m.button] = ebiten.IsKeyPressed(m.key)
	}
	g.console.SetButtons(1, buttons)
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.mu.Lock()
	rgba := bgraToRGBA(g.frame)
	g.mu.Unlock()
	screen.WritePixels(rgba)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return nesWidth, nesHeight
}

// bgraToRGBA converts the core's BGRA framebuffer into the RGBA byte order
// ebiten.Image.WritePixels expects. Alpha is always 255, so premultiplied
// vs. straight alpha makes no difference here.
func bgraToRGBA(bgra []uint8) []uint8 {
	out := make([]uint8, len(bgra))
	for i := 0; i+3 < len(bgra); i += 4 {
		out[i+0] = bgra[i+2]
		out[i+1] = bgra[i+1]
		out[i+2] = bgra[i+0]
		out[i+3] = bgra[i+3]
	}
	return out
}
