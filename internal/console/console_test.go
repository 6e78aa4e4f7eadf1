package console

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeTestROM writes a minimal one-bank NROM image with a reset vector
// pointing at $8000 (three NOPs, $EA) to a temp file and returns its path.
func writeTestROM(t *testing.T) string {
	t.Helper()
	header := []byte{'N', 'E', 'S', 0x1A, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	prg := make([]byte, 16*1024)
	prg[0] = 0xEA // NOP at $8000
	prg[1] = 0xEA
	prg[2] = 0xEA
	prg[0x3FFC] = 0x00 // reset vector -> $8000
	prg[0x3FFD] = 0x80
	chr := make([]byte, 8*1024)

	buf := bytes.NewBuffer(header)
	buf.Write(prg)
	buf.Write(chr)

	path := filepath.Join(t.TempDir(), "test.nes")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("writing test ROM: %v", err)
	}
	return path
}

func TestOpenRejectsMissingFile(t *testing.T) {
	c := New(nil)
	if err := c.Open(filepath.Join(t.TempDir(), "missing.nes")); err == nil {
		t.Fatal("expected error opening a missing ROM")
	}
}

func TestOpenLoadsAndResetsSuccessfully(t *testing.T) {
	c := New(nil)
	if err := c.Open(writeTestROM(t)); err != nil {
		t.Fatalf("Open: %v", err)
	}
}

func TestRunStopsWhenContextCancelled(t *testing.T) {
	c := New(nil)
	if err := c.Open(writeTestROM(t)); err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := c.Run(ctx); err == nil {
		t.Fatal("expected Run to return the context's error once cancelled")
	}
}

func TestSetButtonsDoesNotPanicWithoutCartridge(t *testing.T) {
	c := New(nil)
	c.SetButtons(1, [8]bool{true})
	c.SetButtons(2, [8]bool{false, true})
}
