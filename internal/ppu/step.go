package ppu

// Step advances the PPU by exactly one dot (spec.md §4.4). The bus calls
// this three times per CPU sub-cycle tick.
func (p *PPU) Step() {
	// Odd-frame short-circuit: entering pre-render dot 338 with rendering
	// enabled jumps straight to 339, so dot 338 is never processed.
	if p.line == preRenderLine && p.dot == 338 && p.frameOdd && p.renderingEnabled() {
		p.dot = 339
	}
	p.doDot(p.line, p.dot)
	p.advance()
}

func (p *PPU) advance() {
	p.dot++
	if p.dot > 340 {
		p.dot = 0
		p.line++
		if p.line > preRenderLine {
			p.line = 0
		}
	}
}

func (p *PPU) doDot(line, dot int) {
	if p.nmiDelay > 0 {
		p.nmiDelay--
		if p.nmiDelay == 0 {
			p.nmiLine = true
		}
	}

	activeLine := line == preRenderLine || line < visibleLines
	if activeLine && p.bgEnabled() {
		p.stepFetchPipeline(dot)
		if dot == 256 {
			p.incrementVert()
		}
		if dot == 257 {
			p.copyX()
		}
		if line == preRenderLine && dot >= 280 && dot <= 304 {
			p.copyY()
		}
	}

	if line < visibleLines && dot >= 1 && dot <= 256 {
		p.emitPixel(line, dot)
	}

	switch {
	case line == 241 && dot == 1:
		if p.suppressNextVBlank {
			p.suppressNextVBlank = false
		} else {
			p.vblank = true
			p.armNMI()
			if p.onFrame != nil {
				p.onFrame(p.frame[:])
			}
		}
	case line == preRenderLine && dot == 1:
		p.vblank = false
		p.frameOdd = !p.frameOdd
	}
}

func (p *PPU) stepFetchPipeline(dot int) {
	inFetchWindow := (dot >= 1 && dot <= 256) || (dot >= 321 && dot <= 336)
	if inFetchWindow {
		switch dot % 8 {
		case 2:
			p.nxNametable = p.bus.Read(0x2000 | (p.v & 0x0FFF))
		case 3:
			coarseX := p.v & 0x1F
			coarseY := (p.v >> 5) & 0x1F
			atAddr := 0x23C0 | (p.v & 0x0C00) | ((coarseY >> 2) << 3) | (coarseX >> 2)
			at := p.bus.Read(atAddr)
			shift := ((coarseY & 2) << 1) | (coarseX & 2)
			p.nxAttribute = (at >> shift) & 0x03
		case 5:
			base := p.bgPatternBase()
			loAddr := base | (uint16(p.nxNametable) << 4) | ((p.v >> 12) & 7)
			p.nxTileLo = p.bus.Read(loAddr)
		case 7:
			base := p.bgPatternBase()
			loAddr := base | (uint16(p.nxNametable) << 4) | ((p.v >> 12) & 7)
			p.nxTileHi = p.bus.Read(loAddr + 8)
		case 0:
			p.reloadShiftRegisters()
			p.incrementHorz()
		}
	}

	shiftWindow := (dot >= 2 && dot <= 257) || (dot >= 322 && dot <= 337)
	if shiftWindow {
		p.patternLo <<= 1
		p.patternHi <<= 1
		p.attrLo <<= 1
		p.attrHi <<= 1
	}
}

func (p *PPU) reloadShiftRegisters() {
	p.patternLo = (p.patternLo &^ 0xFF) | uint16(p.nxTileLo)
	p.patternHi = (p.patternHi &^ 0xFF) | uint16(p.nxTileHi)
	var loFill, hiFill uint16
	if p.nxAttribute&0x01 != 0 {
		loFill = 0xFF
	}
	if p.nxAttribute&0x02 != 0 {
		hiFill = 0xFF
	}
	p.attrLo = (p.attrLo &^ 0xFF) | loFill
	p.attrHi = (p.attrHi &^ 0xFF) | hiFill
}

func (p *PPU) emitPixel(line, dot int) {
	bit := uint(15 - p.x)
	p1 := (p.patternLo >> bit) & 1
	p2 := (p.patternHi >> bit) & 1
	a1 := (p.attrLo >> bit) & 1
	a2 := (p.attrHi >> bit) & 1
	paletteIndex := (a2 << 3) | (a1 << 2) | (p2 << 1) | p1

	color := p.bus.Read(0x3F00 + paletteIndex)
	rgb := systemPalette[color&0x3F]
	b := bgra(rgb)

	pos := (line*framebufferWidth + (dot - 1)) * 4
	copy(p.frame[pos:pos+4], b[:])
}

// incrementHorz bumps coarse-X, wrapping at 32 and toggling the horizontal
// nametable bit (spec.md §4.4).
func (p *PPU) incrementHorz() {
	if p.v&0x001F == 31 {
		p.v &^= 0x001F
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

// incrementVert bumps fine-Y, then coarse-Y on fine-Y overflow, with the
// documented special wraps at coarse-Y 29 (toggles the vertical nametable
// bit) and 31 (silent zero).
func (p *PPU) incrementVert() {
	if p.v&0x7000 != 0x7000 {
		p.v += 0x1000
		return
	}
	p.v &^= 0x7000
	y := (p.v & 0x03E0) >> 5
	switch y {
	case 29:
		y = 0
		p.v ^= 0x0800
	case 31:
		y = 0
	default:
		y++
	}
	p.v = (p.v &^ 0x03E0) | (y << 5)
}

func (p *PPU) copyX() { p.v = (p.v &^ 0x041F) | (p.t & 0x041F) }
func (p *PPU) copyY() { p.v = (p.v &^ 0x7BE0) | (p.t & 0x7BE0) }
