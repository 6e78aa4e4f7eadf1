// Package cpu implements a sub-cycle-accurate 6502 interpreter for the NES.
//
// Every bus access is preceded by a tick into the Bus, so the caller's PPU
// (or whatever else observes the bus) advances in lockstep with the real
// part instead of being stepped in bulk after the fact.
package cpu

import "fmt"

// AddressingMode identifies how an opcode's operand is located.
type AddressingMode int

const (
	Implied AddressingMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Relative
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndexedIndirect // (zp,X)
	IndirectIndexed // (zp),Y
)

const (
	stackBase = 0x0100

	nFlagMask      = 0x80
	vFlagMask      = 0x40
	unusedMask     = 0x20
	bFlagMask      = 0x10
	dFlagMask      = 0x08
	iFlagMask      = 0x04
	zFlagMask      = 0x02
	cFlagMask      = 0x01

	nmiVector   = 0xFFFA
	resetVector = 0xFFFC
	irqVector   = 0xFFFE
)

// Bus is everything the CPU needs from its surroundings: a ticked memory
// interface and the NMI latch the PPU raises. Implemented by *bus.Bus; kept
// here (rather than imported from package bus) so the dependency runs one
// way only, matching the teacher's MemoryInterface decoupling.
type Bus interface {
	// Tick advances every other ticked component (the PPU, chiefly) by one
	// CPU cycle's worth of work. Called once per bus access, per §4.3/§5.
	Tick()
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)

	// NMIPending reports whether the PPU has latched an NMI request.
	NMIPending() bool
	// ClearNMI clears the latch once the CPU has begun servicing it.
	ClearNMI()
}

// instruction is one opcode table entry.
type instruction struct {
	Name string
	Mode AddressingMode
	Run  func(c *CPU, mode AddressingMode)
}

// Trace is emitted before each instruction decodes, for nestest-style
// golden-log comparison in tests (see SPEC_FULL.md §8). Operand1/Operand2
// are only meaningful up to the addressing mode's operand length (0, 1, or
// 2 bytes); unused trailing bytes are zero.
type Trace struct {
	PC                 uint16
	A, X, Y, S         uint8
	P                  uint8
	Cycle              uint64
	Opcode             uint8
	Mnemonic           string
	Operand1, Operand2 uint8
}

// CPU is the 6502 processor core.
type CPU struct {
	A  uint8
	X  uint8
	Y  uint8
	SP uint8
	PC uint16

	C, Z, I, D, B, V, N bool

	bus    Bus
	cycles uint64

	table [256]instruction

	// TraceFunc, if set, is called immediately before each instruction is
	// decoded (after step 1 of run_next has not yet happened) so tests can
	// compare against nestest-style golden logs.
	TraceFunc func(Trace)
}

// New creates a CPU wired to bus. Reset must be called before the first
// RunNext to establish the power-up register state and load PC from the
// reset vector.
func New(bus Bus) *CPU {
	c := &CPU{bus: bus, SP: 0xFD}
	c.initTable()
	return c
}

// Reset performs the documented reset protocol (spec.md §4.3): registers to
// zero, S = $FD, P = $34 (I, B, U set), PC loaded from $FFFC/$FFFD.
func (c *CPU) Reset() {
	c.A, c.X, c.Y = 0, 0, 0
	c.SP = 0xFD
	c.C, c.Z, c.V, c.N = false, false, false, false
	c.I, c.B, c.D = true, true, false
	lo := c.tickRead(resetVector)
	hi := c.tickRead(resetVector + 1)
	c.PC = uint16(hi)<<8 | uint16(lo)
}

// Cycles returns the running CPU-cycle counter, for diagnostics and tests.
func (c *CPU) Cycles() uint64 { return c.cycles }

// RunNext executes exactly one instruction, following run_next in spec.md
// §4.3, and services a latched NMI afterward.
func (c *CPU) RunNext() {
	if c.TraceFunc != nil {
		c.TraceFunc(c.buildTrace())
	}

	opcode := c.tickRead(c.PC)
	c.PC++

	if opcode == 0x00 {
		c.opBRK()
		c.serviceNMI()
		return
	}

	entry := c.table[opcode]
	if entry.Run == nil {
		panic(fmt.Sprintf("cpu: no opcode record for $%02X at PC=$%04X", opcode, c.PC-1))
	}

	if entry.Mode == Implied || entry.Mode == Accumulator {
		c.dummyRead(c.PC)
	}

	entry.Run(c, entry.Mode)

	c.serviceNMI()
}

// buildTrace snapshots a nestest-style trace record via non-ticking peeks,
// so producing it never consumes a bus cycle or advances PC.
func (c *CPU) buildTrace() Trace {
	opcode := c.bus.Read(c.PC)
	entry := c.table[opcode]
	mnemonic := entry.Name
	if opcode == 0x00 {
		mnemonic = "BRK"
	}
	t := Trace{
		PC: c.PC, A: c.A, X: c.X, Y: c.Y, S: c.SP, P: c.statusByte(false),
		Cycle: c.cycles, Opcode: opcode, Mnemonic: mnemonic,
	}
	switch operandLen(entry.Mode) {
	case 1:
		t.Operand1 = c.bus.Read(c.PC + 1)
	case 2:
		t.Operand1 = c.bus.Read(c.PC + 1)
		t.Operand2 = c.bus.Read(c.PC + 2)
	}
	return t
}

// operandLen reports how many operand bytes follow the opcode byte for mode.
func operandLen(mode AddressingMode) int {
	switch mode {
	case Implied, Accumulator:
		return 0
	case Absolute, AbsoluteX, AbsoluteY, Indirect:
		return 2
	default:
		return 1
	}
}

// serviceNMI implements step 5 of run_next: three pushes, two vector-fetch
// ticks, set I, clear the latch.
func (c *CPU) serviceNMI() {
	if !c.bus.NMIPending() {
		return
	}
	c.push(uint8(c.PC >> 8))
	c.push(uint8(c.PC))
	c.push(c.statusByte(true))
	lo := c.tickRead(nmiVector)
	hi := c.tickRead(nmiVector + 1)
	c.PC = uint16(hi)<<8 | uint16(lo)
	c.I = true
	c.bus.ClearNMI()
}

// --- bus primitives -------------------------------------------------------

func (c *CPU) tickRead(addr uint16) uint8 {
	c.bus.Tick()
	c.cycles++
	return c.bus.Read(addr)
}

func (c *CPU) tickWrite(addr uint16, value uint8) {
	c.bus.Tick()
	c.cycles++
	c.bus.Write(addr, value)
}

func (c *CPU) dummyRead(addr uint16) { c.tickRead(addr) }

func (c *CPU) fetchByte() uint8 {
	v := c.tickRead(c.PC)
	c.PC++
	return v
}

func (c *CPU) push(v uint8) {
	c.tickWrite(stackBase+uint16(c.SP), v)
	c.SP--
}

func (c *CPU) pop() uint8 {
	c.SP++
	return c.tickRead(stackBase + uint16(c.SP))
}

// --- status register ------------------------------------------------------

// statusByte packs the flags into P. The B flag is forced to 1 only when
// pushed by PHP/BRK/NMI (forPush), matching the documented stack convention
// (spec.md §4.3 "Stack").
func (c *CPU) statusByte(forPush bool) uint8 {
	var p uint8
	if c.C {
		p |= cFlagMask
	}
	if c.Z {
		p |= zFlagMask
	}
	if c.I {
		p |= iFlagMask
	}
	if c.D {
		p |= dFlagMask
	}
	if c.V {
		p |= vFlagMask
	}
	if c.N {
		p |= nFlagMask
	}
	p |= unusedMask
	if forPush || c.B {
		p |= bFlagMask
	}
	return p
}

// setStatusByte unpacks P into the flags. Bit 4 (B) is never restored as a
// flag bit: PLP/RTI always clear it (spec.md §4.3 "Stack").
func (c *CPU) setStatusByte(p uint8) {
	c.C = p&cFlagMask != 0
	c.Z = p&zFlagMask != 0
	c.I = p&iFlagMask != 0
	c.D = p&dFlagMask != 0
	c.V = p&vFlagMask != 0
	c.N = p&nFlagMask != 0
	c.B = false
}

func (c *CPU) setZN(v uint8) {
	c.Z = v == 0
	c.N = v&0x80 != 0
}

// --- addressing ------------------------------------------------------------

// resolveOperand fetches the operand value for a read-category instruction,
// including the final access tick, following the per-mode tick sequence of
// spec.md §4.3.
func (c *CPU) resolveOperand(mode AddressingMode) uint8 {
	if mode == Immediate {
		return c.fetchByte()
	}
	addr := c.resolveAddr(mode, false)
	return c.tickRead(addr)
}

// resolveAddr computes an effective address, performing every addressing
// tick the mode requires EXCEPT the final access (left to the caller, which
// may need to read, write, or do both for read-modify-write). forWrite
// selects the "always perform the fix-up tick" discipline that store and
// read-modify-write variants require on indexed absolute/indirect modes.
func (c *CPU) resolveAddr(mode AddressingMode, forWrite bool) uint16 {
	switch mode {
	case ZeroPage:
		return uint16(c.fetchByte())
	case ZeroPageX:
		base := c.fetchByte()
		c.dummyRead(uint16(base))
		return uint16(base + c.X)
	case ZeroPageY:
		base := c.fetchByte()
		c.dummyRead(uint16(base))
		return uint16(base + c.Y)
	case Absolute:
		lo := c.fetchByte()
		hi := c.fetchByte()
		return uint16(hi)<<8 | uint16(lo)
	case AbsoluteX:
		return c.absoluteIndexed(c.X, forWrite)
	case AbsoluteY:
		return c.absoluteIndexed(c.Y, forWrite)
	case IndexedIndirect:
		ptr := c.fetchByte()
		c.dummyRead(uint16(ptr))
		ptr += c.X
		lo := c.tickRead(uint16(ptr))
		hi := c.tickRead(uint16(ptr + 1))
		return uint16(hi)<<8 | uint16(lo)
	case IndirectIndexed:
		ptr := c.fetchByte()
		lo := c.tickRead(uint16(ptr))
		hi := c.tickRead(uint16(ptr + 1))
		base := uint16(hi)<<8 | uint16(lo)
		addr := base + uint16(c.Y)
		crossed := addr&0xFF00 != base&0xFF00
		if forWrite || crossed {
			uncorrected := (base & 0xFF00) | uint16(lo+c.Y)
			c.dummyRead(uncorrected)
		}
		return addr
	default:
		panic(fmt.Sprintf("cpu: resolveAddr called with non-memory mode %v", mode))
	}
}

func (c *CPU) absoluteIndexed(index uint8, forWrite bool) uint16 {
	lo := c.fetchByte()
	hi := c.fetchByte()
	base := uint16(hi)<<8 | uint16(lo)
	addr := base + uint16(index)
	crossed := addr&0xFF00 != base&0xFF00
	if forWrite || crossed {
		uncorrected := (base & 0xFF00) | uint16(lo+index)
		c.dummyRead(uncorrected)
	}
	return addr
}

// branch implements the documented branch timing: fetch the signed offset
// unconditionally, then (if taken) one tick to commit the low-byte add, plus
// a further tick if that crosses a page (spec.md §4.3).
func (c *CPU) branch(cond bool) {
	offset := int8(c.fetchByte())
	if !cond {
		return
	}
	pcl := uint8(c.PC) + uint8(offset)
	committed := (c.PC & 0xFF00) | uint16(pcl)
	c.dummyRead(committed)
	target := uint16(int32(c.PC) + int32(offset))
	if target&0xFF00 != committed&0xFF00 {
		c.dummyRead(target)
	}
	c.PC = target
}
