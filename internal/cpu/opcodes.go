package cpu

// This file implements every official 6502 opcode and builds the 256-entry
// dispatch table. Unofficial ("illegal") opcodes are out of scope (spec.md
// §4.3); entries for their bytes are left zero and RunNext panics if one is
// ever decoded, which cannot happen from a conforming ROM.

func (c *CPU) initTable() {
	def := func(opcode uint8, name string, mode AddressingMode, run func(c *CPU, mode AddressingMode)) {
		c.table[opcode] = instruction{Name: name, Mode: mode, Run: run}
	}

	// Load/store.
	def(0xA9, "LDA", Immediate, opLDA)
	def(0xA5, "LDA", ZeroPage, opLDA)
	def(0xB5, "LDA", ZeroPageX, opLDA)
	def(0xAD, "LDA", Absolute, opLDA)
	def(0xBD, "LDA", AbsoluteX, opLDA)
	def(0xB9, "LDA", AbsoluteY, opLDA)
	def(0xA1, "LDA", IndexedIndirect, opLDA)
	def(0xB1, "LDA", IndirectIndexed, opLDA)

	def(0xA2, "LDX", Immediate, opLDX)
	def(0xA6, "LDX", ZeroPage, opLDX)
	def(0xB6, "LDX", ZeroPageY, opLDX)
	def(0xAE, "LDX", Absolute, opLDX)
	def(0xBE, "LDX", AbsoluteY, opLDX)

	def(0xA0, "LDY", Immediate, opLDY)
	def(0xA4, "LDY", ZeroPage, opLDY)
	def(0xB4, "LDY", ZeroPageX, opLDY)
	def(0xAC, "LDY", Absolute, opLDY)
	def(0xBC, "LDY", AbsoluteX, opLDY)

	def(0x85, "STA", ZeroPage, opSTA)
	def(0x95, "STA", ZeroPageX, opSTA)
	def(0x8D, "STA", Absolute, opSTA)
	def(0x9D, "STA", AbsoluteX, opSTA)
	def(0x99, "STA", AbsoluteY, opSTA)
	def(0x81, "STA", IndexedIndirect, opSTA)
	def(0x91, "STA", IndirectIndexed, opSTA)

	def(0x86, "STX", ZeroPage, opSTX)
	def(0x96, "STX", ZeroPageY, opSTX)
	def(0x8E, "STX", Absolute, opSTX)

	def(0x84, "STY", ZeroPage, opSTY)
	def(0x94, "STY", ZeroPageX, opSTY)
	def(0x8C, "STY", Absolute, opSTY)

	// Arithmetic / logic.
	def(0x69, "ADC", Immediate, opADC)
	def(0x65, "ADC", ZeroPage, opADC)
	def(0x75, "ADC", ZeroPageX, opADC)
	def(0x6D, "ADC", Absolute, opADC)
	def(0x7D, "ADC", AbsoluteX, opADC)
	def(0x79, "ADC", AbsoluteY, opADC)
	def(0x61, "ADC", IndexedIndirect, opADC)
	def(0x71, "ADC", IndirectIndexed, opADC)

	def(0xE9, "SBC", Immediate, opSBC)
	def(0xE5, "SBC", ZeroPage, opSBC)
	def(0xF5, "SBC", ZeroPageX, opSBC)
	def(0xED, "SBC", Absolute, opSBC)
	def(0xFD, "SBC", AbsoluteX, opSBC)
	def(0xF9, "SBC", AbsoluteY, opSBC)
	def(0xE1, "SBC", IndexedIndirect, opSBC)
	def(0xF1, "SBC", IndirectIndexed, opSBC)

	def(0x29, "AND", Immediate, opAND)
	def(0x25, "AND", ZeroPage, opAND)
	def(0x35, "AND", ZeroPageX, opAND)
	def(0x2D, "AND", Absolute, opAND)
	def(0x3D, "AND", AbsoluteX, opAND)
	def(0x39, "AND", AbsoluteY, opAND)
	def(0x21, "AND", IndexedIndirect, opAND)
	def(0x31, "AND", IndirectIndexed, opAND)

	def(0x09, "ORA", Immediate, opORA)
	def(0x05, "ORA", ZeroPage, opORA)
	def(0x15, "ORA", ZeroPageX, opORA)
	def(0x0D, "ORA", Absolute, opORA)
	def(0x1D, "ORA", AbsoluteX, opORA)
	def(0x19, "ORA", AbsoluteY, opORA)
	def(0x01, "ORA", IndexedIndirect, opORA)
	def(0x11, "ORA", IndirectIndexed, opORA)

	def(0x49, "EOR", Immediate, opEOR)
	def(0x45, "EOR", ZeroPage, opEOR)
	def(0x55, "EOR", ZeroPageX, opEOR)
	def(0x4D, "EOR", Absolute, opEOR)
	def(0x5D, "EOR", AbsoluteX, opEOR)
	def(0x59, "EOR", AbsoluteY, opEOR)
	def(0x41, "EOR", IndexedIndirect, opEOR)
	def(0x51, "EOR", IndirectIndexed, opEOR)

	def(0xC9, "CMP", Immediate, opCMP)
	def(0xC5, "CMP", ZeroPage, opCMP)
	def(0xD5, "CMP", ZeroPageX, opCMP)
	def(0xCD, "CMP", Absolute, opCMP)
	def(0xDD, "CMP", AbsoluteX, opCMP)
	def(0xD9, "CMP", AbsoluteY, opCMP)
	def(0xC1, "CMP", IndexedIndirect, opCMP)
	def(0xD1, "CMP", IndirectIndexed, opCMP)

	def(0xE0, "CPX", Immediate, opCPX)
	def(0xE4, "CPX", ZeroPage, opCPX)
	def(0xEC, "CPX", Absolute, opCPX)

	def(0xC0, "CPY", Immediate, opCPY)
	def(0xC4, "CPY", ZeroPage, opCPY)
	def(0xCC, "CPY", Absolute, opCPY)

	def(0x24, "BIT", ZeroPage, opBIT)
	def(0x2C, "BIT", Absolute, opBIT)

	// Read-modify-write.
	def(0x0A, "ASL", Accumulator, opASL)
	def(0x06, "ASL", ZeroPage, opASL)
	def(0x16, "ASL", ZeroPageX, opASL)
	def(0x0E, "ASL", Absolute, opASL)
	def(0x1E, "ASL", AbsoluteX, opASL)

	def(0x4A, "LSR", Accumulator, opLSR)
	def(0x46, "LSR", ZeroPage, opLSR)
	def(0x56, "LSR", ZeroPageX, opLSR)
	def(0x4E, "LSR", Absolute, opLSR)
	def(0x5E, "LSR", AbsoluteX, opLSR)

	def(0x2A, "ROL", Accumulator, opROL)
	def(0x26, "ROL", ZeroPage, opROL)
	def(0x36, "ROL", ZeroPageX, opROL)
	def(0x2E, "ROL", Absolute, opROL)
	def(0x3E, "ROL", AbsoluteX, opROL)

	def(0x6A, "ROR", Accumulator, opROR)
	def(0x66, "ROR", ZeroPage, opROR)
	def(0x76, "ROR", ZeroPageX, opROR)
	def(0x6E, "ROR", Absolute, opROR)
	def(0x7E, "ROR", AbsoluteX, opROR)

	def(0xE6, "INC", ZeroPage, opINC)
	def(0xF6, "INC", ZeroPageX, opINC)
	def(0xEE, "INC", Absolute, opINC)
	def(0xFE, "INC", AbsoluteX, opINC)

	def(0xC6, "DEC", ZeroPage, opDEC)
	def(0xD6, "DEC", ZeroPageX, opDEC)
	def(0xCE, "DEC", Absolute, opDEC)
	def(0xDE, "DEC", AbsoluteX, opDEC)

	// Register transfers / implied.
	def(0xAA, "TAX", Implied, opTAX)
	def(0xA8, "TAY", Implied, opTAY)
	def(0xBA, "TSX", Implied, opTSX)
	def(0x8A, "TXA", Implied, opTXA)
	def(0x9A, "TXS", Implied, opTXS)
	def(0x98, "TYA", Implied, opTYA)
	def(0xE8, "INX", Implied, opINX)
	def(0xC8, "INY", Implied, opINY)
	def(0xCA, "DEX", Implied, opDEX)
	def(0x88, "DEY", Implied, opDEY)
	def(0x18, "CLC", Implied, opCLC)
	def(0x38, "SEC", Implied, opSEC)
	def(0x58, "CLI", Implied, opCLI)
	def(0x78, "SEI", Implied, opSEI)
	def(0xB8, "CLV", Implied, opCLV)
	def(0xD8, "CLD", Implied, opCLD)
	def(0xF8, "SED", Implied, opSED)
	def(0xEA, "NOP", Implied, opNOP)

	// Stack.
	def(0x48, "PHA", Implied, opPHA)
	def(0x08, "PHP", Implied, opPHP)
	def(0x68, "PLA", Implied, opPLA)
	def(0x28, "PLP", Implied, opPLP)

	// Branches.
	def(0x90, "BCC", Relative, opBCC)
	def(0xB0, "BCS", Relative, opBCS)
	def(0xF0, "BEQ", Relative, opBEQ)
	def(0xD0, "BNE", Relative, opBNE)
	def(0x10, "BPL", Relative, opBPL)
	def(0x30, "BMI", Relative, opBMI)
	def(0x50, "BVC", Relative, opBVC)
	def(0x70, "BVS", Relative, opBVS)

	// Jumps / calls / returns.
	def(0x4C, "JMP", Absolute, opJMP)
	def(0x6C, "JMP", Indirect, opJMPIndirect)
	def(0x20, "JSR", Absolute, opJSR)
	def(0x60, "RTS", Implied, opRTS)
	def(0x40, "RTI", Implied, opRTI)
	// 0x00 BRK is special-cased directly in RunNext.
}

// --- load/store --------------------------------------------------------

func opLDA(c *CPU, mode AddressingMode) { c.A = c.resolveOperand(mode); c.setZN(c.A) }
func opLDX(c *CPU, mode AddressingMode) { c.X = c.resolveOperand(mode); c.setZN(c.X) }
func opLDY(c *CPU, mode AddressingMode) { c.Y = c.resolveOperand(mode); c.setZN(c.Y) }

func opSTA(c *CPU, mode AddressingMode) { c.tickWrite(c.resolveAddr(mode, true), c.A) }
func opSTX(c *CPU, mode AddressingMode) { c.tickWrite(c.resolveAddr(mode, true), c.X) }
func opSTY(c *CPU, mode AddressingMode) { c.tickWrite(c.resolveAddr(mode, true), c.Y) }

// --- arithmetic / logic --------------------------------------------------

// adc implements binary-mode addition with carry, used directly by ADC and
// (via one's-complement of the operand) by SBC.
func (c *CPU) adc(operand uint8) {
	sum := uint16(c.A) + uint16(operand)
	if c.C {
		sum++
	}
	result := uint8(sum)
	c.V = (c.A^result)&(operand^result)&0x80 != 0
	c.C = sum > 0xFF
	c.A = result
	c.setZN(c.A)
}

func opADC(c *CPU, mode AddressingMode) { c.adc(c.resolveOperand(mode)) }
func opSBC(c *CPU, mode AddressingMode) { c.adc(^c.resolveOperand(mode)) }

func opAND(c *CPU, mode AddressingMode) { c.A &= c.resolveOperand(mode); c.setZN(c.A) }
func opORA(c *CPU, mode AddressingMode) { c.A |= c.resolveOperand(mode); c.setZN(c.A) }
func opEOR(c *CPU, mode AddressingMode) { c.A ^= c.resolveOperand(mode); c.setZN(c.A) }

func (c *CPU) compare(reg, value uint8) {
	c.C = reg >= value
	c.setZN(reg - value)
}

func opCMP(c *CPU, mode AddressingMode) { c.compare(c.A, c.resolveOperand(mode)) }
func opCPX(c *CPU, mode AddressingMode) { c.compare(c.X, c.resolveOperand(mode)) }
func opCPY(c *CPU, mode AddressingMode) { c.compare(c.Y, c.resolveOperand(mode)) }

func opBIT(c *CPU, mode AddressingMode) {
	v := c.resolveOperand(mode)
	c.Z = c.A&v == 0
	c.V = v&vFlagMask != 0
	c.N = v&nFlagMask != 0
}

// --- read-modify-write ----------------------------------------------------

func (c *CPU) rmw(mode AddressingMode, f func(uint8) uint8) {
	if mode == Accumulator {
		c.A = f(c.A)
		return
	}
	addr := c.resolveAddr(mode, true)
	old := c.tickRead(addr)
	c.tickWrite(addr, old) // dummy write-back of the unmodified value
	c.tickWrite(addr, f(old))
}

func opASL(c *CPU, mode AddressingMode) {
	c.rmw(mode, func(v uint8) uint8 {
		c.C = v&0x80 != 0
		v <<= 1
		c.setZN(v)
		return v
	})
}

func opLSR(c *CPU, mode AddressingMode) {
	c.rmw(mode, func(v uint8) uint8 {
		c.C = v&0x01 != 0
		v >>= 1
		c.setZN(v)
		return v
	})
}

func opROL(c *CPU, mode AddressingMode) {
	c.rmw(mode, func(v uint8) uint8 {
		carryIn := uint8(0)
		if c.C {
			carryIn = 1
		}
		c.C = v&0x80 != 0
		v = v<<1 | carryIn
		c.setZN(v)
		return v
	})
}

func opROR(c *CPU, mode AddressingMode) {
	c.rmw(mode, func(v uint8) uint8 {
		carryIn := uint8(0)
		if c.C {
			carryIn = 0x80
		}
		c.C = v&0x01 != 0
		v = v>>1 | carryIn
		c.setZN(v)
		return v
	})
}

func opINC(c *CPU, mode AddressingMode) {
	c.rmw(mode, func(v uint8) uint8 { v++; c.setZN(v); return v })
}

func opDEC(c *CPU, mode AddressingMode) {
	c.rmw(mode, func(v uint8) uint8 { v--; c.setZN(v); return v })
}

// --- register transfers / implied ---------------------------------------

func opTAX(c *CPU, _ AddressingMode) { c.X = c.A; c.setZN(c.X) }
func opTAY(c *CPU, _ AddressingMode) { c.Y = c.A; c.setZN(c.Y) }
func opTSX(c *CPU, _ AddressingMode) { c.X = c.SP; c.setZN(c.X) }
func opTXA(c *CPU, _ AddressingMode) { c.A = c.X; c.setZN(c.A) }
func opTXS(c *CPU, _ AddressingMode) { c.SP = c.X }
func opTYA(c *CPU, _ AddressingMode) { c.A = c.Y; c.setZN(c.A) }
func opINX(c *CPU, _ AddressingMode) { c.X++; c.setZN(c.X) }
func opINY(c *CPU, _ AddressingMode) { c.Y++; c.setZN(c.Y) }
func opDEX(c *CPU, _ AddressingMode) { c.X--; c.setZN(c.X) }
func opDEY(c *CPU, _ AddressingMode) { c.Y--; c.setZN(c.Y) }
func opCLC(c *CPU, _ AddressingMode) { c.C = false }
func opSEC(c *CPU, _ AddressingMode) { c.C = true }
func opCLI(c *CPU, _ AddressingMode) { c.I = false }
func opSEI(c *CPU, _ AddressingMode) { c.I = true }
func opCLV(c *CPU, _ AddressingMode) { c.V = false }
func opCLD(c *CPU, _ AddressingMode) { c.D = false }
func opSED(c *CPU, _ AddressingMode) { c.D = true }
func opNOP(c *CPU, _ AddressingMode) {}

// --- stack -----------------------------------------------------------------

func opPHA(c *CPU, _ AddressingMode) { c.push(c.A) }
func opPHP(c *CPU, _ AddressingMode) { c.push(c.statusByte(true)) }
func opPLA(c *CPU, _ AddressingMode) {
	c.dummyRead(stackBase + uint16(c.SP))
	c.A = c.pop()
	c.setZN(c.A)
}
func opPLP(c *CPU, _ AddressingMode) {
	c.dummyRead(stackBase + uint16(c.SP))
	c.setStatusByte(c.pop())
}

// --- branches ---------------------------------------------------------

func opBCC(c *CPU, _ AddressingMode) { c.branch(!c.C) }
func opBCS(c *CPU, _ AddressingMode) { c.branch(c.C) }
func opBEQ(c *CPU, _ AddressingMode) { c.branch(c.Z) }
func opBNE(c *CPU, _ AddressingMode) { c.branch(!c.Z) }
func opBPL(c *CPU, _ AddressingMode) { c.branch(!c.N) }
func opBMI(c *CPU, _ AddressingMode) { c.branch(c.N) }
func opBVC(c *CPU, _ AddressingMode) { c.branch(!c.V) }
func opBVS(c *CPU, _ AddressingMode) { c.branch(c.V) }

// --- jumps / calls / returns --------------------------------------------

func opJMP(c *CPU, _ AddressingMode) {
	lo := c.fetchByte()
	hi := c.fetchByte()
	c.PC = uint16(hi)<<8 | uint16(lo)
}

// opJMPIndirect reproduces the page-wrap bug: the high byte of the target
// is fetched from the same page as the pointer's low byte, not the next
// page, when the pointer's low byte is $FF.
func opJMPIndirect(c *CPU, _ AddressingMode) {
	lo := c.fetchByte()
	hi := c.fetchByte()
	ptr := uint16(hi)<<8 | uint16(lo)
	targetLo := c.tickRead(ptr)
	hiAddr := (ptr & 0xFF00) | uint16(uint8(ptr)+1)
	targetHi := c.tickRead(hiAddr)
	c.PC = uint16(targetHi)<<8 | uint16(targetLo)
}

func opJSR(c *CPU, _ AddressingMode) {
	lo := c.fetchByte()
	c.dummyRead(stackBase + uint16(c.SP)) // internal delay cycle
	c.push(uint8(c.PC >> 8))
	c.push(uint8(c.PC))
	hi := c.fetchByte()
	c.PC = uint16(hi)<<8 | uint16(lo)
}

func opRTS(c *CPU, _ AddressingMode) {
	c.dummyRead(stackBase + uint16(c.SP))
	lo := c.pop()
	hi := c.pop()
	c.PC = uint16(hi)<<8 | uint16(lo)
	c.dummyRead(c.PC)
	c.PC++
}

func opRTI(c *CPU, _ AddressingMode) {
	c.dummyRead(stackBase + uint16(c.SP))
	c.setStatusByte(c.pop())
	lo := c.pop()
	hi := c.pop()
	c.PC = uint16(hi)<<8 | uint16(lo)
}

// opBRK implements the 7-cycle BRK/software-interrupt sequence. Unlike the
// other Implied opcodes, its padding byte is consumed (PC advances past it)
// rather than phantom-read in place, since BRK's return address must land
// two bytes past the opcode for RTI to resume correctly.
func (c *CPU) opBRK() {
	c.dummyRead(c.PC)
	c.PC++
	c.push(uint8(c.PC >> 8))
	c.push(uint8(c.PC))
	c.push(c.statusByte(true))
	lo := c.tickRead(irqVector)
	hi := c.tickRead(irqVector + 1)
	c.PC = uint16(hi)<<8 | uint16(lo)
	c.I = true
}
