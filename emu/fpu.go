package emu

import (
	"math"

	"github.com/sarchlab/r4300/cp1"
	"github.com/sarchlab/r4300/insts"
)

func (c *Core) single(n uint8) float32 { return math.Float32frombits(c.fpu.Word(n)) }
func (c *Core) double(n uint8) float64 { return math.Float64frombits(c.fpu.Dword(n)) }

func (c *Core) setSingle(n uint8, v float32) { c.fpu.SetWord(n, math.Float32bits(v)) }
func (c *Core) setDouble(n uint8, v float64) { c.fpu.SetDword(n, math.Float64bits(v)) }

// operand reads fs as a double regardless of its format. Single values
// widen exactly.
func (c *Core) operand(i *insts.Instruction, n uint8) float64 {
	switch i.Fmt {
	case insts.FmtS:
		return float64(c.single(n))
	case insts.FmtW:
		return float64(int32(c.fpu.Word(n)))
	case insts.FmtL:
		return float64(int64(c.fpu.Dword(n)))
	}
	return c.double(n)
}

// arith applies a two-operand operation in the instruction's format.
func (c *Core) arith(i *insts.Instruction,
	s func(cp1.RoundingMode, float32, float32) float32,
	d func(cp1.RoundingMode, float64, float64) float64,
) {
	if c.cop1Unusable() {
		return
	}
	m := c.fpu.Rounding()
	if i.Fmt == insts.FmtS {
		c.setSingle(i.Fd(), s(m, c.single(i.Fs()), c.single(i.Ft())))
		return
	}
	c.setDouble(i.Fd(), d(m, c.double(i.Fs()), c.double(i.Ft())))
}

func opFADD(c *Core, i *insts.Instruction) {
	c.arith(i, cp1.RoundingMode.AddS, cp1.RoundingMode.AddD)
}

func opFSUB(c *Core, i *insts.Instruction) {
	c.arith(i, cp1.RoundingMode.SubS, cp1.RoundingMode.SubD)
}

func opFMUL(c *Core, i *insts.Instruction) {
	c.arith(i, cp1.RoundingMode.MulS, cp1.RoundingMode.MulD)
}

func opFDIV(c *Core, i *insts.Instruction) {
	c.arith(i, cp1.RoundingMode.DivS, cp1.RoundingMode.DivD)
}

func opFSQRT(c *Core, i *insts.Instruction) {
	if c.cop1Unusable() {
		return
	}
	m := c.fpu.Rounding()
	if i.Fmt == insts.FmtS {
		c.setSingle(i.Fd(), m.SqrtS(c.single(i.Fs())))
		return
	}
	c.setDouble(i.Fd(), m.SqrtD(c.double(i.Fs())))
}

// Sign operations and moves copy bits without rounding.

func (c *Core) bitOp(i *insts.Instruction, mask32 func(uint32) uint32, mask64 func(uint64) uint64) {
	if c.cop1Unusable() {
		return
	}
	if i.Fmt == insts.FmtS {
		c.fpu.SetWord(i.Fd(), mask32(c.fpu.Word(i.Fs())))
		return
	}
	c.fpu.SetDword(i.Fd(), mask64(c.fpu.Dword(i.Fs())))
}

func opFABS(c *Core, i *insts.Instruction) {
	c.bitOp(i,
		func(w uint32) uint32 { return w &^ (1 << 31) },
		func(d uint64) uint64 { return d &^ (1 << 63) })
}

func opFNEG(c *Core, i *insts.Instruction) {
	c.bitOp(i,
		func(w uint32) uint32 { return w ^ 1<<31 },
		func(d uint64) uint64 { return d ^ 1<<63 })
}

func opFMOV(c *Core, i *insts.Instruction) {
	c.bitOp(i,
		func(w uint32) uint32 { return w },
		func(d uint64) uint64 { return d })
}

// Conversions

func opFCVTS(c *Core, i *insts.Instruction) {
	if c.cop1Unusable() {
		return
	}
	m := c.fpu.Rounding()
	switch i.Fmt {
	case insts.FmtD:
		c.setSingle(i.Fd(), m.DToS(c.double(i.Fs())))
	case insts.FmtW:
		c.setSingle(i.Fd(), m.LToS(int64(int32(c.fpu.Word(i.Fs())))))
	case insts.FmtL:
		c.setSingle(i.Fd(), m.LToS(int64(c.fpu.Dword(i.Fs()))))
	}
}

func opFCVTD(c *Core, i *insts.Instruction) {
	if c.cop1Unusable() {
		return
	}
	switch i.Fmt {
	case insts.FmtL:
		c.setDouble(i.Fd(), c.fpu.Rounding().LToD(int64(c.fpu.Dword(i.Fs()))))
	default:
		c.setDouble(i.Fd(), c.operand(i, i.Fs()))
	}
}

func (c *Core) toWord(i *insts.Instruction, m cp1.RoundingMode) {
	if c.cop1Unusable() {
		return
	}
	c.fpu.SetWord(i.Fd(), uint32(m.ToWord(c.operand(i, i.Fs()))))
}

func (c *Core) toDword(i *insts.Instruction, m cp1.RoundingMode) {
	if c.cop1Unusable() {
		return
	}
	c.fpu.SetDword(i.Fd(), uint64(m.ToDword(c.operand(i, i.Fs()))))
}

func opFROUNDW(c *Core, i *insts.Instruction) { c.toWord(i, cp1.RoundNearest) }
func opFTRUNCW(c *Core, i *insts.Instruction) { c.toWord(i, cp1.RoundZero) }
func opFCEILW(c *Core, i *insts.Instruction)  { c.toWord(i, cp1.RoundUp) }
func opFFLOORW(c *Core, i *insts.Instruction) { c.toWord(i, cp1.RoundDown) }
func opFROUNDL(c *Core, i *insts.Instruction) { c.toDword(i, cp1.RoundNearest) }
func opFTRUNCL(c *Core, i *insts.Instruction) { c.toDword(i, cp1.RoundZero) }
func opFCEILL(c *Core, i *insts.Instruction)  { c.toDword(i, cp1.RoundUp) }
func opFFLOORL(c *Core, i *insts.Instruction) { c.toDword(i, cp1.RoundDown) }

func opFCVTW(c *Core, i *insts.Instruction) { c.toWord(i, c.fpu.Rounding()) }
func opFCVTL(c *Core, i *insts.Instruction) { c.toDword(i, c.fpu.Rounding()) }

func opFC(c *Core, i *insts.Instruction) {
	if c.cop1Unusable() {
		return
	}
	c.fpu.SetCondition(cp1.Compare(i.Cond, c.operand(i, i.Fs()), c.operand(i, i.Ft())))
}
