package emu

import (
	"math"
	"math/bits"

	"github.com/sarchlab/r4300/cp0"
	"github.com/sarchlab/r4300/insts"
)

func (c *Core) rs(inst *insts.Instruction) uint64 { return c.gpr[inst.Rs] }
func (c *Core) rt(inst *insts.Instruction) uint64 { return c.gpr[inst.Rt] }

// Shifts

func opSLL(c *Core, i *insts.Instruction) {
	c.WriteReg(i.Rd, se32(uint32(c.rt(i))<<i.Sa))
}

func opSRL(c *Core, i *insts.Instruction) {
	c.WriteReg(i.Rd, se32(uint32(c.rt(i))>>i.Sa))
}

func opSRA(c *Core, i *insts.Instruction) {
	c.WriteReg(i.Rd, se32(uint32(int32(uint32(c.rt(i)))>>i.Sa)))
}

func opSLLV(c *Core, i *insts.Instruction) {
	c.WriteReg(i.Rd, se32(uint32(c.rt(i))<<(c.rs(i)&31)))
}

func opSRLV(c *Core, i *insts.Instruction) {
	c.WriteReg(i.Rd, se32(uint32(c.rt(i))>>(c.rs(i)&31)))
}

func opSRAV(c *Core, i *insts.Instruction) {
	c.WriteReg(i.Rd, se32(uint32(int32(uint32(c.rt(i)))>>(c.rs(i)&31))))
}

func opDSLL(c *Core, i *insts.Instruction)   { c.WriteReg(i.Rd, c.rt(i)<<i.Sa) }
func opDSRL(c *Core, i *insts.Instruction)   { c.WriteReg(i.Rd, c.rt(i)>>i.Sa) }
func opDSRA(c *Core, i *insts.Instruction)   { c.WriteReg(i.Rd, uint64(int64(c.rt(i))>>i.Sa)) }
func opDSLL32(c *Core, i *insts.Instruction) { c.WriteReg(i.Rd, c.rt(i)<<(i.Sa+32)) }
func opDSRL32(c *Core, i *insts.Instruction) { c.WriteReg(i.Rd, c.rt(i)>>(i.Sa+32)) }
func opDSRA32(c *Core, i *insts.Instruction) {
	c.WriteReg(i.Rd, uint64(int64(c.rt(i))>>(i.Sa+32)))
}

func opDSLLV(c *Core, i *insts.Instruction) { c.WriteReg(i.Rd, c.rt(i)<<(c.rs(i)&63)) }
func opDSRLV(c *Core, i *insts.Instruction) { c.WriteReg(i.Rd, c.rt(i)>>(c.rs(i)&63)) }
func opDSRAV(c *Core, i *insts.Instruction) {
	c.WriteReg(i.Rd, uint64(int64(c.rt(i))>>(c.rs(i)&63)))
}

// Add and subtract. The trapping forms raise an overflow exception and
// leave the destination unchanged.

func add32Overflows(a, b, r int32) bool {
	return (a >= 0) == (b >= 0) && (r >= 0) != (a >= 0)
}

func add64Overflows(a, b, r int64) bool {
	return (a >= 0) == (b >= 0) && (r >= 0) != (a >= 0)
}

func (c *Core) add32(dst uint8, a, b uint64) {
	x, y := int32(uint32(a)), int32(uint32(b))
	r := x + y
	if add32Overflows(x, y, r) {
		c.exception(cp0.ExcOv)
		return
	}
	c.WriteReg(dst, uint64(int64(r)))
}

func (c *Core) add64(dst uint8, a, b uint64) {
	x, y := int64(a), int64(b)
	r := x + y
	if add64Overflows(x, y, r) {
		c.exception(cp0.ExcOv)
		return
	}
	c.WriteReg(dst, uint64(r))
}

func (c *Core) sub32(dst uint8, a, b uint64) {
	x, y := int32(uint32(a)), int32(uint32(b))
	r := x - y
	if (x >= 0) != (y >= 0) && (r >= 0) != (x >= 0) {
		c.exception(cp0.ExcOv)
		return
	}
	c.WriteReg(dst, uint64(int64(r)))
}

func (c *Core) sub64(dst uint8, a, b uint64) {
	x, y := int64(a), int64(b)
	r := x - y
	if (x >= 0) != (y >= 0) && (r >= 0) != (x >= 0) {
		c.exception(cp0.ExcOv)
		return
	}
	c.WriteReg(dst, uint64(r))
}

func opADD(c *Core, i *insts.Instruction)  { c.add32(i.Rd, c.rs(i), c.rt(i)) }
func opADDU(c *Core, i *insts.Instruction) { c.WriteReg(i.Rd, se32(uint32(c.rs(i)+c.rt(i)))) }
func opSUB(c *Core, i *insts.Instruction)  { c.sub32(i.Rd, c.rs(i), c.rt(i)) }
func opSUBU(c *Core, i *insts.Instruction) { c.WriteReg(i.Rd, se32(uint32(c.rs(i)-c.rt(i)))) }

func opDADD(c *Core, i *insts.Instruction)  { c.add64(i.Rd, c.rs(i), c.rt(i)) }
func opDADDU(c *Core, i *insts.Instruction) { c.WriteReg(i.Rd, c.rs(i)+c.rt(i)) }
func opDSUB(c *Core, i *insts.Instruction)  { c.sub64(i.Rd, c.rs(i), c.rt(i)) }
func opDSUBU(c *Core, i *insts.Instruction) { c.WriteReg(i.Rd, c.rs(i)-c.rt(i)) }

func opADDI(c *Core, i *insts.Instruction)  { c.add32(i.Rt, c.rs(i), i.Imm) }
func opADDIU(c *Core, i *insts.Instruction) { c.WriteReg(i.Rt, se32(uint32(c.rs(i)+i.Imm))) }
func opDADDI(c *Core, i *insts.Instruction) { c.add64(i.Rt, c.rs(i), i.Imm) }
func opDADDIU(c *Core, i *insts.Instruction) {
	c.WriteReg(i.Rt, c.rs(i)+i.Imm)
}

// Logic and compare

func opAND(c *Core, i *insts.Instruction) { c.WriteReg(i.Rd, c.rs(i)&c.rt(i)) }
func opOR(c *Core, i *insts.Instruction)  { c.WriteReg(i.Rd, c.rs(i)|c.rt(i)) }
func opXOR(c *Core, i *insts.Instruction) { c.WriteReg(i.Rd, c.rs(i)^c.rt(i)) }
func opNOR(c *Core, i *insts.Instruction) { c.WriteReg(i.Rd, ^(c.rs(i) | c.rt(i))) }

func opANDI(c *Core, i *insts.Instruction) { c.WriteReg(i.Rt, c.rs(i)&i.ZImm) }
func opORI(c *Core, i *insts.Instruction)  { c.WriteReg(i.Rt, c.rs(i)|i.ZImm) }
func opXORI(c *Core, i *insts.Instruction) { c.WriteReg(i.Rt, c.rs(i)^i.ZImm) }
func opLUI(c *Core, i *insts.Instruction)  { c.WriteReg(i.Rt, se32(uint32(i.ZImm)<<16)) }

func bool64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func opSLT(c *Core, i *insts.Instruction) {
	c.WriteReg(i.Rd, bool64(int64(c.rs(i)) < int64(c.rt(i))))
}

func opSLTU(c *Core, i *insts.Instruction) {
	c.WriteReg(i.Rd, bool64(c.rs(i) < c.rt(i)))
}

func opSLTI(c *Core, i *insts.Instruction) {
	c.WriteReg(i.Rt, bool64(int64(c.rs(i)) < int64(i.Imm)))
}

func opSLTIU(c *Core, i *insts.Instruction) {
	c.WriteReg(i.Rt, bool64(c.rs(i) < i.Imm))
}

// Multiply and divide. Division by zero leaves the results the hardware
// produces: LO is all ones (or one for a negative dividend) and HI holds
// the dividend.

func opMULT(c *Core, i *insts.Instruction) {
	p := int64(int32(uint32(c.rs(i)))) * int64(int32(uint32(c.rt(i))))
	*c.lo = se32(uint32(p))
	*c.hi = se32(uint32(p >> 32))
}

func opMULTU(c *Core, i *insts.Instruction) {
	p := uint64(uint32(c.rs(i))) * uint64(uint32(c.rt(i)))
	*c.lo = se32(uint32(p))
	*c.hi = se32(uint32(p >> 32))
}

func opDIV(c *Core, i *insts.Instruction) {
	n, d := int32(uint32(c.rs(i))), int32(uint32(c.rt(i)))
	if d == 0 {
		*c.hi = uint64(int64(n))
		if n < 0 {
			*c.lo = 1
		} else {
			*c.lo = math.MaxUint64
		}
		return
	}
	*c.lo = uint64(int64(n / d))
	*c.hi = uint64(int64(n % d))
}

func opDIVU(c *Core, i *insts.Instruction) {
	n, d := uint32(c.rs(i)), uint32(c.rt(i))
	if d == 0 {
		*c.hi = se32(n)
		*c.lo = math.MaxUint64
		return
	}
	*c.lo = se32(n / d)
	*c.hi = se32(n % d)
}

func opDMULT(c *Core, i *insts.Instruction) {
	a, b := c.rs(i), c.rt(i)
	hi, lo := bits.Mul64(a, b)
	if int64(a) < 0 {
		hi -= b
	}
	if int64(b) < 0 {
		hi -= a
	}
	*c.hi, *c.lo = hi, lo
}

func opDMULTU(c *Core, i *insts.Instruction) {
	*c.hi, *c.lo = bits.Mul64(c.rs(i), c.rt(i))
}

func opDDIV(c *Core, i *insts.Instruction) {
	n, d := int64(c.rs(i)), int64(c.rt(i))
	if d == 0 {
		*c.hi = uint64(n)
		if n < 0 {
			*c.lo = 1
		} else {
			*c.lo = math.MaxUint64
		}
		return
	}
	*c.lo = uint64(n / d)
	*c.hi = uint64(n % d)
}

func opDDIVU(c *Core, i *insts.Instruction) {
	n, d := c.rs(i), c.rt(i)
	if d == 0 {
		*c.hi = n
		*c.lo = math.MaxUint64
		return
	}
	*c.lo = n / d
	*c.hi = n % d
}

func opMFHI(c *Core, i *insts.Instruction) { c.WriteReg(i.Rd, *c.hi) }
func opMFLO(c *Core, i *insts.Instruction) { c.WriteReg(i.Rd, *c.lo) }
func opMTHI(c *Core, i *insts.Instruction) { *c.hi = c.rs(i) }
func opMTLO(c *Core, i *insts.Instruction) { *c.lo = c.rs(i) }
