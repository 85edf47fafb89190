package emu

import (
	"github.com/sarchlab/r4300/insts"
)

const ra = 31

func (c *Core) relTarget(i *insts.Instruction) uint32 {
	return *c.pc + 4 + uint32(i.Imm)<<2
}

func (c *Core) absTarget(i *insts.Instruction) uint32 {
	return (*c.pc+4)&0xF0000000 | i.Target<<2
}

func opJ(c *Core, i *insts.Instruction)   { c.branch(true, c.absTarget(i), 0, false) }
func opJAL(c *Core, i *insts.Instruction) { c.branch(true, c.absTarget(i), ra, false) }
func opJR(c *Core, i *insts.Instruction)  { c.branch(true, uint32(c.rs(i)), 0, false) }
func opJALR(c *Core, i *insts.Instruction) {
	c.branch(true, uint32(c.rs(i)), i.Rd, false)
}

func opBEQ(c *Core, i *insts.Instruction) {
	c.branch(c.rs(i) == c.rt(i), c.relTarget(i), 0, false)
}

func opBNE(c *Core, i *insts.Instruction) {
	c.branch(c.rs(i) != c.rt(i), c.relTarget(i), 0, false)
}

func opBLEZ(c *Core, i *insts.Instruction) {
	c.branch(int64(c.rs(i)) <= 0, c.relTarget(i), 0, false)
}

func opBGTZ(c *Core, i *insts.Instruction) {
	c.branch(int64(c.rs(i)) > 0, c.relTarget(i), 0, false)
}

func opBLTZ(c *Core, i *insts.Instruction) {
	c.branch(int64(c.rs(i)) < 0, c.relTarget(i), 0, false)
}

func opBGEZ(c *Core, i *insts.Instruction) {
	c.branch(int64(c.rs(i)) >= 0, c.relTarget(i), 0, false)
}

func opBLTZAL(c *Core, i *insts.Instruction) {
	c.branch(int64(c.rs(i)) < 0, c.relTarget(i), ra, false)
}

func opBGEZAL(c *Core, i *insts.Instruction) {
	c.branch(int64(c.rs(i)) >= 0, c.relTarget(i), ra, false)
}

func opBEQL(c *Core, i *insts.Instruction) {
	c.branch(c.rs(i) == c.rt(i), c.relTarget(i), 0, true)
}

func opBNEL(c *Core, i *insts.Instruction) {
	c.branch(c.rs(i) != c.rt(i), c.relTarget(i), 0, true)
}

func opBLEZL(c *Core, i *insts.Instruction) {
	c.branch(int64(c.rs(i)) <= 0, c.relTarget(i), 0, true)
}

func opBGTZL(c *Core, i *insts.Instruction) {
	c.branch(int64(c.rs(i)) > 0, c.relTarget(i), 0, true)
}

func opBLTZL(c *Core, i *insts.Instruction) {
	c.branch(int64(c.rs(i)) < 0, c.relTarget(i), 0, true)
}

func opBGEZL(c *Core, i *insts.Instruction) {
	c.branch(int64(c.rs(i)) >= 0, c.relTarget(i), 0, true)
}

func opBLTZALL(c *Core, i *insts.Instruction) {
	c.branch(int64(c.rs(i)) < 0, c.relTarget(i), ra, true)
}

func opBGEZALL(c *Core, i *insts.Instruction) {
	c.branch(int64(c.rs(i)) >= 0, c.relTarget(i), ra, true)
}

// FPU condition branches

func (c *Core) fpuBranch(i *insts.Instruction, onTrue, likely bool) {
	if c.cop1Unusable() {
		return
	}
	c.branch(c.fpu.Condition() == onTrue, c.relTarget(i), 0, likely)
}

func opBC1F(c *Core, i *insts.Instruction)  { c.fpuBranch(i, false, false) }
func opBC1T(c *Core, i *insts.Instruction)  { c.fpuBranch(i, true, false) }
func opBC1FL(c *Core, i *insts.Instruction) { c.fpuBranch(i, false, true) }
func opBC1TL(c *Core, i *insts.Instruction) { c.fpuBranch(i, true, true) }
