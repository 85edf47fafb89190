package emu

import (
	"github.com/sarchlab/r4300/cp0"
	"github.com/sarchlab/r4300/insts"
)

func opSYSCALL(c *Core, _ *insts.Instruction) { c.exception(cp0.ExcSys) }
func opBREAK(c *Core, _ *insts.Instruction)   { c.exception(cp0.ExcBp) }
func opSYNC(*Core, *insts.Instruction)        {}
func opCACHE(*Core, *insts.Instruction)       {}

func opUnknown(c *Core, i *insts.Instruction) {
	c.logger.V(1).Info("reserved instruction", "pc", *c.pc, "word", i.Raw)
}

func (c *Core) trapIf(cond bool) {
	if cond {
		c.exception(cp0.ExcTr)
	}
}

func opTGE(c *Core, i *insts.Instruction)  { c.trapIf(int64(c.rs(i)) >= int64(c.rt(i))) }
func opTGEU(c *Core, i *insts.Instruction) { c.trapIf(c.rs(i) >= c.rt(i)) }
func opTLT(c *Core, i *insts.Instruction)  { c.trapIf(int64(c.rs(i)) < int64(c.rt(i))) }
func opTLTU(c *Core, i *insts.Instruction) { c.trapIf(c.rs(i) < c.rt(i)) }
func opTEQ(c *Core, i *insts.Instruction)  { c.trapIf(c.rs(i) == c.rt(i)) }
func opTNE(c *Core, i *insts.Instruction)  { c.trapIf(c.rs(i) != c.rt(i)) }

func opTGEI(c *Core, i *insts.Instruction)  { c.trapIf(int64(c.rs(i)) >= int64(i.Imm)) }
func opTGEIU(c *Core, i *insts.Instruction) { c.trapIf(c.rs(i) >= i.Imm) }
func opTLTI(c *Core, i *insts.Instruction)  { c.trapIf(int64(c.rs(i)) < int64(i.Imm)) }
func opTLTIU(c *Core, i *insts.Instruction) { c.trapIf(c.rs(i) < i.Imm) }
func opTEQI(c *Core, i *insts.Instruction)  { c.trapIf(c.rs(i) == i.Imm) }
func opTNEI(c *Core, i *insts.Instruction)  { c.trapIf(c.rs(i) != i.Imm) }
