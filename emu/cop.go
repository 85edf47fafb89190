package emu

import (
	"github.com/sarchlab/r4300/cp0"
	"github.com/sarchlab/r4300/insts"
)

// COP0

func opMFC0(c *Core, i *insts.Instruction) {
	c.WriteReg(i.Rt, se32(c.cp0.Read(int(i.Rd), *c.pc)))
}

func opDMFC0(c *Core, i *insts.Instruction) {
	c.WriteReg(i.Rt, se32(c.cp0.Read(int(i.Rd), *c.pc)))
}

func opMTC0(c *Core, i *insts.Instruction) {
	old, effects := c.cp0.Write(int(i.Rd), uint32(c.rt(i)), *c.pc)
	if effects&cp0.EffectStatus != 0 {
		c.fpu.SetMode(old, c.cp0.Regs()[cp0.Status])
	}
	c.pendingCheck = true
}

func opTLBR(c *Core, _ *insts.Instruction)  { c.cp0.TLBR() }
func opTLBWI(c *Core, _ *insts.Instruction) { c.cp0.TLBWI() }
func opTLBWR(c *Core, _ *insts.Instruction) { c.cp0.TLBWR(*c.pc) }
func opTLBP(c *Core, _ *insts.Instruction)  { c.cp0.TLBP() }

func opERET(c *Core, _ *insts.Instruction) {
	target := c.cp0.ERET(*c.pc)
	*c.ll = false
	c.redirect(target)
	c.cp0.CheckInterrupt()
	c.pendingCheck = true
}

// COP1 moves

func opMFC1(c *Core, i *insts.Instruction) {
	if !c.cop1Unusable() {
		c.WriteReg(i.Rt, se32(c.fpu.Word(i.Fs())))
	}
}

func opDMFC1(c *Core, i *insts.Instruction) {
	if !c.cop1Unusable() {
		c.WriteReg(i.Rt, c.fpu.Dword(i.Fs()))
	}
}

func opCFC1(c *Core, i *insts.Instruction) {
	if !c.cop1Unusable() {
		c.WriteReg(i.Rt, se32(c.fpu.ReadControl(i.Fs())))
	}
}

func opMTC1(c *Core, i *insts.Instruction) {
	if !c.cop1Unusable() {
		c.fpu.SetWord(i.Fs(), uint32(c.rt(i)))
	}
}

func opDMTC1(c *Core, i *insts.Instruction) {
	if !c.cop1Unusable() {
		c.fpu.SetDword(i.Fs(), c.rt(i))
	}
}

func opCTC1(c *Core, i *insts.Instruction) {
	if !c.cop1Unusable() {
		c.fpu.WriteControl(i.Fs(), uint32(c.rt(i)))
	}
}

// COP2 moves go through the latch.

func opMFC2(c *Core, i *insts.Instruction)  { c.WriteReg(i.Rt, c.cp2.MFC2()) }
func opDMFC2(c *Core, i *insts.Instruction) { c.WriteReg(i.Rt, c.cp2.DMFC2()) }
func opCFC2(c *Core, i *insts.Instruction)  { c.WriteReg(i.Rt, c.cp2.CFC2()) }
func opMTC2(c *Core, i *insts.Instruction)  { c.cp2.MTC2(c.rt(i)) }
func opDMTC2(c *Core, i *insts.Instruction) { c.cp2.DMTC2(c.rt(i)) }
func opCTC2(c *Core, i *insts.Instruction)  { c.cp2.CTC2(c.rt(i)) }
