package emu

import (
	"fmt"
	"math"

	"github.com/sarchlab/r4300/cp0"
	"github.com/sarchlab/r4300/insts"
)

// Handler executes one decoded instruction. Handlers that do not redirect
// the PC leave advancing it to the caller.
type Handler func(c *Core, inst *insts.Instruction)

// exec runs one instruction through h.
func (c *Core) exec(h Handler, inst *insts.Instruction) {
	c.redirected = false
	c.retired++
	h(c, inst)
	if !c.redirected {
		*c.pc += 4
	}
	if c.pendingCheck {
		c.pendingCheck = false
		c.checkpoint()
	}
}

// execInst runs inst through the shared handler table.
func (c *Core) execInst(inst *insts.Instruction) {
	c.exec(handlers[inst.Op], inst)
}

// step fetches, decodes and executes the instruction at PC. A branch
// retires together with its delay slot.
func (c *Core) step() {
	c.nextInst = nil
	c.redirected = false
	word, ok := c.fetch(*c.pc)
	if !ok {
		if !c.redirected {
			*c.pc += 4
		}
		return
	}
	inst := &c.slot
	c.decoder.DecodeInto(word, inst)
	c.execInst(inst)
}

// redirect moves the PC from inside an instruction.
func (c *Core) redirect(target uint32) {
	*c.pc = target
	c.redirected = true
}

// exception takes a general exception for the current instruction.
func (c *Core) exception(code cp0.ExcCode) {
	c.metrics.RecordException(excName(code))
	c.redirect(c.cp0.Exception(*c.pc, c.delaySlot, code))
}

// cop1Unusable takes a coprocessor-unusable exception unless CP1 is
// enabled, and reports whether it did.
func (c *Core) cop1Unusable() bool {
	if c.cp0.Usable() {
		return false
	}
	c.metrics.RecordException(excName(cp0.ExcCpU))
	c.redirect(c.cp0.CoprocessorUnusable(*c.pc, c.delaySlot))
	return true
}

var excNames = map[cp0.ExcCode]string{
	cp0.ExcInt:  "Int",
	cp0.ExcMod:  "Mod",
	cp0.ExcTLBL: "TLBL",
	cp0.ExcTLBS: "TLBS",
	cp0.ExcAdEL: "AdEL",
	cp0.ExcAdES: "AdES",
	cp0.ExcSys:  "Sys",
	cp0.ExcBp:   "Bp",
	cp0.ExcRI:   "RI",
	cp0.ExcCpU:  "CpU",
	cp0.ExcOv:   "Ov",
	cp0.ExcTr:   "Tr",
	cp0.ExcFPE:  "FPE",
}

func excName(code cp0.ExcCode) string {
	if name, ok := excNames[code]; ok {
		return name
	}
	return fmt.Sprintf("exc%d", uint32(code))
}

// slotInstruction returns the delay slot of the branch being executed.
// Block engines hand over the pre-decoded slot; otherwise it is fetched.
func (c *Core) slotInstruction(addr uint32) (*insts.Instruction, bool) {
	if next := c.nextInst; next != nil {
		c.nextInst = nil
		return next, true
	}
	word, ok := c.fetch(addr)
	if !ok {
		return nil, false
	}
	c.decoder.DecodeInto(word, &c.slotBuf)
	return &c.slotBuf, true
}

// branch executes a control transfer whose condition and target have been
// evaluated. link, when non-zero, receives the return address. A likely
// branch that is not taken skips its delay slot.
func (c *Core) branch(taken bool, target uint32, link uint8, likely bool) {
	pc := *c.pc
	if link != 0 {
		c.WriteReg(link, se32(pc+8))
	}

	if likely && !taken {
		*c.pc = pc + 8
		c.cp0.UpdateCount(*c.pc)
		c.finishBranch()
		return
	}

	*c.pc = pc + 4
	c.delaySlot = true
	c.redirected = false

	slot, ok := c.slotInstruction(pc + 4)
	if ok {
		if taken && target == pc && slot.Raw == 0 {
			c.skipIdle(pc)
		}
		c.execInst(slot)
	} else if !c.redirected {
		*c.pc += 4
	}

	slotRedirected := c.redirected
	c.cp0.UpdateCount(*c.pc)
	c.delaySlot = false
	if taken && !slotRedirected {
		*c.pc = target
	}
	c.finishBranch()
}

func (c *Core) finishBranch() {
	c.nextInst = nil
	c.cp0.SetLastAddr(*c.pc)
	c.redirected = true
	c.checkpoint()
}

// skipIdle advances Count to the next queued event when a branch jumps to
// itself with an empty delay slot.
func (c *Core) skipIdle(pc uint32) {
	c.cp0.UpdateCount(pc)
	until, ok := c.cp0.Queue().Until(c.cp0.Count())
	if !ok || until == 0 {
		return
	}
	if until > math.MaxUint32 {
		until = math.MaxUint32
	}
	c.cp0.AddCount(uint32(until))
}

// debugHook consults the debugger before the instruction or block at PC.
// It reports whether execution must break. A run resumed after a break
// executes the breaking instruction without asking again.
func (c *Core) debugHook() bool {
	if c.debugger == nil {
		return false
	}
	pc := *c.pc
	if c.resumeBreak {
		c.resumeBreak = false
	} else if c.debugger.ShouldBreak(pc) {
		c.breakHit = true
		c.resumeBreak = true
		return true
	}
	c.debugger.OnStep(pc)
	return false
}

// checkpoint dispatches interrupt events that are due.
func (c *Core) checkpoint() {
	if c.cp0.Queue().Due(c.cp0.Count()) {
		c.genInterrupt()
	}
}
