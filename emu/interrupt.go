package emu

import (
	"github.com/sarchlab/r4300/cp0"
)

// Soft reset constants.
const (
	SoftResetAddress uint32 = 0xA4000040

	nmiStatusClear uint32 = 0x00380000
	nmiStatusSet   uint32 = 0x00500004
)

// genInterrupt pops and services every due event.
func (c *Core) genInterrupt() {
	for _, e := range c.cp0.Queue().PopDue(c.cp0.Count()) {
		c.metrics.RecordInterrupt(e.Type.String())

		switch e.Type {
		case cp0.EventCompare:
			if err := c.cp0.ScheduleCompare(); err != nil {
				c.queueError(err, cp0.EventCompare)
			}
			c.RaiseInterrupt(cp0.CauseIP7)
		case cp0.EventCheck:
			c.takePending()
		case cp0.EventSpecial:
		case cp0.EventNMI:
			c.softReset()
		case cp0.EventHW2:
			c.RaiseInterrupt(cp0.CauseIP4)
		default:
			if h, ok := c.handlers[e.Type]; ok {
				h(c, e)
				continue
			}
			c.logger.V(1).Info("unhandled interrupt event", "type", e.Type.String(), "count", e.Count)
			c.takePending()
		}
	}
}

// takePending takes an interrupt exception if an enabled interrupt is
// still pending.
func (c *Core) takePending() {
	regs := c.cp0.Regs()
	if regs[cp0.Status]&regs[cp0.Cause]&cp0.CauseIP == 0 {
		return
	}
	if regs[cp0.Status]&(cp0.StatusIE|cp0.StatusEXL|cp0.StatusERL) != cp0.StatusIE {
		return
	}
	c.exception(cp0.ExcInt)
}

// softReset services a non-maskable interrupt: the reset code of the boot
// ROM is simulated and execution restarts at the soft reset address.
func (c *Core) softReset() {
	regs := c.cp0.Regs()
	regs[cp0.Status] = regs[cp0.Status]&^nmiStatusClear | nmiStatusSet
	regs[cp0.Cause] = 0
	regs[cp0.ErrorEPC] = *c.pc
	if c.delaySlot {
		regs[cp0.ErrorEPC] -= 4
	}
	c.delaySlot = false

	regs[cp0.Count] = 0
	c.cp0.Queue().Reset(0)
	c.engine.Invalidate(0, 0)
	c.codeDirty = true

	if h, ok := c.handlers[cp0.EventNMI]; ok {
		h(c, cp0.Event{Type: cp0.EventNMI})
	}

	c.cp0.SetLastAddr(SoftResetAddress)
	c.redirect(SoftResetAddress)
	c.logger.Info("soft reset")
}
