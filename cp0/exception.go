package cp0

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/r4300/tlb"
)

func isDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateEvent)
}

// ExceptionDepth returns the number of frames on the nested-exception stack.
func (c *CP0) ExceptionDepth() int {
	return len(c.frames)
}

// Frames returns a copy of the nested-exception stack, oldest first.
func (c *CP0) Frames() []Frame {
	return append([]Frame(nil), c.frames...)
}

// DropFrames empties the nested-exception stack.
func (c *CP0) DropFrames() {
	c.frames = c.frames[:0]
}

func (c *CP0) pushFrame() {
	if len(c.frames) == MaxExceptionDepth {
		c.logger.V(1).Info("exception stack full, dropping oldest frame",
			"epc", c.frames[0].EPC)
		copy(c.frames, c.frames[1:])
		c.frames = c.frames[:len(c.frames)-1]
	}
	c.frames = append(c.frames, Frame{
		EPC:    c.regs[EPC],
		Cause:  c.regs[Cause],
		Status: c.regs[Status],
	})
}

func (c *CP0) vector(offset uint32) uint32 {
	if c.regs[Status]&StatusBEV != 0 {
		return vectorBaseBEV + offset
	}
	return vectorBase + offset
}

func (c *CP0) enter(pc uint32, delaySlot bool) {
	c.UpdateCount(pc)
	c.pushFrame()

	c.regs[EPC] = pc
	if delaySlot {
		c.regs[EPC] -= 4
		c.regs[Cause] |= CauseBD
	} else {
		c.regs[Cause] &^= CauseBD
	}
}

// Exception takes a general exception with the given code for the
// instruction at pc and returns the vector to continue at. For an
// instruction in a branch delay slot pc is the slot's address and EPC
// points at the branch.
func (c *CP0) Exception(pc uint32, delaySlot bool, code ExcCode) uint32 {
	c.enter(pc, delaySlot)
	c.regs[Cause] = c.regs[Cause]&^CauseExcCode | uint32(code)<<2
	c.regs[Status] |= StatusEXL
	c.lastAddr = c.vector(offsetGeneral)
	return c.lastAddr
}

// CoprocessorUnusable takes a coprocessor-unusable exception for CP1.
func (c *CP0) CoprocessorUnusable(pc uint32, delaySlot bool) uint32 {
	c.regs[Cause] = c.regs[Cause]&^(CauseExcCode|0x30000000) | CauseCE1
	return c.Exception(pc, delaySlot, ExcCpU)
}

// AddressError takes an address error exception for a misaligned access
// to vaddr.
func (c *CP0) AddressError(pc uint32, delaySlot bool, vaddr uint32, write bool) uint32 {
	code := ExcAdEL
	if write {
		code = ExcAdES
	}
	c.regs[BadVAddr] = vaddr
	return c.Exception(pc, delaySlot, code)
}

// TLBRefill takes a TLB miss exception for vaddr. The refill vector is used
// when EXL is clear and no entry covers vaddr; otherwise the general vector.
func (c *CP0) TLBRefill(pc uint32, delaySlot bool, vaddr uint32, kind tlb.Kind) uint32 {
	code := ExcTLBL
	if kind == tlb.Write {
		code = ExcTLBS
	}

	c.regs[BadVAddr] = vaddr
	c.regs[Context] = c.regs[Context]&0xFF80000F | (vaddr>>9)&0x007FFFF0
	c.regs[EntryHi] = vaddr & 0xFFFFE000

	offset := offsetGeneral
	if c.regs[Status]&StatusEXL == 0 && !c.tlb.Covers(vaddr) {
		offset = offsetRefill
	}

	c.enter(pc, delaySlot)
	c.regs[Cause] = c.regs[Cause]&^CauseExcCode | uint32(code)<<2
	c.regs[Status] |= StatusEXL
	c.lastAddr = c.vector(offset)
	return c.lastAddr
}

// ERET returns from an exception. It pops the innermost frame, clears ERL
// or EXL and returns the address to continue at. Returning from a nested
// exception restores the outer handler's EPC.
func (c *CP0) ERET(pc uint32) uint32 {
	c.UpdateCount(pc)

	var target uint32
	if c.regs[Status]&StatusERL != 0 {
		c.regs[Status] &^= StatusERL
		target = c.regs[ErrorEPC]
	} else {
		c.regs[Status] &^= StatusEXL
		target = c.regs[EPC]
	}

	if n := len(c.frames); n > 0 {
		frame := c.frames[n-1]
		c.frames = c.frames[:n-1]
		if frame.Status&StatusEXL != 0 {
			c.regs[EPC] = frame.EPC
		}
	}

	c.lastAddr = target
	return target
}
