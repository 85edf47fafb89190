package cp0

import (
	"github.com/sarchlab/r4300/tlb"
)

// TLBR loads EntryHi, EntryLo0/1 and PageMask from the entry selected by
// Index.
func (c *CP0) TLBR() {
	e, err := c.tlb.Entry(int(c.regs[Index] & 0x1F))
	if err != nil {
		c.logger.V(1).Info("tlbr failed", "err", err.Error())
		return
	}

	lo0, lo1, hi, mask := e.Registers()
	c.regs[EntryLo0] = lo0
	c.regs[EntryLo1] = lo1
	c.regs[EntryHi] = hi
	c.regs[PageMask] = mask
}

func (c *CP0) entryFromRegs() tlb.Entry {
	return tlb.FromRegisters(c.regs[EntryLo0], c.regs[EntryLo1], c.regs[EntryHi], c.regs[PageMask])
}

// TLBWI writes the entry selected by Index from the CP0 registers.
func (c *CP0) TLBWI() {
	c.writeEntry(int(c.regs[Index] & 0x1F))
}

// TLBWR writes the entry selected by Random from the CP0 registers.
func (c *CP0) TLBWR(pc uint32) {
	c.UpdateCount(pc)
	c.regs[Random] = c.RandomIndex()
	c.writeEntry(int(c.regs[Random]))
}

func (c *CP0) writeEntry(index int) {
	if err := c.tlb.Write(index, c.entryFromRegs()); err != nil {
		c.logger.V(1).Info("tlb write failed", "index", index, "err", err.Error())
	}
}

// TLBP searches the TLB for EntryHi and sets Index to the match, or sets
// the probe-failure bit.
func (c *CP0) TLBP() {
	c.regs[Index] |= 0x80000000
	if i, ok := c.tlb.Probe(c.regs[EntryHi]); ok {
		c.regs[Index] = uint32(i)
	}
}
