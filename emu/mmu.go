package emu

import (
	"github.com/sarchlab/r4300/cp0"
	"github.com/sarchlab/r4300/memory"
	"github.com/sarchlab/r4300/tlb"
)

const (
	kseg0 = 0x80000000
	kseg2 = 0xC0000000

	physMask = 0x1FFFFFFF
)

// probe translates vaddr without side effects.
func (c *Core) probe(vaddr uint32) (uint32, bool) {
	paddr, ok := c.direct(vaddr)
	if !ok {
		paddr, ok = c.tlb.Translate(vaddr, tlb.Read)
	}
	if !ok {
		return 0, false
	}
	if p, isProber := c.bus.(memory.Prober); isProber && !p.Mapped(paddr) {
		return 0, false
	}
	return paddr, true
}

// direct maps the unmapped kernel segments.
func (c *Core) direct(vaddr uint32) (uint32, bool) {
	if vaddr >= kseg0 && vaddr < kseg2 {
		return vaddr & physMask, true
	}
	return 0, false
}

// translate converts vaddr for an access of the given kind. On a miss the
// refill exception is taken and ok is false.
func (c *Core) translate(vaddr uint32, kind tlb.Kind) (uint32, bool) {
	if paddr, ok := c.direct(vaddr); ok {
		return paddr, true
	}

	paddr, ok := c.tlb.Translate(vaddr, kind)
	if ok {
		return paddr, true
	}

	c.metrics.RecordTLBMiss(kind == tlb.Write)
	if !c.tlb.RaisesRefill() {
		c.logger.V(1).Info("tlb miss suppressed", "vaddr", vaddr)
		return 0, false
	}

	target := c.cp0.TLBRefill(*c.pc, c.delaySlot, vaddr, kind)
	code := cp0.ExcTLBL
	if kind == tlb.Write {
		code = cp0.ExcTLBS
	}
	c.metrics.RecordException(excName(code))
	c.redirect(target)
	return 0, false
}

// fetch reads the instruction word at vaddr.
func (c *Core) fetch(vaddr uint32) (uint32, bool) {
	paddr, ok := c.translate(vaddr, tlb.Read)
	if !ok {
		return 0, false
	}
	return c.bus.ReadWord(paddr), true
}

func (c *Core) aligned(vaddr, size uint32, write bool) bool {
	if vaddr&(size-1) == 0 {
		return true
	}
	target := c.cp0.AddressError(*c.pc, c.delaySlot, vaddr, write)
	code := cp0.ExcAdEL
	if write {
		code = cp0.ExcAdES
	}
	c.metrics.RecordException(excName(code))
	c.redirect(target)
	return false
}

func (c *Core) loadWord(vaddr uint32) (uint32, bool) {
	if !c.aligned(vaddr, 4, false) {
		return 0, false
	}
	paddr, ok := c.translate(vaddr, tlb.Read)
	if !ok {
		return 0, false
	}
	return c.bus.ReadWord(paddr), true
}

func (c *Core) loadDword(vaddr uint32) (uint64, bool) {
	if !c.aligned(vaddr, 8, false) {
		return 0, false
	}
	paddr, ok := c.translate(vaddr, tlb.Read)
	if !ok {
		return 0, false
	}
	return c.bus.ReadDword(paddr), true
}

// loadAlignedWord reads the word containing vaddr, for sub-word and
// unaligned loads.
func (c *Core) loadAlignedWord(vaddr uint32) (uint32, bool) {
	paddr, ok := c.translate(vaddr&^3, tlb.Read)
	if !ok {
		return 0, false
	}
	return c.bus.ReadWord(paddr), true
}

func (c *Core) loadAlignedDword(vaddr uint32) (uint64, bool) {
	paddr, ok := c.translate(vaddr&^7, tlb.Read)
	if !ok {
		return 0, false
	}
	return c.bus.ReadDword(paddr), true
}

// storeWord writes the bits of value selected by mask into the word
// containing vaddr.
func (c *Core) storeWord(vaddr, value, mask uint32) bool {
	paddr, ok := c.translate(vaddr&^3, tlb.Write)
	if !ok {
		return false
	}
	c.bus.WriteWord(paddr, value, mask)
	c.codeWritten(paddr, 4)
	return true
}

// storeDword writes the bits of value selected by mask into the
// doubleword containing vaddr.
func (c *Core) storeDword(vaddr uint32, value, mask uint64) bool {
	paddr, ok := c.translate(vaddr&^7, tlb.Write)
	if !ok {
		return false
	}
	if mask == ^uint64(0) {
		c.bus.WriteDword(paddr, value)
	} else {
		c.bus.WriteWord(paddr, uint32(value>>32), uint32(mask>>32))
		c.bus.WriteWord(paddr+4, uint32(value), uint32(mask))
	}
	c.codeWritten(paddr, 8)
	return true
}

// codeWritten drops cached code covering a store.
func (c *Core) codeWritten(paddr, size uint32) {
	if c.engine.Invalidate(paddr, size) {
		c.codeDirty = true
	}
}
