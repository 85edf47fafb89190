package emu

import (
	"github.com/sarchlab/r4300/blockcache"
	"github.com/sarchlab/r4300/insts"
	"github.com/sarchlab/r4300/tlb"
)

const wordsPerPage = blockcache.PageSize / 4

// page holds the pre-decoded instructions of one physical page. Entries
// are decoded the first time they execute.
type page struct {
	insts [wordsPerPage]insts.Instruction
	valid [wordsPerPage]bool
}

// cachedEngine interprets pre-decoded pages kept in a block cache.
type cachedEngine struct {
	core  *Core
	cache *blockcache.Cache[*page]
}

func newCachedEngine(c *Core) *cachedEngine {
	cfg := blockcache.DefaultConfig()
	cfg.Blocks = c.cacheSize
	return &cachedEngine{
		core:  c,
		cache: blockcache.New[*page](cfg),
	}
}

func (e *cachedEngine) Execute(budget uint64) {
	c := e.core
	limit := c.limit(budget)
	for !c.stopRequested() && !c.exhausted(limit) {
		if !e.runChain(limit) {
			return
		}
	}
}

func (e *cachedEngine) lookup(paddr uint32) *page {
	c := e.core
	pg, ok := e.cache.Lookup(paddr)
	c.metrics.RecordBlockLookup(c.mode.String(), ok)
	if ok {
		return pg
	}

	pg = &page{}
	if evicted, ok := e.cache.Insert(paddr, pg); ok {
		c.logger.V(2).Info("block evicted", "paddr", evicted)
	}
	c.metrics.RecordBlockCompile(c.mode.String())
	return pg
}

func (e *cachedEngine) decoded(pg *page, paddr uint32) *insts.Instruction {
	idx := (paddr & (blockcache.PageSize - 1)) >> 2
	if !pg.valid[idx] {
		e.core.decoder.DecodeInto(e.core.bus.ReadWord(paddr), &pg.insts[idx])
		pg.valid[idx] = true
	}
	return &pg.insts[idx]
}

// runChain executes sequential instructions from PC until control leaves
// the page's straight-line path. It returns false when the debugger
// requested a break.
func (e *cachedEngine) runChain(limit uint64) bool {
	c := e.core
	if c.debugHook() {
		return false
	}

	c.redirected = false
	paddr, ok := c.translate(*c.pc, tlb.Read)
	if !ok {
		if !c.redirected {
			*c.pc += 4
		}
		return true
	}

	pg := e.lookup(paddr)
	c.codeDirty = false

	for {
		inst := e.decoded(pg, paddr)
		c.nextInst = nil
		if inst.IsBranch() && (paddr+4)&(blockcache.PageSize-1) != 0 {
			c.nextInst = e.decoded(pg, paddr+4)
		}

		c.execInst(inst)

		if c.redirected || c.codeDirty || c.exhausted(limit) || c.stopRequested() {
			return true
		}
		paddr += 4
		if paddr&(blockcache.PageSize-1) == 0 {
			return true
		}
		if c.debugHook() {
			return false
		}
	}
}

func (e *cachedEngine) Invalidate(paddr, size uint32) bool {
	if size == 0 {
		e.cache.Reset()
		return true
	}

	dropped := 0
	first := paddr / blockcache.PageSize
	last := (uint64(paddr) + uint64(size) - 1) / blockcache.PageSize
	for p := uint64(first); p <= last; p++ {
		if e.cache.Contains(uint32(p * blockcache.PageSize)) {
			dropped++
		}
	}
	if dropped == 0 {
		return false
	}

	e.cache.InvalidateRange(paddr, size)
	e.core.metrics.RecordBlockInvalidation(e.core.mode.String(), dropped)
	return true
}

func (e *cachedEngine) Reset() {
	e.cache.Reset()
}
