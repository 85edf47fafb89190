package emu

// Engine drives instruction execution for one mode.
type Engine interface {
	// Execute runs until the stop flag is seen, the debugger breaks, or
	// budget instructions have retired. A zero budget means no limit.
	Execute(budget uint64)

	// Invalidate drops cached code overlapping [paddr, paddr+size) and
	// reports whether anything was dropped. A zero size drops everything.
	Invalidate(paddr, size uint32) bool

	// Reset drops all engine state.
	Reset()
}

// limit converts a budget into an absolute retired-instruction count.
func (c *Core) limit(budget uint64) uint64 {
	if budget == 0 {
		return 0
	}
	return c.retired + budget
}

func (c *Core) exhausted(limit uint64) bool {
	return limit != 0 && c.retired >= limit
}

// pureEngine fetches and decodes every instruction as it executes it.
type pureEngine struct {
	core *Core
}

func newPureEngine(c *Core) *pureEngine {
	return &pureEngine{core: c}
}

func (e *pureEngine) Execute(budget uint64) {
	c := e.core
	limit := c.limit(budget)
	for !c.stopRequested() && !c.exhausted(limit) {
		if c.debugHook() {
			return
		}
		c.step()
	}
}

func (e *pureEngine) Invalidate(uint32, uint32) bool { return false }

func (e *pureEngine) Reset() {}
