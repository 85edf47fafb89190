package emu

import (
	"github.com/pkg/errors"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sarchlab/r4300/blockcache"
	"github.com/sarchlab/r4300/insts"
	"github.com/sarchlab/r4300/tlb"
)

// ErrEmptyBlock is returned by a backend asked to compile no code.
var ErrEmptyBlock = errors.New("emu: empty block")

// Block is a compiled basic block.
type Block interface {
	// Len is the number of instructions the block covers.
	Len() int
}

// Backend turns decoded basic blocks into executable code.
type Backend interface {
	Name() string

	// Compile translates the basic block starting at physical address
	// paddr.
	Compile(paddr uint32, code []insts.Instruction) (Block, error)

	// Execute runs b on the core until control leaves the block.
	Execute(c *Core, b Block)

	// Invalidate releases backend resources held for code in
	// [paddr, paddr+size).
	Invalidate(paddr, size uint32)
}

// ClosureBackend binds each instruction's handler at compile time so that
// execution skips decoding and table dispatch.
type ClosureBackend struct{}

// NewClosureBackend creates the default recompiler backend.
func NewClosureBackend() *ClosureBackend {
	return &ClosureBackend{}
}

type boundOp struct {
	h    Handler
	inst insts.Instruction
}

type closureBlock struct {
	ops []boundOp
}

func (b *closureBlock) Len() int { return len(b.ops) }

// Name returns the backend name.
func (ClosureBackend) Name() string { return "closure" }

// Compile binds the handlers for code.
func (ClosureBackend) Compile(paddr uint32, code []insts.Instruction) (Block, error) {
	if len(code) == 0 {
		return nil, errors.Wrapf(ErrEmptyBlock, "at 0x%08X", paddr)
	}
	ops := make([]boundOp, len(code))
	for i := range code {
		ops[i] = boundOp{h: HandlerFor(code[i].Op), inst: code[i]}
	}
	return &closureBlock{ops: ops}, nil
}

// Execute runs the bound handlers in order.
func (ClosureBackend) Execute(c *Core, b Block) {
	cb := b.(*closureBlock)
	c.codeDirty = false
	for i := range cb.ops {
		op := &cb.ops[i]
		c.nextInst = nil
		if op.inst.IsBranch() && i+1 < len(cb.ops) {
			c.nextInst = &cb.ops[i+1].inst
		}
		if c.Exec(op.h, &op.inst) {
			return
		}
	}
}

// Invalidate is a no-op; closure blocks hold no resources of their own.
func (ClosureBackend) Invalidate(uint32, uint32) {}

type compiledBlock struct {
	paddr uint32
	block Block
}

// dynarecEngine runs compiled basic blocks looked up by physical address.
type dynarecEngine struct {
	core    *Core
	backend Backend

	blocks *lru.Cache[uint32, *compiledBlock]
	pages  map[uint32]map[uint32]struct{}
}

func newDynarecEngine(c *Core, backend Backend) *dynarecEngine {
	e := &dynarecEngine{
		core:    c,
		backend: backend,
		pages:   make(map[uint32]map[uint32]struct{}),
	}

	size := c.cacheSize
	if size <= 0 {
		size = blockcache.DefaultConfig().Blocks
	}
	blocks, err := lru.NewWithEvict(size, e.evicted)
	if err != nil {
		panic(err)
	}
	e.blocks = blocks

	return e
}

func (e *dynarecEngine) evicted(paddr uint32, b *compiledBlock) {
	pg := paddr / blockcache.PageSize
	if keys, ok := e.pages[pg]; ok {
		delete(keys, paddr)
		if len(keys) == 0 {
			delete(e.pages, pg)
		}
	}
	e.backend.Invalidate(paddr, uint32(b.block.Len())*4)
}

func (e *dynarecEngine) Execute(budget uint64) {
	c := e.core
	limit := c.limit(budget)
	for !c.stopRequested() && !c.exhausted(limit) {
		if c.debugHook() {
			return
		}

		c.redirected = false
		paddr, ok := c.translate(*c.pc, tlb.Read)
		if !ok {
			if !c.redirected {
				*c.pc += 4
			}
			continue
		}

		b := e.lookup(paddr)
		if b == nil || (limit != 0 && c.retired+uint64(b.block.Len()) > limit) {
			c.step()
			continue
		}
		e.backend.Execute(c, b.block)
	}
}

func (e *dynarecEngine) lookup(paddr uint32) *compiledBlock {
	c := e.core
	if b, ok := e.blocks.Get(paddr); ok {
		c.metrics.RecordBlockLookup(c.mode.String(), true)
		return b
	}
	c.metrics.RecordBlockLookup(c.mode.String(), false)

	code := e.decodeBlock(paddr)
	block, err := e.backend.Compile(paddr, code)
	if err != nil {
		c.logger.Error(err, "cannot compile block", "backend", e.backend.Name(), "paddr", paddr)
		return nil
	}

	b := &compiledBlock{paddr: paddr, block: block}
	e.blocks.Add(paddr, b)
	pg := paddr / blockcache.PageSize
	if e.pages[pg] == nil {
		e.pages[pg] = make(map[uint32]struct{})
	}
	e.pages[pg][paddr] = struct{}{}

	c.metrics.RecordBlockCompile(c.mode.String())
	c.logger.V(2).Info("block compiled", "paddr", paddr, "len", block.Len())
	return b
}

// decodeBlock decodes from paddr up to the end of the basic block, the
// delay slot included when it lies on the same page.
func (e *dynarecEngine) decodeBlock(paddr uint32) []insts.Instruction {
	var code []insts.Instruction
	for addr := paddr; ; addr += 4 {
		var inst insts.Instruction
		e.core.decoder.DecodeInto(e.core.bus.ReadWord(addr), &inst)
		code = append(code, inst)

		next := addr + 4
		if next&(blockcache.PageSize-1) == 0 {
			return code
		}
		if inst.IsBranch() {
			e.core.decoder.DecodeInto(e.core.bus.ReadWord(next), &inst)
			return append(code, inst)
		}
		if inst.EndsBlock() {
			return code
		}
	}
}

func (e *dynarecEngine) Invalidate(paddr, size uint32) bool {
	if size == 0 {
		dropped := e.blocks.Len() > 0
		e.blocks.Purge()
		e.pages = make(map[uint32]map[uint32]struct{})
		e.backend.Invalidate(0, 0)
		return dropped
	}

	dropped := 0
	first := paddr / blockcache.PageSize
	last := uint32((uint64(paddr) + uint64(size) - 1) / blockcache.PageSize)
	for pg := first; pg <= last; pg++ {
		for key := range e.pages[pg] {
			e.blocks.Remove(key)
			dropped++
		}
		if pg == last {
			break
		}
	}
	if dropped == 0 {
		return false
	}

	e.core.metrics.RecordBlockInvalidation(e.core.mode.String(), dropped)
	return true
}

func (e *dynarecEngine) Reset() {
	e.Invalidate(0, 0)
}
