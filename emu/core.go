package emu

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"github.com/sarchlab/r4300/blockcache"
	"github.com/sarchlab/r4300/cp0"
	"github.com/sarchlab/r4300/cp1"
	"github.com/sarchlab/r4300/cp2"
	"github.com/sarchlab/r4300/insts"
	"github.com/sarchlab/r4300/memory"
	"github.com/sarchlab/r4300/metrics"
	"github.com/sarchlab/r4300/tlb"
)

// DefaultBootAddress is the address execution starts at after power-on.
const DefaultBootAddress uint32 = 0xA4000040

// ErrBootJump is returned by Run when the boot address cannot be reached.
var ErrBootJump = errors.New("emu: cannot jump to boot address")

// Mode selects the execution engine. It is fixed for the core's lifetime.
type Mode uint8

// Execution modes.
const (
	ModePure Mode = iota
	ModeCached
	ModeDynarec
)

func (m Mode) String() string {
	switch m {
	case ModePure:
		return "pure"
	case ModeCached:
		return "cached"
	case ModeDynarec:
		return "dynarec"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// ParseMode parses a mode name as printed by String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "pure", "interpreter":
		return ModePure, nil
	case "cached":
		return ModeCached, nil
	case "dynarec", "recompiler":
		return ModeDynarec, nil
	}
	return 0, errors.Errorf("emu: unknown mode %q", s)
}

// Debugger is notified at instruction boundaries. In the block engines
// the notification happens at block entry.
type Debugger interface {
	ShouldBreak(pc uint32) bool
	OnStep(pc uint32)
}

// InterruptHandler services a device event popped from the interrupt
// queue.
type InterruptHandler func(c *Core, e cp0.Event)

// RunResult is the outcome of a bounded run.
type RunResult struct {
	// Executed is the number of instructions retired.
	Executed uint64

	// Stopped is set when the run ended because Stop was called.
	Stopped bool

	// Break is set when the debugger asked to break at PC.
	Break bool

	Err error
}

// Core is an R4300i CPU core attached to a physical bus.
type Core struct {
	layout Layout

	gpr *[32]uint64
	hi  *uint64
	lo  *uint64
	pc  *uint32
	ll  *bool

	cp0 *cp0.CP0
	fpu *cp1.FPU
	cp2 *cp2.CP2
	tlb *tlb.TLB

	bus     memory.Bus
	decoder *insts.Decoder
	engine  Engine

	mode       Mode
	countPerOp uint32
	bootAddr   uint32
	compat     tlb.Compat
	country    byte
	byteOrder  binary.ByteOrder
	cacheSize  int
	backend    Backend

	logger   logr.Logger
	metrics  metrics.Metricer
	debugger Debugger
	handlers map[cp0.EventType]InterruptHandler

	started bool

	// Per-instruction control state.
	delaySlot    bool
	redirected   bool
	pendingCheck bool
	codeDirty    bool
	breakHit     bool
	resumeBreak  bool
	nextInst     *insts.Instruction
	slot         insts.Instruction
	slotBuf      insts.Instruction

	retired uint64
}

// CoreOption configures a Core.
type CoreOption func(*Core)

// WithMode selects the execution engine.
func WithMode(m Mode) CoreOption {
	return func(c *Core) {
		c.mode = m
	}
}

// WithCountPerOp sets how many Count cycles each instruction adds.
func WithCountPerOp(n uint32) CoreOption {
	return func(c *Core) {
		c.countPerOp = n
	}
}

// WithBootAddress sets the address execution starts at.
func WithBootAddress(addr uint32) CoreOption {
	return func(c *Core) {
		c.bootAddr = addr
	}
}

// WithCompat enables a per-title address translation workaround.
func WithCompat(compat tlb.Compat, country byte) CoreOption {
	return func(c *Core) {
		c.compat = compat
		c.country = country
	}
}

// WithLogger sets the logger.
func WithLogger(l logr.Logger) CoreOption {
	return func(c *Core) {
		c.logger = l
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m metrics.Metricer) CoreOption {
	return func(c *Core) {
		c.metrics = m
	}
}

// WithDebugger attaches a debugger.
func WithDebugger(d Debugger) CoreOption {
	return func(c *Core) {
		c.debugger = d
	}
}

// WithInterruptHandler registers the handler for a device event type.
func WithInterruptHandler(typ cp0.EventType, h InterruptHandler) CoreOption {
	return func(c *Core) {
		c.handlers[typ] = h
	}
}

// WithBackend sets the code generator used by the recompiler.
func WithBackend(b Backend) CoreOption {
	return func(c *Core) {
		c.backend = b
	}
}

// WithByteOrder sets the byte order of the FPU register bank.
func WithByteOrder(order binary.ByteOrder) CoreOption {
	return func(c *Core) {
		c.byteOrder = order
	}
}

// WithBlockCacheSize sets how many blocks the block engines keep.
func WithBlockCacheSize(n int) CoreOption {
	return func(c *Core) {
		c.cacheSize = n
	}
}

// NewCore creates a core attached to bus. Call PowerOn before running it.
func NewCore(bus memory.Bus, opts ...CoreOption) *Core {
	c := &Core{
		bus:        bus,
		decoder:    insts.NewDecoder(),
		countPerOp: 2,
		bootAddr:   DefaultBootAddress,
		byteOrder:  binary.NativeEndian,
		cacheSize:  blockcache.DefaultConfig().Blocks,
		logger:     logr.Discard(),
		metrics:    metrics.NoopMetrics{},
		handlers:   make(map[cp0.EventType]InterruptHandler),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.layout = newLayout(c.mode)
	c.gpr = c.layout.GPR()
	c.hi = c.layout.Hi()
	c.lo = c.layout.Lo()
	c.pc = c.layout.PC()
	c.ll = c.layout.LLBit()

	c.tlb = tlb.New(
		tlb.WithCompat(c.compat, c.country),
		tlb.WithLogger(c.logger.WithName("tlb")),
	)
	c.cp0 = cp0.New(c.layout.CP0(), c.tlb,
		cp0.WithCountPerOp(c.countPerOp),
		cp0.WithLogger(c.logger.WithName("cp0")),
		cp0.WithQueueErrorHandler(c.queueError),
	)
	c.fpu = cp1.New(c.layout.FPR(),
		cp1.WithByteOrder(c.byteOrder),
		cp1.WithLogger(c.logger.WithName("cp1")),
	)
	c.cp2 = cp2.New(c.layout.CP2())

	c.engine = c.newEngine()

	return c
}

func (c *Core) newEngine() Engine {
	switch c.mode {
	case ModeCached:
		return newCachedEngine(c)
	case ModeDynarec:
		if c.backend == nil {
			c.backend = NewClosureBackend()
		}
		return newDynarecEngine(c, c.backend)
	}
	return newPureEngine(c)
}

// PowerOn resets the core to its power-on state with PC at the boot
// address.
func (c *Core) PowerOn() {
	*c.gpr = [32]uint64{}
	*c.hi = 0
	*c.lo = 0
	*c.ll = false
	*c.pc = c.bootAddr
	c.layout.StopFlag().Store(false)

	c.cp0.PowerOn(c.bootAddr)
	c.fpu.PowerOn(c.cp0.Regs()[cp0.Status])
	c.cp2.PowerOn()

	c.delaySlot = false
	c.redirected = false
	c.pendingCheck = false
	c.codeDirty = false
	c.nextInst = nil
	c.resumeBreak = false
	c.started = false
	c.retired = 0

	c.engine.Reset()
}

// Exec executes one decoded instruction at PC and reports whether control
// left the sequential path. It is the entry point for recompiler backends.
func (c *Core) Exec(h Handler, inst *insts.Instruction) (left bool) {
	c.exec(h, inst)
	return c.redirected || c.codeDirty
}

// Mode returns the execution mode.
func (c *Core) Mode() Mode { return c.mode }

// Layout returns the architectural state.
func (c *Core) Layout() Layout { return c.layout }

// CP0 returns the system control coprocessor.
func (c *Core) CP0() *cp0.CP0 { return c.cp0 }

// FPU returns coprocessor 1.
func (c *Core) FPU() *cp1.FPU { return c.fpu }

// CP2 returns the coprocessor 2 latch.
func (c *Core) CP2() *cp2.CP2 { return c.cp2 }

// TLB returns the TLB.
func (c *Core) TLB() *tlb.TLB { return c.tlb }

// Bus returns the physical bus.
func (c *Core) Bus() memory.Bus { return c.bus }

// PC returns the program counter.
func (c *Core) PC() uint32 { return *c.pc }

// Hi returns the HI register.
func (c *Core) Hi() uint64 { return *c.hi }

// Lo returns the LO register.
func (c *Core) Lo() uint64 { return *c.lo }

// SetHiLo writes HI and LO.
func (c *Core) SetHiLo(hi, lo uint64) {
	*c.hi = hi
	*c.lo = lo
}

// LLBit returns the load-linked flag.
func (c *Core) LLBit() bool { return *c.ll }

// SetLLBit writes the load-linked flag.
func (c *Core) SetLLBit(v bool) { *c.ll = v }

// Retired returns the number of instructions retired since power-on.
func (c *Core) Retired() uint64 { return c.retired }

// Count samples and returns the Count register at the current PC.
func (c *Core) Count() uint32 {
	c.cp0.UpdateCount(*c.pc)
	return c.cp0.Count()
}

// Stop asks a running core to return at the next safe point. It may be
// called from another goroutine.
func (c *Core) Stop() {
	c.layout.StopFlag().Store(true)
}

func (c *Core) stopRequested() bool {
	return c.layout.StopFlag().Load()
}

// jumpTo moves execution to addr from outside the instruction stream.
func (c *Core) jumpTo(addr uint32) error {
	if _, ok := c.probe(addr); !ok {
		return errors.Wrapf(ErrBootJump, "address 0x%08X", addr)
	}
	*c.pc = addr
	c.cp0.SetLastAddr(addr)
	return nil
}

// boot performs the initial jump once per power cycle.
func (c *Core) boot() error {
	if c.started {
		return nil
	}
	if err := c.jumpTo(*c.pc); err != nil {
		return err
	}
	c.started = true
	c.logger.Info("core started", "mode", c.mode.String(), "pc", fmt.Sprintf("0x%08X", *c.pc))
	return nil
}

// Run executes until Stop is called.
func (c *Core) Run() error {
	if err := c.boot(); err != nil {
		return err
	}

	for {
		res := c.run(0)
		if res.Stopped {
			c.layout.StopFlag().Store(false)
			c.logger.Info("core stopped", "pc", fmt.Sprintf("0x%08X", *c.pc), "retired", c.retired)
			return nil
		}
		if res.Break {
			return nil
		}
	}
}

// RunFor executes at most steps instructions. A branch and its delay slot
// retire together, so a run may end one instruction past the budget.
// Subsequent calls resume where the previous one stopped.
func (c *Core) RunFor(steps uint64) RunResult {
	if err := c.boot(); err != nil {
		return RunResult{Err: err}
	}
	if steps == 0 {
		return RunResult{}
	}
	res := c.run(steps)
	if res.Stopped {
		c.layout.StopFlag().Store(false)
	}
	return res
}

func (c *Core) run(budget uint64) RunResult {
	start := c.retired
	c.breakHit = false
	c.engine.Execute(budget)
	executed := c.retired - start
	c.metrics.RecordInstructions(c.mode.String(), executed)

	return RunResult{
		Executed: executed,
		Stopped:  c.stopRequested(),
		Break:    c.breakHit,
	}
}

// SetPC moves execution to pc from outside the instruction stream, for
// example after a state restore. All cached code is dropped.
func (c *Core) SetPC(pc uint32) {
	*c.pc = pc
	c.cp0.SetLastAddr(pc)
	c.delaySlot = false
	c.nextInst = nil
	c.InvalidateCode(0, 0)
}

// InvalidateCode drops cached code overlapping [paddr, paddr+size). A size
// of zero drops everything.
func (c *Core) InvalidateCode(paddr, size uint32) {
	if c.engine.Invalidate(paddr, size) {
		c.codeDirty = true
	}
}

// ScheduleEvent queues a device event delay cycles from the current Count.
func (c *Core) ScheduleEvent(typ cp0.EventType, delay uint32) error {
	err := c.cp0.Queue().Schedule(c.cp0.Count(), typ, delay)
	if err != nil {
		c.queueError(err, typ)
	}
	return err
}

// CancelEvent removes every queued event of typ.
func (c *Core) CancelEvent(typ cp0.EventType) {
	c.cp0.Queue().Cancel(typ)
}

// RaiseInterrupt sets an interrupt-pending bit in Cause and takes the
// interrupt if it is enabled.
func (c *Core) RaiseInterrupt(ip uint32) {
	if c.cp0.RaiseMaskable(ip) {
		c.exception(cp0.ExcInt)
	}
}

// ClearInterrupt clears an interrupt-pending bit in Cause.
func (c *Core) ClearInterrupt(ip uint32) {
	c.cp0.ClearPending(ip)
}

func (c *Core) queueError(err error, typ cp0.EventType) {
	c.metrics.RecordQueueError()
	c.logger.Error(err, "cannot queue interrupt event", "type", typ.String())
}
