package cp0

import (
	"github.com/go-logr/logr"

	"github.com/sarchlab/r4300/tlb"
)

// MaxExceptionDepth bounds the nested-exception stack.
const MaxExceptionDepth = 8

// Frame is the state saved when an exception is taken.
type Frame struct {
	EPC    uint32
	Cause  uint32
	Status uint32
}

// Effect reports side effects of a CP0 write that the core must apply.
type Effect uint8

// Write effects.
const (
	// EffectStatus means Status changed. The old value is returned
	// alongside so the caller can detect an FR transition.
	EffectStatus Effect = 1 << iota

	// EffectInterrupt means an interrupt check event was queued.
	EffectInterrupt
)

// CP0 is the system control coprocessor.
type CP0 struct {
	regs  *Registers
	queue *EventQueue
	tlb   *tlb.TLB

	countPerOp uint32
	lastAddr   uint32

	frames []Frame

	onQueueError func(error, EventType)

	logger logr.Logger
}

// Option configures a CP0.
type Option func(*CP0)

// WithCountPerOp sets how many Count cycles each retired instruction adds.
func WithCountPerOp(n uint32) Option {
	return func(c *CP0) {
		c.countPerOp = n
	}
}

// WithLogger sets the logger.
func WithLogger(l logr.Logger) Option {
	return func(c *CP0) {
		c.logger = l
	}
}

// WithQueueErrorHandler sets the function called when an event raised by a
// register write or an interrupt check cannot be queued.
func WithQueueErrorHandler(f func(error, EventType)) Option {
	return func(c *CP0) {
		c.onQueueError = f
	}
}

// New creates a CP0 over the given register bank and TLB.
func New(regs *Registers, t *tlb.TLB, opts ...Option) *CP0 {
	c := &CP0{
		regs:       regs,
		tlb:        t,
		countPerOp: 2,
		logger:     logr.Discard(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.countPerOp == 0 {
		c.countPerOp = 1
	}
	if c.onQueueError == nil {
		c.onQueueError = func(err error, typ EventType) {
			c.logger.Error(err, "cannot queue event", "type", typ.String())
		}
	}
	c.queue = NewEventQueue(0)

	return c
}

// PowerOn resets the register bank, the TLB and the event queue.
func (c *CP0) PowerOn(bootAddr uint32) {
	c.regs.PowerOn()
	c.tlb.Reset()
	c.queue.Reset(c.regs[Count])
	c.lastAddr = bootAddr
	c.frames = c.frames[:0]
}

// Regs returns the register bank.
func (c *CP0) Regs() *Registers {
	return c.regs
}

// Queue returns the interrupt event queue.
func (c *CP0) Queue() *EventQueue {
	return c.queue
}

// TLB returns the TLB driven by this coprocessor.
func (c *CP0) TLB() *tlb.TLB {
	return c.tlb
}

// CountPerOp returns the configured Count rate.
func (c *CP0) CountPerOp() uint32 {
	return c.countPerOp
}

// Count returns the Count register without updating it.
func (c *CP0) Count() uint32 {
	return c.regs[Count]
}

// LastAddr returns the PC at which Count was last sampled.
func (c *CP0) LastAddr() uint32 {
	return c.lastAddr
}

// SetLastAddr moves the Count sampling point without advancing Count.
func (c *CP0) SetLastAddr(pc uint32) {
	c.lastAddr = pc
}

// UpdateCount advances Count by the instructions retired between the last
// sampling point and pc, then makes pc the new sampling point.
func (c *CP0) UpdateCount(pc uint32) {
	c.regs[Count] += ((pc - c.lastAddr) >> 2) * c.countPerOp
	c.lastAddr = pc
}

// AddCount advances Count directly. It is used to skip idle loops.
func (c *CP0) AddCount(cycles uint32) {
	c.regs[Count] += cycles
}

// RandomIndex computes the Random register from Count and Wired. The
// result is always within [Wired, 31].
func (c *CP0) RandomIndex() uint32 {
	wired := c.regs[Wired]
	if wired >= 31 {
		return 31
	}
	return (c.regs[Count]/c.countPerOp)%(32-wired) + wired
}

// Usable reports whether coprocessor 1 is enabled in Status.
func (c *CP0) Usable() bool {
	return c.regs[Status]&StatusCU1 != 0
}

// FR reports whether the FPU runs with 32 64-bit registers.
func (c *CP0) FR() bool {
	return c.regs[Status]&StatusFR != 0
}

// Read implements MFC0.
func (c *CP0) Read(reg int, pc uint32) uint32 {
	switch reg {
	case Random:
		c.UpdateCount(pc)
		c.regs[Random] = c.RandomIndex()
	case Count:
		c.UpdateCount(pc)
	case 7, 21, 22, 23, 24, 25, 31:
		c.logger.V(1).Info("read of reserved cp0 register", "reg", reg)
	}
	if reg < 0 || reg >= NumRegs {
		c.logger.V(1).Info("read of invalid cp0 register", "reg", reg)
		return 0
	}
	return c.regs[reg]
}

// Write implements MTC0. It returns the previous Status and the side
// effects the caller has to apply.
func (c *CP0) Write(reg int, value, pc uint32) (oldStatus uint32, effects Effect) {
	oldStatus = c.regs[Status]

	switch reg {
	case Index:
		c.regs[Index] = value & 0x8000003F
		if value&0x3F > 31 {
			c.logger.V(1).Info("tlb index out of range", "value", value)
		}
	case Random:
	case EntryLo0, EntryLo1:
		c.regs[reg] = value & 0x3FFFFFFF
	case Context:
		c.regs[Context] = value&0xFF800000 | c.regs[Context]&0x007FFFF0
	case PageMask:
		c.regs[PageMask] = value & 0x01FFE000
	case Wired:
		c.regs[Wired] = value
		c.regs[Random] = 31
	case BadVAddr, PRevID:
	case Count:
		c.UpdateCount(pc)
		c.queue.Rebase(c.regs[Count], value)
		c.regs[Count] = value
		// COMPARE stays tied to the absolute Compare value.
		if c.queue.Cancel(EventCompare) > 0 {
			c.addEvent(Event{Type: EventCompare, Count: c.regs[Compare]})
		}
	case EntryHi:
		c.regs[EntryHi] = value & 0xFFFFE0FF
	case Compare:
		c.UpdateCount(pc)
		c.queue.Cancel(EventCompare)
		c.addEvent(Event{Type: EventCompare, Count: value})
		c.regs[Compare] = value
		c.regs[Cause] &^= CauseIP7
	case Status:
		c.UpdateCount(pc)
		c.regs[Status] = value
		effects |= EffectStatus
		if c.CheckInterrupt() {
			effects |= EffectInterrupt
		}
	case Cause:
		if value&^(CauseIP0|CauseIP1) != 0 {
			c.logger.V(1).Info("write to read-only cause bits", "value", value)
		}
		c.regs[Cause] = c.regs[Cause]&^(CauseIP0|CauseIP1) | value&(CauseIP0|CauseIP1)
		if c.CheckInterrupt() {
			effects |= EffectInterrupt
		}
	case EPC, Config, LLAddr, WatchLo, WatchHi, ErrorEPC:
		c.regs[reg] = value
	case TagLo:
		c.regs[TagLo] = value & 0x0FFFFFC0
	case TagHi:
		c.regs[TagHi] = 0
	default:
		c.logger.V(1).Info("write to unimplemented cp0 register",
			"reg", reg, "name", RegName(reg), "value", value)
	}

	return oldStatus, effects
}

func (c *CP0) addEvent(e Event) {
	if err := c.queue.Add(c.regs[Count], e); err != nil {
		c.onQueueError(err, e.Type)
	}
}

// CheckInterrupt queues a CHECK event when an enabled interrupt is pending
// and interrupts are enabled. It reports whether one was queued.
func (c *CP0) CheckInterrupt() bool {
	if c.regs[Status]&(StatusIE|StatusEXL|StatusERL) != StatusIE {
		return false
	}
	if c.regs[Status]&c.regs[Cause]&CauseIP == 0 {
		return false
	}

	err := c.queue.PushFront(c.regs[Count], EventCheck)
	if err != nil && !isDuplicate(err) {
		c.onQueueError(err, EventCheck)
		return false
	}
	return true
}

// RaiseMaskable sets an interrupt-pending bit in Cause. It reports whether
// the interrupt is enabled and must be taken now.
func (c *CP0) RaiseMaskable(ip uint32) bool {
	c.regs[Cause] = (c.regs[Cause] | ip) &^ CauseExcCode
	if c.regs[Status]&c.regs[Cause]&CauseIP == 0 {
		return false
	}
	return c.regs[Status]&(StatusIE|StatusEXL|StatusERL) == StatusIE
}

// ClearPending clears an interrupt-pending bit in Cause.
func (c *CP0) ClearPending(ip uint32) {
	c.regs[Cause] &^= ip
}

// ScheduleCompare re-queues the COMPARE event after it fired. The event is
// placed relative to the following instruction so that Compare equal to
// Count means a full Count period.
func (c *CP0) ScheduleCompare() error {
	now := c.regs[Count] + c.countPerOp
	return c.queue.Add(now, Event{Type: EventCompare, Count: c.regs[Compare]})
}
