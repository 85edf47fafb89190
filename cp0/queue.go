package cp0

import (
	"github.com/pkg/errors"
)

// QueueCapacity is the number of events the queue can hold.
const QueueCapacity = 16

var (
	// ErrQueueFull is returned when every node of the event pool is in use.
	ErrQueueFull = errors.New("cp0: interrupt event pool exhausted")

	// ErrDuplicateEvent is returned when an event of the same type is
	// already queued. The queue is left unchanged.
	ErrDuplicateEvent = errors.New("cp0: event type already queued")
)

// EventType identifies the source of an interrupt event.
type EventType uint32

// Event types. The values are those used by persisted queues.
const (
	EventVI      EventType = 0x0001
	EventCompare EventType = 0x0002
	EventCheck   EventType = 0x0004
	EventSI      EventType = 0x0008
	EventPI      EventType = 0x0010
	EventSpecial EventType = 0x0020
	EventAI      EventType = 0x0040
	EventSP      EventType = 0x0080
	EventDP      EventType = 0x0100
	EventHW2     EventType = 0x0200
	EventNMI     EventType = 0x0400
	EventRSPDMA  EventType = 0x0800
	EventDDMC    EventType = 0x1000
	EventDDBM    EventType = 0x2000
	EventDDDV    EventType = 0x4000
	EventRSPTask EventType = 0x8000
)

func (t EventType) String() string {
	switch t {
	case EventVI:
		return "VI"
	case EventCompare:
		return "COMPARE"
	case EventCheck:
		return "CHECK"
	case EventSI:
		return "SI"
	case EventPI:
		return "PI"
	case EventSpecial:
		return "SPECIAL"
	case EventAI:
		return "AI"
	case EventSP:
		return "SP"
	case EventDP:
		return "DP"
	case EventHW2:
		return "HW2"
	case EventNMI:
		return "NMI"
	case EventRSPDMA:
		return "RSP_DMA"
	case EventDDMC:
		return "DD_MC"
	case EventDDBM:
		return "DD_BM"
	case EventDDDV:
		return "DD_DV"
	case EventRSPTask:
		return "RSP_TSK"
	}
	return "UNKNOWN"
}

// Event is a queued interrupt: its type and the Count value at which it is
// due.
type Event struct {
	Type  EventType
	Count uint32
}

type node struct {
	event Event

	// key is the distance in Count cycles from the queue's base to the
	// event. It is wider than Count so an event a full wrap away still
	// orders after everything else.
	key uint64

	next  *node
	inUse bool
}

// EventQueue is an ascending list of pending events, allocated from a fixed
// pool. Ordering is relative to the Count value the queue was last
// synchronised with, so it stays correct across Count wrap-around.
type EventQueue struct {
	pool [QueueCapacity]node
	head *node
	base uint32
	n    int
}

// NewEventQueue creates an empty queue synchronised with Count now.
func NewEventQueue(now uint32) *EventQueue {
	q := &EventQueue{}
	q.Reset(now)
	return q
}

// Reset removes every event and synchronises the queue with now.
func (q *EventQueue) Reset(now uint32) {
	for i := range q.pool {
		q.pool[i] = node{}
	}
	q.head = nil
	q.base = now
	q.n = 0
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int {
	return q.n
}

func (q *EventQueue) alloc() *node {
	for i := range q.pool {
		if !q.pool[i].inUse {
			q.pool[i] = node{inUse: true}
			return &q.pool[i]
		}
	}
	return nil
}

func (q *EventQueue) release(n *node) {
	*n = node{}
	q.n--
}

// Schedule queues an event of type typ due delay cycles after now.
func (q *EventQueue) Schedule(now uint32, typ EventType, delay uint32) error {
	return q.Add(now, Event{Type: typ, Count: now + delay})
}

// Add queues e. Its position is given by the distance from now to e.Count;
// an event whose Count equals now is due immediately.
func (q *EventQueue) Add(now uint32, e Event) error {
	if _, ok := q.Get(e.Type); ok {
		return errors.Wrapf(ErrDuplicateEvent, "type %s", e.Type)
	}

	n := q.alloc()
	if n == nil {
		return errors.Wrapf(ErrQueueFull, "adding %s at 0x%08X", e.Type, e.Count)
	}
	q.n++

	n.event = e
	n.key = uint64(now-q.base) + uint64(e.Count-now)

	if q.head == nil || n.key < q.head.key {
		n.next = q.head
		q.head = n
		return nil
	}

	prev := q.head
	for prev.next != nil && prev.next.key <= n.key {
		prev = prev.next
	}
	n.next = prev.next
	prev.next = n

	return nil
}

// PushFront queues an event of type typ at the head of the queue, due at
// now. It is used to force an interrupt check.
func (q *EventQueue) PushFront(now uint32, typ EventType) error {
	if _, ok := q.Get(typ); ok {
		return errors.Wrapf(ErrDuplicateEvent, "type %s", typ)
	}

	n := q.alloc()
	if n == nil {
		return errors.Wrapf(ErrQueueFull, "pushing %s", typ)
	}
	q.n++

	n.event = Event{Type: typ, Count: now}
	n.key = uint64(now - q.base)
	if q.head != nil && q.head.key < n.key {
		n.key = q.head.key
	}
	n.next = q.head
	q.head = n

	return nil
}

// Due reports whether the head event is due at now.
func (q *EventQueue) Due(now uint32) bool {
	return q.head != nil && q.head.key <= uint64(now-q.base)
}

// Until returns the number of cycles from now until the head event is due,
// or 0 if it already is. ok is false when the queue is empty.
func (q *EventQueue) Until(now uint32) (cycles uint64, ok bool) {
	if q.head == nil {
		return 0, false
	}
	elapsed := uint64(now - q.base)
	if q.head.key <= elapsed {
		return 0, true
	}
	return q.head.key - elapsed, true
}

// PopDue removes and returns, in order, every event due at now, then
// synchronises the queue with now.
func (q *EventQueue) PopDue(now uint32) []Event {
	elapsed := uint64(now - q.base)

	var due []Event
	for q.head != nil && q.head.key <= elapsed {
		n := q.head
		q.head = n.next
		due = append(due, n.event)
		q.release(n)
	}

	q.sync(now)

	return due
}

func (q *EventQueue) sync(now uint32) {
	elapsed := uint64(now - q.base)
	for n := q.head; n != nil; n = n.next {
		if n.key > elapsed {
			n.key -= elapsed
		} else {
			n.key = 0
		}
	}
	q.base = now
}

// Cancel removes every event of type typ and returns how many were removed.
// The order of the remaining events is preserved.
func (q *EventQueue) Cancel(typ EventType) int {
	removed := 0
	link := &q.head
	for *link != nil {
		n := *link
		if n.event.Type == typ {
			*link = n.next
			q.release(n)
			removed++
			continue
		}
		link = &n.next
	}
	return removed
}

// Get returns the queued event of type typ.
func (q *EventQueue) Get(typ EventType) (Event, bool) {
	for n := q.head; n != nil; n = n.next {
		if n.event.Type == typ {
			return n.event, true
		}
	}
	return Event{}, false
}

// Next returns the head event without removing it.
func (q *EventQueue) Next() (Event, bool) {
	if q.head == nil {
		return Event{}, false
	}
	return q.head.event, true
}

// Events returns the queued events in due order.
func (q *EventQueue) Events() []Event {
	events := make([]Event, 0, q.n)
	for n := q.head; n != nil; n = n.next {
		events = append(events, n.event)
	}
	return events
}

// Load replaces the queue contents with events, ordered relative to now.
func (q *EventQueue) Load(now uint32, events []Event) error {
	q.Reset(now)
	for _, e := range events {
		if err := q.Add(now, e); err != nil {
			return err
		}
	}
	return nil
}

// Rebase moves every event so that it stays the same distance away after
// Count jumps from now to count.
func (q *EventQueue) Rebase(now, count uint32) {
	q.sync(now)
	for n := q.head; n != nil; n = n.next {
		n.event.Count = n.event.Count - now + count
	}
	q.base = count
}
