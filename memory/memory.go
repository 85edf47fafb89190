// Package memory provides the physical address bus the CPU core issues
// accesses on: a dispatch table indexed by the upper 16 address bits, and
// plain RAM and ROM regions to put in it.
package memory

import (
	"github.com/go-logr/logr"
	"github.com/pkg/errors"
)

// ErrOverlap is returned when a region overlaps an existing one.
var ErrOverlap = errors.New("memory: region overlaps an existing mapping")

// ErrAlignment is returned for a region not aligned to 64 KiB.
var ErrAlignment = errors.New("memory: region not aligned to 64 KiB")

// Bus is the physical access interface used by the CPU core.
type Bus interface {
	ReadWord(paddr uint32) uint32
	ReadDword(paddr uint32) uint64
	// WriteWord replaces the bits selected by mask.
	WriteWord(paddr, value, mask uint32)
	WriteDword(paddr uint32, value uint64)
}

// Prober is implemented by buses that can tell whether an address is
// backed by a device.
type Prober interface {
	Mapped(paddr uint32) bool
}

// Handler serves word accesses for one region. Offsets are relative to the
// start of the region.
type Handler interface {
	ReadWord(offset uint32) uint32
	WriteWord(offset, value, mask uint32)
}

type region struct {
	base    uint32
	handler Handler
}

const numSlots = 1 << 16

// Map dispatches physical accesses to handlers by address >> 16.
type Map struct {
	slots  []*region
	logger logr.Logger
}

// MapOption configures a Map.
type MapOption func(*Map)

// WithLogger sets the logger used for unmapped accesses.
func WithLogger(l logr.Logger) MapOption {
	return func(m *Map) {
		m.logger = l
	}
}

// NewMap creates an empty dispatch table.
func NewMap(opts ...MapOption) *Map {
	m := &Map{
		slots:  make([]*region, numSlots),
		logger: logr.Discard(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Register maps h onto [start, start+size).
func (m *Map) Register(start, size uint32, h Handler) error {
	if start&0xFFFF != 0 || size&0xFFFF != 0 || size == 0 {
		return errors.Wrapf(ErrAlignment, "start 0x%08X size 0x%X", start, size)
	}

	first := start >> 16
	last := (start + size - 1) >> 16
	for i := first; i <= last; i++ {
		if m.slots[i] != nil {
			return errors.Wrapf(ErrOverlap, "at 0x%08X", i<<16)
		}
	}

	r := &region{base: start, handler: h}
	for i := first; i <= last; i++ {
		m.slots[i] = r
	}

	return nil
}

// Mapped reports whether paddr falls in a registered region.
func (m *Map) Mapped(paddr uint32) bool {
	return m.slots[paddr>>16] != nil
}

// ReadWord reads the aligned word at paddr. Unmapped reads return 0.
func (m *Map) ReadWord(paddr uint32) uint32 {
	r := m.slots[paddr>>16]
	if r == nil {
		m.logger.V(1).Info("read from unmapped address", "paddr", paddr)
		return 0
	}
	return r.handler.ReadWord(paddr&^3 - r.base)
}

// WriteWord writes the bits selected by mask. Unmapped writes are dropped.
func (m *Map) WriteWord(paddr, value, mask uint32) {
	r := m.slots[paddr>>16]
	if r == nil {
		m.logger.V(1).Info("write to unmapped address", "paddr", paddr, "value", value)
		return
	}
	r.handler.WriteWord(paddr&^3-r.base, value, mask)
}

// ReadDword reads a big-endian doubleword as two words.
func (m *Map) ReadDword(paddr uint32) uint64 {
	hi := m.ReadWord(paddr)
	lo := m.ReadWord(paddr + 4)
	return uint64(hi)<<32 | uint64(lo)
}

// WriteDword writes a big-endian doubleword as two words.
func (m *Map) WriteDword(paddr uint32, value uint64) {
	m.WriteWord(paddr, uint32(value>>32), 0xFFFFFFFF)
	m.WriteWord(paddr+4, uint32(value), 0xFFFFFFFF)
}
