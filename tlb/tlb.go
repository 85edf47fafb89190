// Package tlb implements the R4300i software TLB and its per-page lookup
// tables.
package tlb

import (
	"github.com/go-logr/logr"
	"github.com/pkg/errors"
)

const (
	// NumEntries is the number of TLB entries.
	NumEntries = 32

	// PageSize is the granularity of the fast lookup tables.
	PageSize = 0x1000

	// RAMCeiling is the first physical address that is never mapped.
	RAMCeiling = 0x20000000

	numPages = 1 << 20

	holeStart = 0xA0000000
	holeEnd   = 0xC0000000
)

// ErrBadIndex is returned for an entry index outside [0, NumEntries).
var ErrBadIndex = errors.New("tlb: entry index out of range")

// Kind selects the lookup table used by a translation.
type Kind uint8

// Access kinds.
const (
	Read Kind = iota
	Write
)

// TLB is the 32-entry translation lookaside buffer plus the read and write
// lookup tables derived from it.
type TLB struct {
	entries [NumEntries]Entry

	// Each slot holds the physical page with bit 0 as the valid flag.
	lutR []uint32
	lutW []uint32

	compat  Compat
	country byte

	logger logr.Logger
}

// Option configures a TLB.
type Option func(*TLB)

// WithCompat enables a per-title compatibility branch. The country code is
// the cartridge header's region byte.
func WithCompat(c Compat, country byte) Option {
	return func(t *TLB) {
		t.compat = c
		t.country = country
	}
}

// WithLogger sets the logger.
func WithLogger(l logr.Logger) Option {
	return func(t *TLB) {
		t.logger = l
	}
}

// New creates an empty TLB.
func New(opts ...Option) *TLB {
	t := &TLB{
		lutR:   make([]uint32, numPages),
		lutW:   make([]uint32, numPages),
		logger: logr.Discard(),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Compat returns the active compatibility flag.
func (t *TLB) Compat() Compat {
	return t.compat
}

// Reset clears all entries and both lookup tables.
func (t *TLB) Reset() {
	t.entries = [NumEntries]Entry{}
	clear(t.lutR)
	clear(t.lutW)
}

// Entry returns a copy of the entry at index.
func (t *TLB) Entry(index int) (Entry, error) {
	if index < 0 || index >= NumEntries {
		return Entry{}, errors.Wrapf(ErrBadIndex, "index %d", index)
	}
	return t.entries[index], nil
}

// Entries returns a copy of all entries.
func (t *TLB) Entries() [NumEntries]Entry {
	return t.entries
}

// LoadEntries replaces every entry and re-derives the lookup tables.
func (t *TLB) LoadEntries(entries [NumEntries]Entry) {
	t.entries = entries
	t.Rebuild()
}

// Rebuild re-derives both lookup tables from the stored entries. The
// entries' virtual ranges are used as stored.
func (t *TLB) Rebuild() {
	clear(t.lutR)
	clear(t.lutW)
	for i := range t.entries {
		t.mapEntry(i)
	}
}

// Write replaces the entry at index. The pages owned by the old entry are
// unmapped first, then the new entry's halves are mapped.
func (t *TLB) Write(index int, e Entry) error {
	if index < 0 || index >= NumEntries {
		return errors.Wrapf(ErrBadIndex, "index %d", index)
	}

	t.unmapEntry(index)
	e.derive()
	t.entries[index] = e
	t.mapEntry(index)

	return nil
}

// Map populates the lookup tables from the entry at index.
func (t *TLB) Map(index int) error {
	if index < 0 || index >= NumEntries {
		return errors.Wrapf(ErrBadIndex, "index %d", index)
	}
	t.mapEntry(index)
	return nil
}

// Unmap clears the lookup-table slots populated by the entry at index.
func (t *TLB) Unmap(index int) error {
	if index < 0 || index >= NumEntries {
		return errors.Wrapf(ErrBadIndex, "index %d", index)
	}
	t.unmapEntry(index)
	return nil
}

func (t *TLB) mapEntry(index int) {
	e := &t.entries[index]
	t.mapHalf(index, e.Even, e.StartEven, e.EndEven)
	t.mapHalf(index, e.Odd, e.StartOdd, e.EndOdd)
}

func (t *TLB) unmapEntry(index int) {
	e := &t.entries[index]
	t.unmapHalf(e.Even, e.StartEven, e.EndEven)
	t.unmapHalf(e.Odd, e.StartOdd, e.EndOdd)
}

func mappable(h Half, start, end uint32) bool {
	if !h.Valid || start >= end {
		return false
	}
	if start >= holeStart && end < holeEnd {
		return false
	}
	return h.Phys() < RAMCeiling
}

func (t *TLB) mapHalf(index int, h Half, start, end uint32) {
	if !mappable(h, start, end) {
		if h.Valid {
			t.logger.V(2).Info("tlb half not mapped",
				"index", index, "start", start, "end", end, "phys", h.Phys())
		}
		return
	}

	phys := h.Phys()
	for page := start >> 12; page <= end>>12; page++ {
		slot := (phys + (page<<12 - start)) | 1
		t.lutR[page] = slot
		if h.Dirty {
			t.lutW[page] = slot
		}
	}
}

func (t *TLB) unmapHalf(h Half, start, end uint32) {
	if !mappable(h, start, end) {
		return
	}

	for page := start >> 12; page <= end>>12; page++ {
		t.lutR[page] = 0
		if h.Dirty {
			t.lutW[page] = 0
		}
	}
}

// Translate converts a virtual address into a physical one using the
// lookup table selected by kind. ok is false on a miss, in which case the
// returned address is 0 and must not be used.
func (t *TLB) Translate(vaddr uint32, kind Kind) (paddr uint32, ok bool) {
	if t.compat == CompatGoldenEye && vaddr >= 0x7F000000 && vaddr < 0x80000000 {
		return goldenEyeAddress(t.country, vaddr), true
	}

	lut := t.lutR
	if kind == Write {
		lut = t.lutW
	}

	slot := lut[vaddr>>12]
	if slot&1 == 0 {
		return 0, false
	}

	return slot&^0xFFF | vaddr&0xFFF, true
}

// RaisesRefill reports whether a translation miss should raise a TLB
// refill exception.
func (t *TLB) RaisesRefill() bool {
	return t.compat != CompatRatAttack
}

// Probe returns the index of the entry matching entryHi, as TLBP does.
func (t *TLB) Probe(entryHi uint32) (int, bool) {
	for i := range t.entries {
		e := &t.entries[i]
		mask := uint32(e.Mask) << 13
		if e.VPN2<<13&^mask != entryHi&0xFFFFE000&^mask {
			continue
		}
		if e.Global || e.ASID == uint8(entryHi) {
			return i, true
		}
	}
	return 0, false
}

// Tables returns copies of the read and write lookup tables.
func (t *TLB) Tables() (read, write []uint32) {
	read = append([]uint32(nil), t.lutR...)
	write = append([]uint32(nil), t.lutW...)
	return read, write
}

// Covers reports whether any entry's virtual range contains vaddr, valid or
// not. A miss on a covered address is a TLB-invalid rather than a refill.
func (t *TLB) Covers(vaddr uint32) bool {
	for i := range t.entries {
		e := &t.entries[i]
		if e.StartEven < e.EndOdd && vaddr >= e.StartEven && vaddr <= e.EndOdd {
			return true
		}
	}
	return false
}
