package tlb

// Half is one of the two physical pages an entry maps.
type Half struct {
	PFN   uint32
	Cache uint8
	Dirty bool
	Valid bool
}

// Phys returns the physical base address of the half.
func (h Half) Phys() uint32 {
	return h.PFN << 12
}

// Entry is one TLB entry. The Start/End fields are derived from VPN2 and
// Mask and are inclusive.
type Entry struct {
	Mask   uint16
	VPN2   uint32
	Global bool
	ASID   uint8

	Even Half
	Odd  Half

	StartEven uint32
	EndEven   uint32
	StartOdd  uint32
	EndOdd    uint32
}

func (e *Entry) derive() {
	span := uint32(e.Mask)<<12 + 0xFFF

	e.StartEven = e.VPN2 << 13
	e.EndEven = e.StartEven + span
	e.StartOdd = e.EndEven + 1
	e.EndOdd = e.StartOdd + span
}

func halfFromEntryLo(lo uint32) Half {
	return Half{
		PFN:   (lo & 0x3FFFFFC0) >> 6,
		Cache: uint8((lo & 0x38) >> 3),
		Dirty: lo&0x4 != 0,
		Valid: lo&0x2 != 0,
	}
}

func (h Half) entryLo(global bool) uint32 {
	lo := h.PFN<<6 | uint32(h.Cache)<<3
	if h.Dirty {
		lo |= 0x4
	}
	if h.Valid {
		lo |= 0x2
	}
	if global {
		lo |= 0x1
	}
	return lo
}

// FromRegisters builds an entry from the CP0 EntryLo0, EntryLo1, EntryHi and
// PageMask registers, as TLBWI and TLBWR do.
func FromRegisters(entryLo0, entryLo1, entryHi, pageMask uint32) Entry {
	e := Entry{
		Mask:   uint16((pageMask & 0x01FFE000) >> 13),
		VPN2:   (entryHi & 0xFFFFE000) >> 13,
		Global: entryLo0&entryLo1&1 != 0,
		ASID:   uint8(entryHi),
		Even:   halfFromEntryLo(entryLo0),
		Odd:    halfFromEntryLo(entryLo1),
	}
	e.derive()
	return e
}

// Registers returns the CP0 register images of the entry, as TLBR loads them.
func (e Entry) Registers() (entryLo0, entryLo1, entryHi, pageMask uint32) {
	entryLo0 = e.Even.entryLo(e.Global)
	entryLo1 = e.Odd.entryLo(e.Global)
	entryHi = e.VPN2<<13 | uint32(e.ASID)
	pageMask = uint32(e.Mask) << 13
	return entryLo0, entryLo1, entryHi, pageMask
}
