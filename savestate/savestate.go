// Package savestate captures and restores the architectural state of a
// core, and packs it into a byte-exact big-endian form.
package savestate

import (
	"io"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"

	"github.com/sarchlab/r4300/cp0"
	"github.com/sarchlab/r4300/cp1"
	"github.com/sarchlab/r4300/emu"
	"github.com/sarchlab/r4300/tlb"
)

// Format identification.
const (
	Magic   = "R43S"
	Version = 1
)

// endOfEvents terminates the event list.
const endOfEvents uint32 = 0xFFFFFFFF

var (
	// ErrBadMagic is returned when decoding data that is not a snapshot.
	ErrBadMagic = errors.New("savestate: bad magic")

	// ErrVersion is returned for a snapshot written by an unknown version.
	ErrVersion = errors.New("savestate: unsupported version")
)

// Snapshot is the architectural state of a core.
type Snapshot struct {
	Magic   string `struc:"[4]byte"`
	Version uint32

	PC    uint32
	LLBit uint8
	GPR   [32]uint64
	Hi    uint64
	Lo    uint64

	CP0 [cp0.NumRegs]uint32

	// FPR holds the 64-bit FPU slots as stored in the current register
	// view.
	FPR   [cp1.NumRegs]uint64
	FCR0  uint32
	FCR31 uint32

	CP2 uint64

	// TLB holds EntryLo0, EntryLo1, EntryHi and PageMask of every entry.
	TLB [tlb.NumEntries * 4]uint32

	Events []cp0.Event `struc:"skip"`
}

type word struct {
	V uint32
}

// Capture reads the state of c. Count is sampled at the current PC first.
func Capture(c *emu.Core) *Snapshot {
	c.Count()

	s := &Snapshot{
		Magic:   Magic,
		Version: Version,
		PC:      c.PC(),
		GPR:     *c.Layout().GPR(),
		Hi:      c.Hi(),
		Lo:      c.Lo(),
		CP0:     *c.CP0().Regs(),
		FCR0:    cp1.FCR0,
		FCR31:   c.FPU().FCR31(),
		CP2:     c.CP2().Latch(),
		Events:  c.CP0().Queue().Events(),
	}
	if c.LLBit() {
		s.LLBit = 1
	}

	bank := c.FPU().Bank()
	order := c.FPU().ByteOrder()
	for i := range s.FPR {
		s.FPR[i] = order.Uint64(bank[8*i:])
	}

	entries := c.TLB().Entries()
	for i, e := range entries {
		lo0, lo1, hi, mask := e.Registers()
		copy(s.TLB[4*i:], []uint32{lo0, lo1, hi, mask})
	}

	return s
}

// Restore loads s into c. The TLB lookup tables are re-derived and all
// cached code is dropped.
func Restore(c *emu.Core, s *Snapshot) error {
	if err := s.check(); err != nil {
		return err
	}

	*c.Layout().GPR() = s.GPR
	c.Layout().GPR()[0] = 0
	c.SetHiLo(s.Hi, s.Lo)
	c.SetLLBit(s.LLBit != 0)
	*c.CP0().Regs() = s.CP0
	c.CP0().DropFrames()

	bank := c.FPU().Bank()
	order := c.FPU().ByteOrder()
	for i, v := range s.FPR {
		order.PutUint64(bank[8*i:], v)
	}
	c.FPU().SetFCR31(s.FCR31)
	c.FPU().SyncMode(s.CP0[cp0.Status])
	c.CP2().MTC2(s.CP2)

	var entries [tlb.NumEntries]tlb.Entry
	for i := range entries {
		r := s.TLB[4*i : 4*i+4]
		entries[i] = tlb.FromRegisters(r[0], r[1], r[2], r[3])
	}
	c.TLB().LoadEntries(entries)

	if err := c.CP0().Queue().Load(s.CP0[cp0.Count], s.Events); err != nil {
		return errors.Wrap(err, "failed to restore interrupt queue")
	}

	c.SetPC(s.PC)
	return nil
}

func (s *Snapshot) check() error {
	if s.Magic != Magic {
		return errors.Wrapf(ErrBadMagic, "%q", s.Magic)
	}
	if s.Version != Version {
		return errors.Wrapf(ErrVersion, "version %d", s.Version)
	}
	return nil
}

// Encode writes s to w. The fixed part is followed by the event list,
// each event as type and Count, terminated by 0xFFFFFFFF.
func Encode(w io.Writer, s *Snapshot) error {
	if err := struc.Pack(w, s); err != nil {
		return errors.Wrap(err, "failed to pack snapshot")
	}
	for _, e := range s.Events {
		if err := struc.Pack(w, &word{uint32(e.Type)}); err != nil {
			return errors.Wrap(err, "failed to pack event")
		}
		if err := struc.Pack(w, &word{e.Count}); err != nil {
			return errors.Wrap(err, "failed to pack event")
		}
	}
	if err := struc.Pack(w, &word{endOfEvents}); err != nil {
		return errors.Wrap(err, "failed to pack event terminator")
	}
	return nil
}

// Decode reads a snapshot written by Encode.
func Decode(r io.Reader) (*Snapshot, error) {
	s := &Snapshot{}
	if err := struc.Unpack(r, s); err != nil {
		return nil, errors.Wrap(err, "failed to unpack snapshot")
	}
	if err := s.check(); err != nil {
		return nil, err
	}

	for {
		var typ, count word
		if err := struc.Unpack(r, &typ); err != nil {
			return nil, errors.Wrap(err, "failed to unpack event")
		}
		if typ.V == endOfEvents {
			break
		}
		if len(s.Events) == cp0.QueueCapacity {
			return nil, errors.Wrapf(cp0.ErrQueueFull, "more than %d events", cp0.QueueCapacity)
		}
		if err := struc.Unpack(r, &count); err != nil {
			return nil, errors.Wrap(err, "failed to unpack event")
		}
		s.Events = append(s.Events, cp0.Event{Type: cp0.EventType(typ.V), Count: count.V})
	}

	return s, nil
}
