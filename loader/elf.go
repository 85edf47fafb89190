// Package loader reads boot images for the R4300i core: big-endian MIPS
// ELF executables and raw cartridge or memory images.
package loader

import (
	"debug/elf"
	"io"

	"github.com/pkg/errors"

	"github.com/sarchlab/r4300/memory"
)

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// Segment represents a loadable segment from an ELF binary.
type Segment struct {
	// VirtAddr is the virtual address where this segment should be loaded.
	VirtAddr uint32
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint32
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// Program represents a loaded program ready for execution.
type Program struct {
	// EntryPoint is the virtual address where execution should begin.
	EntryPoint uint32
	// Segments contains all loadable segments.
	Segments []Segment
}

// Load parses a big-endian 32-bit MIPS ELF executable.
func Load(path string) (*Program, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open ELF file")
	}
	defer func() { _ = f.Close() }()

	if f.Class != elf.ELFCLASS32 {
		return nil, errors.New("not a 32-bit ELF file")
	}
	if f.Machine != elf.EM_MIPS {
		return nil, errors.Errorf("not a MIPS ELF file (machine type: %v)", f.Machine)
	}
	if f.Data != elf.ELFDATA2MSB {
		return nil, errors.New("not a big-endian ELF file")
	}

	prog := &Program{
		EntryPoint: uint32(f.Entry),
	}

	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return nil, errors.Wrapf(err, "failed to read segment at 0x%x", phdr.Vaddr)
			}
			if uint64(n) != phdr.Filesz {
				return nil, errors.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
					phdr.Vaddr, n, phdr.Filesz)
			}
		}

		var flags SegmentFlags
		if phdr.Flags&elf.PF_X != 0 {
			flags |= SegmentFlagExecute
		}
		if phdr.Flags&elf.PF_W != 0 {
			flags |= SegmentFlagWrite
		}
		if phdr.Flags&elf.PF_R != 0 {
			flags |= SegmentFlagRead
		}

		prog.Segments = append(prog.Segments, Segment{
			VirtAddr: uint32(phdr.Vaddr),
			Data:     data,
			MemSize:  uint32(phdr.Memsz),
			Flags:    flags,
		})
	}

	return prog, nil
}

// ErrMappedSegment is returned by Install for a segment outside the
// directly mapped kernel segments.
var ErrMappedSegment = errors.New("loader: segment needs address translation")

// Install copies every segment into physical memory. Segments must lie in
// kseg0 or kseg1. The BSS part of a segment is zeroed.
func (p *Program) Install(bus memory.Bus) error {
	for _, seg := range p.Segments {
		if seg.VirtAddr < 0x80000000 || seg.VirtAddr >= 0xC0000000 {
			return errors.Wrapf(ErrMappedSegment, "segment at 0x%08X", seg.VirtAddr)
		}
		paddr := seg.VirtAddr & 0x1FFFFFFF
		size := seg.MemSize
		if uint32(len(seg.Data)) > size {
			size = uint32(len(seg.Data))
		}
		image := make([]byte, size)
		copy(image, seg.Data)
		writeBytes(bus, paddr, image)
	}
	return nil
}

// writeBytes stores data at paddr through the bus word interface.
func writeBytes(bus memory.Bus, paddr uint32, data []byte) {
	for i, b := range data {
		addr := paddr + uint32(i)
		shift := 8 * (3 - addr&3)
		bus.WriteWord(addr&^3, uint32(b)<<shift, 0xFF<<shift)
	}
}
