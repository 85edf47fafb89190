package loader_test

import (
	"encoding/binary"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/r4300/loader"
	"github.com/sarchlab/r4300/memory"
)

type segmentSpec struct {
	vaddr   uint32
	data    []byte
	memSize uint32
	flags   uint32
}

var _ = Describe("ELF Loader", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "elf-loader-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	code := []byte{
		0x24, 0x02, 0x00, 0x2A, // addiu v0, zero, 42
		0x03, 0xE0, 0x00, 0x08, // jr ra
	}

	Describe("Load", func() {
		Context("with a valid MIPS ELF binary", func() {
			var elfPath string

			BeforeEach(func() {
				elfPath = filepath.Join(tempDir, "test.elf")
				createMIPSELF(elfPath, 0x80000400, segmentSpec{
					vaddr: 0x80000400, data: code, memSize: uint32(len(code)), flags: 0x5,
				})
			})

			It("should extract the entry point", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.EntryPoint).To(Equal(uint32(0x80000400)))
			})

			It("should load the segment contents and flags", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.Segments).To(HaveLen(1))

				seg := prog.Segments[0]
				Expect(seg.VirtAddr).To(Equal(uint32(0x80000400)))
				Expect(seg.Data).To(Equal(code))
				Expect(seg.Flags & loader.SegmentFlagExecute).NotTo(BeZero())
				Expect(seg.Flags & loader.SegmentFlagRead).NotTo(BeZero())
			})

			It("should install the code big-endian", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())

				bus := newBus()
				Expect(prog.Install(bus)).To(Succeed())

				Expect(bus.ReadWord(0x400)).To(Equal(uint32(0x2402002A)))
				Expect(bus.ReadWord(0x404)).To(Equal(uint32(0x03E00008)))
			})
		})

		It("should zero the BSS part of a segment", func() {
			elfPath := filepath.Join(tempDir, "bss.elf")
			createMIPSELF(elfPath, 0x80000400, segmentSpec{
				vaddr: 0x80000800, data: []byte{1, 2, 3, 4}, memSize: 64, flags: 0x6,
			})
			bus := newBus()
			bus.WriteWord(0x804, 0xFFFFFFFF, 0xFFFFFFFF)

			prog, err := loader.Load(elfPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments[0].MemSize).To(Equal(uint32(64)))
			Expect(prog.Install(bus)).To(Succeed())

			Expect(bus.ReadWord(0x800)).To(Equal(uint32(0x01020304)))
			Expect(bus.ReadWord(0x804)).To(BeZero())
		})

		It("should load multiple segments", func() {
			elfPath := filepath.Join(tempDir, "multi.elf")
			createMIPSELF(elfPath, 0x80000400,
				segmentSpec{vaddr: 0x80000400, data: code, memSize: 8, flags: 0x5},
				segmentSpec{vaddr: 0xA0001000, data: []byte{9, 9}, memSize: 2, flags: 0x6},
			)

			prog, err := loader.Load(elfPath)

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments).To(HaveLen(2))
			Expect(prog.Segments[1].Flags & loader.SegmentFlagWrite).NotTo(BeZero())
		})

		It("should refuse to install a segment needing the TLB", func() {
			elfPath := filepath.Join(tempDir, "user.elf")
			createMIPSELF(elfPath, 0x00400000, segmentSpec{
				vaddr: 0x00400000, data: code, memSize: 8, flags: 0x5,
			})

			prog, err := loader.Load(elfPath)
			Expect(err).NotTo(HaveOccurred())

			Expect(prog.Install(newBus())).To(MatchError(loader.ErrMappedSegment))
		})

		Context("with an invalid file", func() {
			It("should return error for non-existent file", func() {
				_, err := loader.Load("/nonexistent/path/to/file.elf")
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("failed to open"))
			})

			It("should return error for non-ELF file", func() {
				notElfPath := filepath.Join(tempDir, "not-elf.bin")
				Expect(os.WriteFile(notElfPath, []byte("not an elf file"), 0644)).To(Succeed())

				_, err := loader.Load(notElfPath)
				Expect(err).To(HaveOccurred())
			})

			It("should reject a 64-bit ELF", func() {
				elfPath := filepath.Join(tempDir, "elf64.elf")
				header := make([]byte, 64)
				copy(header, []byte{0x7f, 'E', 'L', 'F', 2, 2, 1})
				binary.BigEndian.PutUint16(header[16:], 2)
				binary.BigEndian.PutUint16(header[18:], 8)
				binary.BigEndian.PutUint32(header[20:], 1)
				binary.BigEndian.PutUint16(header[52:], 64)
				Expect(os.WriteFile(elfPath, header, 0644)).To(Succeed())

				_, err := loader.Load(elfPath)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("not a 32-bit"))
			})

			It("should reject another machine type", func() {
				elfPath := filepath.Join(tempDir, "arm.elf")
				writeELF32(elfPath, 40, 0, nil)

				_, err := loader.Load(elfPath)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("not a MIPS"))
			})
		})
	})
})

func newBus() *memory.Map {
	bus := memory.NewMap()
	ram := memory.NewRAM(0x10000)
	Expect(bus.Register(0, ram.Size(), ram)).To(Succeed())
	return bus
}

// createMIPSELF writes a big-endian ELF32 MIPS executable.
func createMIPSELF(path string, entry uint32, segs ...segmentSpec) {
	writeELF32(path, 8, entry, segs)
}

func writeELF32(path string, machine uint16, entry uint32, segs []segmentSpec) {
	const (
		ehSize = 52
		phSize = 32
	)
	be := binary.BigEndian

	header := make([]byte, ehSize)
	copy(header, []byte{0x7f, 'E', 'L', 'F', 1, 2, 1})
	be.PutUint16(header[16:], 2)
	be.PutUint16(header[18:], machine)
	be.PutUint32(header[20:], 1)
	be.PutUint32(header[24:], entry)
	be.PutUint32(header[28:], ehSize)
	be.PutUint16(header[40:], ehSize)
	be.PutUint16(header[42:], phSize)
	be.PutUint16(header[44:], uint16(len(segs)))
	be.PutUint16(header[46:], 40)

	offset := uint32(ehSize + phSize*len(segs))
	var phdrs, payload []byte
	for _, s := range segs {
		ph := make([]byte, phSize)
		be.PutUint32(ph[0:], 1)
		be.PutUint32(ph[4:], offset)
		be.PutUint32(ph[8:], s.vaddr)
		be.PutUint32(ph[12:], s.vaddr)
		be.PutUint32(ph[16:], uint32(len(s.data)))
		be.PutUint32(ph[20:], s.memSize)
		be.PutUint32(ph[24:], s.flags)
		be.PutUint32(ph[28:], 4)
		phdrs = append(phdrs, ph...)
		payload = append(payload, s.data...)
		offset += uint32(len(s.data))
	}

	file := append(append(header, phdrs...), payload...)
	Expect(os.WriteFile(path, file, 0644)).To(Succeed())
}
