package memory_test

import (
	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/r4300/memory"
)

var _ = Describe("Map", func() {
	var (
		m   *memory.Map
		ram *memory.RAM
	)

	BeforeEach(func() {
		m = memory.NewMap()
		ram = memory.NewRAM(0x20000)
		Expect(m.Register(0, ram.Size(), ram)).To(Succeed())
	})

	It("should read and write big-endian words", func() {
		m.WriteWord(0x100, 0x11223344, 0xFFFFFFFF)

		Expect(m.ReadWord(0x100)).To(Equal(uint32(0x11223344)))
		Expect(ram.Bytes()[0x100:0x104]).To(Equal([]byte{0x11, 0x22, 0x33, 0x44}))
	})

	It("should only replace masked bits", func() {
		m.WriteWord(0x100, 0x11223344, 0xFFFFFFFF)
		m.WriteWord(0x100, 0x0000AA00, 0x0000FF00)

		Expect(m.ReadWord(0x100)).To(Equal(uint32(0x1122AA44)))
	})

	It("should split doublewords high word first", func() {
		m.WriteDword(0x200, 0x0102030405060708)

		Expect(m.ReadWord(0x200)).To(Equal(uint32(0x01020304)))
		Expect(m.ReadWord(0x204)).To(Equal(uint32(0x05060708)))
		Expect(m.ReadDword(0x200)).To(Equal(uint64(0x0102030405060708)))
	})

	It("should read zero from unmapped addresses", func() {
		m.WriteWord(0x10000000, 0xFFFFFFFF, 0xFFFFFFFF)
		Expect(m.ReadWord(0x10000000)).To(BeZero())
		Expect(m.Mapped(0x10000000)).To(BeFalse())
		Expect(m.Mapped(0x1FFFC)).To(BeTrue())
	})

	It("should reject overlapping and misaligned regions", func() {
		err := m.Register(0x10000, 0x10000, memory.NewRAM(0x10000))
		Expect(err).To(MatchError(memory.ErrOverlap))

		err = m.Register(0x100000, 0x100, memory.NewRAM(0x100))
		Expect(err).To(MatchError(memory.ErrAlignment))
	})

	It("should keep ROM contents read-only", func() {
		rom := memory.NewROM([]byte{0x80, 0x37, 0x12, 0x40}, logr.Discard())
		Expect(m.Register(0x10000000, rom.Size(), rom)).To(Succeed())

		m.WriteWord(0x10000000, 0, 0xFFFFFFFF)
		Expect(m.ReadWord(0x10000000)).To(Equal(uint32(0x80371240)))
	})

	It("should bound loads into RAM", func() {
		Expect(ram.Load(0x1FFFC, []byte{1, 2, 3, 4})).To(Succeed())
		err := ram.Load(0x1FFFE, []byte{1, 2, 3, 4})
		Expect(err).To(MatchError(memory.ErrOutOfRange))
	})
})
