package tlb_test

import (
	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/r4300/tlb"
)

// oddPage maps virtual [0x80001000, 0x80002000) onto physical 0x1000.
func oddPage(dirty bool) tlb.Entry {
	lo1 := uint32(1<<6 | 0x2)
	if dirty {
		lo1 |= 0x4
	}
	return tlb.FromRegisters(0, lo1, 0x80000000, 0)
}

var _ = Describe("TLB", func() {
	var t *tlb.TLB

	BeforeEach(func() {
		t = tlb.New()
	})

	Describe("Translate", func() {
		It("should translate addresses inside a mapped range", func() {
			Expect(t.Write(0, oddPage(true))).To(Succeed())

			paddr, ok := t.Translate(0x80001500, tlb.Write)
			Expect(ok).To(BeTrue())
			Expect(paddr).To(Equal(uint32(0x00001500)))

			for _, vaddr := range []uint32{0x80001000, 0x80001ABC, 0x80001FFF} {
				paddr, ok := t.Translate(vaddr, tlb.Read)
				Expect(ok).To(BeTrue())
				Expect(paddr).To(Equal(vaddr - 0x80000000))
			}
		})

		It("should miss outside every mapped range", func() {
			Expect(t.Write(0, oddPage(true))).To(Succeed())

			for _, vaddr := range []uint32{0x80003000, 0x80000500, 0x80002000, 0x00001500} {
				paddr, ok := t.Translate(vaddr, tlb.Read)
				Expect(ok).To(BeFalse())
				Expect(paddr).To(BeZero())
			}
			Expect(t.RaisesRefill()).To(BeTrue())
		})

		It("should only map clean pages for reading", func() {
			Expect(t.Write(0, oddPage(false))).To(Succeed())

			_, ok := t.Translate(0x80001500, tlb.Read)
			Expect(ok).To(BeTrue())
			_, ok = t.Translate(0x80001500, tlb.Write)
			Expect(ok).To(BeFalse())
		})

		It("should map both halves of a large page", func() {
			// PFN 4 even, PFN 8 odd, 16 KiB pages.
			e := tlb.FromRegisters(4<<6|0x6, 8<<6|0x6, 0x00400000, 0x6000)
			Expect(t.Write(3, e)).To(Succeed())

			paddr, ok := t.Translate(0x00403FFC, tlb.Read)
			Expect(ok).To(BeTrue())
			Expect(paddr).To(Equal(uint32(0x4000 + 0x3FFC)))

			paddr, ok = t.Translate(0x00404010, tlb.Write)
			Expect(ok).To(BeTrue())
			Expect(paddr).To(Equal(uint32(0x8010)))
		})
	})

	Describe("Write", func() {
		It("should keep another entry's write slot when a clean overlapping entry is rewritten", func() {
			Expect(t.Write(1, oddPage(true))).To(Succeed())
			Expect(t.Write(0, oddPage(false))).To(Succeed())
			Expect(t.Write(0, tlb.FromRegisters(0, 2<<6|0x2, 0x00000000, 0))).To(Succeed())

			paddr, ok := t.Translate(0x80001500, tlb.Write)
			Expect(ok).To(BeTrue())
			Expect(paddr).To(Equal(uint32(0x1500)))
		})

		It("should unmap the previous owner of an index", func() {
			Expect(t.Write(0, oddPage(true))).To(Succeed())
			Expect(t.Write(0, tlb.FromRegisters(0, 2<<6|0x6, 0x00000000, 0))).To(Succeed())

			_, ok := t.Translate(0x80001500, tlb.Read)
			Expect(ok).To(BeFalse())

			paddr, ok := t.Translate(0x00001500, tlb.Read)
			Expect(ok).To(BeTrue())
			Expect(paddr).To(Equal(uint32(0x2500)))
		})

		It("should skip halves inside the kernel hole", func() {
			Expect(t.Write(0, tlb.FromRegisters(0, 1<<6|0x6, 0xA0000000, 0))).To(Succeed())

			_, ok := t.Translate(0xA0001000, tlb.Read)
			Expect(ok).To(BeFalse())
		})

		It("should skip halves above the RAM ceiling", func() {
			pfn := uint32(tlb.RAMCeiling >> 12)
			Expect(t.Write(0, tlb.FromRegisters(0, pfn<<6|0x6, 0x00000000, 0))).To(Succeed())

			_, ok := t.Translate(0x00001000, tlb.Read)
			Expect(ok).To(BeFalse())
		})

		It("should reject an out-of-range index", func() {
			err := t.Write(tlb.NumEntries, oddPage(true))
			Expect(err).To(MatchError(tlb.ErrBadIndex))
		})
	})

	Describe("Unmap and Map", func() {
		It("should restore identical lookup tables", func() {
			Expect(t.Write(5, oddPage(true))).To(Succeed())
			Expect(t.Write(6, tlb.FromRegisters(4<<6|0x6, 8<<6|0x2, 0x00400000, 0x6000))).To(Succeed())
			readBefore, writeBefore := t.Tables()

			Expect(t.Unmap(6)).To(Succeed())
			_, ok := t.Translate(0x00400000, tlb.Read)
			Expect(ok).To(BeFalse())
			Expect(t.Map(6)).To(Succeed())

			readAfter, writeAfter := t.Tables()
			Expect(cmp.Diff(readBefore, readAfter)).To(BeEmpty())
			Expect(cmp.Diff(writeBefore, writeAfter)).To(BeEmpty())
		})

		It("should re-derive the tables from loaded entries", func() {
			Expect(t.Write(1, oddPage(true))).To(Succeed())
			readBefore, writeBefore := t.Tables()

			other := tlb.New()
			other.LoadEntries(t.Entries())

			readAfter, writeAfter := other.Tables()
			Expect(cmp.Diff(readBefore, readAfter)).To(BeEmpty())
			Expect(cmp.Diff(writeBefore, writeAfter)).To(BeEmpty())
		})
	})

	Describe("Registers", func() {
		It("should round-trip the CP0 register images", func() {
			e := tlb.FromRegisters(0x47, 0x87, 0x80000012, 0x6000)

			lo0, lo1, hi, mask := e.Registers()
			Expect(lo0).To(Equal(uint32(0x47)))
			Expect(lo1).To(Equal(uint32(0x87)))
			Expect(hi).To(Equal(uint32(0x80000012)))
			Expect(mask).To(Equal(uint32(0x6000)))

			Expect(e.StartEven).To(Equal(uint32(0x80000000)))
			Expect(e.EndEven).To(Equal(uint32(0x80003FFF)))
			Expect(e.StartOdd).To(Equal(uint32(0x80004000)))
			Expect(e.EndOdd).To(Equal(uint32(0x80007FFF)))
		})
	})

	Describe("Probe", func() {
		It("should match on VPN2 and ASID", func() {
			Expect(t.Write(7, tlb.FromRegisters(0x46, 0x46, 0x00002005, 0))).To(Succeed())

			index, ok := t.Probe(0x00002005)
			Expect(ok).To(BeTrue())
			Expect(index).To(Equal(7))

			_, ok = t.Probe(0x00002006)
			Expect(ok).To(BeFalse())
		})

		It("should ignore the ASID of global entries", func() {
			Expect(t.Write(2, tlb.FromRegisters(0x47, 0x47, 0x00002005, 0))).To(Succeed())

			index, ok := t.Probe(0x000020FF)
			Expect(ok).To(BeTrue())
			Expect(index).To(Equal(2))
		})
	})

	Describe("Compatibility", func() {
		It("should remap the GoldenEye window per region", func() {
			t = tlb.New(tlb.WithCompat(tlb.CompatGoldenEye, tlb.CountryJapan))

			paddr, ok := t.Translate(0x7F000010, tlb.Read)
			Expect(ok).To(BeTrue())
			Expect(paddr).To(Equal(uint32(0x10034B80)))
		})

		It("should default the GoldenEye window to the US base", func() {
			t = tlb.New(tlb.WithCompat(tlb.CompatGoldenEye, 0))

			paddr, ok := t.Translate(0x7F000000, tlb.Write)
			Expect(ok).To(BeTrue())
			Expect(paddr).To(Equal(uint32(0x10034B30)))
		})

		It("should not remap without the flag", func() {
			_, ok := t.Translate(0x7F000010, tlb.Read)
			Expect(ok).To(BeFalse())
		})

		It("should suppress refills for RatAttack", func() {
			t = tlb.New(tlb.WithCompat(tlb.CompatRatAttack, 0))
			Expect(t.RaisesRefill()).To(BeFalse())
		})

		It("should parse compatibility names", func() {
			c, ok := tlb.ParseCompat("goldeneye")
			Expect(ok).To(BeTrue())
			Expect(c.String()).To(Equal("goldeneye"))

			_, ok = tlb.ParseCompat("bogus")
			Expect(ok).To(BeFalse())
		})
	})
})
