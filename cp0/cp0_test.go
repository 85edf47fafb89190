package cp0_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/r4300/cp0"
	"github.com/sarchlab/r4300/tlb"
)

var _ = Describe("CP0", func() {
	var (
		regs cp0.Registers
		t    *tlb.TLB
		c    *cp0.CP0
	)

	BeforeEach(func() {
		regs = cp0.Registers{}
		t = tlb.New()
		c = cp0.New(&regs, t, cp0.WithCountPerOp(2))
		c.PowerOn(0xA4000040)
	})

	Describe("PowerOn", func() {
		It("should load the reset values", func() {
			Expect(regs[cp0.Random]).To(Equal(uint32(31)))
			Expect(regs[cp0.Status]).To(Equal(uint32(0x34000000)))
			Expect(regs[cp0.Config]).To(Equal(uint32(0x6E463)))
			Expect(regs[cp0.PRevID]).To(Equal(uint32(0xB00)))
			Expect(regs[cp0.Count]).To(Equal(uint32(0x5000)))
			Expect(regs[cp0.Cause]).To(Equal(uint32(0x5C)))
			Expect(regs[cp0.Context]).To(Equal(uint32(0x7FFFF0)))
			Expect(regs[cp0.EPC]).To(Equal(uint32(0xFFFFFFFF)))
			Expect(regs[cp0.BadVAddr]).To(Equal(uint32(0xFFFFFFFF)))
			Expect(regs[cp0.ErrorEPC]).To(Equal(uint32(0xFFFFFFFF)))
			Expect(c.LastAddr()).To(Equal(uint32(0xA4000040)))
			Expect(c.Queue().Len()).To(BeZero())
		})
	})

	Describe("Count", func() {
		It("should queue COMPARE after it fired", func() {
			regs[cp0.Compare] = 0x6000
			Expect(c.ScheduleCompare()).To(Succeed())

			e, ok := c.Queue().Get(cp0.EventCompare)
			Expect(ok).To(BeTrue())
			Expect(e.Count).To(Equal(uint32(0x6000)))
		})

		It("should report a COMPARE that cannot be queued", func() {
			regs[cp0.Compare] = 0x6000
			Expect(c.ScheduleCompare()).To(Succeed())
			Expect(c.ScheduleCompare()).To(MatchError(cp0.ErrDuplicateEvent))
		})

		It("should advance lazily from the PC delta", func() {
			c.UpdateCount(0xA4000040 + 4*10)
			Expect(c.Count()).To(Equal(uint32(0x5000 + 2*10)))

			c.UpdateCount(0xA4000040 + 4*15)
			Expect(c.Count()).To(Equal(uint32(0x5000 + 2*15)))
		})

		It("should update Count on MFC0 Count", func() {
			Expect(c.Read(cp0.Count, 0xA4000048)).To(Equal(uint32(0x5004)))
		})

		It("should keep Random within [Wired, 31]", func() {
			c.Write(cp0.Wired, 10, 0xA4000040)
			Expect(regs[cp0.Random]).To(Equal(uint32(31)))

			for i := uint32(0); i < 200; i++ {
				r := c.Read(cp0.Random, 0xA4000040+4*i)
				Expect(r).To(BeNumerically(">=", 10))
				Expect(r).To(BeNumerically("<=", 31))
			}
		})

		It("should clamp Random when Wired is out of range", func() {
			c.Write(cp0.Wired, 40, 0xA4000040)
			Expect(c.RandomIndex()).To(Equal(uint32(31)))
		})
	})

	Describe("MTC0", func() {
		DescribeTable("register write masks",
			func(reg int, value, expected uint32) {
				c.Write(reg, value, 0xA4000040)
				Expect(regs[reg]).To(Equal(expected))
			},
			Entry("Index", cp0.Index, uint32(0xFFFFFFFF), uint32(0x8000003F)),
			Entry("EntryLo0", cp0.EntryLo0, uint32(0xFFFFFFFF), uint32(0x3FFFFFFF)),
			Entry("PageMask", cp0.PageMask, uint32(0xFFFFFFFF), uint32(0x01FFE000)),
			Entry("EntryHi", cp0.EntryHi, uint32(0xFFFFFFFF), uint32(0xFFFFE0FF)),
			Entry("Context", cp0.Context, uint32(0xFFFFFFFF), uint32(0xFFFFFFF0)),
			Entry("TagLo", cp0.TagLo, uint32(0xFFFFFFFF), uint32(0x0FFFFFC0)),
			Entry("TagHi", cp0.TagHi, uint32(0xFFFFFFFF), uint32(0)),
			Entry("PRevID is read-only", cp0.PRevID, uint32(0x1234), uint32(0xB00)),
		)

		It("should only let software set IP0 and IP1 in Cause", func() {
			c.Write(cp0.Cause, 0xFFFFFFFF, 0xA4000040)
			Expect(regs[cp0.Cause]).To(Equal(uint32(0x5C | 0x300)))
		})

		It("should ignore unimplemented registers", func() {
			before := regs
			c.Write(7, 0x1234, 0xA4000040)
			Expect(regs).To(Equal(before))
		})

		It("should reschedule COMPARE and clear IP7", func() {
			regs[cp0.Cause] |= cp0.CauseIP7
			c.Write(cp0.Compare, 0x6000, 0xA4000040)

			e, ok := c.Queue().Get(cp0.EventCompare)
			Expect(ok).To(BeTrue())
			Expect(e.Count).To(Equal(uint32(0x6000)))
			Expect(regs[cp0.Cause] & cp0.CauseIP7).To(BeZero())

			c.Write(cp0.Compare, 0x7000, 0xA4000040)
			Expect(c.Queue().Len()).To(Equal(1))
		})

		It("should rebase device events when Count is written", func() {
			Expect(c.Queue().Schedule(regs[cp0.Count], cp0.EventSI, 0x40)).To(Succeed())
			c.Write(cp0.Compare, 0x5100, 0xA4000040)
			c.Write(cp0.Count, 0x100, 0xA4000040)

			si, ok := c.Queue().Get(cp0.EventSI)
			Expect(ok).To(BeTrue())
			Expect(si.Count).To(Equal(uint32(0x140)))
			Expect(c.Count()).To(Equal(uint32(0x100)))
		})

		It("should keep COMPARE at the Compare value when Count is written", func() {
			c.Write(cp0.Compare, 0x5100, 0xA4000040)
			c.Write(cp0.Count, 0x100, 0xA4000040)

			e, ok := c.Queue().Get(cp0.EventCompare)
			Expect(ok).To(BeTrue())
			Expect(e.Count).To(Equal(uint32(0x5100)))
			Expect(c.Queue().Len()).To(Equal(1))
		})

		It("should fire COMPARE when Count reaches Compare after a Count write", func() {
			c.Write(cp0.Compare, 0x6000, 0xA4000040)
			c.Write(cp0.Count, 0x5F00, 0xA4000040)

			until, ok := c.Queue().Until(c.Count())
			Expect(ok).To(BeTrue())
			Expect(until).To(Equal(uint64(0x100)))
		})

		It("should not queue COMPARE on a Count write when none was pending", func() {
			c.Write(cp0.Count, 0x100, 0xA4000040)

			_, ok := c.Queue().Get(cp0.EventCompare)
			Expect(ok).To(BeFalse())
		})

		It("should report Status writes and pending interrupts", func() {
			regs[cp0.Cause] |= cp0.CauseIP2
			old, effects := c.Write(cp0.Status, 0x34000401, 0xA4000040)

			Expect(old).To(Equal(uint32(0x34000000)))
			Expect(effects & cp0.EffectStatus).ToNot(BeZero())
			Expect(effects & cp0.EffectInterrupt).ToNot(BeZero())

			head, ok := c.Queue().Next()
			Expect(ok).To(BeTrue())
			Expect(head.Type).To(Equal(cp0.EventCheck))
		})
	})

	Describe("Exceptions", func() {
		It("should enter the general vector", func() {
			vector := c.Exception(0x80001000, false, cp0.ExcSys)

			Expect(vector).To(Equal(uint32(0x80000180)))
			Expect(regs[cp0.EPC]).To(Equal(uint32(0x80001000)))
			Expect(regs[cp0.Cause] & cp0.CauseExcCode).To(Equal(uint32(cp0.ExcSys) << 2))
			Expect(regs[cp0.Cause] & cp0.CauseBD).To(BeZero())
			Expect(regs[cp0.Status] & cp0.StatusEXL).ToNot(BeZero())
			Expect(c.ExceptionDepth()).To(Equal(1))
		})

		It("should point EPC at the branch for a delay slot", func() {
			c.Exception(0x80001004, true, cp0.ExcOv)

			Expect(regs[cp0.EPC]).To(Equal(uint32(0x80001000)))
			Expect(regs[cp0.Cause] & cp0.CauseBD).ToNot(BeZero())
		})

		It("should use the boot vectors when BEV is set", func() {
			regs[cp0.Status] |= cp0.StatusBEV
			Expect(c.Exception(0x80001000, false, cp0.ExcBp)).To(Equal(uint32(0xBFC00380)))
		})

		It("should use the refill vector for an uncovered miss", func() {
			vector := c.TLBRefill(0x80001000, false, 0x00403000, tlb.Write)

			Expect(vector).To(Equal(uint32(0x80000000)))
			Expect(regs[cp0.BadVAddr]).To(Equal(uint32(0x00403000)))
			Expect(regs[cp0.EntryHi]).To(Equal(uint32(0x00402000)))
			Expect(regs[cp0.Cause] & cp0.CauseExcCode).To(Equal(uint32(cp0.ExcTLBS) << 2))
		})

		It("should use the general vector for a nested miss", func() {
			regs[cp0.Status] |= cp0.StatusEXL
			Expect(c.TLBRefill(0x80001000, false, 0x00403000, tlb.Read)).To(Equal(uint32(0x80000180)))
		})

		It("should signal a coprocessor-unusable exception for CP1", func() {
			c.CoprocessorUnusable(0x80001000, false)

			Expect(regs[cp0.Cause] & cp0.CauseCE1).ToNot(BeZero())
			Expect(regs[cp0.Cause] & cp0.CauseExcCode).To(Equal(uint32(cp0.ExcCpU) << 2))
		})

		It("should return to EPC and restore nested state on ERET", func() {
			c.Exception(0x80001000, false, cp0.ExcSys)
			c.Exception(0x80000190, false, cp0.ExcBp)
			Expect(c.ExceptionDepth()).To(Equal(2))

			Expect(c.ERET(0x80000200)).To(Equal(uint32(0x80000190)))
			Expect(regs[cp0.EPC]).To(Equal(uint32(0x80001000)))
			Expect(regs[cp0.Status] & cp0.StatusEXL).To(BeZero())

			regs[cp0.Status] |= cp0.StatusEXL
			Expect(c.ERET(0x80000200)).To(Equal(uint32(0x80001000)))
			Expect(c.ExceptionDepth()).To(BeZero())
		})

		It("should prefer ErrorEPC when ERL is set", func() {
			regs[cp0.Status] |= cp0.StatusERL
			regs[cp0.ErrorEPC] = 0xA4000040
			Expect(c.ERET(0x80000200)).To(Equal(uint32(0xA4000040)))
			Expect(regs[cp0.Status] & cp0.StatusERL).To(BeZero())
		})

		It("should bound the nested-exception stack", func() {
			for i := 0; i < cp0.MaxExceptionDepth+3; i++ {
				c.Exception(0x80001000+uint32(4*i), false, cp0.ExcSys)
			}
			Expect(c.ExceptionDepth()).To(Equal(cp0.MaxExceptionDepth))
		})

		It("should only take enabled maskable interrupts", func() {
			Expect(c.RaiseMaskable(cp0.CauseIP7)).To(BeFalse())
			Expect(regs[cp0.Cause] & cp0.CauseIP7).ToNot(BeZero())

			regs[cp0.Status] = cp0.StatusIE | cp0.CauseIP7
			Expect(c.RaiseMaskable(cp0.CauseIP7)).To(BeTrue())

			regs[cp0.Status] |= cp0.StatusEXL
			Expect(c.RaiseMaskable(cp0.CauseIP7)).To(BeFalse())
		})
	})

	Describe("TLB operations", func() {
		BeforeEach(func() {
			regs[cp0.EntryLo0] = 0x47
			regs[cp0.EntryLo1] = 0x87
			regs[cp0.EntryHi] = 0x00400012
			regs[cp0.PageMask] = 0x6000
			regs[cp0.Index] = 4
		})

		It("should write and read back an entry", func() {
			c.TLBWI()
			regs[cp0.EntryLo0] = 0
			regs[cp0.EntryLo1] = 0
			regs[cp0.EntryHi] = 0
			regs[cp0.PageMask] = 0

			c.TLBR()
			Expect(regs[cp0.EntryLo0]).To(Equal(uint32(0x47)))
			Expect(regs[cp0.EntryLo1]).To(Equal(uint32(0x87)))
			Expect(regs[cp0.EntryHi]).To(Equal(uint32(0x00400012)))
			Expect(regs[cp0.PageMask]).To(Equal(uint32(0x6000)))

			paddr, ok := t.Translate(0x00400010, tlb.Write)
			Expect(ok).To(BeTrue())
			Expect(paddr).To(Equal(uint32(0x1010)))
		})

		It("should probe for a written entry", func() {
			c.TLBWI()
			regs[cp0.Index] = 0

			c.TLBP()
			Expect(regs[cp0.Index]).To(Equal(uint32(4)))

			regs[cp0.EntryHi] = 0x12340000
			c.TLBP()
			Expect(regs[cp0.Index] & 0x80000000).ToNot(BeZero())
		})

		It("should write a random entry at or above Wired", func() {
			regs[cp0.Wired] = 30
			c.TLBWR(0xA4000040)

			Expect(regs[cp0.Random]).To(BeNumerically(">=", 30))
			e, err := t.Entry(int(regs[cp0.Random]))
			Expect(err).ToNot(HaveOccurred())
			Expect(e.VPN2).To(Equal(uint32(0x00400000 >> 13)))
		})
	})
})
