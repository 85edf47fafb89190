package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/r4300/cp0"
	"github.com/sarchlab/r4300/emu"
)

var _ = Describe("Interrupts", func() {
	for _, mode := range allModes {
		mode := mode

		Context(mode.String(), func() {
			It("should take the timer interrupt when Count reaches Compare", func() {
				m := newMachine(mode)
				m.load(bootPhys,
					ori(1, 0, 0x8001),
					mtc0(1, cp0.Status),
					ori(2, 0, 0x5100),
					mtc0(2, cp0.Compare),
				)
				m.load(bootPhys+16, idle...)

				m.core.RunFor(6)

				regs := m.core.CP0().Regs()
				Expect(m.core.PC()).To(Equal(uint32(0x80000180)))
				Expect(regs[cp0.EPC]).To(Equal(uint32(0xA4000050)))
				Expect(regs[cp0.Cause] & cp0.CauseIP7).NotTo(BeZero())
				Expect(regs[cp0.Cause] & cp0.CauseExcCode).To(BeZero())

				next, ok := m.core.CP0().Queue().Get(cp0.EventCompare)
				Expect(ok).To(BeTrue())
				Expect(next.Count).To(Equal(uint32(0x5100)))
			})

			It("should take a software interrupt after the Cause write", func() {
				m := newMachine(mode)
				m.load(bootPhys,
					ori(1, 0, 0x0101),
					mtc0(1, cp0.Status),
					ori(2, 0, 0x0100),
					mtc0(2, cp0.Cause),
					addiu(3, 0, 3),
				)

				m.core.RunFor(4)

				Expect(m.core.PC()).To(Equal(uint32(0x80000180)))
				Expect(m.core.CP0().Regs()[cp0.EPC]).To(Equal(uint32(0xA4000050)))
				Expect(m.reg(3)).To(BeZero())
			})

			It("should skip idle loops to the next event", func() {
				var counts []uint32
				m := newMachine(mode, emu.WithInterruptHandler(cp0.EventVI,
					func(c *emu.Core, e cp0.Event) {
						counts = append(counts, c.Count())
					}))
				m.load(bootPhys, idle...)
				Expect(m.core.ScheduleEvent(cp0.EventVI, 1000)).To(Succeed())

				m.core.RunFor(2)

				Expect(counts).To(Equal([]uint32{0x5000 + 1000 + 4}))
			})

			It("should hand device events to the registered handler", func() {
				calls := 0
				m := newMachine(mode, emu.WithInterruptHandler(cp0.EventVI,
					func(c *emu.Core, e cp0.Event) {
						calls++
						Expect(e.Type).To(Equal(cp0.EventVI))
						Expect(c.ScheduleEvent(cp0.EventVI, 100)).To(Succeed())
					}))
				m.load(bootPhys, idle...)
				Expect(m.core.ScheduleEvent(cp0.EventVI, 50)).To(Succeed())

				m.core.RunFor(20)

				Expect(calls).To(Equal(10))
			})

			It("should not deliver cancelled events", func() {
				calls := 0
				m := newMachine(mode, emu.WithInterruptHandler(cp0.EventVI,
					func(*emu.Core, cp0.Event) { calls++ }))
				m.load(bootPhys, idle...)
				Expect(m.core.ScheduleEvent(cp0.EventVI, 50)).To(Succeed())

				m.core.CancelEvent(cp0.EventVI)
				m.core.RunFor(10)

				Expect(calls).To(BeZero())
			})

			It("should soft reset on a non-maskable interrupt", func() {
				resets := 0
				m := newMachine(mode, emu.WithInterruptHandler(cp0.EventNMI,
					func(*emu.Core, cp0.Event) { resets++ }))
				m.load(bootPhys, idle...)
				Expect(m.core.ScheduleEvent(cp0.EventNMI, 10)).To(Succeed())

				m.core.RunFor(2)

				regs := m.core.CP0().Regs()
				Expect(resets).To(Equal(1))
				Expect(m.core.PC()).To(Equal(emu.SoftResetAddress))
				Expect(regs[cp0.Status] & cp0.StatusERL).NotTo(BeZero())
				Expect(regs[cp0.Status] & cp0.StatusBEV).NotTo(BeZero())
				Expect(regs[cp0.ErrorEPC]).To(Equal(uint32(0xA4000040)))
				Expect(m.core.Count()).To(BeZero())
			})
		})
	}

	It("should take an enabled interrupt raised by a device", func() {
		m := newMachine(emu.ModePure)
		m.core.CP0().Regs()[cp0.Status] = 0x0401

		m.core.RaiseInterrupt(cp0.CauseIP2)

		regs := m.core.CP0().Regs()
		Expect(m.core.PC()).To(Equal(uint32(0x80000180)))
		Expect(regs[cp0.EPC]).To(Equal(emu.DefaultBootAddress))
		Expect(regs[cp0.Cause] & cp0.CauseIP2).NotTo(BeZero())
	})

	It("should only latch a masked interrupt", func() {
		m := newMachine(emu.ModePure)

		m.core.RaiseInterrupt(cp0.CauseIP2)

		Expect(m.core.PC()).To(Equal(emu.DefaultBootAddress))
		Expect(m.core.CP0().Regs()[cp0.Cause] & cp0.CauseIP2).NotTo(BeZero())

		m.core.ClearInterrupt(cp0.CauseIP2)

		Expect(m.core.CP0().Regs()[cp0.Cause] & cp0.CauseIP2).To(BeZero())
	})

	It("should reject a second event of the same type", func() {
		m := newMachine(emu.ModePure)

		Expect(m.core.ScheduleEvent(cp0.EventVI, 10)).To(Succeed())
		Expect(m.core.ScheduleEvent(cp0.EventVI, 20)).To(MatchError(cp0.ErrDuplicateEvent))
	})
})
