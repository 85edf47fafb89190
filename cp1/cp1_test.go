package cp1_test

import (
	"encoding/binary"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/r4300/cp1"
)

const (
	status32 uint32 = 0x34000000
	status64 uint32 = 0x34000000 | 0x04000000
)

func pattern(n uint8) uint64 {
	return 0x0101010100000000*uint64(n+1) | uint64(0xA0000000+uint32(n))
}

var _ = Describe("FPU", func() {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		order := order

		Context("with "+order.String()+" storage", func() {
			var (
				bank cp1.Bank
				f    *cp1.FPU
			)

			BeforeEach(func() {
				bank = cp1.Bank{}
				f = cp1.New(&bank, cp1.WithByteOrder(order))
				f.PowerOn(status32)
			})

			It("should alias register pairs in the 32-bit view", func() {
				f.SetDword(4, 0x1122334455667788)

				Expect(f.Word(4)).To(Equal(uint32(0x55667788)))
				Expect(f.Word(5)).To(Equal(uint32(0x11223344)))

				f.SetWord(5, 0xCAFEBABE)
				Expect(f.Dword(4)).To(Equal(uint64(0xCAFEBABE55667788)))
				Expect(f.Dword(5)).To(Equal(f.Dword(4)))
			})

			It("should give every register its own slot in the 64-bit view", func() {
				f.SetMode(status32, status64)
				f.SetDword(4, 0x1122334455667788)
				f.SetDword(5, 0x99AABBCCDDEEFF00)

				Expect(f.Word(4)).To(Equal(uint32(0x55667788)))
				Expect(f.Word(5)).To(Equal(uint32(0xDDEEFF00)))
			})

			It("should preserve logical values across a mode round trip", func() {
				f.SetMode(status32, status64)
				for n := uint8(0); n < cp1.NumRegs; n++ {
					f.SetDword(n, pattern(n))
				}

				Expect(f.SetMode(status64, status32)).To(BeTrue())
				for n := uint8(0); n < cp1.NumRegs; n++ {
					Expect(f.Word(n)).To(Equal(uint32(pattern(n))))
				}

				Expect(f.SetMode(status32, status64)).To(BeTrue())
				for n := uint8(0); n < cp1.NumRegs; n++ {
					Expect(f.Dword(n)).To(Equal(pattern(n)))
				}
			})

			It("should restore the exact bank after unpacking then packing", func() {
				for i := range bank {
					bank[i] = byte(i*7 + 3)
				}
				before := bank

				f.SetMode(status32, status64)
				f.SetMode(status64, status32)

				Expect(bank).To(Equal(before))
			})

			It("should reshuffle only on an FR transition", func() {
				f.SetDword(0, 0x1122334455667788)
				before := bank

				Expect(f.SetMode(status32, status32|0x1)).To(BeFalse())
				Expect(bank).To(Equal(before))
				Expect(f.FR()).To(BeFalse())
			})
		})
	}

	Describe("control registers", func() {
		var f *cp1.FPU

		BeforeEach(func() {
			f = cp1.New(&cp1.Bank{})
		})

		It("should report the implementation revision", func() {
			Expect(f.ReadControl(0)).To(Equal(uint32(0x511)))
		})

		It("should select the rounding mode from FCR31", func() {
			f.WriteControl(31, 0x3)
			Expect(f.Rounding()).To(Equal(cp1.RoundDown))
			Expect(f.ReadControl(31)).To(Equal(uint32(0x3)))
		})

		It("should ignore unimplemented control registers", func() {
			f.WriteControl(5, 0xFFFF)
			Expect(f.ReadControl(5)).To(BeZero())
		})

		It("should track the condition bit", func() {
			f.SetCondition(true)
			Expect(f.Condition()).To(BeTrue())
			Expect(f.FCR31() & cp1.FCR31Condition).ToNot(BeZero())
			f.SetCondition(false)
			Expect(f.Condition()).To(BeFalse())
		})
	})
})

var _ = Describe("RoundingMode", func() {
	tiny := math.Ldexp(1, -60)

	DescribeTable("double addition",
		func(m cp1.RoundingMode, a, expected float64) {
			Expect(m.AddD(a, math.Copysign(tiny, a))).To(Equal(expected))
		},
		Entry("nearest", cp1.RoundNearest, 1.0, 1.0),
		Entry("zero", cp1.RoundZero, 1.0, 1.0),
		Entry("up", cp1.RoundUp, 1.0, math.Nextafter(1, 2)),
		Entry("down", cp1.RoundDown, 1.0, 1.0),
		Entry("zero negative", cp1.RoundZero, -1.0, -1.0),
		Entry("down negative", cp1.RoundDown, -1.0, math.Nextafter(-1, -2)),
		Entry("up negative", cp1.RoundUp, -1.0, -1.0),
	)

	It("should leave exact results untouched", func() {
		for _, m := range []cp1.RoundingMode{cp1.RoundNearest, cp1.RoundZero, cp1.RoundUp, cp1.RoundDown} {
			Expect(m.AddD(1.5, 2.25)).To(Equal(3.75))
			Expect(m.MulS(1.5, 2)).To(Equal(float32(3)))
		}
	})

	It("should bracket an inexact single division", func() {
		up := cp1.RoundUp.DivS(1, 3)
		down := cp1.RoundDown.DivS(1, 3)

		Expect(up).To(BeNumerically(">", down))
		Expect(math.Nextafter32(down, 1)).To(Equal(up))
		Expect(cp1.RoundZero.DivS(1, 3)).To(Equal(down))
		Expect(cp1.RoundZero.DivS(-1, 3)).To(Equal(-down))
	})

	It("should bracket an inexact square root", func() {
		up := cp1.RoundUp.SqrtD(2)
		down := cp1.RoundDown.SqrtD(2)
		Expect(math.Nextafter(down, 2)).To(Equal(up))
	})

	It("should round a double product toward zero", func() {
		a := 1 + math.Ldexp(1, -30)
		nearest := cp1.RoundNearest.MulD(a, a)
		Expect(cp1.RoundZero.MulD(a, a)).To(BeNumerically("<=", nearest))
		Expect(cp1.RoundUp.MulD(a, a)).To(BeNumerically(">", cp1.RoundDown.MulD(a, a)))
	})

	DescribeTable("integer conversion",
		func(m cp1.RoundingMode, x float64, expected int32) {
			Expect(m.ToWord(x)).To(Equal(expected))
		},
		Entry("nearest even", cp1.RoundNearest, 2.5, int32(2)),
		Entry("zero", cp1.RoundZero, -2.5, int32(-2)),
		Entry("up", cp1.RoundUp, 2.1, int32(3)),
		Entry("down", cp1.RoundDown, -2.1, int32(-3)),
		Entry("out of range", cp1.RoundNearest, 1e20, cp1.InvalidWord),
		Entry("NaN", cp1.RoundNearest, math.NaN(), cp1.InvalidWord),
	)

	It("should convert wide integers with directed rounding", func() {
		l := int64(1<<53 + 1)
		Expect(cp1.RoundUp.LToD(l)).To(Equal(float64(1<<53 + 2)))
		Expect(cp1.RoundDown.LToD(l)).To(Equal(float64(1 << 53)))
		Expect(cp1.RoundNearest.ToDword(math.Inf(1))).To(Equal(cp1.InvalidDword))
	})

	DescribeTable("compare predicates",
		func(cond uint8, a, b float64, expected bool) {
			Expect(cp1.Compare(cond, a, b)).To(Equal(expected))
		},
		Entry("F", uint8(0), 1.0, 1.0, false),
		Entry("EQ", uint8(2), 1.0, 1.0, true),
		Entry("OLT", uint8(4), 1.0, 2.0, true),
		Entry("OLE equal", uint8(6), 2.0, 2.0, true),
		Entry("UN with NaN", uint8(1), math.NaN(), 1.0, true),
		Entry("EQ with NaN", uint8(2), math.NaN(), math.NaN(), false),
		Entry("NGT signaling", uint8(15), 3.0, 2.0, false),
	)
})
