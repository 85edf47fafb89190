package consistency_test

import (
	"strings"

	"github.com/hashicorp/go-multierror"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sarchlab/r4300/consistency"
	"github.com/sarchlab/r4300/cp0"
	"github.com/sarchlab/r4300/metrics"
)

var _ = Describe("Digest", func() {
	var regs cp0.Registers

	BeforeEach(func() {
		regs.PowerOn()
	})

	It("should be stable for equal state", func() {
		a, err := consistency.Compute(600, &regs)
		Expect(err).NotTo(HaveOccurred())
		b, err := consistency.Compute(600, &regs)
		Expect(err).NotTo(HaveOccurred())

		Expect(a).To(Equal(b))
	})

	It("should change with a compared register", func() {
		a, _ := consistency.Compute(600, &regs)
		regs[cp0.Status] ^= 1
		b, _ := consistency.Compute(600, &regs)

		Expect(a).NotTo(Equal(b))
	})

	It("should ignore registers outside the subset", func() {
		a, _ := consistency.Compute(600, &regs)
		regs[cp0.TagLo] = 0x1234
		b, _ := consistency.Compute(600, &regs)

		Expect(a).To(Equal(b))
	})

	It("should depend on the frame number", func() {
		a, _ := consistency.Compute(600, &regs)
		b, _ := consistency.Compute(1200, &regs)

		Expect(a).NotTo(Equal(b))
	})
})

var _ = Describe("Checker", func() {
	var (
		regs  cp0.Registers
		calls []uint32
		m     *metrics.Metrics
	)

	echo := consistency.PeerFunc(func(frame uint32, local consistency.Digest) (consistency.Digest, error) {
		calls = append(calls, frame)
		return local, nil
	})

	BeforeEach(func() {
		regs.PowerOn()
		calls = nil
		m = metrics.NewMetrics()
	})

	It("should only exchange every interval frames", func() {
		c := consistency.NewChecker(echo, consistency.WithInterval(3))

		for i := 0; i < 10; i++ {
			Expect(c.OnFrame(&regs)).To(Succeed())
		}

		Expect(calls).To(Equal([]uint32{3, 6, 9}))
		Expect(c.Frame()).To(Equal(uint32(10)))
		Expect(c.Mismatches()).To(Succeed())
	})

	It("should default to every 600 frames", func() {
		c := consistency.NewChecker(echo)

		for i := 0; i < 1200; i++ {
			Expect(c.OnFrame(&regs)).To(Succeed())
		}

		Expect(calls).To(Equal([]uint32{600, 1200}))
	})

	It("should record a divergence and keep going", func() {
		diverged := consistency.PeerFunc(func(uint32, consistency.Digest) (consistency.Digest, error) {
			return consistency.Digest{}, nil
		})
		c := consistency.NewChecker(diverged,
			consistency.WithInterval(1),
			consistency.WithMetrics(m),
		)

		Expect(c.OnFrame(&regs)).To(Succeed())
		Expect(c.OnFrame(&regs)).To(Succeed())

		err := c.Mismatches()
		Expect(err).To(MatchError(consistency.ErrMismatch))
		Expect(err.(*multierror.Error).Errors).To(HaveLen(2))
		Expect(testutil.GatherAndCompare(m.Registry(), strings.NewReader(`
# HELP r4300_consistency_checks_total CP0 consistency checks by result
# TYPE r4300_consistency_checks_total counter
r4300_consistency_checks_total{result="mismatch"} 2
`), "r4300_consistency_checks_total")).To(Succeed())
	})

	It("should report a failed exchange", func() {
		broken := consistency.PeerFunc(func(uint32, consistency.Digest) (consistency.Digest, error) {
			return consistency.Digest{}, errors.New("connection reset")
		})
		c := consistency.NewChecker(broken, consistency.WithInterval(1))

		Expect(c.OnFrame(&regs)).To(MatchError(ContainSubstring("connection reset")))
	})

	It("should never check with a zero interval", func() {
		c := consistency.NewChecker(echo, consistency.WithInterval(0))

		Expect(c.OnFrame(&regs)).To(Succeed())
		Expect(calls).To(BeEmpty())
	})
})
