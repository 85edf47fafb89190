package main

import (
	"bytes"
	"encoding/binary"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"

	"github.com/sarchlab/r4300/benchmarks"
	"github.com/sarchlab/r4300/config"
)

func bigEndian(words ...uint32) []byte {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.BigEndian.PutUint32(buf[4*i:], w)
	}
	return buf
}

var _ = Describe("r4300", func() {
	var (
		fs  afero.Fs
		out *bytes.Buffer
		run func(args ...string) error
	)

	BeforeEach(func() {
		fs = afero.NewMemMapFs()
		out = &bytes.Buffer{}
		run = func(args ...string) error {
			return newApp(fs, out).Run(append([]string{"r4300"}, args...))
		}

		prog := bigEndian(
			benchmarks.EncodeADDIU(2, 0, 7),
			benchmarks.EncodeORI(3, 0, 0x1234),
			benchmarks.EncodeIdle(),
			benchmarks.NOP,
		)
		Expect(afero.WriteFile(fs, "/prog.bin", prog, 0644)).To(Succeed())
	})

	Describe("run", func() {
		It("should run a raw image and print the registers", func() {
			Expect(run("run", "--raw", "/prog.bin", "--steps", "10", "--mode", "pure")).To(Succeed())

			Expect(out.String()).To(ContainSubstring("0x0000000000000007"))
			Expect(out.String()).To(ContainSubstring("0x0000000000001234"))
			Expect(out.String()).To(ContainSubstring("pure"))
		})

		It("should require a program", func() {
			Expect(run("run", "--steps", "10")).To(MatchError(errNoProgram))
		})

		It("should reject invalid settings", func() {
			err := run("run", "--raw", "/prog.bin", "--steps", "1", "--count-per-op", "9")
			Expect(err).To(HaveOccurred())
		})

		It("should resume from a saved state", func() {
			Expect(run("run", "--raw", "/prog.bin", "--steps", "2", "--save-state", "/state.bin")).To(Succeed())
			exists, err := afero.Exists(fs, "/state.bin")
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeTrue())

			out.Reset()
			Expect(run("run", "--load-state", "/state.bin", "--steps", "2")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("0x0000000000001234"))
		})
	})

	Describe("config", func() {
		It("should write the settings with overrides applied", func() {
			Expect(run("config", "--mode", "cached", "--out", "/r4300.toml")).To(Succeed())

			cfg, err := config.Load(fs, "/r4300.toml")
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Mode).To(Equal("cached"))
			Expect(cfg.CountPerOp).To(Equal(uint32(2)))
		})
	})

	Describe("bench", func() {
		It("should print one CSV row per benchmark and mode", func() {
			Expect(run("bench", "--core", "--modes", "pure", "--modes", "dynarec", "--format", "csv")).To(Succeed())

			lines := strings.Split(strings.TrimSpace(out.String()), "\n")
			Expect(lines).To(HaveLen(1 + 3*2))
			Expect(lines[0]).To(HavePrefix("name,mode,"))
		})

		It("should reject an unknown mode", func() {
			Expect(run("bench", "--modes", "jit")).To(HaveOccurred())
		})
	})
})
