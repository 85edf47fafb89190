// Package emu provides the R4300i core: architectural state layouts, the
// instruction handlers, and the three execution engines.
package emu

import (
	"sync/atomic"

	"github.com/sarchlab/r4300/cp0"
	"github.com/sarchlab/r4300/cp1"
)

// Layout gives access to the architectural state. Every reader and writer
// of the state goes through these accessors, so engines are free to keep
// the storage in whatever arrangement suits them.
type Layout interface {
	GPR() *[32]uint64
	Hi() *uint64
	Lo() *uint64
	PC() *uint32
	LLBit() *bool
	StopFlag() *atomic.Bool
	CP0() *cp0.Registers
	FPR() *cp1.Bank
	CP2() *uint64
}

// RegFile is the state layout used by both interpreters.
type RegFile struct {
	X     [32]uint64
	HI    uint64
	LO    uint64
	PCReg uint32

	LL   bool
	stop atomic.Bool

	CP0Regs cp0.Registers
	FPRBank cp1.Bank
	Latch   uint64
}

// GPR returns the general-purpose registers.
func (r *RegFile) GPR() *[32]uint64 { return &r.X }

// Hi returns the HI register.
func (r *RegFile) Hi() *uint64 { return &r.HI }

// Lo returns the LO register.
func (r *RegFile) Lo() *uint64 { return &r.LO }

// PC returns the program counter.
func (r *RegFile) PC() *uint32 { return &r.PCReg }

// LLBit returns the load-linked flag.
func (r *RegFile) LLBit() *bool { return &r.LL }

// StopFlag returns the cooperative stop flag.
func (r *RegFile) StopFlag() *atomic.Bool { return &r.stop }

// CP0 returns the system control register bank.
func (r *RegFile) CP0() *cp0.Registers { return &r.CP0Regs }

// FPR returns the raw FPU register bank.
func (r *RegFile) FPR() *cp1.Bank { return &r.FPRBank }

// CP2 returns the coprocessor 2 latch.
func (r *RegFile) CP2() *uint64 { return &r.Latch }

// hotState is the layout used by the recompiler. Fields touched by every
// compiled block come first.
type hotState struct {
	stop atomic.Bool
	pc   uint32
	cp0  cp0.Registers
	gpr  [32]uint64
	lo   uint64
	hi   uint64
	ll   bool

	fpr   cp1.Bank
	latch uint64
}

func (h *hotState) GPR() *[32]uint64       { return &h.gpr }
func (h *hotState) Hi() *uint64            { return &h.hi }
func (h *hotState) Lo() *uint64            { return &h.lo }
func (h *hotState) PC() *uint32            { return &h.pc }
func (h *hotState) LLBit() *bool           { return &h.ll }
func (h *hotState) StopFlag() *atomic.Bool { return &h.stop }
func (h *hotState) CP0() *cp0.Registers    { return &h.cp0 }
func (h *hotState) FPR() *cp1.Bank         { return &h.fpr }
func (h *hotState) CP2() *uint64           { return &h.latch }

func newLayout(mode Mode) Layout {
	if mode == ModeDynarec {
		return &hotState{}
	}
	return &RegFile{}
}

// se32 sign-extends the low word of v.
func se32(v uint32) uint64 {
	return uint64(int64(int32(v)))
}

// ReadReg reads general-purpose register n.
func (c *Core) ReadReg(n uint8) uint64 {
	return c.gpr[n&0x1F]
}

// WriteReg writes general-purpose register n. Writes to r0 are ignored.
func (c *Core) WriteReg(n uint8, v uint64) {
	if n&0x1F == 0 {
		return
	}
	c.gpr[n&0x1F] = v
}
