package emu_test

import (
	. "github.com/onsi/gomega"

	"github.com/sarchlab/r4300/emu"
	"github.com/sarchlab/r4300/memory"
)

var allModes = []emu.Mode{emu.ModePure, emu.ModeCached, emu.ModeDynarec}

// Physical addresses of the test machine.
const (
	bootPhys    uint32 = 0x04000040
	generalPhys uint32 = 0x00000180
	refillPhys  uint32 = 0x00000000
)

type machine struct {
	core *emu.Core
	bus  *memory.Map
	ram  *memory.RAM
	dmem *memory.RAM
}

func newMachine(mode emu.Mode, opts ...emu.CoreOption) *machine {
	bus := memory.NewMap()
	ram := memory.NewRAM(0x400000)
	dmem := memory.NewRAM(0x10000)
	Expect(bus.Register(0, ram.Size(), ram)).To(Succeed())
	Expect(bus.Register(0x04000000, dmem.Size(), dmem)).To(Succeed())

	core := emu.NewCore(bus, append([]emu.CoreOption{emu.WithMode(mode)}, opts...)...)
	core.PowerOn()

	return &machine{core: core, bus: bus, ram: ram, dmem: dmem}
}

func (m *machine) load(paddr uint32, words ...uint32) {
	for i, w := range words {
		m.bus.WriteWord(paddr+uint32(4*i), w, 0xFFFFFFFF)
	}
}

func (m *machine) reg(n uint8) uint64 {
	return m.core.ReadReg(n)
}

// MIPS encoders for test programs.

const (
	nop     uint32 = 0
	eret    uint32 = 0x42000018
	syscall uint32 = 0x0000000C
)

func rtype(rs, rt, rd, sa, funct uint32) uint32 {
	return rs<<21 | rt<<16 | rd<<11 | sa<<6 | funct
}

func itype(op, rs, rt uint32, imm int32) uint32 {
	return op<<26 | rs<<21 | rt<<16 | uint32(uint16(imm))
}

func addiu(rt, rs uint32, imm int32) uint32 { return itype(0x09, rs, rt, imm) }
func addi(rt, rs uint32, imm int32) uint32  { return itype(0x08, rs, rt, imm) }
func ori(rt, rs, imm uint32) uint32         { return 0x0D<<26 | rs<<21 | rt<<16 | imm&0xFFFF }
func lui(rt, imm uint32) uint32             { return 0x0F<<26 | rt<<16 | imm&0xFFFF }
func addu(rd, rs, rt uint32) uint32         { return rtype(rs, rt, rd, 0, 0x21) }
func jr(rs uint32) uint32                   { return rtype(rs, 0, 0, 0, 0x08) }
func jal(target uint32) uint32              { return 0x03<<26 | target>>2&0x3FFFFFF }
func beq(rs, rt uint32, off int32) uint32   { return itype(0x04, rs, rt, off) }
func bne(rs, rt uint32, off int32) uint32   { return itype(0x05, rs, rt, off) }
func beql(rs, rt uint32, off int32) uint32  { return itype(0x14, rs, rt, off) }
func lw(rt, base uint32, off int32) uint32  { return itype(0x23, base, rt, off) }
func lb(rt, base uint32, off int32) uint32  { return itype(0x20, base, rt, off) }
func lbu(rt, base uint32, off int32) uint32 { return itype(0x24, base, rt, off) }
func lh(rt, base uint32, off int32) uint32  { return itype(0x21, base, rt, off) }
func lwl(rt, base uint32, off int32) uint32 { return itype(0x22, base, rt, off) }
func lwr(rt, base uint32, off int32) uint32 { return itype(0x26, base, rt, off) }
func sw(rt, base uint32, off int32) uint32  { return itype(0x2B, base, rt, off) }
func sb(rt, base uint32, off int32) uint32  { return itype(0x28, base, rt, off) }
func sh(rt, base uint32, off int32) uint32  { return itype(0x29, base, rt, off) }
func ll(rt, base uint32, off int32) uint32  { return itype(0x30, base, rt, off) }
func sc(rt, base uint32, off int32) uint32  { return itype(0x38, base, rt, off) }
func mfc0(rt, rd uint32) uint32             { return 0x40000000 | rt<<16 | rd<<11 }
func mtc0(rt, rd uint32) uint32             { return 0x40800000 | rt<<16 | rd<<11 }
func mfc1(rt, fs uint32) uint32             { return 0x44000000 | rt<<16 | fs<<11 }
func mtc1(rt, fs uint32) uint32             { return 0x44800000 | rt<<16 | fs<<11 }
func mtc2(rt uint32) uint32                 { return 0x48800000 | rt<<16 }
func mfc2(rt uint32) uint32                 { return 0x48000000 | rt<<16 }

// fpuOp encodes a COP1 arithmetic instruction.
func fpuOp(fmt, ft, fs, fd, funct uint32) uint32 {
	return 0x11<<26 | fmt<<21 | ft<<16 | fs<<11 | fd<<6 | funct
}

// idle is a branch to itself with an empty delay slot.
var idle = []uint32{beq(0, 0, -1), nop}
