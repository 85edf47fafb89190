package emu

import (
	"github.com/sarchlab/r4300/cp0"
	"github.com/sarchlab/r4300/insts"
)

func (c *Core) effAddr(i *insts.Instruction) uint32 {
	return uint32(c.rs(i) + i.Imm)
}

// Loads

func opLB(c *Core, i *insts.Instruction) {
	addr := c.effAddr(i)
	w, ok := c.loadAlignedWord(addr)
	if !ok {
		return
	}
	c.WriteReg(i.Rt, uint64(int64(int8(w>>(24-8*(addr&3))))))
}

func opLBU(c *Core, i *insts.Instruction) {
	addr := c.effAddr(i)
	w, ok := c.loadAlignedWord(addr)
	if !ok {
		return
	}
	c.WriteReg(i.Rt, uint64(uint8(w>>(24-8*(addr&3)))))
}

func (c *Core) loadHalf(i *insts.Instruction) (uint16, bool) {
	addr := c.effAddr(i)
	if !c.aligned(addr, 2, false) {
		return 0, false
	}
	w, ok := c.loadAlignedWord(addr)
	if !ok {
		return 0, false
	}
	return uint16(w >> (16 - 8*(addr&2))), true
}

func opLH(c *Core, i *insts.Instruction) {
	if h, ok := c.loadHalf(i); ok {
		c.WriteReg(i.Rt, uint64(int64(int16(h))))
	}
}

func opLHU(c *Core, i *insts.Instruction) {
	if h, ok := c.loadHalf(i); ok {
		c.WriteReg(i.Rt, uint64(h))
	}
}

func opLW(c *Core, i *insts.Instruction) {
	if w, ok := c.loadWord(c.effAddr(i)); ok {
		c.WriteReg(i.Rt, se32(w))
	}
}

func opLWU(c *Core, i *insts.Instruction) {
	if w, ok := c.loadWord(c.effAddr(i)); ok {
		c.WriteReg(i.Rt, uint64(w))
	}
}

func opLD(c *Core, i *insts.Instruction) {
	if d, ok := c.loadDword(c.effAddr(i)); ok {
		c.WriteReg(i.Rt, d)
	}
}

func (c *Core) linkAddress(vaddr uint32) {
	*c.ll = true
	if paddr, ok := c.probe(vaddr); ok {
		c.cp0.Regs()[cp0.LLAddr] = paddr >> 4
	}
}

func opLL(c *Core, i *insts.Instruction) {
	addr := c.effAddr(i)
	if w, ok := c.loadWord(addr); ok {
		c.WriteReg(i.Rt, se32(w))
		c.linkAddress(addr)
	}
}

func opLLD(c *Core, i *insts.Instruction) {
	addr := c.effAddr(i)
	if d, ok := c.loadDword(addr); ok {
		c.WriteReg(i.Rt, d)
		c.linkAddress(addr)
	}
}

// Unaligned loads merge the addressed bytes into the register. Memory is
// big-endian, so LWL fills from the most significant byte down and LWR
// from the least significant byte up.

func opLWL(c *Core, i *insts.Instruction) {
	addr := c.effAddr(i)
	w, ok := c.loadAlignedWord(addr)
	if !ok {
		return
	}
	shift := 8 * (addr & 3)
	keep := uint32(1)<<shift - 1
	c.WriteReg(i.Rt, se32(uint32(c.rt(i))&keep|w<<shift))
}

func opLWR(c *Core, i *insts.Instruction) {
	addr := c.effAddr(i)
	w, ok := c.loadAlignedWord(addr)
	if !ok {
		return
	}
	if addr&3 == 3 {
		c.WriteReg(i.Rt, se32(w))
		return
	}
	shift := 8 * (3 - addr&3)
	keep := ^(uint64(0xFFFFFFFF) >> shift)
	c.WriteReg(i.Rt, c.rt(i)&keep|uint64(w>>shift))
}

func opLDL(c *Core, i *insts.Instruction) {
	addr := c.effAddr(i)
	d, ok := c.loadAlignedDword(addr)
	if !ok {
		return
	}
	shift := 8 * (addr & 7)
	keep := uint64(1)<<shift - 1
	c.WriteReg(i.Rt, c.rt(i)&keep|d<<shift)
}

func opLDR(c *Core, i *insts.Instruction) {
	addr := c.effAddr(i)
	d, ok := c.loadAlignedDword(addr)
	if !ok {
		return
	}
	shift := 8 * (7 - addr&7)
	keep := ^(^uint64(0) >> shift)
	c.WriteReg(i.Rt, c.rt(i)&keep|d>>shift)
}

// Stores

func opSB(c *Core, i *insts.Instruction) {
	addr := c.effAddr(i)
	shift := 24 - 8*(addr&3)
	c.storeWord(addr, uint32(uint8(c.rt(i)))<<shift, 0xFF<<shift)
}

func opSH(c *Core, i *insts.Instruction) {
	addr := c.effAddr(i)
	if !c.aligned(addr, 2, true) {
		return
	}
	shift := 16 - 8*(addr&2)
	c.storeWord(addr, uint32(uint16(c.rt(i)))<<shift, 0xFFFF<<shift)
}

func opSW(c *Core, i *insts.Instruction) {
	addr := c.effAddr(i)
	if !c.aligned(addr, 4, true) {
		return
	}
	c.storeWord(addr, uint32(c.rt(i)), 0xFFFFFFFF)
}

func opSD(c *Core, i *insts.Instruction) {
	addr := c.effAddr(i)
	if !c.aligned(addr, 8, true) {
		return
	}
	c.storeDword(addr, c.rt(i), ^uint64(0))
}

func opSC(c *Core, i *insts.Instruction) {
	addr := c.effAddr(i)
	if !*c.ll {
		c.WriteReg(i.Rt, 0)
		return
	}
	if !c.aligned(addr, 4, true) {
		return
	}
	if c.storeWord(addr, uint32(c.rt(i)), 0xFFFFFFFF) {
		*c.ll = false
		c.WriteReg(i.Rt, 1)
	}
}

func opSCD(c *Core, i *insts.Instruction) {
	addr := c.effAddr(i)
	if !*c.ll {
		c.WriteReg(i.Rt, 0)
		return
	}
	if !c.aligned(addr, 8, true) {
		return
	}
	if c.storeDword(addr, c.rt(i), ^uint64(0)) {
		*c.ll = false
		c.WriteReg(i.Rt, 1)
	}
}

func opSWL(c *Core, i *insts.Instruction) {
	addr := c.effAddr(i)
	shift := 8 * (addr & 3)
	c.storeWord(addr, uint32(c.rt(i))>>shift, 0xFFFFFFFF>>shift)
}

func opSWR(c *Core, i *insts.Instruction) {
	addr := c.effAddr(i)
	shift := 8 * (3 - addr&3)
	c.storeWord(addr, uint32(c.rt(i))<<shift, 0xFFFFFFFF<<shift)
}

func opSDL(c *Core, i *insts.Instruction) {
	addr := c.effAddr(i)
	shift := 8 * (addr & 7)
	c.storeDword(addr, c.rt(i)>>shift, ^uint64(0)>>shift)
}

func opSDR(c *Core, i *insts.Instruction) {
	addr := c.effAddr(i)
	shift := 8 * (7 - addr&7)
	c.storeDword(addr, c.rt(i)<<shift, ^uint64(0)<<shift)
}

// FPU loads and stores

func opLWC1(c *Core, i *insts.Instruction) {
	if c.cop1Unusable() {
		return
	}
	if w, ok := c.loadWord(c.effAddr(i)); ok {
		c.fpu.SetWord(i.Ft(), w)
	}
}

func opLDC1(c *Core, i *insts.Instruction) {
	if c.cop1Unusable() {
		return
	}
	if d, ok := c.loadDword(c.effAddr(i)); ok {
		c.fpu.SetDword(i.Ft(), d)
	}
}

func opSWC1(c *Core, i *insts.Instruction) {
	if c.cop1Unusable() {
		return
	}
	addr := c.effAddr(i)
	if c.aligned(addr, 4, true) {
		c.storeWord(addr, c.fpu.Word(i.Ft()), 0xFFFFFFFF)
	}
}

func opSDC1(c *Core, i *insts.Instruction) {
	if c.cop1Unusable() {
		return
	}
	addr := c.effAddr(i)
	if c.aligned(addr, 8, true) {
		c.storeDword(addr, c.fpu.Dword(i.Ft()), ^uint64(0))
	}
}
