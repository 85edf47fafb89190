package benchmarks

// Helper functions for building MIPS programs

// NOP is SLL r0, r0, 0.
const NOP uint32 = 0

func encodeI(op, rs, rt uint8, imm int32) uint32 {
	return uint32(op)<<26 | uint32(rs&0x1F)<<21 | uint32(rt&0x1F)<<16 | uint32(uint16(imm))
}

func encodeR(rs, rt, rd, sa, funct uint8) uint32 {
	return uint32(rs&0x1F)<<21 | uint32(rt&0x1F)<<16 | uint32(rd&0x1F)<<11 |
		uint32(sa&0x1F)<<6 | uint32(funct&0x3F)
}

// EncodeADDIU encodes ADDIU: rt = rs + imm
func EncodeADDIU(rt, rs uint8, imm int32) uint32 { return encodeI(0x09, rs, rt, imm) }

// EncodeANDI encodes ANDI: rt = rs & imm
func EncodeANDI(rt, rs uint8, imm uint16) uint32 { return encodeI(0x0C, rs, rt, int32(imm)) }

// EncodeORI encodes ORI: rt = rs | imm
func EncodeORI(rt, rs uint8, imm uint16) uint32 { return encodeI(0x0D, rs, rt, int32(imm)) }

// EncodeLUI encodes LUI: rt = imm << 16
func EncodeLUI(rt uint8, imm uint16) uint32 { return encodeI(0x0F, 0, rt, int32(imm)) }

// EncodeADDU encodes ADDU: rd = rs + rt
func EncodeADDU(rd, rs, rt uint8) uint32 { return encodeR(rs, rt, rd, 0, 0x21) }

// EncodeBEQ encodes BEQ. The offset counts words from the delay slot.
func EncodeBEQ(rs, rt uint8, offset int32) uint32 { return encodeI(0x04, rs, rt, offset) }

// EncodeBNE encodes BNE. The offset counts words from the delay slot.
func EncodeBNE(rs, rt uint8, offset int32) uint32 { return encodeI(0x05, rs, rt, offset) }

// EncodeJAL encodes JAL to an address in the same 256 MiB region.
func EncodeJAL(target uint32) uint32 { return 0x03<<26 | target>>2&0x3FFFFFF }

// EncodeJR encodes JR rs
func EncodeJR(rs uint8) uint32 { return encodeR(rs, 0, 0, 0, 0x08) }

// EncodeLW encodes LW: rt = mem[base+offset]
func EncodeLW(rt, base uint8, offset int16) uint32 { return encodeI(0x23, base, rt, int32(offset)) }

// EncodeSW encodes SW: mem[base+offset] = rt
func EncodeSW(rt, base uint8, offset int16) uint32 { return encodeI(0x2B, base, rt, int32(offset)) }

// EncodeMTC1 encodes MTC1: fs = rt
func EncodeMTC1(rt, fs uint8) uint32 {
	return 0x11<<26 | 0x04<<21 | uint32(rt&0x1F)<<16 | uint32(fs&0x1F)<<11
}

// EncodeMFC1 encodes MFC1: rt = fs
func EncodeMFC1(rt, fs uint8) uint32 {
	return 0x11<<26 | uint32(rt&0x1F)<<16 | uint32(fs&0x1F)<<11
}

// EncodeADDS encodes ADD.S: fd = fs + ft
func EncodeADDS(fd, fs, ft uint8) uint32 {
	return 0x11<<26 | 0x10<<21 | uint32(ft&0x1F)<<16 | uint32(fs&0x1F)<<11 | uint32(fd&0x1F)<<6
}

// EncodeIdle encodes a branch to itself. Followed by a NOP it forms the
// idle loop the core fast-forwards through.
func EncodeIdle() uint32 { return EncodeBEQ(0, 0, -1) }
