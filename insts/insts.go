// Package insts provides R4300i instruction definitions and decoding.
//
// This package decodes big-endian MIPS III machine words into structured
// instructions. It covers:
//   - SPECIAL and REGIMM integer, shift, multiply/divide and trap operations
//   - Loads and stores, including the unaligned LWL/LWR/LDL/LDR family
//   - CP0 moves, TLB maintenance and ERET
//   - CP1 moves, branches, arithmetic, conversions and compares
//   - CP2 latch moves
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x24420001) // ADDIU $v0, $v0, 1
//	fmt.Printf("Op: %v, Rt: %d, Rs: %d, Imm: %d\n", inst.Op, inst.Rt, inst.Rs, int64(inst.Imm))
package insts

var opNames = [NumOps]string{
	OpUnknown: "unknown",
	OpSLL:     "sll", OpSRL: "srl", OpSRA: "sra", OpSLLV: "sllv", OpSRLV: "srlv", OpSRAV: "srav",
	OpJR: "jr", OpJALR: "jalr", OpSYSCALL: "syscall", OpBREAK: "break", OpSYNC: "sync",
	OpMFHI: "mfhi", OpMTHI: "mthi", OpMFLO: "mflo", OpMTLO: "mtlo",
	OpDSLLV: "dsllv", OpDSRLV: "dsrlv", OpDSRAV: "dsrav",
	OpMULT: "mult", OpMULTU: "multu", OpDIV: "div", OpDIVU: "divu",
	OpDMULT: "dmult", OpDMULTU: "dmultu", OpDDIV: "ddiv", OpDDIVU: "ddivu",
	OpADD: "add", OpADDU: "addu", OpSUB: "sub", OpSUBU: "subu",
	OpAND: "and", OpOR: "or", OpXOR: "xor", OpNOR: "nor", OpSLT: "slt", OpSLTU: "sltu",
	OpDADD: "dadd", OpDADDU: "daddu", OpDSUB: "dsub", OpDSUBU: "dsubu",
	OpTGE: "tge", OpTGEU: "tgeu", OpTLT: "tlt", OpTLTU: "tltu", OpTEQ: "teq", OpTNE: "tne",
	OpDSLL: "dsll", OpDSRL: "dsrl", OpDSRA: "dsra",
	OpDSLL32: "dsll32", OpDSRL32: "dsrl32", OpDSRA32: "dsra32",
	OpBLTZ: "bltz", OpBGEZ: "bgez", OpBLTZL: "bltzl", OpBGEZL: "bgezl",
	OpTGEI: "tgei", OpTGEIU: "tgeiu", OpTLTI: "tlti", OpTLTIU: "tltiu", OpTEQI: "teqi", OpTNEI: "tnei",
	OpBLTZAL: "bltzal", OpBGEZAL: "bgezal", OpBLTZALL: "bltzall", OpBGEZALL: "bgezall",
	OpJ: "j", OpJAL: "jal", OpBEQ: "beq", OpBNE: "bne", OpBLEZ: "blez", OpBGTZ: "bgtz",
	OpADDI: "addi", OpADDIU: "addiu", OpSLTI: "slti", OpSLTIU: "sltiu",
	OpANDI: "andi", OpORI: "ori", OpXORI: "xori", OpLUI: "lui",
	OpBEQL: "beql", OpBNEL: "bnel", OpBLEZL: "blezl", OpBGTZL: "bgtzl",
	OpDADDI: "daddi", OpDADDIU: "daddiu", OpLDL: "ldl", OpLDR: "ldr",
	OpLB: "lb", OpLH: "lh", OpLWL: "lwl", OpLW: "lw", OpLBU: "lbu", OpLHU: "lhu", OpLWR: "lwr", OpLWU: "lwu",
	OpSB: "sb", OpSH: "sh", OpSWL: "swl", OpSW: "sw", OpSDL: "sdl", OpSDR: "sdr", OpSWR: "swr",
	OpCACHE: "cache", OpLL: "ll", OpLWC1: "lwc1", OpLLD: "lld", OpLDC1: "ldc1", OpLD: "ld",
	OpSC: "sc", OpSWC1: "swc1", OpSCD: "scd", OpSDC1: "sdc1", OpSD: "sd",
	OpMFC0: "mfc0", OpDMFC0: "dmfc0", OpMTC0: "mtc0", OpDMTC0: "dmtc0",
	OpTLBR: "tlbr", OpTLBWI: "tlbwi", OpTLBWR: "tlbwr", OpTLBP: "tlbp", OpERET: "eret",
	OpMFC1: "mfc1", OpDMFC1: "dmfc1", OpCFC1: "cfc1", OpMTC1: "mtc1", OpDMTC1: "dmtc1", OpCTC1: "ctc1",
	OpBC1F: "bc1f", OpBC1T: "bc1t", OpBC1FL: "bc1fl", OpBC1TL: "bc1tl",
	OpFADD: "add.fmt", OpFSUB: "sub.fmt", OpFMUL: "mul.fmt", OpFDIV: "div.fmt",
	OpFSQRT: "sqrt.fmt", OpFABS: "abs.fmt", OpFMOV: "mov.fmt", OpFNEG: "neg.fmt",
	OpFROUNDL: "round.l.fmt", OpFTRUNCL: "trunc.l.fmt", OpFCEILL: "ceil.l.fmt", OpFFLOORL: "floor.l.fmt",
	OpFROUNDW: "round.w.fmt", OpFTRUNCW: "trunc.w.fmt", OpFCEILW: "ceil.w.fmt", OpFFLOORW: "floor.w.fmt",
	OpFCVTS: "cvt.s.fmt", OpFCVTD: "cvt.d.fmt", OpFCVTW: "cvt.w.fmt", OpFCVTL: "cvt.l.fmt",
	OpFC:   "c.cond.fmt",
	OpMFC2: "mfc2", OpDMFC2: "dmfc2", OpCFC2: "cfc2", OpMTC2: "mtc2", OpDMTC2: "dmtc2", OpCTC2: "ctc2",
}

// String returns the lower-case mnemonic of the operation.
func (o Op) String() string {
	if o >= NumOps {
		return "unknown"
	}
	return opNames[o]
}
