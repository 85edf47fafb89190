// Package insts provides R4300i (MIPS III) instruction definitions and decoding.
package insts

// Op represents a MIPS III operation.
type Op uint16

// MIPS III operations. The order follows the primary opcode table and then
// the SPECIAL, REGIMM, COP0, COP1 and COP2 sub-tables.
const (
	OpUnknown Op = iota

	// SPECIAL
	OpSLL
	OpSRL
	OpSRA
	OpSLLV
	OpSRLV
	OpSRAV
	OpJR
	OpJALR
	OpSYSCALL
	OpBREAK
	OpSYNC
	OpMFHI
	OpMTHI
	OpMFLO
	OpMTLO
	OpDSLLV
	OpDSRLV
	OpDSRAV
	OpMULT
	OpMULTU
	OpDIV
	OpDIVU
	OpDMULT
	OpDMULTU
	OpDDIV
	OpDDIVU
	OpADD
	OpADDU
	OpSUB
	OpSUBU
	OpAND
	OpOR
	OpXOR
	OpNOR
	OpSLT
	OpSLTU
	OpDADD
	OpDADDU
	OpDSUB
	OpDSUBU
	OpTGE
	OpTGEU
	OpTLT
	OpTLTU
	OpTEQ
	OpTNE
	OpDSLL
	OpDSRL
	OpDSRA
	OpDSLL32
	OpDSRL32
	OpDSRA32

	// REGIMM
	OpBLTZ
	OpBGEZ
	OpBLTZL
	OpBGEZL
	OpTGEI
	OpTGEIU
	OpTLTI
	OpTLTIU
	OpTEQI
	OpTNEI
	OpBLTZAL
	OpBGEZAL
	OpBLTZALL
	OpBGEZALL

	// Primary
	OpJ
	OpJAL
	OpBEQ
	OpBNE
	OpBLEZ
	OpBGTZ
	OpADDI
	OpADDIU
	OpSLTI
	OpSLTIU
	OpANDI
	OpORI
	OpXORI
	OpLUI
	OpBEQL
	OpBNEL
	OpBLEZL
	OpBGTZL
	OpDADDI
	OpDADDIU
	OpLDL
	OpLDR
	OpLB
	OpLH
	OpLWL
	OpLW
	OpLBU
	OpLHU
	OpLWR
	OpLWU
	OpSB
	OpSH
	OpSWL
	OpSW
	OpSDL
	OpSDR
	OpSWR
	OpCACHE
	OpLL
	OpLWC1
	OpLLD
	OpLDC1
	OpLD
	OpSC
	OpSWC1
	OpSCD
	OpSDC1
	OpSD

	// COP0
	OpMFC0
	OpDMFC0
	OpMTC0
	OpDMTC0
	OpTLBR
	OpTLBWI
	OpTLBWR
	OpTLBP
	OpERET

	// COP1 moves and branches
	OpMFC1
	OpDMFC1
	OpCFC1
	OpMTC1
	OpDMTC1
	OpCTC1
	OpBC1F
	OpBC1T
	OpBC1FL
	OpBC1TL

	// COP1 arithmetic; the operand format is in Instruction.Fmt.
	OpFADD
	OpFSUB
	OpFMUL
	OpFDIV
	OpFSQRT
	OpFABS
	OpFMOV
	OpFNEG
	OpFROUNDL
	OpFTRUNCL
	OpFCEILL
	OpFFLOORL
	OpFROUNDW
	OpFTRUNCW
	OpFCEILW
	OpFFLOORW
	OpFCVTS
	OpFCVTD
	OpFCVTW
	OpFCVTL
	OpFC // C.cond.fmt; the condition is in Instruction.Cond

	// COP2 latch moves
	OpMFC2
	OpDMFC2
	OpCFC2
	OpMTC2
	OpDMTC2
	OpCTC2

	NumOps
)

// Format represents an instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatR               // Register (SPECIAL)
	FormatI               // Immediate, including REGIMM
	FormatJ               // Jump
	FormatCop             // Coprocessor
)

// Floating-point operand formats (the fmt field of COP1 arithmetic).
const (
	FmtS uint8 = 16 // Single precision
	FmtD uint8 = 17 // Double precision
	FmtW uint8 = 20 // 32-bit fixed point
	FmtL uint8 = 21 // 64-bit fixed point
)

// Instruction represents a decoded MIPS III instruction.
type Instruction struct {
	Op     Op     // Operation
	Format Format // Encoding format
	Raw    uint32 // Original instruction word

	Rs uint8 // Source register (also COP sub-opcode)
	Rt uint8 // Target register (also FPU Ft)
	Rd uint8 // Destination register (also FPU Fs, CP0 register)
	Sa uint8 // Shift amount (also FPU Fd)

	Funct uint8 // SPECIAL / COP function field

	Imm    uint64 // Sign-extended 16-bit immediate
	ZImm   uint64 // Zero-extended 16-bit immediate
	Target uint32 // 26-bit jump target index

	Fmt  uint8 // FPU operand format
	Cond uint8 // FPU compare condition (low 4 bits of funct)
}

// Fs returns the FPU source register.
func (i *Instruction) Fs() uint8 { return i.Rd }

// Ft returns the FPU target register.
func (i *Instruction) Ft() uint8 { return i.Rt }

// Fd returns the FPU destination register.
func (i *Instruction) Fd() uint8 { return i.Sa }

// IsBranch reports whether the instruction transfers control and therefore
// has a delay slot (or traps) and ends a basic block.
func (i *Instruction) IsBranch() bool {
	switch i.Op {
	case OpJ, OpJAL, OpJR, OpJALR,
		OpBEQ, OpBNE, OpBLEZ, OpBGTZ,
		OpBEQL, OpBNEL, OpBLEZL, OpBGTZL,
		OpBLTZ, OpBGEZ, OpBLTZL, OpBGEZL,
		OpBLTZAL, OpBGEZAL, OpBLTZALL, OpBGEZALL,
		OpBC1F, OpBC1T, OpBC1FL, OpBC1TL:
		return true
	}
	return false
}

// EndsBlock reports whether the instruction ends a basic block. Besides
// branches this includes instructions that redirect the PC or may change
// the address mapping.
func (i *Instruction) EndsBlock() bool {
	if i.IsBranch() {
		return true
	}
	switch i.Op {
	case OpERET, OpSYSCALL, OpBREAK, OpMTC0, OpDMTC0,
		OpTLBWI, OpTLBWR, OpUnknown:
		return true
	}
	return false
}

// Decoder decodes MIPS machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new MIPS III instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit instruction word.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{}
	d.DecodeInto(word, inst)
	return inst
}

// DecodeInto decodes a 32-bit instruction word into an existing
// Instruction, overwriting every field.
func (d *Decoder) DecodeInto(word uint32, inst *Instruction) {
	*inst = Instruction{
		Op:     OpUnknown,
		Raw:    word,
		Rs:     uint8(word>>21) & 0x1F,
		Rt:     uint8(word>>16) & 0x1F,
		Rd:     uint8(word>>11) & 0x1F,
		Sa:     uint8(word>>6) & 0x1F,
		Funct:  uint8(word) & 0x3F,
		Imm:    uint64(int64(int16(word))),
		ZImm:   uint64(word & 0xFFFF),
		Target: word & 0x3FFFFFF,
	}

	opcode := word >> 26
	switch opcode {
	case 0x00:
		inst.Format = FormatR
		inst.Op = specialTable[inst.Funct]
	case 0x01:
		inst.Format = FormatI
		inst.Op = regimmTable[inst.Rt]
	case 0x02, 0x03:
		inst.Format = FormatJ
		inst.Op = primaryTable[opcode]
	case 0x10:
		inst.Format = FormatCop
		d.decodeCop0(inst)
	case 0x11:
		inst.Format = FormatCop
		d.decodeCop1(inst)
	case 0x12:
		inst.Format = FormatCop
		inst.Op = cop2Table[inst.Rs]
	default:
		inst.Format = FormatI
		inst.Op = primaryTable[opcode]
	}

	if inst.Op == OpUnknown {
		inst.Format = FormatUnknown
	}
}

func (d *Decoder) decodeCop0(inst *Instruction) {
	switch inst.Rs {
	case 0x00:
		inst.Op = OpMFC0
	case 0x01:
		inst.Op = OpDMFC0
	case 0x04:
		inst.Op = OpMTC0
	case 0x05:
		inst.Op = OpDMTC0
	case 0x10:
		inst.Op = tlbTable[inst.Funct]
	}
}

func (d *Decoder) decodeCop1(inst *Instruction) {
	switch inst.Rs {
	case 0x00:
		inst.Op = OpMFC1
	case 0x01:
		inst.Op = OpDMFC1
	case 0x02:
		inst.Op = OpCFC1
	case 0x04:
		inst.Op = OpMTC1
	case 0x05:
		inst.Op = OpDMTC1
	case 0x06:
		inst.Op = OpCTC1
	case 0x08:
		switch inst.Rt & 0x3 {
		case 0:
			inst.Op = OpBC1F
		case 1:
			inst.Op = OpBC1T
		case 2:
			inst.Op = OpBC1FL
		case 3:
			inst.Op = OpBC1TL
		}
	case FmtS, FmtD, FmtW, FmtL:
		inst.Fmt = inst.Rs
		if inst.Funct >= 0x30 {
			if inst.Fmt == FmtS || inst.Fmt == FmtD {
				inst.Op = OpFC
				inst.Cond = inst.Funct & 0xF
			}
			return
		}
		op := cop1Table[inst.Funct]
		if !validFPUFormat(op, inst.Fmt) {
			return
		}
		inst.Op = op
	}
}

// validFPUFormat rejects operand formats the R4300i leaves unimplemented.
func validFPUFormat(op Op, f uint8) bool {
	switch op {
	case OpFCVTS:
		return f != FmtS
	case OpFCVTD:
		return f != FmtD
	case OpUnknown:
		return false
	}
	return f == FmtS || f == FmtD
}

var primaryTable = [64]Op{
	0x02: OpJ, 0x03: OpJAL, 0x04: OpBEQ, 0x05: OpBNE, 0x06: OpBLEZ, 0x07: OpBGTZ,
	0x08: OpADDI, 0x09: OpADDIU, 0x0A: OpSLTI, 0x0B: OpSLTIU,
	0x0C: OpANDI, 0x0D: OpORI, 0x0E: OpXORI, 0x0F: OpLUI,
	0x14: OpBEQL, 0x15: OpBNEL, 0x16: OpBLEZL, 0x17: OpBGTZL,
	0x18: OpDADDI, 0x19: OpDADDIU, 0x1A: OpLDL, 0x1B: OpLDR,
	0x20: OpLB, 0x21: OpLH, 0x22: OpLWL, 0x23: OpLW,
	0x24: OpLBU, 0x25: OpLHU, 0x26: OpLWR, 0x27: OpLWU,
	0x28: OpSB, 0x29: OpSH, 0x2A: OpSWL, 0x2B: OpSW,
	0x2C: OpSDL, 0x2D: OpSDR, 0x2E: OpSWR, 0x2F: OpCACHE,
	0x30: OpLL, 0x31: OpLWC1, 0x34: OpLLD, 0x35: OpLDC1, 0x37: OpLD,
	0x38: OpSC, 0x39: OpSWC1, 0x3C: OpSCD, 0x3D: OpSDC1, 0x3F: OpSD,
}

var specialTable = [64]Op{
	0x00: OpSLL, 0x02: OpSRL, 0x03: OpSRA,
	0x04: OpSLLV, 0x06: OpSRLV, 0x07: OpSRAV,
	0x08: OpJR, 0x09: OpJALR, 0x0C: OpSYSCALL, 0x0D: OpBREAK, 0x0F: OpSYNC,
	0x10: OpMFHI, 0x11: OpMTHI, 0x12: OpMFLO, 0x13: OpMTLO,
	0x14: OpDSLLV, 0x16: OpDSRLV, 0x17: OpDSRAV,
	0x18: OpMULT, 0x19: OpMULTU, 0x1A: OpDIV, 0x1B: OpDIVU,
	0x1C: OpDMULT, 0x1D: OpDMULTU, 0x1E: OpDDIV, 0x1F: OpDDIVU,
	0x20: OpADD, 0x21: OpADDU, 0x22: OpSUB, 0x23: OpSUBU,
	0x24: OpAND, 0x25: OpOR, 0x26: OpXOR, 0x27: OpNOR,
	0x2A: OpSLT, 0x2B: OpSLTU,
	0x2C: OpDADD, 0x2D: OpDADDU, 0x2E: OpDSUB, 0x2F: OpDSUBU,
	0x30: OpTGE, 0x31: OpTGEU, 0x32: OpTLT, 0x33: OpTLTU, 0x34: OpTEQ, 0x36: OpTNE,
	0x38: OpDSLL, 0x3A: OpDSRL, 0x3B: OpDSRA,
	0x3C: OpDSLL32, 0x3E: OpDSRL32, 0x3F: OpDSRA32,
}

var regimmTable = [32]Op{
	0x00: OpBLTZ, 0x01: OpBGEZ, 0x02: OpBLTZL, 0x03: OpBGEZL,
	0x08: OpTGEI, 0x09: OpTGEIU, 0x0A: OpTLTI, 0x0B: OpTLTIU,
	0x0C: OpTEQI, 0x0E: OpTNEI,
	0x10: OpBLTZAL, 0x11: OpBGEZAL, 0x12: OpBLTZALL, 0x13: OpBGEZALL,
}

var tlbTable = [64]Op{
	0x01: OpTLBR, 0x02: OpTLBWI, 0x06: OpTLBWR, 0x08: OpTLBP, 0x18: OpERET,
}

var cop1Table = [64]Op{
	0x00: OpFADD, 0x01: OpFSUB, 0x02: OpFMUL, 0x03: OpFDIV,
	0x04: OpFSQRT, 0x05: OpFABS, 0x06: OpFMOV, 0x07: OpFNEG,
	0x08: OpFROUNDL, 0x09: OpFTRUNCL, 0x0A: OpFCEILL, 0x0B: OpFFLOORL,
	0x0C: OpFROUNDW, 0x0D: OpFTRUNCW, 0x0E: OpFCEILW, 0x0F: OpFFLOORW,
	0x20: OpFCVTS, 0x21: OpFCVTD, 0x24: OpFCVTW, 0x25: OpFCVTL,
}

var cop2Table = [32]Op{
	0x00: OpMFC2, 0x01: OpDMFC2, 0x02: OpCFC2,
	0x04: OpMTC2, 0x05: OpDMTC2, 0x06: OpCTC2,
}
