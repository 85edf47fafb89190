package emu

import (
	"github.com/sarchlab/r4300/insts"
)

// handlers maps every operation to its implementation. It is filled in
// init because handlers reach back into the table through branch delay
// slots.
var handlers [insts.NumOps]Handler

func init() {
	for op := range handlers {
		handlers[op] = opUnknown
	}

	for op, h := range map[insts.Op]Handler{
		insts.OpSLL: opSLL, insts.OpSRL: opSRL, insts.OpSRA: opSRA,
		insts.OpSLLV: opSLLV, insts.OpSRLV: opSRLV, insts.OpSRAV: opSRAV,
		insts.OpDSLL: opDSLL, insts.OpDSRL: opDSRL, insts.OpDSRA: opDSRA,
		insts.OpDSLL32: opDSLL32, insts.OpDSRL32: opDSRL32, insts.OpDSRA32: opDSRA32,
		insts.OpDSLLV: opDSLLV, insts.OpDSRLV: opDSRLV, insts.OpDSRAV: opDSRAV,

		insts.OpADD: opADD, insts.OpADDU: opADDU, insts.OpSUB: opSUB, insts.OpSUBU: opSUBU,
		insts.OpDADD: opDADD, insts.OpDADDU: opDADDU, insts.OpDSUB: opDSUB, insts.OpDSUBU: opDSUBU,
		insts.OpADDI: opADDI, insts.OpADDIU: opADDIU,
		insts.OpDADDI: opDADDI, insts.OpDADDIU: opDADDIU,

		insts.OpAND: opAND, insts.OpOR: opOR, insts.OpXOR: opXOR, insts.OpNOR: opNOR,
		insts.OpANDI: opANDI, insts.OpORI: opORI, insts.OpXORI: opXORI, insts.OpLUI: opLUI,
		insts.OpSLT: opSLT, insts.OpSLTU: opSLTU, insts.OpSLTI: opSLTI, insts.OpSLTIU: opSLTIU,

		insts.OpMULT: opMULT, insts.OpMULTU: opMULTU, insts.OpDIV: opDIV, insts.OpDIVU: opDIVU,
		insts.OpDMULT: opDMULT, insts.OpDMULTU: opDMULTU, insts.OpDDIV: opDDIV, insts.OpDDIVU: opDDIVU,
		insts.OpMFHI: opMFHI, insts.OpMFLO: opMFLO, insts.OpMTHI: opMTHI, insts.OpMTLO: opMTLO,

		insts.OpSYSCALL: opSYSCALL, insts.OpBREAK: opBREAK, insts.OpSYNC: opSYNC, insts.OpCACHE: opCACHE,
		insts.OpTGE: opTGE, insts.OpTGEU: opTGEU, insts.OpTLT: opTLT, insts.OpTLTU: opTLTU,
		insts.OpTEQ: opTEQ, insts.OpTNE: opTNE,
		insts.OpTGEI: opTGEI, insts.OpTGEIU: opTGEIU, insts.OpTLTI: opTLTI, insts.OpTLTIU: opTLTIU,
		insts.OpTEQI: opTEQI, insts.OpTNEI: opTNEI,

		insts.OpJ: opJ, insts.OpJAL: opJAL, insts.OpJR: opJR, insts.OpJALR: opJALR,
		insts.OpBEQ: opBEQ, insts.OpBNE: opBNE, insts.OpBLEZ: opBLEZ, insts.OpBGTZ: opBGTZ,
		insts.OpBLTZ: opBLTZ, insts.OpBGEZ: opBGEZ, insts.OpBLTZAL: opBLTZAL, insts.OpBGEZAL: opBGEZAL,
		insts.OpBEQL: opBEQL, insts.OpBNEL: opBNEL, insts.OpBLEZL: opBLEZL, insts.OpBGTZL: opBGTZL,
		insts.OpBLTZL: opBLTZL, insts.OpBGEZL: opBGEZL,
		insts.OpBLTZALL: opBLTZALL, insts.OpBGEZALL: opBGEZALL,
		insts.OpBC1F: opBC1F, insts.OpBC1T: opBC1T, insts.OpBC1FL: opBC1FL, insts.OpBC1TL: opBC1TL,

		insts.OpLB: opLB, insts.OpLBU: opLBU, insts.OpLH: opLH, insts.OpLHU: opLHU,
		insts.OpLW: opLW, insts.OpLWU: opLWU, insts.OpLD: opLD,
		insts.OpLL: opLL, insts.OpLLD: opLLD,
		insts.OpLWL: opLWL, insts.OpLWR: opLWR, insts.OpLDL: opLDL, insts.OpLDR: opLDR,
		insts.OpSB: opSB, insts.OpSH: opSH, insts.OpSW: opSW, insts.OpSD: opSD,
		insts.OpSC: opSC, insts.OpSCD: opSCD,
		insts.OpSWL: opSWL, insts.OpSWR: opSWR, insts.OpSDL: opSDL, insts.OpSDR: opSDR,
		insts.OpLWC1: opLWC1, insts.OpLDC1: opLDC1, insts.OpSWC1: opSWC1, insts.OpSDC1: opSDC1,

		insts.OpMFC0: opMFC0, insts.OpDMFC0: opDMFC0, insts.OpMTC0: opMTC0, insts.OpDMTC0: opMTC0,
		insts.OpTLBR: opTLBR, insts.OpTLBWI: opTLBWI, insts.OpTLBWR: opTLBWR, insts.OpTLBP: opTLBP,
		insts.OpERET: opERET,

		insts.OpMFC1: opMFC1, insts.OpDMFC1: opDMFC1, insts.OpCFC1: opCFC1,
		insts.OpMTC1: opMTC1, insts.OpDMTC1: opDMTC1, insts.OpCTC1: opCTC1,
		insts.OpFADD: opFADD, insts.OpFSUB: opFSUB, insts.OpFMUL: opFMUL, insts.OpFDIV: opFDIV,
		insts.OpFSQRT: opFSQRT, insts.OpFABS: opFABS, insts.OpFNEG: opFNEG, insts.OpFMOV: opFMOV,
		insts.OpFROUNDL: opFROUNDL, insts.OpFTRUNCL: opFTRUNCL, insts.OpFCEILL: opFCEILL, insts.OpFFLOORL: opFFLOORL,
		insts.OpFROUNDW: opFROUNDW, insts.OpFTRUNCW: opFTRUNCW, insts.OpFCEILW: opFCEILW, insts.OpFFLOORW: opFFLOORW,
		insts.OpFCVTS: opFCVTS, insts.OpFCVTD: opFCVTD, insts.OpFCVTW: opFCVTW, insts.OpFCVTL: opFCVTL,
		insts.OpFC: opFC,

		insts.OpMFC2: opMFC2, insts.OpDMFC2: opDMFC2, insts.OpCFC2: opCFC2,
		insts.OpMTC2: opMTC2, insts.OpDMTC2: opDMTC2, insts.OpCTC2: opCTC2,
	} {
		handlers[op] = h
	}
}

// HandlerFor returns the implementation of op.
func HandlerFor(op insts.Op) Handler {
	if int(op) >= len(handlers) {
		return opUnknown
	}
	return handlers[op]
}
