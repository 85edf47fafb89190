package benchmarks

import "math"

// GetMicrobenchmarks returns the standard set of microbenchmarks. Each one
// targets a different part of the core.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticLoop(),
		dependencyChain(),
		memorySequential(),
		functionCalls(),
		branchHeavy(),
		floatAccumulate(),
	}
}

// GetCoreBenchmarks returns a minimal set for quick validation.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticLoop(),
		functionCalls(),
		branchHeavy(),
	}
}

// 1. Arithmetic Loop - independent ALU operations in a counted loop
func arithmeticLoop() Benchmark {
	return Benchmark{
		Name:        "arithmetic_loop",
		Description: "1000 iterations of independent ADDIUs",
		Program: []uint32{
			EncodeADDIU(8, 0, 1000),
			EncodeADDIU(2, 2, 1),
			EncodeADDIU(9, 9, 3),
			EncodeADDIU(8, 8, -1),
			EncodeBNE(8, 0, -4),
			NOP,
			EncodeIdle(),
			NOP,
		},
		Exit:     6,
		Result:   2,
		Expected: 1000,
	}
}

// 2. Dependency Chain - back-to-back dependent adds, one in a delay slot
func dependencyChain() Benchmark {
	return Benchmark{
		Name:        "dependency_chain",
		Description: "3000 dependent ADDUs",
		Program: []uint32{
			EncodeADDIU(8, 0, 1000),
			EncodeADDIU(3, 0, 1),
			EncodeADDU(2, 2, 3),
			EncodeADDU(2, 2, 3),
			EncodeADDIU(8, 8, -1),
			EncodeBNE(8, 0, -4),
			EncodeADDU(2, 2, 3),
			EncodeIdle(),
			NOP,
		},
		Exit:     7,
		Result:   2,
		Expected: 3000,
	}
}

// 3. Memory Sequential - store and reload 256 words through kseg0
func memorySequential() Benchmark {
	return Benchmark{
		Name:        "memory_sequential",
		Description: "SW/LW pairs over 1 KiB of RDRAM",
		Program: []uint32{
			EncodeLUI(4, 0x8000),
			EncodeORI(4, 4, 0x1000),
			EncodeADDIU(8, 0, 256),
			EncodeSW(8, 4, 0),
			EncodeLW(5, 4, 0),
			EncodeADDU(2, 2, 5),
			EncodeADDIU(8, 8, -1),
			EncodeBNE(8, 0, -5),
			EncodeADDIU(4, 4, 4),
			EncodeIdle(),
			NOP,
		},
		Exit:     9,
		Result:   2,
		Expected: 256 * 257 / 2,
	}
}

// 4. Function Calls - JAL/JR round trips to a leaf function
func functionCalls() Benchmark {
	leaf := bootVirt + 8*4
	return Benchmark{
		Name:        "function_calls",
		Description: "500 calls to a leaf function",
		Program: []uint32{
			EncodeADDIU(8, 0, 500),
			EncodeJAL(leaf),
			NOP,
			EncodeADDIU(8, 8, -1),
			EncodeBNE(8, 0, -4),
			NOP,
			EncodeIdle(),
			NOP,
			// leaf:
			EncodeADDIU(2, 2, 1),
			EncodeJR(31),
			NOP,
		},
		Exit:     6,
		Result:   2,
		Expected: 500,
	}
}

// 5. Branch Heavy - a conditional branch that alternates every iteration
func branchHeavy() Benchmark {
	return Benchmark{
		Name:        "branch_heavy",
		Description: "1000 iterations counting odd numbers",
		Program: []uint32{
			EncodeADDIU(8, 0, 1000),
			EncodeANDI(9, 8, 1),
			EncodeBEQ(9, 0, 2),
			NOP,
			EncodeADDIU(2, 2, 1),
			EncodeADDIU(8, 8, -1),
			EncodeBNE(8, 0, -6),
			NOP,
			EncodeIdle(),
			NOP,
		},
		Exit:     8,
		Result:   2,
		Expected: 500,
	}
}

// 6. Float Accumulate - single-precision adds through CP1
func floatAccumulate() Benchmark {
	return Benchmark{
		Name:        "float_accumulate",
		Description: "200 ADD.S accumulations of 1.0",
		Program: []uint32{
			EncodeADDIU(8, 0, 200),
			EncodeLUI(9, 0x3F80),
			EncodeMTC1(9, 2),
			EncodeMTC1(0, 0),
			EncodeADDS(0, 0, 2),
			EncodeADDIU(8, 8, -1),
			EncodeBNE(8, 0, -3),
			NOP,
			EncodeMFC1(2, 0),
			EncodeIdle(),
			NOP,
		},
		Exit:     9,
		Result:   2,
		Expected: uint64(math.Float32bits(200)),
	}
}
