// Package cp0 implements the R4300i system control coprocessor: its register
// bank, exception entry and return, TLB maintenance operations, and the
// interrupt event queue.
package cp0

// CP0 register indices.
const (
	Index    = 0
	Random   = 1
	EntryLo0 = 2
	EntryLo1 = 3
	Context  = 4
	PageMask = 5
	Wired    = 6
	BadVAddr = 8
	Count    = 9
	EntryHi  = 10
	Compare  = 11
	Status   = 12
	Cause    = 13
	EPC      = 14
	PRevID   = 15
	Config   = 16
	LLAddr   = 17
	WatchLo  = 18
	WatchHi  = 19
	XContext = 20
	TagLo    = 28
	TagHi    = 29
	ErrorEPC = 30

	NumRegs = 32
)

// Status register bits.
const (
	StatusIE  uint32 = 0x00000001
	StatusEXL uint32 = 0x00000002
	StatusERL uint32 = 0x00000004
	StatusIM  uint32 = 0x0000FF00
	StatusBEV uint32 = 0x00400000
	StatusFR  uint32 = 0x04000000
	StatusCU0 uint32 = 0x10000000
	StatusCU1 uint32 = 0x20000000
)

// Cause register bits.
const (
	CauseExcCode uint32 = 0x0000007C
	CauseIP0     uint32 = 0x00000100
	CauseIP1     uint32 = 0x00000200
	CauseIP2     uint32 = 0x00000400
	CauseIP3     uint32 = 0x00000800
	CauseIP4     uint32 = 0x00001000
	CauseIP5     uint32 = 0x00002000
	CauseIP6     uint32 = 0x00004000
	CauseIP7     uint32 = 0x00008000
	CauseIP      uint32 = 0x0000FF00
	CauseCE1     uint32 = 0x10000000
	CauseBD      uint32 = 0x80000000
)

// ExcCode is an exception code as stored in Cause bits 2..6.
type ExcCode uint32

// Exception codes.
const (
	ExcInt  ExcCode = 0
	ExcMod  ExcCode = 1
	ExcTLBL ExcCode = 2
	ExcTLBS ExcCode = 3
	ExcAdEL ExcCode = 4
	ExcAdES ExcCode = 5
	ExcSys  ExcCode = 8
	ExcBp   ExcCode = 9
	ExcRI   ExcCode = 10
	ExcCpU  ExcCode = 11
	ExcOv   ExcCode = 12
	ExcTr   ExcCode = 13
	ExcFPE  ExcCode = 15
)

// Exception vectors.
const (
	vectorBase    uint32 = 0x80000000
	vectorBaseBEV uint32 = 0xBFC00200
	offsetRefill  uint32 = 0x000
	offsetGeneral uint32 = 0x180
)

// Registers is the CP0 register bank. The storage belongs to whichever
// state layout the running engine uses.
type Registers [NumRegs]uint32

// PowerOn loads the architected reset values.
func (r *Registers) PowerOn() {
	*r = Registers{}
	r[Random] = 31
	r[Status] = 0x34000000
	r[Config] = 0x0006E463
	r[PRevID] = 0x00000B00
	r[Count] = 0x5000
	r[Cause] = 0x0000005C
	r[Context] = 0x007FFFF0
	r[EPC] = 0xFFFFFFFF
	r[BadVAddr] = 0xFFFFFFFF
	r[ErrorEPC] = 0xFFFFFFFF
}

var regNames = [NumRegs]string{
	Index: "Index", Random: "Random", EntryLo0: "EntryLo0", EntryLo1: "EntryLo1",
	Context: "Context", PageMask: "PageMask", Wired: "Wired", 7: "Reserved7",
	BadVAddr: "BadVAddr", Count: "Count", EntryHi: "EntryHi", Compare: "Compare",
	Status: "Status", Cause: "Cause", EPC: "EPC", PRevID: "PRevID",
	Config: "Config", LLAddr: "LLAddr", WatchLo: "WatchLo", WatchHi: "WatchHi",
	XContext: "XContext", 21: "Reserved21", 22: "Reserved22", 23: "Reserved23",
	24: "Reserved24", 25: "Reserved25", 26: "PErr", 27: "CacheErr",
	TagLo: "TagLo", TagHi: "TagHi", ErrorEPC: "ErrorEPC", 31: "Reserved31",
}

// RegName returns the architectural name of a CP0 register.
func RegName(reg int) string {
	if reg < 0 || reg >= NumRegs {
		return "invalid"
	}
	return regNames[reg]
}
