// Package cp1 implements the R4300i floating-point register bank with its
// 32-bit and 64-bit register views, and the FPU control registers.
package cp1

import (
	"encoding/binary"

	"github.com/go-logr/logr"
)

// NumRegs is the number of logical FPU registers.
const NumRegs = 32

// BankSize is the size of the register bank in bytes.
const BankSize = NumRegs * 8

// Bank is the raw FPU register storage: 32 64-bit slots laid out in the
// configured byte order. The storage belongs to the active state layout.
type Bank [BankSize]byte

// FCR0 is the implementation/revision register value.
const FCR0 uint32 = 0x511

// FCR31 bits.
const (
	FCR31RoundingMask uint32 = 0x00000003
	FCR31Condition    uint32 = 0x00800000
	FCR31FS           uint32 = 0x01000000
)

// FPU is coprocessor 1.
type FPU struct {
	bank  *Bank
	order binary.ByteOrder

	// lowWord is the index of the low 32-bit word inside a 64-bit slot.
	lowWord int

	fr    bool
	fcr31 uint32

	logger logr.Logger
}

// Option configures an FPU.
type Option func(*FPU)

// WithByteOrder sets the byte order of the bank. It defaults to the host's.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(f *FPU) {
		f.order = order
	}
}

// WithLogger sets the logger.
func WithLogger(l logr.Logger) Option {
	return func(f *FPU) {
		f.logger = l
	}
}

// New creates an FPU over bank.
func New(bank *Bank, opts ...Option) *FPU {
	f := &FPU{
		bank:   bank,
		order:  binary.NativeEndian,
		logger: logr.Discard(),
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.order.Uint16([]byte{0, 1}) == 1 {
		f.lowWord = 1
	}

	return f
}

// PowerOn clears the bank and control state and selects the register view
// for status.
func (f *FPU) PowerOn(status uint32) {
	*f.bank = Bank{}
	f.fcr31 = 0
	f.fr = status&statusFR != 0
}

const statusFR = 0x04000000

// Bank returns the raw register storage.
func (f *FPU) Bank() *Bank {
	return f.bank
}

// ByteOrder returns the bank's byte order.
func (f *FPU) ByteOrder() binary.ByteOrder {
	return f.order
}

// FR reports whether the 64-bit register view is active.
func (f *FPU) FR() bool {
	return f.fr
}

// SyncMode selects the register view for status without moving data. It
// is used after restoring a bank that was saved in that view.
func (f *FPU) SyncMode(status uint32) {
	f.fr = status&statusFR != 0
}

func (f *FPU) word(k int) uint32 {
	return f.order.Uint32(f.bank[4*k:])
}

func (f *FPU) setWord(k int, v uint32) {
	f.order.PutUint32(f.bank[4*k:], v)
}

func (f *FPU) slot(i int) uint64 {
	return f.order.Uint64(f.bank[8*i:])
}

func (f *FPU) setSlot(i int, v uint64) {
	f.order.PutUint64(f.bank[8*i:], v)
}

func (f *FPU) wordIndex(n uint8) int {
	i := int(n & 0x1F)
	if f.fr {
		return 2*i + f.lowWord
	}
	return 2*(i>>1) + (i&1 ^ f.lowWord)
}

func (f *FPU) slotIndex(n uint8) int {
	i := int(n & 0x1F)
	if f.fr {
		return i
	}
	return i >> 1
}

// Word reads the 32-bit view of register n.
func (f *FPU) Word(n uint8) uint32 {
	return f.word(f.wordIndex(n))
}

// SetWord writes the 32-bit view of register n.
func (f *FPU) SetWord(n uint8, v uint32) {
	f.setWord(f.wordIndex(n), v)
}

// Dword reads the 64-bit view of register n.
func (f *FPU) Dword(n uint8) uint64 {
	return f.slot(f.slotIndex(n))
}

// SetDword writes the 64-bit view of register n.
func (f *FPU) SetDword(n uint8, v uint64) {
	f.setSlot(f.slotIndex(n), v)
}

// SetMode applies a Status write. The bank is reshuffled exactly when the
// FR bit changes; it reports whether that happened.
func (f *FPU) SetMode(oldStatus, newStatus uint32) bool {
	oldFR := oldStatus&statusFR != 0
	newFR := newStatus&statusFR != 0
	f.fr = newFR
	if oldFR == newFR {
		return false
	}

	if newFR {
		f.unpack()
	} else {
		f.pack()
	}
	return true
}

// unpack moves from 16 packed register pairs to 32 64-bit registers. The
// high halves come back from the shadow area in slots 16..31.
func (f *FPU) unpack() {
	var fgr [NumRegs]uint32
	for i := 0; i < NumRegs; i++ {
		fgr[i] = f.word(2*(i>>1) + (i&1 ^ f.lowWord))
	}

	for i := 0; i < NumRegs; i++ {
		high := f.word(2*(i>>1+16) + i&1)
		f.setWord(2*i+f.lowWord, fgr[i])
		f.setWord(2*i+(f.lowWord^1), high)
	}
}

// pack moves from 32 64-bit registers to 16 register pairs. The high half
// of every register is kept in the shadow area in slots 16..31.
func (f *FPU) pack() {
	var high [NumRegs]uint32
	for i := 0; i < NumRegs; i++ {
		high[i] = f.word(2*i + (f.lowWord ^ 1))
	}

	for i := 0; i < NumRegs/2; i++ {
		least := f.word(2*(2*i) + f.lowWord)
		most := f.word(2*(2*i+1) + f.lowWord)
		f.setSlot(i, uint64(most)<<32|uint64(least))
	}

	for i := 0; i < NumRegs; i++ {
		f.setWord(2*(i>>1+16)+i&1, high[i])
	}
}

// FCR31 returns the control/status register.
func (f *FPU) FCR31() uint32 {
	return f.fcr31
}

// SetFCR31 writes the control/status register directly.
func (f *FPU) SetFCR31(v uint32) {
	f.fcr31 = v
}

// Rounding returns the rounding mode selected by FCR31.
func (f *FPU) Rounding() RoundingMode {
	return RoundingMode(f.fcr31 & FCR31RoundingMask)
}

// Condition returns the compare condition bit.
func (f *FPU) Condition() bool {
	return f.fcr31&FCR31Condition != 0
}

// SetCondition writes the compare condition bit.
func (f *FPU) SetCondition(c bool) {
	if c {
		f.fcr31 |= FCR31Condition
	} else {
		f.fcr31 &^= FCR31Condition
	}
}

// ReadControl implements CFC1.
func (f *FPU) ReadControl(reg uint8) uint32 {
	switch reg {
	case 0:
		return FCR0
	case 31:
		return f.fcr31
	}
	f.logger.V(1).Info("read of unimplemented fpu control register", "reg", reg)
	return 0
}

// WriteControl implements CTC1.
func (f *FPU) WriteControl(reg uint8, v uint32) {
	if reg != 31 {
		f.logger.V(1).Info("write to unimplemented fpu control register", "reg", reg, "value", v)
		return
	}
	f.fcr31 = v
}
