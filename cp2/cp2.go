// Package cp2 models the R4300i side of coprocessor 2: a single 64-bit
// latch that register moves pass through.
package cp2

// CP2 is the coprocessor 2 latch. The latch storage belongs to the active
// state layout.
type CP2 struct {
	latch *uint64
}

// New creates a CP2 over the given latch storage.
func New(latch *uint64) *CP2 {
	return &CP2{latch: latch}
}

// PowerOn clears the latch.
func (c *CP2) PowerOn() {
	*c.latch = 0
}

// Latch returns the latch value.
func (c *CP2) Latch() uint64 {
	return *c.latch
}

// MFC2 returns the low word of the latch, sign-extended.
func (c *CP2) MFC2() uint64 {
	return uint64(int64(int32(*c.latch)))
}

// DMFC2 returns the whole latch.
func (c *CP2) DMFC2() uint64 {
	return *c.latch
}

// MTC2 writes the latch from a general register.
func (c *CP2) MTC2(v uint64) {
	*c.latch = v
}

// DMTC2 writes the latch from a general register.
func (c *CP2) DMTC2(v uint64) {
	*c.latch = v
}

// CFC2 reads a control register through the latch.
func (c *CP2) CFC2() uint64 {
	return uint64(int64(int32(*c.latch)))
}

// CTC2 writes a control register through the latch.
func (c *CP2) CTC2(v uint64) {
	*c.latch = v
}
