package tlb

// Compat identifies a per-title translation workaround.
type Compat uint8

// Compatibility flags.
const (
	CompatNone Compat = iota

	// CompatGoldenEye remaps [0x7F000000, 0x80000000) onto cartridge ROM.
	CompatGoldenEye

	// CompatRatAttack ignores TLB misses instead of raising a refill.
	CompatRatAttack
)

// String returns the flag's configuration name.
func (c Compat) String() string {
	switch c {
	case CompatGoldenEye:
		return "goldeneye"
	case CompatRatAttack:
		return "ratattack"
	}
	return "none"
}

// ParseCompat converts a configuration name into a Compat. Unknown names
// map to CompatNone and ok is false.
func ParseCompat(s string) (c Compat, ok bool) {
	switch s {
	case "", "none":
		return CompatNone, true
	case "goldeneye":
		return CompatGoldenEye, true
	case "ratattack":
		return CompatRatAttack, true
	}
	return CompatNone, false
}

// Region bytes from the cartridge header.
const (
	CountryUS     byte = 0x45
	CountryJapan  byte = 0x4A
	CountryEurope byte = 0x50
)

func goldenEyeAddress(country byte, vaddr uint32) uint32 {
	var base uint32
	switch country {
	case CountryJapan:
		base = 0xB0034B70
	case CountryEurope:
		base = 0xB00329F0
	default:
		base = 0xB0034B30
	}
	return (base + vaddr&0xFFFFFF) & 0x1FFFFFFF
}
