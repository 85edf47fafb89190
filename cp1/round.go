package cp1

import (
	"math"
)

// RoundingMode is an IEEE rounding mode as encoded in FCR31 bits 0..1.
type RoundingMode uint8

// Rounding modes.
const (
	RoundNearest RoundingMode = 0
	RoundZero    RoundingMode = 1
	RoundUp      RoundingMode = 2
	RoundDown    RoundingMode = 3
)

func (m RoundingMode) String() string {
	switch m {
	case RoundNearest:
		return "nearest"
	case RoundZero:
		return "zero"
	case RoundUp:
		return "up"
	case RoundDown:
		return "down"
	}
	return "invalid"
}

// Go arithmetic always rounds to nearest. Every operation below computes
// the nearest result plus the sign of the rounding error and steps one ulp
// when the selected mode disagrees.

func twoSumErr(a, b, s float64) float64 {
	bb := s - a
	return (a - (s - bb)) + (b - bb)
}

func finite(x float64) bool {
	return !math.IsInf(x, 0) && !math.IsNaN(x)
}

// round64 adjusts s, the nearest rounding of an exact value s+err.
func (m RoundingMode) round64(s, err float64) float64 {
	if m == RoundNearest || err == 0 || !finite(s) || math.IsNaN(err) {
		return s
	}

	switch m {
	case RoundZero:
		if (s > 0 && err < 0) || (s < 0 && err > 0) {
			return math.Nextafter(s, 0)
		}
	case RoundUp:
		if err > 0 {
			return math.Nextafter(s, math.Inf(1))
		}
	case RoundDown:
		if err < 0 {
			return math.Nextafter(s, math.Inf(-1))
		}
	}
	return s
}

// round32 rounds the exact value d+err to single precision.
func (m RoundingMode) round32(d, err float64) float32 {
	f := float32(d)
	if m == RoundNearest || !finite(d) {
		return f
	}

	diff := d - float64(f)
	if diff == 0 {
		diff = err
	}
	if diff == 0 || math.IsNaN(diff) {
		return f
	}

	switch m {
	case RoundZero:
		if (f > 0 && diff < 0) || (f < 0 && diff > 0) {
			return math.Nextafter32(f, 0)
		}
	case RoundUp:
		if diff > 0 {
			return math.Nextafter32(f, float32(math.Inf(1)))
		}
	case RoundDown:
		if diff < 0 {
			return math.Nextafter32(f, float32(math.Inf(-1)))
		}
	}
	return f
}

// AddD adds two doubles.
func (m RoundingMode) AddD(a, b float64) float64 {
	s := a + b
	return m.round64(s, twoSumErr(a, b, s))
}

// SubD subtracts two doubles.
func (m RoundingMode) SubD(a, b float64) float64 {
	return m.AddD(a, -b)
}

// MulD multiplies two doubles.
func (m RoundingMode) MulD(a, b float64) float64 {
	p := a * b
	return m.round64(p, math.FMA(a, b, -p))
}

// DivD divides two doubles.
func (m RoundingMode) DivD(a, b float64) float64 {
	q := a / b
	if !finite(q) || b == 0 {
		return q
	}
	r := math.FMA(-q, b, a)
	if b < 0 {
		r = -r
	}
	return m.round64(q, r)
}

// SqrtD takes the square root of a double.
func (m RoundingMode) SqrtD(a float64) float64 {
	s := math.Sqrt(a)
	if !finite(s) {
		return s
	}
	return m.round64(s, math.FMA(-s, s, a))
}

// AddS adds two singles.
func (m RoundingMode) AddS(a, b float32) float32 {
	x, y := float64(a), float64(b)
	d := x + y
	return m.round32(d, twoSumErr(x, y, d))
}

// SubS subtracts two singles.
func (m RoundingMode) SubS(a, b float32) float32 {
	return m.AddS(a, -b)
}

// MulS multiplies two singles. The double product is exact.
func (m RoundingMode) MulS(a, b float32) float32 {
	return m.round32(float64(a)*float64(b), 0)
}

// DivS divides two singles.
func (m RoundingMode) DivS(a, b float32) float32 {
	x, y := float64(a), float64(b)
	q := x / y
	if !finite(q) || y == 0 {
		return float32(q)
	}
	r := math.FMA(-q, y, x)
	if y < 0 {
		r = -r
	}
	return m.round32(q, r)
}

// SqrtS takes the square root of a single.
func (m RoundingMode) SqrtS(a float32) float32 {
	x := float64(a)
	s := math.Sqrt(x)
	if !finite(s) {
		return float32(s)
	}
	return m.round32(s, math.FMA(-s, s, x))
}

// DToS narrows a double to single precision.
func (m RoundingMode) DToS(d float64) float32 {
	return m.round32(d, 0)
}

// LToD converts a 64-bit integer to double precision.
func (m RoundingMode) LToD(l int64) float64 {
	d := float64(l)
	return m.round64(d, int64Err(l, d))
}

// LToS converts a 64-bit integer to single precision.
func (m RoundingMode) LToS(l int64) float32 {
	d := float64(l)
	return m.round32(d, int64Err(l, d))
}

func int64Err(l int64, d float64) float64 {
	if d >= 0x1p63 {
		return -float64(uint64(1<<63) - uint64(l))
	}
	return float64(l - int64(d))
}

// Integer results of invalid conversions.
const (
	InvalidWord  int32 = math.MaxInt32
	InvalidDword int64 = math.MaxInt64
)

// RoundInt rounds x to an integer value in mode m.
func (m RoundingMode) RoundInt(x float64) float64 {
	switch m {
	case RoundZero:
		return math.Trunc(x)
	case RoundUp:
		return math.Ceil(x)
	case RoundDown:
		return math.Floor(x)
	}
	return math.RoundToEven(x)
}

// ToWord converts x to a 32-bit integer in mode m.
func (m RoundingMode) ToWord(x float64) int32 {
	r := m.RoundInt(x)
	if math.IsNaN(r) || r < math.MinInt32 || r > math.MaxInt32 {
		return InvalidWord
	}
	return int32(r)
}

// ToDword converts x to a 64-bit integer in mode m.
func (m RoundingMode) ToDword(x float64) int64 {
	r := m.RoundInt(x)
	if math.IsNaN(r) || r < -0x1p63 || r >= 0x1p63 {
		return InvalidDword
	}
	return int64(r)
}

// Compare evaluates a C.cond predicate. Conditions 8..15 signal on NaN in
// hardware; the predicate itself matches 0..7.
func Compare(cond uint8, a, b float64) bool {
	unordered := math.IsNaN(a) || math.IsNaN(b)
	if unordered {
		return cond&1 != 0
	}
	return (cond&4 != 0 && a < b) || (cond&2 != 0 && a == b)
}
