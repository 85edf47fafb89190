package config

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/sarchlab/r4300/tlb"
)

// HeaderSize is the size of a cartridge header.
const HeaderSize = 0x40

// ErrShortHeader is returned when a header is smaller than HeaderSize.
var ErrShortHeader = errors.New("config: cartridge header too short")

const (
	nameOffset    = 0x20
	nameLength    = 20
	countryOffset = 0x3E
)

var compatTitles = map[string]tlb.Compat{
	"GOLDENEYE":  tlb.CompatGoldenEye,
	"RAT ATTACK": tlb.CompatRatAttack,
}

// Title returns the internal name stored in a big-endian cartridge header.
func Title(header []byte) (string, error) {
	if len(header) < HeaderSize {
		return "", errors.Wrapf(ErrShortHeader, "%d bytes", len(header))
	}
	name := header[nameOffset : nameOffset+nameLength]
	return string(bytes.TrimRight(name, " \x00")), nil
}

// Detect derives the compat flag and country from a big-endian cartridge
// header and applies them to a copy of base.
func Detect(base *Cartridge, header []byte) (*Cartridge, error) {
	title, err := Title(header)
	if err != nil {
		return nil, err
	}

	c := base.Clone()
	c.Country = header[countryOffset]
	c.Compat = tlb.CompatNone.String()
	if compat, ok := compatTitles[title]; ok {
		c.Compat = compat.String()
	}

	return c, nil
}
