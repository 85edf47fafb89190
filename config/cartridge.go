// Package config holds the per-cartridge settings the core is powered on
// with.
package config

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/sarchlab/r4300/emu"
	"github.com/sarchlab/r4300/tlb"
)

// Cartridge holds the settings derived from a cartridge and the user's
// preferences.
type Cartridge struct {
	// Mode is the execution engine: "pure", "cached" or "dynarec".
	// Default: dynarec.
	Mode string `json:"mode" toml:"mode"`

	// CountPerOp is the number of Count cycles each instruction adds.
	// Default: 2.
	CountPerOp uint32 `json:"count_per_op" toml:"count_per_op"`

	// BootAddress is the virtual address execution starts at.
	// Default: 0xA4000040.
	BootAddress uint32 `json:"boot_address" toml:"boot_address"`

	// Compat names a per-title translation workaround: "none",
	// "goldeneye" or "ratattack".
	Compat string `json:"compat" toml:"compat"`

	// Country is the region byte of the cartridge header.
	Country uint8 `json:"country" toml:"country"`

	// VIPeriod is the number of Count cycles between video interrupts.
	// Zero disables them. Default: 781250 (one NTSC field).
	VIPeriod uint32 `json:"vi_period" toml:"vi_period"`

	// RDRAMSize is the size of main memory in bytes. Default: 8 MiB.
	RDRAMSize uint32 `json:"rdram_size" toml:"rdram_size"`

	// BlockCacheSize is the number of blocks the block engines keep.
	// Default: 2048.
	BlockCacheSize int `json:"block_cache_size" toml:"block_cache_size"`

	// SyncInterval is the number of video frames between consistency
	// checks. Zero disables them. Default: 600.
	SyncInterval uint32 `json:"sync_interval" toml:"sync_interval"`
}

// Default returns a Cartridge with the stock settings.
func Default() *Cartridge {
	return &Cartridge{
		Mode:           emu.ModeDynarec.String(),
		CountPerOp:     2,
		BootAddress:    emu.DefaultBootAddress,
		Compat:         tlb.CompatNone.String(),
		Country:        tlb.CountryUS,
		VIPeriod:       781250,
		RDRAMSize:      0x800000,
		BlockCacheSize: 2048,
		SyncInterval:   600,
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load reads a Cartridge from a JSON or TOML file, chosen by extension.
// Missing fields keep their defaults.
func Load(fs afero.Fs, path string) (*Cartridge, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read cartridge config file")
	}

	c := Default()
	if isTOML(path) {
		err = toml.Unmarshal(data, c)
	} else {
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse cartridge config %s", path)
	}

	return c, nil
}

// Save writes the Cartridge to a JSON or TOML file, chosen by extension.
func (c *Cartridge) Save(fs afero.Fs, path string) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(c)
		data = buf.Bytes()
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return errors.Wrap(err, "failed to serialize cartridge config")
	}

	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write cartridge config file")
	}

	return nil
}

// Validate checks every field and reports all problems at once.
func (c *Cartridge) Validate() error {
	var result *multierror.Error

	if _, err := emu.ParseMode(c.Mode); err != nil {
		result = multierror.Append(result, err)
	}
	if c.CountPerOp == 0 || c.CountPerOp > 4 {
		result = multierror.Append(result, errors.New("count_per_op must be between 1 and 4"))
	}
	if c.BootAddress&3 != 0 {
		result = multierror.Append(result, errors.New("boot_address must be word aligned"))
	}
	if _, ok := tlb.ParseCompat(c.Compat); !ok {
		result = multierror.Append(result, errors.Errorf("unknown compat flag %q", c.Compat))
	}
	if c.RDRAMSize == 0 || c.RDRAMSize%0x10000 != 0 {
		result = multierror.Append(result, errors.New("rdram_size must be a non-zero multiple of 64 KiB"))
	}
	if c.RDRAMSize > 0x03F00000 {
		result = multierror.Append(result, errors.New("rdram_size overlaps the register space"))
	}
	if c.BlockCacheSize <= 0 {
		result = multierror.Append(result, errors.New("block_cache_size must be > 0"))
	}

	return result.ErrorOrNil()
}

// Clone returns a copy of the Cartridge.
func (c *Cartridge) Clone() *Cartridge {
	clone := *c
	return &clone
}

// CoreOptions converts the settings into core options.
func (c *Cartridge) CoreOptions() ([]emu.CoreOption, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	mode, _ := emu.ParseMode(c.Mode)
	compat, _ := tlb.ParseCompat(c.Compat)

	return []emu.CoreOption{
		emu.WithMode(mode),
		emu.WithCountPerOp(c.CountPerOp),
		emu.WithBootAddress(c.BootAddress),
		emu.WithCompat(compat, c.Country),
		emu.WithBlockCacheSize(c.BlockCacheSize),
	}, nil
}
