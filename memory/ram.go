package memory

import (
	"encoding/binary"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
)

// ErrOutOfRange is returned when data does not fit into a region.
var ErrOutOfRange = errors.New("memory: data outside region")

// RAM is a big-endian read/write region.
type RAM struct {
	data []byte
}

// NewRAM creates a zeroed RAM of size bytes.
func NewRAM(size uint32) *RAM {
	return &RAM{data: make([]byte, size)}
}

// Size returns the size in bytes.
func (r *RAM) Size() uint32 {
	return uint32(len(r.data))
}

// Bytes returns the backing storage.
func (r *RAM) Bytes() []byte {
	return r.data
}

// Load copies data into the region at offset.
func (r *RAM) Load(offset uint32, data []byte) error {
	if uint64(offset)+uint64(len(data)) > uint64(len(r.data)) {
		return errors.Wrapf(ErrOutOfRange, "offset 0x%X length 0x%X", offset, len(data))
	}
	copy(r.data[offset:], data)
	return nil
}

// ReadWord implements Handler.
func (r *RAM) ReadWord(offset uint32) uint32 {
	if offset+4 > uint32(len(r.data)) {
		return 0
	}
	return binary.BigEndian.Uint32(r.data[offset:])
}

// WriteWord implements Handler.
func (r *RAM) WriteWord(offset, value, mask uint32) {
	if offset+4 > uint32(len(r.data)) {
		return
	}
	old := binary.BigEndian.Uint32(r.data[offset:])
	binary.BigEndian.PutUint32(r.data[offset:], old&^mask|value&mask)
}

// ROM is a big-endian read-only region. Writes are logged and dropped.
type ROM struct {
	RAM
	logger logr.Logger
}

// NewROM creates a ROM holding a copy of data, padded to a multiple of
// 64 KiB.
func NewROM(data []byte, logger logr.Logger) *ROM {
	size := (uint32(len(data)) + 0xFFFF) &^ 0xFFFF
	if size == 0 {
		size = 0x10000
	}
	rom := &ROM{RAM: RAM{data: make([]byte, size)}, logger: logger}
	copy(rom.data, data)
	return rom
}

// WriteWord implements Handler.
func (r *ROM) WriteWord(offset, value, _ uint32) {
	r.logger.V(1).Info("write to rom", "offset", offset, "value", value)
}
