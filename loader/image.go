package loader

import (
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/sarchlab/r4300/memory"
)

// ByteOrder is the on-disk layout of a cartridge image.
type ByteOrder uint8

// Cartridge image layouts, named after their usual file extensions.
const (
	OrderUnknown ByteOrder = iota
	OrderZ64               // big-endian, native
	OrderV64               // byte-swapped halfwords
	OrderN64               // little-endian words
)

func (o ByteOrder) String() string {
	switch o {
	case OrderZ64:
		return "z64"
	case OrderV64:
		return "v64"
	case OrderN64:
		return "n64"
	}
	return "unknown"
}

// ErrUnknownImage is returned for a cartridge image whose first word is
// not a known header magic.
var ErrUnknownImage = errors.New("loader: unrecognised cartridge image")

// DetectOrder identifies the layout of a cartridge image from its first
// word.
func DetectOrder(image []byte) ByteOrder {
	if len(image) < 4 {
		return OrderUnknown
	}
	switch {
	case image[0] == 0x80 && image[1] == 0x37 && image[2] == 0x12 && image[3] == 0x40:
		return OrderZ64
	case image[0] == 0x37 && image[1] == 0x80 && image[2] == 0x40 && image[3] == 0x12:
		return OrderV64
	case image[0] == 0x40 && image[1] == 0x12 && image[2] == 0x37 && image[3] == 0x80:
		return OrderN64
	}
	return OrderUnknown
}

// Normalize converts a cartridge image to big-endian in place.
func Normalize(image []byte) (ByteOrder, error) {
	order := DetectOrder(image)
	switch order {
	case OrderZ64:
	case OrderV64:
		for i := 0; i+1 < len(image); i += 2 {
			image[i], image[i+1] = image[i+1], image[i]
		}
	case OrderN64:
		for i := 0; i+3 < len(image); i += 4 {
			image[i], image[i+1], image[i+2], image[i+3] =
				image[i+3], image[i+2], image[i+1], image[i]
		}
	default:
		return order, ErrUnknownImage
	}
	return order, nil
}

// ReadCartridge reads a cartridge image from fs and returns it in
// big-endian order.
func ReadCartridge(fs afero.Fs, path string) ([]byte, error) {
	image, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read cartridge image")
	}
	if _, err := Normalize(image); err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return image, nil
}

// Raw is a flat memory image placed at a physical address.
type Raw struct {
	Base uint32
	Data []byte
}

// ReadRaw reads a flat big-endian image from fs.
func ReadRaw(fs afero.Fs, path string, base uint32) (*Raw, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read raw image")
	}
	return &Raw{Base: base, Data: data}, nil
}

// Install copies the image into physical memory.
func (r *Raw) Install(bus memory.Bus) {
	writeBytes(bus, r.Base, r.Data)
}
