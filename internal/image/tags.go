package image

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// TIFF tags read from the first IFD.
const (
	TagImageDescription uint16 = 270
	TagCZSEM            uint16 = 34118
)

// ErrNotTIFF is returned when the header is neither "II" nor "MM".
var ErrNotTIFF = errors.New("not a valid TIFF file")

// fieldSizes maps TIFF field types to their element size in bytes.
var fieldSizes = map[uint16]uint32{
	1:  1, // BYTE
	2:  1, // ASCII
	3:  2, // SHORT
	4:  4, // LONG
	5:  8, // RATIONAL
	6:  1, // SBYTE
	7:  1, // UNDEFINED
	8:  2, // SSHORT
	9:  4, // SLONG
	10: 8, // SRATIONAL
	11: 4, // FLOAT
	12: 8, // DOUBLE
}

// maxTagBytes bounds a single tag value; anything larger is a corrupt count.
const maxTagBytes = 64 << 20

// readTags returns the raw value bytes of the wanted tags found in the first
// IFD. Tags that are absent are simply missing from the map.
func readTags(r io.ReaderAt, wanted ...uint16) (map[uint16][]byte, error) {
	// Read TIFF header to determine byte order
	header := make([]byte, 8)
	if _, err := r.ReadAt(header, 0); err != nil {
		return nil, errors.Wrap(err, "read TIFF header")
	}

	var byteOrder binary.ByteOrder
	if header[0] == 'I' && header[1] == 'I' {
		byteOrder = binary.LittleEndian
	} else if header[0] == 'M' && header[1] == 'M' {
		byteOrder = binary.BigEndian
	} else {
		return nil, ErrNotTIFF
	}

	// Get offset to first IFD
	ifdOffset := int64(byteOrder.Uint32(header[4:8]))

	countBuf := make([]byte, 2)
	if _, err := r.ReadAt(countBuf, ifdOffset); err != nil {
		return nil, errors.Wrap(err, "read IFD entry count")
	}
	numEntries := int64(byteOrder.Uint16(countBuf))

	want := make(map[uint16]bool, len(wanted))
	for _, t := range wanted {
		want[t] = true
	}

	found := make(map[uint16][]byte)
	entry := make([]byte, 12)
	for i := int64(0); i < numEntries; i++ {
		if _, err := r.ReadAt(entry, ifdOffset+2+i*12); err != nil {
			return nil, errors.Wrapf(err, "read IFD entry %d", i)
		}

		tag := byteOrder.Uint16(entry[0:2])
		if !want[tag] {
			continue
		}
		fieldType := byteOrder.Uint16(entry[2:4])
		count := byteOrder.Uint32(entry[4:8])

		size, ok := fieldSizes[fieldType]
		if !ok {
			continue
		}
		n := uint64(size) * uint64(count)
		if n > maxTagBytes {
			return nil, errors.Errorf("tag %d: value of %d bytes is too large", tag, n)
		}

		value := make([]byte, n)
		if n <= 4 {
			// Small values are stored inline in the offset field
			copy(value, entry[8:8+n])
		} else {
			valueOffset := int64(byteOrder.Uint32(entry[8:12]))
			if _, err := r.ReadAt(value, valueOffset); err != nil {
				return nil, errors.Wrapf(err, "read tag %d value", tag)
			}
		}
		found[tag] = value
	}

	return found, nil
}
