package ebml

import (
	"io"
	"math/bits"

	"github.com/cockroachdb/errors"
)

var (
	ErrInvalidVINT = errors.New("ebml: vint is too long")
	ErrInvalidID   = errors.New("ebml: element id is too long")
)

// VINTWidth returns the encoded width of the VINT starting with first, or 0 if
// first cannot start a VINT.
func VINTWidth(first byte) int {
	if first == 0 {
		return 0
	}

	return bits.LeadingZeros8(first) + 1
}

// DecodeVINT decodes the Variable-Size Integer at the start of b.
// Returns the integer, the raw VINT representation and the width in bytes.
// io.ErrUnexpectedEOF is returned when b is shorter than the VINT.
// SEE: https://github.com/ietf-wg-cellar/ebml-specification/blob/master/specification.markdown#variable-size-integer.
func DecodeVINT(b []byte) (uint64, uint64, int, error) {
	if len(b) == 0 {
		return 0, 0, 0, io.ErrUnexpectedEOF
	}

	// NOTE: For sanity reasons, don't expect more than 8B integers
	width := VINTWidth(b[0])
	if width == 0 {
		return 0, 0, 0, ErrInvalidVINT
	}

	if len(b) < width {
		return 0, 0, width, io.ErrUnexpectedEOF
	}

	integer := uint64(b[0] & (0xFF >> width))
	vint := uint64(b[0])
	for j := 1; j < width; j++ {
		integer = integer<<8 | uint64(b[j])
		vint = vint<<8 | uint64(b[j])
	}

	return integer, vint, width, nil
}

// IsUnknownSize reports whether a size VINT of the given width has all of its
// data bits set, which EBML reserves for "unknown size".
func IsUnknownSize(size uint64, width int) bool {
	return width > 0 && size == (uint64(1)<<(7*uint(width)))-1
}
