package ebml

import "fmt"

// MaxHeaderSize is the longest element header: a 4 byte id and an 8 byte size.
const MaxHeaderSize = 12

type Header struct {
	// ID is the element id including its VINT marker bits, e.g. 0x1A45DFA3.
	ID uint32
	// Size defines how many bytes of data the element contains.
	Size uint64
	// HeaderSize is the encoded length of the id and size fields.
	HeaderSize int
	// UnknownSize is set when the size field has all data bits set.
	UnknownSize bool
}

func (h Header) String() string {
	return fmt.Sprintf("0x%X (%d)", h.ID, h.Size)
}

// DecodeID decodes the element id at the start of b and returns it with its
// width.
func DecodeID(b []byte) (uint32, int, error) {
	_, vint, width, err := DecodeVINT(b)
	if err != nil {
		return 0, width, err
	}

	if width > 4 {
		return 0, width, ErrInvalidID
	}

	return uint32(vint), width, nil
}

// DecodeHeader decodes the element header at the start of b.
// io.ErrUnexpectedEOF is returned when b does not hold a complete header.
func DecodeHeader(b []byte) (Header, error) {
	id, idWidth, idErr := DecodeID(b)
	if idErr != nil {
		return Header{}, idErr
	}

	size, _, sizeWidth, sizeErr := DecodeVINT(b[idWidth:])
	if sizeErr != nil {
		return Header{}, sizeErr
	}

	return Header{
		ID:          id,
		Size:        size,
		HeaderSize:  idWidth + sizeWidth,
		UnknownSize: IsUnknownSize(size, sizeWidth),
	}, nil
}
