package ebml

import (
	"github.com/cockroachdb/errors"
)

// Parse decodes every element contained in b. offset is the absolute byte
// offset of b[0] and is used for the elements' Offset fields. Master elements
// are decoded recursively; an unknown-size master extends to the end of its
// parent.
func Parse(b []byte, offset int64, schema Schema) ([]*Element, error) {
	var elements []*Element
	position := 0

	for position < len(b) {
		// Trailing zero padding is not an element
		if b[position] == 0 {
			break
		}

		element, elementErr := parseElement(b[position:], offset+int64(position), schema)
		if elementErr != nil {
			return elements, errors.Wrapf(elementErr, "failed to parse element at offset %d", offset+int64(position))
		}

		elements = append(elements, element)
		position += element.HeaderSize + int(element.Size)
	}

	return elements, nil
}

// ParseElement decodes the single element at the start of b.
func ParseElement(b []byte, offset int64, schema Schema) (*Element, error) {
	return parseElement(b, offset, schema)
}

func parseElement(b []byte, offset int64, schema Schema) (*Element, error) {
	header, headerErr := DecodeHeader(b)
	if headerErr != nil {
		return nil, headerErr
	}

	available := uint64(len(b) - header.HeaderSize)
	size := header.Size
	if header.UnknownSize {
		size = available
	} else if size > available {
		return nil, errors.Newf("element 0x%X declares %d bytes but only %d remain", header.ID, size, available)
	}

	data := b[header.HeaderSize : header.HeaderSize+int(size)]
	element := &Element{
		ID:         header.ID,
		Type:       schema(header.ID),
		Offset:     offset,
		HeaderSize: header.HeaderSize,
		Size:       int64(size),
	}

	if element.Type != TypeMaster {
		element.Data = data

		return element, nil
	}

	children, childrenErr := Parse(data, element.DataOffset(), schema)
	if childrenErr != nil {
		return nil, errors.Wrapf(childrenErr, "failed to parse children of element 0x%X", header.ID)
	}

	element.Children = children

	return element, nil
}
