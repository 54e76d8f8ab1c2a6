package ebml

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Type is the EBML data type of an element.
type Type int

const (
	TypeUnknown Type = iota
	TypeMaster
	TypeUint
	TypeInt
	TypeFloat
	TypeString
	TypeUTF8
	TypeBinary
	TypeDate
)

// Schema maps an element id to its type. Ids the schema does not know should
// map to TypeUnknown, which decodes like TypeBinary.
type Schema func(id uint32) Type

// Element is a decoded EBML element. Master elements carry their children,
// all other elements carry their raw data.
type Element struct {
	ID   uint32
	Type Type
	// Offset is the absolute byte offset of the element's header.
	Offset     int64
	HeaderSize int
	Size       int64
	Data       []byte
	Children   []*Element
}

func (e *Element) String() string {
	return fmt.Sprintf("0x%X @%d (%d)", e.ID, e.Offset, e.Size)
}

// DataOffset returns the absolute byte offset of the element's data.
func (e *Element) DataOffset() int64 {
	return e.Offset + int64(e.HeaderSize)
}

// EndOffset returns the absolute byte offset following the element.
func (e *Element) EndOffset() int64 {
	return e.DataOffset() + e.Size
}

// Uint interprets the data as a big endian unsigned integer.
func (e *Element) Uint() uint64 {
	result := uint64(0)
	for _, b := range e.Data {
		result = result<<8 | uint64(b)
	}

	return result
}

// Int interprets the data as a big endian two's complement integer.
func (e *Element) Int() int64 {
	if len(e.Data) == 0 {
		return 0
	}

	shift := uint(64 - 8*len(e.Data))

	return int64(e.Uint()<<shift) >> shift
}

// Float interprets the data as a big endian IEEE 754 float of 4 or 8 bytes.
func (e *Element) Float() float64 {
	switch len(e.Data) {
	case 4:
		return float64(math.Float32frombits(binary.BigEndian.Uint32(e.Data)))
	case 8:
		return math.Float64frombits(binary.BigEndian.Uint64(e.Data))
	}

	return 0
}

// Text interprets the data as a string, terminated at the first binary zero.
// SEE: https://github.com/Matroska-Org/ebml-specification/blob/master/specification.markdown#terminating-elements
func (e *Element) Text() string {
	text := string(e.Data)
	if i := strings.IndexByte(text, 0); i >= 0 {
		return text[:i]
	}

	return text
}

// Bool interprets the data as an unsigned integer flag.
func (e *Element) Bool() bool {
	return e.Uint() != 0
}

// Child returns the first direct child with the given id, or nil.
func (e *Element) Child(id uint32) *Element {
	for _, child := range e.Children {
		if child.ID == id {
			return child
		}
	}

	return nil
}

// ChildrenWithID returns all direct children with the given id.
func (e *Element) ChildrenWithID(id uint32) []*Element {
	var children []*Element
	for _, child := range e.Children {
		if child.ID == id {
			children = append(children, child)
		}
	}

	return children
}
