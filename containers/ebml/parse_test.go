package ebml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSegment     = 0x18538067
	testCluster     = 0x1F43B675
	testTimecode    = 0xE7
	testBlockGroup  = 0xA0
	testBlock       = 0xA1
	testVoid        = 0xEC
	testEBML        = 0x1A45DFA3
	testDocType     = 0x4282
	testDuration    = 0x4489
	testReferenceID = 0xFB
)

func testSchema(id uint32) Type {
	switch id {
	case testSegment, testCluster, testBlockGroup, testEBML:
		return TypeMaster
	case testTimecode:
		return TypeUint
	case testDocType:
		return TypeString
	case testDuration:
		return TypeFloat
	case testReferenceID:
		return TypeInt
	}

	return TypeBinary
}

func TestParse(t *testing.T) {
	data := []byte{
		0x1a, 0x45, 0xdf, 0xa3, 0x87, 0x42, 0x82, 0x84, 'w', 'e', 'b', 'm',
		0x44, 0x89, 0x84, 0x45, 0x9c, 0x40, 0x00,
		0xfb, 0x82, 0xff, 0xfe,
	}

	elements, err := Parse(data, 100, testSchema)
	require.NoError(t, err)
	require.Len(t, elements, 3)

	header := elements[0]
	assert.Equal(t, uint32(testEBML), header.ID)
	assert.Equal(t, int64(100), header.Offset)
	assert.Equal(t, int64(105), header.DataOffset())
	assert.Equal(t, int64(112), header.EndOffset())
	require.Len(t, header.Children, 1)

	docType := header.Child(testDocType)
	require.NotNil(t, docType)
	assert.Equal(t, "webm", docType.Text())
	assert.Equal(t, int64(105), docType.Offset)

	assert.Equal(t, 5000.0, elements[1].Float())
	assert.Equal(t, int64(-2), elements[2].Int())
	assert.Nil(t, header.Child(testVoid))
}

func TestParseTruncated(t *testing.T) {
	_, err := Parse([]byte{0x42, 0x82, 0x84, 'w', 'e'}, 0, testSchema)
	assert.Error(t, err)
}

func TestElementValues(t *testing.T) {
	element := &Element{Data: []byte{0x0f, 0x42, 0x40}}
	assert.Equal(t, uint64(1000000), element.Uint())
	assert.True(t, element.Bool())

	element = &Element{Data: []byte{'a', 'b', 0x00, 'c'}}
	assert.Equal(t, "ab", element.Text())

	element = &Element{}
	assert.Equal(t, int64(0), element.Int())
	assert.Equal(t, 0.0, element.Float())
	assert.False(t, element.Bool())
}
