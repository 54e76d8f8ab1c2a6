package ebml

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeVINT(t *testing.T) {
	testCases := []struct {
		Integer uint64
		VINT    uint64
		Bytes   []byte
	}{
		{
			Integer: 0x02,
			VINT:    0x82,
			Bytes:   []byte{0x82},
		},
		{
			Integer: 0x02,
			VINT:    0x4002,
			Bytes:   []byte{0x40, 0x02},
		},
		{
			Integer: 0x02,
			VINT:    0x200002,
			Bytes:   []byte{0x20, 0x00, 0x02},
		},
		{
			Integer: 0x02,
			VINT:    0x10000002,
			Bytes:   []byte{0x10, 0x00, 0x00, 0x02},
		},
		{
			Integer: 0x0a45dfa3,
			VINT:    0x1a45dfa3,
			Bytes:   []byte{0x1a, 0x45, 0xdf, 0xa3},
		},
		{
			Integer: 0x02,
			VINT:    0x02000000000002,
			Bytes:   []byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x02},
		},
		{
			Integer: 0x0100,
			VINT:    0x0100000000000100,
			Bytes:   []byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00},
		},
	}

	for _, testCase := range testCases {
		t.Run(fmt.Sprintf("0x%x", testCase.VINT), func(t *testing.T) {
			integer, vint, width, err := DecodeVINT(testCase.Bytes)
			assert.NoError(t, err)
			assert.Equal(t, testCase.Integer, integer)
			assert.Equal(t, testCase.VINT, vint)
			assert.Equal(t, len(testCase.Bytes), width)
		})
	}
}

func TestDecodeVINTErrors(t *testing.T) {
	_, _, _, err := DecodeVINT(nil)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, _, width, err := DecodeVINT([]byte{0x40})
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, 2, width)

	_, _, _, err = DecodeVINT([]byte{0x00, 0x01})
	assert.ErrorIs(t, err, ErrInvalidVINT)
}

func TestIsUnknownSize(t *testing.T) {
	assert.True(t, IsUnknownSize(0x7F, 1))
	assert.True(t, IsUnknownSize(0x00FFFFFFFFFFFFFF, 8))
	assert.False(t, IsUnknownSize(0x7E, 1))
	assert.False(t, IsUnknownSize(0x7F, 2))
}

func TestDecodeHeader(t *testing.T) {
	header, err := DecodeHeader([]byte{0x1a, 0x45, 0xdf, 0xa3, 0x9f, 0x42, 0x86, 0x81, 0x01})
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1a45dfA3), header.ID)
	assert.Equal(t, uint64(0x1f), header.Size)
	assert.Equal(t, 5, header.HeaderSize)
	assert.False(t, header.UnknownSize)

	header, err = DecodeHeader([]byte{0x18, 0x53, 0x80, 0x67, 0x01, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff})
	require.NoError(t, err)
	assert.Equal(t, uint32(0x18538067), header.ID)
	assert.Equal(t, 12, header.HeaderSize)
	assert.True(t, header.UnknownSize)

	_, err = DecodeHeader([]byte{0x1f, 0x43, 0xb6})
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = DecodeHeader([]byte{0x1f, 0x43, 0xb6, 0x75})
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = DecodeHeader([]byte{0x08, 0x00, 0x00, 0x00, 0x00, 0x81})
	assert.ErrorIs(t, err, ErrInvalidID)
}
