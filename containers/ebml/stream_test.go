package ebml

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStream = []byte{
	// Segment, unknown size
	0x18, 0x53, 0x80, 0x67, 0x01, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	// Void
	0xec, 0x82, 0x00, 0x00,
	// Cluster
	0x1f, 0x43, 0xb6, 0x75, 0x8b,
	// Timecode
	0xe7, 0x81, 0x05,
	// BlockGroup/Block
	0xa0, 0x86, 0xa1, 0x84, 0x81, 0x00, 0x00, 0x00,
}

func testClassify(id uint32) Action {
	switch id {
	case testSegment, testCluster:
		return Descend
	case testTimecode, testBlockGroup:
		return Capture
	}

	return Skip
}

func TestStreamDecoder(t *testing.T) {
	testCases := []int{1, 2, 3, 7, len(testStream)}

	for _, chunkSize := range testCases {
		t.Run(fmt.Sprintf("chunk %d", chunkSize), func(t *testing.T) {
			decoder := NewStreamDecoder(0, testClassify, testSchema)

			var elements []*Element
			for i := 0; i < len(testStream); i += chunkSize {
				end := min(i+chunkSize, len(testStream))
				err := decoder.Write(testStream[i:end], func(element *Element) {
					elements = append(elements, element)
				})
				require.NoError(t, err)
			}

			require.Len(t, elements, 2)

			assert.Equal(t, uint32(testTimecode), elements[0].ID)
			assert.Equal(t, uint64(5), elements[0].Uint())
			assert.Equal(t, int64(21), elements[0].Offset)

			assert.Equal(t, uint32(testBlockGroup), elements[1].ID)
			assert.Equal(t, int64(24), elements[1].Offset)
			block := elements[1].Child(testBlock)
			require.NotNil(t, block)
			assert.Equal(t, []byte{0x81, 0x00, 0x00, 0x00}, block.Data)

			assert.Equal(t, int64(len(testStream)), decoder.Offset())
			assert.Equal(t, 0, decoder.Buffered())
		})
	}
}

func TestStreamDecoderSkipsAcrossWrites(t *testing.T) {
	void := append([]byte{0xec, 0x40, 0x64}, make([]byte, 100)...)
	stream := append(void, 0xe7, 0x81, 0x2a)

	decoder := NewStreamDecoder(1000, testClassify, testSchema)

	var elements []*Element
	for i := 0; i < len(stream); i += 9 {
		end := min(i+9, len(stream))
		require.NoError(t, decoder.Write(stream[i:end], func(element *Element) {
			elements = append(elements, element)
		}))
	}

	require.Len(t, elements, 1)
	assert.Equal(t, uint64(42), elements[0].Uint())
	assert.Equal(t, int64(1103), elements[0].Offset)
}

func TestStreamDecoderInvalidData(t *testing.T) {
	decoder := NewStreamDecoder(0, testClassify, testSchema)

	err := decoder.Write([]byte{0x00, 0x01, 0x02}, func(*Element) {})
	require.ErrorIs(t, err, ErrInvalidVINT)

	err = decoder.Write([]byte{0xe7, 0x81, 0x01}, func(*Element) {
		t.Fatal("decoder emitted after failing")
	})
	assert.ErrorIs(t, err, ErrInvalidVINT)
}

func TestStreamDecoderElementsOutliveWrites(t *testing.T) {
	decoder := NewStreamDecoder(0, testClassify, testSchema)

	var elements []*Element
	emit := func(element *Element) {
		elements = append(elements, element)
	}

	require.NoError(t, decoder.Write([]byte{0xe7, 0x81, 0x01, 0xe7}, emit))
	require.NoError(t, decoder.Write([]byte{0x81, 0x02}, emit))

	require.Len(t, elements, 2)
	assert.Equal(t, uint64(1), elements[0].Uint())
	assert.Equal(t, uint64(2), elements[1].Uint())
}

func TestStreamDecoderFilter(t *testing.T) {
	// BlockGroup on track 1 with a large Block
	stream := []byte{0xa0, 0x40, 0xc8, 0xa1, 0x40, 0xc5, 0x81}
	stream = append(stream, make([]byte, 196)...)
	// BlockGroup on track 2
	stream = append(stream, 0xa0, 0x86, 0xa1, 0x84, 0x82, 0x00, 0x00, 0x00)
	// Timecode
	stream = append(stream, 0xe7, 0x81, 0x07)

	filter := func(id uint32, prefix []byte) (bool, bool) {
		if id != testBlockGroup {
			return true, true
		}

		header, err := DecodeHeader(prefix)
		if err != nil || len(prefix) <= header.HeaderSize {
			return false, false
		}

		return prefix[header.HeaderSize] == 0x82, true
	}

	testCases := []int{1, 5, 64, len(stream)}

	for _, chunkSize := range testCases {
		t.Run(fmt.Sprintf("chunk %d", chunkSize), func(t *testing.T) {
			decoder := NewStreamDecoder(0, testClassify, testSchema)
			decoder.SetFilter(filter)

			var elements []*Element
			for i := 0; i < len(stream); i += chunkSize {
				end := min(i+chunkSize, len(stream))
				require.NoError(t, decoder.Write(stream[i:end], func(element *Element) {
					elements = append(elements, element)
				}))

				// The rejected group is never buffered
				assert.Less(t, decoder.Buffered(), 16)
			}

			require.Len(t, elements, 2)
			assert.Equal(t, uint32(testBlockGroup), elements[0].ID)
			assert.Equal(t, int64(203), elements[0].Offset)
			assert.Equal(t, uint32(testTimecode), elements[1].ID)
			assert.Equal(t, int64(211), elements[1].Offset)
			assert.Equal(t, int64(len(stream)), decoder.Offset())
		})
	}
}

func TestStreamDecoderFilterUndecided(t *testing.T) {
	decoder := NewStreamDecoder(0, testClassify, testSchema)
	decoder.SetFilter(func(uint32, []byte) (bool, bool) {
		return false, false
	})

	var elements []*Element
	require.NoError(t, decoder.Write([]byte{0xe7, 0x81, 0x07}, func(element *Element) {
		elements = append(elements, element)
	}))

	require.Len(t, elements, 1)
	assert.Equal(t, uint64(7), elements[0].Uint())
}
