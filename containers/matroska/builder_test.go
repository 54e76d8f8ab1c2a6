package matroska

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
	"math"
	"sync"
	"testing"

	ebmlblock "github.com/at-wat/ebml-go"
	"github.com/stretchr/testify/require"
)

const elementDocType ElementId = 0x4282

func encodeId(id ElementId) []byte {
	b := binary.BigEndian.AppendUint32(nil, uint32(id))
	for len(b) > 1 && b[0] == 0 {
		b = b[1:]
	}

	return b
}

func encodeSize(size int) []byte {
	width := 1
	for uint64(size) >= (uint64(1)<<(7*width))-1 {
		width++
	}

	value := uint64(size) | uint64(1)<<(7*width)
	b := binary.BigEndian.AppendUint64(nil, value)

	return b[8-width:]
}

func concat(parts ...[]byte) []byte {
	var b []byte
	for _, part := range parts {
		b = append(b, part...)
	}

	return b
}

func binaryElement(id ElementId, data []byte) []byte {
	return concat(encodeId(id), encodeSize(len(data)), data)
}

func masterElement(id ElementId, children ...[]byte) []byte {
	return binaryElement(id, concat(children...))
}

// unknownSizeElement is a master element whose size is not declared.
func unknownSizeElement(id ElementId, children ...[]byte) []byte {
	return concat(encodeId(id), []byte{0x01, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, concat(children...))
}

func uintElement(id ElementId, value uint64) []byte {
	b := binary.BigEndian.AppendUint64(nil, value)
	for len(b) > 1 && b[0] == 0 {
		b = b[1:]
	}

	return binaryElement(id, b)
}

// fixedUintElement always uses 8 bytes of data, so the element's length does
// not depend on the value.
func fixedUintElement(id ElementId, value uint64) []byte {
	return binaryElement(id, binary.BigEndian.AppendUint64(nil, value))
}

func stringElement(id ElementId, value string) []byte {
	return binaryElement(id, []byte(value))
}

func floatElement(id ElementId, value float64) []byte {
	return binaryElement(id, binary.BigEndian.AppendUint64(nil, math.Float64bits(value)))
}

func ebmlHeader() []byte {
	return masterElement(ElementEbml, stringElement(elementDocType, "matroska"))
}

func matroskaFile(segmentChildren ...[]byte) []byte {
	return concat(ebmlHeader(), masterElement(ElementSegment, segmentChildren...))
}

// layout builds the children of a segment whose content depends on where
// they end up. build is called with the position of each child relative to
// the segment data, and must return children of the same lengths whatever
// the positions.
func layout(count int, build func(positions []uint64) [][]byte) [][]byte {
	positions := make([]uint64, count)
	children := build(positions)

	position := uint64(0)
	for i, child := range children {
		positions[i] = position
		position += uint64(len(child))
	}

	return build(positions)
}

func seekEntry(id ElementId, position uint64) []byte {
	return masterElement(ElementSeek,
		binaryElement(ElementSeekId, encodeId(id)),
		fixedUintElement(ElementSeekPosition, position),
	)
}

func seekHead(entries ...[]byte) []byte {
	return masterElement(ElementSeekHead, entries...)
}

func info(timecodeScale uint64, duration float64) []byte {
	return masterElement(ElementInfo,
		uintElement(ElementTimecodeScale, timecodeScale),
		floatElement(ElementDuration, duration),
		stringElement(ElementTitle, "Test"),
	)
}

func trackEntry(number uint64, trackType uint64, codecId string, children ...[]byte) []byte {
	return masterElement(ElementTrackEntry, concat(
		uintElement(ElementTrackNumber, number),
		uintElement(ElementTrackType, trackType),
		stringElement(ElementCodecId, codecId),
		concat(children...),
	))
}

func subtitleTrack(number uint64, codecId string, children ...[]byte) []byte {
	return trackEntry(number, TrackTypeSubtitle, codecId, children...)
}

func tracks(entries ...[]byte) []byte {
	return masterElement(ElementTracks, entries...)
}

func compression(algorithm *uint64, scope *uint64) []byte {
	var compressionChildren []byte
	if algorithm != nil {
		compressionChildren = uintElement(ElementContentCompAlgo, *algorithm)
	}

	var encodingChildren []byte
	if scope != nil {
		encodingChildren = uintElement(ElementContentEncodingScope, *scope)
	}

	return masterElement(ElementContentEncodings,
		masterElement(ElementContentEncoding,
			encodingChildren,
			masterElement(ElementContentCompression, compressionChildren),
		),
	)
}

func headerStripping(settings string) []byte {
	return masterElement(ElementContentEncodings,
		masterElement(ElementContentEncoding,
			masterElement(ElementContentCompression,
				uintElement(ElementContentCompAlgo, ContentCompressionAlgorithmHeaderStrip),
				binaryElement(ElementContentCompSettings, []byte(settings)),
			),
		),
	)
}

func blockPayload(t *testing.T, trackNumber uint64, timecode int16, frames ...string) []byte {
	t.Helper()

	block := &ebmlblock.Block{TrackNumber: trackNumber, Timecode: timecode}
	for _, frame := range frames {
		block.Data = append(block.Data, []byte(frame))
	}

	if len(frames) > 1 {
		block.Lacing = ebmlblock.LacingXiph
	}

	var b bytes.Buffer
	require.NoError(t, ebmlblock.MarshalBlock(block, &b))

	return b.Bytes()
}

func blockGroup(payload []byte, duration uint64) []byte {
	return masterElement(ElementBlockGroup,
		binaryElement(ElementBlock, payload),
		uintElement(ElementBlockDuration, duration),
	)
}

func cluster(timecode uint64, blocks ...[]byte) []byte {
	return masterElement(ElementCluster, uintElement(ElementTimecode, timecode), concat(blocks...))
}

func deflate(t *testing.T, text string) string {
	t.Helper()

	var b bytes.Buffer
	writer := zlib.NewWriter(&b)
	_, err := writer.Write([]byte(text))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return b.String()
}

// countingReaderAt counts the reads made on a byte slice.
type countingReaderAt struct {
	mu     sync.Mutex
	reader *bytes.Reader
	reads  int
}

func newCountingReaderAt(data []byte) *countingReaderAt {
	return &countingReaderAt{reader: bytes.NewReader(data)}
}

func (c *countingReaderAt) ReadAt(p []byte, offset int64) (int, error) {
	c.mu.Lock()
	c.reads++
	c.mu.Unlock()

	return c.reader.ReadAt(p, offset)
}

func (c *countingReaderAt) Size() int64 {
	return c.reader.Size()
}

func (c *countingReaderAt) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.reads
}

// countingReader counts the reads made on a reader.
type countingReader struct {
	reader io.Reader
	reads  int
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads++

	return c.reader.Read(p)
}

// subtitleCollector gathers the events and errors of a session.
type subtitleCollector struct {
	mu        sync.Mutex
	subtitles []MatroskaSubtitle
	errors    map[uint64][]error
}

func collect(m *MatroskaFile) *subtitleCollector {
	c := &subtitleCollector{errors: make(map[uint64][]error)}

	m.OnSubtitle(func(subtitle MatroskaSubtitle) {
		c.mu.Lock()
		defer c.mu.Unlock()

		c.subtitles = append(c.subtitles, subtitle)
	})

	m.OnBlockError(func(trackNumber uint64, err error) {
		c.mu.Lock()
		defer c.mu.Unlock()

		c.errors[trackNumber] = append(c.errors[trackNumber], err)
	})

	return c
}

func (c *subtitleCollector) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.subtitles = nil
	c.errors = make(map[uint64][]error)
}

func (c *subtitleCollector) texts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var texts []string
	for _, subtitle := range c.subtitles {
		texts = append(texts, subtitle.Text)
	}

	return texts
}
