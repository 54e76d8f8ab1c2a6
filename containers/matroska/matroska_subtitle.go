package matroska

import (
	"bytes"
	"compress/zlib"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/andybalholm/crlf"
	"github.com/cockroachdb/errors"
	"github.com/ristryder/gse/common"
)

// subStationFieldCount is the number of comma separated fields preceding the
// text of a SubStation Alpha block: ReadOrder, Layer, Style, Name, MarginL,
// MarginR, MarginV and Effect.
const subStationFieldCount = 8

// SubStationFields are the per-line fields of SubStation Alpha blocks.
// Layer is only set for "ass" tracks.
type SubStationFields struct {
	Layer   string
	Style   string
	Name    string
	MarginL string
	MarginR string
	MarginV string
	Effect  string
}

type MatroskaSubtitle struct {
	Duration   time.Duration
	Start      time.Duration
	SubStation *SubStationFields
	Text       string
	// TrackNumber is the track the subtitle was read from.
	TrackNumber uint64
}

func (m *MatroskaSubtitle) End() time.Duration {
	return m.Start + m.Duration
}

func (m *MatroskaSubtitle) Paragraph() common.Paragraph {
	paragraph := common.Paragraph{Start: m.Start, End: m.End(), Text: m.Text}
	if m.SubStation != nil {
		paragraph.Actor = m.SubStation.Name
		paragraph.Effect = m.SubStation.Effect
		paragraph.Layer = m.SubStation.Layer
		paragraph.MarginL = m.SubStation.MarginL
		paragraph.MarginR = m.SubStation.MarginR
		paragraph.MarginV = m.SubStation.MarginV
		paragraph.Style = m.SubStation.Style
	}

	return paragraph
}

// decodeText terminates the data at the first binary zero and normalizes line
// endings to "\n".
func decodeText(data []byte) string {
	//terminate string at first binary zero - https://github.com/Matroska-Org/ebml-specification/blob/master/specification.markdown#terminating-elements
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}

	//The original .NET libse replaces all newlines with platform-specific newlines, but
	// here we simply turn everything into "\n"
	normalizedData := make([]byte, len(data))
	normalizer := new(crlf.Normalize)
	written, _, _ := normalizer.Transform(normalizedData, data, true)

	return string(normalizedData[:written])
}

// splitSubStation splits the text of a SubStation Alpha block into its fields
// and the dialogue text. The dialogue text may itself contain commas.
func splitSubStation(text string, subtype string) (*SubStationFields, string) {
	values := strings.Split(text, ",")
	value := func(i int) string {
		if i < len(values) {
			return values[i]
		}

		return ""
	}

	// ReadOrder is dropped, Layer is only meaningful for ASS
	fields := &SubStationFields{
		Style:   value(2),
		Name:    value(3),
		MarginL: value(4),
		MarginR: value(5),
		MarginV: value(6),
		Effect:  value(7),
	}

	if subtype == SubtitleTypeAss {
		fields.Layer = value(1)
	}

	if len(values) <= subStationFieldCount {
		return fields, ""
	}

	return fields, strings.Join(values[subStationFieldCount:], ",")
}

// checkEncoding returns an error when blocks of the track cannot be decoded.
func checkEncoding(track *MatroskaTrackInfo) error {
	if track.ContentEncodingType == ContentEncodingTypeEncryption {
		return errors.Mark(errors.Newf("track %d is encrypted", track.TrackNumber), ErrUnsupportedCompression)
	}

	if track.Compressed && track.ContentCompressionAlgorithm != ContentCompressionAlgorithmZlib && track.ContentCompressionAlgorithm != ContentCompressionAlgorithmHeaderStrip {
		return errors.Mark(errors.Newf("track %d uses content compression algorithm %d", track.TrackNumber, track.ContentCompressionAlgorithm), ErrUnsupportedCompression)
	}

	return nil
}

func inflate(data []byte) ([]byte, error) {
	zlibReader, zlibReaderErr := zlib.NewReader(bytes.NewReader(data))
	if zlibReaderErr != nil {
		return nil, errors.Mark(errors.Wrap(zlibReaderErr, "failed to create zlib reader"), ErrDecompression)
	}

	defer zlibReader.Close()

	uncompressedData, uncompressedDataErr := io.ReadAll(zlibReader)
	if uncompressedDataErr != nil {
		return nil, errors.Mark(errors.Wrap(uncompressedDataErr, "failed to read all data from zlib reader"), ErrDecompression)
	}

	return uncompressedData, nil
}

// decompress reverses the content compression of the track.
func decompress(data []byte, track *MatroskaTrackInfo) ([]byte, error) {
	if track.ContentCompressionAlgorithm == ContentCompressionAlgorithmHeaderStrip {
		return slices.Concat(track.ContentCompSettings, data), nil
	}

	return inflate(data)
}

// uncompressedData returns the frame data of a block on the given track.
func uncompressedData(data []byte, track *MatroskaTrackInfo) ([]byte, error) {
	if encodingErr := checkEncoding(track); encodingErr != nil {
		return nil, encodingErr
	}

	if !track.Compressed || (track.ContentEncodingScope&ContentEncodingScopeTracks) == 0 {
		return data, nil
	}

	return decompress(data, track)
}
