package matroska

import "fmt"

const (
	ContentEncodingScopePrivateData = 2
	ContentEncodingScopeTracks      = 1
	ContentEncodingTypeCompression  = 0
	ContentEncodingTypeEncryption   = 1

	// ContentCompressionAlgorithmZlib is also what a ContentCompression element
	// without ContentCompAlgo declares.
	ContentCompressionAlgorithmZlib        = 0
	ContentCompressionAlgorithmBzlib       = 1
	ContentCompressionAlgorithmLzo         = 2
	ContentCompressionAlgorithmHeaderStrip = 3

	TrackTypeSubtitle   = 0x11
	SubtitleCodecPrefix = "S_TEXT/"
	SubtitleTypeAss     = "ass"
	SubtitleTypeSsa     = "ssa"

	defaultTrackLanguage = "eng"
)

type MatroskaTrackInfo struct {
	CodecId      string
	CodecPrivate string
	// Compressed is set when a content encoding declares compression.
	Compressed                  bool
	ContentCompressionAlgorithm int
	// ContentCompSettings holds the bytes stripped from every frame when the
	// algorithm is header stripping.
	ContentCompSettings []byte
	// ContentCompressionDeclared is false when the algorithm was not stated and
	// ContentCompressionAlgorithm holds the Matroska default.
	ContentCompressionDeclared bool
	ContentEncodingScope       uint
	ContentEncodingType        int
	IsDefault                  bool
	IsForced                   bool
	Language                   string
	Name                       string
	TrackNumber                uint64
	// Type is the subtitle subtype, the lower cased codec id without its
	// "S_TEXT/" prefix, e.g. "utf8" or "ass".
	Type string
}

// IsSubStation reports whether the track carries SubStation Alpha fields.
func (m *MatroskaTrackInfo) IsSubStation() bool {
	return m.Type == SubtitleTypeAss || m.Type == SubtitleTypeSsa
}

func (m *MatroskaTrackInfo) String() string {
	return fmt.Sprintf("Track: %v , Type: %v , Codec: %v , Compressed: %v , ContentCompressionAlgorithm: %v , ContentEncodingScope: %v , ContentEncodingType: %v , Name: %v , Language: %v , Default? %v , Forced? %v", m.TrackNumber, m.Type, m.CodecId, m.Compressed, m.ContentCompressionAlgorithm, m.ContentEncodingScope, m.ContentEncodingType, m.Name, m.Language, m.IsDefault, m.IsForced)
}
