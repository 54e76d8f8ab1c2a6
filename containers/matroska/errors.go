package matroska

import "github.com/cockroachdb/errors"

var (
	// ErrContainerFormat is returned when no segment element is found.
	ErrContainerFormat = errors.New("no Matroska segment found")
	// ErrIndexMissing is returned when the segment has no seek head. Named
	// elements are then located by scanning the segment.
	ErrIndexMissing = errors.New("no seek head found")
	// ErrElementNotFound is returned when the source ends before a requested
	// element is found.
	ErrElementNotFound = errors.New("element not found")
	// ErrUnsupportedCompression is returned for blocks of tracks whose content
	// encoding is not zlib compression.
	ErrUnsupportedCompression = errors.New("unsupported content encoding")
	// ErrDecompression is returned for blocks whose compressed data is
	// malformed.
	ErrDecompression = errors.New("failed to decompress block")
)
