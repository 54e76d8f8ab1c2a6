package matroska

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/ristryder/gse/containers/ebml"
)

type candidateVerdict int

const (
	candidateRejected candidateVerdict = iota
	candidateNeedMore
	candidateTrusted
)

var clusterMarker = []byte{0x1F, 0x43, 0xB6, 0x75}

// checkClusterCandidate decides whether b, which starts with the cluster
// marker, is the start of a real cluster: the size must be a valid VINT and
// the header must be followed by a known element id.
func checkClusterCandidate(b []byte) candidateVerdict {
	_, _, sizeWidth, sizeErr := ebml.DecodeVINT(b[len(clusterMarker):])
	if errors.Is(sizeErr, io.ErrUnexpectedEOF) {
		return candidateNeedMore
	}

	if sizeErr != nil {
		return candidateRejected
	}

	id, _, idErr := ebml.DecodeID(b[len(clusterMarker)+sizeWidth:])
	if errors.Is(idErr, io.ErrUnexpectedEOF) {
		return candidateNeedMore
	}

	if idErr != nil || !ElementId(id).IsKnown() {
		return candidateRejected
	}

	return candidateTrusted
}

// clusterScanner finds the first trustworthy cluster boundary in a stream of
// chunks. Bytes that may still turn out to start a cluster are carried over
// to the next chunk.
type clusterScanner struct {
	carry       []byte
	carryOffset int64
	rejected    int
}

// scan looks for a cluster start in p, the chunk at the given stream offset.
// When one is found it returns the bytes from the cluster start on and their
// stream offset.
func (s *clusterScanner) scan(p []byte, offset int64) ([]byte, int64, bool) {
	data := p
	base := offset
	if len(s.carry) > 0 {
		data = append(s.carry, p...)
		base = s.carryOffset
		s.carry = nil
	}

	for start := 0; start < len(data); {
		i := bytes.Index(data[start:], clusterMarker)
		if i < 0 {
			// A marker may straddle this chunk and the next one
			s.keep(data[max(start, len(data)-len(clusterMarker)+1):], base, len(data))

			return nil, 0, false
		}

		candidate := start + i
		switch checkClusterCandidate(data[candidate:]) {
		case candidateTrusted:
			return data[candidate:], base + int64(candidate), true
		case candidateNeedMore:
			s.keep(data[candidate:], base, len(data))

			return nil, 0, false
		default:
			s.rejected++
			start = candidate + 1
		}
	}

	return nil, 0, false
}

// keep carries tail, the last bytes of data at base, to the next scan.
func (s *clusterScanner) keep(tail []byte, base int64, dataLength int) {
	s.carry = append([]byte(nil), tail...)
	s.carryOffset = base + int64(dataLength-len(tail))
}

// takeRejected returns the number of candidates rejected since the last call.
func (s *clusterScanner) takeRejected() int {
	rejected := s.rejected
	s.rejected = 0

	return rejected
}
