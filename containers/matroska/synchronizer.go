package matroska

import (
	"log/slog"

	"github.com/ristryder/gse/containers/ebml"
)

type elementHandler func(*ebml.Element)

// classifyStreamElement decides which elements of a stream are decoded. The
// containers on the way to the blocks are descended into, the elements that
// carry timing and subtitle data are captured and everything else is skipped.
func classifyStreamElement(id uint32) ebml.Action {
	switch ElementId(id) {
	case ElementSegment, ElementInfo, ElementCluster:
		return ebml.Descend
	case ElementTimecodeScale, ElementTimecode, ElementBlockGroup, ElementSimpleBlock:
		return ebml.Capture
	}

	return ebml.Skip
}

// elementHandlers builds the table of captured stream elements and what to do
// with them.
func (m *MatroskaFile) elementHandlers() map[ElementId]elementHandler {
	return map[ElementId]elementHandler{
		ElementTimecodeScale: func(element *ebml.Element) {
			m.timeline.SetTimecodeScale(element.Uint())
		},
		ElementTimecode: func(element *ebml.Element) {
			m.timeline.SetClusterTimecode(int64(element.Uint()))
		},
		ElementBlockGroup: func(element *ebml.Element) {
			block := blockFromGroup(element)
			if block == nil {
				return
			}

			block.timecodes = m.timeline.Snapshot()
			m.dispatcher.enqueue(*block)
		},
		ElementSimpleBlock: func(element *ebml.Element) {
			m.dispatcher.enqueue(pendingBlock{
				offset:    element.Offset,
				payload:   element.Data,
				timecodes: m.timeline.Snapshot(),
			})
		},
	}
}

// synchronizer decodes one pass over the stream. It starts unstable, looking
// for a cluster boundary, unless the pass is known to start at an element
// boundary. Once stable it stays stable for the rest of the pass.
type synchronizer struct {
	file *MatroskaFile

	stable  bool
	failed  bool
	offset  int64
	scanner clusterScanner
	decoder *ebml.StreamDecoder
}

func (m *MatroskaFile) newSynchronizer(offset int64, stable bool) *synchronizer {
	s := &synchronizer{file: m, offset: offset}
	if stable {
		s.stable = true
		s.decoder = ebml.NewStreamDecoder(offset, classifyStreamElement, schema)
		s.decoder.SetFilter(s.file.keepBlock)
	}

	return s
}

func (s *synchronizer) write(p []byte) {
	if len(p) == 0 {
		return
	}

	offset := s.offset
	s.offset += int64(len(p))

	if s.failed {
		s.file.metrics.discarded(len(p))

		return
	}

	if !s.stable {
		data, clusterOffset, found := s.scanner.scan(p, offset)
		for range s.scanner.takeRejected() {
			s.file.metrics.candidateRejected()
		}

		if !found {
			s.file.metrics.discarded(len(p))

			return
		}

		if skipped := clusterOffset - offset; skipped > 0 {
			s.file.metrics.discarded(int(skipped))
		}

		s.file.logger.Debug("Synchronized on cluster", slog.Int64("offset", clusterOffset))
		s.file.metrics.resynchronized()

		s.stable = true
		s.decoder = ebml.NewStreamDecoder(clusterOffset, classifyStreamElement, schema)
		s.decoder.SetFilter(s.file.keepBlock)
		p = data
	}

	if decodeErr := s.decoder.Write(p, s.dispatch); decodeErr != nil {
		s.failed = true
		s.file.logger.Warn("Failed to decode stream, no more subtitles are extracted from this pass", slog.Int64("offset", s.decoder.Offset()), slog.Any("error", decodeErr))
	}
}

func (s *synchronizer) dispatch(element *ebml.Element) {
	if handler, ok := s.file.handlers[ElementId(element.ID)]; ok {
		handler(element)
	}
}
