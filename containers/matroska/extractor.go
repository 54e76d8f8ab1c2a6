package matroska

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	ebmlblock "github.com/at-wat/ebml-go"
	"github.com/cockroachdb/errors"
	"github.com/ristryder/gse/containers/ebml"
)

// pendingBlock is a Block or SimpleBlock waiting to be turned into subtitles,
// with the timing state it was decoded under.
type pendingBlock struct {
	duration    uint64
	hasDuration bool
	offset      int64
	payload     []byte
	timecodes   Timecodes
}

func blockFromGroup(blockGroupElement *ebml.Element) *pendingBlock {
	blockElement := blockGroupElement.Child(uint32(ElementBlock))
	if blockElement == nil {
		return nil
	}

	block := &pendingBlock{offset: blockElement.Offset, payload: blockElement.Data}
	if duration := blockGroupElement.Child(uint32(ElementBlockDuration)); duration != nil {
		block.duration = duration.Uint()
		block.hasDuration = true
	}

	return block
}

// extractionState is what blocks are extracted with: the subtitle tracks and
// the timecode scale of the segment info.
type extractionState struct {
	registry      *trackRegistry
	registryErr   error
	timecodeScale uint64
}

func newExtractionState(registry *trackRegistry, registryErr error, info *segmentInfo, infoErr error) extractionState {
	state := extractionState{registry: registry, registryErr: registryErr, timecodeScale: DefaultTimecodeScale}
	if infoErr == nil && info != nil {
		state.timecodeScale = info.timecodeScale
	}

	return state
}

// peekExtractionState returns the extraction state if the tracks and the
// segment info have been read.
func (m *MatroskaFile) peekExtractionState() (extractionState, bool) {
	registry, registryErr, resolved := m.tracks.peek()
	if !resolved {
		return extractionState{}, false
	}

	if registryErr != nil {
		return newExtractionState(nil, registryErr, nil, nil), true
	}

	info, infoErr, resolved := m.segmentInfo.peek()
	if !resolved {
		return extractionState{}, false
	}

	return newExtractionState(registry, nil, info, infoErr), true
}

func (m *MatroskaFile) awaitExtractionState(ctx context.Context) extractionState {
	registry, registryErr := m.registry(ctx)
	if registryErr != nil {
		return newExtractionState(nil, registryErr, nil, nil)
	}

	info, infoErr := m.info(ctx)
	if infoErr != nil && !isContextError(infoErr) {
		m.logger.Warn("Failed to read segment info, using the default timecode scale", slog.Any("error", infoErr))
	}

	return newExtractionState(registry, nil, info, infoErr)
}

// keepBlock decides from the start of a SimpleBlock or BlockGroup whether it
// belongs to a subtitle track. Until the tracks are known every block is kept.
func (m *MatroskaFile) keepBlock(id uint32, prefix []byte) (bool, bool) {
	switch ElementId(id) {
	case ElementSimpleBlock, ElementBlockGroup:
	default:
		return true, true
	}

	registry, registryErr, resolved := m.tracks.peek()
	if !resolved {
		return true, true
	}

	if registryErr != nil {
		return false, true
	}

	payload := prefix
	if ElementId(id) == ElementBlockGroup {
		blockPrefix, found, decided := blockPrefixInGroup(prefix)
		if !decided {
			return false, false
		}

		if !found {
			return true, true
		}

		payload = blockPrefix
	}

	trackNumber, _, _, trackNumberErr := ebml.DecodeVINT(payload)
	if errors.Is(trackNumberErr, io.ErrUnexpectedEOF) {
		return false, false
	}

	if trackNumberErr != nil {
		// Reported when the block is extracted
		return true, true
	}

	_, ok := registry.byNumber[trackNumber]

	return ok, true
}

// blockPrefixInGroup finds the data of the Block among the children at the
// start of a BlockGroup.
func blockPrefixInGroup(prefix []byte) ([]byte, bool, bool) {
	position := 0
	for position < len(prefix) {
		header, headerErr := ebml.DecodeHeader(prefix[position:])
		if errors.Is(headerErr, io.ErrUnexpectedEOF) {
			return nil, false, false
		}

		if headerErr != nil {
			return nil, false, true
		}

		if ElementId(header.ID) == ElementBlock {
			return prefix[position+header.HeaderSize:], true, true
		}

		position += header.HeaderSize + int(header.Size)
	}

	return nil, false, false
}

// blockDispatcher hands blocks to the extractor in the order they were
// decoded. Blocks decoded before the tracks and the segment info are known
// wait in a queue that a single goroutine drains once they are. The queue
// holds at most maxQueuedBytes of block data, blocks beyond that are dropped.
type blockDispatcher struct {
	file           *MatroskaFile
	maxQueuedBytes int

	// extractMu keeps subscribers from being called concurrently
	extractMu sync.Mutex

	mu          sync.Mutex
	queue       []pendingBlock
	queuedBytes int
	overflowing bool
	draining    bool
	idle        chan struct{}
}

func (d *blockDispatcher) enqueue(block pendingBlock) {
	d.mu.Lock()

	if !d.draining && len(d.queue) == 0 {
		if state, resolved := d.file.peekExtractionState(); resolved {
			d.mu.Unlock()
			d.extract(state, []pendingBlock{block})

			return
		}
	}

	defer d.mu.Unlock()

	if d.maxQueuedBytes > 0 && d.queuedBytes+len(block.payload) > d.maxQueuedBytes {
		if !d.overflowing {
			d.overflowing = true
			d.file.logger.Warn("Block queue is full, dropping blocks until the tracks are known", slog.Int("queuedBytes", d.queuedBytes))
		}

		d.file.metrics.discarded(len(block.payload))

		return
	}

	d.queue = append(d.queue, block)
	d.queuedBytes += len(block.payload)

	if !d.draining {
		d.draining = true
		d.idle = make(chan struct{})

		go d.drain()
	}
}

func (d *blockDispatcher) drain() {
	state := d.file.awaitExtractionState(d.file.ctx)

	for {
		d.mu.Lock()
		if len(d.queue) == 0 {
			d.draining = false
			d.overflowing = false
			close(d.idle)
			d.mu.Unlock()

			return
		}

		blocks := d.queue
		d.queue = nil
		d.queuedBytes = 0
		d.mu.Unlock()

		d.extract(state, blocks)
	}
}

func (d *blockDispatcher) extract(state extractionState, blocks []pendingBlock) {
	d.extractMu.Lock()
	defer d.extractMu.Unlock()

	if state.registryErr != nil {
		if isContextError(state.registryErr) {
			return
		}

		d.file.logger.Warn("Dropping subtitle blocks, tracks are unavailable", slog.Int("blocks", len(blocks)), slog.Any("error", state.registryErr))
		for range blocks {
			d.file.metrics.blockFailed("tracks")
		}

		return
	}

	for _, block := range blocks {
		d.file.extractBlock(state, block)
	}
}

// wait blocks until every queued block has been handled.
func (d *blockDispatcher) wait(ctx context.Context) error {
	d.mu.Lock()
	if !d.draining {
		d.mu.Unlock()

		return nil
	}

	idle := d.idle
	d.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *MatroskaFile) extractBlock(state extractionState, block pendingBlock) {
	if m.destroyed.Load() {
		return
	}

	registry := state.registry
	timecodes := block.timecodes.withScale(state.timecodeScale)

	trackNumber, _, _, trackNumberErr := ebml.DecodeVINT(block.payload)
	if trackNumberErr != nil {
		m.reportBlockError(0, "block", errors.Wrapf(trackNumberErr, "failed to read track number of block at offset %d", block.offset))

		return
	}

	track, ok := registry.byNumber[trackNumber]
	if !ok {
		return
	}

	parsedBlock, parsedBlockErr := ebmlblock.UnmarshalBlock(bytes.NewReader(block.payload), int64(len(block.payload)))
	if parsedBlockErr != nil {
		m.reportBlockError(trackNumber, "block", errors.Wrapf(parsedBlockErr, "failed to read block at offset %d", block.offset))

		return
	}

	start := timecodes.Time(int64(parsedBlock.Timecode))
	var duration time.Duration
	if block.hasDuration {
		duration = timecodes.Duration(block.duration)
	}

	for _, frame := range parsedBlock.Data {
		data, dataErr := uncompressedData(frame, track)
		if dataErr != nil {
			reason := "decompression"
			if errors.Is(dataErr, ErrUnsupportedCompression) {
				reason = "unsupported_compression"
			}

			m.reportBlockError(trackNumber, reason, errors.Wrapf(dataErr, "failed to decode block at offset %d", block.offset))

			continue
		}

		subtitle := MatroskaSubtitle{
			Duration:    duration,
			Start:       start,
			Text:        decodeText(data),
			TrackNumber: trackNumber,
		}

		if track.IsSubStation() {
			subtitle.SubStation, subtitle.Text = splitSubStation(subtitle.Text, track.Type)
		}

		m.emit(subtitle)
	}
}

func (m *MatroskaFile) reportBlockError(trackNumber uint64, reason string, err error) {
	m.logger.Warn("Failed to extract subtitle block", slog.Uint64("track", trackNumber), slog.Any("error", err))
	m.metrics.blockFailed(reason)

	m.subscribersMu.RLock()
	defer m.subscribersMu.RUnlock()

	for _, handler := range m.blockErrorHandlers {
		handler(trackNumber, err)
	}
}

func (m *MatroskaFile) emit(subtitle MatroskaSubtitle) {
	m.metrics.subtitleEmitted(subtitle.TrackNumber)

	m.subscribersMu.RLock()
	defer m.subscribersMu.RUnlock()

	for _, handler := range m.subtitleHandlers {
		handler(subtitle)
	}
}
