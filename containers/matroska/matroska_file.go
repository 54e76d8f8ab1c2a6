package matroska

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/ristryder/gse/common"
)

const (
	DefaultChunkSize = 64 * 1024
	// DefaultMaxQueuedBytes is the amount of block data held while waiting
	// for the tracks of a file.
	DefaultMaxQueuedBytes = 16 * 1024 * 1024
)

type MatroskaFileOptions struct {
	// ChunkSize is the number of bytes ParseFile reads at a time.
	ChunkSize int
	Logger    *slog.Logger
	// MaxQueuedBytes caps the block data held until the tracks and the
	// segment info have been read. Blocks beyond it are dropped and counted
	// as discarded bytes.
	MaxQueuedBytes int
	Metrics        *Metrics
	// ProgressCallback is called by ParseFile with the position reached and
	// the size of the source, or -1 when the size is unknown.
	ProgressCallback func(int64, int64)
}

// MatroskaFile extracts subtitles, chapters and attachments from a Matroska
// source. Subtitles are extracted while the source is read, either by
// ParseFile or by reading through a reader returned by NewStreamReader.
type MatroskaFile struct {
	ctx    context.Context
	cancel context.CancelFunc

	closer    io.Closer
	destroyed atomic.Bool
	options   MatroskaFileOptions
	source    io.ReaderAt

	logger    *slog.Logger
	metrics   *Metrics
	navigator *navigator
	timeline  *Timeline

	attachments lazy[[]MatroskaAttachment]
	chapters    lazy[[]MatroskaChapter]
	segmentInfo lazy[*segmentInfo]
	tracks      lazy[*trackRegistry]

	dispatcher *blockDispatcher
	handlers   map[ElementId]elementHandler

	subscribersMu      sync.RWMutex
	blockErrorHandlers []func(uint64, error)
	subtitleHandlers   []func(MatroskaSubtitle)
}

// NewMatroskaFile creates a session over source and starts locating the
// segment, the seek head, the tracks and the segment info in the background.
// It does not wait for any of them: source may still be filling up.
func NewMatroskaFile(ctx context.Context, source io.ReaderAt, options MatroskaFileOptions) *MatroskaFile {
	if options.ChunkSize <= 0 {
		options.ChunkSize = DefaultChunkSize
	}

	if options.MaxQueuedBytes <= 0 {
		options.MaxQueuedBytes = DefaultMaxQueuedBytes
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sessionCtx, cancel := context.WithCancel(ctx)

	matroskaFile := &MatroskaFile{
		ctx:       sessionCtx,
		cancel:    cancel,
		options:   options,
		source:    source,
		logger:    logger,
		metrics:   options.Metrics,
		navigator: newNavigator(source, logger),
		timeline:  newTimeline(),
	}

	matroskaFile.dispatcher = &blockDispatcher{file: matroskaFile, maxQueuedBytes: options.MaxQueuedBytes}
	matroskaFile.handlers = matroskaFile.elementHandlers()

	go matroskaFile.prefetch()

	return matroskaFile
}

// OpenMatroskaFile opens the Matroska file at path. Close releases it.
func OpenMatroskaFile(ctx context.Context, path string, options MatroskaFileOptions) (*MatroskaFile, error) {
	file, openErr := common.NewFileStream(path)
	if openErr != nil {
		return nil, errors.Wrapf(openErr, "failed to open Matroska file %s", path)
	}

	matroskaFile := NewMatroskaFile(ctx, file, options)
	matroskaFile.closer = file

	return matroskaFile, nil
}

func (m *MatroskaFile) prefetch() {
	if _, segmentErr := m.navigator.locateSegmentBody(m.ctx); segmentErr != nil {
		if !isContextError(segmentErr) {
			m.logger.Error("Failed to open Matroska file", slog.Any("error", segmentErr))
		}

		return
	}

	if _, indexErr := m.navigator.resolveIndex(m.ctx); indexErr != nil && errors.Is(indexErr, ErrIndexMissing) {
		m.logger.Debug("File has no seek head, elements are located by scanning", slog.Any("error", indexErr))
	}

	_, _ = m.registry(m.ctx)
	_, _ = m.info(m.ctx)
}

// OnSubtitle registers handler to be called with every extracted subtitle.
// Handlers are called one at a time, in block order. A handler may call Flush
// only once the tracks and the segment info have been read, e.g. after
// Tracks and Duration have returned: before that, blocks are handed out by a
// goroutine that Flush waits for.
func (m *MatroskaFile) OnSubtitle(handler func(MatroskaSubtitle)) {
	m.subscribersMu.Lock()
	defer m.subscribersMu.Unlock()

	m.subtitleHandlers = append(m.subtitleHandlers, handler)
}

// OnBlockError registers handler to be called with every subtitle block that
// could not be extracted. Extraction carries on with the next block.
func (m *MatroskaFile) OnBlockError(handler func(uint64, error)) {
	m.subscribersMu.Lock()
	defer m.subscribersMu.Unlock()

	m.blockErrorHandlers = append(m.blockErrorHandlers, handler)
}

// Segment returns the segment element of the file.
func (m *MatroskaFile) Segment(ctx context.Context) (*Element, error) {
	segment, segmentErr := m.navigator.locateSegmentBody(ctx)
	if segmentErr != nil {
		return nil, errors.Wrap(segmentErr, "failed to read segment")
	}

	return segment, nil
}

// ParseFile reads the whole segment and extracts its subtitles. It returns
// once every subtitle has been handed to the subscribers, or early after
// Destroy.
func (m *MatroskaFile) ParseFile(ctx context.Context) error {
	segment, segmentErr := m.Segment(ctx)
	if segmentErr != nil {
		return segmentErr
	}

	size := int64(-1)
	if sizer, ok := m.source.(interface{ Size() int64 }); ok {
		size = sizer.Size()
	}

	end := segmentEnd(segment)
	position := segment.DataPosition
	synchronizer := m.newSynchronizer(position, true)
	buffer := make([]byte, m.options.ChunkSize)

	for end < 0 || position < end {
		if m.destroyed.Load() {
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		chunk := buffer
		if end >= 0 && int64(len(chunk)) > end-position {
			chunk = chunk[:end-position]
		}

		bytesRead, readErr := m.source.ReadAt(chunk, position)
		synchronizer.write(chunk[:bytesRead])
		position += int64(bytesRead)

		if m.options.ProgressCallback != nil {
			m.options.ProgressCallback(position, size)
		}

		if errors.Is(readErr, io.EOF) {
			break
		}

		if readErr != nil {
			return errors.Wrapf(readErr, "failed to read segment at offset %d", position)
		}
	}

	return m.Flush(ctx)
}

// NewStreamReader returns a reader that reads from reader and extracts
// subtitles from what passes through. The bytes are returned unmodified.
// Reading may start anywhere in the file: extraction starts at the first
// cluster boundary found. After Destroy the reader returns io.EOF without
// reading from reader.
func (m *MatroskaFile) NewStreamReader(reader io.Reader) io.Reader {
	return &streamReader{file: m, reader: reader, synchronizer: m.newSynchronizer(0, false)}
}

type streamReader struct {
	file         *MatroskaFile
	reader       io.Reader
	synchronizer *synchronizer
}

func (s *streamReader) Read(p []byte) (int, error) {
	if s.file.destroyed.Load() {
		return 0, io.EOF
	}

	bytesRead, readErr := s.reader.Read(p)
	if bytesRead > 0 {
		s.synchronizer.write(p[:bytesRead])
	}

	return bytesRead, readErr
}

// Flush waits until every decoded block has been handed to the subscribers.
func (m *MatroskaFile) Flush(ctx context.Context) error {
	if waitErr := m.dispatcher.wait(ctx); waitErr != nil {
		return errors.Wrap(waitErr, "failed to flush subtitles")
	}

	return nil
}

// Destroy stops extraction. Reads in progress complete but no new ones are
// started. It is safe to call more than once.
func (m *MatroskaFile) Destroy() {
	if m.destroyed.CompareAndSwap(false, true) {
		m.cancel()
	}
}

func (m *MatroskaFile) Close() error {
	m.Destroy()

	if m.closer == nil {
		return nil
	}

	return m.closer.Close()
}

func (m *MatroskaFile) String() string {
	scale := m.timeline.Snapshot().TimecodeScale

	return fmt.Sprintf("TimecodeScale: %v , Destroyed: %v", scale, m.destroyed.Load())
}
