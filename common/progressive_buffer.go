package common

import (
	"io"
	"sync"

	"github.com/cockroachdb/errors"
)

// ProgressiveBuffer holds the bytes of a source that is still arriving, such
// as a download in progress. ReadAt waits until the requested bytes have been
// written or the buffer is closed.
type ProgressiveBuffer struct {
	mu     sync.Mutex
	cond   *sync.Cond
	data   []byte
	closed bool
	err    error
}

func NewProgressiveBuffer() *ProgressiveBuffer {
	buffer := &ProgressiveBuffer{}
	buffer.cond = sync.NewCond(&buffer.mu)

	return buffer
}

// NewForwardSource copies reader into a new buffer in the background, so
// a reader that can only be read front to back can be read at any offset.
func NewForwardSource(reader io.Reader) *ProgressiveBuffer {
	buffer := NewProgressiveBuffer()

	go func() {
		_, copyErr := io.Copy(buffer, reader)
		buffer.CloseWithError(copyErr)
	}()

	return buffer
}

func (b *ProgressiveBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, errors.Wrap(io.ErrClosedPipe, "failed to write to closed buffer")
	}

	b.data = append(b.data, p...)
	b.cond.Broadcast()

	return len(p), nil
}

// Close marks the end of the source. Pending and later reads past the end
// return io.EOF.
func (b *ProgressiveBuffer) Close() error {
	return b.CloseWithError(nil)
}

// CloseWithError marks the end of the source. Reads past the end return err,
// or io.EOF when err is nil.
func (b *ProgressiveBuffer) CloseWithError(err error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.closed = true
	b.err = err
	b.cond.Broadcast()

	return nil
}

// ReadAt implements io.ReaderAt.
func (b *ProgressiveBuffer) ReadAt(p []byte, offset int64) (int, error) {
	if offset < 0 {
		return 0, errors.Newf("negative offset %d", offset)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for !b.closed && int64(len(b.data)) < offset+int64(len(p)) {
		b.cond.Wait()
	}

	if offset >= int64(len(b.data)) {
		return 0, b.endErr()
	}

	bytesCopied := copy(p, b.data[offset:])
	if bytesCopied < len(p) {
		return bytesCopied, b.endErr()
	}

	return bytesCopied, nil
}

func (b *ProgressiveBuffer) endErr() error {
	if b.err != nil {
		return b.err
	}

	return io.EOF
}

// Len returns the number of bytes written so far.
func (b *ProgressiveBuffer) Len() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	return int64(len(b.data))
}
