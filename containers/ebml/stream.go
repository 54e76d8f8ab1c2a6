package ebml

import (
	"io"

	"github.com/cockroachdb/errors"
)

// Action tells a StreamDecoder what to do with an element once its header
// has been read.
type Action int

const (
	// Skip discards the element's data.
	Skip Action = iota
	// Descend continues decoding inside the element, as if its children
	// followed at the same level.
	Descend
	// Capture buffers the whole element and emits it once complete.
	Capture
)

// Filter is consulted before an element chosen for capture is buffered. It is
// given the element data received so far. It returns decided false when it
// needs more data, otherwise keep tells whether the element is captured or
// skipped. An element whose data is complete is captured when the filter is
// still undecided.
type Filter func(id uint32, prefix []byte) (keep bool, decided bool)

// StreamDecoder is a push decoder: bytes are written to it as they arrive and
// complete captured elements are emitted as soon as their last byte is seen.
// Element boundaries may fall anywhere between writes.
type StreamDecoder struct {
	classify func(id uint32) Action
	filter   Filter
	schema   Schema

	buffer []byte
	// offset is the stream offset of buffer[0].
	offset int64
	skip   uint64
	err    error
}

// NewStreamDecoder creates a decoder whose first written byte is at the given
// stream offset and starts an element header.
func NewStreamDecoder(offset int64, classify func(id uint32) Action, schema Schema) *StreamDecoder {
	return &StreamDecoder{
		classify: classify,
		schema:   schema,
		offset:   offset,
	}
}

// SetFilter sets the filter consulted for captured elements.
func (d *StreamDecoder) SetFilter(filter Filter) {
	d.filter = filter
}

// Offset returns the stream offset of the next byte the decoder has not yet
// consumed.
func (d *StreamDecoder) Offset() int64 {
	return d.offset
}

// Buffered returns the number of bytes held while waiting for an element to
// complete.
func (d *StreamDecoder) Buffered() int {
	return len(d.buffer)
}

// Write feeds p to the decoder and calls emit for every captured element that
// completes. Once Write has returned an error the decoder is unusable and
// returns the same error.
func (d *StreamDecoder) Write(p []byte, emit func(*Element)) error {
	if d.err != nil {
		return d.err
	}

	// Skip without buffering when the whole write belongs to skipped data
	if len(d.buffer) == 0 && d.skip >= uint64(len(p)) {
		d.skip -= uint64(len(p))
		d.offset += int64(len(p))

		return nil
	}

	d.buffer = append(d.buffer, p...)

	consumed := 0
	for consumed < len(d.buffer) {
		if d.skip > 0 {
			n := min(d.skip, uint64(len(d.buffer)-consumed))
			d.skip -= n
			consumed += int(n)

			continue
		}

		header, headerErr := DecodeHeader(d.buffer[consumed:])
		if errors.Is(headerErr, io.ErrUnexpectedEOF) {
			break
		}

		if headerErr != nil {
			d.err = errors.Wrapf(headerErr, "failed to decode element header at stream offset %d", d.offset+int64(consumed))

			return d.err
		}

		action := d.classify(header.ID)
		if action == Skip && header.UnknownSize {
			// Unknown-size data cannot be skipped, read through it instead
			action = Descend
		}

		switch action {
		case Descend:
			consumed += header.HeaderSize
		case Capture:
			if header.UnknownSize {
				d.err = errors.Newf("cannot capture element 0x%X of unknown size", header.ID)

				return d.err
			}

			if d.filter != nil {
				dataStart := consumed + header.HeaderSize
				available := uint64(len(d.buffer) - dataStart)
				complete := available >= header.Size
				if complete {
					available = header.Size
				}

				keep, decided := d.filter(header.ID, d.buffer[dataStart:dataStart+int(available)])
				if !decided && !complete {
					d.compact(consumed)

					return nil
				}

				if decided && !keep {
					consumed += header.HeaderSize
					d.skip = header.Size

					continue
				}
			}

			total := uint64(header.HeaderSize) + header.Size
			if uint64(len(d.buffer)-consumed) < total {
				d.compact(consumed)

				return nil
			}

			// Emitted elements outlive the buffer
			raw := append([]byte(nil), d.buffer[consumed:consumed+int(total)]...)

			element, elementErr := ParseElement(raw, d.offset+int64(consumed), d.schema)
			if elementErr != nil {
				d.err = errors.Wrap(elementErr, "failed to decode captured element")

				return d.err
			}

			consumed += int(total)
			emit(element)
		default:
			consumed += header.HeaderSize
			d.skip = header.Size
		}
	}

	d.compact(consumed)

	return nil
}

func (d *StreamDecoder) compact(consumed int) {
	d.offset += int64(consumed)
	remaining := copy(d.buffer, d.buffer[consumed:])
	d.buffer = d.buffer[:remaining]
}
