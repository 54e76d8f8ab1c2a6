package matroska

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/ristryder/gse/containers/ebml"
)

// maxElementSize bounds the allocation for a fetched top-level element.
const maxElementSize = 1 << 30

var errUnknownSize = errors.New("cannot skip element of unknown size")

// LocatedElement is a fetched top-level element together with its position
// in the container.
type LocatedElement struct {
	Element
	Tree *ebml.Element
}

// navigator locates top-level elements of the segment, using the seek head
// when there is one.
type navigator struct {
	source io.ReaderAt
	logger *slog.Logger

	segment lazy[*Element]
	index   lazy[map[string]int64]

	elementsMu sync.Mutex
	elements   map[string]*lazy[*LocatedElement]
}

func newNavigator(source io.ReaderAt, logger *slog.Logger) *navigator {
	return &navigator{
		source:   source,
		logger:   logger,
		elements: make(map[string]*lazy[*LocatedElement]),
	}
}

func (n *navigator) readHeader(position int64) (ebml.Header, error) {
	buffer := make([]byte, ebml.MaxHeaderSize)
	bytesRead, readErr := n.source.ReadAt(buffer, position)
	if bytesRead == 0 {
		if readErr == nil || errors.Is(readErr, io.EOF) {
			return ebml.Header{}, io.EOF
		}

		return ebml.Header{}, errors.Wrapf(readErr, "failed to read element header at offset %d", position)
	}

	header, headerErr := ebml.DecodeHeader(buffer[:bytesRead])
	if errors.Is(headerErr, io.ErrUnexpectedEOF) {
		// The source ends inside the header
		return ebml.Header{}, io.EOF
	}

	if headerErr != nil {
		return ebml.Header{}, errors.Wrapf(headerErr, "failed to decode element header at offset %d", position)
	}

	return header, nil
}

// scan walks sibling elements from position until visit returns true, end is
// reached (end < 0 means no end) or the source ends, in which case io.EOF is
// returned.
func (n *navigator) scan(ctx context.Context, position int64, end int64, visit func(int64, ebml.Header) bool) error {
	for end < 0 || position < end {
		if err := ctx.Err(); err != nil {
			return err
		}

		header, headerErr := n.readHeader(position)
		if headerErr != nil {
			return headerErr
		}

		if visit(position, header) {
			return nil
		}

		if header.UnknownSize {
			return errors.Wrapf(errUnknownSize, "failed to skip %s at offset %d", ElementId(header.ID).Name(), position)
		}

		position += int64(header.HeaderSize) + int64(header.Size)
	}

	return io.EOF
}

func (n *navigator) readElementAt(position int64) (*LocatedElement, error) {
	header, headerErr := n.readHeader(position)
	if headerErr != nil {
		return nil, headerErr
	}

	if header.UnknownSize {
		return nil, errors.Wrapf(errUnknownSize, "failed to read %s at offset %d", ElementId(header.ID).Name(), position)
	}

	total := uint64(header.HeaderSize) + header.Size
	if total > maxElementSize {
		return nil, errors.Newf("element %s at offset %d is too large (%d bytes)", ElementId(header.ID).Name(), position, total)
	}

	buffer := make([]byte, total)
	bytesRead, readErr := n.source.ReadAt(buffer, position)
	if uint64(bytesRead) < total {
		if readErr == nil || errors.Is(readErr, io.EOF) {
			return nil, io.EOF
		}

		return nil, errors.Wrapf(readErr, "failed to read element at offset %d", position)
	}

	tree, treeErr := ebml.ParseElement(buffer, position, schema)
	if treeErr != nil {
		return nil, errors.Wrapf(treeErr, "failed to decode element at offset %d", position)
	}

	return &LocatedElement{Element: *NewElement(ElementId(header.ID), position, header), Tree: tree}, nil
}

func (n *navigator) locateSegmentBody(ctx context.Context) (*Element, error) {
	return n.segment.get(ctx, func(ctx context.Context) (*Element, error) {
		var segment *Element
		scanErr := n.scan(ctx, 0, -1, func(position int64, header ebml.Header) bool {
			if ElementId(header.ID) != ElementSegment {
				return false
			}

			segment = NewElement(ElementSegment, position, header)

			return true
		})

		if segment != nil {
			n.logger.Debug("Located segment", slog.Int64("dataPosition", segment.DataPosition), slog.Bool("unknownSize", segment.UnknownSize))

			return segment, nil
		}

		if isContextError(scanErr) {
			return nil, scanErr
		}

		return nil, errors.Mark(errors.Wrap(scanErr, "failed to locate segment"), ErrContainerFormat)
	})
}

func segmentEnd(segment *Element) int64 {
	if segment.UnknownSize {
		return -1
	}

	return segment.EndPosition()
}

func (n *navigator) resolveIndex(ctx context.Context) (map[string]int64, error) {
	return n.index.get(ctx, func(ctx context.Context) (map[string]int64, error) {
		segment, segmentErr := n.locateSegmentBody(ctx)
		if segmentErr != nil {
			return nil, segmentErr
		}

		seekHeadPosition := int64(-1)
		scanErr := n.scan(ctx, segment.DataPosition, segmentEnd(segment), func(position int64, header ebml.Header) bool {
			switch ElementId(header.ID) {
			case ElementSeekHead:
				seekHeadPosition = position

				return true
			case ElementCluster:
				// The seek head always precedes the first cluster
				return true
			}

			return false
		})

		if seekHeadPosition < 0 {
			if isContextError(scanErr) {
				return nil, scanErr
			}

			if scanErr == nil {
				scanErr = errors.New("reached first cluster")
			}

			return nil, errors.Mark(errors.Wrap(scanErr, "failed to find seek head"), ErrIndexMissing)
		}

		index := make(map[string]int64)
		visited := make(map[int64]bool)
		if readErr := n.readIndex(segment, seekHeadPosition, index, visited); readErr != nil {
			return nil, errors.Wrap(readErr, "failed to read seek head")
		}

		n.logger.Debug("Resolved seek head", slog.Int("entries", len(index)))

		return index, nil
	})
}

// readIndex reads the seek head at position into index. Entries already in
// index are kept, so the first seek head read takes precedence over the
// seek heads it references.
func (n *navigator) readIndex(segment *Element, position int64, index map[string]int64, visited map[int64]bool) error {
	if visited[position] {
		return nil
	}

	visited[position] = true

	seekHead, seekHeadErr := n.readElementAt(position)
	if seekHeadErr != nil {
		return seekHeadErr
	}

	if seekHead.Id != ElementSeekHead {
		return errors.Newf("expected seek head at offset %d, found %s", position, seekHead.Id.Name())
	}

	var chained []int64
	for _, seek := range seekHead.Tree.ChildrenWithID(uint32(ElementSeek)) {
		seekId := seek.Child(uint32(ElementSeekId))
		seekPosition := seek.Child(uint32(ElementSeekPosition))
		if seekId == nil || seekPosition == nil {
			continue
		}

		id := ElementId(seekId.Uint())
		offset := int64(seekPosition.Uint())

		if id == ElementSeekHead {
			chained = append(chained, offset)

			continue
		}

		if _, exists := index[id.Name()]; !exists {
			index[id.Name()] = offset
		}
	}

	for _, offset := range chained {
		chainedErr := n.readIndex(segment, segment.DataPosition+offset, index, visited)
		if chainedErr != nil {
			n.logger.Warn("Failed to read chained seek head", slog.Int64("offset", offset), slog.Any("error", chainedErr))
		}
	}

	return nil
}

// fetchNamed returns the named top-level element, fetching it at most once.
func (n *navigator) fetchNamed(ctx context.Context, name string) (*LocatedElement, error) {
	n.elementsMu.Lock()
	entry, ok := n.elements[name]
	if !ok {
		entry = &lazy[*LocatedElement]{}
		n.elements[name] = entry
	}
	n.elementsMu.Unlock()

	return entry.get(ctx, func(ctx context.Context) (*LocatedElement, error) {
		return n.fetch(ctx, name)
	})
}

func (n *navigator) fetch(ctx context.Context, name string) (*LocatedElement, error) {
	id, ok := elementIdByName(name)
	if !ok {
		return nil, errors.Newf("unknown element name %q", name)
	}

	segment, segmentErr := n.locateSegmentBody(ctx)
	if segmentErr != nil {
		return nil, segmentErr
	}

	index, indexErr := n.resolveIndex(ctx)
	if isContextError(indexErr) {
		return nil, indexErr
	}

	if indexErr != nil && !errors.Is(indexErr, ErrIndexMissing) {
		n.logger.Debug("Seek head is unusable, scanning segment", slog.String("name", name), slog.Any("error", indexErr))
	}

	if offset, ok := index[name]; ok {
		element, findErr := n.find(ctx, id, segment.DataPosition+offset, segmentEnd(segment))
		if findErr == nil {
			return element, nil
		}

		if isContextError(findErr) {
			return nil, findErr
		}

		n.logger.Debug("Seek head entry did not lead to element, scanning segment", slog.String("name", name), slog.Any("error", findErr))
	}

	element, findErr := n.find(ctx, id, segment.DataPosition, segmentEnd(segment))
	if findErr != nil {
		if isContextError(findErr) {
			return nil, findErr
		}

		return nil, errors.Mark(errors.Wrapf(findErr, "failed to find %s", name), ErrElementNotFound)
	}

	return element, nil
}

func (n *navigator) find(ctx context.Context, id ElementId, position int64, end int64) (*LocatedElement, error) {
	found := int64(-1)
	scanErr := n.scan(ctx, position, end, func(position int64, header ebml.Header) bool {
		if ElementId(header.ID) == id {
			found = position

			return true
		}

		return false
	})

	if found < 0 {
		return nil, scanErr
	}

	return n.readElementAt(found)
}
