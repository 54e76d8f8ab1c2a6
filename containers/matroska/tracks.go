package matroska

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ristryder/gse/containers/ebml"
)

type trackRegistry struct {
	tracks   []MatroskaTrackInfo
	byNumber map[uint64]*MatroskaTrackInfo
}

func (m *MatroskaFile) readTracksElement(ctx context.Context) (*trackRegistry, error) {
	tracksElement, tracksErr := m.navigator.fetchNamed(ctx, ElementTracks.Name())
	if tracksErr != nil {
		return nil, errors.Wrap(tracksErr, "failed to read tracks element")
	}

	registry := &trackRegistry{
		tracks:   []MatroskaTrackInfo{},
		byNumber: make(map[uint64]*MatroskaTrackInfo),
	}

	seen := make(map[uint64]bool)
	for _, entry := range tracksElement.Tree.ChildrenWithID(uint32(ElementTrackEntry)) {
		track := m.readTrackEntryElement(entry)
		if track == nil {
			continue
		}

		if seen[track.TrackNumber] {
			m.logger.Warn("Ignoring duplicate subtitle track", slog.Uint64("track", track.TrackNumber))

			continue
		}

		seen[track.TrackNumber] = true
		registry.tracks = append(registry.tracks, *track)
	}

	for i := range registry.tracks {
		registry.byNumber[registry.tracks[i].TrackNumber] = &registry.tracks[i]
	}

	return registry, nil
}

// readTrackEntryElement returns the text subtitle track described by
// trackEntryElement, or nil for any other track.
func (m *MatroskaFile) readTrackEntryElement(trackEntryElement *ebml.Element) *MatroskaTrackInfo {
	track := &MatroskaTrackInfo{
		ContentEncodingScope: ContentEncodingScopeTracks,
		IsDefault:            true,
		Language:             defaultTrackLanguage,
	}

	var trackType uint64
	var codecPrivate []byte

	for _, element := range trackEntryElement.Children {
		switch ElementId(element.ID) {
		case ElementTrackNumber:
			track.TrackNumber = element.Uint()
		case ElementTrackType:
			trackType = element.Uint()
		case ElementCodecId:
			track.CodecId = element.Text()
		case ElementCodecPrivate:
			codecPrivate = element.Data
		case ElementName:
			track.Name = element.Text()
		case ElementLanguage:
			track.Language = element.Text()
		case ElementFlagDefault:
			track.IsDefault = element.Bool()
		case ElementFlagForced:
			track.IsForced = element.Bool()
		case ElementContentEncodings:
			m.readContentEncodingsElement(element, track)
		}
	}

	if trackType != TrackTypeSubtitle || !strings.HasPrefix(track.CodecId, SubtitleCodecPrefix) {
		return nil
	}

	track.Type = strings.ToLower(strings.TrimPrefix(track.CodecId, SubtitleCodecPrefix))

	if codecPrivate != nil {
		track.CodecPrivate = m.readCodecPrivate(codecPrivate, track)
	}

	return track
}

func (m *MatroskaFile) readContentEncodingsElement(contentEncodingsElement *ebml.Element, track *MatroskaTrackInfo) {
	for _, contentEncoding := range contentEncodingsElement.ChildrenWithID(uint32(ElementContentEncoding)) {
		if encodingType := contentEncoding.Child(uint32(ElementContentEncodingType)); encodingType != nil {
			track.ContentEncodingType = int(encodingType.Uint())
		}

		if scope := contentEncoding.Child(uint32(ElementContentEncodingScope)); scope != nil {
			track.ContentEncodingScope = uint(scope.Uint())
		}

		compression := contentEncoding.Child(uint32(ElementContentCompression))
		if compression == nil {
			continue
		}

		track.Compressed = true
		track.ContentCompressionAlgorithm = ContentCompressionAlgorithmZlib

		if algorithm := compression.Child(uint32(ElementContentCompAlgo)); algorithm != nil {
			track.ContentCompressionAlgorithm = int(algorithm.Uint())
			track.ContentCompressionDeclared = true
		} else {
			m.logger.Debug("Content compression algorithm not declared, assuming zlib", slog.Uint64("track", track.TrackNumber))
		}

		if settings := compression.Child(uint32(ElementContentCompSettings)); settings != nil {
			track.ContentCompSettings = settings.Data
		}
	}
}

func (m *MatroskaFile) readCodecPrivate(codecPrivate []byte, track *MatroskaTrackInfo) string {
	if !track.Compressed || (track.ContentEncodingScope&ContentEncodingScopePrivateData) == 0 {
		return decodeText(codecPrivate)
	}

	if encodingErr := checkEncoding(track); encodingErr != nil {
		return ""
	}

	uncompressedData, uncompressedDataErr := decompress(codecPrivate, track)
	if uncompressedDataErr != nil {
		m.logger.Warn("Failed to decompress codec private data", slog.Uint64("track", track.TrackNumber), slog.Any("error", uncompressedDataErr))

		return ""
	}

	return decodeText(uncompressedData)
}

// Tracks returns the text subtitle tracks of the file.
func (m *MatroskaFile) Tracks(ctx context.Context) ([]MatroskaTrackInfo, error) {
	registry, registryErr := m.registry(ctx)
	if registryErr != nil {
		return nil, errors.Wrap(registryErr, "failed to read tracks")
	}

	return slices.Clone(registry.tracks), nil
}

func (m *MatroskaFile) registry(ctx context.Context) (*trackRegistry, error) {
	return m.tracks.get(ctx, m.readTracksElement)
}
