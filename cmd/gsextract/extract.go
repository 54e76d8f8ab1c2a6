package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/ristryder/gse/common"
	"github.com/ristryder/gse/containers/matroska"
	"github.com/ristryder/gse/internal/config"
)

// extraction holds everything read from one Matroska source.
type extraction struct {
	mu         sync.Mutex
	paragraphs map[uint64][]common.Paragraph
	failures   map[uint64]int

	attachments []matroska.MatroskaAttachment
	chapters    []matroska.MatroskaChapter
	title       string
	tracks      []matroska.MatroskaTrackInfo
}

func newExtraction() *extraction {
	return &extraction{
		paragraphs: make(map[uint64][]common.Paragraph),
		failures:   make(map[uint64]int),
	}
}

func (e *extraction) subscribe(cfg *config.Config, file *matroska.MatroskaFile) {
	file.OnSubtitle(func(subtitle matroska.MatroskaSubtitle) {
		if !cfg.WantsTrack(subtitle.TrackNumber) {
			return
		}

		e.mu.Lock()
		e.paragraphs[subtitle.TrackNumber] = append(e.paragraphs[subtitle.TrackNumber], subtitle.Paragraph())
		e.mu.Unlock()
	})

	file.OnBlockError(func(trackNumber uint64, _ error) {
		e.mu.Lock()
		e.failures[trackNumber]++
		e.mu.Unlock()
	})
}

// collect reads the parts of the file that are not streamed as events.
func (e *extraction) collect(ctx context.Context, cfg *config.Config, file *matroska.MatroskaFile) error {
	tracks, tracksErr := file.Tracks(ctx)
	if errors.Is(tracksErr, matroska.ErrElementNotFound) {
		slog.Warn("File has no tracks", slog.String("file", file.String()))
		tracks = nil
	} else if tracksErr != nil {
		return tracksErr
	}
	e.tracks = tracks

	title, titleErr := file.Title(ctx)
	if titleErr != nil {
		slog.Debug("Failed to read title", slog.Any("error", titleErr))
	}
	e.title = title

	if cfg.Chapters {
		chapters, chaptersErr := file.Chapters(ctx)
		if chaptersErr != nil {
			return chaptersErr
		}
		e.chapters = chapters
	}

	if cfg.Attachments {
		attachments, attachmentsErr := file.Attachments(ctx)
		if attachmentsErr != nil {
			return attachmentsErr
		}
		e.attachments = attachments
	}

	return nil
}

func isURL(input string) bool {
	return strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://")
}

func extract(ctx context.Context, cfg *config.Config, input string, options matroska.MatroskaFileOptions) (*extraction, error) {
	switch {
	case input == "-":
		return extractStream(ctx, cfg, os.Stdin, options)
	case isURL(input):
		request, requestErr := http.NewRequestWithContext(ctx, http.MethodGet, input, nil)
		if requestErr != nil {
			return nil, errors.Wrapf(requestErr, "failed to create request for %s", input)
		}

		response, responseErr := http.DefaultClient.Do(request)
		if responseErr != nil {
			return nil, errors.Wrapf(responseErr, "failed to fetch %s", input)
		}
		defer response.Body.Close()

		if response.StatusCode != http.StatusOK {
			return nil, errors.Newf("failed to fetch %s: unexpected status %s", input, response.Status)
		}

		return extractStream(ctx, cfg, response.Body, options)
	default:
		return extractFile(ctx, cfg, input, options)
	}
}

func extractFile(ctx context.Context, cfg *config.Config, path string, options matroska.MatroskaFileOptions) (*extraction, error) {
	options.ProgressCallback = func(position int64, size int64) {
		slog.Debug("Parsing file", slog.Int64("position", position), slog.Int64("size", size))
	}

	file, fileErr := matroska.OpenMatroskaFile(ctx, path, options)
	if fileErr != nil {
		return nil, fileErr
	}
	defer file.Close()

	result := newExtraction()
	result.subscribe(cfg, file)

	if parseErr := file.ParseFile(ctx); parseErr != nil {
		return nil, errors.Wrapf(parseErr, "failed to parse %s", path)
	}

	if collectErr := result.collect(ctx, cfg, file); collectErr != nil {
		return nil, errors.Wrapf(collectErr, "failed to read %s", path)
	}

	return result, nil
}

// extractStream extracts subtitles while body is read. The bytes are kept in
// a progressive buffer so the tracks, chapters and attachments can be located
// as soon as they have arrived.
func extractStream(ctx context.Context, cfg *config.Config, body io.Reader, options matroska.MatroskaFileOptions) (*extraction, error) {
	buffer := common.NewProgressiveBuffer()

	file := matroska.NewMatroskaFile(ctx, buffer, options)
	defer file.Destroy()

	stop := context.AfterFunc(ctx, file.Destroy)
	defer stop()

	result := newExtraction()
	result.subscribe(cfg, file)

	reader := file.NewStreamReader(io.TeeReader(body, buffer))
	if _, copyErr := io.Copy(io.Discard, reader); copyErr != nil {
		buffer.CloseWithError(copyErr)
		return nil, errors.Wrap(copyErr, "failed to read stream")
	}
	buffer.Close()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	slog.Debug("Read stream", slog.Int64("bytes", buffer.Len()))

	if flushErr := file.Flush(ctx); flushErr != nil {
		return nil, errors.Wrap(flushErr, "failed to extract subtitles")
	}

	if collectErr := result.collect(ctx, cfg, file); collectErr != nil {
		return nil, errors.Wrap(collectErr, "failed to read stream")
	}

	return result, nil
}
