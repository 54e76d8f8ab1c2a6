package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ristryder/gse/common"
	"github.com/ristryder/gse/containers/matroska"
	"github.com/ristryder/gse/interfaces"
	"github.com/ristryder/gse/internal/config"
	"github.com/ristryder/gse/subtitles"
)

// outputBaseName returns the name extracted files are prefixed with.
func outputBaseName(input string) string {
	name := input
	switch {
	case input == "-":
		return "stdin"
	case isURL(input):
		parsed, err := url.Parse(input)
		if err != nil {
			return "download"
		}
		name = path.Base(parsed.Path)
	default:
		name = filepath.Base(input)
	}

	name = strings.TrimSuffix(name, path.Ext(name))
	if name == "" || name == "." || name == "/" {
		return "download"
	}

	return name
}

func formatFor(track *matroska.MatroskaTrackInfo) interfaces.SubtitleFormat {
	if track.IsSubStation() {
		return subtitles.NewSubStationAlpha(track.Type)
	}

	return &subtitles.SubRip{}
}

func trackFileName(baseName string, track *matroska.MatroskaTrackInfo, format interfaces.SubtitleFormat) string {
	name := fmt.Sprintf("%s.%d", baseName, track.TrackNumber)
	if track.Language != "" {
		name += "." + track.Language
	}

	return name + format.Extension()
}

func formatChapterTime(timestamp time.Duration) string {
	milliseconds := timestamp.Milliseconds()

	return fmt.Sprintf("%02d:%02d:%02d.%03d", milliseconds/3_600_000, milliseconds/60_000%60, milliseconds/1000%60, milliseconds%1000)
}

func chaptersText(chapters []matroska.MatroskaChapter) string {
	var builder strings.Builder
	for _, chapter := range chapters {
		fmt.Fprintf(&builder, "%s - %s %s\n", formatChapterTime(chapter.Start), formatChapterTime(chapter.End), chapter.Text)
	}

	return builder.String()
}

// attachmentFileName keeps attachments inside their directory.
func attachmentFileName(index int, attachment *matroska.MatroskaAttachment) string {
	name := filepath.Base(filepath.Clean("/" + attachment.FileName))
	if name == "/" || name == "." {
		return fmt.Sprintf("attachment-%d", index)
	}

	return name
}

func (e *extraction) write(ctx context.Context, cfg *config.Config, baseName string) error {
	if err := os.MkdirAll(cfg.Output, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create output directory %s", cfg.Output)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.tracks {
		if err := ctx.Err(); err != nil {
			return err
		}

		track := &e.tracks[i]
		if !cfg.WantsTrack(track.TrackNumber) {
			continue
		}

		paragraphs := slices.Clone(e.paragraphs[track.TrackNumber])
		slices.SortStableFunc(paragraphs, func(a common.Paragraph, b common.Paragraph) int {
			return int(a.Start - b.Start)
		})

		format := formatFor(track)
		text := format.ToText(&common.Subtitle{Header: track.CodecPrivate, Paragraphs: paragraphs}, e.title)

		outputPath := filepath.Join(cfg.Output, trackFileName(baseName, track, format))
		if err := os.WriteFile(outputPath, []byte(text), 0o644); err != nil {
			return errors.Wrapf(err, "failed to write track %d", track.TrackNumber)
		}

		slog.Info("Wrote subtitle track",
			slog.Uint64("track", track.TrackNumber),
			slog.String("format", format.Name()),
			slog.String("path", outputPath),
			slog.Int("events", len(paragraphs)),
			slog.Int("failures", e.failures[track.TrackNumber]),
		)
	}

	if len(e.chapters) > 0 {
		outputPath := filepath.Join(cfg.Output, baseName+".chapters.txt")
		if err := os.WriteFile(outputPath, []byte(chaptersText(e.chapters)), 0o644); err != nil {
			return errors.Wrap(err, "failed to write chapters")
		}

		slog.Info("Wrote chapters", slog.String("path", outputPath), slog.Int("chapters", len(e.chapters)))
	}

	if len(e.attachments) > 0 {
		directory := filepath.Join(cfg.Output, baseName+".attachments")
		if err := os.MkdirAll(directory, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create attachment directory %s", directory)
		}

		for i := range e.attachments {
			attachment := &e.attachments[i]
			outputPath := filepath.Join(directory, attachmentFileName(i, attachment))
			if err := os.WriteFile(outputPath, attachment.Data, 0o644); err != nil {
				return errors.Wrapf(err, "failed to write attachment %s", attachment.FileName)
			}

			slog.Debug("Wrote attachment", slog.String("path", outputPath), slog.String("mimeType", attachment.MimeType))
		}
	}

	return nil
}
