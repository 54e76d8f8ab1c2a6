package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ristryder/gse/common"
	"github.com/ristryder/gse/containers/matroska"
	"github.com/ristryder/gse/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputBaseName(t *testing.T) {
	testCases := []struct {
		input  string
		expect string
	}{
		{input: "/videos/movie.mkv", expect: "movie"},
		{input: "movie", expect: "movie"},
		{input: "-", expect: "stdin"},
		{input: "https://example.com/media/episode.01.webm?token=1", expect: "episode.01"},
		{input: "https://example.com/", expect: "download"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.input, func(t *testing.T) {
			assert.Equal(t, testCase.expect, outputBaseName(testCase.input))
		})
	}
}

func TestAttachmentFileName(t *testing.T) {
	assert.Equal(t, "font.ttf", attachmentFileName(0, &matroska.MatroskaAttachment{FileName: "font.ttf"}))
	assert.Equal(t, "passwd", attachmentFileName(0, &matroska.MatroskaAttachment{FileName: "../../etc/passwd"}))
	assert.Equal(t, "attachment-3", attachmentFileName(3, &matroska.MatroskaAttachment{}))
}

func TestChaptersText(t *testing.T) {
	text := chaptersText([]matroska.MatroskaChapter{
		{Start: 0, End: 90 * time.Second, Text: "Intro"},
		{Start: time.Hour + 1500*time.Millisecond, End: 2 * time.Hour, Text: "End"},
	})

	assert.Equal(t, "00:00:00.000 - 00:01:30.000 Intro\n01:00:01.500 - 02:00:00.000 End\n", text)
}

func TestExtractionWrite(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output = filepath.Join(t.TempDir(), "out")
	cfg.Tracks = []uint64{2, 3}

	result := newExtraction()
	result.title = "Movie"
	result.tracks = []matroska.MatroskaTrackInfo{
		{TrackNumber: 1, Type: "utf8", Language: "eng"},
		{TrackNumber: 2, Type: "utf8", Language: "ger"},
		{TrackNumber: 3, Type: "ass", Language: "eng", CodecPrivate: "[Script Info]\nTitle: Movie\n"},
	}
	result.paragraphs[2] = []common.Paragraph{
		{Start: 2 * time.Second, End: 3 * time.Second, Text: "Second"},
		{Start: time.Second, End: 2 * time.Second, Text: "First"},
	}
	result.paragraphs[3] = []common.Paragraph{
		{Start: time.Second, End: 2 * time.Second, Text: "Styled", Style: "Sign", Layer: "1"},
	}
	result.chapters = []matroska.MatroskaChapter{{Start: 0, End: time.Second, Text: "Only"}}
	result.attachments = []matroska.MatroskaAttachment{{FileName: "font.ttf", Data: []byte{1, 2, 3}}}

	require.NoError(t, result.write(context.Background(), cfg, "movie"))

	_, err := os.Stat(filepath.Join(cfg.Output, "movie.1.eng.srt"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	subRip, err := os.ReadFile(filepath.Join(cfg.Output, "movie.2.ger.srt"))
	require.NoError(t, err)
	assert.Equal(t, "1\n00:00:01,000 --> 00:00:02,000\nFirst\n\n2\n00:00:02,000 --> 00:00:03,000\nSecond\n\n", string(subRip))

	subStation, err := os.ReadFile(filepath.Join(cfg.Output, "movie.3.eng.ass"))
	require.NoError(t, err)
	assert.Contains(t, string(subStation), "Title: Movie\n")
	assert.Contains(t, string(subStation), "Dialogue: 1,0:00:01.00,0:00:02.00,Sign,,0,0,0,,Styled\n")

	chapters, err := os.ReadFile(filepath.Join(cfg.Output, "movie.chapters.txt"))
	require.NoError(t, err)
	assert.Equal(t, "00:00:00.000 - 00:00:01.000 Only\n", string(chapters))

	font, err := os.ReadFile(filepath.Join(cfg.Output, "movie.attachments", "font.ttf"))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, font)
}

func TestExtractMissingFile(t *testing.T) {
	_, err := extract(context.Background(), config.DefaultConfig(), filepath.Join(t.TempDir(), "missing.mkv"), matroska.MatroskaFileOptions{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExtractUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := extract(context.Background(), config.DefaultConfig(), server.URL+"/movie.mkv", matroska.MatroskaFileOptions{})
	assert.ErrorContains(t, err, "unexpected status")
}

func TestExtractStreamNotMatroska(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not a matroska file"))
	}))
	defer server.Close()

	_, err := extract(context.Background(), config.DefaultConfig(), server.URL+"/movie.mkv", matroska.MatroskaFileOptions{})
	assert.ErrorIs(t, err, matroska.ErrContainerFormat)
}
