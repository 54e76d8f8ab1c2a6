package subtitles

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ristryder/gse/common"
	"github.com/ristryder/gse/interfaces"
)

var _ interfaces.SubtitleFormat = (*SubRip)(nil)

const (
	defaultSeparator string = " --> "
	whitespaceCutset string = "\n\t "
)

type SubRip struct{}

// formatTimeCode formats a time as hh:mm:ss,mmm.
func formatTimeCode(timeCode time.Duration) string {
	if timeCode < 0 {
		timeCode = 0
	}

	hours := timeCode / time.Hour
	minutes := (timeCode % time.Hour) / time.Minute
	seconds := (timeCode % time.Minute) / time.Second
	milliseconds := (timeCode % time.Second) / time.Millisecond

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, milliseconds)
}

func (s *SubRip) Extension() string {
	return ".srt"
}

func (s *SubRip) Name() string {
	return "SubRip"
}

// ToText writes the paragraphs numbered from 1. Paragraphs without text are
// left out. SubRip has no title, so title is ignored.
func (s *SubRip) ToText(subtitle *common.Subtitle, title string) string {
	var builder strings.Builder

	number := 0
	for _, paragraph := range subtitle.Paragraphs {
		text := strings.Trim(paragraph.Text, whitespaceCutset)
		if text == "" {
			continue
		}

		number++

		builder.WriteString(strconv.Itoa(number))
		builder.WriteString("\n")
		builder.WriteString(formatTimeCode(paragraph.Start))
		builder.WriteString(defaultSeparator)
		builder.WriteString(formatTimeCode(paragraph.End))
		builder.WriteString("\n")
		builder.WriteString(text)
		builder.WriteString("\n\n")
	}

	return builder.String()
}
