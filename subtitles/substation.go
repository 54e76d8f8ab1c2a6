package subtitles

import (
	"fmt"
	"strings"
	"time"

	"github.com/ristryder/gse/common"
	"github.com/ristryder/gse/interfaces"
)

var _ interfaces.SubtitleFormat = (*SubStationAlpha)(nil)

const (
	eventsSection = "[Events]"

	assEventFormat = "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text"
	ssaEventFormat = "Format: Marked, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text"

	assDefaultHeader = `[Script Info]
; This is an Advanced Sub Station Alpha v4+ script.
Title: %s
ScriptType: v4.00+
WrapStyle: 0
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Default,Arial,20,&H00FFFFFF,&H0300FFFF,&H00000000,&H02000000,0,0,0,0,100,100,0,0,1,2,1,2,10,10,10,1
`

	ssaDefaultHeader = `[Script Info]
; This is a Sub Station Alpha v4 script.
Title: %s
ScriptType: v4.00

[V4 Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, TertiaryColour, BackColour, Bold, Italic, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, AlphaLevel, Encoding
Style: Default,Arial,20,16777215,65535,65535,-2147483640,-1,0,1,3,0,2,30,30,30,0,0
`
)

// SubStationAlpha writes SubStation Alpha scripts, either v4+ ("ass") or v4
// ("ssa").
type SubStationAlpha struct {
	IsAdvanced bool
}

func NewSubStationAlpha(subtype string) *SubStationAlpha {
	return &SubStationAlpha{IsAdvanced: !strings.EqualFold(subtype, "ssa")}
}

// formatSubStationTimeCode formats a time as h:mm:ss.cc.
func formatSubStationTimeCode(timeCode time.Duration) string {
	if timeCode < 0 {
		timeCode = 0
	}

	hours := timeCode / time.Hour
	minutes := (timeCode % time.Hour) / time.Minute
	seconds := (timeCode % time.Minute) / time.Second
	centiseconds := (timeCode % time.Second) / (10 * time.Millisecond)

	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, seconds, centiseconds)
}

func valueOrDefault(value string, defaultValue string) string {
	if value == "" {
		return defaultValue
	}

	return value
}

func (s *SubStationAlpha) Extension() string {
	if s.IsAdvanced {
		return ".ass"
	}

	return ".ssa"
}

func (s *SubStationAlpha) Name() string {
	if s.IsAdvanced {
		return "Advanced Sub Station Alpha"
	}

	return "Sub Station Alpha"
}

// ToText writes the header of the subtitle, or a default one using title, and
// a dialogue line per paragraph.
func (s *SubStationAlpha) ToText(subtitle *common.Subtitle, title string) string {
	var builder strings.Builder

	header := strings.TrimRight(subtitle.Header, whitespaceCutset)
	if header == "" {
		defaultHeader := assDefaultHeader
		if !s.IsAdvanced {
			defaultHeader = ssaDefaultHeader
		}

		header = strings.TrimRight(fmt.Sprintf(defaultHeader, title), whitespaceCutset)
	}

	builder.WriteString(header)
	builder.WriteString("\n")

	if !strings.Contains(header, eventsSection) {
		eventFormat := assEventFormat
		if !s.IsAdvanced {
			eventFormat = ssaEventFormat
		}

		builder.WriteString("\n")
		builder.WriteString(eventsSection)
		builder.WriteString("\n")
		builder.WriteString(eventFormat)
		builder.WriteString("\n")
	}

	for _, paragraph := range subtitle.Paragraphs {
		layer := valueOrDefault(paragraph.Layer, "0")
		if !s.IsAdvanced {
			layer = "Marked=0"
		}

		fields := []string{
			layer,
			formatSubStationTimeCode(paragraph.Start),
			formatSubStationTimeCode(paragraph.End),
			valueOrDefault(paragraph.Style, "Default"),
			paragraph.Actor,
			valueOrDefault(paragraph.MarginL, "0"),
			valueOrDefault(paragraph.MarginR, "0"),
			valueOrDefault(paragraph.MarginV, "0"),
			paragraph.Effect,
			strings.ReplaceAll(paragraph.Text, "\n", "\\N"),
		}

		builder.WriteString("Dialogue: ")
		builder.WriteString(strings.Join(fields, ","))
		builder.WriteString("\n")
	}

	return builder.String()
}
