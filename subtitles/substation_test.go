package subtitles

import (
	"strings"
	"testing"
	"time"

	"github.com/ristryder/gse/common"
	"github.com/stretchr/testify/assert"
)

func TestFormatSubStationTimeCode(t *testing.T) {
	assert.Equal(t, "0:00:01.05", formatSubStationTimeCode(1050*time.Millisecond))
	assert.Equal(t, "1:02:03.45", formatSubStationTimeCode(time.Hour+2*time.Minute+3*time.Second+456*time.Millisecond))
}

func TestSubStationAlphaToText(t *testing.T) {
	paragraphs := []common.Paragraph{
		{
			Start:   time.Second,
			End:     2 * time.Second,
			Text:    "Hello, world\nagain",
			Layer:   "1",
			Style:   "Sign",
			Actor:   "Narrator",
			MarginL: "10",
			MarginR: "20",
			MarginV: "30",
			Effect:  "Scroll up",
		},
		{Start: 3 * time.Second, End: 4 * time.Second, Text: "Plain"},
	}

	testCases := []struct {
		name           string
		subtype        string
		header         string
		expectName     string
		expectExt      string
		expectContains []string
	}{
		{
			name:       "ass with header",
			subtype:    "ass",
			header:     "[Script Info]\nTitle: Original\n\n[Events]\nFormat: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n\n",
			expectName: "Advanced Sub Station Alpha",
			expectExt:  ".ass",
			expectContains: []string{
				"[Script Info]\nTitle: Original\n\n[Events]\nFormat: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\nDialogue: 1,",
				"Dialogue: 1,0:00:01.00,0:00:02.00,Sign,Narrator,10,20,30,Scroll up,Hello, world\\Nagain\n",
				"Dialogue: 0,0:00:03.00,0:00:04.00,Default,,0,0,0,,Plain\n",
			},
		},
		{
			name:       "ass without events",
			subtype:    "ASS",
			header:     "[Script Info]\nTitle: Original\n",
			expectName: "Advanced Sub Station Alpha",
			expectExt:  ".ass",
			expectContains: []string{
				"Title: Original\n\n[Events]\n" + assEventFormat + "\n",
			},
		},
		{
			name:       "ssa default header",
			subtype:    "ssa",
			expectName: "Sub Station Alpha",
			expectExt:  ".ssa",
			expectContains: []string{
				"Title: Movie\n",
				"[V4 Styles]",
				ssaEventFormat,
				"Dialogue: Marked=0,0:00:03.00,0:00:04.00,Default,,0,0,0,,Plain\n",
			},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			subStation := NewSubStationAlpha(testCase.subtype)
			assert.Equal(t, testCase.expectName, subStation.Name())
			assert.Equal(t, testCase.expectExt, subStation.Extension())

			text := subStation.ToText(&common.Subtitle{Header: testCase.header, Paragraphs: paragraphs}, "Movie")
			for _, expect := range testCase.expectContains {
				assert.Contains(t, text, expect)
			}

			assert.Equal(t, 1, strings.Count(text, "[Events]"))
		})
	}
}
