package common

import "time"

// Paragraph is one timed line of a subtitle.
type Paragraph struct {
	Start time.Duration
	End   time.Duration
	Text  string

	// SubStation Alpha fields, empty for other formats
	Actor   string
	Effect  string
	Layer   string
	MarginL string
	MarginR string
	MarginV string
	Style   string
}

func (p *Paragraph) Duration() time.Duration {
	return p.End - p.Start
}

type Subtitle struct {
	// Header is the format specific preamble, e.g. the script info and styles
	// of SubStation Alpha.
	Header     string
	Paragraphs []Paragraph
}
