package interfaces

import "github.com/ristryder/gse/common"

type SubtitleFormat interface {
	Extension() string
	Name() string
	ToText(subtitle *common.Subtitle, title string) string
}
