package matroska

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ristryder/gse/containers/ebml"
)

type MatroskaChapter struct {
	// Index is the position among the visible chapters of the edition.
	Index    int
	Start    time.Duration
	End      time.Duration
	Text     string
	Language string
}

// defaultEdition returns the first edition flagged as default, or the first
// edition if none is.
func defaultEdition(editions []*ebml.Element) *ebml.Element {
	for _, edition := range editions {
		if flag := edition.Child(uint32(ElementEditionFlagDefault)); flag != nil && flag.Bool() {
			return edition
		}
	}

	if len(editions) == 0 {
		return nil
	}

	return editions[0]
}

func isHidden(atom *ebml.Element) bool {
	flag := atom.Child(uint32(ElementChapterFlagHidden))

	return flag != nil && flag.Bool()
}

// resolveChapters turns the visible atoms of the default edition into
// chapters. An atom without an end ends where the next one starts, the last
// one at totalDuration.
func resolveChapters(chaptersElement *ebml.Element, totalDuration time.Duration) []MatroskaChapter {
	edition := defaultEdition(chaptersElement.ChildrenWithID(uint32(ElementEditionEntry)))
	if edition == nil {
		return []MatroskaChapter{}
	}

	var atoms []*ebml.Element
	for _, atom := range edition.ChildrenWithID(uint32(ElementChapterAtom)) {
		if !isHidden(atom) {
			atoms = append(atoms, atom)
		}
	}

	chapters := make([]MatroskaChapter, len(atoms))
	end := totalDuration
	for i := len(atoms) - 1; i >= 0; i-- {
		chapter := readChapterAtom(atoms[i])
		chapter.Index = i

		if timeEnd := atoms[i].Child(uint32(ElementChapterTimeEnd)); timeEnd != nil {
			chapter.End = time.Duration(timeEnd.Uint())
		} else {
			chapter.End = end
		}

		chapters[i] = chapter
		end = chapter.Start
	}

	sort.SliceStable(chapters, func(i, j int) bool {
		return chapters[i].Start < chapters[j].Start
	})

	return chapters
}

func readChapterAtom(atom *ebml.Element) MatroskaChapter {
	chapter := MatroskaChapter{}

	if timeStart := atom.Child(uint32(ElementChapterTimeStart)); timeStart != nil {
		chapter.Start = time.Duration(timeStart.Uint())
	}

	if display := atom.Child(uint32(ElementChapterDisplay)); display != nil {
		if chapString := display.Child(uint32(ElementChapString)); chapString != nil {
			chapter.Text = chapString.Text()
		}

		if chapLanguage := display.Child(uint32(ElementChapLanguage)); chapLanguage != nil {
			chapter.Language = chapLanguage.Text()
		}
	}

	return chapter
}

func (m *MatroskaFile) readChaptersElement(ctx context.Context) ([]MatroskaChapter, error) {
	chaptersElement, chaptersErr := m.navigator.fetchNamed(ctx, ElementChapters.Name())
	if errors.Is(chaptersErr, ErrElementNotFound) {
		return []MatroskaChapter{}, nil
	}

	if chaptersErr != nil {
		return nil, errors.Wrap(chaptersErr, "failed to read chapters element")
	}

	info, infoErr := m.info(ctx)
	if infoErr != nil {
		return nil, errors.Wrap(infoErr, "failed to read duration for chapters")
	}

	return resolveChapters(chaptersElement.Tree, info.scaledDuration()), nil
}

// Chapters returns the visible chapters of the default edition, ordered by
// start time.
func (m *MatroskaFile) Chapters(ctx context.Context) ([]MatroskaChapter, error) {
	chapters, chaptersErr := m.chapters.get(ctx, m.readChaptersElement)
	if chaptersErr != nil {
		return nil, errors.Wrap(chaptersErr, "failed to read chapters")
	}

	return slices.Clone(chapters), nil
}
