package matroska

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/cockroachdb/errors"
)

type segmentInfo struct {
	duration      float64
	hasDuration   bool
	timecodeScale uint64
	title         string
}

func (s *segmentInfo) scaledDuration() time.Duration {
	if !s.hasDuration {
		return 0
	}

	return time.Duration(math.Round(s.duration * float64(s.timecodeScale)))
}

func (m *MatroskaFile) readInfoElement(ctx context.Context) (*segmentInfo, error) {
	info := &segmentInfo{timecodeScale: DefaultTimecodeScale}

	infoElement, infoErr := m.navigator.fetchNamed(ctx, ElementInfo.Name())
	if errors.Is(infoErr, ErrElementNotFound) {
		m.logger.Debug("File has no info element, using defaults")

		return info, nil
	}

	if infoErr != nil {
		return nil, errors.Wrap(infoErr, "failed to read info element")
	}

	for _, element := range infoElement.Tree.Children {
		switch ElementId(element.ID) {
		case ElementTimecodeScale:
			if timecodeScale := element.Uint(); timecodeScale > 0 {
				info.timecodeScale = timecodeScale
			}
		case ElementDuration:
			info.duration = element.Float()
			info.hasDuration = true
		case ElementTitle:
			info.title = element.Text()
		}
	}

	m.logger.Debug("Read segment info", slog.Uint64("timecodeScale", info.timecodeScale), slog.Float64("duration", info.duration))

	return info, nil
}

func (m *MatroskaFile) info(ctx context.Context) (*segmentInfo, error) {
	return m.segmentInfo.get(ctx, m.readInfoElement)
}

// Duration returns the duration of the file. The second return value is false
// when the file does not declare one.
func (m *MatroskaFile) Duration(ctx context.Context) (time.Duration, bool, error) {
	info, infoErr := m.info(ctx)
	if infoErr != nil {
		return 0, false, errors.Wrap(infoErr, "failed to read duration")
	}

	return info.scaledDuration(), info.hasDuration, nil
}

// TimecodeScale returns the number of nanoseconds per timecode unit declared
// by the file.
func (m *MatroskaFile) TimecodeScale(ctx context.Context) (uint64, error) {
	info, infoErr := m.info(ctx)
	if infoErr != nil {
		return 0, errors.Wrap(infoErr, "failed to read timecode scale")
	}

	return info.timecodeScale, nil
}

// Title returns the title of the file, if any.
func (m *MatroskaFile) Title(ctx context.Context) (string, error) {
	info, infoErr := m.info(ctx)
	if infoErr != nil {
		return "", errors.Wrap(infoErr, "failed to read title")
	}

	return info.title, nil
}
