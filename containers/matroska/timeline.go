package matroska

import (
	"sync"
	"time"
)

// DefaultTimecodeScale is the Matroska default of one millisecond per
// timecode unit, in nanoseconds.
const DefaultTimecodeScale = 1000000

// Timeline holds the timing state of a file: the timecode scale and the
// timecode of the cluster being decoded. It is shared by every pass over the
// file.
type Timeline struct {
	mu              sync.Mutex
	timecodeScale   uint64
	clusterTimecode int64
	scaleDeclared   bool
}

func newTimeline() *Timeline {
	return &Timeline{timecodeScale: DefaultTimecodeScale}
}

// SetTimecodeScale sets the number of nanoseconds per timecode unit.
func (t *Timeline) SetTimecodeScale(scale uint64) {
	if scale == 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.timecodeScale = scale
	t.scaleDeclared = true
}

func (t *Timeline) SetClusterTimecode(timecode int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.clusterTimecode = timecode
}

// Snapshot returns the current timing state.
func (t *Timeline) Snapshot() Timecodes {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Timecodes{TimecodeScale: t.timecodeScale, ClusterTimecode: t.clusterTimecode, ScaleDeclared: t.scaleDeclared}
}

// Timecodes is the timing state a block is decoded with.
type Timecodes struct {
	TimecodeScale   uint64
	ClusterTimecode int64
	// ScaleDeclared is false when no TimecodeScale was decoded before the
	// block, e.g. when a stream was joined at a cluster. TimecodeScale then
	// holds the default and the scale of the segment info applies.
	ScaleDeclared bool
}

// withScale returns the timecodes with the scale of the segment info applied,
// unless the stream declared its own.
func (t Timecodes) withScale(segmentScale uint64) Timecodes {
	if !t.ScaleDeclared && segmentScale > 0 {
		t.TimecodeScale = segmentScale
	}

	return t
}

// Time converts a block relative timecode to an absolute time.
func (t Timecodes) Time(blockTimecode int64) time.Duration {
	return time.Duration((blockTimecode + t.ClusterTimecode) * int64(t.TimecodeScale))
}

// Duration converts a number of timecode units to a duration.
func (t Timecodes) Duration(units uint64) time.Duration {
	return time.Duration(units * t.TimecodeScale)
}
