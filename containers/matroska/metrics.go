package matroska

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var _ prometheus.Collector = (*Metrics)(nil)

// Metrics counts what extraction does. A nil *Metrics records nothing.
type Metrics struct {
	SubtitlesEmitted   *prometheus.CounterVec
	BlockFailures      *prometheus.CounterVec
	Resynchronizations prometheus.Counter
	RejectedCandidates prometheus.Counter
	DiscardedBytes     prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		SubtitlesEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gse",
			Subsystem: "matroska",
			Name:      "subtitles_emitted_total",
			Help:      "Total number of subtitle events emitted",
		}, []string{"track"}),
		BlockFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gse",
			Subsystem: "matroska",
			Name:      "block_failures_total",
			Help:      "Total number of subtitle blocks that could not be decoded",
		}, []string{"reason"}),
		Resynchronizations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gse",
			Subsystem: "matroska",
			Name:      "resynchronizations_total",
			Help:      "Total number of times a stream locked onto a cluster boundary",
		}),
		RejectedCandidates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gse",
			Subsystem: "matroska",
			Name:      "rejected_cluster_candidates_total",
			Help:      "Total number of cluster markers rejected while resynchronizing",
		}),
		DiscardedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gse",
			Subsystem: "matroska",
			Name:      "discarded_bytes_total",
			Help:      "Total number of streamed bytes passed through without being decoded",
		}),
	}
}

func (m *Metrics) subtitleEmitted(trackNumber uint64) {
	if m == nil {
		return
	}

	m.SubtitlesEmitted.WithLabelValues(strconv.FormatUint(trackNumber, 10)).Inc()
}

func (m *Metrics) blockFailed(reason string) {
	if m == nil {
		return
	}

	m.BlockFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) resynchronized() {
	if m == nil {
		return
	}

	m.Resynchronizations.Inc()
}

func (m *Metrics) candidateRejected() {
	if m == nil {
		return
	}

	m.RejectedCandidates.Inc()
}

func (m *Metrics) discarded(n int) {
	if m == nil {
		return
	}

	m.DiscardedBytes.Add(float64(n))
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(c chan<- prometheus.Metric) {
	m.SubtitlesEmitted.Collect(c)
	m.BlockFailures.Collect(c)
	m.Resynchronizations.Collect(c)
	m.RejectedCandidates.Collect(c)
	m.DiscardedBytes.Collect(c)
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(d chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(m, d)
}
