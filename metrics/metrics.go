// Package metrics defines the Prometheus collectors updated while ripping.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ripcheck"

// Metrics holds every collector. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	RecordsBuilt       prometheus.Counter
	BuildFailures      *prometheus.CounterVec
	FlaggedSectors     prometheus.Counter
	SectorsRead        prometheus.Counter
	TrackReadDuration  prometheus.Histogram
	ChecksumDuration   prometheus.Histogram
	AccurateRipStatus  *prometheus.CounterVec
	AlternatePressings prometheus.Counter
	RecordsStored      prometheus.Counter
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RecordsBuilt: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_built_total",
			Help:      "Extraction records successfully built",
		}),
		BuildFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "build_failures_total",
			Help:      "Tracks that did not produce a record, by reason",
		}, []string{"reason"}),
		FlaggedSectors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "drive",
			Name:      "flagged_sectors_total",
			Help:      "Sectors the drive failed to read",
		}),
		SectorsRead: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "drive",
			Name:      "sectors_read_total",
			Help:      "Sectors covered by completed track reads",
		}),
		TrackReadDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "drive",
			Name:      "track_read_duration_seconds",
			Help:      "Time to read one track off the disc",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		ChecksumDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "accuraterip",
			Name:      "build_duration_seconds",
			Help:      "Time to checksum, digest and write one track",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		AccurateRipStatus: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "accuraterip",
			Name:      "status_total",
			Help:      "Records by AccurateRip status",
		}, []string{"status"}),
		AlternatePressings: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "accuraterip",
			Name:      "alternate_pressings_total",
			Help:      "Tracks matched only at an alternate pressing offset",
		}),
		RecordsStored: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "records_stored_total",
			Help:      "Records written to the database",
		}),
	}
}

// ObserveRead records a finished track read.
func (m *Metrics) ObserveRead(sectors, flagged int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.SectorsRead.Add(float64(sectors))
	m.FlaggedSectors.Add(float64(flagged))
	m.TrackReadDuration.Observe(elapsed.Seconds())
}

// ObserveBuild records a built record's status.
func (m *Metrics) ObserveBuild(status string, alternate bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RecordsBuilt.Inc()
	m.AccurateRipStatus.WithLabelValues(status).Inc()
	if alternate {
		m.AlternatePressings.Inc()
	}
	m.ChecksumDuration.Observe(elapsed.Seconds())
}

// Failure counts a track that was abandoned.
func (m *Metrics) Failure(reason string) {
	if m == nil {
		return
	}
	m.BuildFailures.WithLabelValues(reason).Inc()
}

// Stored counts a persisted record.
func (m *Metrics) Stored() {
	if m == nil {
		return
	}
	m.RecordsStored.Inc()
}
