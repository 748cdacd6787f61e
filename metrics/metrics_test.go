package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	var m dto.Metric
	require.NoError(t, (<-ch).Write(&m))
	return m.GetCounter().GetValue()
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRead(100, 3, 2*time.Second)
	m.ObserveBuild("accurate", false, 50*time.Millisecond)
	m.ObserveBuild("accurate (alternate pressing)", true, 50*time.Millisecond)
	m.Failure("read")
	m.Stored()

	assert.Equal(t, 100.0, value(t, m.SectorsRead))
	assert.Equal(t, 3.0, value(t, m.FlaggedSectors))
	assert.Equal(t, 2.0, value(t, m.RecordsBuilt))
	assert.Equal(t, 1.0, value(t, m.AccurateRipStatus.WithLabelValues("accurate")))
	assert.Equal(t, 1.0, value(t, m.AlternatePressings))
	assert.Equal(t, 1.0, value(t, m.BuildFailures.WithLabelValues("read")))
	assert.Equal(t, 1.0, value(t, m.RecordsStored))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	// registering twice on one registry is an error
	assert.Panics(t, func() { New(reg) })
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRead(1, 0, time.Second)
		m.ObserveBuild("mismatch", false, time.Second)
		m.Failure("build")
		m.Stored()
	})
}
