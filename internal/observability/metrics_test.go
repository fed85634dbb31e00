package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveAddsCounterDeltas(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.Observe(TickSample{Duration: time.Millisecond, Generated: 3, Active: 2, PixelsMoved: 10})
	m.Observe(TickSample{Duration: time.Millisecond, Generated: 5, Active: 4, PixelsMoved: 1})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ticks))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.generated))
	assert.Equal(t, 11.0, testutil.ToFloat64(m.moved))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.chunks.WithLabelValues("active")))
}

func TestObserveError(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.ObserveError()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tickErrors))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ticks))
}

func TestRegistryCollectsAll(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.Observe(TickSample{})

	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)
}
