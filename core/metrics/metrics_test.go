package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.CommandGenerated("postgres", "insert")
	m.CommandGenerated("postgres", "insert")
	m.CommandGenerated("sqlserver", "find")
	m.AssemblyFailed("delete_range", "argument")
	m.CacheHit()
	m.CacheMiss()
	m.CacheMiss()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.commandsTotal.WithLabelValues("postgres", "insert")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commandsTotal.WithLabelValues("sqlserver", "find")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failuresTotal.WithLabelValues("delete_range", "argument")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheHits))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheMisses))
}

func TestMetricsObserveExecution(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	var ok error
	failed := errors.New("boom")
	m.ObserveExecution(time.Now(), "count", &ok)
	m.ObserveExecution(time.Now(), "count", &failed)

	assert.Equal(t, 2, testutil.CollectAndCount(m.executionDuration))
}

func TestNewReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := New(reg)
	require.NoError(t, err)
	second, err := New(reg)
	require.NoError(t, err)

	first.CacheHit()
	second.CacheHit()

	assert.Equal(t, 2.0, testutil.ToFloat64(first.cacheHits))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CommandGenerated("sqlite", "count")
		m.AssemblyFailed("count", "mapping")
		m.CacheHit()
		m.CacheMiss()
		m.ObserveExecution(time.Now(), "count", nil)
	})
}
