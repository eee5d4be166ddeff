// Package metrics exposes Prometheus collectors for command generation,
// descriptor caching and statement execution.
//
// A nil *Metrics is valid and records nothing, so components can accept an
// optional collector without branching at every call site.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "crudsql"

// Metrics groups the collectors used across the module.
type Metrics struct {
	commandsTotal     *prometheus.CounterVec   // dialect, operation
	failuresTotal     *prometheus.CounterVec   // operation, kind
	cacheHits         prometheus.Counter       // descriptor cache hits
	cacheMisses       prometheus.Counter       // descriptor derivations
	executionDuration *prometheus.HistogramVec // operation, status
}

// New creates the collectors and registers them with reg. A nil reg registers
// with prometheus.DefaultRegisterer. Collectors that are already registered
// are reused.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		commandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_generated_total",
				Help:      "Number of SQL commands generated, partitioned by dialect and operation.",
			},
			[]string{"dialect", "operation"},
		),
		failuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "assembly_failures_total",
				Help:      "Number of rejected command assemblies, partitioned by operation and error kind.",
			},
			[]string{"operation", "kind"},
		),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "descriptor_cache_hits_total",
			Help:      "Number of type descriptor lookups served from the cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "descriptor_cache_misses_total",
			Help:      "Number of type descriptor derivations.",
		}),
		executionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "execution_duration_seconds",
				Help:      "Duration of executed commands, partitioned by operation and status.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "status"},
		),
	}

	var err error
	if m.commandsTotal, err = register(reg, m.commandsTotal); err != nil {
		return nil, err
	}
	if m.failuresTotal, err = register(reg, m.failuresTotal); err != nil {
		return nil, err
	}
	if m.cacheHits, err = register(reg, m.cacheHits); err != nil {
		return nil, err
	}
	if m.cacheMisses, err = register(reg, m.cacheMisses); err != nil {
		return nil, err
	}
	if m.executionDuration, err = register(reg, m.executionDuration); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// CommandGenerated counts one generated command.
func (m *Metrics) CommandGenerated(dialect, operation string) {
	if m == nil {
		return
	}
	m.commandsTotal.WithLabelValues(dialect, operation).Inc()
}

// AssemblyFailed counts one rejected assembly. kind is a short error category
// such as "mapping" or "argument".
func (m *Metrics) AssemblyFailed(operation, kind string) {
	if m == nil {
		return
	}
	m.failuresTotal.WithLabelValues(operation, kind).Inc()
}

// CacheHit counts a descriptor served from the cache.
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

// CacheMiss counts a descriptor derivation.
func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

// ObserveExecution records how long an executed command took.
// Example: defer m.ObserveExecution(time.Now(), "insert", &err)
func (m *Metrics) ObserveExecution(start time.Time, operation string, err *error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil && *err != nil {
		status = "failed"
	}
	m.executionDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
}
