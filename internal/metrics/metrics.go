// Package metrics exposes Prometheus counters and histograms for local runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Task outcome label values.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// Collector owns its registry so that several runs in one process, or in one
// test binary, never collide on the default registerer. A nil *Collector
// records nothing.
type Collector struct {
	registry      *prometheus.Registry
	tasksTotal    *prometheus.CounterVec
	taskDuration  *prometheus.HistogramVec
	artifactBytes *prometheus.CounterVec
}

// New creates a Collector with every metric registered.
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Collector{
		registry: reg,
		// tasksTotal counts finished tasks by component and outcome
		tasksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gridflow_tasks_total",
			Help: "Tasks finished, by component and outcome",
		}, []string{"component", "status"}),
		// taskDuration tracks body run time
		taskDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gridflow_task_duration_seconds",
			Help:    "Task body duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4min
		}, []string{"component"}),
		artifactBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gridflow_artifact_bytes_total",
			Help: "Bytes published to the artifact store, by type tag",
		}, []string{"type"}),
	}
}

// TaskFinished records one task outcome. Skipped tasks never ran, so their
// duration is not observed.
func (c *Collector) TaskFinished(component, status string, d time.Duration) {
	if c == nil {
		return
	}
	c.tasksTotal.WithLabelValues(component, status).Inc()
	if status != StatusSkipped {
		c.taskDuration.WithLabelValues(component).Observe(d.Seconds())
	}
}

// ArtifactPublished records the size of a published artifact.
func (c *Collector) ArtifactPublished(typeTag string, size int64) {
	if c == nil {
		return
	}
	c.artifactBytes.WithLabelValues(typeTag).Add(float64(size))
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
