package build

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/conneroisu/sitecsp/internal/errors"
)

// Collector exports build results as Prometheus metrics.
type Collector struct {
	registry  *prometheus.Registry
	processed prometheus.Counter
	rewritten prometheus.Counter
	failed    prometheus.Counter
	duration  prometheus.Histogram
	sources   *prometheus.GaugeVec
}

// NewCollector creates a Collector registered on its own registry.
func NewCollector() *Collector {
	return NewCollectorWithRegistry(prometheus.NewRegistry())
}

// NewCollectorWithRegistry creates a Collector and registers its metrics on reg.
func NewCollectorWithRegistry(reg *prometheus.Registry) *Collector {
	c := &Collector{
		registry: reg,
		processed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sitecsp_documents_processed_total",
			Help: "Total number of HTML documents processed.",
		}),
		rewritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sitecsp_documents_rewritten_total",
			Help: "Total number of HTML documents whose content changed on disk.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sitecsp_documents_failed_total",
			Help: "Total number of HTML documents that could not be processed.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sitecsp_document_duration_seconds",
			Help:    "Time spent processing one HTML document.",
			Buckets: prometheus.DefBuckets,
		}),
		sources: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sitecsp_policy_sources",
			Help: "Number of sources per directive in the most recently processed document.",
		}, []string{"directive"}),
	}

	reg.MustRegister(
		c.processed,
		c.rewritten,
		c.failed,
		c.duration,
		c.sources,
	)

	return c
}

// RecordFile records one processed file.
func (c *Collector) RecordFile(result FileResult) {
	c.processed.Inc()
	c.duration.Observe(result.Duration.Seconds())

	if result.Error != nil {
		c.failed.Inc()
		return
	}
	if result.Rewritten {
		c.rewritten.Inc()
	}
	if result.Outcome != nil && result.Outcome.Policy != nil {
		for _, d := range result.Outcome.Policy.Entries() {
			c.sources.WithLabelValues(d.Name).Set(float64(len(d.Sources)))
		}
	}
}

// Gatherer returns the registry holding the metrics.
func (c *Collector) Gatherer() prometheus.Gatherer {
	return c.registry
}

// WriteTextfile writes the metrics in the text exposition format to path,
// suitable for node_exporter's textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return errors.WrapIO(err, errors.ErrCodeWriteFailed, "failed to write metrics file", path)
	}
	return nil
}
