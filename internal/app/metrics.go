package app

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hyperifyio/hcaudit/internal/report"
)

// metrics holds the batch counters written as a node-exporter textfile.
type metrics struct {
	registry  *prometheus.Registry
	documents *prometheus.CounterVec
	findings  *prometheus.CounterVec
	duration  prometheus.Histogram
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hcaudit_documents_total",
			Help: "Documents processed, by outcome (clean, issues, failed).",
		}, []string{"status"}),
		findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hcaudit_findings_total",
			Help: "Findings produced, by status.",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hcaudit_document_duration_seconds",
			Help:    "Time to read, parse and audit one document.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
	}
	m.registry.MustRegister(m.documents, m.findings, m.duration)
	return m
}

func (m *metrics) observe(res report.DocumentResult, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.duration.Observe(elapsed.Seconds())
	switch {
	case res.Failed():
		m.documents.WithLabelValues("failed").Inc()
		return
	case res.Report.Verdict.Clean:
		m.documents.WithLabelValues("clean").Inc()
	default:
		m.documents.WithLabelValues("issues").Inc()
	}
	for status, n := range res.Report.Counts() {
		m.findings.WithLabelValues(status).Add(float64(n))
	}
}

func (m *metrics) write(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
