package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts what a run produced. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry
	books    prometheus.Counter
	records  prometheus.Counter
	words    prometheus.Counter
	duration prometheus.Histogram
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		books: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "book_dataset",
			Name:      "books_processed_total",
			Help:      "Books converted into records.",
		}),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "book_dataset",
			Name:      "records_total",
			Help:      "Dataset records produced.",
		}),
		words: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "book_dataset",
			Name:      "words_total",
			Help:      "Words extracted from the selected page ranges.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "book_dataset",
			Name:      "book_duration_seconds",
			Help:      "Time spent extracting and chunking one book.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}
	m.registry.MustRegister(m.books, m.records, m.words, m.duration)
	return m
}

// ObserveBook records one finished book.
func (m *Metrics) ObserveBook(res *BookResult) {
	if m == nil || res == nil {
		return
	}
	m.books.Inc()
	m.records.Add(float64(len(res.Records)))
	m.words.Add(float64(res.Words))
	m.duration.Observe(res.Duration.Seconds())
}

// Gatherer exposes the underlying registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteFile dumps the metrics in the Prometheus text format, suitable for the
// node_exporter textfile collector.
func (m *Metrics) WriteFile(path string) error {
	if m == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
