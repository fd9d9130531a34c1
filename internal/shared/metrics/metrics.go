package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	SourceSingle = "single"
	SourceBulk   = "bulk"

	ResultCreated         = "created"
	ResultUnknownEmployee = "unknown_employee"
	ResultWeekend         = "weekend"
	ResultDuplicate       = "duplicate"
	ResultInvalid         = "invalid"
	ResultError           = "error"
)

type collectors struct {
	attendanceIngest *prometheus.CounterVec
	importBatches    *prometheus.CounterVec
	importDuration   prometheus.Histogram
	outboxDispatch   *prometheus.CounterVec
}

var singleton = sync.OnceValue(func() *collectors {
	return &collectors{
		attendanceIngest: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hrms",
			Subsystem: "attendance",
			Name:      "ingest_total",
			Help:      "Attendance ingestion outcomes by source and result.",
		}, []string{"source", "result"}),
		importBatches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hrms",
			Subsystem: "attendance",
			Name:      "import_batches_total",
			Help:      "Bulk attendance imports by outcome.",
		}, []string{"result"}),
		importDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hrms",
			Subsystem: "attendance",
			Name:      "import_duration_seconds",
			Help:      "Wall time of completed bulk attendance imports.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		outboxDispatch: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hrms",
			Subsystem: "outbox",
			Name:      "dispatch_total",
			Help:      "Outbox relay publish attempts by topic and result.",
		}, []string{"topic", "result"}),
	}
})

func ObserveIngest(source, result string) {
	singleton().attendanceIngest.WithLabelValues(source, result).Inc()
}

func ObserveImportBatch(result string, elapsed time.Duration) {
	c := singleton()
	c.importBatches.WithLabelValues(result).Inc()
	if result == "ok" {
		c.importDuration.Observe(elapsed.Seconds())
	}
}

func ObserveOutboxDispatch(topic, result string) {
	singleton().outboxDispatch.WithLabelValues(topic, result).Inc()
}

// IngestCounter exposes a single series, mainly for tests.
func IngestCounter(source, result string) prometheus.Counter {
	return singleton().attendanceIngest.WithLabelValues(source, result)
}
