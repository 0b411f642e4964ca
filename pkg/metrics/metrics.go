package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	RecordsExtractedTotal *prometheus.CounterVec
	RowsInsertedTotal     prometheus.Counter
	ScrollIterationsTotal prometheus.Counter
	PhaseDuration         *prometheus.HistogramVec

	initOnce sync.Once
)

// Init registers the collectors on the default registry. Calling it again is a no-op.
func Init() {
	initOnce.Do(func() {
		HTTPRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests to the status server.",
			},
			[]string{"method", "path", "status"},
		)

		HTTPRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of status server requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		)

		RecordsExtractedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scrape_records_extracted_total",
				Help: "Total number of connection records extracted from snapshots.",
			},
			[]string{"mode"}, // mode: profile, connections
		)

		RowsInsertedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scrape_rows_inserted_total",
				Help: "Total number of rows inserted into the connections table.",
			},
		)

		ScrollIterationsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scrape_scroll_iterations_total",
				Help: "Total number of scroll-and-measure iterations on the connections page.",
			},
		)

		PhaseDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scrape_phase_duration_seconds",
				Help:    "Duration of each scrape phase.",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"phase"},
		)
	})
}

// WriteTextfile dumps the default registry in the node-exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
