package transfer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// statusFailed labels transfers that ended with an error
const statusFailed = "failed"

// Metrics is a struct that contains all metrics for transfers
type Metrics struct {
	transfersTotal      *prometheus.CounterVec
	bytesTransferred    prometheus.Counter
	chunkUploadDuration prometheus.Histogram
	transferDuration    *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics struct with initialized Prometheus metrics
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &Metrics{
		transfersTotal: promauto.With(registerer).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gcs2drive_transfers_total",
				Help: "The total number of transfers by final status",
			},
			[]string{"status"},
		),
		bytesTransferred: promauto.With(registerer).NewCounter(prometheus.CounterOpts{
			Name: "gcs2drive_bytes_transferred_total",
			Help: "The total bytes accepted by Drive",
		}),
		chunkUploadDuration: promauto.With(registerer).NewHistogram(prometheus.HistogramOpts{
			Name:    "gcs2drive_chunk_upload_duration_seconds",
			Help:    "The duration of single range uploads in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // From 50ms to ~1.7m
		}),
		transferDuration: promauto.With(registerer).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gcs2drive_transfer_duration_seconds",
				Help:    "The duration of whole transfers in seconds",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 14), // From 0.1s to ~27m
			},
			[]string{"status"},
		),
	}
}

// RecordTransfer records the end of a transfer
func (m *Metrics) RecordTransfer(status string, duration time.Duration) {
	m.transfersTotal.WithLabelValues(status).Inc()
	m.transferDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordChunkUpload records one accepted range upload
func (m *Metrics) RecordChunkUpload(bytes int64, duration time.Duration) {
	m.bytesTransferred.Add(float64(bytes))
	m.chunkUploadDuration.Observe(duration.Seconds())
}
