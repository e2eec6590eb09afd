package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	RateLimitDenialsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_denials_total",
		Help: "Requests rejected by the admission rate limiter.",
	})

	JobsSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ingest_jobs_submitted_total",
		Help: "Ingestion jobs accepted and queued.",
	})

	JobsCompletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_jobs_completed_total",
		Help: "Ingestion jobs finished, by terminal status.",
	}, []string{"status"})

	JobDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ingest_job_duration_seconds",
		Help:    "Wall time from job pickup to terminal status.",
		Buckets: prometheus.DefBuckets,
	})

	ChunksProducedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ingest_chunks_produced_total",
		Help: "Chunks emitted by the document chunker.",
	})

	BackendWriteSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "indexing_backend_write_seconds",
		Help:    "Latency of per-backend indexing writes.",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "outcome"})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "worker_pool_active_workers",
		Help: "Workers currently alive in the pool.",
	})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ingest_queue_depth",
		Help: "Jobs buffered in the ingestion channel.",
	})
)

// HttpStatusRecorder captures the status code written by downstream handlers
// so middleware can label metrics after the response is sent.
type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func NewHttpStatusRecorder(w http.ResponseWriter) *HttpStatusRecorder {
	return &HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK}
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}
