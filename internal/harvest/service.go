package harvest

import (
	"context"
	"fmt"
	"time"

	"github.com/docharvest/gateway/internal/domain/appError"
	"github.com/docharvest/gateway/internal/domain/docModel"
	"github.com/docharvest/gateway/internal/domain/jobModel"
	"github.com/docharvest/gateway/internal/indexing"
	"github.com/docharvest/gateway/internal/ingest"
	"github.com/docharvest/gateway/internal/metrics"
	"github.com/docharvest/gateway/pkg/logger_i"
)

// Fetcher downloads a document and returns its plain-text content.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Indexer fans chunks out to the configured backends.
type Indexer interface {
	Index(ctx context.Context, docId string, sessionId string, chunks []docModel.Chunk) indexing.Result
}

// Service is the ingestion pipeline the worker pool drives. Workers only see
// this contract, not the fetcher or the backends behind it.
type Service interface {
	ProcessJob(ctx context.Context, job jobModel.Job) jobModel.Job
}

type service struct {
	fetcher  Fetcher
	indexer  Indexer
	jobStore jobModel.JobStore
	logger   *logger_i.Logger
}

func NewService(fetcher Fetcher, indexer Indexer, jobStore jobModel.JobStore) Service {
	return &service{
		fetcher:  fetcher,
		indexer:  indexer,
		jobStore: jobStore,
		logger:   logger_i.NewLogger("Harvest Service"),
	}
}

// ProcessJob runs fetch, chunk and index for one job, persisting every status
// transition. It always returns a terminal job; panics become a failed job,
// never a dead worker.
func (s *service) ProcessJob(ctx context.Context, job jobModel.Job) (result jobModel.Job) {
	inMethodLogger := s.logger.With("traceId", job.TraceId, "jobId", job.Id, "docId", job.DocId)
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			inMethodLogger.Error("Pipeline panicked", "panic", r)
			result = s.failJob(ctx, job, fmt.Errorf("panic: %v", r), appError.Internal)
		}
		metrics.JobsCompletedTotal.WithLabelValues(string(result.Status)).Inc()
		metrics.JobDurationSeconds.Observe(time.Since(started).Seconds())
	}()

	job.Status = jobModel.JobStatusProcessing
	s.saveProgress(ctx, job, inMethodLogger)

	content := job.Content
	if !job.HasContent {
		fetched, err := s.fetcher.Fetch(ctx, job.Meta.URL)
		if err != nil {
			inMethodLogger.Error("Fetch failed", "url", job.Meta.URL, "error", err)
			return s.failJob(ctx, job, err, appError.Dependency)
		}
		content = fetched
	}

	chunker, err := ingest.NewChunker(job.Params)
	if err != nil {
		// params are validated at admission; reaching this means the job
		// record was built with bad parameters
		inMethodLogger.Error("Chunker rejected parameters", "error", err)
		return s.failJob(ctx, job, err, appError.From(err).Kind)
	}

	chunks := chunker.Chunk(job.Meta, content)
	metrics.ChunksProducedTotal.Add(float64(len(chunks)))
	inMethodLogger.Debug("Chunked document", "chunkCount", len(chunks))

	job.Status = jobModel.JobStatusIndexing
	s.saveProgress(ctx, job, inMethodLogger)

	indexed := s.indexer.Index(ctx, job.DocId, sessionIdFor(job), chunks)

	job.Status = jobModel.JobStatusCompleted
	job.EndTime = time.Now()
	job.Result = map[string]any{
		"doc_id":      indexed.DocId,
		"chunk_count": indexed.ChunkCount,
		"backends":    indexed.Backends,
	}
	s.saveProgress(ctx, job, inMethodLogger)
	inMethodLogger.Info("Job completed", "chunkCount", indexed.ChunkCount, "backendFailures", indexed.Failed())
	return job
}

func (s *service) failJob(ctx context.Context, job jobModel.Job, cause error, kind appError.Classification) jobModel.Job {
	job.Status = jobModel.JobStatusFailed
	job.EndTime = time.Now()
	job.Result = map[string]any{
		"error":      cause.Error(),
		"error_type": string(kind),
	}
	s.saveProgress(ctx, job, s.logger.With("jobId", job.Id))
	return job
}

func (s *service) saveProgress(ctx context.Context, job jobModel.Job, log *logger_i.Logger) {
	if err := s.jobStore.SaveJob(ctx, job); err != nil {
		log.Error("Failed saving job progress", "status", job.Status, "error", err)
	}
}

// sessionIdFor honors an explicit session_id in the document metadata and
// otherwise leaves derivation to the orchestrator.
func sessionIdFor(job jobModel.Job) string {
	if v, ok := job.Meta.Metadata["session_id"].(string); ok {
		return v
	}
	return ""
}
