package job

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/docharvest/gateway/internal/domain/jobModel"
	"github.com/docharvest/gateway/internal/metrics"
)

type Service struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
}

type ServiceConfig struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
}

func InitJobService(cfg ServiceConfig) *Service {
	return &Service{
		JobChannel:        cfg.JobChannel,
		RequestCount:      cfg.RequestCount,
		DispatcherChannel: cfg.DispatcherChannel,
		JobStore:          cfg.JobStore,
	}
}

// Submit records the job as pending and queues it for the worker pool. The
// pending record is visible on the status endpoint before any worker runs.
func (s *Service) Submit(ctx context.Context, job jobModel.Job) error {
	job.Status = jobModel.JobStatusPending
	job.CreatedTime = time.Now()
	if job.Result == nil {
		job.Result = map[string]any{"doc_id": job.DocId}
	}

	if err := s.JobStore.SaveJob(ctx, job); err != nil {
		return err
	}

	metrics.JobsSubmittedTotal.Inc()
	metrics.QueueDepth.Inc()
	s.JobChannel <- job
	atomic.AddInt64(&s.RequestCount, 1)

	// nudge the dispatcher; dropping the signal is fine, it only grows the pool
	select {
	case s.DispatcherChannel <- true:
	default:
	}
	return nil
}
