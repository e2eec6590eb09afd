package worker

import (
	"context"
	"sync/atomic"

	"github.com/docharvest/gateway/internal/config"
	"github.com/docharvest/gateway/internal/domain/jobModel"
	"github.com/docharvest/gateway/internal/metrics"
)

func executeJob(currentJob jobModel.Job) {
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, currentJob.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, config.JobTimeout)
	defer cancel()

	logger.Debug("Processing job", "jobId", currentJob.Id, "traceId", currentJob.TraceId)
	_harvestService.ProcessJob(ctx, currentJob)
}

func removeWorker(reason string) {
	workerWaitGroup.Done()
	atomic.AddInt64(&currentWorkerCount, -1)
	logger.Info("Removed worker", "reason", reason, "workerCount", currentWorkerCount)
	metrics.ActiveWorkers.Dec()
}
