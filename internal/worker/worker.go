package worker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/docharvest/gateway/internal/config"
	"github.com/docharvest/gateway/internal/harvest"
	"github.com/docharvest/gateway/internal/job"
	"github.com/docharvest/gateway/internal/metrics"
	"github.com/docharvest/gateway/pkg/logger_i"
)

var (
	_jobService        *job.Service
	_harvestService    harvest.Service
	stopWorkerChannel  chan bool
	workerWaitGroup    *sync.WaitGroup
	dispatcherChannel  chan bool
	currentWorkerCount int64
	logger             *logger_i.Logger
)

func InitServices(jobService *job.Service, harvestService harvest.Service) {
	_jobService = jobService
	_harvestService = harvestService
	dispatcherChannel = jobService.DispatcherChannel
}

func InitWorkerPool(stopWorkerChan chan bool, waitGroup *sync.WaitGroup) {
	stopWorkerChannel = stopWorkerChan
	workerWaitGroup = waitGroup
	logger = logger_i.NewLogger("WorkerPool")
	logger.Info("Initializing worker pool")
	go dispatcher()
}

func dispatcher() {
	createWorker()
	logger.Info("Dispatcher started")
	for range dispatcherChannel {
		if atomic.LoadInt64(&currentWorkerCount) < config.MaxWorkerCount {
			logger.Info("Creating new worker", "workerCount", currentWorkerCount)
			createWorker()
		}
	}
}

func createWorker() {
	workerWaitGroup.Add(1)
	go worker()
	atomic.AddInt64(&currentWorkerCount, 1)
	metrics.ActiveWorkers.Inc()
	logger.Info("Created new worker")
}

func worker() {
	for {
		select {
		case currentJob := <-_jobService.JobChannel:
			executeJob(currentJob)
			metrics.QueueDepth.Dec()

		case <-stopWorkerChannel:
			removeWorker("Stop worker signal received")
			return

		case <-time.After(config.IdleWorkerTimeout):
			// idle workers retire down to the configured floor
			if atomic.LoadInt64(&currentWorkerCount) > config.MinWorkerCount {
				removeWorker("Idle worker timeout")
				return
			}
		}
	}
}
