package store

import (
	"context"
	"sync"

	"github.com/docharvest/gateway/internal/domain/jobModel"
	"github.com/docharvest/gateway/pkg/logger_i"
)

// InMemoryJobStore is the job tracker. Records live only for the lifetime of
// the process; each save replaces the whole record.
type InMemoryJobStore struct {
	jobMutex *sync.RWMutex
	jobMap   map[string]jobModel.Job
	logger   *logger_i.Logger
}

func InitInMemoryJobStore() *InMemoryJobStore {
	return &InMemoryJobStore{
		jobMutex: new(sync.RWMutex),
		jobMap:   make(map[string]jobModel.Job),
		logger:   logger_i.NewLogger("InMem JobStore"),
	}
}

// SaveJob replaces the stored record atomically. A job that already reached
// completed or failed keeps its record; late writers lose.
func (store *InMemoryJobStore) SaveJob(ctx context.Context, jobToStore jobModel.Job) error {
	store.jobMutex.Lock()
	defer store.jobMutex.Unlock()

	if existing, found := store.jobMap[jobToStore.Id]; found && existing.Status.Terminal() {
		store.logger.Warn("Ignoring update to terminal job", "jobId", jobToStore.Id, "status", existing.Status)
		return nil
	}
	store.jobMap[jobToStore.Id] = jobToStore
	store.logger.Debug("Saved job to store", "jobId", jobToStore.Id, "status", jobToStore.Status)
	return nil
}

func (store *InMemoryJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	store.jobMutex.RLock()
	defer store.jobMutex.RUnlock()
	result, found := store.jobMap[jobId]
	return result, found
}

func (store *InMemoryJobStore) DeleteJob(ctx context.Context, jobId string) {
	store.jobMutex.Lock()
	defer store.jobMutex.Unlock()
	delete(store.jobMap, jobId)
}
