package jobModel

import (
	"context"
	"time"

	"github.com/docharvest/gateway/internal/domain/docModel"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusIndexing   JobStatus = "indexing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether a job may never change status again.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

type Job struct {
	Id          string                          `json:"id"`
	DocId       string                          `json:"doc_id"`
	TraceId     string                          `json:"trace_id"`
	Meta        docModel.DocumentMeta           `json:"meta"`
	Content     string                          `json:"content,omitempty"`
	HasContent  bool                            `json:"has_content"`
	Params      docModel.ProcessingParameters   `json:"params"`
	Status      JobStatus                       `json:"status"`
	Result      map[string]any                  `json:"result,omitempty"`
	CreatedTime time.Time                       `json:"created_time"`
	EndTime     time.Time                       `json:"end_time,omitempty"`
}

type JobStore interface {
	SaveJob(ctx context.Context, job Job) error
	GetJob(ctx context.Context, jobId string) (Job, bool)
	DeleteJob(ctx context.Context, jobId string)
}
