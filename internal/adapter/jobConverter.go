package adapter

import (
	"github.com/docharvest/gateway/internal/api"
	"github.com/docharvest/gateway/internal/domain/appError"
	"github.com/docharvest/gateway/internal/domain/jobModel"
)

func ToIngestAccepted(job jobModel.Job) api.IngestResponse {
	return api.IngestResponse{
		Status: "accepted",
		JobId:  job.Id,
		DocId:  job.DocId,
	}
}

func ToJobStatusResponse(job jobModel.Job) api.JobStatusResponse {
	resp := api.JobStatusResponse{
		JobId:     job.Id,
		DocId:     job.DocId,
		Status:    string(job.Status),
		Result:    job.Result,
		CreatedAt: job.CreatedTime,
	}
	if !job.EndTime.IsZero() {
		ended := job.EndTime
		resp.EndedAt = &ended
	}
	return resp
}

// ToErrorResponse flattens an appError into the wire envelope.
func ToErrorResponse(appErr *appError.Error, requestId string) api.ErrorResponse {
	resp := api.ErrorResponse{
		Status:    "error",
		Code:      appErr.Kind.HTTPStatus(),
		Message:   appErr.Message,
		ErrorType: string(appErr.Kind),
		RequestId: requestId,
		Details:   appErr.Details,
	}
	for _, loc := range appErr.Locations {
		resp.Locations = append(resp.Locations, api.ErrorLocation{
			Field:   loc.Field,
			Message: loc.Message,
		})
	}
	return resp
}
