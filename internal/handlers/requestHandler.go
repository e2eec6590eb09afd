package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/docharvest/gateway/internal/adapter"
	"github.com/docharvest/gateway/internal/adapter/utils"
	"github.com/docharvest/gateway/internal/api"
	"github.com/docharvest/gateway/internal/config"
	"github.com/docharvest/gateway/internal/domain/appError"
	"github.com/docharvest/gateway/internal/domain/docModel"
	"github.com/docharvest/gateway/internal/domain/jobModel"
	"github.com/docharvest/gateway/internal/job"
	"github.com/docharvest/gateway/pkg/logger_i"
)

var logRH = logger_i.NewLogger("RequestHandler")

// SearchClient runs keyword queries against the search index service.
type SearchClient interface {
	Search(ctx context.Context, query string, filters map[string]any, limit int) ([]map[string]any, error)
}

// Handler owns the HTTP endpoints. Dependencies come in through the
// constructor so tests can swap them out.
type Handler struct {
	jobService *job.Service
	search     SearchClient
}

func NewHandler(jobService *job.Service, search SearchClient) *Handler {
	return &Handler{jobService: jobService, search: search}
}

// Health godoc
// @Summary      Liveness check
// @Tags         Ops
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /healthz [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// PostIngest godoc
// @Summary      Submit a document for ingestion
// @Description  Accepts a URL or inline content, queues a background ingestion job, and returns the job and document ids.
// @Tags         Ingestion
// @Accept       json
// @Produce      json
// @Param        request  body      api.IngestRequest  true  "Document location or inline content, with optional processing parameters"
// @Success      202      {object}  api.IngestResponse "Job accepted"
// @Failure      400      {object}  api.ErrorResponse  "Neither url nor content provided"
// @Failure      422      {object}  api.ErrorResponse  "Invalid processing parameters"
// @Failure      429      {object}  api.ErrorResponse  "Rate limit exceeded"
// @Router       /ingest [post]
func (h *Handler) PostIngest(w http.ResponseWriter, r *http.Request) {
	var requestData api.IngestRequest
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			logRH.Error("Couldn't close the ingest request reader", "error", err)
		}
	}(r.Body)

	if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil {
		logRH.Warn("Bad ingest request body", "error", err)
		WriteAppError(w, r, appError.New(appError.InvalidRequest, "Request body must be valid JSON"))
		return
	}

	// inline content may also arrive as a query parameter
	if requestData.Content == "" {
		requestData.Content = r.URL.Query().Get("content")
	}

	if requestData.URL == "" && requestData.Content == "" {
		WriteAppError(w, r, appError.New(appError.InvalidRequest, "Either url or content must be provided").
			WithDetails(map[string]any{"has_url": false, "has_content": false}))
		return
	}
	if requestData.URL != "" && requestData.Content != "" {
		logRH.Warn("Both url and content provided, preferring url", "url", requestData.URL)
		requestData.Content = ""
	}

	params := docModel.ProcessingParameters{
		ChunkSize:       config.DefaultChunkSize,
		ChunkOverlap:    config.DefaultChunkOverlap,
		MaxChunksPerDoc: config.DefaultMaxChunksPerDoc,
	}
	if p := requestData.ProcessingParams; p != nil {
		params = docModel.ProcessingParameters{
			ChunkSize:       p.ChunkSize,
			ChunkOverlap:    p.ChunkOverlap,
			MaxChunksPerDoc: p.MaxChunksPerDoc,
		}
	}
	if err := params.Validate(); err != nil {
		logRH.Warn("Invalid processing parameters", "error", err)
		WriteAppError(w, r, err)
		return
	}

	docURL := requestData.URL
	if docURL == "" {
		docURL = docModel.InlineContentURL
	}

	newJob := jobModel.Job{
		Id:      utils.GetNewUUID(),
		DocId:   utils.GetNewUUID(),
		TraceId: traceIdFrom(r.Context()),
		Meta: docModel.DocumentMeta{
			URL:       docURL,
			Title:     requestData.Title,
			Source:    requestData.Source,
			Metadata:  requestData.Metadata,
			CreatedAt: time.Now(),
		},
		Content:    requestData.Content,
		HasContent: requestData.Content != "",
		Params:     params,
	}
	newJob.Meta.Id = newJob.DocId

	if err := h.jobService.Submit(r.Context(), newJob); err != nil {
		logRH.Error("Failed to submit job", "error", err)
		WriteAppError(w, r, err)
		return
	}
	writeJsonResponse(w, http.StatusAccepted, adapter.ToIngestAccepted(newJob))
}

// GetStatus godoc
// @Summary      Get ingestion job status
// @Tags         Ingestion
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobStatusResponse
// @Failure      404  {object}  api.ErrorResponse "Job not found"
// @Router       /status/{id} [get]
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	idString := utils.GetChiURLParam(r, "id")
	result, isFound := h.jobService.JobStore.GetJob(r.Context(), idString)
	if !isFound {
		WriteAppError(w, r, appError.New(appError.NotFound, "Job not found").
			WithDetails(map[string]any{"job_id": idString}))
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToJobStatusResponse(result))
}

// Search godoc
// @Summary      Keyword search over indexed documents
// @Tags         Search
// @Produce      json
// @Param        q        query     string  true   "Search query"
// @Param        limit    query     int     false  "Max results (1-50, default 10)"
// @Param        filters  query     string  false  "JSON object of metadata filters"
// @Success      200  {object}  api.SearchResponse
// @Failure      400  {object}  api.ErrorResponse "Missing query"
// @Failure      503  {object}  api.ErrorResponse "Search index unavailable"
// @Router       /search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		WriteAppError(w, r, appError.New(appError.InvalidRequest, "Query parameter q is required"))
		return
	}

	limit := 10
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed < 1 || parsed > 50 {
			WriteAppError(w, r, appError.New(appError.Validation, "limit must be an integer between 1 and 50").
				WithLocations(appError.FieldError{Field: "limit", Message: "must be between 1 and 50"}))
			return
		}
		limit = parsed
	}

	var filters map[string]any
	if rawFilters := r.URL.Query().Get("filters"); rawFilters != "" {
		if err := json.Unmarshal([]byte(rawFilters), &filters); err != nil {
			WriteAppError(w, r, appError.New(appError.Validation, "filters must be a JSON object").
				WithLocations(appError.FieldError{Field: "filters", Message: "must be a JSON object"}))
			return
		}
	}

	results, err := h.search.Search(r.Context(), query, filters, limit)
	if err != nil {
		logRH.Error("Search backend call failed", "error", err)
		WriteAppError(w, r, appError.Wrap(appError.Dependency, "Search index unavailable", err))
		return
	}
	writeJsonResponse(w, http.StatusOK, api.SearchResponse{
		Query:   query,
		Results: results,
		Count:   len(results),
	})
}
