package api

import "time"

// requests---------------------

type IngestRequest struct {
	URL              string            `json:"url,omitempty" example:"https://example.com/notes.pdf"`
	Title            string            `json:"title,omitempty" example:"Design notes"`
	Source           string            `json:"source,omitempty" example:"wiki"`
	Content          string            `json:"content,omitempty"`
	Metadata         map[string]any    `json:"metadata,omitempty"`
	ProcessingParams *ProcessingParams `json:"processing_params,omitempty"`
}

type ProcessingParams struct {
	ChunkSize       int `json:"chunk_size" example:"512"`
	ChunkOverlap    int `json:"chunk_overlap" example:"128"`
	MaxChunksPerDoc int `json:"max_chunks_per_doc" example:"1000"`
}

// responses--------------------

type IngestResponse struct {
	Status string `json:"status" example:"accepted"`
	JobId  string `json:"job_id"`
	DocId  string `json:"doc_id"`
}

type JobStatusResponse struct {
	JobId     string         `json:"job_id"`
	DocId     string         `json:"doc_id"`
	Status    string         `json:"status" example:"completed"`
	Result    map[string]any `json:"result,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	EndedAt   *time.Time     `json:"ended_at,omitempty"`
}

type SearchResponse struct {
	Query   string           `json:"query"`
	Results []map[string]any `json:"results"`
	Count   int              `json:"count"`
}

type ErrorLocation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the single error envelope every failure uses, regardless
// of which layer produced it.
type ErrorResponse struct {
	Status    string          `json:"status" example:"error"`
	Code      int             `json:"code" example:"400"`
	Message   string          `json:"message"`
	ErrorType string          `json:"error_type" example:"invalid_request"`
	RequestId string          `json:"request_id,omitempty"`
	Details   map[string]any  `json:"details,omitempty"`
	Locations []ErrorLocation `json:"locations,omitempty"`
}
