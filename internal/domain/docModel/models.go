package docModel

import (
	"fmt"
	"time"

	"github.com/docharvest/gateway/internal/domain/appError"
)

// InlineContentURL marks documents whose content arrived in the request body
// instead of being fetched from a URL.
const InlineContentURL = "local://content-provided"

const (
	MinChunkSize       = 100
	MaxChunkSize       = 8192
	MaxChunkOverlap    = 4096
	MinMaxChunksPerDoc = 1
	MaxMaxChunksPerDoc = 10000
)

type DocumentMeta struct {
	Id        string         `json:"id"`
	URL       string         `json:"url"`
	Title     string         `json:"title"`
	Source    string         `json:"source"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type Chunk struct {
	Id        string         `json:"chunk_id"`
	DocId     string         `json:"doc_id"`
	Text      string         `json:"text"`
	Index     int            `json:"index"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Embedding []float32      `json:"embedding,omitempty"`
}

type ProcessingParameters struct {
	ChunkSize       int `json:"chunk_size"`
	ChunkOverlap    int `json:"chunk_overlap"`
	MaxChunksPerDoc int `json:"max_chunks_per_doc"`
}

// Validate checks every constraint and reports all violations at once.
// Overlap may be at most half the chunk size, so the chunker always makes
// forward progress.
func (p ProcessingParameters) Validate() error {
	var locations []appError.FieldError

	if p.ChunkSize < MinChunkSize || p.ChunkSize > MaxChunkSize {
		locations = append(locations, appError.FieldError{
			Field:   "chunk_size",
			Message: fmt.Sprintf("chunk_size must be between %d and %d, got %d", MinChunkSize, MaxChunkSize, p.ChunkSize),
		})
	}
	if p.ChunkOverlap < 0 || p.ChunkOverlap > MaxChunkOverlap {
		locations = append(locations, appError.FieldError{
			Field:   "chunk_overlap",
			Message: fmt.Sprintf("chunk_overlap must be between 0 and %d, got %d", MaxChunkOverlap, p.ChunkOverlap),
		})
	}
	if p.MaxChunksPerDoc < MinMaxChunksPerDoc || p.MaxChunksPerDoc > MaxMaxChunksPerDoc {
		locations = append(locations, appError.FieldError{
			Field:   "max_chunks_per_doc",
			Message: fmt.Sprintf("max_chunks_per_doc must be between %d and %d, got %d", MinMaxChunksPerDoc, MaxMaxChunksPerDoc, p.MaxChunksPerDoc),
		})
	}
	if p.ChunkOverlap >= p.ChunkSize || p.ChunkOverlap > p.ChunkSize/2 {
		maxAllowed := p.ChunkSize / 2
		if p.ChunkSize-1 < maxAllowed {
			maxAllowed = p.ChunkSize - 1
		}
		locations = append(locations, appError.FieldError{
			Field:   "chunk_overlap",
			Message: fmt.Sprintf("chunk_overlap must be smaller than chunk_size and at most half of it, got %d (max allowed %d)", p.ChunkOverlap, maxAllowed),
		})
	}

	if len(locations) > 0 {
		return appError.New(appError.Validation, "Invalid document processing parameters").
			WithLocations(locations...)
	}
	return nil
}
