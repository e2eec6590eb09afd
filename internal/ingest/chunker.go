package ingest

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/docharvest/gateway/internal/domain/docModel"
	"github.com/docharvest/gateway/pkg/logger_i"
)

// Chunker splits document text into fixed-size overlapping chunks. Splitting
// is purely offset based; the same input always yields the same chunks.
type Chunker struct {
	params docModel.ProcessingParameters
	logger *logger_i.Logger
}

// NewChunker validates the parameters eagerly. Invalid combinations never
// produce a clamped chunker; the error lists every violated constraint.
func NewChunker(params docModel.ProcessingParameters) (*Chunker, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{
		params: params,
		logger: logger_i.NewLogger("Chunker"),
	}, nil
}

func (c *Chunker) Params() docModel.ProcessingParameters {
	return c.params
}

// Chunk emits chunks spanning [start, min(start+size, len)), advancing by
// size-overlap. Emission stops at max_chunks_per_doc; any remaining tail is
// dropped, not an error.
func (c *Chunker) Chunk(meta docModel.DocumentMeta, content string) []docModel.Chunk {
	length := len(content)
	if length == 0 {
		return nil
	}

	size := c.params.ChunkSize
	overlap := c.params.ChunkOverlap
	maxChunks := c.params.MaxChunksPerDoc

	step := size - overlap
	estimate := (length + step - 1) / step
	if estimate > maxChunks {
		estimate = maxChunks
	}

	chunks := make([]docModel.Chunk, 0, estimate)
	start := 0
	for start < length && len(chunks) < maxChunks {
		end := start + size
		if end > length {
			end = length
		}

		metadata := make(map[string]any, len(meta.Metadata)+6)
		for k, v := range meta.Metadata {
			metadata[k] = v
		}
		metadata["title"] = meta.Title
		metadata["source"] = meta.Source
		metadata["url"] = meta.URL
		metadata["chunk_start"] = start
		metadata["chunk_end"] = end
		metadata["total_chunks"] = estimate

		chunks = append(chunks, docModel.Chunk{
			Id:       chunkId(meta.Id, len(chunks)),
			DocId:    meta.Id,
			Text:     content[start:end],
			Index:    len(chunks),
			Metadata: metadata,
		})

		if end < length && overlap > 0 {
			start = end - overlap
		} else {
			start = end
		}
	}

	if start < length {
		c.logger.Warn("Chunk budget reached, dropping document tail",
			"docId", meta.Id, "maxChunks", maxChunks, "droppedBytes", length-start)
	}
	return chunks
}

// chunkId derives a stable id from the document id and position so repeated
// chunking of the same document is reproducible.
func chunkId(docId string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s/%d", docId, index))).String()
}
