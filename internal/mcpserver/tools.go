package mcpserver

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docharvest/gateway/internal/adapter/utils"
	"github.com/docharvest/gateway/internal/config"
	"github.com/docharvest/gateway/internal/domain/docModel"
	"github.com/docharvest/gateway/internal/domain/jobModel"
)

// IngestInput is the input schema for the ingest_document tool.
type IngestInput struct {
	URL     string         `json:"url,omitempty" jsonschema:"the url of the document to ingest"`
	Content string         `json:"content,omitempty" jsonschema:"inline document content, used when no url is given"`
	Title   string         `json:"title,omitempty" jsonschema:"display title of the document"`
	Source  string         `json:"source,omitempty" jsonschema:"where the document came from"`
	Meta    map[string]any `json:"metadata,omitempty" jsonschema:"arbitrary document metadata"`
}

type IngestOutput struct {
	JobId string `json:"job_id"`
	DocId string `json:"doc_id"`
}

// SearchInput is the input schema for the search_knowledge tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
}

type SearchOutput struct {
	Results []map[string]any `json:"results"`
	Count   int              `json:"count"`
}

// MemoryInput is the input schema for the get_memory tool.
type MemoryInput struct {
	SessionId string `json:"session_id" jsonschema:"the memory session to read"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum number of entries to return"`
}

type MemoryOutput struct {
	Memory map[string]any `json:"memory"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_document",
		Description: "Queue a document for chunking and indexing, by url or inline content",
	}, s.handleIngest)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_knowledge",
		Description: "Keyword search across all indexed documents",
	}, s.handleSearch)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_memory",
		Description: "Read back the stored memory entries for a session",
	}, s.handleGetMemory)
}

func (s *Server) handleIngest(ctx context.Context, _ *mcp.CallToolRequest, input IngestInput) (*mcp.CallToolResult, IngestOutput, error) {
	if input.URL == "" && input.Content == "" {
		return nil, IngestOutput{}, errors.New("either url or content must be provided")
	}

	docURL := input.URL
	content := input.Content
	if docURL == "" {
		docURL = docModel.InlineContentURL
	} else {
		content = ""
	}

	newJob := jobModel.Job{
		Id:      utils.GetNewUUID(),
		DocId:   utils.GetNewUUID(),
		TraceId: utils.GetNewUUID(),
		Meta: docModel.DocumentMeta{
			URL:       docURL,
			Title:     input.Title,
			Source:    input.Source,
			Metadata:  input.Meta,
			CreatedAt: time.Now(),
		},
		Content:    content,
		HasContent: content != "",
		Params: docModel.ProcessingParameters{
			ChunkSize:       config.DefaultChunkSize,
			ChunkOverlap:    config.DefaultChunkOverlap,
			MaxChunksPerDoc: config.DefaultMaxChunksPerDoc,
		},
	}
	newJob.Meta.Id = newJob.DocId

	if err := s.jobService.Submit(ctx, newJob); err != nil {
		return nil, IngestOutput{}, err
	}
	return nil, IngestOutput{JobId: newJob.Id, DocId: newJob.DocId}, nil
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	results, err := s.search.Search(ctx, input.Query, nil, limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, SearchOutput{Results: results, Count: len(results)}, nil
}

func (s *Server) handleGetMemory(ctx context.Context, _ *mcp.CallToolRequest, input MemoryInput) (*mcp.CallToolResult, MemoryOutput, error) {
	if input.SessionId == "" {
		return nil, MemoryOutput{}, errors.New("session_id is required")
	}

	memory, err := s.memory.GetMemory(ctx, input.SessionId, input.Limit)
	if err != nil {
		return nil, MemoryOutput{}, err
	}
	return nil, MemoryOutput{Memory: memory}, nil
}
