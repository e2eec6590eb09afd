package mcpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docharvest/gateway/internal/job"
	"github.com/docharvest/gateway/pkg/logger_i"
)

const Version = "0.1.0"

// SearchClient runs keyword queries against the search index service.
type SearchClient interface {
	Search(ctx context.Context, query string, filters map[string]any, limit int) ([]map[string]any, error)
}

// MemoryReader reads stored session memory back out.
type MemoryReader interface {
	GetMemory(ctx context.Context, sessionId string, limit int) (map[string]any, error)
}

// Server exposes the ingestion gateway to MCP clients. It reuses the same
// job service the HTTP handlers use, so both surfaces share one pipeline.
type Server struct {
	jobService *job.Service
	search     SearchClient
	memory     MemoryReader
	server     *mcp.Server
	logger     *logger_i.Logger
}

func NewServer(jobService *job.Service, search SearchClient, memory MemoryReader) *Server {
	impl := &mcp.Implementation{
		Name:    "docharvest-gateway",
		Version: Version,
	}

	s := &Server{
		jobService: jobService,
		search:     search,
		memory:     memory,
		server:     mcp.NewServer(impl, nil),
		logger:     logger_i.NewLogger("MCP Server"),
	}
	s.registerTools()
	return s
}

// Run serves MCP over stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves MCP over streamable HTTP until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background()) //nolint:errcheck
	}()

	s.logger.Info("MCP server is listening at", "address", addr)
	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
