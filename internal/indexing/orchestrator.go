package indexing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/docharvest/gateway/internal/domain/docModel"
	"github.com/docharvest/gateway/internal/metrics"
	"github.com/docharvest/gateway/pkg/logger_i"
)

// Backend names used as keys in the per-backend result map.
const (
	BackendMemstore  = "memstore"
	BackendSearchIdx = "searchidx"
	BackendQdrant    = "qdrant"
)

// MemoryClient writes chunks into the session memory service.
type MemoryClient interface {
	StoreMemory(ctx context.Context, sessionId string, chunks []docModel.Chunk) (map[string]any, error)
}

// SearchIndexClient writes chunks into the keyword search index.
type SearchIndexClient interface {
	IndexChunks(ctx context.Context, chunks []docModel.Chunk) (map[string]any, error)
}

// VectorClient writes chunks into the development vector store.
type VectorClient interface {
	IndexChunks(ctx context.Context, chunks []docModel.Chunk) (map[string]any, error)
}

// Result is the aggregated outcome of one indexing round. Backends maps every
// configured backend name to its tagged outcome; a backend failure shows up as
// an entry with status "failed", never as a missing key or a panic.
type Result struct {
	DocId      string
	ChunkCount int
	Backends   map[string]map[string]any
}

// Failed reports whether any backend entry carries a failed status.
func (r Result) Failed() bool {
	for _, outcome := range r.Backends {
		if outcome["status"] == "failed" {
			return true
		}
	}
	return false
}

type backendDescriptor struct {
	name  string
	write func(ctx context.Context, sessionId string, chunks []docModel.Chunk) (map[string]any, error)
}

// Orchestrator fans one batch of chunks out to every configured backend
// concurrently and collects the per-backend outcomes. The backend list is
// fixed at construction time.
type Orchestrator struct {
	backends []backendDescriptor
	logger   *logger_i.Logger
}

// NewOrchestrator wires the backend list. Memory and search are mandatory;
// the vector backend joins only when enabled. An enabled vector backend with
// no client reports a skipped outcome instead of failing the round.
func NewOrchestrator(memory MemoryClient, search SearchIndexClient, vector VectorClient, vectorEnabled bool) *Orchestrator {
	backends := []backendDescriptor{
		{
			name: BackendMemstore,
			write: func(ctx context.Context, sessionId string, chunks []docModel.Chunk) (map[string]any, error) {
				return memory.StoreMemory(ctx, sessionId, chunks)
			},
		},
		{
			name: BackendSearchIdx,
			write: func(ctx context.Context, _ string, chunks []docModel.Chunk) (map[string]any, error) {
				return search.IndexChunks(ctx, chunks)
			},
		},
	}
	if vectorEnabled {
		descriptor := backendDescriptor{name: BackendQdrant}
		if vector == nil {
			descriptor.write = func(context.Context, string, []docModel.Chunk) (map[string]any, error) {
				return map[string]any{"status": "skipped", "reason": "no client configured"}, nil
			}
		} else {
			descriptor.write = func(ctx context.Context, _ string, chunks []docModel.Chunk) (map[string]any, error) {
				return vector.IndexChunks(ctx, chunks)
			}
		}
		backends = append(backends, descriptor)
	}

	return &Orchestrator{
		backends: backends,
		logger:   logger_i.NewLogger("Orchestrator"),
	}
}

// BackendNames lists the configured backends in dispatch order.
func (o *Orchestrator) BackendNames() []string {
	names := make([]string, len(o.backends))
	for i, b := range o.backends {
		names[i] = b.name
	}
	return names
}

// Index writes the chunks to every backend in parallel. It always returns a
// Result covering every configured backend; one backend failing or panicking
// never hides the outcome of the others.
func (o *Orchestrator) Index(ctx context.Context, docId string, sessionId string, chunks []docModel.Chunk) Result {
	if sessionId == "" {
		sessionId = "doc-" + docId
	}

	outcomes := make([]map[string]any, len(o.backends))
	var wg sync.WaitGroup
	for i, backend := range o.backends {
		wg.Add(1)
		go func(slot int, backend backendDescriptor) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					o.logger.Error("Backend write panicked", "backend", backend.name, "docId", docId, "panic", r)
					outcomes[slot] = map[string]any{
						"status": "failed",
						"error":  fmt.Sprintf("panic: %v", r),
					}
				}
			}()

			started := time.Now()
			outcome, err := backend.write(ctx, sessionId, chunks)
			if err != nil {
				o.logger.Error("Backend write failed", "backend", backend.name, "docId", docId, "error", err)
				metrics.BackendWriteSeconds.WithLabelValues(backend.name, "failed").Observe(time.Since(started).Seconds())
				outcomes[slot] = map[string]any{
					"status": "failed",
					"error":  err.Error(),
				}
				return
			}
			metrics.BackendWriteSeconds.WithLabelValues(backend.name, "success").Observe(time.Since(started).Seconds())
			if outcome == nil {
				outcome = map[string]any{"status": "success"}
			}
			if _, tagged := outcome["status"]; !tagged {
				outcome["status"] = "success"
			}
			outcomes[slot] = outcome
		}(i, backend)
	}
	wg.Wait()

	result := Result{
		DocId:      docId,
		ChunkCount: len(chunks),
		Backends:   make(map[string]map[string]any, len(o.backends)),
	}
	for i, backend := range o.backends {
		result.Backends[backend.name] = outcomes[i]
	}
	return result
}
