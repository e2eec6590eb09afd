package indexing

import (
	"context"
	"errors"
	"testing"

	"github.com/docharvest/gateway/internal/domain/docModel"
)

type mockMemory struct {
	OnStoreMemory func(ctx context.Context, sessionId string, chunks []docModel.Chunk) (map[string]any, error)
}

func (m *mockMemory) StoreMemory(ctx context.Context, sessionId string, chunks []docModel.Chunk) (map[string]any, error) {
	if m.OnStoreMemory != nil {
		return m.OnStoreMemory(ctx, sessionId, chunks)
	}
	return map[string]any{"status": "success", "stored": len(chunks)}, nil
}

type mockSearch struct {
	OnIndexChunks func(ctx context.Context, chunks []docModel.Chunk) (map[string]any, error)
}

func (m *mockSearch) IndexChunks(ctx context.Context, chunks []docModel.Chunk) (map[string]any, error) {
	if m.OnIndexChunks != nil {
		return m.OnIndexChunks(ctx, chunks)
	}
	return map[string]any{"status": "success", "indexed": len(chunks)}, nil
}

type mockVector struct {
	OnIndexChunks func(ctx context.Context, chunks []docModel.Chunk) (map[string]any, error)
}

func (m *mockVector) IndexChunks(ctx context.Context, chunks []docModel.Chunk) (map[string]any, error) {
	if m.OnIndexChunks != nil {
		return m.OnIndexChunks(ctx, chunks)
	}
	return map[string]any{"status": "success"}, nil
}

func testChunks(n int) []docModel.Chunk {
	chunks := make([]docModel.Chunk, n)
	for i := range chunks {
		chunks[i] = docModel.Chunk{Id: "c", DocId: "d", Text: "text", Index: i}
	}
	return chunks
}

func TestOrchestrator_AllBackendsSucceed(t *testing.T) {
	o := NewOrchestrator(&mockMemory{}, &mockSearch{}, &mockVector{}, true)

	result := o.Index(context.Background(), "doc-1", "", testChunks(4))

	if result.ChunkCount != 4 {
		t.Fatalf("expected chunk count 4, got %d", result.ChunkCount)
	}
	for _, name := range []string{BackendMemstore, BackendSearchIdx, BackendQdrant} {
		outcome, ok := result.Backends[name]
		if !ok {
			t.Fatalf("missing outcome for backend %s", name)
		}
		if outcome["status"] != "success" {
			t.Fatalf("backend %s should succeed, got %v", name, outcome)
		}
	}
	if result.Failed() {
		t.Fatal("result should not report failure")
	}
}

func TestOrchestrator_OneFailureDoesNotHideOthers(t *testing.T) {
	search := &mockSearch{
		OnIndexChunks: func(context.Context, []docModel.Chunk) (map[string]any, error) {
			return nil, errors.New("index unreachable")
		},
	}
	o := NewOrchestrator(&mockMemory{}, search, nil, false)

	result := o.Index(context.Background(), "doc-2", "", testChunks(2))

	if result.Backends[BackendMemstore]["status"] != "success" {
		t.Fatalf("memstore should still succeed: %v", result.Backends[BackendMemstore])
	}
	failed := result.Backends[BackendSearchIdx]
	if failed["status"] != "failed" {
		t.Fatalf("searchidx should be tagged failed: %v", failed)
	}
	if failed["error"] != "index unreachable" {
		t.Fatalf("failure should carry the error message: %v", failed)
	}
	if !result.Failed() {
		t.Fatal("result should report a failure")
	}
}

func TestOrchestrator_PanicBecomesFailedOutcome(t *testing.T) {
	memory := &mockMemory{
		OnStoreMemory: func(context.Context, string, []docModel.Chunk) (map[string]any, error) {
			panic("backend bug")
		},
	}
	o := NewOrchestrator(memory, &mockSearch{}, nil, false)

	result := o.Index(context.Background(), "doc-3", "", testChunks(1))

	if result.Backends[BackendMemstore]["status"] != "failed" {
		t.Fatalf("panicking backend should be tagged failed: %v", result.Backends[BackendMemstore])
	}
	if result.Backends[BackendSearchIdx]["status"] != "success" {
		t.Fatalf("other backend should be unaffected: %v", result.Backends[BackendSearchIdx])
	}
}

func TestOrchestrator_EnabledVectorWithoutClientIsSkipped(t *testing.T) {
	o := NewOrchestrator(&mockMemory{}, &mockSearch{}, nil, true)

	result := o.Index(context.Background(), "doc-4", "", testChunks(1))

	outcome := result.Backends[BackendQdrant]
	if outcome["status"] != "skipped" {
		t.Fatalf("expected skipped vector outcome, got %v", outcome)
	}
	if outcome["reason"] != "no client configured" {
		t.Fatalf("skip should carry a reason, got %v", outcome)
	}
}

func TestOrchestrator_VectorAbsentWhenDisabled(t *testing.T) {
	o := NewOrchestrator(&mockMemory{}, &mockSearch{}, &mockVector{}, false)

	result := o.Index(context.Background(), "doc-5", "", testChunks(1))

	if _, ok := result.Backends[BackendQdrant]; ok {
		t.Fatal("disabled vector backend must not appear in results")
	}
	if len(result.Backends) != 2 {
		t.Fatalf("expected 2 backends, got %d", len(result.Backends))
	}
}

func TestOrchestrator_SessionIdDefaultsToDocId(t *testing.T) {
	var gotSession string
	memory := &mockMemory{
		OnStoreMemory: func(_ context.Context, sessionId string, chunks []docModel.Chunk) (map[string]any, error) {
			gotSession = sessionId
			return map[string]any{"status": "success"}, nil
		},
	}
	o := NewOrchestrator(memory, &mockSearch{}, nil, false)

	o.Index(context.Background(), "doc-6", "", testChunks(1))
	if gotSession != "doc-doc-6" {
		t.Fatalf("expected derived session id doc-doc-6, got %q", gotSession)
	}

	o.Index(context.Background(), "doc-6", "custom-session", testChunks(1))
	if gotSession != "custom-session" {
		t.Fatalf("explicit session id must win, got %q", gotSession)
	}
}
