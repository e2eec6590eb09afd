package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/docharvest/gateway/internal/api"
	"github.com/docharvest/gateway/internal/data/store"
	"github.com/docharvest/gateway/internal/domain/docModel"
	"github.com/docharvest/gateway/internal/domain/jobModel"
	"github.com/docharvest/gateway/internal/handlers"
	"github.com/docharvest/gateway/internal/harvest"
	"github.com/docharvest/gateway/internal/indexing"
	"github.com/docharvest/gateway/internal/job"
	"github.com/docharvest/gateway/internal/middleware"
	"github.com/docharvest/gateway/internal/ratelimit"
	"github.com/docharvest/gateway/internal/server"
)

type mockSearchClient struct {
	OnSearch func(ctx context.Context, query string, filters map[string]any, limit int) ([]map[string]any, error)
}

func (m *mockSearchClient) Search(ctx context.Context, query string, filters map[string]any, limit int) ([]map[string]any, error) {
	if m.OnSearch != nil {
		return m.OnSearch(ctx, query, filters, limit)
	}
	return []map[string]any{{"text": "hit"}}, nil
}

type testEnv struct {
	server     *httptest.Server
	jobStore   *store.InMemoryJobStore
	jobChannel chan jobModel.Job
	jobService *job.Service
}

func newTestEnv(t *testing.T, limiterCfg ratelimit.Config, search handlers.SearchClient) *testEnv {
	t.Helper()

	jobStore := store.InitInMemoryJobStore()
	jobChannel := make(chan jobModel.Job, 16)
	jobService := job.InitJobService(job.ServiceConfig{
		JobChannel:        jobChannel,
		DispatcherChannel: make(chan bool, 1),
		JobStore:          jobStore,
	})

	if search == nil {
		search = &mockSearchClient{}
	}

	handler := handlers.NewHandler(jobService, search)
	mw := middleware.NewMiddleware(ratelimit.NewRateLimiter(limiterCfg))
	ts := httptest.NewServer(server.NewRouter(handler, mw))
	t.Cleanup(ts.Close)

	return &testEnv{server: ts, jobStore: jobStore, jobChannel: jobChannel, jobService: jobService}
}

func defaultLimiter() ratelimit.Config {
	return ratelimit.Config{TokensPerSecond: 1000, BucketSize: 1000}
}

func postIngest(t *testing.T, env *testEnv, body map[string]any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(env.server.URL+"/ingest", "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeErrorEnvelope(t *testing.T, resp *http.Response) api.ErrorResponse {
	t.Helper()
	defer resp.Body.Close()
	var envelope api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decoding error envelope: %v", err)
	}
	return envelope
}

func TestPostIngest_AcceptsAndQueues(t *testing.T) {
	env := newTestEnv(t, defaultLimiter(), nil)

	resp := postIngest(t, env, map[string]any{"url": "https://example.com/doc.txt", "title": "Doc"})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	var accepted api.IngestResponse
	if err := json.NewDecoder(resp.Body).Decode(&accepted); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if accepted.Status != "accepted" || accepted.JobId == "" || accepted.DocId == "" {
		t.Fatalf("unexpected accept payload: %+v", accepted)
	}

	// the job is queued and visible as pending before any worker runs
	queued := <-env.jobChannel
	if queued.Id != accepted.JobId {
		t.Fatalf("queued job id %q does not match response %q", queued.Id, accepted.JobId)
	}
	stored, found := env.jobStore.GetJob(context.Background(), accepted.JobId)
	if !found || stored.Status != jobModel.JobStatusPending {
		t.Fatalf("expected pending record, found=%v status=%s", found, stored.Status)
	}
}

func TestPostIngest_RejectsMissingUrlAndContent(t *testing.T) {
	env := newTestEnv(t, defaultLimiter(), nil)

	resp := postIngest(t, env, map[string]any{"title": "no source"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	envelope := decodeErrorEnvelope(t, resp)
	if envelope.Status != "error" || envelope.ErrorType != "invalid_request" {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
	if envelope.Details["has_url"] != false || envelope.Details["has_content"] != false {
		t.Fatalf("details should flag both fields missing: %v", envelope.Details)
	}

	select {
	case j := <-env.jobChannel:
		t.Fatalf("no job should be queued, got %+v", j)
	default:
	}
}

func TestPostIngest_RejectsBadProcessingParams(t *testing.T) {
	env := newTestEnv(t, defaultLimiter(), nil)

	resp := postIngest(t, env, map[string]any{
		"content": "inline body",
		"processing_params": map[string]any{
			"chunk_size":         500,
			"chunk_overlap":      400,
			"max_chunks_per_doc": 10,
		},
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	envelope := decodeErrorEnvelope(t, resp)
	if envelope.ErrorType != "validation_error" {
		t.Fatalf("expected validation_error, got %s", envelope.ErrorType)
	}
	if len(envelope.Locations) == 0 || envelope.Locations[0].Field != "chunk_overlap" {
		t.Fatalf("expected chunk_overlap violation, got %v", envelope.Locations)
	}
}

func TestGetStatus_UnknownJobIs404(t *testing.T) {
	env := newTestEnv(t, defaultLimiter(), nil)

	resp, err := http.Get(env.server.URL + "/status/nope")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	envelope := decodeErrorEnvelope(t, resp)
	if envelope.ErrorType != "not_found" {
		t.Fatalf("expected not_found, got %s", envelope.ErrorType)
	}
}

func TestIngest_PipelineRoundTrip(t *testing.T) {
	env := newTestEnv(t, defaultLimiter(), nil)

	resp := postIngest(t, env, map[string]any{"content": "inline document content for the round trip"})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	var accepted api.IngestResponse
	json.NewDecoder(resp.Body).Decode(&accepted)
	resp.Body.Close()

	// run the queued job the way a worker would
	queued := <-env.jobChannel
	indexer := &stubIndexer{}
	harvest.NewService(&stubFetcher{}, indexer, env.jobStore).ProcessJob(context.Background(), queued)

	statusResp, err := http.Get(env.server.URL + "/status/" + accepted.JobId)
	if err != nil {
		t.Fatalf("status request failed: %v", err)
	}
	defer statusResp.Body.Close()
	if statusResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", statusResp.StatusCode)
	}

	var status api.JobStatusResponse
	if err := json.NewDecoder(statusResp.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Status != string(jobModel.JobStatusCompleted) {
		t.Fatalf("expected completed, got %s (%v)", status.Status, status.Result)
	}
	if status.Result["chunk_count"] != float64(1) {
		t.Fatalf("expected chunk_count 1, got %v", status.Result["chunk_count"])
	}
	if status.DocId != accepted.DocId {
		t.Fatalf("doc id mismatch: %s vs %s", status.DocId, accepted.DocId)
	}
}

func TestRateLimit_SixthRequestIsDenied(t *testing.T) {
	env := newTestEnv(t, ratelimit.Config{TokensPerSecond: 0.001, BucketSize: 5}, nil)

	client := env.server.Client()
	for i := 0; i < 5; i++ {
		req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/healthz", nil)
		req.Header.Set("X-API-Key", "tenant-a")
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d should pass, got %d", i, resp.StatusCode)
		}
	}

	req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/healthz", nil)
	req.Header.Set("X-API-Key", "tenant-a")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("sixth request should be limited, got %d", resp.StatusCode)
	}

	retryAfter, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || retryAfter < 1 {
		t.Fatalf("Retry-After must be a positive integer, got %q", resp.Header.Get("Retry-After"))
	}
	if resp.Header.Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("remaining header should be 0, got %q", resp.Header.Get("X-RateLimit-Remaining"))
	}

	envelope := decodeErrorEnvelope(t, resp)
	if envelope.ErrorType != "rate_limit_error" {
		t.Fatalf("expected rate_limit_error, got %s", envelope.ErrorType)
	}
	if _, ok := envelope.Details["retry_after"]; !ok {
		t.Fatalf("details should carry retry_after: %v", envelope.Details)
	}

	// a different API key is not affected
	req, _ = http.NewRequest(http.MethodGet, env.server.URL+"/healthz", nil)
	req.Header.Set("X-API-Key", "tenant-b")
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("other tenant should pass, got %d", resp.StatusCode)
	}
}

func TestSearch_RequiresQuery(t *testing.T) {
	env := newTestEnv(t, defaultLimiter(), nil)

	resp, err := http.Get(env.server.URL + "/search")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	envelope := decodeErrorEnvelope(t, resp)
	if envelope.ErrorType != "invalid_request" {
		t.Fatalf("expected invalid_request, got %s", envelope.ErrorType)
	}
}

func TestSearch_BackendFailureIs503(t *testing.T) {
	search := &mockSearchClient{
		OnSearch: func(context.Context, string, map[string]any, int) ([]map[string]any, error) {
			return nil, errors.New("connection refused")
		},
	}
	env := newTestEnv(t, defaultLimiter(), search)

	resp, err := http.Get(env.server.URL + "/search?q=hello")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	envelope := decodeErrorEnvelope(t, resp)
	if envelope.ErrorType != "dependency_error" {
		t.Fatalf("expected dependency_error, got %s", envelope.ErrorType)
	}
}

func TestSearch_ReturnsResults(t *testing.T) {
	var gotLimit int
	search := &mockSearchClient{
		OnSearch: func(_ context.Context, query string, _ map[string]any, limit int) ([]map[string]any, error) {
			gotLimit = limit
			return []map[string]any{{"text": "alpha"}, {"text": "beta"}}, nil
		},
	}
	env := newTestEnv(t, defaultLimiter(), search)

	resp, err := http.Get(env.server.URL + "/search?q=alpha&limit=25")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body api.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 2 || body.Query != "alpha" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if gotLimit != 25 {
		t.Fatalf("limit not forwarded, got %d", gotLimit)
	}
}

type stubFetcher struct{}

func (stubFetcher) Fetch(ctx context.Context, url string) (string, error) {
	return "stub body", nil
}

type stubIndexer struct{}

func (stubIndexer) Index(_ context.Context, docId string, _ string, chunks []docModel.Chunk) indexing.Result {
	return indexing.Result{
		DocId:      docId,
		ChunkCount: len(chunks),
		Backends: map[string]map[string]any{
			indexing.BackendMemstore:  {"status": "success"},
			indexing.BackendSearchIdx: {"status": "success"},
		},
	}
}
