package config

import (
	"log/slog"
	"os"
	"time"
)

const (
	IS_PROD        = false
	LOG_LEVEL_PROD = slog.LevelInfo
	TRACE_ID_KEY   = "traceId"

	//rate limiting - admission control for the HTTP surface
	RateLimitTokensPerSecond float64 = 10
	RateLimitBucketSize              = 20

	//chunking defaults, used when a request carries no processing_params
	DefaultChunkSize       = 512
	DefaultChunkOverlap    = 128
	DefaultMaxChunksPerDoc = 1000

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 10 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening ports
	ServerListenAddr = ":3000"
	McpListenAddr    = ":3001"

	//job requests buffer limit
	BufferLimit = 100

	//worker pool
	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute
	JobTimeout                      = 120 * time.Second

	//content fetcher
	FetchTimeout        = 30 * time.Second
	FetchRatePerSecond  = 4
	FetchBurst          = 2
	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//backend client timeouts
	BackendTimeout = 30 * time.Second

	//vectorDB (dev only)
	QdrantHost                          = "localhost"
	QdrantGrpcPort                      = 6334
	QdrantUseTLS                        = false
	QdrantPoolSize                      = 1
	QdrantCollectionName                = "harvest-chunks"
	EmbeddingOutputDimensionality int32 = 1536

	//embeddings
	GoogleEmbeddingModel = "gemini-embedding-001"
)

// env-backed settings, read once at startup by main
func MemstoreAPIURL() string { return envOr("MEMSTORE_API_URL", "http://127.0.0.1:8100") }
func MemstoreAPIKey() string { return os.Getenv("MEMSTORE_API_KEY") }

func SearchIndexAPIURL() string { return envOr("SEARCHIDX_API_URL", "http://127.0.0.1:8200") }
func SearchIndexAPIKey() string { return os.Getenv("SEARCHIDX_API_KEY") }

func UseQdrantDev() bool { return os.Getenv("USE_QDRANT_DEV") == "true" }

func GoogleEmbeddingAPIKey() string { return os.Getenv("GOOGLE_API_KEY") }

func McpEnabled() bool { return os.Getenv("MCP_DISABLED") != "true" }

func envOr(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
