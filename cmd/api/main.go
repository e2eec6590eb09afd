// @title           Document Harvest Gateway
// @version         1.0
// @description     Async document ingestion gateway: fetch, chunk and fan out to indexing backends.

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/docharvest/gateway/internal/clients/fetch"
	"github.com/docharvest/gateway/internal/clients/memstore"
	"github.com/docharvest/gateway/internal/clients/qdrantDB"
	"github.com/docharvest/gateway/internal/clients/searchidx"
	"github.com/docharvest/gateway/internal/config"
	"github.com/docharvest/gateway/internal/data/store"
	jobmodel "github.com/docharvest/gateway/internal/domain/jobModel"
	"github.com/docharvest/gateway/internal/embedding/googleEmbedding"
	"github.com/docharvest/gateway/internal/handlers"
	"github.com/docharvest/gateway/internal/harvest"
	"github.com/docharvest/gateway/internal/indexing"
	"github.com/docharvest/gateway/internal/job"
	"github.com/docharvest/gateway/internal/mcpserver"
	"github.com/docharvest/gateway/internal/middleware"
	"github.com/docharvest/gateway/internal/ratelimit"
	"github.com/docharvest/gateway/internal/server"
	"github.com/docharvest/gateway/internal/worker"
	"github.com/docharvest/gateway/pkg/logger_i"
)

var (
	listenAddr        string
	mcpAddr           string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {

	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	//config
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.StringVar(&mcpAddr, "mcp-addr", config.McpListenAddr, "mcp server listen address")
	flag.Parse()

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//init job service and job store
	serviceConfig := job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
		JobStore:          store.InitInMemoryJobStore(),
	}
	logger.Info("Starting job service")
	jobService := job.InitJobService(serviceConfig)

	//indexing backends
	memoryClient := memstore.NewClient(config.MemstoreAPIURL(), config.MemstoreAPIKey())
	searchClient := searchidx.NewClient(config.SearchIndexAPIURL(), config.SearchIndexAPIKey())

	var vectorClient indexing.VectorClient
	useQdrant := config.UseQdrantDev()
	if useQdrant {
		embedder, err := googleEmbedding.NewGoogleEmbedder(serviceContext, config.GoogleEmbeddingModel, config.GoogleEmbeddingAPIKey())
		if err != nil {
			logger.Error("Embedding client failed to initialize, vector backend disabled", "error", err)
		} else if qdrantStore, err := qdrantDB.NewStore(serviceContext, embedder); err != nil {
			logger.Error("Qdrant failed to initialize, vector backend disabled", "error", err)
		} else {
			vectorClient = qdrantStore
		}
	}

	orchestrator := indexing.NewOrchestrator(memoryClient, searchClient, vectorClient, useQdrant)
	harvestService := harvest.NewService(fetch.NewClient(), orchestrator, jobService.JobStore)

	//init worker pool
	worker.InitServices(jobService, harvestService)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//http surface
	handler := handlers.NewHandler(jobService, searchClient)
	limiter := ratelimit.NewRateLimiter(ratelimit.Config{
		TokensPerSecond: config.RateLimitTokensPerSecond,
		BucketSize:      config.RateLimitBucketSize,
	})
	mw := middleware.NewMiddleware(limiter)

	//mcp surface shares the job service and backend clients
	if config.McpEnabled() {
		mcpServer := mcpserver.NewServer(jobService, searchClient, memoryClient)
		go func() {
			if err := mcpServer.RunHTTP(serviceContext, mcpAddr); err != nil {
				logger.Error("MCP server stopped", "error", err)
			}
		}()
	}

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr, handler, mw)

	<-stopExecution
	logger.Info("Server stopped")
}
