package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/docharvest/gateway/cmd/api/docs"
	"github.com/docharvest/gateway/internal/config"
	"github.com/docharvest/gateway/internal/handlers"
	"github.com/docharvest/gateway/internal/middleware"
	"github.com/docharvest/gateway/pkg/logger_i"
)

var (
	server  *http.Server
	_logger *logger_i.Logger
)

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	WorkerStop       chan bool
	Group            *sync.WaitGroup
	CloseServices    context.CancelFunc
}

// NewRouter wires every endpoint. Split out from CreateServer so handler
// tests can run the real routing.
func NewRouter(handler *handlers.Handler, mw *middleware.Middleware) *chi.Mux {
	router := chi.NewRouter()

	router.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Handle("/metrics", promhttp.Handler())

	router.Get("/healthz", mw.Wrap(handler.Health))
	router.Post("/ingest", mw.Wrap(handler.PostIngest))
	router.Get("/status/{id}", mw.Wrap(handler.GetStatus))
	router.Get("/search", mw.Wrap(handler.Search))
	return router
}

func CreateServer(listenAddr string, handler *handlers.Handler, mw *middleware.Middleware) {
	_logger = logger_i.NewLogger("Server")

	server = &http.Server{
		Addr:         listenAddr,
		Handler:      NewRouter(handler, mw),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	_logger.Info("Server is listening at", "address", listenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_logger.Error("Server crashed", "error", err.Error(), "addr", listenAddr)
	}
}

func ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	_logger.Info("Server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		server.SetKeepAlivesEnabled(false)

		if err := server.Shutdown(ctx); err != nil {
			_logger.Error("Could not shutdown gracefully", "error", err)
		}

		//close workers
		close(shutdownParams.WorkerStop)
		shutdownParams.Group.Wait()
		shutdownParams.CloseServices()
		close(shutdownParams.StopExecution)
		close(done)
	}()

	select {
	case <-done:
		_logger.Info("Gracefully shut down")
	case <-ctx.Done():
		_logger.Info("Force shut down")
		os.Exit(1)
	}
}
