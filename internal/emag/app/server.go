// Package app wires the sync engine's HTTP surface: the sync trigger API,
// the prometheus exporter and a health probe.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"emagsync_api/internal/emag/app/web/handlers"
	"emagsync_api/internal/emag/syncer"
	"emagsync_api/metrics"
	"emagsync_api/pkg/logger"
	"emagsync_api/pkg/middleware"
)

type Server struct {
	addr   string
	router *mux.Router
	log    logger.Logger
}

func NewServer(addr string, orchestrator *syncer.Orchestrator, log logger.Logger) *Server {
	router := mux.NewRouter()
	router.Use(middleware.PrometheusMiddleware)

	syncHandler := handlers.NewSyncHandler(orchestrator, log)
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/sync", syncHandler.StartSync).Methods(http.MethodPost)
	api.HandleFunc("/sync", syncHandler.ListJobs).Methods(http.MethodGet)
	api.HandleFunc("/sync/{id}", syncHandler.GetSyncStatus).Methods(http.MethodGet)
	api.HandleFunc("/sync/{id}", syncHandler.CancelSync).Methods(http.MethodDelete)

	router.Handle("/metrics", metrics.MetricsHandler()).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	return &Server{
		addr:   addr,
		router: router,
		log:    log.WithPrefix("[http]"),
	}
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.addr)
		errChan <- server.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
