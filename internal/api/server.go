// Package api serves format rendering over HTTP with Huma v2.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/smazurov/videoformat/internal/api/models"
	"github.com/smazurov/videoformat/internal/capabilities"
	"github.com/smazurov/videoformat/internal/logging"
	"github.com/smazurov/videoformat/internal/version"
)

// Server is the HTTP API server.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	catalog    *capabilities.Catalog
	logger     *slog.Logger
}

// Options configure the server.
type Options struct {
	Catalog           *capabilities.Catalog
	PrometheusHandler http.Handler // Optional Prometheus metrics handler
}

// NewServer creates the API on a standard library mux.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	config := huma.DefaultConfig("videoformat API", version.Version)
	config.Info.Description = "Validates ffmpeg format profiles and synthesizes their command arguments"
	// Empty servers list will make OpenAPI use relative paths, working with any host
	config.Servers = []*huma.Server{}

	// Registered before the API routes so huma never sees it
	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	s := newServer(humago.New(mux, config), opts)
	s.mux = mux
	return s
}

func newServer(api huma.API, opts *Options) *Server {
	s := &Server{
		api:     api,
		catalog: opts.Catalog,
		logger:  logging.GetLogger("api"),
	}
	api.UseMiddleware(HTTPLoggingMiddleware)
	s.registerRoutes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting API server", "addr", addr)
		s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Stopping API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"health"},
	}, func(_ context.Context, _ *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
	}, func(_ context.Context, _ *struct{}) (*models.VersionResponse, error) {
		return &models.VersionResponse{Body: models.VersionData{Version: version.String()}}, nil
	})

	s.registerFormatRoutes()
}
