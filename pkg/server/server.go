package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/m-mizutani/goerr/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/foodifind/foodifind/pkg/agent"
)

// TileSources are the externally hosted map tile providers the UI can
// toggle between. The server only hands the URLs to the client; tile
// display is entirely a frontend concern.
type TileSources struct {
	Default   string `json:"default" yaml:"default"`
	Satellite string `json:"satellite" yaml:"satellite"`
}

func DefaultTileSources() TileSources {
	return TileSources{
		Default:   "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png",
		Satellite: "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
	}
}

// Server is the HTTP API around one agent pipeline
type Server struct {
	server *http.Server
	router *chi.Mux
}

func New(addr string, pipeline *agent.Pipeline, tiles TileSources) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Demo service: CORS is wide open on purpose
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	h := &handler{
		pipeline: pipeline,
		tiles:    tiles,
	}

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", h.health)
		r.Get("/config", h.config)
		r.Post("/discover", h.discover)
		r.Post("/refresh", h.refresh)
		r.Get("/logs", h.logs)
		r.Get("/state", h.state)
	})
	router.Get("/ws/logs", logStreamHandler(pipeline.Log()))
	router.Handle("/metrics", promhttp.Handler())

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: router,
		},
		router: router,
	}
}

// Router exposes the mux for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start serves until the context is canceled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return goerr.Wrap(err, "failed to shut down server")
		}
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return goerr.Wrap(err, "server failed")
		}
		return nil
	}
}
