// Package server exposes the recognizer over HTTP: JSON resources for the
// stored dictionary, log, bindings and settings, a WebSocket endpoint that
// turns landmark frames into recognizer events, and an MJPEG camera preview.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
)

// EventSink receives every event of every stream session.
type EventSink interface {
	Handle(session string, ev gesture.Event)
}

// Config holds the server configuration. Only Dictionary and Recognition
// are required; the other collaborators switch routes on when set.
type Config struct {
	Dictionary  gesture.Dictionary
	Recognition gesture.Config
	Store       *store.Store
	Plugins     *plugin.Manager
	Sink        EventSink
	Camera      capture.Camera
	StaticDir   string
	Logger      *slog.Logger
}

// Server is the HTTP front end.
type Server struct {
	config Config
	router chi.Router
	logger *slog.Logger
	start  time.Time
}

// New creates a Server and registers its routes.
func New(config Config) *Server {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	s := &Server{
		config: config,
		router: chi.NewRouter(),
		logger: config.Logger,
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/api/health", s.handleHealth)
	r.Handle("/api/predict", api.NewPredictHandler(s.config.Dictionary))
	r.Handle("/api/stream", NewStreamHandler(s.config.Dictionary, s.config.Recognition, s.config.Sink, s.logger))

	if s.config.Store != nil {
		r.Mount("/api/signs", api.NewSignHandler(s.config.Store))
		r.Mount("/api/recognitions", api.NewRecognitionHandler(s.config.Store))
		r.Mount("/api/actions", api.NewActionHandler(s.config.Store, s.config.Plugins))
		r.Mount("/api/settings", api.NewSettingHandler(s.config.Store))
	}

	if s.config.Camera != nil {
		r.Handle("/api/preview", NewPreviewHandler(s.config.Camera, s.logger))
	}

	if s.config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).Round(time.Second).String(),
		"signs":  len(s.config.Dictionary),
	}
	if s.config.Store != nil {
		if err := s.config.Store.Ping(r.Context()); err != nil {
			response["status"] = "degraded"
			response["store"] = err.Error()
		}
	}
	writeJSON(w, http.StatusOK, response)
}

// logRequests logs one line per request. WebSocket and preview streams
// are logged when they end.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
