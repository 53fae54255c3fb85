// Package server exposes the support agent over HTTP and websockets.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/raphaelgruber/paydesk/internal/agent"
	"github.com/raphaelgruber/paydesk/internal/metrics"
	"github.com/raphaelgruber/paydesk/internal/models"
)

// requestTimeout bounds a single HTTP request, generation included.
const requestTimeout = 60 * time.Second

// ChatService is what the server needs from the agent layer.
type ChatService interface {
	HandleMessage(ctx context.Context, conversationID, message string) (agent.Reply, error)
	History(ctx context.Context, conversationID string) ([]models.HistoryEntry, error)
	Reset(ctx context.Context, conversationID string) error
	Search(ctx context.Context, conversationID, query string, limit int) ([]models.ScoredMessage, error)
}

// Options configures a Server.
type Options struct {
	Chat     ChatService
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
	Backend  string
	Logger   *slog.Logger
}

// Server routes HTTP requests to the chat service.
type Server struct {
	chat     ChatService
	metrics  *metrics.Collector
	gatherer prometheus.Gatherer
	backend  string
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// New creates a server. A nil Gatherer serves the default Prometheus registry.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		chat:     opts.Chat,
		metrics:  opts.Metrics,
		gatherer: gatherer,
		backend:  opts.Backend,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for local dev
			},
		},
	}
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(LoggingMiddleware(s.logger))

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Get("/stats", s.handleStats)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get("/ws", s.handleWS)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Post("/message", s.handleMessage)
		r.Get("/conversation/{id}", s.handleGetConversation)
		r.Delete("/conversation/{id}", s.handleResetConversation)
		r.Get("/conversation/{id}/search", s.handleSearch)
	})

	return r
}

// HTTPServer wraps Router in an http.Server with the timeouts used in production.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}
}
