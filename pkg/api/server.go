package api

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/ludoengine/pkg/session"
)

// ServerConfig holds the server configuration.
type ServerConfig struct {
	Host           string        // Host to bind to (default "localhost")
	Port           int           // Port to listen on (default 8080)
	ReadTimeout    time.Duration // Read timeout (default 30s)
	WriteTimeout   time.Duration // Write timeout (default 30s)
	IdleTimeout    time.Duration // Idle timeout (default 60s)
	MaxFastWorkers int           // Max concurrent game operations (default 100)
	MaxSlowWorkers int           // Max concurrent store operations (default 4)
	DefaultPlayers int           // Players for games created without a count (default 4)
}

// DefaultConfig returns a ServerConfig with sensible defaults.
func DefaultConfig() ServerConfig {
	return ServerConfig{
		Host:           "localhost",
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxFastWorkers: 100,
		MaxSlowWorkers: 4,
		DefaultPlayers: 4,
	}
}

// Server is the HTTP API server.
type Server struct {
	config   ServerConfig
	games    *session.Manager
	handlers *Handlers
	server   *http.Server
	pool     *WorkerPool
	logger   *zap.Logger
	version  string
}

// NewServer creates a new API server. snapshots may be nil.
func NewServer(games *session.Manager, snapshots SnapshotLister, config ServerConfig, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	pool := NewWorkerPool(PoolConfig{
		MaxFastWorkers: config.MaxFastWorkers,
		MaxSlowWorkers: config.MaxSlowWorkers,
	})
	handlers := NewHandlers(games, HandlerOptions{
		Version:        version,
		Pool:           pool,
		Logger:         logger,
		Snapshots:      snapshots,
		DefaultPlayers: config.DefaultPlayers,
	})

	return &Server{
		config:   config,
		games:    games,
		handlers: handlers,
		pool:     pool,
		logger:   logger,
		version:  version,
	}
}

// Pool returns the worker pool for monitoring.
func (s *Server) Pool() *WorkerPool {
	return s.pool
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// corsMiddleware adds CORS headers for browser access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for logging. It passes
// flushing and hijacking through for SSE and WebSocket handlers.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijacking not supported")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// loggingMiddleware logs every request.
func loggingMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()
	h := s.handlers

	mux.HandleFunc("GET /api/health", h.Health)
	mux.HandleFunc("GET /api/snapshots", h.ListSnapshots)
	mux.HandleFunc("GET /api/games", h.ListGames)
	mux.HandleFunc("POST /api/games", h.CreateGame)
	mux.HandleFunc("DELETE /api/games/{id}", h.DeleteGame)

	// Game operations
	mux.HandleFunc("GET /api/games/{id}/current", h.fastGame(h.CurrentPlayer))
	mux.HandleFunc("POST /api/games/{id}/next", h.fastGame(h.NextTurn))
	mux.HandleFunc("POST /api/games/{id}/roll", h.fastGame(h.Roll))
	mux.HandleFunc("GET /api/games/{id}/board", h.fastGame(h.Board))
	mux.HandleFunc("POST /api/games/{id}/move", h.fastGame(h.Move))
	mux.HandleFunc("GET /api/games/{id}/winner", h.fastGame(h.Winner))
	mux.HandleFunc("POST /api/games/{id}/reset", h.fastGame(h.Reset))
	mux.HandleFunc("GET /api/games/{id}/players/{player}/can-move", h.fastGame(h.CanMove))
	mux.HandleFunc("GET /api/games/{id}/valid-moves", h.fastGame(h.ValidMoves))
	mux.HandleFunc("POST /api/games/{id}/save", h.fastGame(h.Save))
	mux.HandleFunc("POST /api/games/{id}/load", h.Load)
	mux.HandleFunc("POST /api/games/{id}/starting-player", h.fastGame(h.StartingPlayer))
	mux.HandleFunc("POST /api/games/{id}/roll-result", h.fastGame(h.RollResult))

	// Records and live updates
	mux.HandleFunc("GET /api/games/{id}/history", h.fastGame(h.History))
	mux.HandleFunc("GET /api/games/{id}/history.txt", h.fastGame(h.HistoryText))
	mux.HandleFunc("GET /api/games/{id}/dice-stats", h.fastGame(h.DiceStats))
	mux.HandleFunc("GET /api/games/{id}/events", h.game(h.Events))
	mux.HandleFunc("GET /api/games/{id}/ws", h.game(h.WebSocket))

	return corsMiddleware(loggingMiddleware(s.logger, mux))
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.setupRoutes(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	s.logger.Info("starting ludo API server",
		zap.String("version", s.version),
		zap.String("addr", addr),
		zap.Bool("persistence", s.games.Persistent()),
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server and ends live streams.
func (s *Server) Shutdown(ctx context.Context) error {
	s.games.Close()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// ListenAndServeWithGracefulShutdown starts the server and handles shutdown signals.
func (s *Server) ListenAndServeWithGracefulShutdown() error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		s.logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped gracefully")
	return nil
}
