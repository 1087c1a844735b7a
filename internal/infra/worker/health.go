package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"feedpress/internal/scheduler"
)

// StatusSource exposes the scheduler state served on /health/status.
type StatusSource interface {
	Tasks() []scheduler.TaskInfo
}

// HealthServer serves the daemon's probe endpoints:
//
//	GET /health        liveness, always 200
//	GET /health/ready  readiness, 200 once the daemon is wired, 503 before
//	GET /health/status scheduler task table snapshot
type HealthServer struct {
	addr   string
	logger *slog.Logger
	ready  atomic.Bool
	status StatusSource
	server *http.Server
}

type healthResponse struct {
	Status string `json:"status"`
}

type taskStatus struct {
	FeedID   int64  `json:"feed_id"`
	FeedName string `json:"feed_name"`
	Schedule string `json:"schedule"`
	NextFire string `json:"next_fire"`
}

// NewHealthServer creates the probe server. status may be nil, in which
// case /health/status serves an empty task list.
func NewHealthServer(addr string, status StatusSource, logger *slog.Logger) *HealthServer {
	return &HealthServer{addr: addr, status: status, logger: logger}
}

// Handler returns the probe endpoint mux.
func (h *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleLiveness)
	mux.HandleFunc("/health/ready", h.handleReadiness)
	mux.HandleFunc("/health/status", h.handleStatus)
	return mux
}

// Start serves until ctx is cancelled, then shuts down with a short
// deadline. It returns http.ErrServerClosed on a clean shutdown.
func (h *HealthServer) Start(ctx context.Context) error {
	h.server = &http.Server{
		Addr:         h.addr,
		Handler:      h.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("health server starting", slog.String("addr", h.addr))
		if err := h.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			h.logger.Error("health server shutdown failed", slog.Any("error", err))
			return err
		}
		h.logger.Info("health server stopped")
		return http.ErrServerClosed
	case err := <-errCh:
		if err != http.ErrServerClosed {
			h.logger.Error("health server failed", slog.Any("error", err))
		}
		return err
	}
}

// SetReady flips the readiness state served on /health/ready.
func (h *HealthServer) SetReady(ready bool) {
	h.ready.Store(ready)
	h.logger.Info("readiness changed", slog.Bool("ready", ready))
}

func (h *HealthServer) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (h *HealthServer) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	if h.ready.Load() {
		h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
		return
	}
	h.writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "not ready"})
}

func (h *HealthServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	tasks := []taskStatus{}
	if h.status != nil {
		for _, t := range h.status.Tasks() {
			tasks = append(tasks, taskStatus{
				FeedID:   t.FeedID,
				FeedName: t.FeedName,
				Schedule: t.Spec,
				NextFire: t.NextFire.UTC().Format(time.RFC3339),
			})
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (h *HealthServer) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode health response", slog.Any("error", err))
	}
}
