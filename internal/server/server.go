package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/drewdunne/updatesbot/internal/bot"
	"github.com/drewdunne/updatesbot/internal/config"
	"github.com/drewdunne/updatesbot/internal/metrics"
	"github.com/drewdunne/updatesbot/internal/webhook"
)

// ErrRunInProgress is returned when a run is requested while another one
// is still going.
var ErrRunInProgress = errors.New("a run is already in progress")

// Runner performs one bot invocation.
type Runner interface {
	Run(ctx context.Context) (*bot.Report, error)
}

// HealthResponse represents the health check response structure.
type HealthResponse struct {
	Status string                 `json:"status"`
	Checks map[string]interface{} `json:"checks"`
}

// Server exposes health, metrics, a manual run trigger and tag push
// webhooks, and runs the bot on an interval.
type Server struct {
	cfg          *config.Config
	runner       Runner
	logger       *zap.Logger
	mux          *http.ServeMux
	ready        chan struct{} // closed when server is ready to accept connections
	httpServerMu sync.RWMutex  // guards httpServer and listener
	httpServer   *http.Server
	listener     net.Listener

	// runMu is held for the duration of a run.
	runMu   sync.Mutex
	running atomic.Bool

	debouncer  *webhook.Debouncer
	background sync.WaitGroup // runs started by webhooks

	statusMu   sync.RWMutex
	lastReport *bot.Report
	lastRunAt  time.Time
	lastErr    error
}

// New creates a new Server with the given config.
func New(cfg *config.Config, runner Runner, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:    cfg,
		runner: runner,
		logger: logger,
		mux:    http.NewServeMux(),
		ready:  make(chan struct{}),

		debouncer: webhook.NewDebouncer(cfg.WebhookDebounce()),
	}
	s.routes()
	return s
}

// Ready returns a channel that is closed when the server is ready to accept connections.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// routes sets up the HTTP routes.
func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/metrics", s.handleMetrics)
	s.mux.HandleFunc("/run", s.handleRun)

	if secret := s.cfg.Source.GitHub.WebhookSecret; secret != "" {
		s.mux.Handle("/webhook/github", webhook.NewGitHubHandler(secret, s.handleTagPush))
	}
	if secret := s.cfg.Source.GitLab.WebhookSecret; secret != "" {
		s.mux.Handle("/webhook/gitlab", webhook.NewGitLabHandler(secret, s.handleTagPush))
	}
}

// TriggerRun runs the bot unless a run is already in progress.
func (s *Server) TriggerRun(ctx context.Context) (*bot.Report, error) {
	if !s.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.runMu.Unlock()
	s.running.Store(true)
	defer s.running.Store(false)

	started := time.Now()
	report, err := s.runner.Run(ctx)

	s.statusMu.Lock()
	s.lastReport = report
	s.lastRunAt = started
	s.lastErr = err
	s.statusMu.Unlock()

	return report, err
}

// runAndLog triggers a run and logs how it ended.
func (s *Server) runAndLog(ctx context.Context, trigger string) {
	logger := s.logger.With(zap.String("trigger", trigger))
	report, err := s.TriggerRun(ctx)
	switch {
	case errors.Is(err, ErrRunInProgress):
		logger.Info("skipping run, another run is in progress")
	case err != nil:
		// The run reported the failure itself.
		logger.Warn("run failed", zap.Error(err))
	default:
		logger.Info("run finished", zap.String("run_id", report.RunID))
	}
}

// handleTagPush starts a background run for a tag pushed to a watched
// repository. Pushes within the debounce window of an earlier one for the
// same repository are dropped.
func (s *Server) handleTagPush(push webhook.TagPush) error {
	metrics.TagPushReceived()
	logger := s.logger.With(
		zap.String("host", push.Host),
		zap.String("repo", push.Repo),
		zap.String("tag", push.Tag))

	if !s.cfg.WatchesRepo(push.Host, push.Repo) {
		logger.Debug("ignoring tag push for unwatched repository")
		return nil
	}
	if !s.debouncer.Allow(push) {
		logger.Debug("tag push coalesced with a recent one")
		return nil
	}

	logger.Info("tag pushed, starting run")
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		s.runAndLog(context.Background(), "tag push")
	}()
	return nil
}

// handleHealth responds with server health status. A failed last run
// degrades the status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.statusMu.RLock()
	checks := map[string]interface{}{
		"running":  s.running.Load(),
		"last_run": nil,
	}
	if !s.lastRunAt.IsZero() {
		checks["last_run"] = s.lastRunAt.UTC().Format(time.RFC3339)
	}
	if s.lastReport != nil {
		checks["last_run_id"] = s.lastReport.RunID
	}
	status := "ok"
	if s.lastErr != nil {
		status = "degraded"
		checks["last_error"] = s.lastErr.Error()
	}
	s.statusMu.RUnlock()

	writeJSON(w, http.StatusOK, HealthResponse{Status: status, Checks: checks})
}

// handleRun runs the bot once and responds with its report.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	metrics.RunTriggered()
	s.logger.Info("run triggered manually", zap.String("remote_addr", r.RemoteAddr))

	// The run outlives the request; a post must always reach the state.
	report, err := s.TriggerRun(context.WithoutCancel(r.Context()))
	switch {
	case errors.Is(err, ErrRunInProgress):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case err != nil && report == nil:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, report)
	default:
		writeJSON(w, http.StatusOK, report)
	}
}

// handleMetrics responds with current operational metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metrics.Get())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
