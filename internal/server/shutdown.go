package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// Shutdown stops accepting connections and waits for active requests until
// ctx ends. It is a no-op before the server has started.
func (s *Server) Shutdown(ctx context.Context) error {
	s.httpServerMu.RLock()
	hs := s.httpServer
	s.httpServerMu.RUnlock()

	if hs == nil {
		return nil
	}
	return hs.Shutdown(ctx)
}

// Addr returns the address the server listens on, or "" before it has
// started. With port 0 this is the port that was picked.
func (s *Server) Addr() string {
	s.httpServerMu.RLock()
	defer s.httpServerMu.RUnlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// ListenAndServeWithShutdown serves until Shutdown is called or the process
// receives SIGINT or SIGTERM. With a configured interval it also runs the
// scheduler, whose current run is canceled on the way out. Runs started by
// webhooks are waited for.
func (s *Server) ListenAndServeWithShutdown() error {
	addr := net.JoinHostPort(s.cfg.Server.Host, strconv.Itoa(s.cfg.Server.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	hs := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	s.httpServerMu.Lock()
	s.httpServer = hs
	s.listener = ln
	s.httpServerMu.Unlock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	served := make(chan error, 1)
	go func() {
		served <- hs.Serve(ln)
	}()
	s.logger.Info("server started", zap.String("addr", ln.Addr().String()))

	// Deferred before the scheduler's Stop so it runs after it.
	defer s.background.Wait()

	if interval := s.cfg.Interval(); interval > 0 {
		scheduler := s.StartScheduler(interval)
		defer scheduler.Stop()
		s.logger.Info("scheduler started", zap.Duration("interval", interval))
	}

	close(s.ready)

	select {
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		s.logger.Info("received signal, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("shutdown error", zap.Error(err))
		return err
	}
	<-served

	s.logger.Info("server shutdown complete")
	return nil
}
