package logging

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// CleanupScheduler applies the retention policy on an interval.
type CleanupScheduler struct {
	cleaner  *Cleaner
	interval time.Duration
	logger   *zap.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewCleanupScheduler returns a stopped scheduler. A nil logger discards
// its output.
func NewCleanupScheduler(cleaner *Cleaner, interval time.Duration, logger *zap.Logger) *CleanupScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CleanupScheduler{
		cleaner:  cleaner,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start cleans up right away and then once per interval.
func (s *CleanupScheduler) Start() {
	s.startOnce.Do(func() {
		go s.loop()
	})
}

func (s *CleanupScheduler) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.cleanup()
		select {
		case <-ticker.C:
		case <-s.stop:
			return
		}
	}
}

func (s *CleanupScheduler) cleanup() {
	deleted, err := s.cleaner.Cleanup()
	switch {
	case err != nil:
		s.logger.Warn("log cleanup failed", zap.Error(err))
	case deleted > 0:
		s.logger.Info("cleaned up old run logs", zap.Int("deleted", deleted))
	}
}

// Stop ends the schedule and waits for a cleanup in progress. It is safe to
// call more than once, and before Start.
func (s *CleanupScheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		// Claim the start so a later Start cannot launch the loop.
		started := true
		s.startOnce.Do(func() { started = false })
		if started {
			<-s.done
		}
	})
}
