package server

import (
	"context"
	"sync"
	"time"
)

// Scheduler triggers runs on a fixed interval until stopped.
type Scheduler struct {
	server   *Server
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// StartScheduler runs the bot immediately and then every interval.
func (s *Server) StartScheduler(interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	sch := &Scheduler{
		server:   s,
		interval: interval,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go sch.loop(ctx)
	return sch
}

func (sch *Scheduler) loop(ctx context.Context) {
	defer close(sch.done)

	ticker := time.NewTicker(sch.interval)
	defer ticker.Stop()

	sch.server.runAndLog(ctx, "schedule")
	for {
		select {
		case <-ticker.C:
			sch.server.runAndLog(ctx, "schedule")
		case <-ctx.Done():
			return
		}
	}
}

// Stop cancels the current run, if any, and waits for the loop to exit.
func (sch *Scheduler) Stop() {
	sch.stopOnce.Do(func() {
		sch.cancel()
		<-sch.done
	})
}
