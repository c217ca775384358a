package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics tracks operational metrics.
type Metrics struct {
	RunsStarted      uint64 `json:"runs_started"`
	RunsSucceeded    uint64 `json:"runs_succeeded"`
	RunsFailed       uint64 `json:"runs_failed"`
	RunsTriggered    uint64 `json:"runs_triggered"`
	PostsCreated     uint64 `json:"posts_created"`
	PostsEnqueued    uint64 `json:"posts_enqueued"`
	PlatformsSkipped uint64 `json:"platforms_skipped"`
	TagPushes        uint64 `json:"tag_pushes"`
	LastSuccessUnix  int64  `json:"last_success_unix"`
}

var global = &Metrics{}

// RunStarted increments the count of runs started.
func RunStarted() { atomic.AddUint64(&global.RunsStarted, 1) }

// RunSucceeded increments the count of runs that finished without error
// and records when.
func RunSucceeded() {
	atomic.AddUint64(&global.RunsSucceeded, 1)
	atomic.StoreInt64(&global.LastSuccessUnix, time.Now().Unix())
}

// RunFailed increments the count of runs that ended with an error.
func RunFailed() { atomic.AddUint64(&global.RunsFailed, 1) }

// RunTriggered increments the count of manually triggered runs.
func RunTriggered() { atomic.AddUint64(&global.RunsTriggered, 1) }

// PostCreated increments the count of forum posts that went live.
func PostCreated() { atomic.AddUint64(&global.PostsCreated, 1) }

// PostEnqueued increments the count of forum posts held for approval.
func PostEnqueued() { atomic.AddUint64(&global.PostsEnqueued, 1) }

// PlatformSkipped increments the count of platform checks that ended
// without posting because a topic was missing or a post awaits approval.
func PlatformSkipped() { atomic.AddUint64(&global.PlatformsSkipped, 1) }

// TagPushReceived increments the count of verified tag push webhooks.
func TagPushReceived() { atomic.AddUint64(&global.TagPushes, 1) }

// Get returns a snapshot of the current metrics.
func Get() Metrics {
	return Metrics{
		RunsStarted:      atomic.LoadUint64(&global.RunsStarted),
		RunsSucceeded:    atomic.LoadUint64(&global.RunsSucceeded),
		RunsFailed:       atomic.LoadUint64(&global.RunsFailed),
		RunsTriggered:    atomic.LoadUint64(&global.RunsTriggered),
		PostsCreated:     atomic.LoadUint64(&global.PostsCreated),
		PostsEnqueued:    atomic.LoadUint64(&global.PostsEnqueued),
		PlatformsSkipped: atomic.LoadUint64(&global.PlatformsSkipped),
		TagPushes:        atomic.LoadUint64(&global.TagPushes),
		LastSuccessUnix:  atomic.LoadInt64(&global.LastSuccessUnix),
	}
}

// Reset resets all metrics to zero (useful for testing).
func Reset() {
	atomic.StoreUint64(&global.RunsStarted, 0)
	atomic.StoreUint64(&global.RunsSucceeded, 0)
	atomic.StoreUint64(&global.RunsFailed, 0)
	atomic.StoreUint64(&global.RunsTriggered, 0)
	atomic.StoreUint64(&global.PostsCreated, 0)
	atomic.StoreUint64(&global.PostsEnqueued, 0)
	atomic.StoreUint64(&global.PlatformsSkipped, 0)
	atomic.StoreUint64(&global.TagPushes, 0)
	atomic.StoreInt64(&global.LastSuccessUnix, 0)
}
