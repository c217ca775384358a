package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestRunCounters(t *testing.T) {
	Reset()

	RunStarted()
	RunStarted()
	RunFailed()
	RunTriggered()
	m := Get()

	if m.RunsStarted != 2 {
		t.Errorf("expected RunsStarted=2, got %d", m.RunsStarted)
	}
	if m.RunsFailed != 1 {
		t.Errorf("expected RunsFailed=1, got %d", m.RunsFailed)
	}
	if m.RunsTriggered != 1 {
		t.Errorf("expected RunsTriggered=1, got %d", m.RunsTriggered)
	}
	if m.RunsSucceeded != 0 || m.LastSuccessUnix != 0 {
		t.Errorf("expected no successes, got %d at %d", m.RunsSucceeded, m.LastSuccessUnix)
	}
}

func TestRunSucceeded(t *testing.T) {
	Reset()

	before := time.Now().Unix()
	RunSucceeded()
	m := Get()

	if m.RunsSucceeded != 1 {
		t.Errorf("expected RunsSucceeded=1, got %d", m.RunsSucceeded)
	}
	if m.LastSuccessUnix < before {
		t.Errorf("expected LastSuccessUnix >= %d, got %d", before, m.LastSuccessUnix)
	}
}

func TestPostCounters(t *testing.T) {
	Reset()

	PostCreated()
	PostEnqueued()
	PostEnqueued()
	PlatformSkipped()
	TagPushReceived()
	m := Get()

	if m.PostsCreated != 1 {
		t.Errorf("expected PostsCreated=1, got %d", m.PostsCreated)
	}
	if m.PostsEnqueued != 2 {
		t.Errorf("expected PostsEnqueued=2, got %d", m.PostsEnqueued)
	}
	if m.PlatformsSkipped != 1 {
		t.Errorf("expected PlatformsSkipped=1, got %d", m.PlatformsSkipped)
	}
	if m.TagPushes != 1 {
		t.Errorf("expected TagPushes=1, got %d", m.TagPushes)
	}
}

func TestReset(t *testing.T) {
	RunStarted()
	RunSucceeded()
	RunFailed()
	RunTriggered()
	PostCreated()
	PostEnqueued()
	PlatformSkipped()
	TagPushReceived()

	Reset()
	if m := Get(); m != (Metrics{}) {
		t.Errorf("expected zero metrics after reset, got %+v", m)
	}
}

func TestConcurrentIncrements(t *testing.T) {
	Reset()

	var wg sync.WaitGroup
	iterations := 1000

	for i := 0; i < iterations; i++ {
		wg.Add(3)
		go func() {
			RunStarted()
			wg.Done()
		}()
		go func() {
			PostCreated()
			wg.Done()
		}()
		go func() {
			PlatformSkipped()
			wg.Done()
		}()
	}

	wg.Wait()
	m := Get()

	if m.RunsStarted != uint64(iterations) {
		t.Errorf("expected RunsStarted=%d, got %d", iterations, m.RunsStarted)
	}
	if m.PostsCreated != uint64(iterations) {
		t.Errorf("expected PostsCreated=%d, got %d", iterations, m.PostsCreated)
	}
	if m.PlatformsSkipped != uint64(iterations) {
		t.Errorf("expected PlatformsSkipped=%d, got %d", iterations, m.PlatformsSkipped)
	}
}

func TestGetReturnsSnapshot(t *testing.T) {
	Reset()

	PostCreated()
	snapshot := Get()
	PostCreated()

	if snapshot.PostsCreated != 1 {
		t.Errorf("snapshot changed: expected PostsCreated=1, got %d", snapshot.PostsCreated)
	}
	if Get().PostsCreated != 2 {
		t.Errorf("expected live PostsCreated=2, got %d", Get().PostsCreated)
	}
}
