package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCleanupScheduler_StartStop(t *testing.T) {
	scheduler := NewCleanupScheduler(NewCleaner(t.TempDir(), 30), 100*time.Millisecond, nil)

	scheduler.Start()
	time.Sleep(10 * time.Millisecond)

	scheduler.Stop()
	// A second Stop must not panic.
	scheduler.Stop()
}

func TestCleanupScheduler_CleanupCalled(t *testing.T) {
	baseDir := t.TempDir()
	oldFile := filepath.Join(baseDir, "2020", "01", "old.log")
	writeAged(t, oldFile, 60*day)

	sink := NewSink()
	scheduler := NewCleanupScheduler(NewCleaner(baseDir, 30), 50*time.Millisecond, NewSinkLogger(sink))
	scheduler.Start()
	time.Sleep(100 * time.Millisecond)
	scheduler.Stop()

	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Error("old log should have been deleted by scheduled cleanup")
	}
	if !strings.Contains(sink.String(), "cleaned up old run logs") {
		t.Errorf("expected cleanup to be logged, got %q", sink.String())
	}
}

func TestCleanupScheduler_RunsEachInterval(t *testing.T) {
	baseDir := t.TempDir()
	scheduler := NewCleanupScheduler(NewCleaner(baseDir, 30), 20*time.Millisecond, nil)
	scheduler.Start()
	defer scheduler.Stop()

	// A file created after the initial run is removed by a later tick.
	time.Sleep(10 * time.Millisecond)
	late := filepath.Join(baseDir, "2020", "01", "late.log")
	writeAged(t, late, 60*day)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(late); os.IsNotExist(err) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("late log was not cleaned up by a subsequent tick")
}

func TestCleanupScheduler_StopBeforeStart(t *testing.T) {
	scheduler := NewCleanupScheduler(NewCleaner(t.TempDir(), 30), time.Hour, nil)

	done := make(chan struct{})
	go func() {
		scheduler.Stop()
		scheduler.Start()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop before Start blocked")
	}
}
