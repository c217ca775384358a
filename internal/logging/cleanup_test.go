package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeAged(t *testing.T, path string, age time.Duration) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("log"), 0644); err != nil {
		t.Fatal(err)
	}
	mtime := time.Now().Add(-age)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

const day = 24 * time.Hour

func TestCleanup_OldRunLogs(t *testing.T) {
	baseDir := t.TempDir()

	oldFile := filepath.Join(baseDir, "2020", "01", "2020-01-01T00-00-00-run1.log")
	writeAged(t, oldFile, 60*day)
	recentFile := filepath.Join(baseDir, "2026", "10", "2026-10-18T00-00-00-run2.log")
	writeAged(t, recentFile, time.Hour)

	deleted, err := NewCleaner(baseDir, 30).Cleanup()
	if err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Error("old log should be deleted")
	}
	if _, err := os.Stat(recentFile); err != nil {
		t.Error("recent log should still exist")
	}
}

func TestCleanup_RemovesEmptyMonthAndYear(t *testing.T) {
	baseDir := t.TempDir()
	writeAged(t, filepath.Join(baseDir, "2020", "01", "a.log"), 60*day)
	writeAged(t, filepath.Join(baseDir, "2020", "02", "b.log"), 60*day)

	if _, err := NewCleaner(baseDir, 30).Cleanup(); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(baseDir, "2020")); !os.IsNotExist(err) {
		t.Error("emptied year directory should be deleted")
	}
	if _, err := os.Stat(baseDir); err != nil {
		t.Error("base directory should be kept")
	}
}

func TestCleanup_IgnoresOtherFiles(t *testing.T) {
	baseDir := t.TempDir()
	other := filepath.Join(baseDir, "state.json")
	writeAged(t, other, 60*day)

	deleted, err := NewCleaner(baseDir, 30).Cleanup()
	if err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0", deleted)
	}
	if _, err := os.Stat(other); err != nil {
		t.Error("non-log file should be kept")
	}
}

func TestCleanup_NonexistentBaseDir(t *testing.T) {
	deleted, err := NewCleaner("/nonexistent/path", 30).Cleanup()
	if err != nil {
		t.Fatalf("Cleanup() error = %v, want nil", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0", deleted)
	}
}

func TestCleaner_RetentionDays(t *testing.T) {
	tests := []struct {
		retention int
		want      int
	}{
		{7, 1},
		{30, 0},
	}
	for _, tt := range tests {
		baseDir := t.TempDir()
		writeAged(t, filepath.Join(baseDir, "2026", "10", "run.log"), 10*day)

		deleted, err := NewCleaner(baseDir, tt.retention).Cleanup()
		if err != nil {
			t.Fatalf("Cleanup() error = %v", err)
		}
		if deleted != tt.want {
			t.Errorf("retention %d days: deleted = %d, want %d", tt.retention, deleted, tt.want)
		}
	}
}

func TestCleaner_InjectedClock(t *testing.T) {
	baseDir := t.TempDir()
	path := filepath.Join(baseDir, "run.log")
	writeAged(t, path, time.Hour)

	c := NewCleaner(baseDir, 1)
	c.now = func() time.Time { return time.Now().Add(3 * day) }
	deleted, err := c.Cleanup()
	if err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
}
