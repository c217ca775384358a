package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RunEntry identifies one run's log file.
type RunEntry struct {
	RunID     string
	Timestamp time.Time
}

// Writer archives run logs organized by month.
type Writer struct {
	baseDir string
}

// NewWriter creates a new Writer with the specified base directory.
func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir}
}

// Path returns where the log for entry is stored:
// baseDir/YYYY/MM/timestamp-runID.log
func (w *Writer) Path(entry RunEntry) string {
	ts := entry.Timestamp.UTC()
	return filepath.Join(
		w.baseDir,
		ts.Format("2006"),
		ts.Format("01"),
		fmt.Sprintf("%s-%s.log", ts.Format("2006-01-02T15-04-05"), entry.RunID),
	)
}

// Write stores a run's log and returns its path.
func (w *Writer) Write(entry RunEntry, data []byte) (string, error) {
	path := w.Path(entry)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating log directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing log file: %w", err)
	}
	return path, nil
}

// Append adds data to an existing run log.
func (w *Writer) Append(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(data)
	return err
}
