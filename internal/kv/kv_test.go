package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/drewdunne/updatesbot/internal/config"
)

// exerciseStore runs the behavior every backend shares.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	got, err := s.Get(ctx, "missing")
	if err != nil {
		t.Fatalf("Get(missing) error = %v", err)
	}
	if got != nil {
		t.Errorf("Get(missing) = %q, want nil", got)
	}

	if err := s.Set(ctx, "state", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Set(ctx, "other", []byte(`{"b":2}`)); err != nil {
		t.Fatalf("Set(other) error = %v", err)
	}
	if err := s.Set(ctx, "state", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}

	got, err = s.Get(ctx, "state")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != `{"a":2}` {
		t.Errorf("Get() = %q, want %q", got, `{"a":2}`)
	}

	got, err = s.Get(ctx, "other")
	if err != nil {
		t.Fatalf("Get(other) error = %v", err)
	}
	if string(got) != `{"b":2}` {
		t.Errorf("Get(other) = %q, want %q", got, `{"b":2}`)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	exerciseStore(t, s)
	if s.Writes != 3 {
		t.Errorf("Writes = %d, want 3", s.Writes)
	}
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	value := []byte(`"x"`)
	if err := s.Set(ctx, "k", value); err != nil {
		t.Fatal(err)
	}
	value[1] = 'y'
	got, _ := s.Get(ctx, "k")
	if string(got) != `"x"` {
		t.Errorf("Get() = %q, stored value was aliased", got)
	}
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	exerciseStore(t, NewFileStore(path))

	// A new store over the same file sees the data.
	got, err := NewFileStore(path).Get(context.Background(), "state")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != `{"a":2}` {
		t.Errorf("Get() after reopen = %q", got)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want only the state file", len(entries))
	}
}

func TestFileStore_RejectsInvalidJSON(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	if err := s.Set(context.Background(), "state", []byte("{")); err == nil {
		t.Error("Set() with invalid JSON expected error, got nil")
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path).Get(context.Background(), "state"); err == nil {
		t.Error("Get() on corrupt file expected error, got nil")
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	s, err := OpenPostgres(context.Background(), dsn)
	if err != nil {
		t.Fatalf("OpenPostgres() error = %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		cfg     config.StateConfig
		wantErr bool
	}{
		{config.StateConfig{Backend: "memory"}, false},
		{config.StateConfig{Backend: "file", Path: filepath.Join(dir, "state.json")}, false},
		{config.StateConfig{Backend: "sqlite", Path: filepath.Join(dir, "state.db")}, false},
		{config.StateConfig{Backend: "redis"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.cfg.Backend, func(t *testing.T) {
			s, err := Open(ctx, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if s != nil {
				s.Close()
			}
		})
	}
}
