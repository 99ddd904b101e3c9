package seen

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	s := LoadFile(path, zap.NewNop())
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d", s.Len())
	}
	for _, id := range []string{"us2", "us1", "us2"} {
		if err := s.Add(id); err != nil {
			t.Fatal(err)
		}
	}

	reloaded := LoadFile(path, zap.NewNop())
	for _, id := range []string{"us1", "us2"} {
		if !reloaded.Contains(id) {
			t.Fatalf("reloaded store missing %s", id)
		}
	}
	if reloaded.Len() != 2 {
		t.Fatalf("expected 2 ids, got %d", reloaded.Len())
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		t.Fatalf("file is not a JSON array: %v", err)
	}
	if len(ids) != 2 || ids[0] != "us1" || ids[1] != "us2" {
		t.Fatalf("unexpected file contents %v", ids)
	}
}

func TestFileMissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	missing := LoadFile(filepath.Join(dir, "nope.json"), logger)
	if missing.Len() != 0 {
		t.Fatal("missing file should load empty")
	}

	corrupt := filepath.Join(dir, "corrupt.json")
	if err := os.WriteFile(corrupt, []byte(`{"us1": true`), 0o644); err != nil {
		t.Fatal(err)
	}
	s := LoadFile(corrupt, logger)
	if s.Len() != 0 {
		t.Fatal("corrupt file should load empty")
	}
	if logs.FilterLevelExact(zapcore.WarnLevel).Len() != 1 {
		t.Fatalf("expected one warning for the corrupt file, got %d", logs.FilterLevelExact(zapcore.WarnLevel).Len())
	}

	// The next Add replaces the corrupt content.
	if err := s.Add("us9"); err != nil {
		t.Fatal(err)
	}
	if !LoadFile(corrupt, zap.NewNop()).Contains("us9") {
		t.Fatal("rewrite after corrupt load failed")
	}
}

func TestFileWriteFailureKeepsMemory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone", "seen.json")
	s := LoadFile(path, zap.NewNop())
	if err := s.Add("us1"); err == nil {
		t.Fatal("expected write error for missing directory")
	}
	if !s.Contains("us1") {
		t.Fatal("in-memory addition must survive a failed write")
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.db")
	s := OpenSQLite(path, zap.NewNop())
	if err := s.Add("us1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Add("us1"); err != nil {
		t.Fatalf("duplicate add should be ignored: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened := OpenSQLite(path, zap.NewNop())
	t.Cleanup(func() { reopened.Close() })
	if !reopened.Contains("us1") || reopened.Len() != 1 {
		t.Fatalf("reopened store: contains=%v len=%d", reopened.Contains("us1"), reopened.Len())
	}
}

func TestSQLiteImportFile(t *testing.T) {
	dir := t.TempDir()
	legacy := filepath.Join(dir, "seen.json")
	if err := os.WriteFile(legacy, []byte(`["us1","us2"]`), 0o644); err != nil {
		t.Fatal(err)
	}
	s := OpenSQLite(filepath.Join(dir, "seen.db"), zap.NewNop())
	t.Cleanup(func() { s.Close() })
	if err := s.Add("us2"); err != nil {
		t.Fatal(err)
	}

	n, err := s.ImportFile(context.Background(), legacy)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 new id imported, got %d", n)
	}
	if !s.Contains("us1") || s.Len() != 2 {
		t.Fatalf("after import: len=%d", s.Len())
	}

	n, err = s.ImportFile(context.Background(), filepath.Join(dir, "absent.json"))
	if err != nil || n != 0 {
		t.Fatalf("missing legacy file: n=%d err=%v", n, err)
	}
}

func TestSQLiteUnusableFallsBackToMemory(t *testing.T) {
	s := OpenSQLite(filepath.Join(t.TempDir(), "missing", "seen.db"), zap.NewNop())
	if err := s.Add("us1"); err == nil {
		t.Fatal("expected persistence error")
	}
	if !s.Contains("us1") {
		t.Fatal("in-memory addition must survive")
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
