package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFile_NotCreatedWithoutWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.jsonl")
	f := NewFile(path)
	if err := f.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Stat() error = %v, want not exist", err)
	}
}

func TestFile_AppendsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.jsonl")
	if err := os.WriteFile(path, []byte("earlier\n"), 0644); err != nil {
		t.Fatal(err)
	}

	f := NewFile(path)
	sink := NewSink(f)
	sink.New(Namespace).Count("AssetsGenerated").Flush()
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("file has %d lines, want 2: %q", len(lines), data)
	}
	if lines[0] != "earlier" {
		t.Errorf("line[0] = %q, want earlier", lines[0])
	}
}
