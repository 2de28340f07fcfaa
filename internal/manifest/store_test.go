package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func fixedClock(times ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := times[i]
		if i < len(times)-1 {
			i++
		}
		return t
	}
}

func TestFlushRoundTrip(t *testing.T) {
	start := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	end := start.Add(5 * time.Minute)
	s := newStoreWithClock(fixedClock(start, end))

	const n = 4
	for i := 0; i < n; i++ {
		s.Append(Entry{
			Filename:  fmt.Sprintf("00%d_image_shot_v1.jpeg", i),
			Prompt:    fmt.Sprintf("prompt number %d, with full text kept", i),
			Timestamp: start.Format(time.RFC3339),
			AssetType: "image",
			AssetID:   fmt.Sprintf("%d.1", i),
		})
	}

	path := filepath.Join(t.TempDir(), Filename)
	if err := s.Flush(path); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.TotalAssets != n {
		t.Errorf("TotalAssets = %d, want %d", doc.TotalAssets, n)
	}
	if len(doc.Assets) != n {
		t.Fatalf("len(Assets) = %d, want %d", len(doc.Assets), n)
	}
	for i, e := range doc.Assets {
		wantFile := fmt.Sprintf("00%d_image_shot_v1.jpeg", i)
		wantPrompt := fmt.Sprintf("prompt number %d, with full text kept", i)
		if e.Filename != wantFile || e.Prompt != wantPrompt {
			t.Errorf("Assets[%d] = (%q, %q), want (%q, %q)", i, e.Filename, e.Prompt, wantFile, wantPrompt)
		}
	}
	if doc.GenerationTimestamp != start.Format(time.RFC3339) {
		t.Errorf("GenerationTimestamp = %q, want %q", doc.GenerationTimestamp, start.Format(time.RFC3339))
	}
	if doc.CompletionTimestamp != end.Format(time.RFC3339) {
		t.Errorf("CompletionTimestamp = %q, want %q", doc.CompletionTimestamp, end.Format(time.RFC3339))
	}
}

func TestFlushOverwritesPreviousManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), Filename)
	if err := os.WriteFile(path, []byte(`{"total_assets": 99, "assets": []}`), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewStore()
	s.Append(Entry{Filename: "001_image_a_v1.jpeg", Prompt: "a"})
	if err := s.Flush(path); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.TotalAssets != 1 {
		t.Errorf("TotalAssets = %d, want 1", doc.TotalAssets)
	}
}

func TestEmptyFlushWritesEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), Filename)
	if err := NewStore().Flush(path); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.Assets == nil || len(doc.Assets) != 0 {
		t.Errorf("Assets = %v, want empty non-null array", doc.Assets)
	}
}

func TestAppendFillsTimestamp(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := newStoreWithClock(fixedClock(now))
	s.Append(Entry{Filename: "x"})
	if got := s.Entries()[0].Timestamp; got != "2026-01-02T03:04:05Z" {
		t.Errorf("Timestamp = %q, want %q", got, "2026-01-02T03:04:05Z")
	}
}

func TestConcurrentAppend(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Append(Entry{Filename: fmt.Sprintf("%03d", i)})
		}(i)
	}
	wg.Wait()
	if s.Len() != 50 {
		t.Errorf("Len() = %d, want 50", s.Len())
	}
}
