// Package manifest records every successfully produced asset together with
// the prompt that created it. Entries are appended during a run and written
// once, as a single JSON document, when the run completes.
package manifest

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/weekly-asset-pipeline/internal/fsutil"
)

// Filename is the default manifest name inside an output directory.
const Filename = "manifest.json"

// Entry is one produced asset. Failed and cost-skipped requests never get
// an Entry; they only appear in the run summary.
type Entry struct {
	Filename  string         `json:"filename"`
	Prompt    string         `json:"prompt"`
	Timestamp string         `json:"timestamp"`
	AssetType string         `json:"asset_type"`
	AssetID   string         `json:"asset_id"`
	ResultURL string         `json:"result_url,omitempty"`
	LocalPath string         `json:"local_path"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Document is the on-disk shape of manifest.json.
type Document struct {
	GenerationTimestamp string  `json:"generation_timestamp"`
	CompletionTimestamp string  `json:"completion_timestamp"`
	TotalAssets         int     `json:"total_assets"`
	Assets              []Entry `json:"assets"`
}

// Store is an ordered, append-only collection of entries. Append and Flush
// are guarded by a mutex so concurrent generators can share one Store.
type Store struct {
	mu        sync.Mutex
	now       func() time.Time
	createdAt time.Time
	entries   []Entry
}

// NewStore creates an empty Store stamped with the current time.
func NewStore() *Store {
	return newStoreWithClock(time.Now)
}

func newStoreWithClock(now func() time.Time) *Store {
	return &Store{
		now:       now,
		createdAt: now(),
	}
}

// Append adds an entry, preserving insertion order. A missing timestamp is
// filled with the current time.
func (s *Store) Append(entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.Timestamp == "" {
		entry.Timestamp = s.now().UTC().Format(time.RFC3339)
	}
	s.entries = append(s.entries, entry)
}

// Len returns the number of entries recorded so far.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Entries returns a copy of the recorded entries in insertion order.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Flush writes the manifest to path, replacing any file already there.
// Previous manifests are not merged.
func (s *Store) Flush(path string) error {
	s.mu.Lock()
	doc := Document{
		GenerationTimestamp: s.createdAt.UTC().Format(time.RFC3339),
		CompletionTimestamp: s.now().UTC().Format(time.RFC3339),
		TotalAssets:         len(s.entries),
		Assets:              make([]Entry, len(s.entries)),
	}
	copy(doc.Assets, s.entries)
	s.mu.Unlock()

	if err := fsutil.WriteJSON(path, doc); err != nil {
		return err
	}

	log.Info().
		Str("path", path).
		Int("total_assets", doc.TotalAssets).
		Msg("Manifest written")
	return nil
}

// Load reads a manifest document from path.
func Load(path string) (*Document, error) {
	var doc Document
	if err := fsutil.ReadJSON(path, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
