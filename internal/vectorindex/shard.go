// Package vectorindex implements the in-memory, brute-force cosine-
// similarity index: one shard per project, scored in parallel across a
// worker pool and merged through a bounded top-K heap. This is
// deliberately not an approximate index (no HNSW/IVF) per the system's
// non-goals; it trades O(n) scan cost for exact results, which is
// acceptable at the tens-of-thousands-of-chunks scale this system
// targets.
package vectorindex

import (
	"fmt"
	"sync"

	"github.com/doozMen/codesearch-mcp/internal/errs"
)

// Metadata is the subset of chunk fields needed to render a search
// result without reopening the source file.
type Metadata struct {
	ProjectName string
	FilePath    string
	Language    string
	StartLine   int
	EndLine     int
	Content     string
	ChunkType   string
}

type entry struct {
	ChunkID   string
	Embedding []float32
	Metadata  Metadata
}

// shard holds one project's entries. All mutation is serialized by the
// shard's own lock; reads take a snapshot copy of the entries under
// that same lock so concurrent searches never observe a torn
// (chunk-id, embedding) pair during a concurrent upsert.
type shard struct {
	mu      sync.RWMutex
	width   int // embedding length declared by this shard's first insert; 0 = unset
	byID    map[string]int
	entries []entry
}

func newShard() *shard {
	return &shard{byID: make(map[string]int)}
}

// upsert inserts or replaces the entry for chunkID. Idempotent: calling
// it twice with the same arguments leaves the shard in the same state.
// The shard declares its width from the first embedding it accepts;
// every later insert must match that width or is rejected.
func (s *shard) upsert(chunkID string, embedding []float32, meta Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width == 0 {
		s.width = len(embedding)
	} else if len(embedding) != s.width {
		return errs.New(errs.KindInvalidInput, fmt.Sprintf(
			"embedding dimension mismatch: shard width %d, got %d", s.width, len(embedding)))
	}
	v := make([]float32, len(embedding))
	copy(v, embedding)
	if idx, ok := s.byID[chunkID]; ok {
		s.entries[idx] = entry{ChunkID: chunkID, Embedding: v, Metadata: meta}
		return nil
	}
	s.byID[chunkID] = len(s.entries)
	s.entries = append(s.entries, entry{ChunkID: chunkID, Embedding: v, Metadata: meta})
	return nil
}

// snapshot returns a shallow copy of the current entries slice, safe to
// scan without holding the shard lock for the duration of the scan.
func (s *shard) snapshot() []entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *shard) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *shard) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[string]int)
	s.entries = nil
	s.width = 0
}
