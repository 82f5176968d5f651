package vectorindex

import (
	"container/heap"
	"runtime"
	"sort"
	"sync"

	"github.com/doozMen/codesearch-mcp/internal/chunkstore"
	"github.com/doozMen/codesearch-mcp/internal/vectormath"
)

// Match is one scored result from Search or BatchSimilarity.
type Match struct {
	ChunkID    string
	Metadata   Metadata
	Similarity float32
}

// Index holds one shard per project.
type Index struct {
	mu     sync.RWMutex
	shards map[string]*shard
}

// New returns an empty Index.
func New() *Index {
	return &Index{shards: make(map[string]*shard)}
}

func (ix *Index) shardFor(project string) *shard {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	s, ok := ix.shards[project]
	if !ok {
		s = newShard()
		ix.shards[project] = s
	}
	return s
}

// Upsert inserts or replaces one entry in project's shard. Idempotent.
// Rejects an embedding whose length disagrees with the shard's declared
// width (the length of the first embedding ever inserted into it).
func (ix *Index) Upsert(project, chunkID string, embedding []float32, meta Metadata) error {
	return ix.shardFor(project).upsert(chunkID, embedding, meta)
}

// DropProject removes project's shard entirely (used by reindex/clear).
func (ix *Index) DropProject(project string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.shards, project)
}

// Clear removes every shard.
func (ix *Index) Clear() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.shards = make(map[string]*shard)
}

// Preload walks the chunk store and populates shards from persisted
// chunks; only chunks carrying an embedding are inserted.
func (ix *Index) Preload(store *chunkstore.Store) error {
	chunks, err := store.ListAllChunks()
	if err != nil {
		return err
	}
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			continue
		}
		if err := ix.Upsert(c.ProjectName, c.ID, c.Embedding, Metadata{
			ProjectName: c.ProjectName,
			FilePath:    c.FilePath,
			Language:    c.Language,
			StartLine:   c.StartLine,
			EndLine:     c.EndLine,
			Content:     c.Content,
			ChunkType:   string(c.ChunkType),
		}); err != nil {
			return err
		}
	}
	return nil
}

// PreloadProject populates only project's shard from the chunk store,
// used after a single-project reindex instead of a full Preload.
func (ix *Index) PreloadProject(store *chunkstore.Store, project string) error {
	chunks, err := store.ListProjectChunks(project)
	if err != nil {
		return err
	}
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			continue
		}
		if err := ix.Upsert(project, c.ID, c.Embedding, Metadata{
			ProjectName: c.ProjectName,
			FilePath:    c.FilePath,
			Language:    c.Language,
			StartLine:   c.StartLine,
			EndLine:     c.EndLine,
			Content:     c.Content,
			ChunkType:   string(c.ChunkType),
		}); err != nil {
			return err
		}
	}
	return nil
}

// topKHeap is a min-heap over Match.Similarity bounded to size K: the
// smallest-scoring element is always at the root, so pushing past
// capacity evicts the current worst match in O(log K).
type topKHeap struct {
	items []Match
}

func (h topKHeap) Len() int { return len(h.items) }
func (h topKHeap) Less(i, j int) bool {
	if h.items[i].Similarity != h.items[j].Similarity {
		return h.items[i].Similarity < h.items[j].Similarity
	}
	// Tie-break by chunk ID descending so that, among equal scores, the
	// larger chunk ID sits nearer the root and is evicted first.
	return h.items[i].ChunkID > h.items[j].ChunkID
}
func (h topKHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *topKHeap) Push(x any)   { h.items = append(h.items, x.(Match)) }
func (h *topKHeap) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

func (h *topKHeap) offer(m Match, k int) {
	if h.Len() < k {
		heap.Push(h, m)
		return
	}
	if h.Len() > 0 && m.Similarity > h.items[0].Similarity {
		heap.Pop(h)
		heap.Push(h, m)
	}
}

// sortedDescending copies the heap's contents into a slice ordered by
// descending similarity, ties broken by ascending chunk ID; the heap
// itself is left unchanged.
func (h *topKHeap) sortedDescending() []Match {
	out := make([]Match, len(h.items))
	copy(out, h.items)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].ChunkID < out[j].ChunkID
	})
	return out
}

// Search returns the topK highest-cosine-similarity entries for query,
// optionally restricted to one project. Candidates are scored across a
// worker pool sized to roughly twice the core count, each worker
// maintaining its own bounded heap, merged into one at the end.
func (ix *Index) Search(query []float32, topK int, project string) []Match {
	candidates := ix.collectEntries(project)
	if len(candidates) == 0 || topK <= 0 {
		return nil
	}

	workers := runtime.NumCPU() * 2
	if workers > len(candidates) {
		workers = len(candidates)
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (len(candidates) + workers - 1) / workers
	partials := make([]topKHeap, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		if start >= len(candidates) {
			break
		}
		end := start + chunkSize
		if end > len(candidates) {
			end = len(candidates)
		}
		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			var h topKHeap
			for _, e := range candidates[start:end] {
				sim := vectormath.Cosine(query, e.Embedding)
				h.offer(Match{ChunkID: e.ChunkID, Metadata: e.Metadata, Similarity: sim}, topK)
			}
			partials[w] = h
		}(w, start, end)
	}
	wg.Wait()

	var merged topKHeap
	for _, h := range partials {
		for _, m := range h.items {
			merged.offer(m, topK)
		}
	}
	return merged.sortedDescending()
}

// BatchSimilarity scores query against a specific set of chunk IDs,
// searching across all shards, and returns their similarities in the
// order the chunk IDs were given (missing IDs are omitted).
func (ix *Index) BatchSimilarity(query []float32, chunkIDs []string) []Match {
	want := make(map[string]bool, len(chunkIDs))
	for _, id := range chunkIDs {
		want[id] = true
	}
	byID := make(map[string]Match, len(chunkIDs))
	for _, e := range ix.collectEntries("") {
		if want[e.ChunkID] {
			byID[e.ChunkID] = Match{
				ChunkID:    e.ChunkID,
				Metadata:   e.Metadata,
				Similarity: vectormath.Cosine(query, e.Embedding),
			}
		}
	}
	out := make([]Match, 0, len(chunkIDs))
	for _, id := range chunkIDs {
		if m, ok := byID[id]; ok {
			out = append(out, m)
		}
	}
	return out
}

func (ix *Index) collectEntries(project string) []entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if project != "" {
		s, ok := ix.shards[project]
		if !ok {
			return nil
		}
		return s.snapshot()
	}
	var all []entry
	for _, s := range ix.shards {
		all = append(all, s.snapshot()...)
	}
	return all
}

// Stats reports approximate size for index_status.
type Stats struct {
	TotalChunks int
	UsedMB      float64
}

// Stats reports total entry count and an approximate memory footprint.
// The formula assumes 4 bytes per embedding dimension plus ~128 bytes of
// fixed per-entry overhead (chunk ID, metadata strings, map/slice
// bookkeeping); accurate within a factor of two, which is all the spec
// requires of this figure.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var total int
	var bytes int64
	for _, s := range ix.shards {
		entries := s.snapshot()
		total += len(entries)
		for _, e := range entries {
			bytes += int64(4*len(e.Embedding) + 128)
		}
	}
	return Stats{
		TotalChunks: total,
		UsedMB:      float64(bytes) / (1024 * 1024),
	}
}

// ProjectChunkCount returns the number of entries indexed for project.
func (ix *Index) ProjectChunkCount(project string) int {
	ix.mu.RLock()
	s, ok := ix.shards[project]
	ix.mu.RUnlock()
	if !ok {
		return 0
	}
	return s.count()
}
