package vectorindex

import (
	"testing"

	"github.com/doozMen/codesearch-mcp/internal/errs"
)

func TestUpsertIdempotentAndSearch(t *testing.T) {
	ix := New()
	ix.Upsert("demo", "c1", []float32{1, 0, 0}, Metadata{FilePath: "a.go"})
	ix.Upsert("demo", "c2", []float32{0, 1, 0}, Metadata{FilePath: "b.go"})
	ix.Upsert("demo", "c1", []float32{1, 0, 0}, Metadata{FilePath: "a.go"}) // idempotent

	if ix.ProjectChunkCount("demo") != 2 {
		t.Fatalf("count = %d, want 2", ix.ProjectChunkCount("demo"))
	}

	matches := ix.Search([]float32{1, 0, 0}, 5, "")
	if len(matches) != 2 {
		t.Fatalf("len(matches) = %d, want 2", len(matches))
	}
	if matches[0].ChunkID != "c1" {
		t.Fatalf("top match = %s, want c1", matches[0].ChunkID)
	}
}

func TestSearchTopKTruncates(t *testing.T) {
	ix := New()
	for i := 0; i < 20; i++ {
		id := string(rune('a' + i))
		ix.Upsert("p", id, []float32{float32(i), 1, 0}, Metadata{})
	}
	matches := ix.Search([]float32{19, 1, 0}, 3, "")
	if len(matches) != 3 {
		t.Fatalf("len(matches) = %d, want 3", len(matches))
	}
}

func TestSearchTiesBreakByChunkID(t *testing.T) {
	ix := New()
	ix.Upsert("p", "zeta", []float32{1, 0}, Metadata{})
	ix.Upsert("p", "alpha", []float32{1, 0}, Metadata{})
	matches := ix.Search([]float32{1, 0}, 2, "")
	if len(matches) != 2 {
		t.Fatalf("len(matches) = %d, want 2", len(matches))
	}
	if matches[0].ChunkID != "alpha" || matches[1].ChunkID != "zeta" {
		t.Fatalf("tie order = %v, want [alpha zeta]", []string{matches[0].ChunkID, matches[1].ChunkID})
	}
}

func TestSearchProjectFilter(t *testing.T) {
	ix := New()
	ix.Upsert("p1", "a", []float32{1, 0}, Metadata{})
	ix.Upsert("p2", "b", []float32{1, 0}, Metadata{})
	matches := ix.Search([]float32{1, 0}, 10, "p1")
	if len(matches) != 1 || matches[0].ChunkID != "a" {
		t.Fatalf("matches = %+v, want only p1's entry", matches)
	}
}

func TestSearchEmptyProjectReturnsNil(t *testing.T) {
	ix := New()
	matches := ix.Search([]float32{1, 0}, 10, "nope")
	if len(matches) != 0 {
		t.Fatalf("matches = %+v, want empty", matches)
	}
}

func TestDropProjectRemovesShard(t *testing.T) {
	ix := New()
	ix.Upsert("p", "a", []float32{1}, Metadata{})
	ix.DropProject("p")
	if ix.ProjectChunkCount("p") != 0 {
		t.Fatalf("expected shard removed")
	}
}

func TestClearRemovesAllShards(t *testing.T) {
	ix := New()
	ix.Upsert("p1", "a", []float32{1}, Metadata{})
	ix.Upsert("p2", "b", []float32{1}, Metadata{})
	ix.Clear()
	if ix.Stats().TotalChunks != 0 {
		t.Fatalf("expected 0 chunks after Clear")
	}
}

func TestUpsertRejectsWidthMismatch(t *testing.T) {
	ix := New()
	if err := ix.Upsert("p", "a", []float32{1, 0, 0}, Metadata{}); err != nil {
		t.Fatalf("first insert error: %v", err)
	}
	err := ix.Upsert("p", "b", []float32{1, 0}, Metadata{})
	if errs.KindOf(err) != errs.KindInvalidInput {
		t.Fatalf("KindOf(err) = %v, want %v", errs.KindOf(err), errs.KindInvalidInput)
	}
	if ix.ProjectChunkCount("p") != 1 {
		t.Fatalf("count = %d, want 1 (rejected insert must not land)", ix.ProjectChunkCount("p"))
	}
}

func TestUpsertAcceptsNewWidthAfterClear(t *testing.T) {
	ix := New()
	if err := ix.Upsert("p", "a", []float32{1, 0, 0}, Metadata{}); err != nil {
		t.Fatalf("first insert error: %v", err)
	}
	ix.Clear()
	if err := ix.Upsert("p", "a", []float32{1, 0}, Metadata{}); err != nil {
		t.Fatalf("insert after Clear should accept a new width: %v", err)
	}
}

func TestBatchSimilarityOrderMatchesRequest(t *testing.T) {
	ix := New()
	ix.Upsert("p", "a", []float32{1, 0}, Metadata{})
	ix.Upsert("p", "b", []float32{0, 1}, Metadata{})
	out := ix.BatchSimilarity([]float32{1, 0}, []string{"b", "a", "missing"})
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	if out[0].ChunkID != "b" || out[1].ChunkID != "a" {
		t.Fatalf("order = %v, want [b a]", out)
	}
}
