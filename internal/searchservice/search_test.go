package searchservice

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/doozMen/codesearch-mcp/internal/chunkstore"
	"github.com/doozMen/codesearch-mcp/internal/embedproviders"
	"github.com/doozMen/codesearch-mcp/internal/embedservice"
	"github.com/doozMen/codesearch-mcp/internal/errs"
	"github.com/doozMen/codesearch-mcp/internal/models"
	"github.com/doozMen/codesearch-mcp/internal/vectorindex"
)

func newTestService(t *testing.T) (*Service, *embedservice.Service, *vectorindex.Index, *chunkstore.Store) {
	t.Helper()
	base := t.TempDir()
	store, err := chunkstore.New(filepath.Join(base, "index"))
	if err != nil {
		t.Fatalf("chunkstore.New: %v", err)
	}
	svc, err := embedservice.New(embedproviders.NewWordAverageProvider(), filepath.Join(base, "cache"))
	if err != nil {
		t.Fatalf("embedservice.New: %v", err)
	}
	index := vectorindex.New()
	return New(svc, index, store), svc, index, store
}

func seedChunk(t *testing.T, svc *embedservice.Service, index *vectorindex.Index, store *chunkstore.Store, project, id, filePath string, startLine, endLine int, content string) {
	t.Helper()
	vec, err := svc.Embed(context.Background(), content)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	c := models.Chunk{
		ID: id, ProjectName: project, FilePath: filePath, Language: "go",
		StartLine: startLine, EndLine: endLine, Content: content,
		ChunkType: models.ChunkKindCode, Embedding: vec,
	}
	if err := store.SaveChunk(c); err != nil {
		t.Fatalf("SaveChunk: %v", err)
	}
	index.Upsert(project, id, vec, vectorindex.Metadata{
		ProjectName: project, FilePath: filePath, Language: "go",
		StartLine: startLine, EndLine: endLine, Content: content, ChunkType: "code",
	})
}

func TestSearchEmptyQueryFails(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.Search(context.Background(), "", 10, "")
	if errs.KindOf(err) != errs.KindInvalidParams {
		t.Fatalf("KindOf(err) = %v, want %v", errs.KindOf(err), errs.KindInvalidParams)
	}
}

func TestSearchUnknownProjectReturnsEmpty(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	results, err := svc.Search(context.Background(), "user account", 10, "nonexistent")
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("len(results) = %d, want 0", len(results))
	}
}

func TestSearchRanksAndDedupesByFileAndStartLine(t *testing.T) {
	svc, embed, index, store := newTestService(t)
	seedChunk(t, embed, index, store, "demo", "u1", "user.go", 1, 50, "type User struct { Email string; Name string }")
	seedChunk(t, embed, index, store, "demo", "u1dup", "user.go", 1, 55, "type User struct { Email string; Name string; Extra bool }")
	seedChunk(t, embed, index, store, "demo", "a1", "article.go", 1, 40, "type Article struct { Title string; Body string }")

	results, err := svc.Search(context.Background(), "user account and email", 10, "demo")
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(results) == 0 {
		t.Fatalf("expected at least one result")
	}

	seen := map[string]bool{}
	for _, r := range results {
		key := fmt.Sprintf("%s:%d", r.FilePath, r.StartLine)
		if seen[key] {
			t.Fatalf("duplicate (file_path, start_line) in results: %s:%d", r.FilePath, r.StartLine)
		}
		seen[key] = true
		if r.Kind != models.SearchResultKindSemantic {
			t.Fatalf("Kind = %v, want semantic", r.Kind)
		}
		if r.MatchReason != "Semantically similar code pattern" {
			t.Fatalf("MatchReason = %q", r.MatchReason)
		}
		if r.Relevance < 0 || r.Relevance > 1 {
			t.Fatalf("Relevance = %v, out of [0,1]", r.Relevance)
		}
	}
	if results[0].FilePath != "user.go" {
		t.Fatalf("top result FilePath = %q, want user.go (higher token overlap with query)", results[0].FilePath)
	}
}

func TestSearchFallsBackToChunkStoreWhenIndexEmpty(t *testing.T) {
	svc, embed, _, store := newTestService(t)
	vec, err := embed.Embed(context.Background(), "type User struct { Email string }")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	c := models.Chunk{
		ID: "u1", ProjectName: "demo", FilePath: "user.go", Language: "go",
		StartLine: 1, EndLine: 10, Content: "type User struct { Email string }",
		ChunkType: models.ChunkKindCode, Embedding: vec,
	}
	if err := store.SaveChunk(c); err != nil {
		t.Fatalf("SaveChunk: %v", err)
	}

	results, err := svc.Search(context.Background(), "user email", 10, "")
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(results) != 1 || results[0].FilePath != "user.go" {
		t.Fatalf("results = %+v, want one match from the chunk store fallback", results)
	}
}
