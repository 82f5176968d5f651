package projectindexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Laisky/zap"

	"github.com/doozMen/codesearch-mcp/internal/chunkstore"
	"github.com/doozMen/codesearch-mcp/internal/embedproviders"
	"github.com/doozMen/codesearch-mcp/internal/embedservice"
	"github.com/doozMen/codesearch-mcp/internal/errs"
	"github.com/doozMen/codesearch-mcp/internal/models"
	"github.com/doozMen/codesearch-mcp/internal/vectorindex"
)

func newTestIndexer(t *testing.T) (*Indexer, string) {
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
	ix, err := New(store, vectorindex.New(), svc, zap.NewNop(), 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return ix, base
}

func writeProjectFiles(t *testing.T, root string) {
	t.Helper()
	mustWrite(t, filepath.Join(root, "user.go"), "package demo\n\ntype User struct {\n\tEmail string\n\tName  string\n}\n")
	mustWrite(t, filepath.Join(root, "article.go"), "package demo\n\ntype Article struct {\n\tTitle string\n\tBody  string\n}\n")
}

func TestIndexProjectPopulatesRegistryAndIndex(t *testing.T) {
	ix, _ := newTestIndexer(t)
	root := t.TempDir()
	writeProjectFiles(t, root)

	proj, err := ix.IndexProject(context.Background(), "demo", root)
	if err != nil {
		t.Fatalf("IndexProject error: %v", err)
	}
	if proj.Status != models.ProjectStatusComplete {
		t.Fatalf("Status = %v, want complete", proj.Status)
	}
	if proj.FileCount != 2 {
		t.Fatalf("FileCount = %d, want 2", proj.FileCount)
	}
	if proj.ChunkCount == 0 {
		t.Fatalf("ChunkCount = 0, want > 0")
	}

	reg := ix.Registry()
	if _, ok := reg.Projects["demo"]; !ok {
		t.Fatalf("registry missing project demo")
	}
}

func TestReindexProjectRequiresRegistration(t *testing.T) {
	ix, _ := newTestIndexer(t)
	_, err := ix.ReindexProject(context.Background(), "unknown")
	if errs.KindOf(err) != errs.KindProjectNotFound {
		t.Fatalf("KindOf(err) = %v, want %v", errs.KindOf(err), errs.KindProjectNotFound)
	}
}

func TestReindexProjectDropsOldChunksFirst(t *testing.T) {
	ix, _ := newTestIndexer(t)
	root := t.TempDir()
	writeProjectFiles(t, root)

	if _, err := ix.IndexProject(context.Background(), "demo", root); err != nil {
		t.Fatalf("IndexProject error: %v", err)
	}

	if err := os.Remove(filepath.Join(root, "article.go")); err != nil {
		t.Fatalf("os.Remove: %v", err)
	}

	proj, err := ix.ReindexProject(context.Background(), "demo")
	if err != nil {
		t.Fatalf("ReindexProject error: %v", err)
	}
	if proj.FileCount != 1 {
		t.Fatalf("FileCount after reindex = %d, want 1", proj.FileCount)
	}
}

func TestClearAllEmptiesRegistry(t *testing.T) {
	ix, _ := newTestIndexer(t)
	root := t.TempDir()
	writeProjectFiles(t, root)
	if _, err := ix.IndexProject(context.Background(), "demo", root); err != nil {
		t.Fatalf("IndexProject error: %v", err)
	}

	if err := ix.ClearAll(); err != nil {
		t.Fatalf("ClearAll error: %v", err)
	}
	reg := ix.Registry()
	if len(reg.Projects) != 0 {
		t.Fatalf("Registry after ClearAll has %d projects, want 0", len(reg.Projects))
	}
}
