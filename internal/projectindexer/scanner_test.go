package projectindexer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/doozMen/codesearch-mcp/internal/errs"
)

func TestScanProjectNotFound(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "missing"))
	if errs.KindOf(err) != errs.KindProjectNotFound {
		t.Fatalf("KindOf(err) = %v, want %v", errs.KindOf(err), errs.KindProjectNotFound)
	}
}

func TestScanSkipsReservedAndHidden(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "main.go"), "package main\n")
	mustWrite(t, filepath.Join(root, "node_modules", "lib.js"), "x")
	mustWrite(t, filepath.Join(root, ".hidden", "x.go"), "package x")
	mustWrite(t, filepath.Join(root, "README.md"), "docs")

	files, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if len(files) != 1 || files[0].RelPath != "main.go" {
		t.Fatalf("files = %+v, want only main.go", files)
	}
}

func TestScanRespectsGitignore(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, ".gitignore"), "ignored/\n")
	mustWrite(t, filepath.Join(root, "ignored", "x.go"), "package x")
	mustWrite(t, filepath.Join(root, "kept.go"), "package kept")

	files, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if len(files) != 1 || files[0].RelPath != "kept.go" {
		t.Fatalf("files = %+v, want only kept.go", files)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
