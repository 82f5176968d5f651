package embedproviders

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestExternalModelDimensionsAndName(t *testing.T) {
	p := NewExternalModelProvider(ExternalModelConfig{Port: 0}, nil)
	if p.Dimensions() != 384 {
		t.Fatalf("Dimensions() = %d, want 384", p.Dimensions())
	}
	if p.Name() != "external-model" {
		t.Fatalf("Name() = %q", p.Name())
	}
}

func TestExternalModelLocateExecutableNotFound(t *testing.T) {
	p := NewExternalModelProvider(ExternalModelConfig{
		CandidatePaths: []string{"/nonexistent/path/to/model-server"},
	}, nil)
	if _, err := p.locateExecutable(context.Background()); err == nil {
		t.Fatal("expected error when no candidate path exists")
	}
}

func TestExternalModelLocateExecutableSkipsFailedDepCheck(t *testing.T) {
	failing := writeScript(t, "#!/bin/sh\nexit 1\n")
	passing := writeScript(t, "#!/bin/sh\nexit 0\n")
	p := NewExternalModelProvider(ExternalModelConfig{
		CandidatePaths: []string{failing, passing},
	}, nil)
	path, err := p.locateExecutable(context.Background())
	if err != nil {
		t.Fatalf("locateExecutable error: %v", err)
	}
	if path != passing {
		t.Fatalf("locateExecutable = %q, want the candidate passing its dependency check (%q)", path, passing)
	}
}

func TestExternalModelLocateExecutableAllFailDepCheck(t *testing.T) {
	failing := writeScript(t, "#!/bin/sh\nexit 1\n")
	p := NewExternalModelProvider(ExternalModelConfig{
		CandidatePaths: []string{failing},
	}, nil)
	if _, err := p.locateExecutable(context.Background()); err == nil {
		t.Fatal("expected error when every candidate fails its dependency check")
	}
}

func writeScript(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model-server.sh")
	if err := os.WriteFile(path, []byte(contents), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestExternalModelEmbedManyWithoutStart(t *testing.T) {
	p := NewExternalModelProvider(ExternalModelConfig{Port: 18080}, nil)
	if _, err := p.EmbedMany(context.Background(), []string{"hello"}); err == nil {
		t.Fatal("expected error when provider was never started")
	}
}
