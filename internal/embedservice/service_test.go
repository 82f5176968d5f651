package embedservice

import (
	"context"
	"testing"

	"github.com/doozMen/codesearch-mcp/internal/embedproviders"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := New(embedproviders.NewWordAverageProvider(), t.TempDir())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return svc
}

func TestEmbedCacheHitDeterminism(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	a, err := svc.Embed(ctx, "user account email")
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	b, err := svc.Embed(ctx, "user account email")
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("len mismatch")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("cached embedding should be identical across calls at %d", i)
		}
	}
	stats := svc.Stats()
	if stats.Hits == 0 {
		t.Fatalf("expected at least one cache hit, got stats=%+v", stats)
	}
}

func TestEmbedBatchPreservesOrder(t *testing.T) {
	svc := newTestService(t)
	texts := []string{"user account", "article title", "user account"}
	out, err := svc.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedBatch() error: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("len(out) = %d, want 3", len(out))
	}
	for i := range out[0] {
		if out[0][i] != out[2][i] {
			t.Fatalf("identical inputs should embed identically at %d", i)
		}
	}
}

func TestStatsHitRateZeroWhenEmpty(t *testing.T) {
	svc := newTestService(t)
	stats := svc.Stats()
	if stats.HitRate != 0 {
		t.Fatalf("HitRate = %v, want 0 with no requests made", stats.HitRate)
	}
}

func TestClearResetsCache(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	svc.Embed(ctx, "user account")
	if err := svc.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	stats := svc.Stats()
	if stats.TotalCached != 0 {
		t.Fatalf("TotalCached = %d, want 0 after clear", stats.TotalCached)
	}
}
