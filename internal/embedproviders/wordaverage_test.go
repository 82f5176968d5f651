package embedproviders

import (
	"context"
	"testing"

	"github.com/doozMen/codesearch-mcp/internal/vectormath"
)

func TestWordAverageDimensions(t *testing.T) {
	p := NewWordAverageProvider()
	if p.Dimensions() != 300 {
		t.Fatalf("Dimensions() = %d, want 300", p.Dimensions())
	}
}

func TestWordAverageEmptyInput(t *testing.T) {
	p := NewWordAverageProvider()
	if _, err := p.EmbedOne(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestWordAverageZeroVectorForUnknownTokens(t *testing.T) {
	p := NewWordAverageProvider()
	v, err := p.EmbedOne(context.Background(), "xyzzy plugh qux1 ###")
	if err != nil {
		t.Fatalf("EmbedOne() error: %v", err)
	}
	for _, f := range v {
		if f != 0 {
			t.Fatalf("expected zero vector for out-of-vocabulary text, got %v", v)
		}
	}
}

func TestWordAverageNormalized(t *testing.T) {
	p := NewWordAverageProvider()
	v, err := p.EmbedOne(context.Background(), "user account email login")
	if err != nil {
		t.Fatalf("EmbedOne() error: %v", err)
	}
	mag := vectormath.Magnitude(v)
	if mag < 0.95 || mag > 1.05 {
		t.Fatalf("magnitude = %v, want in [0.95, 1.05]", mag)
	}
}

func TestWordAverageSharedVocabularySimilarity(t *testing.T) {
	p := NewWordAverageProvider()
	ctx := context.Background()
	userChunk, _ := p.EmbedOne(ctx, "struct User { accountEmail string; password string }")
	articleChunk, _ := p.EmbedOne(ctx, "struct Article { title string; body string; author string }")
	query, _ := p.EmbedOne(ctx, "user account and email")

	userScore := vectormath.Cosine(query, userChunk)
	articleScore := vectormath.Cosine(query, articleChunk)
	if userScore <= articleScore {
		t.Fatalf("expected user chunk to score higher for user/account/email query: user=%v article=%v", userScore, articleScore)
	}
}

func TestWordAverageEmbedManyPreservesOrder(t *testing.T) {
	p := NewWordAverageProvider()
	out, err := p.EmbedMany(context.Background(), []string{"user account", "article title"})
	if err != nil {
		t.Fatalf("EmbedMany() error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
}
