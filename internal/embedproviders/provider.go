// Package embedproviders implements the pluggable embedding-generation
// capability: two concrete providers (a local word-average provider and
// an out-of-process external-model provider) behind one small interface.
// Neither provider is aware of the other, matching the teacher's
// model-swap design intent; selection happens once at startup in
// cmd/server's buildProvider, from pkg/config's Embeddings.Provider
// setting.
package embedproviders

import (
	"context"

	"github.com/doozMen/codesearch-mcp/internal/errs"
)

// Provider is the capability set every embedding backend implements.
type Provider interface {
	// Dimensions returns the fixed vector width this provider produces.
	Dimensions() int
	// EmbedOne embeds a single piece of text.
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	// EmbedMany embeds texts, preserving order and length. Implementations
	// may embed sequentially or in parallel.
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
	// Name identifies the provider for logging and cache-key tagging.
	Name() string
}

func validateNonEmpty(text string) error {
	if text == "" {
		return errs.New(errs.KindInvalidInput, "embedding input text must not be empty")
	}
	return nil
}
