package embedservice

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/doozMen/codesearch-mcp/internal/embedproviders"
)

// maxTokensPerRequest bounds how many input tokens accumulate into a
// single provider call; batches are split at this boundary so a large
// indexing run never sends an unbounded request to the subordinate
// embedding model or the local provider.
const maxTokensPerRequest = 8000

// Service wraps a single embedproviders.Provider with a persistent,
// content-addressed cache (internal/embedservice/cache.go).
type Service struct {
	provider embedproviders.Provider
	cache    *cache
	tag      string

	encMu sync.Mutex
	enc   *tiktoken.Tiktoken
}

// New constructs a Service backed by provider, persisting its cache
// under cacheDir.
func New(provider embedproviders.Provider, cacheDir string) (*Service, error) {
	c, err := newCache(cacheDir)
	if err != nil {
		return nil, err
	}
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		// Token counting is only used to bound batch sizes; fall back to a
		// nil encoder and approximate by rune count in countTokens.
		enc = nil
	}
	return &Service{
		provider: provider,
		cache:    c,
		tag:      fmt.Sprintf("%s-%d", provider.Name(), provider.Dimensions()),
		enc:      enc,
	}, nil
}

func (s *Service) countTokens(text string) int {
	s.encMu.Lock()
	defer s.encMu.Unlock()
	if s.enc == nil {
		return len([]rune(text)) / 4
	}
	return len(s.enc.Encode(text, nil, nil))
}

// Embed returns the embedding for text, consulting the cache first.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	key := digestKey(text, s.tag)
	if v, ok := s.cache.get(key); ok {
		return v, nil
	}
	v, err := s.provider.EmbedOne(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := s.cache.put(key, v); err != nil {
		return nil, err
	}
	return v, nil
}

// EmbedBatch embeds texts, splitting cache hits from misses, calling the
// provider only for the miss subset (further split into token-bounded
// sub-batches), and splicing results back into the original order. If
// the provider errors, the error propagates and only entries that had
// already been embedded before the failing sub-batch are cached.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	var missIdx []int

	for i, t := range texts {
		key := digestKey(t, s.tag)
		keys[i] = key
		if v, ok := s.cache.get(key); ok {
			results[i] = v
			continue
		}
		missIdx = append(missIdx, i)
	}

	for _, sub := range splitByTokenBudget(texts, missIdx, s.countTokens) {
		subTexts := make([]string, len(sub))
		for j, idx := range sub {
			subTexts[j] = texts[idx]
		}
		embedded, err := s.provider.EmbedMany(ctx, subTexts)
		if err != nil {
			return nil, err
		}
		for j, idx := range sub {
			results[idx] = embedded[j]
			if err := s.cache.put(keys[idx], embedded[j]); err != nil {
				return nil, err
			}
		}
	}

	return results, nil
}

// splitByTokenBudget partitions indices into sub-batches whose total
// token count (per countTokens) stays under maxTokensPerRequest.
func splitByTokenBudget(texts []string, indices []int, countTokens func(string) int) [][]int {
	var batches [][]int
	var current []int
	var tokens int
	for _, idx := range indices {
		t := countTokens(texts[idx])
		if len(current) > 0 && tokens+t > maxTokensPerRequest {
			batches = append(batches, current)
			current = nil
			tokens = 0
		}
		current = append(current, idx)
		tokens += t
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

// Stats reports cache statistics for index_status tool responses.
type Stats struct {
	TotalCached    int     `json:"total_cached"`
	Hits           uint64  `json:"hits"`
	Misses         uint64  `json:"misses"`
	HitRate        float64 `json:"hit_rate"`
	CacheDirectory string  `json:"cache_directory"`
}

// Stats returns current cache statistics.
func (s *Service) Stats() Stats {
	total, hits, misses := s.cache.stats()
	var rate float64
	if hits+misses > 0 {
		rate = float64(hits) / float64(hits+misses)
	}
	return Stats{
		TotalCached:    total,
		Hits:           hits,
		Misses:         misses,
		HitRate:        rate,
		CacheDirectory: s.cache.dir,
	}
}

// Clear deletes all cache entries and resets hit/miss counters.
func (s *Service) Clear() error {
	return s.cache.clear()
}

// Dimensions returns the wrapped provider's dimensionality.
func (s *Service) Dimensions() int { return s.provider.Dimensions() }

// ProviderName returns the wrapped provider's name.
func (s *Service) ProviderName() string { return s.provider.Name() }
