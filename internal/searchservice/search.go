// Package searchservice implements the query path: embed the query
// text, rank chunks by cosine similarity against the in-memory vector
// index (or, when that index is unpopulated for a project, stream the
// chunk store directly), deduplicate overlapping-window matches, and
// project survivors to search results.
package searchservice

import (
	"context"
	"fmt"
	"sort"

	"github.com/doozMen/codesearch-mcp/internal/chunkstore"
	"github.com/doozMen/codesearch-mcp/internal/embedservice"
	"github.com/doozMen/codesearch-mcp/internal/errs"
	"github.com/doozMen/codesearch-mcp/internal/models"
	"github.com/doozMen/codesearch-mcp/internal/vectorindex"
	"github.com/doozMen/codesearch-mcp/internal/vectormath"
)

// oversample multiplies max-results to size the candidate list taken
// from either the in-memory index or the chunk-store fallback scan,
// large enough to survive the (file_path, start_line) dedup pass that
// follows.
const oversample = 3

// defaultMaxResults is used when callers pass <= 0.
const defaultMaxResults = 10

// Service answers semantic_search queries.
type Service struct {
	embed *embedservice.Service
	index *vectorindex.Index
	store *chunkstore.Store
}

// New constructs a Service over the given embedding service, in-memory
// index, and chunk store (used as a fallback when a project's shard is
// empty).
func New(embed *embedservice.Service, index *vectorindex.Index, store *chunkstore.Store) *Service {
	return &Service{embed: embed, index: index, store: store}
}

// Search embeds query and returns up to maxResults ranked, deduplicated
// matches, optionally restricted to one project. An empty query fails
// with errs.KindInvalidParams. An unknown project filter succeeds with
// an empty result list.
func (s *Service) Search(ctx context.Context, query string, maxResults int, projectFilter string) ([]models.SearchResult, error) {
	if query == "" {
		return nil, errs.New(errs.KindInvalidParams, "query must not be empty")
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	queryVec, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	var candidates []vectorindex.Match
	if s.indexPopulated(projectFilter) {
		candidates = s.index.Search(queryVec, maxResults*oversample, projectFilter)
	} else {
		candidates, err = s.scanChunkStore(queryVec, maxResults*oversample, projectFilter)
		if err != nil {
			return nil, err
		}
	}

	deduped := dedupe(candidates)
	sort.Slice(deduped, func(i, j int) bool {
		if deduped[i].Similarity != deduped[j].Similarity {
			return deduped[i].Similarity > deduped[j].Similarity
		}
		return deduped[i].ChunkID < deduped[j].ChunkID
	})
	if len(deduped) > maxResults {
		deduped = deduped[:maxResults]
	}

	results := make([]models.SearchResult, len(deduped))
	for i, m := range deduped {
		results[i] = project(m)
	}
	return results, nil
}

func (s *Service) indexPopulated(projectFilter string) bool {
	if projectFilter != "" {
		return s.index.ProjectChunkCount(projectFilter) > 0
	}
	return s.index.Stats().TotalChunks > 0
}

// scanChunkStore is the fallback path used when the in-memory index has
// no entries for the requested scope (e.g. freshly started, preload not
// yet run): it scores chunks directly off disk.
func (s *Service) scanChunkStore(queryVec []float32, topK int, projectFilter string) ([]vectorindex.Match, error) {
	var chunks []models.Chunk
	var err error
	if projectFilter != "" {
		chunks, err = s.store.ListProjectChunks(projectFilter)
	} else {
		chunks, err = s.store.ListAllChunks()
	}
	if err != nil {
		return nil, err
	}

	matches := make([]vectorindex.Match, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			continue
		}
		matches = append(matches, vectorindex.Match{
			ChunkID: c.ID,
			Metadata: vectorindex.Metadata{
				ProjectName: c.ProjectName,
				FilePath:    c.FilePath,
				Language:    c.Language,
				StartLine:   c.StartLine,
				EndLine:     c.EndLine,
				Content:     c.Content,
				ChunkType:   string(c.ChunkType),
			},
			Similarity: vectormath.Cosine(queryVec, c.Embedding),
		})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// dedupe keeps, for each (file_path, start_line) key, only the
// highest-scoring match — overlapping sliding-window chunks otherwise
// produce near-duplicate results for the same source location.
func dedupe(matches []vectorindex.Match) []vectorindex.Match {
	best := make(map[string]vectorindex.Match, len(matches))
	for _, m := range matches {
		key := fmt.Sprintf("%s:%d", m.Metadata.FilePath, m.Metadata.StartLine)
		if existing, ok := best[key]; !ok || m.Similarity > existing.Similarity {
			best[key] = m
		}
	}
	out := make([]vectorindex.Match, 0, len(best))
	for _, m := range best {
		out = append(out, m)
	}
	return out
}

func project(m vectorindex.Match) models.SearchResult {
	relevance := float64(m.Similarity)
	if relevance < 0 {
		relevance = 0
	}
	if relevance > 1 {
		relevance = 1
	}
	return models.SearchResult{
		ID:          m.ChunkID,
		ProjectName: m.Metadata.ProjectName,
		FilePath:    m.Metadata.FilePath,
		Language:    m.Metadata.Language,
		StartLine:   m.Metadata.StartLine,
		EndLine:     m.Metadata.EndLine,
		Content:     m.Metadata.Content,
		Kind:        models.SearchResultKindSemantic,
		Relevance:   relevance,
		MatchReason: "Semantically similar code pattern",
		Metadata: map[string]interface{}{
			"similarity": fmt.Sprintf("%.3f", m.Similarity),
		},
	}
}
