// Command search-test indexes a repository and runs one search query
// against it, printing ranked results to the log. Useful for
// exercising the search pipeline end to end without an MCP client.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/Laisky/zap"

	"github.com/doozMen/codesearch-mcp/internal/applog"
	"github.com/doozMen/codesearch-mcp/internal/chunkstore"
	"github.com/doozMen/codesearch-mcp/internal/embedproviders"
	"github.com/doozMen/codesearch-mcp/internal/embedservice"
	"github.com/doozMen/codesearch-mcp/internal/projectindexer"
	"github.com/doozMen/codesearch-mcp/internal/searchservice"
	"github.com/doozMen/codesearch-mcp/internal/vectorindex"
	"github.com/doozMen/codesearch-mcp/pkg/config"
)

func main() {
	query := flag.String("query", "JWT token validation", "search query")
	repoPath := flag.String("repo", "", "repository path")
	maxResults := flag.Int("max-results", 10, "maximum results")
	flag.Parse()

	if *repoPath == "" {
		var err error
		*repoPath, err = os.Getwd()
		if err != nil {
			log.Fatalf("failed to get current directory: %v", err)
		}
	}
	projectName := filepath.Base(*repoPath)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, cleanup, err := applog.New(applog.DefaultConfig())
	if err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	}
	defer cleanup()

	store, err := chunkstore.New(cfg.Cache.Directory)
	if err != nil {
		logger.Fatal("failed to open chunk store", zap.Error(err))
	}
	embedSvc, err := embedservice.New(embedproviders.NewWordAverageProvider(), store.EmbeddingsDir())
	if err != nil {
		logger.Fatal("failed to build embedding service", zap.Error(err))
	}
	index := vectorindex.New()
	idx, err := projectindexer.New(store, index, embedSvc, logger, cfg.Indexing.ParallelWorkers)
	if err != nil {
		logger.Fatal("failed to build project indexer", zap.Error(err))
	}

	logger.Info("indexing repository", zap.String("project", projectName), zap.String("root", *repoPath))
	if _, err := idx.IndexProject(context.Background(), projectName, *repoPath); err != nil {
		logger.Fatal("indexing failed", zap.Error(err))
	}

	search := searchservice.New(embedSvc, index, store)

	start := time.Now()
	results, err := search.Search(context.Background(), *query, *maxResults, projectName)
	if err != nil {
		logger.Fatal("search failed", zap.Error(err))
	}
	duration := time.Since(start)

	logger.Info("search completed", zap.Duration("elapsed", duration), zap.Int("results", len(results)))
	if len(results) == 0 {
		logger.Warn("no results found")
		return
	}

	for i, r := range results {
		location := fmt.Sprintf("%s:%d-%d", r.FilePath, r.StartLine, r.EndLine)
		logger.Info("result",
			zap.Int("rank", i+1),
			zap.String("location", location),
			zap.Float64("relevance", r.Relevance),
			zap.String("language", r.Language),
			zap.String("kind", string(r.Kind)),
		)
	}
}
