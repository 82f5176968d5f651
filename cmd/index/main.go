// Command index runs a single synchronous project index from the
// command line, bypassing the MCP server and its job queue. Useful for
// warming the cache before the server is started, or for scripted
// reindexing in CI.
package main

import (
	"context"
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
	"github.com/doozMen/codesearch-mcp/internal/vectorindex"
	"github.com/doozMen/codesearch-mcp/pkg/config"
)

func main() {
	repoPath, err := os.Getwd()
	if err != nil {
		log.Fatalf("failed to get current directory: %v", err)
	}
	if len(os.Args) > 1 {
		repoPath = os.Args[1]
	}
	projectName := filepath.Base(repoPath)

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

	logger.Info("starting index", zap.String("project", projectName), zap.String("root", repoPath))
	start := time.Now()

	proj, err := idx.IndexProject(context.Background(), projectName, repoPath)
	if err != nil {
		logger.Error("indexing failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		os.Exit(1)
	}

	logger.Info("indexing completed",
		zap.String("project", proj.Name),
		zap.String("status", string(proj.Status)),
		zap.Int("files", proj.FileCount),
		zap.Int("chunks", proj.ChunkCount),
		zap.Duration("elapsed", time.Since(start)),
	)
}
