package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Laisky/zap"

	"github.com/doozMen/codesearch-mcp/internal/applog"
	"github.com/doozMen/codesearch-mcp/internal/chunkstore"
	"github.com/doozMen/codesearch-mcp/internal/embedproviders"
	"github.com/doozMen/codesearch-mcp/internal/embedservice"
	"github.com/doozMen/codesearch-mcp/internal/indexqueue"
	"github.com/doozMen/codesearch-mcp/internal/mcpserver"
	"github.com/doozMen/codesearch-mcp/internal/models"
	"github.com/doozMen/codesearch-mcp/internal/projectindexer"
	"github.com/doozMen/codesearch-mcp/internal/searchservice"
	"github.com/doozMen/codesearch-mcp/internal/vectorindex"
	"github.com/doozMen/codesearch-mcp/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	logCfg := applog.DefaultConfig()
	if cfg.Logging.Directory != "" {
		logCfg.FilePath = filepath.Join(cfg.Logging.Directory, "codesearch-mcp.log")
	}
	logCfg.MaxSizeMB = cfg.Logging.MaxSizeMB
	logCfg.MaxAgeDays = cfg.Logging.MaxAgeDays
	logCfg.MaxBackups = cfg.Logging.MaxBackups
	logCfg.Console = cfg.Logging.Console

	logger, cleanup, err := applog.New(logCfg)
	if err != nil {
		panic("failed to set up logging: " + err.Error())
	}
	defer cleanup()

	logger.Info("configuration loaded",
		zap.String("embedding_provider", cfg.Embeddings.Provider),
		zap.Int("parallel_workers", cfg.Indexing.ParallelWorkers),
		zap.String("cache_directory", cfg.Cache.Directory),
	)

	store, err := chunkstore.New(cfg.Cache.Directory)
	if err != nil {
		logger.Fatal("failed to open chunk store", zap.Error(err))
	}

	provider, err := buildProvider(cfg, logger)
	if err != nil {
		logger.Fatal("failed to build embedding provider", zap.Error(err))
	}

	embedSvc, err := embedservice.New(provider, store.EmbeddingsDir())
	if err != nil {
		logger.Fatal("failed to build embedding service", zap.Error(err))
	}

	index := vectorindex.New()
	if err := index.Preload(store); err != nil {
		logger.Warn("failed to preload vector index from chunk store", zap.Error(err))
	}

	idx, err := projectindexer.New(store, index, embedSvc, logger, cfg.Indexing.ParallelWorkers)
	if err != nil {
		logger.Fatal("failed to build project indexer", zap.Error(err))
	}

	search := searchservice.New(embedSvc, index, store)
	queue := indexqueue.New(cfg.Queue.MaxConcurrentJobs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if ext, ok := provider.(*embedproviders.ExternalModelProvider); ok {
		if err := ext.Start(ctx); err != nil {
			logger.Fatal("failed to start external embedding model", zap.Error(err))
		}
		defer ext.Stop()
	}

	for _, root := range cfg.Projects.Roots {
		root := root
		name := filepath.Base(root)
		jobID := queue.Enqueue(name, models.PriorityNormal, func() (int, int, error) {
			proj, err := idx.IndexProject(context.Background(), name, root)
			if err != nil {
				return 0, 0, err
			}
			return proj.FileCount, proj.ChunkCount, nil
		})
		logger.Info("queued startup indexing", zap.String("project", name), zap.String("root", root), zap.String("job", jobID))
	}

	srv := mcpserver.New(cfg, logger, idx, search, embedSvc, index, queue, store)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	logger.Info("starting mcp server")
	if err := srv.Start(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// buildProvider selects the embedding provider named by
// cfg.Embeddings.Provider. "external" delegates to a co-resident
// subprocess (internal/embedproviders.ExternalModelProvider); anything
// else, including the default, uses the dependency-free word-average
// provider.
func buildProvider(cfg *config.Config, logger *zap.Logger) (embedproviders.Provider, error) {
	if cfg.Embeddings.Provider == "external" {
		extCfg := embedproviders.ExternalModelConfig{
			CandidatePaths: cfg.Embeddings.External.CandidatePaths,
			Port:           8420,
		}
		return embedproviders.NewExternalModelProvider(extCfg, logger), nil
	}
	return embedproviders.NewWordAverageProvider(), nil
}
