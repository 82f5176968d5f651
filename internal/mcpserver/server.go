// Package mcpserver exposes the search engine's tool surface over the
// Model Context Protocol, stdio transport, via
// github.com/mark3labs/mcp-go.
package mcpserver

import (
	"context"

	"github.com/Laisky/zap"
	"github.com/mark3labs/mcp-go/server"

	"github.com/doozMen/codesearch-mcp/internal/chunkstore"
	"github.com/doozMen/codesearch-mcp/internal/embedservice"
	"github.com/doozMen/codesearch-mcp/internal/filecontext"
	"github.com/doozMen/codesearch-mcp/internal/indexqueue"
	"github.com/doozMen/codesearch-mcp/internal/projectindexer"
	"github.com/doozMen/codesearch-mcp/internal/searchservice"
	"github.com/doozMen/codesearch-mcp/internal/vectorindex"
	"github.com/doozMen/codesearch-mcp/pkg/config"
)

// Server wires the MCP tool surface to the indexing and search
// services.
type Server struct {
	cfg    *config.Config
	log    *zap.Logger
	mcp    *server.MCPServer
	idx    *projectindexer.Indexer
	search *searchservice.Service
	embed  *embedservice.Service
	index  *vectorindex.Index
	queue  *indexqueue.Queue
	store  *chunkstore.Store
}

// New constructs a Server and registers every tool in §6.1.
func New(cfg *config.Config, log *zap.Logger, idx *projectindexer.Indexer, search *searchservice.Service, embed *embedservice.Service, index *vectorindex.Index, queue *indexqueue.Queue, store *chunkstore.Store) *Server {
	s := &Server{
		cfg:    cfg,
		log:    log,
		idx:    idx,
		search: search,
		embed:  embed,
		index:  index,
		queue:  queue,
		store:  store,
	}

	s.mcp = server.NewMCPServer(cfg.Server.Name, cfg.Server.Version)
	for _, t := range s.tools() {
		s.mcp.AddTool(t, s.handlerFor(t.Name))
	}

	log.Info("mcp server initialized",
		zap.String("name", cfg.Server.Name),
		zap.String("version", cfg.Server.Version),
		zap.Int("tools", len(s.tools())),
	)
	return s
}

// Start serves the registered tools over stdio until ctx is cancelled
// or the transport errs.
func (s *Server) Start(ctx context.Context) error {
	s.log.Info("starting mcp server on stdio transport")
	errCh := make(chan error, 1)
	go func() { errCh <- server.ServeStdio(s.mcp) }()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// filecontextDefaultContextLines resolves the configured default,
// falling back to the package constant if unset.
func (s *Server) filecontextDefaultContextLines() int {
	if s.cfg.FileContext.DefaultContextLines > 0 {
		return s.cfg.FileContext.DefaultContextLines
	}
	return filecontext.DefaultContextLines
}
