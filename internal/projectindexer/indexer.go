package projectindexer

import (
	"context"
	"sync"
	"time"

	"github.com/Laisky/zap"

	"github.com/doozMen/codesearch-mcp/internal/chunkstore"
	"github.com/doozMen/codesearch-mcp/internal/embedservice"
	"github.com/doozMen/codesearch-mcp/internal/errs"
	"github.com/doozMen/codesearch-mcp/internal/models"
	"github.com/doozMen/codesearch-mcp/internal/vectorindex"
)

// Indexer orchestrates the scan -> chunk -> embed -> persist pipeline for
// one or more projects, mirroring the teacher's worker-pool-over-channels
// shape but driven off the new chunk and vector-index data model.
type Indexer struct {
	store *chunkstore.Store
	index *vectorindex.Index
	embed *embedservice.Service
	log   *zap.Logger

	workers int

	mu  sync.RWMutex
	reg *models.Registry
}

// New constructs an Indexer. workers bounds the file-processing worker
// pool; if <= 0 it defaults to 4, matching the teacher's fallback.
func New(store *chunkstore.Store, index *vectorindex.Index, embed *embedservice.Service, log *zap.Logger, workers int) (*Indexer, error) {
	if workers <= 0 {
		workers = 4
	}
	reg, err := store.LoadRegistry()
	if err != nil {
		return nil, err
	}
	return &Indexer{store: store, index: index, embed: embed, log: log, workers: workers, reg: reg}, nil
}

// Registry returns a snapshot of the current project registry.
func (ix *Indexer) Registry() *models.Registry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	projects := make(map[string]*models.Project, len(ix.reg.Projects))
	for name, p := range ix.reg.Projects {
		cp := *p
		projects[name] = &cp
	}
	return &models.Registry{Projects: projects}
}

// Project returns the registered metadata for name, or nil if unknown.
func (ix *Indexer) Project(name string) *models.Project {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if p, ok := ix.reg.Projects[name]; ok {
		cp := *p
		return &cp
	}
	return nil
}

// IndexProject scans rootPath, chunks and embeds every discovered file,
// and persists the result under projectName. The project is marked
// indexing, then complete, partial (some files unreadable, or embedding
// and persistence failed part-way) or failed (root not scannable). A
// project already registered is reindexed from scratch: its previous
// chunks are dropped from disk and from the in-memory index first.
func (ix *Indexer) IndexProject(ctx context.Context, projectName, rootPath string) (*models.Project, error) {
	now := time.Now()
	proj := &models.Project{
		ID:           projectName,
		Name:         projectName,
		RootPath:     rootPath,
		FirstIndexed: now,
		LastUpdated:  now,
		Status:       models.ProjectStatusIndexing,
		LanguageCounts: map[string]int{},
	}
	if existing := ix.Project(projectName); existing != nil {
		proj.FirstIndexed = existing.FirstIndexed
		if err := ix.store.DeleteProjectChunks(projectName); err != nil {
			return nil, err
		}
		ix.index.DropProject(projectName)
	}
	ix.setProject(proj)

	ix.log.Info("indexing project", zap.String("project", projectName), zap.String("root", rootPath))

	files, err := Scan(rootPath)
	if err != nil {
		proj.Status = models.ProjectStatusFailed
		ix.setProject(proj)
		return proj, err
	}

	chunks, fileErrs := ix.chunkFilesInParallel(projectName, files)
	for path, cerr := range fileErrs {
		ix.log.Warn("failed to read file during indexing", zap.String("project", projectName), zap.String("path", path), zap.Error(cerr))
	}

	if len(chunks) > 0 {
		if err := ix.embedAndPersist(ctx, projectName, chunks); err != nil {
			proj.Status = models.ProjectStatusPartial
			ix.setProject(proj)
			return proj, err
		}
	}

	proj.FileCount = len(files)
	proj.ChunkCount = len(chunks)
	proj.LineCount = totalLines(chunks)
	proj.LanguageCounts = languageBreakdown(files)
	proj.Stats = chunkStats(chunks)
	proj.LastUpdated = time.Now()
	if len(fileErrs) > 0 && len(chunks) > 0 {
		proj.Status = models.ProjectStatusPartial
	} else {
		proj.Status = models.ProjectStatusComplete
	}
	ix.setProject(proj)

	if err := ix.index.PreloadProject(ix.store, projectName); err != nil {
		ix.log.Warn("failed to preload in-memory index after indexing", zap.String("project", projectName), zap.Error(err))
	}

	ix.log.Info("indexing complete",
		zap.String("project", projectName),
		zap.Int("files", proj.FileCount),
		zap.Int("chunks", proj.ChunkCount),
		zap.String("status", string(proj.Status)),
	)
	return proj, nil
}

// ReindexProject re-runs IndexProject for an already-registered project,
// first dropping its existing chunks on disk and in the in-memory index.
// Unregistered projects fail with errs.KindProjectNotFound.
func (ix *Indexer) ReindexProject(ctx context.Context, projectName string) (*models.Project, error) {
	existing := ix.Project(projectName)
	if existing == nil {
		return nil, errs.New(errs.KindProjectNotFound, "project not registered: "+projectName)
	}
	if err := ix.store.DeleteProjectChunks(projectName); err != nil {
		return nil, err
	}
	ix.index.DropProject(projectName)
	return ix.IndexProject(ctx, projectName, existing.RootPath)
}

// ReindexAll reindexes every registered project, collecting the first
// error encountered but continuing through the remaining projects.
func (ix *Indexer) ReindexAll(ctx context.Context) (map[string]*models.Project, error) {
	ix.mu.RLock()
	names := make([]string, 0, len(ix.reg.Projects))
	for name := range ix.reg.Projects {
		names = append(names, name)
	}
	ix.mu.RUnlock()

	results := make(map[string]*models.Project, len(names))
	var firstErr error
	for _, name := range names {
		proj, err := ix.ReindexProject(ctx, name)
		results[name] = proj
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return results, firstErr
}

// ClearAll removes every project's chunks, embeddings cache, and the
// in-memory index, and clears the registry.
func (ix *Indexer) ClearAll() error {
	if err := ix.store.DeleteAll(); err != nil {
		return err
	}
	if err := ix.embed.Clear(); err != nil {
		return err
	}
	ix.index.Clear()
	ix.mu.Lock()
	ix.reg = &models.Registry{Projects: map[string]*models.Project{}}
	ix.mu.Unlock()
	return ix.store.SaveRegistry(ix.reg)
}

func (ix *Indexer) setProject(p *models.Project) {
	ix.mu.Lock()
	ix.reg.Projects[p.Name] = p
	ix.mu.Unlock()
	if err := ix.store.SaveRegistry(ix.reg); err != nil {
		ix.log.Warn("failed to persist project registry", zap.String("project", p.Name), zap.Error(err))
	}
}

// chunkFilesInParallel reads and chunks every discovered file using a
// fixed worker pool over a file-path channel, matching the teacher's
// fan-out/collector shape. It returns the combined chunk list and a map
// of per-file read errors (non-fatal; the file is simply skipped).
func (ix *Indexer) chunkFilesInParallel(projectName string, files []DiscoveredFile) ([]models.Chunk, map[string]error) {
	fileChan := make(chan DiscoveredFile, len(files))
	for _, f := range files {
		fileChan <- f
	}
	close(fileChan)

	chunkChan := make(chan []models.Chunk, ix.workers*2)
	errChan := make(chan struct {
		path string
		err  error
	}, len(files))

	var wg sync.WaitGroup
	for w := 0; w < ix.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range fileChan {
				lines, err := ReadFileLines(f.AbsPath)
				if err != nil {
					errChan <- struct {
						path string
						err  error
					}{f.RelPath, err}
					continue
				}
				content := joinLines(lines)
				chunks := ChunkFile(projectName, f.RelPath, f.Language, content)
				if len(chunks) > 0 {
					chunkChan <- chunks
				}
			}
		}()
	}

	var collected []models.Chunk
	var collectMu sync.Mutex
	done := make(chan struct{})
	go func() {
		for chunks := range chunkChan {
			collectMu.Lock()
			collected = append(collected, chunks...)
			collectMu.Unlock()
		}
		close(done)
	}()

	wg.Wait()
	close(chunkChan)
	<-done
	close(errChan)

	fileErrs := make(map[string]error)
	for e := range errChan {
		fileErrs[e.path] = e.err
	}
	return collected, fileErrs
}

// embedAndPersist embeds every chunk's content in one batched call,
// writes each chunk (with its embedding attached) to the chunk store,
// and upserts it into the in-memory vector index.
func (ix *Indexer) embedAndPersist(ctx context.Context, projectName string, chunks []models.Chunk) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	embeddings, err := ix.embed.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
		if err := ix.store.SaveChunk(chunks[i]); err != nil {
			return err
		}
		if err := ix.index.Upsert(projectName, chunks[i].ID, chunks[i].Embedding, vectorindex.Metadata{
			ProjectName: projectName,
			FilePath:    chunks[i].FilePath,
			Language:    chunks[i].Language,
			StartLine:   chunks[i].StartLine,
			EndLine:     chunks[i].EndLine,
			Content:     chunks[i].Content,
			ChunkType:   string(chunks[i].ChunkType),
		}); err != nil {
			return err
		}
	}
	return nil
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	out := lines[0]
	for _, l := range lines[1:] {
		out += "\n" + l
	}
	return out
}

func totalLines(chunks []models.Chunk) int {
	seen := map[string]int{}
	for _, c := range chunks {
		if c.EndLine > seen[c.FilePath] {
			seen[c.FilePath] = c.EndLine
		}
	}
	sum := 0
	for _, v := range seen {
		sum += v
	}
	return sum
}

func languageBreakdown(files []DiscoveredFile) map[string]int {
	out := make(map[string]int)
	for _, f := range files {
		out[f.Language]++
	}
	return out
}

func chunkStats(chunks []models.Chunk) models.ProjectStats {
	if len(chunks) == 0 {
		return models.ProjectStats{}
	}
	minSize, maxSize, total := -1, 0, 0
	for _, c := range chunks {
		size := c.EndLine - c.StartLine + 1
		if minSize == -1 || size < minSize {
			minSize = size
		}
		if size > maxSize {
			maxSize = size
		}
		total += size
	}
	avg := float64(total) / float64(len(chunks))
	return models.ProjectStats{
		MinChunkSize:    minSize,
		AvgChunkSize:    avg,
		MaxChunkSize:    maxSize,
		ComplexityScore: avg / float64(DefaultWindowLines),
	}
}
