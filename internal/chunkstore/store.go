// Package chunkstore persists Chunk and Project records to disk under a
// configured index directory:
//
//	<indexDir>/chunks/<project-name>/<chunk-id>.yaml
//	<indexDir>/embeddings/                (owned by internal/embedservice)
//	<indexDir>/project_registry.yaml
//	<indexDir>/dependencies/<project-name>.graph.yaml  (optional, unused by search)
//
// Atomicity is not required at record granularity: a reindex that
// crashes mid-way leaves the project in a partial state, recoverable by
// a subsequent reindex.
package chunkstore

import (
	"os"
	"path/filepath"
	"strings"

	errors "github.com/Laisky/errors/v2"
	"gopkg.in/yaml.v3"

	"github.com/doozMen/codesearch-mcp/internal/models"
)

// Store is the on-disk chunk and registry persistence layer.
type Store struct {
	root string
}

// New returns a Store rooted at indexDir, creating the directory layout
// if it does not already exist.
func New(indexDir string) (*Store, error) {
	s := &Store{root: indexDir}
	for _, dir := range []string{s.chunksDir(), s.embeddingsDir(), s.dependenciesDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create chunk store directory")
		}
	}
	return s, nil
}

func (s *Store) chunksDir() string               { return filepath.Join(s.root, "chunks") }
func (s *Store) projectDir(project string) string { return filepath.Join(s.chunksDir(), project) }
func (s *Store) embeddingsDir() string            { return filepath.Join(s.root, "embeddings") }
func (s *Store) dependenciesDir() string          { return filepath.Join(s.root, "dependencies") }
func (s *Store) registryPath() string             { return filepath.Join(s.root, "project_registry.yaml") }

// EmbeddingsDir returns the directory the embedding cache should use,
// so embedservice.Service and Store agree on the layout in §4.4.
func (s *Store) EmbeddingsDir() string { return s.embeddingsDir() }

// SaveChunk writes (or overwrites) one chunk record.
func (s *Store) SaveChunk(c models.Chunk) error {
	dir := s.projectDir(c.ProjectName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create project chunk directory")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal chunk")
	}
	path := filepath.Join(dir, c.ID+".yaml")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "write chunk file")
	}
	return os.Rename(tmp, path)
}

// ListProjectChunks returns every chunk persisted for project. Unknown
// projects (no chunk directory yet) return an empty, non-error result.
func (s *Store) ListProjectChunks(project string) ([]models.Chunk, error) {
	dir := s.projectDir(project)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read project chunk directory")
	}
	var chunks []models.Chunk
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		c, err := s.readChunkFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue // forward-readable: skip unparsable/partial entries
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}

// ListAllChunks returns every chunk across every project.
func (s *Store) ListAllChunks() ([]models.Chunk, error) {
	entries, err := os.ReadDir(s.chunksDir())
	if err != nil {
		return nil, errors.Wrap(err, "read chunks directory")
	}
	var all []models.Chunk
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		chunks, err := s.ListProjectChunks(e.Name())
		if err != nil {
			return nil, err
		}
		all = append(all, chunks...)
	}
	return all, nil
}

func (s *Store) readChunkFile(path string) (models.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Chunk{}, err
	}
	var c models.Chunk
	if err := yaml.Unmarshal(data, &c); err != nil {
		return models.Chunk{}, err
	}
	return c, nil
}

// DeleteProjectChunks removes the entire chunk directory for project.
func (s *Store) DeleteProjectChunks(project string) error {
	err := os.RemoveAll(s.projectDir(project))
	if err != nil {
		return errors.Wrap(err, "delete project chunks")
	}
	return nil
}

// DeleteAll removes the entire index tree (chunks, embeddings cache,
// dependency graphs, and the project registry).
func (s *Store) DeleteAll() error {
	if err := os.RemoveAll(s.chunksDir()); err != nil {
		return errors.Wrap(err, "delete chunks directory")
	}
	if err := os.RemoveAll(s.embeddingsDir()); err != nil {
		return errors.Wrap(err, "delete embeddings directory")
	}
	if err := os.RemoveAll(s.dependenciesDir()); err != nil {
		return errors.Wrap(err, "delete dependencies directory")
	}
	if err := os.Remove(s.registryPath()); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "delete project registry")
	}
	return os.MkdirAll(s.chunksDir(), 0o755)
}

// LoadRegistry reads the project registry, returning an empty registry
// if none has been persisted yet.
func (s *Store) LoadRegistry() (*models.Registry, error) {
	data, err := os.ReadFile(s.registryPath())
	if os.IsNotExist(err) {
		return &models.Registry{Projects: map[string]*models.Project{}}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read project registry")
	}
	var reg models.Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, errors.Wrap(err, "unmarshal project registry")
	}
	if reg.Projects == nil {
		reg.Projects = map[string]*models.Project{}
	}
	return &reg, nil
}

// SaveRegistry persists the project registry.
func (s *Store) SaveRegistry(reg *models.Registry) error {
	data, err := yaml.Marshal(reg)
	if err != nil {
		return errors.Wrap(err, "marshal project registry")
	}
	tmp := s.registryPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "write project registry")
	}
	return os.Rename(tmp, s.registryPath())
}
