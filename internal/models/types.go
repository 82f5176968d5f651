// Package models defines the data types shared across the indexing and
// search pipeline: chunks, embeddings, project metadata, indexing jobs,
// and search results.
package models

import "time"

// ChunkKind tags the shape of a Chunk.
type ChunkKind string

const (
	ChunkKindCode     ChunkKind = "code"
	ChunkKindFunction ChunkKind = "function"
	ChunkKindBlock    ChunkKind = "block"
	ChunkKindFile     ChunkKind = "file"
)

// Chunk is a fixed-shape slice of a source file: a stable ID, the
// project and file it belongs to, its 1-indexed inclusive line range,
// its raw content, and (once embedded) a dense vector. EndLine >= StartLine
// and len(strings.Split(Content, "\n")) == EndLine-StartLine+1 always hold.
type Chunk struct {
	ID          string    `yaml:"id" json:"id"`
	ProjectName string    `yaml:"project_name" json:"project_name"`
	FilePath    string    `yaml:"file_path" json:"file_path"`
	Language    string    `yaml:"language" json:"language"`
	StartLine   int       `yaml:"start_line" json:"start_line"`
	EndLine     int       `yaml:"end_line" json:"end_line"`
	Content     string    `yaml:"content" json:"content"`
	ChunkType   ChunkKind `yaml:"chunk_type" json:"chunk_type"`
	Embedding   []float32 `yaml:"embedding,omitempty" json:"embedding,omitempty"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
}

// ProjectStatus tracks a project's place in the indexing lifecycle.
type ProjectStatus string

const (
	ProjectStatusPending   ProjectStatus = "pending"
	ProjectStatusIndexing  ProjectStatus = "indexing"
	ProjectStatusComplete  ProjectStatus = "complete"
	ProjectStatusFailed    ProjectStatus = "failed"
	ProjectStatusPartial   ProjectStatus = "partial"
)

// ProjectStats summarizes chunk-size and complexity characteristics of
// an indexed project, persisted with its registry entry.
type ProjectStats struct {
	MinChunkSize   int     `yaml:"min_chunk_size" json:"min_chunk_size"`
	AvgChunkSize   float64 `yaml:"avg_chunk_size" json:"avg_chunk_size"`
	MaxChunkSize   int     `yaml:"max_chunk_size" json:"max_chunk_size"`
	ComplexityScore float64 `yaml:"complexity_score" json:"complexity_score"`
}

// Project is the persisted metadata record for one indexed project.
type Project struct {
	ID              string           `yaml:"id" json:"id"`
	Name            string           `yaml:"name" json:"name"`
	RootPath        string           `yaml:"root_path" json:"root_path"`
	FirstIndexed    time.Time        `yaml:"first_indexed" json:"first_indexed"`
	LastUpdated     time.Time        `yaml:"last_updated" json:"last_updated"`
	FileCount       int              `yaml:"file_count" json:"file_count"`
	ChunkCount      int              `yaml:"chunk_count" json:"chunk_count"`
	LineCount       int              `yaml:"line_count" json:"line_count"`
	LanguageCounts  map[string]int   `yaml:"language_counts" json:"language_counts"`
	Stats           ProjectStats     `yaml:"stats" json:"stats"`
	Status          ProjectStatus    `yaml:"status" json:"status"`
}

// Registry is the name->metadata map loaded at startup and persisted
// after every completed reindex or clear.
type Registry struct {
	Projects map[string]*Project `yaml:"projects" json:"projects"`
}

// JobPriority orders queued indexing work; higher runs first.
type JobPriority int

const (
	PriorityLow JobPriority = iota
	PriorityNormal
	PriorityHigh
)

func (p JobPriority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityLow:
		return "low"
	default:
		return "normal"
	}
}

// JobStatus tracks a Job's lifecycle; terminal states (Completed,
// Failed) never transition once reached.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// JobCounts reports the outcome of a completed indexing job.
type JobCounts struct {
	Files  int `json:"files"`
	Chunks int `json:"chunks"`
}

// Job is a unit of queued indexing work.
type Job struct {
	ID          string      `json:"id"`
	ProjectName string      `json:"project_name"`
	Priority    JobPriority `json:"priority"`
	Status      JobStatus   `json:"status"`
	Counts      *JobCounts  `json:"counts,omitempty"`
	Error       string      `json:"error,omitempty"`
	QueuedAt    time.Time   `json:"queued_at"`
}

// SearchResultKind tags what produced a SearchResult.
type SearchResultKind string

const (
	SearchResultKindSemantic    SearchResultKind = "semantic"
	SearchResultKindFileContext SearchResultKind = "file_context"
)

// SearchResult is the projection returned to callers: a scored,
// deduplicated match with enough context to render without reopening
// the source file.
type SearchResult struct {
	ID          string                 `json:"id"`
	ProjectName string                 `json:"project_name"`
	FilePath    string                 `json:"file_path"`
	Language    string                 `json:"language"`
	StartLine   int                    `json:"start_line"`
	EndLine     int                    `json:"end_line"`
	Content     string                 `json:"content"`
	Kind        SearchResultKind       `json:"kind"`
	Relevance   float64                `json:"relevance"`
	MatchReason string                 `json:"match_reason"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}
