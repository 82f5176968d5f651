package projectindexer

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"

	errors "github.com/Laisky/errors/v2"

	"github.com/doozMen/codesearch-mcp/internal/models"
)

// DefaultWindowLines and DefaultOverlapLines are the chunk window size
// and overlap in lines. The spec's Open Question on exact window/overlap
// sizing is resolved here and held stable (see DESIGN.md).
const (
	DefaultWindowLines  = 50
	DefaultOverlapLines = 10
)

// ChunkFile splits a file's content into fixed-size, overlapping line
// windows of kind code. A file of at most DefaultWindowLines lines
// becomes a single chunk of kind file covering the whole file; no
// separate code-kind window is produced for it. Chunk IDs are derived
// from (project, file path, start line) so they stay stable across
// reindexes of unchanged content.
func ChunkFile(projectName, relPath, language, content string) []models.Chunk {
	lines := splitLines(content)
	if len(lines) == 0 {
		return nil
	}

	if len(lines) <= DefaultWindowLines {
		return []models.Chunk{
			newChunk(projectName, relPath, language, lines, 1, len(lines), models.ChunkKindFile),
		}
	}

	var chunks []models.Chunk
	step := DefaultWindowLines - DefaultOverlapLines
	if step <= 0 {
		step = DefaultWindowLines
	}
	for start := 0; start < len(lines); start += step {
		end := start + DefaultWindowLines
		if end > len(lines) {
			end = len(lines)
		}
		chunks = append(chunks, newChunk(projectName, relPath, language, lines[start:end], start+1, end, models.ChunkKindCode))
		if end == len(lines) {
			break
		}
	}
	return chunks
}

func newChunk(projectName, relPath, language string, lines []string, startLine, endLine int, kind models.ChunkKind) models.Chunk {
	content := strings.Join(lines, "\n")
	return models.Chunk{
		ID:          chunkID(projectName, relPath, startLine),
		ProjectName: projectName,
		FilePath:    relPath,
		Language:    language,
		StartLine:   startLine,
		EndLine:     endLine,
		Content:     content,
		ChunkType:   kind,
	}
}

// chunkID derives a stable identifier from the triple that the spec
// requires to stay stable across reindexes of identical content:
// (project name, file path, start line).
func chunkID(projectName, relPath string, startLine int) string {
	h := sha256.New()
	h.Write([]byte(projectName))
	h.Write([]byte{0})
	h.Write([]byte(relPath))
	h.Write([]byte{0})
	h.Write([]byte{byte(startLine), byte(startLine >> 8), byte(startLine >> 16), byte(startLine >> 24)})
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(strings.TrimRight(content, "\n"), "\n")
}

// ReadFileLines reads path and returns its lines, matching the teacher's
// bufio-scanner-based line reader.
func ReadFileLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open file")
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scan file")
	}
	return lines, nil
}
