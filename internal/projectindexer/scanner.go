package projectindexer

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/doozMen/codesearch-mcp/internal/errs"
)

// DiscoveredFile is one source file found by Scan.
type DiscoveredFile struct {
	AbsPath  string
	RelPath  string
	Language string
}

// Scan walks root recursively, returning every file whose extension maps
// to a known language, excluding reserved/build/dependency directories
// and hidden entries per Matcher. It returns errs.KindProjectNotFound if
// root does not exist or is not a directory.
func Scan(root string) ([]DiscoveredFile, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, errs.New(errs.KindProjectNotFound, "project root does not exist or is not a directory: "+root)
	}

	matcher := NewMatcher(root)
	var files []DiscoveredFile

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries, continue the walk
		}
		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		if relPath == "." {
			return nil
		}
		if d.IsDir() {
			if matcher.ShouldSkipDir(d.Name(), relPath) {
				return filepath.SkipDir
			}
			return nil
		}
		if matcher.ShouldSkipFile(d.Name(), relPath) {
			return nil
		}
		lang, ok := DetectLanguage(path)
		if !ok {
			return nil
		}
		files = append(files, DiscoveredFile{AbsPath: path, RelPath: relPath, Language: lang})
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return files, nil
}
