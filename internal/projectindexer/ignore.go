package projectindexer

import (
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// DefaultReservedDirs names are always skipped during file discovery
// (VCS metadata, build output, and common dependency directories)
// regardless of any project .gitignore.
var DefaultReservedDirs = []string{
	".git", ".hg", ".svn",
	"node_modules", "vendor", ".build", "build", "dist", "out", "target",
	".venv", "venv", "__pycache__", ".idea", ".vscode",
}

// DefaultHiddenWhitelist names hidden (dot-prefixed) entries that are
// still walked even though they start with a dot.
var DefaultHiddenWhitelist = map[string]bool{}

// Matcher decides whether a path should be excluded from indexing. It
// combines a fixed reserved-directory list with the project's own
// .gitignore, matched via github.com/sabhiram/go-gitignore the same way
// shotgun_code's tree builder matches paths (relative, with a trailing
// separator appended for directories).
type Matcher struct {
	reserved  map[string]bool
	whitelist map[string]bool
	gitIgn    *gitignore.GitIgnore
}

// NewMatcher builds a Matcher for a project rooted at root, loading
// root/.gitignore if present.
func NewMatcher(root string) *Matcher {
	m := &Matcher{
		reserved:  make(map[string]bool, len(DefaultReservedDirs)),
		whitelist: DefaultHiddenWhitelist,
	}
	for _, d := range DefaultReservedDirs {
		m.reserved[d] = true
	}
	gitignorePath := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(gitignorePath); err == nil {
		if ign, err := gitignore.CompileIgnoreFile(gitignorePath); err == nil {
			m.gitIgn = ign
		}
	}
	return m
}

// ShouldSkipDir reports whether the directory entry named name (with
// relative path relPath from the project root) should be excluded from
// the walk entirely.
func (m *Matcher) ShouldSkipDir(name, relPath string) bool {
	if m.reserved[name] {
		return true
	}
	if m.isHidden(name) {
		return true
	}
	if m.gitIgn != nil {
		match := strings.TrimSuffix(relPath, string(filepath.Separator)) + string(filepath.Separator)
		if m.gitIgn.MatchesPath(match) {
			return true
		}
	}
	return false
}

// ShouldSkipFile reports whether the file entry named name (with
// relative path relPath) should be excluded.
func (m *Matcher) ShouldSkipFile(name, relPath string) bool {
	if m.isHidden(name) {
		return true
	}
	if m.gitIgn != nil && m.gitIgn.MatchesPath(relPath) {
		return true
	}
	return false
}

func (m *Matcher) isHidden(name string) bool {
	if !strings.HasPrefix(name, ".") {
		return false
	}
	return !m.whitelist[name]
}
