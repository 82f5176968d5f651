package projectindexer

import "strings"

// languageByExtension maps a lower-cased file extension (including the
// leading dot) to its language tag. Extensions not present here are
// skipped during file discovery; there is no content-sniffing fallback.
var languageByExtension = map[string]string{
	".swift": "swift",
	".py":    "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".java":  "java",
	".rs":    "rust",
	".go":    "go",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".cxx":   "cpp",
	".hpp":   "cpp",
	".hxx":   "cpp",
	".rb":    "ruby",
	".kt":    "kotlin",
	".kts":   "kotlin",
}

// DetectLanguage returns the language tag for path based solely on its
// extension, and whether the extension is recognized.
func DetectLanguage(path string) (string, bool) {
	ext := extensionOf(path)
	lang, ok := languageByExtension[ext]
	return lang, ok
}

// IsSupported reports whether path's extension maps to a known language.
func IsSupported(path string) bool {
	_, ok := DetectLanguage(path)
	return ok
}

func extensionOf(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return ""
	}
	return strings.ToLower(path[idx:])
}
