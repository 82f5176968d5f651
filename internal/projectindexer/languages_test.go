package projectindexer

import "testing"

func TestDetectLanguageKnownExtensions(t *testing.T) {
	cases := map[string]string{
		"a.swift": "swift",
		"b.py":    "python",
		"c.js":    "javascript",
		"d.ts":    "typescript",
		"e.java":  "java",
		"f.rs":    "rust",
		"g.go":    "go",
		"h.c":     "c",
		"i.hpp":   "cpp",
		"j.rb":    "ruby",
		"k.kt":    "kotlin",
	}
	for path, want := range cases {
		got, ok := DetectLanguage(path)
		if !ok || got != want {
			t.Errorf("DetectLanguage(%q) = (%q, %v), want (%q, true)", path, got, ok, want)
		}
	}
}

func TestDetectLanguageUnknownExtension(t *testing.T) {
	if _, ok := DetectLanguage("file.unknownext"); ok {
		t.Fatal("expected unknown extension to be unsupported")
	}
}

func TestIsSupported(t *testing.T) {
	if !IsSupported("main.go") {
		t.Fatal("main.go should be supported")
	}
	if IsSupported("README.md") {
		t.Fatal("README.md should not be supported")
	}
}
