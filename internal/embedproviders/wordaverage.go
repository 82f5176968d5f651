package embedproviders

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/doozMen/codesearch-mcp/internal/vectormath"
	"github.com/doozMen/codesearch-mcp/internal/wordvec"
)

// WordAverageProvider embeds text by tokenizing on Unicode word
// boundaries, looking up each token in the built-in word-vector table,
// and averaging the vectors that were found. It never errors on content
// it cannot make sense of: text with no in-vocabulary tokens produces
// the zero vector, per the documented degenerate case.
type WordAverageProvider struct{}

// NewWordAverageProvider constructs the local, dependency-free provider.
func NewWordAverageProvider() *WordAverageProvider {
	return &WordAverageProvider{}
}

func (p *WordAverageProvider) Dimensions() int { return wordvec.Dimensions }
func (p *WordAverageProvider) Name() string    { return "word-average" }

var wordBoundary = regexp.MustCompile(`[\p{L}\p{N}]+`)

// tokenize splits text into lower-cased word tokens, further splitting
// camelCase and snake_case identifiers into sub-words (code identifiers
// are the dominant input shape), and drops tokens of length <= 1 or
// composed entirely of punctuation/digits with no letters.
func tokenize(text string) []string {
	raw := wordBoundary.FindAllString(text, -1)
	var out []string
	for _, tok := range raw {
		for _, sub := range splitIdentifier(tok) {
			sub = strings.ToLower(sub)
			if len(sub) <= 1 {
				continue
			}
			if !containsLetter(sub) {
				continue
			}
			out = append(out, sub)
		}
	}
	return out
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// splitIdentifier breaks a camelCase/PascalCase/snake_case token into its
// constituent words, e.g. "userAccount" -> ["user","Account"].
func splitIdentifier(tok string) []string {
	if strings.Contains(tok, "_") {
		var parts []string
		for _, p := range strings.Split(tok, "_") {
			if p != "" {
				parts = append(parts, splitCamelCase(p)...)
			}
		}
		return parts
	}
	return splitCamelCase(tok)
}

func splitCamelCase(tok string) []string {
	runes := []rune(tok)
	if len(runes) == 0 {
		return nil
	}
	var words []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prevLower := unicode.IsLower(runes[i-1])
		curUpper := unicode.IsUpper(runes[i])
		if curUpper && prevLower {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}
	words = append(words, string(runes[start:]))
	return words
}

// EmbedOne averages the in-vocabulary token vectors found in text.
func (p *WordAverageProvider) EmbedOne(_ context.Context, text string) ([]float32, error) {
	if err := validateNonEmpty(text); err != nil {
		return nil, err
	}
	var found [][]float32
	for _, tok := range tokenize(text) {
		if v, ok := wordvec.Lookup(tok); ok {
			found = append(found, v)
		}
	}
	if len(found) == 0 {
		return make([]float32, wordvec.Dimensions), nil
	}
	return vectormath.Normalize(vectormath.Average(found)), nil
}

// EmbedMany embeds texts sequentially, which the spec explicitly permits
// for this provider since it performs no network or subprocess I/O.
func (p *WordAverageProvider) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := p.EmbedOne(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
