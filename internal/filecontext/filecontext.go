// Package filecontext implements the file_context tool's logic: read a
// file, widen a requested line range by a context margin, and report
// the unwidened range back as the caller's focus.
package filecontext

import (
	"strings"

	"github.com/doozMen/codesearch-mcp/internal/errs"
	"github.com/doozMen/codesearch-mcp/internal/projectindexer"
)

// DefaultContextLines is used when a caller does not specify one.
const DefaultContextLines = 3

// Result is the projection returned to the file_context tool handler.
type Result struct {
	FilePath   string
	Language   string
	StartLine  int
	EndLine    int
	FocusStart int
	FocusEnd   int
	Content    string
	TotalLines int
}

// Read returns the content of path widened around [startLine, endLine]
// by contextLines on each side, clamped to the file's own bounds. A
// zero startLine/endLine (both unset) returns the whole file, with
// focus equal to the full range. contextLines <= 0 uses
// DefaultContextLines.
//
// errs.KindProjectNotFound is reported for a missing or unreadable path.
// InvalidRange is reported when exactly one of startLine/endLine is
// given, when startLine > endLine, or when either falls outside
// [1, file-line-count].
func Read(path string, startLine, endLine, contextLines int) (Result, error) {
	lines, err := projectindexer.ReadFileLines(path)
	if err != nil {
		return Result{}, errs.Wrap(errs.KindProjectNotFound, err, "file not found: "+path)
	}
	total := len(lines)

	if contextLines <= 0 {
		contextLines = DefaultContextLines
	}

	if startLine == 0 && endLine == 0 {
		return Result{
			FilePath:   path,
			Language:   languageOf(path),
			StartLine:  1,
			EndLine:    total,
			FocusStart: 1,
			FocusEnd:   total,
			Content:    strings.Join(lines, "\n"),
			TotalLines: total,
		}, nil
	}

	if startLine == 0 || endLine == 0 {
		return Result{}, errs.New(errs.KindInvalidRange, "startLine and endLine must both be given, or both omitted")
	}
	if startLine > endLine {
		return Result{}, errs.New(errs.KindInvalidRange, "startLine must not exceed endLine")
	}
	if startLine < 1 || endLine > total {
		return Result{}, errs.New(errs.KindInvalidRange, "line range out of bounds")
	}

	widenedStart := startLine - contextLines
	if widenedStart < 1 {
		widenedStart = 1
	}
	widenedEnd := endLine + contextLines
	if widenedEnd > total {
		widenedEnd = total
	}

	return Result{
		FilePath:   path,
		Language:   languageOf(path),
		StartLine:  widenedStart,
		EndLine:    widenedEnd,
		FocusStart: startLine,
		FocusEnd:   endLine,
		Content:    strings.Join(lines[widenedStart-1:widenedEnd], "\n"),
		TotalLines: total,
	}, nil
}

func languageOf(path string) string {
	lang, _ := projectindexer.DetectLanguage(path)
	return lang
}
