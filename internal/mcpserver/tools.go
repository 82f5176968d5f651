package mcpserver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Laisky/zap"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/doozMen/codesearch-mcp/internal/errs"
	"github.com/doozMen/codesearch-mcp/internal/filecontext"
	"github.com/doozMen/codesearch-mcp/internal/models"
)

// tools returns the §6.1 tool surface, in the teacher's mcp.Tool /
// mcp.ToolInputSchema literal style.
func (s *Server) tools() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "semantic_search",
			Description: "Search indexed codebases using a natural-language or code-snippet query. Returns ranked, deduplicated matches with file, line range, language, and relevance.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "Natural-language or code-snippet search query.",
					},
					"maxResults": map[string]interface{}{
						"type":        "number",
						"description": "Maximum number of results to return (default 10).",
						"default":     10,
					},
					"projectFilter": map[string]interface{}{
						"type":        "string",
						"description": "Restrict results to one previously indexed project name.",
					},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        "file_context",
			Description: "Read a file and return a line range widened by a context margin, with the originally requested range reported back as the focus.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"filePath": map[string]interface{}{
						"type":        "string",
						"description": "Path to the file to read.",
					},
					"startLine": map[string]interface{}{
						"type":        "number",
						"description": "1-indexed start line of the range to focus on. Omit along with endLine for the whole file.",
					},
					"endLine": map[string]interface{}{
						"type":        "number",
						"description": "1-indexed, inclusive end line of the range to focus on.",
					},
					"contextLines": map[string]interface{}{
						"type":        "number",
						"description": "Lines of context to include on each side of the focus range (default 3).",
						"default":     3,
					},
				},
				Required: []string{"filePath"},
			},
		},
		{
			Name:        "find_related",
			Description: "Find files related to filePath by import relationship. Not implemented in this build.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"filePath": map[string]interface{}{
						"type":        "string",
						"description": "Path to the file whose relations to find.",
					},
					"direction": map[string]interface{}{
						"type":        "string",
						"description": "Which relation direction to report.",
						"enum":        []string{"imports", "imports_from", "both"},
						"default":     "both",
					},
				},
				Required: []string{"filePath"},
			},
		},
		{
			Name:        "index_status",
			Description: "Report embedding cache statistics, the active embedding provider, the index directory, and overall server status.",
			InputSchema: mcp.ToolInputSchema{Type: "object"},
		},
		{
			Name:        "reload_index",
			Description: "Reindex one project (or every registered project) from source: rescans files, regenerates embeddings, and replaces that project's chunk records.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"projectName": map[string]interface{}{
						"type":        "string",
						"description": "Project to reindex. Omit to reindex every registered project.",
					},
				},
			},
		},
		{
			Name:        "clear_index",
			Description: "Delete all chunk records, embedding cache entries, and the project registry. Destructive; requires confirm=true.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"confirm": map[string]interface{}{
						"type":        "boolean",
						"description": "Must be true; the call is refused otherwise.",
					},
				},
				Required: []string{"confirm"},
			},
		},
		{
			Name:        "list_projects",
			Description: "List every registered project with its path, status, file/chunk/line counts, top languages, and last-updated time.",
			InputSchema: mcp.ToolInputSchema{Type: "object"},
		},
	}
}

// handlerFor routes one tool name to its handler, matching the
// teacher's single-dispatch createToolHandler shape.
func (s *Server) handlerFor(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := argsOf(request)
		switch name {
		case "semantic_search":
			return s.handleSemanticSearch(ctx, args)
		case "file_context":
			return s.handleFileContext(args)
		case "find_related":
			return s.handleFindRelated(args)
		case "index_status":
			return s.handleIndexStatus()
		case "reload_index":
			return s.handleReloadIndex(ctx, args)
		case "clear_index":
			return s.handleClearIndex(args)
		case "list_projects":
			return s.handleListProjects()
		default:
			return s.errResult(errs.KindInvalidParams, "unknown tool: "+name), nil
		}
	}
}

func argsOf(request mcp.CallToolRequest) map[string]interface{} {
	if m, ok := request.Params.Arguments.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

func (s *Server) handleSemanticSearch(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return s.errResult(errs.KindInvalidParams, "query is required and must be a non-empty string"), nil
	}
	maxResults := intArg(args, "maxResults", s.cfg.Search.MaxResults)
	projectFilter, _ := args["projectFilter"].(string)
	if projectFilter == "" {
		projectFilter = s.cfg.Projects.DefaultProjectName
	}

	results, err := s.search.Search(ctx, query, maxResults, projectFilter)
	if err != nil {
		return s.errResult(errs.KindOf(err), errs.Message(err)), nil
	}
	return textResult(formatSearchResults(results)), nil
}

func formatSearchResults(results []models.SearchResult) string {
	if len(results) == 0 {
		return "No results found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d results:\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s:%d-%d\n", i+1, r.FilePath, r.StartLine, r.EndLine)
		fmt.Fprintf(&b, "   language: %s, relevance: %.2f\n", r.Language, r.Relevance)
		fmt.Fprintf(&b, "   %s\n\n", r.Content)
	}
	return b.String()
}

func (s *Server) handleFileContext(args map[string]interface{}) (*mcp.CallToolResult, error) {
	filePath, _ := args["filePath"].(string)
	if filePath == "" {
		return s.errResult(errs.KindInvalidParams, "filePath is required"), nil
	}
	startLine := intArg(args, "startLine", 0)
	endLine := intArg(args, "endLine", 0)
	contextLines := intArg(args, "contextLines", s.filecontextDefaultContextLines())

	res, err := filecontext.Read(filePath, startLine, endLine, contextLines)
	if err != nil {
		return s.errResult(errs.KindOf(err), errs.Message(err)), nil
	}

	text := fmt.Sprintf("%s (%s) lines %d-%d (focus %d-%d):\n\n%s",
		res.FilePath, res.Language, res.StartLine, res.EndLine, res.FocusStart, res.FocusEnd, res.Content)
	return textResult(text), nil
}

func (s *Server) handleFindRelated(args map[string]interface{}) (*mcp.CallToolResult, error) {
	return s.errResult(errs.KindInternal, "find_related is not implemented"), nil
}

func (s *Server) handleIndexStatus() (*mcp.CallToolResult, error) {
	stats := s.embed.Stats()
	idxStats := s.index.Stats()
	var b strings.Builder
	fmt.Fprintf(&b, "status: ok\n")
	fmt.Fprintf(&b, "embedding provider: %s\n", s.embed.ProviderName())
	fmt.Fprintf(&b, "index directory: %s\n", s.cfg.Cache.Directory)
	fmt.Fprintf(&b, "cache: %d cached, %d hits, %d misses, hit rate %.2f\n", stats.TotalCached, stats.Hits, stats.Misses, stats.HitRate)
	fmt.Fprintf(&b, "in-memory index: %d chunks, %.2f MB\n", idxStats.TotalChunks, idxStats.UsedMB)
	qstats := s.queue.Stats()
	fmt.Fprintf(&b, "queue: %d pending, %d active, %d completed\n", qstats.Pending, qstats.Active, qstats.Completed)
	return textResult(b.String()), nil
}

func (s *Server) handleReloadIndex(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	projectName, _ := args["projectName"].(string)

	if projectName != "" {
		jobID := s.enqueueReindex(projectName)
		return textResult(fmt.Sprintf("reindexing %q (job %s)", projectName, jobID)), nil
	}

	reg := s.idx.Registry()
	if len(reg.Projects) == 0 {
		return textResult("no registered projects to reload"), nil
	}
	var ids []string
	for name := range reg.Projects {
		ids = append(ids, s.enqueueReindex(name))
	}
	return textResult(fmt.Sprintf("reindexing %d projects (jobs: %s)", len(ids), strings.Join(ids, ", "))), nil
}

func (s *Server) enqueueReindex(projectName string) string {
	return s.queue.Enqueue(projectName, models.PriorityHigh, func() (int, int, error) {
		proj, err := s.idx.ReindexProject(context.Background(), projectName)
		if err != nil {
			return 0, 0, err
		}
		return proj.FileCount, proj.ChunkCount, nil
	})
}

func (s *Server) handleClearIndex(args map[string]interface{}) (*mcp.CallToolResult, error) {
	confirm, _ := args["confirm"].(bool)
	if !confirm {
		return s.errResult(errs.KindInvalidParams, "clear_index requires confirm=true"), nil
	}
	if err := s.idx.ClearAll(); err != nil {
		return s.errResult(errs.KindOf(err), errs.Message(err)), nil
	}
	s.log.Info("index cleared via clear_index tool")
	return textResult("index cleared"), nil
}

func (s *Server) handleListProjects() (*mcp.CallToolResult, error) {
	reg := s.idx.Registry()
	if len(reg.Projects) == 0 {
		return textResult("no registered projects"), nil
	}
	names := make([]string, 0, len(reg.Projects))
	for name := range reg.Projects {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		p := reg.Projects[name]
		fmt.Fprintf(&b, "%s (%s)\n", p.Name, p.Status)
		fmt.Fprintf(&b, "  path: %s\n", p.RootPath)
		fmt.Fprintf(&b, "  files: %d, chunks: %d, lines: %d\n", p.FileCount, p.ChunkCount, p.LineCount)
		fmt.Fprintf(&b, "  top languages: %s\n", topLanguages(p.LanguageCounts, 3))
		fmt.Fprintf(&b, "  last updated: %s\n\n", p.LastUpdated.Format("2006-01-02T15:04:05Z07:00"))
	}
	return textResult(b.String()), nil
}

func topLanguages(counts map[string]int, n int) string {
	type pair struct {
		lang  string
		count int
	}
	pairs := make([]pair, 0, len(counts))
	for l, c := range counts {
		pairs = append(pairs, pair{l, c})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count != pairs[j].count {
			return pairs[i].count > pairs[j].count
		}
		return pairs[i].lang < pairs[j].lang
	})
	if len(pairs) > n {
		pairs = pairs[:n]
	}
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = fmt.Sprintf("%s (%d)", p.lang, p.count)
	}
	return strings.Join(parts, ", ")
}

func intArg(args map[string]interface{}, key string, def int) int {
	v, ok := args[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return def
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
	}
}

func (s *Server) errResult(kind errs.Kind, message string) *mcp.CallToolResult {
	s.log.Debug("tool error", zap.String("kind", string(kind)), zap.String("message", message))
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: fmt.Sprintf("[%s] %s", kind, message)}},
		IsError: true,
	}
}
