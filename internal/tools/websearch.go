package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agentcore/core/internal/agent"
	"github.com/agentcore/core/pkg/models"
)

const webSearchSchema = `{
	"type": "object",
	"properties": {
		"query": {"type": "string", "description": "a single search query"},
		"queries": {"type": "array", "items": {"type": "string"}, "description": "multiple search queries to run together"}
	}
}`

// SearchResult is one hit returned by a SearchBackend.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// SearchBackend performs the actual web search, grounded on the
// original implementation's WEB_SEARCH_MODELS-backed online model call
// (backend/app/config.py); here swapped for a pluggable Go interface
// so the tool itself stays provider-agnostic.
type SearchBackend interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// WebSearchTool runs one or more queries against a SearchBackend. It is
// IOHeavy: dispatched through the Executor's worker pool rather than
// inline.
type WebSearchTool struct {
	Backend SearchBackend
}

var _ agent.Tool = WebSearchTool{}

func (WebSearchTool) Name() string            { return "web_search" }
func (WebSearchTool) Description() string     { return "Search the web and return relevant results." }
func (WebSearchTool) Schema() json.RawMessage { return json.RawMessage(webSearchSchema) }
func (WebSearchTool) IOHeavy() bool           { return true }

func (t WebSearchTool) Execute(ctx context.Context, input json.RawMessage, history []agent.ChatMessage, sessionID string) (models.ToolResult, error) {
	var args struct {
		Query   string   `json:"query"`
		Queries []string `json:"queries"`
	}
	if len(input) > 0 {
		if err := json.Unmarshal(input, &args); err != nil {
			return models.ToolResult{}, err
		}
	}
	queries := args.Queries
	if args.Query != "" {
		queries = append(queries, args.Query)
	}
	if len(queries) == 0 {
		return models.ToolResult{Success: false, Error: "no query or queries provided"}, nil
	}

	byQuery := make(map[string][]SearchResult, len(queries))
	for _, q := range queries {
		results, err := t.Backend.Search(ctx, q)
		if err != nil {
			return models.ToolResult{}, fmt.Errorf("web_search %q: %w", q, err)
		}
		byQuery[q] = results
	}
	return models.ToolResult{
		Success: true,
		Fields:  map[string]any{"results": byQuery},
	}, nil
}
