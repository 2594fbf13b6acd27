package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agentcore/core/internal/agent"
	"github.com/agentcore/core/pkg/models"
)

const browseSchema = `{
	"type": "object",
	"properties": {
		"url": {"type": "string", "description": "the page to open"}
	},
	"required": ["url"]
}`

// BrowsedPage is the content a BrowseBackend extracts from a page.
type BrowsedPage struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// BrowseBackend fetches and extracts readable text from a URL,
// grounded on the original implementation's Playwright-backed
// services/playwright_client.py browse() call; here behind an
// interface so the headless-browser dependency stays swappable.
type BrowseBackend interface {
	Browse(ctx context.Context, url string) (BrowsedPage, error)
}

// BrowseTool opens a single URL and returns its extracted text. It is
// IOHeavy: dispatched through the Executor's worker pool.
type BrowseTool struct {
	Backend BrowseBackend
}

var _ agent.Tool = BrowseTool{}

func (BrowseTool) Name() string            { return "browse" }
func (BrowseTool) Description() string     { return "Open a web page and extract its readable text." }
func (BrowseTool) Schema() json.RawMessage { return json.RawMessage(browseSchema) }
func (BrowseTool) IOHeavy() bool           { return true }

func (t BrowseTool) Execute(ctx context.Context, input json.RawMessage, history []agent.ChatMessage, sessionID string) (models.ToolResult, error) {
	var args struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return models.ToolResult{}, err
	}
	if args.URL == "" {
		return models.ToolResult{Success: false, Error: "url is required"}, nil
	}
	page, err := t.Backend.Browse(ctx, args.URL)
	if err != nil {
		return models.ToolResult{}, fmt.Errorf("browse %q: %w", args.URL, err)
	}
	return models.ToolResult{
		Success: true,
		Fields: map[string]any{
			"title": page.Title,
			"text":  page.Text,
		},
	}, nil
}
