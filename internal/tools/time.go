package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agentcore/core/internal/agent"
	"github.com/agentcore/core/pkg/models"
)

const currentTimeSchema = `{
	"type": "object",
	"properties": {
		"timezone": {"type": "string", "description": "IANA timezone name, e.g. America/New_York; defaults to UTC"}
	}
}`

// CurrentTimeTool reports the current time in a requested timezone.
type CurrentTimeTool struct{}

var _ agent.Tool = CurrentTimeTool{}

func (CurrentTimeTool) Name() string            { return "get_current_time" }
func (CurrentTimeTool) Description() string     { return "Get the current date and time in a given timezone." }
func (CurrentTimeTool) Schema() json.RawMessage { return json.RawMessage(currentTimeSchema) }
func (CurrentTimeTool) IOHeavy() bool           { return false }

func (CurrentTimeTool) Execute(ctx context.Context, input json.RawMessage, history []agent.ChatMessage, sessionID string) (models.ToolResult, error) {
	var args struct {
		Timezone string `json:"timezone"`
	}
	if len(input) > 0 {
		if err := json.Unmarshal(input, &args); err != nil {
			return models.ToolResult{}, err
		}
	}
	tzName := args.Timezone
	if tzName == "" {
		tzName = "UTC"
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return models.ToolResult{
			Success: false,
			Error:   fmt.Sprintf("unknown timezone %q: %v", tzName, err),
		}, nil
	}
	now := time.Now().In(loc)
	return models.ToolResult{
		Success: true,
		Fields: map[string]any{
			"timezone": tzName,
			"iso8601":  now.Format(time.RFC3339),
		},
	}, nil
}
