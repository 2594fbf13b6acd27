package agent

import (
	"encoding/json"

	"github.com/agentcore/core/pkg/models"
)

// LoadHistoryForReplay projects stored messages into the LLM-chat
// shape (spec §4.2). The projection must be lossless enough that
// re-driving the model on the result reproduces the same tool_call /
// stop behavior modulo model nondeterminism.
func LoadHistoryForReplay(messages []models.Message) ([]ChatMessage, error) {
	out := make([]ChatMessage, 0, len(messages))
	for _, m := range messages {
		chat, err := projectMessage(m)
		if err != nil {
			return nil, err
		}
		out = append(out, chat)
	}
	return out, nil
}

func projectMessage(m models.Message) (ChatMessage, error) {
	switch m.Role {
	case models.RoleUser:
		var blocks []models.ContentBlock
		if len(m.Content) > 0 {
			if err := json.Unmarshal(m.Content, &blocks); err != nil {
				return ChatMessage{}, err
			}
		}
		return ChatMessage{Role: models.RoleUser, Content: blocks}, nil

	case models.RoleAssistant:
		if m.ToolCallID != "" {
			return ChatMessage{
				Role: models.RoleAssistant,
				ToolCalls: []ChatToolCallSpec{{
					ID:   m.ToolCallID,
					Type: "function",
					Function: ChatToolCallSpecFun{
						Name:      m.ToolName,
						Arguments: string(orEmptyObject(m.ToolInput)),
					},
				}},
			}, nil
		}
		if m.ToolName == models.AssistantArtifactTool {
			var blocks []models.ContentBlock
			if err := json.Unmarshal(m.Content, &blocks); err != nil {
				return ChatMessage{}, err
			}
			return ChatMessage{Role: models.RoleAssistant, Content: blocks}, nil
		}

		var final models.AssistantFinal
		if err := json.Unmarshal(m.Content, &final); err == nil && final.Type == "assistant_final" {
			return ChatMessage{Role: models.RoleAssistant, Content: final.Final}, nil
		}
		var list []models.ContentBlock
		if err := json.Unmarshal(m.Content, &list); err == nil {
			return ChatMessage{Role: models.RoleAssistant, Content: list}, nil
		}
		var str string
		if err := json.Unmarshal(m.Content, &str); err == nil {
			return ChatMessage{Role: models.RoleAssistant, Content: str}, nil
		}
		return ChatMessage{Role: models.RoleAssistant, Content: string(m.Content)}, nil

	case models.RoleTool:
		projected, err := projectToolOutput(m.ToolOutput)
		if err != nil {
			return ChatMessage{}, err
		}
		return ChatMessage{Role: models.RoleTool, Content: projected, ToolCallID: m.ToolCallID}, nil

	default: // system
		return ChatMessage{Role: m.Role, Content: string(m.Content)}, nil
	}
}

func projectToolOutput(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var result models.ToolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		// Not a JSON object: pass through as a plain string.
		var str string
		if err2 := json.Unmarshal(raw, &str); err2 == nil {
			return str, nil
		}
		return string(raw), nil
	}
	return ProjectToolResult(result)
}

// ProjectToolResult implements the tool-result projection rule: when
// the result carries image_blocks, hoist them into a list headed by
// the sanitized JSON (image_blocks stripped) as a text block, followed
// by each image block; otherwise return the plain JSON encoding.
func ProjectToolResult(result models.ToolResult) (any, error) {
	if len(result.ImageBlocks) == 0 {
		encoded, err := json.Marshal(result)
		if err != nil {
			return nil, err
		}
		return string(encoded), nil
	}

	sanitized, err := result.WithoutImageBlocks()
	if err != nil {
		return nil, err
	}

	blocks := make([]models.ContentBlock, 0, len(result.ImageBlocks)+1)
	blocks = append(blocks, models.TextBlock(string(sanitized)))
	blocks = append(blocks, result.ImageBlocks...)
	return blocks, nil
}

func orEmptyObject(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("{}")
	}
	return raw
}
