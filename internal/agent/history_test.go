package agent

import (
	"encoding/json"
	"testing"

	"github.com/agentcore/core/pkg/models"
)

func TestLoadHistoryForReplayProjectsToolCallAndResult(t *testing.T) {
	messages := []models.Message{
		{
			Role:    models.RoleUser,
			Content: json.RawMessage(`[{"type":"text","text":"what time is it in Tokyo?"}]`),
		},
		{
			Role:       models.RoleAssistant,
			ToolCallID: "call_1",
			ToolName:   "get_current_time",
			ToolInput:  json.RawMessage(`{"timezone":"Asia/Tokyo"}`),
		},
		{
			Role:       models.RoleTool,
			ToolCallID: "call_1",
			ToolOutput: json.RawMessage(`{"success":true,"timezone":"Asia/Tokyo","iso8601":"2026-07-31T09:00:00+09:00"}`),
		},
		{
			Role:    models.RoleAssistant,
			Content: json.RawMessage(`{"type":"assistant_final","final":"It's 9am in Tokyo.","progress":[]}`),
		},
	}

	chat, err := LoadHistoryForReplay(messages)
	if err != nil {
		t.Fatalf("LoadHistoryForReplay: %v", err)
	}
	if len(chat) != 4 {
		t.Fatalf("expected 4 projected messages, got %d", len(chat))
	}

	toolCallMsg := chat[1]
	if len(toolCallMsg.ToolCalls) != 1 || toolCallMsg.ToolCalls[0].Function.Name != "get_current_time" {
		t.Fatalf("unexpected tool call projection: %+v", toolCallMsg)
	}

	toolResultMsg := chat[2]
	if toolResultMsg.ToolCallID != "call_1" {
		t.Fatalf("expected tool_call_id to carry through, got %q", toolResultMsg.ToolCallID)
	}
	if _, ok := toolResultMsg.Content.(string); !ok {
		t.Fatalf("expected a plain-string tool result without image blocks, got %T", toolResultMsg.Content)
	}

	finalMsg := chat[3]
	if finalMsg.Content != "It's 9am in Tokyo." {
		t.Fatalf("expected the final answer text, got %v", finalMsg.Content)
	}
}

func TestProjectToolResultHoistsImageBlocks(t *testing.T) {
	result := models.ToolResult{
		Success: true,
		FileID:  "file-1",
		ImageBlocks: []models.ImageBlock{
			{Type: models.BlockImageURL, ImageURL: &models.ImageURL{URL: "data:image/webp;base64,AA=="}},
		},
	}

	projected, err := ProjectToolResult(result)
	if err != nil {
		t.Fatalf("ProjectToolResult: %v", err)
	}
	blocks, ok := projected.([]models.ContentBlock)
	if !ok {
		t.Fatalf("expected a content-block list, got %T", projected)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected a text block plus one image block, got %d", len(blocks))
	}
	if blocks[0].Type != models.BlockText {
		t.Fatalf("expected the first block to be the sanitized text head, got %v", blocks[0].Type)
	}
	if blocks[1].Type != models.BlockImageURL {
		t.Fatalf("expected the second block to be the image, got %v", blocks[1].Type)
	}
}
