// Package llm provides concrete agent.LLMClient implementations for
// the Anthropic and OpenAI chat-completion APIs.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/agentcore/core/internal/agent"
	"github.com/agentcore/core/pkg/models"
)

// AnthropicClient wraps github.com/anthropics/anthropic-sdk-go,
// grounded on the teacher's internal/agent/providers/anthropic.go.
type AnthropicClient struct {
	client       anthropic.Client
	defaultModel string
}

// NewAnthropicClient builds a client authenticated with apiKey.
func NewAnthropicClient(apiKey, defaultModel string) *AnthropicClient {
	return &AnthropicClient{
		client:       anthropic.NewClient(option.WithAPIKey(apiKey)),
		defaultModel: defaultModel,
	}
}

var _ agent.LLMClient = (*AnthropicClient)(nil)

func (c *AnthropicClient) Stream(ctx context.Context, req agent.CompletionRequest) (<-chan agent.CompletionDelta, error) {
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 4096,
		Messages:  toAnthropicMessages(req.Messages),
		Tools:     toAnthropicTools(req.Tools),
	}
	if req.ToolChoice != nil {
		params.ToolChoice = anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: req.ToolChoice.Function},
		}
	}

	stream := c.client.Messages.NewStreaming(ctx, params)

	out := make(chan agent.CompletionDelta, 16)
	go func() {
		defer close(out)

		toolBlockNames := map[int64]string{}
		toolBlockIDs := map[int64]string{}

		for stream.Next() {
			event := stream.Current()
			switch variant := event.AsAny().(type) {
			case anthropic.ContentBlockStartEvent:
				if tu := variant.ContentBlock.AsAny(); tu != nil {
					if toolUse, ok := tu.(anthropic.ToolUseBlock); ok {
						toolBlockNames[variant.Index] = toolUse.Name
						toolBlockIDs[variant.Index] = toolUse.ID
						out <- agent.CompletionDelta{ToolCallDelta: &agent.ToolCallDelta{
							Index:        int(variant.Index),
							ID:           toolUse.ID,
							NameFragment: toolUse.Name,
						}}
					}
				}
			case anthropic.ContentBlockDeltaEvent:
				switch delta := variant.Delta.AsAny().(type) {
				case anthropic.TextDelta:
					out <- agent.CompletionDelta{Content: delta.Text}
				case anthropic.InputJSONDelta:
					out <- agent.CompletionDelta{ToolCallDelta: &agent.ToolCallDelta{
						Index:             int(variant.Index),
						ArgumentsFragment: delta.PartialJSON,
					}}
				}
			case anthropic.MessageDeltaEvent:
				if stopReason := string(variant.Delta.StopReason); stopReason != "" {
					out <- agent.CompletionDelta{FinishReason: mapAnthropicStopReason(stopReason)}
				}
			}
		}
		if err := stream.Err(); err != nil {
			out <- agent.CompletionDelta{Err: fmt.Errorf("anthropic stream: %w", err)}
		}
	}()

	return out, nil
}

func mapAnthropicStopReason(reason string) string {
	switch reason {
	case "tool_use":
		return "tool_calls"
	case "end_turn", "stop_sequence", "max_tokens":
		return "stop"
	default:
		return reason
	}
}

func toAnthropicTools(schemas []agent.ToolSchema) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(schemas))
	for _, schema := range schemas {
		var inputSchema anthropic.ToolInputSchemaParam
		_ = json.Unmarshal(schema.Parameters, &inputSchema)
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        schema.Name,
				Description: anthropic.String(schema.Description),
				InputSchema: inputSchema,
			},
		})
	}
	return out
}

func toAnthropicMessages(msgs []agent.ChatMessage) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == models.RoleSystem {
			// Anthropic takes the system prompt as a top-level request
			// field; callers that need it must hoist it separately.
			continue
		}

		content := anthropicContentBlocks(m)
		if len(content) == 0 {
			continue
		}

		if m.Role == models.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(content...))
		} else {
			// User and tool roles both map to a user message: a tool
			// result is a content block addressed to the prior
			// assistant tool_use, not a distinct Anthropic role.
			out = append(out, anthropic.NewUserMessage(content...))
		}
	}
	return out
}

// anthropicContentBlocks renders one projected ChatMessage into the
// content-block array Anthropic expects, covering every shape
// projectMessage (history.go) can produce: plain text, []ContentBlock
// (text/image parts), an assistant tool_use request, or a tool result.
// A tool result is sent as text: for a block-list result only its text
// blocks are forwarded, and its image blocks are not.
func anthropicContentBlocks(m agent.ChatMessage) []anthropic.ContentBlockParamUnion {
	var content []anthropic.ContentBlockParamUnion

	if m.Role == models.RoleTool {
		text, ok := m.Content.(string)
		if !ok {
			if blocks, isBlocks := m.Content.([]models.ContentBlock); isBlocks {
				for _, b := range blocks {
					if b.Type == models.BlockText {
						text += b.Text
					}
				}
			}
		}
		content = append(content, anthropic.NewToolResultBlock(m.ToolCallID, text, false))
		return content
	}

	switch v := m.Content.(type) {
	case string:
		if v != "" {
			content = append(content, anthropic.NewTextBlock(v))
		}
	case []models.ContentBlock:
		content = append(content, anthropicBlocksFromParts(v)...)
	}

	for _, tc := range m.ToolCalls {
		var input map[string]any
		if tc.Function.Arguments != "" {
			_ = json.Unmarshal([]byte(tc.Function.Arguments), &input)
		}
		content = append(content, anthropic.NewToolUseBlock(tc.ID, input, tc.Function.Name))
	}

	return content
}

func anthropicBlocksFromParts(parts []models.ContentBlock) []anthropic.ContentBlockParamUnion {
	out := make([]anthropic.ContentBlockParamUnion, 0, len(parts))
	for _, p := range parts {
		switch p.Type {
		case models.BlockImageURL:
			if p.ImageURL == nil {
				continue
			}
			rawType, data, ok := decodeDataURI(p.ImageURL.URL)
			if !ok {
				continue
			}
			mediaType, ok := anthropicMediaType(rawType)
			if !ok {
				continue
			}
			out = append(out, anthropic.ContentBlockParamUnion{
				OfImage: &anthropic.ImageBlockParam{
					Source: anthropic.ImageBlockParamSourceUnion{
						OfBase64: &anthropic.Base64ImageSourceParam{
							MediaType: mediaType,
							Data:      data,
						},
					},
				},
			})
		default:
			if p.Text != "" {
				out = append(out, anthropic.NewTextBlock(p.Text))
			}
		}
	}
	return out
}

func anthropicMediaType(mediaType string) (anthropic.Base64ImageSourceMediaType, bool) {
	switch strings.ToLower(mediaType) {
	case "image/jpeg", "image/jpg":
		return anthropic.Base64ImageSourceMediaTypeImageJPEG, true
	case "image/png":
		return anthropic.Base64ImageSourceMediaTypeImagePNG, true
	case "image/gif":
		return anthropic.Base64ImageSourceMediaTypeImageGIF, true
	case "image/webp":
		return anthropic.Base64ImageSourceMediaTypeImageWebP, true
	default:
		return "", false
	}
}

// decodeDataURI splits a "data:<mime>;base64,<payload>" URI into its
// media type and base64 payload, the shape the loop embeds rendered
// FileStore pages as (see pkg/models/file.go).
func decodeDataURI(uri string) (mediaType, data string, ok bool) {
	const prefix = "data:"
	if !strings.HasPrefix(uri, prefix) {
		return "", "", false
	}
	rest := uri[len(prefix):]
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return "", "", false
	}
	meta, payload := rest[:comma], rest[comma+1:]
	if !strings.HasSuffix(meta, ";base64") {
		return "", "", false
	}
	return strings.TrimSuffix(meta, ";base64"), payload, true
}
