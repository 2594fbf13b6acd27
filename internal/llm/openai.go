package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/agentcore/core/internal/agent"
	"github.com/agentcore/core/pkg/models"
)

// OpenAIClient wraps github.com/sashabaranov/go-openai, grounded on
// the teacher's internal/agent/providers/openai.go indexed tool-call
// delta accumulation.
type OpenAIClient struct {
	client       *openai.Client
	defaultModel string
}

// NewOpenAIClient builds a client authenticated with apiKey.
func NewOpenAIClient(apiKey, defaultModel string) *OpenAIClient {
	return &OpenAIClient{
		client:       openai.NewClient(apiKey),
		defaultModel: defaultModel,
	}
}

var _ agent.LLMClient = (*OpenAIClient)(nil)

func (c *OpenAIClient) Stream(ctx context.Context, req agent.CompletionRequest) (<-chan agent.CompletionDelta, error) {
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: toOpenAIMessages(req.Messages),
		Tools:    toOpenAITools(req.Tools),
		Stream:   true,
	}
	if req.ToolChoice != nil {
		chatReq.ToolChoice = openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: req.ToolChoice.Function},
		}
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("create chat completion stream: %w", err)
	}

	out := make(chan agent.CompletionDelta, 16)
	go func() {
		defer close(out)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				out <- agent.CompletionDelta{Err: fmt.Errorf("openai stream: %w", err)}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			choice := resp.Choices[0]

			if choice.Delta.Content != "" {
				out <- agent.CompletionDelta{Content: choice.Delta.Content}
			}
			for _, tc := range choice.Delta.ToolCalls {
				idx := 0
				if tc.Index != nil {
					idx = *tc.Index
				}
				out <- agent.CompletionDelta{ToolCallDelta: &agent.ToolCallDelta{
					Index:             idx,
					ID:                tc.ID,
					NameFragment:      tc.Function.Name,
					ArgumentsFragment: tc.Function.Arguments,
				}}
			}
			if choice.FinishReason != "" {
				out <- agent.CompletionDelta{FinishReason: mapOpenAIFinishReason(string(choice.FinishReason))}
			}
		}
	}()

	return out, nil
}

func mapOpenAIFinishReason(reason string) string {
	switch reason {
	case "tool_calls":
		return "tool_calls"
	case "stop", "length", "content_filter":
		return "stop"
	default:
		return reason
	}
}

func toOpenAITools(schemas []agent.ToolSchema) []openai.Tool {
	out := make([]openai.Tool, 0, len(schemas))
	for _, schema := range schemas {
		var params map[string]any
		_ = json.Unmarshal(schema.Parameters, &params)
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        schema.Name,
				Description: schema.Description,
				Parameters:  params,
			},
		})
	}
	return out
}

func toOpenAIMessages(msgs []agent.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case models.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case models.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		case models.RoleTool:
			role = openai.ChatMessageRoleTool
		}

		oaiMsg := openai.ChatCompletionMessage{Role: role, ToolCallID: m.ToolCallID}

		switch v := m.Content.(type) {
		case string:
			oaiMsg.Content = v
		case []models.ContentBlock:
			if parts := openAIContentParts(v); len(parts) == 1 && parts[0].Type == openai.ChatMessagePartTypeText {
				oaiMsg.Content = parts[0].Text
			} else {
				oaiMsg.MultiContent = parts
			}
		}

		if len(m.ToolCalls) > 0 {
			oaiMsg.ToolCalls = make([]openai.ToolCall, len(m.ToolCalls))
			for i, tc := range m.ToolCalls {
				oaiMsg.ToolCalls[i] = openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				}
			}
		}

		out = append(out, oaiMsg)
	}
	return out
}

// openAIContentParts renders a projected []models.ContentBlock (text
// and image_url parts) into OpenAI's vision-capable multi-part shape.
func openAIContentParts(blocks []models.ContentBlock) []openai.ChatMessagePart {
	out := make([]openai.ChatMessagePart, 0, len(blocks))
	for _, b := range blocks {
		switch b.Type {
		case models.BlockImageURL:
			if b.ImageURL == nil {
				continue
			}
			out = append(out, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    b.ImageURL.URL,
					Detail: openai.ImageURLDetailAuto,
				},
			})
		default:
			if b.Text != "" {
				out = append(out, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeText,
					Text: b.Text,
				})
			}
		}
	}
	return out
}
