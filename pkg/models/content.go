package models

import "encoding/json"

// BlockType enumerates the content-block tags used throughout user,
// artifact, and projected tool-result messages.
type BlockType string

const (
	BlockText     BlockType = "text"
	BlockImageURL BlockType = "image_url"
)

// ImageURL is the inline payload of an image content block; URL is a
// data:image/webp;base64,... URI produced by the file-rendering
// pipeline (an external collaborator — see FileStore).
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// ContentBlock is a single element of a typed-blocks content array
// (user messages, artifact messages, and image-bearing tool results).
type ContentBlock struct {
	Type     BlockType `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// TextBlock builds a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// ImageBlock is the shape a tool embeds in ToolResult.ImageBlocks;
// identical in shape to a ContentBlock of type image_url.
type ImageBlock = ContentBlock

// AssistantFinal is the content shape of a persisted final assistant
// answer: the accepted reply plus any guarded progress segments
// emitted earlier in the same turn.
type AssistantFinal struct {
	Type     string   `json:"type"`
	Final    string   `json:"final"`
	Progress []string `json:"progress"`
}

// NewAssistantFinal builds an AssistantFinal with the fixed type tag.
func NewAssistantFinal(final string, progress []string) AssistantFinal {
	if progress == nil {
		progress = []string{}
	}
	return AssistantFinal{Type: "assistant_final", Final: final, Progress: progress}
}

// MarshalJSON flattens Fields alongside the named ToolResult fields so
// that arbitrary tool-specific keys round-trip without a schema,
// while `success`/`image_blocks`/`file_id`/`page_count`/`note`/`error`
// stay addressable by the loop.
func (r ToolResult) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	for k, v := range r.Fields {
		out[k] = v
	}
	out["success"] = r.Success
	if len(r.ImageBlocks) > 0 {
		out["image_blocks"] = r.ImageBlocks
	}
	if r.FileID != "" {
		out["file_id"] = r.FileID
	}
	if r.PageCount != 0 {
		out["page_count"] = r.PageCount
	}
	if r.Note != "" {
		out["note"] = r.Note
	}
	if r.Error != "" {
		out["error"] = r.Error
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes an arbitrary tool-result object, lifting the
// conventional fields out of the generic bag.
func (r *ToolResult) UnmarshalJSON(data []byte) error {
	r.Raw = append(json.RawMessage(nil), data...)

	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		return err
	}

	r.Success = true
	if v, ok := generic["success"]; ok {
		if b, ok := v.(bool); ok {
			r.Success = b
		}
	}
	if v, ok := generic["file_id"]; ok {
		if s, ok := v.(string); ok {
			r.FileID = s
		}
	}
	if v, ok := generic["page_count"]; ok {
		if f, ok := v.(float64); ok {
			r.PageCount = int(f)
		}
	}
	if v, ok := generic["note"]; ok {
		if s, ok := v.(string); ok {
			r.Note = s
		}
	}
	if v, ok := generic["error"]; ok {
		if s, ok := v.(string); ok {
			r.Error = s
		}
	}
	if v, ok := generic["image_blocks"]; ok {
		blocksJSON, err := json.Marshal(v)
		if err == nil {
			var blocks []ImageBlock
			if err := json.Unmarshal(blocksJSON, &blocks); err == nil {
				r.ImageBlocks = blocks
			}
		}
	}

	fields := make(map[string]any, len(generic))
	for k, v := range generic {
		switch k {
		case "success", "image_blocks", "file_id", "page_count", "note", "error":
			continue
		}
		fields[k] = v
	}
	r.Fields = fields
	return nil
}

// WithoutImageBlocks returns the JSON encoding of this result with the
// image_blocks key stripped, for projectToolResult's text-fragment head.
func (r ToolResult) WithoutImageBlocks() (json.RawMessage, error) {
	stripped := r
	stripped.ImageBlocks = nil
	return json.Marshal(stripped)
}
