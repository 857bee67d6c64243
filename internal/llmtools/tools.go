package llmtools

import (
	"encoding/json"

	openai "github.com/sashabaranov/go-openai"
)

// ToolSpec captures a single callable tool as advertised to a host.
// JSONSchema must be a valid JSON Schema object encoded as raw JSON.
type ToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	JSONSchema  json.RawMessage `json:"json_schema"`
}

// EncodeTools converts ToolSpec entries into OpenAI-compatible function tools,
// for hosts that speak function calling rather than MCP.
func EncodeTools(specs []ToolSpec) []openai.Tool {
	out := make([]openai.Tool, 0, len(specs))
	for _, s := range specs {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  s.JSONSchema,
			},
		})
	}
	return out
}
