package llmtools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/spf13/cast"
)

// WebSearchToolName is the advertised name of the search capability.
const WebSearchToolName = "duckduckgo_web_search"

const webSearchDescription = "Performs a web search using the DuckDuckGo search engine, ideal for general queries, " +
	"news, articles, and online content. Use this for broad information gathering, recent events, " +
	"or when you need diverse web sources. Returns at most 20 results per request."

var webSearchSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"query": {
			"type": "string",
			"description": "Search query (max 400 chars)"
		},
		"count": {
			"type": "number",
			"description": "Number of results (1-20, default 10)",
			"default": 10
		}
	},
	"required": ["query"]
}`)

// Searcher is the search capability behind the tool.
type Searcher interface {
	Search(ctx context.Context, query string, count int) (string, error)
}

// SearchArgs is the decoded argument payload of duckduckgo_web_search.
type SearchArgs struct {
	Query string
	Count int
}

// ParseSearchArgs decodes already-validated arguments, applying the default
// count when it is absent.
func ParseSearchArgs(raw json.RawMessage, defaultCount int) (SearchArgs, error) {
	var in map[string]any
	if err := json.Unmarshal(raw, &in); err != nil {
		return SearchArgs{}, fmt.Errorf("%w for %s: %v", ErrInvalidArguments, WebSearchToolName, err)
	}
	q, ok := in["query"].(string)
	if !ok {
		return SearchArgs{}, fmt.Errorf("%w for %s: query must be a string", ErrInvalidArguments, WebSearchToolName)
	}
	out := SearchArgs{Query: q, Count: defaultCount}
	if v, present := in["count"]; present && v != nil {
		// Out-of-range floats would wrap when converted.
		if f, isFloat := v.(float64); isFloat {
			v = math.Max(math.Min(f, math.MaxInt32), math.MinInt32)
		}
		n, err := cast.ToIntE(v)
		if err != nil {
			return SearchArgs{}, fmt.Errorf("%w for %s: count: %v", ErrInvalidArguments, WebSearchToolName, err)
		}
		out.Count = n
	}
	return out, nil
}

// NewSearchRegistry returns a registry holding the single web search tool.
func NewSearchRegistry(s Searcher, defaultCount int) (*Registry, error) {
	if s == nil {
		return nil, errors.New("NewSearchRegistry: searcher is nil")
	}
	r := NewRegistry()
	err := r.Register(ToolDefinition{
		StableName:   WebSearchToolName,
		SemVer:       "v1.0.0",
		Description:  webSearchDescription,
		JSONSchema:   webSearchSchema,
		Capabilities: []string{"search"},
		Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
			in, err := ParseSearchArgs(args, defaultCount)
			if err != nil {
				return "", err
			}
			return s.Search(ctx, in.Query, in.Count)
		},
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}
