package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ToolName is the function name exposed to the agent runtime.
const ToolName = "web_search"

const defaultResultCount = 5

// Tool adapts the search client to the agent tool contract.
type Tool struct {
	client *Client
}

// NewTool wraps a search client.
func NewTool(client *Client) *Tool {
	return &Tool{client: client}
}

func (t *Tool) Name() string { return ToolName }

func (t *Tool) Description() string {
	return "Search the web for current information. Returns titles, links and snippets of the top results."
}

func (t *Tool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query",
			},
			"num": map[string]any{
				"type":        "integer",
				"description": "Number of results to return (default 5)",
			},
		},
		"required": []string{"query"},
	}
}

type toolArgs struct {
	Query string `json:"query"`
	Num   int    `json:"num"`
}

// Execute runs the search. Upstream failures become tool output so the
// model can relay them.
func (t *Tool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var parsed toolArgs
	if err := json.Unmarshal(args, &parsed); err != nil {
		return "", fmt.Errorf("parse search tool arguments: %w", err)
	}
	if strings.TrimSpace(parsed.Query) == "" {
		return "Error: no search query provided", nil
	}
	if parsed.Num <= 0 {
		parsed.Num = defaultResultCount
	}

	results, err := t.client.Search(ctx, parsed.Query, parsed.Num)
	if err != nil {
		return fmt.Sprintf("Error: web search failed: %v", err), nil
	}
	if len(results) == 0 {
		return "No results found.", nil
	}

	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Title)
		if r.Link != "" {
			fmt.Fprintf(&b, "   %s\n", r.Link)
		}
		if r.Snippet != "" && r.Snippet != r.Title {
			fmt.Fprintf(&b, "   %s\n", r.Snippet)
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
