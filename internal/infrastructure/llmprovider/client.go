// Package llmprovider implements the agent.Provider capability on the
// OpenAI chat completions API.
package llmprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/meteogram/meteogram/internal/domain/agent"
)

// Client implements agent.Provider.
type Client struct {
	api   *openai.Client
	model string
}

// NewClient creates a provider client. baseURL is optional and allows
// routing to an OpenAI-compatible gateway.
func NewClient(apiKey, model, baseURL string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(cfg),
		model: model,
	}
}

var _ agent.Provider = (*Client)(nil)

// Complete runs one chat completion turn.
func (c *Client) Complete(ctx context.Context, req agent.CompletionRequest) (*agent.CompletionResult, error) {
	apiReq := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: toAPIMessages(req.Messages),
		Tools:    toAPITools(req.Tools),
	}
	if req.Temperature != nil {
		apiReq.Temperature = float32(*req.Temperature)
	}
	if req.MaxTokens != nil {
		apiReq.MaxTokens = *req.MaxTokens
	}

	resp, err := c.api.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	result := &agent.CompletionResult{
		Message: fromAPIMessage(resp.Choices[0].Message),
	}
	result.Usage = &agent.Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	return result, nil
}

func toAPIMessages(messages []agent.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		apiMsg := openai.ChatCompletionMessage{
			Role:       m.Role,
			ToolCallID: m.ToolCallID,
		}

		if len(m.Parts) > 0 {
			apiMsg.MultiContent = toAPIParts(m.Parts)
		} else {
			apiMsg.Content = m.Content
		}

		for _, call := range m.ToolCalls {
			apiMsg.ToolCalls = append(apiMsg.ToolCalls, openai.ToolCall{
				ID:   call.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      call.Name,
					Arguments: string(call.Arguments),
				},
			})
		}

		out = append(out, apiMsg)
	}
	return out
}

func toAPIParts(parts []agent.ContentPart) []openai.ChatMessagePart {
	out := make([]openai.ChatMessagePart, 0, len(parts))
	for _, p := range parts {
		switch p.Type {
		case "image_url":
			out = append(out, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: p.ImageURL},
			})
		default:
			out = append(out, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: p.Text,
			})
		}
	}
	return out
}

func toAPITools(defs []agent.ToolDefinition) []openai.Tool {
	if len(defs) == 0 {
		return nil
	}
	out := make([]openai.Tool, 0, len(defs))
	for _, def := range defs {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		})
	}
	return out
}

func fromAPIMessage(m openai.ChatCompletionMessage) agent.ChatMessage {
	msg := agent.ChatMessage{
		Role:    m.Role,
		Content: m.Content,
	}
	for _, call := range m.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, agent.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: json.RawMessage(call.Function.Arguments),
		})
	}
	return msg
}
