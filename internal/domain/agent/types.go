package agent

import (
	"context"
	"encoding/json"
)

// Provider defines the contract for the externally hosted agent runtime.
// It takes the conversation so far plus the available tool definitions and
// returns either a final assistant answer or one or more tool call requests.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error)
}

// CompletionRequest carries everything needed for a single completion turn.
type CompletionRequest struct {
	Messages    []ChatMessage
	Tools       []ToolDefinition
	Temperature *float64
	MaxTokens   *int
}

// CompletionResult is the assistant message produced by the provider.
type CompletionResult struct {
	Message ChatMessage
	Usage   *Usage
}

// ChatMessage represents a single message in the conversation history.
type ChatMessage struct {
	Role       string
	Content    string
	Parts      []ContentPart
	ToolCalls  []ToolCall
	ToolCallID string
}

// ContentPart is one element of a multimodal message (text or image URL).
type ContentPart struct {
	Type     string
	Text     string
	ImageURL string
}

// Message role constants mirroring the OpenAI chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a tool invocation requested by the assistant.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// ToolDefinition declares a callable function contract passed to the provider.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Usage contains token accounting metadata.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// SystemMessage builds a system role message.
func SystemMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleSystem, Content: content}
}

// UserMessage builds a user role message.
func UserMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleUser, Content: content}
}

// ToolResultMessage builds a tool role message answering a tool call.
func ToolResultMessage(toolCallID, content string) ChatMessage {
	return ChatMessage{Role: RoleTool, Content: content, ToolCallID: toolCallID}
}
