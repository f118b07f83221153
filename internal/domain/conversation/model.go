package conversation

import (
	"encoding/json"
	"time"
)

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Turn is one append-only entry of a chat's history.
type Turn struct {
	ID         uint
	ChatID     int64
	Role       Role
	Content    string
	ToolCallID string
	ToolName   string
	ToolArgs   json.RawMessage
	CreatedAt  time.Time
}
