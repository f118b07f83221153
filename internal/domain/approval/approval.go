// Package approval models the human-in-the-loop confirmation step for
// sensitive tool calls.
package approval

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrConflict is returned by Store.Set when the chat already has an
	// outstanding approval. At most one PendingApproval may exist per chat
	// because the same inbound channel carries the approval reply.
	ErrConflict = errors.New("approval already pending for chat")

	// ErrNotFound is returned by Store.Get when no approval is pending.
	ErrNotFound = errors.New("no pending approval")
)

// PendingApproval records one outstanding confirmation request.
type PendingApproval struct {
	ApprovalID  string          `json:"approval_id"`
	ChatID      int64           `json:"chat_id"`
	ToolCallID  string          `json:"tool_call_id"`
	ToolName    string          `json:"tool_name"`
	ToolArgs    json.RawMessage `json:"tool_args"`
	RequestedAt time.Time       `json:"requested_at"`
}

// Store keeps at most one PendingApproval per chat. Entries expire on their
// own after the configured TTL, which bounds how long a crash between tool
// execution and Clear can strand a chat.
type Store interface {
	// Set records a pending approval. It fails with ErrConflict when one
	// already exists for the chat.
	Set(ctx context.Context, pending *PendingApproval) error

	// Get returns the chat's pending approval or ErrNotFound.
	Get(ctx context.Context, chatID int64) (*PendingApproval, error)

	// Clear removes the chat's pending approval, if any.
	Clear(ctx context.Context, chatID int64) error
}
