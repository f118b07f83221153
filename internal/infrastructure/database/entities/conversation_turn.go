package entities

import (
	"time"

	"gorm.io/datatypes"

	"github.com/meteogram/meteogram/internal/domain/conversation"
)

// ConversationTurn stores one append-only message of a chat's history.
type ConversationTurn struct {
	ID         uint           `gorm:"primaryKey"`
	ChatID     int64          `gorm:"index:idx_turn_chat_created;not null"`
	Role       string         `gorm:"size:16;not null"`
	Content    string         `gorm:"type:text"`
	ToolCallID string         `gorm:"size:64"`
	ToolName   string         `gorm:"size:128"`
	ToolArgs   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt  time.Time      `gorm:"index:idx_turn_chat_created;autoCreateTime"`
}

// TableName specifies the table name for ConversationTurn.
func (ConversationTurn) TableName() string {
	return "conversation_turns"
}

// EtoD converts the database entity to the domain model.
func (t *ConversationTurn) EtoD() *conversation.Turn {
	return &conversation.Turn{
		ID:         t.ID,
		ChatID:     t.ChatID,
		Role:       conversation.Role(t.Role),
		Content:    t.Content,
		ToolCallID: t.ToolCallID,
		ToolName:   t.ToolName,
		ToolArgs:   []byte(t.ToolArgs),
		CreatedAt:  t.CreatedAt,
	}
}

// NewSchemaConversationTurn creates a database entity from the domain model.
func NewSchemaConversationTurn(t *conversation.Turn) *ConversationTurn {
	return &ConversationTurn{
		ID:         t.ID,
		ChatID:     t.ChatID,
		Role:       string(t.Role),
		Content:    t.Content,
		ToolCallID: t.ToolCallID,
		ToolName:   t.ToolName,
		ToolArgs:   datatypes.JSON(t.ToolArgs),
		CreatedAt:  t.CreatedAt,
	}
}
