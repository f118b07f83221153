package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/meteogram/meteogram/internal/domain/agent"
	"github.com/meteogram/meteogram/internal/domain/conversation"
)

// buildUserInput converts the inbound update into the agent message and the
// history row to persist. A nil message with nil error means the update
// carries nothing processable (sticker, location, empty text).
func (s *Service) buildUserInput(ctx context.Context, in Inbound) (*agent.ChatMessage, *conversation.Turn, error) {
	switch {
	case in.PhotoFileID != "":
		fileURL, err := s.files.FileURL(ctx, in.PhotoFileID)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve photo url: %w", err)
		}

		caption := strings.TrimSpace(in.Caption)
		parts := make([]agent.ContentPart, 0, 2)
		if caption != "" {
			parts = append(parts, agent.ContentPart{Type: "text", Text: caption})
		}
		parts = append(parts, agent.ContentPart{Type: "image_url", ImageURL: fileURL})

		content := caption
		if content == "" {
			content = "[photo]"
		}
		msg := &agent.ChatMessage{Role: agent.RoleUser, Parts: parts}
		turn := &conversation.Turn{ChatID: in.ChatID, Role: conversation.RoleUser, Content: content}
		return msg, turn, nil

	case in.DocumentFileID != "":
		fileURL, err := s.files.FileURL(ctx, in.DocumentFileID)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve document url: %w", err)
		}

		var b strings.Builder
		if caption := strings.TrimSpace(in.Caption); caption != "" {
			b.WriteString(caption)
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "The user sent a file %q (%s), downloadable at %s.",
			in.DocumentName, in.DocumentMime, fileURL)

		text := b.String()
		msg := &agent.ChatMessage{Role: agent.RoleUser, Content: text}
		turn := &conversation.Turn{ChatID: in.ChatID, Role: conversation.RoleUser, Content: text}
		return msg, turn, nil

	default:
		text := strings.TrimSpace(in.Text)
		if text == "" {
			return nil, nil, nil
		}
		msg := &agent.ChatMessage{Role: agent.RoleUser, Content: text}
		turn := &conversation.Turn{ChatID: in.ChatID, Role: conversation.RoleUser, Content: text}
		return msg, turn, nil
	}
}
