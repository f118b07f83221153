package telegram

import (
	"context"
	"fmt"

	"github.com/meteogram/meteogram/internal/domain/approval"
)

// Responder adapts Client to the processor's outbound interface.
type Responder struct {
	client *Client
}

func NewResponder(client *Client) *Responder {
	return &Responder{client: client}
}

// SendText posts a plain reply.
func (r *Responder) SendText(ctx context.Context, chatID int64, text string) error {
	return r.client.SendMessage(ctx, chatID, text)
}

// SendApprovalRequest posts the confirmation prompt with approve/reject
// buttons. The callback data carries the approval id so stale presses can
// be told apart from the live request.
func (r *Responder) SendApprovalRequest(ctx context.Context, chatID int64, toolName string, args []byte, approvalID string) error {
	text := fmt.Sprintf(
		"I'd like to run %q with arguments:\n%s\n\nReply yes to approve or use the buttons below.",
		toolName, string(args),
	)
	markup := &InlineKeyboardMarkup{
		InlineKeyboard: [][]InlineKeyboardButton{{
			{Text: "✅ Approve", CallbackData: fmt.Sprintf("%s:%s", approval.CallbackApprove, approvalID)},
			{Text: "❌ Reject", CallbackData: fmt.Sprintf("%s:%s", approval.CallbackReject, approvalID)},
		}},
	}
	return r.client.SendMessageWithMarkup(ctx, chatID, text, markup)
}

// AcknowledgeCallback answers an inline keyboard press.
func (r *Responder) AcknowledgeCallback(ctx context.Context, callbackID, text string) error {
	return r.client.AnswerCallbackQuery(ctx, callbackID, text)
}
