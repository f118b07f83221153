// Package chat implements the background job processor: the per-chat state
// machine that turns inbound updates into agent runtime calls, tool
// executions, approval round-trips, and outbound replies.
package chat

import "context"

// Inbound is the processor-facing view of one Telegram update. It is built
// by the worker from the queued payload so the processor stays independent
// of the transport types.
type Inbound struct {
	ChatID int64

	// Plain message fields.
	Text           string
	Caption        string
	PhotoFileID    string
	DocumentFileID string
	DocumentName   string
	DocumentMime   string

	// Callback (inline keyboard press) fields.
	IsCallback   bool
	CallbackID   string
	CallbackData string

	SenderFirstName string
	SenderIsBot     bool
}

// Responder delivers replies back to the chat. Delivery failures are the
// caller's to log; a failed send does not fail the job.
type Responder interface {
	// SendText posts a plain reply.
	SendText(ctx context.Context, chatID int64, text string) error

	// SendApprovalRequest asks the user to confirm a sensitive tool call,
	// attaching approve/reject buttons carrying the approval id.
	SendApprovalRequest(ctx context.Context, chatID int64, toolName string, args []byte, approvalID string) error

	// AcknowledgeCallback answers an inline keyboard press with a short
	// notification.
	AcknowledgeCallback(ctx context.Context, callbackID, text string) error
}

// FileResolver turns a Telegram file id into a downloadable URL for
// multimodal agent input.
type FileResolver interface {
	FileURL(ctx context.Context, fileID string) (string, error)
}

// Reply texts. Kept together so the bot speaks with one voice.
const (
	replyGenericFailure = "Sorry, something went wrong. Please try again later."
	replyCancelled      = "Okay, I've cancelled that action."
	replyExpired        = "This approval request has expired. Please try your request again."
	replyBadAttachment  = "Sorry, I couldn't process that attachment. Please try again or send a different file."
	ackApproved         = "Approved"
	ackRejected         = "Rejected"
	ackExpired          = "This approval has expired"
)
