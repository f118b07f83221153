package conversation

import "context"

// Repository persists conversation turns. The history is append-only; there
// is no update or delete.
type Repository interface {
	// Append stores one turn at the end of the chat's history.
	Append(ctx context.Context, turn *Turn) error

	// AppendAll stores several turns preserving their order.
	AppendAll(ctx context.Context, turns []*Turn) error

	// Load returns the most recent limit turns for the chat in
	// chronological order.
	Load(ctx context.Context, chatID int64, limit int) ([]Turn, error)
}
