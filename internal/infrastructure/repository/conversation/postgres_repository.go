package conversation

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	domain "github.com/meteogram/meteogram/internal/domain/conversation"
	"github.com/meteogram/meteogram/internal/infrastructure/database/entities"
)

// Repository persists conversation turns in Postgres.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs the turn repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ domain.Repository = (*Repository)(nil)

// Append inserts a single turn.
func (r *Repository) Append(ctx context.Context, turn *domain.Turn) error {
	entity := entities.NewSchemaConversationTurn(turn)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return fmt.Errorf("append conversation turn: %w", err)
	}
	turn.ID = entity.ID
	return nil
}

// AppendAll inserts multiple turns preserving their order.
func (r *Repository) AppendAll(ctx context.Context, turns []*domain.Turn) error {
	if len(turns) == 0 {
		return nil
	}

	rows := make([]entities.ConversationTurn, 0, len(turns))
	for _, turn := range turns {
		rows = append(rows, *entities.NewSchemaConversationTurn(turn))
	}

	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("append conversation turns: %w", err)
	}

	for i, row := range rows {
		turns[i].ID = row.ID
	}
	return nil
}

// Load returns the most recent limit turns for a chat in chronological order.
func (r *Repository) Load(ctx context.Context, chatID int64, limit int) ([]domain.Turn, error) {
	var rows []entities.ConversationTurn
	query := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load conversation turns: %w", err)
	}

	// Rows come back newest first; flip to chronological order.
	turns := make([]domain.Turn, len(rows))
	for i, row := range rows {
		turns[len(rows)-1-i] = *row.EtoD()
	}
	return turns, nil
}
