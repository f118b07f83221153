// Package approvalstore implements the pending approval store on Redis.
package approvalstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/meteogram/meteogram/internal/domain/approval"
)

// RedisStore keeps one pending approval per chat under approval:<chat_id>.
// SetNX enforces the one-pending invariant; the TTL bounds how long a
// crashed job can strand a chat in the awaiting-approval state.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
	log    zerolog.Logger
}

// NewRedisStore creates the store. ttl of zero means entries never expire.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration, log zerolog.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
		log:    log.With().Str("component", "approval-store").Logger(),
	}
}

var _ approval.Store = (*RedisStore)(nil)

// Set records a pending approval, failing with approval.ErrConflict when
// the chat already has one outstanding.
func (s *RedisStore) Set(ctx context.Context, pending *approval.PendingApproval) error {
	payload, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("marshal pending approval: %w", err)
	}

	ok, err := s.client.SetNX(ctx, key(pending.ChatID), payload, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("store pending approval: %w", err)
	}
	if !ok {
		return approval.ErrConflict
	}

	s.log.Debug().
		Int64("chat_id", pending.ChatID).
		Str("approval_id", pending.ApprovalID).
		Str("tool", pending.ToolName).
		Msg("pending approval stored")
	return nil
}

// Get returns the chat's pending approval or approval.ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, chatID int64) (*approval.PendingApproval, error) {
	payload, err := s.client.Get(ctx, key(chatID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, approval.ErrNotFound
		}
		return nil, fmt.Errorf("load pending approval: %w", err)
	}

	var pending approval.PendingApproval
	if err := json.Unmarshal(payload, &pending); err != nil {
		return nil, fmt.Errorf("decode pending approval: %w", err)
	}
	return &pending, nil
}

// Clear removes the chat's pending approval.
func (s *RedisStore) Clear(ctx context.Context, chatID int64) error {
	if err := s.client.Del(ctx, key(chatID)).Err(); err != nil {
		return fmt.Errorf("clear pending approval: %w", err)
	}
	return nil
}

func key(chatID int64) string {
	return fmt.Sprintf("approval:%d", chatID)
}
