package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	defaultQueueKey = "jobs:updates"
	popTimeout      = 2 * time.Second
)

// RedisQueue implements TaskQueue on a Redis list (LPUSH/BRPOP). Workers on
// the same list consume jobs in enqueue order.
type RedisQueue struct {
	client redis.UniversalClient
	key    string
	log    zerolog.Logger
}

// NewRedisQueue creates a Redis-backed job queue.
func NewRedisQueue(client redis.UniversalClient, log zerolog.Logger) *RedisQueue {
	return &RedisQueue{
		client: client,
		key:    defaultQueueKey,
		log:    log.With().Str("component", "redis-queue").Logger(),
	}
}

var _ TaskQueue = (*RedisQueue)(nil)

// Enqueue pushes a job onto the list head.
func (q *RedisQueue) Enqueue(ctx context.Context, job *Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}

	q.log.Debug().Str("job_id", job.JobID).Str("kind", string(job.Kind)).Msg("job enqueued")
	return nil
}

// Dequeue pops the oldest job, blocking up to the poll timeout. A timeout
// with no job yields (nil, nil).
func (q *RedisQueue) Dequeue(ctx context.Context) (*Job, error) {
	values, err := q.client.BRPop(ctx, popTimeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("dequeue job: %w", err)
	}

	// BRPOP returns [key, value].
	if len(values) < 2 {
		return nil, fmt.Errorf("dequeue job: unexpected BRPOP reply of %d values", len(values))
	}

	var job Job
	if err := json.Unmarshal([]byte(values[1]), &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &job, nil
}

// Depth returns the current list length.
func (q *RedisQueue) Depth(ctx context.Context) (int64, error) {
	depth, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("queue depth: %w", err)
	}
	return depth, nil
}
