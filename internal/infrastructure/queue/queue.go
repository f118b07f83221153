package queue

import (
	"context"
	"time"

	"github.com/meteogram/meteogram/internal/infrastructure/telegram"
)

// JobKind distinguishes the two update flavors the bot processes.
type JobKind string

const (
	JobKindMessage  JobKind = "message"
	JobKindCallback JobKind = "callback"
)

// Job is one queued Telegram update awaiting background processing. Jobs
// exist only between webhook receipt and processor completion; there is no
// deduplication and no persistence beyond the queue.
type Job struct {
	JobID      string           `json:"job_id"`
	Kind       JobKind          `json:"kind"`
	Update     *telegram.Update `json:"update"`
	EnqueuedAt time.Time        `json:"enqueued_at"`
}

// TaskQueue defines the broker interface between the HTTP layer and the
// worker pool.
type TaskQueue interface {
	// Enqueue submits a job. The caller treats success as fire-and-forget.
	Enqueue(ctx context.Context, job *Job) error

	// Dequeue blocks up to its internal poll interval for the next job.
	// It returns (nil, nil) when no job became available.
	Dequeue(ctx context.Context) (*Job, error)

	// Depth returns the number of queued jobs.
	Depth(ctx context.Context) (int64, error)
}
