// Package worker runs the background consumers that drain the update queue
// and feed the chat processor.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/meteogram/meteogram/internal/domain/chat"
	"github.com/meteogram/meteogram/internal/infrastructure/metrics"
	"github.com/meteogram/meteogram/internal/infrastructure/queue"
)

// Pool manages multiple background workers.
type Pool struct {
	workers     []*Worker
	queue       queue.TaskQueue
	processor   *chat.Service
	workerCount int
	jobTimeout  time.Duration
	log         zerolog.Logger
	wg          sync.WaitGroup
	stopDepth   chan struct{}
}

// Config contains worker pool configuration.
type Config struct {
	WorkerCount int
	JobTimeout  time.Duration
}

// NewPool creates a new worker pool.
func NewPool(
	q queue.TaskQueue,
	processor *chat.Service,
	cfg Config,
	log zerolog.Logger,
) *Pool {
	return &Pool{
		queue:       q,
		processor:   processor,
		workerCount: cfg.WorkerCount,
		jobTimeout:  cfg.JobTimeout,
		log:         log.With().Str("component", "worker-pool").Logger(),
		stopDepth:   make(chan struct{}),
	}
}

// Start launches all workers plus the queue depth reporter.
func (p *Pool) Start(ctx context.Context) {
	p.log.Info().Int("worker_count", p.workerCount).Msg("starting worker pool")

	p.workers = make([]*Worker, p.workerCount)
	for i := 0; i < p.workerCount; i++ {
		w := NewWorker(i+1, p.queue, p.processor, p.jobTimeout, p.log)
		p.workers[i] = w

		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Start(ctx)
		}(w)
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.reportDepth(ctx)
	}()

	p.log.Info().Msg("worker pool started")
}

// Stop gracefully shuts down all workers.
func (p *Pool) Stop() {
	p.log.Info().Msg("stopping worker pool")

	for _, w := range p.workers {
		w.Stop()
	}
	close(p.stopDepth)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info().Msg("all workers stopped gracefully")
	case <-time.After(30 * time.Second):
		p.log.Warn().Msg("worker pool shutdown timed out")
	}
}

func (p *Pool) reportDepth(ctx context.Context) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopDepth:
			return
		case <-ticker.C:
			depth, err := p.queue.Depth(ctx)
			if err != nil {
				p.log.Warn().Err(err).Msg("failed to read queue depth")
				continue
			}
			metrics.QueueDepth.Set(float64(depth))
		}
	}
}
