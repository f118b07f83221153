package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/meteogram/meteogram/internal/domain/chat"
	"github.com/meteogram/meteogram/internal/infrastructure/metrics"
	"github.com/meteogram/meteogram/internal/infrastructure/queue"
	"github.com/meteogram/meteogram/internal/infrastructure/telegram"
)

// Worker drains the update queue one job at a time. Dequeue blocks with a
// short timeout, so the loop needs no poll ticker.
type Worker struct {
	id         int
	queue      queue.TaskQueue
	processor  *chat.Service
	jobTimeout time.Duration
	log        zerolog.Logger
	stopChan   chan struct{}
}

// NewWorker creates a background worker.
func NewWorker(
	id int,
	q queue.TaskQueue,
	processor *chat.Service,
	jobTimeout time.Duration,
	log zerolog.Logger,
) *Worker {
	return &Worker{
		id:         id,
		queue:      q,
		processor:  processor,
		jobTimeout: jobTimeout,
		log:        log.With().Int("worker_id", id).Str("component", "worker").Logger(),
		stopChan:   make(chan struct{}),
	}
}

// Start begins processing jobs from the queue.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info().Msg("worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("worker stopped by context")
			return
		case <-w.stopChan:
			w.log.Info().Msg("worker stopped")
			return
		default:
			w.processNextJob(ctx)
		}
	}
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	close(w.stopChan)
}

func (w *Worker) processNextJob(ctx context.Context) {
	job, err := w.queue.Dequeue(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.log.Error().Err(err).Msg("failed to dequeue job")
		time.Sleep(time.Second)
		return
	}
	if job == nil {
		return
	}

	log := w.log.With().Str("job_id", job.JobID).Str("kind", string(job.Kind)).Logger()
	log.Info().Msg("processing job")

	start := time.Now()
	err = w.runJob(ctx, job)
	metrics.JobDuration.WithLabelValues(string(job.Kind)).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.JobsTotal.WithLabelValues(string(job.Kind), "error").Inc()
		log.Error().Err(err).Msg("job failed")
		return
	}
	metrics.JobsTotal.WithLabelValues(string(job.Kind), "success").Inc()
	log.Info().Dur("duration", time.Since(start)).Msg("job completed")
}

// runJob executes one job under the per-job timeout, converting panics into
// errors so a bad update cannot take the worker down.
func (w *Worker) runJob(ctx context.Context, job *queue.Job) (err error) {
	jobCtx := ctx
	if w.jobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, w.jobTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()

	if job.Update == nil {
		w.log.Warn().Msg("job without update payload, skipping")
		return nil
	}
	return w.processor.Process(jobCtx, InboundFromUpdate(job.Update))
}

// InboundFromUpdate flattens a Telegram update into the processor's view.
func InboundFromUpdate(u *telegram.Update) chat.Inbound {
	in := chat.Inbound{
		ChatID: u.ChatID(),
	}

	if sender := u.Sender(); sender != nil {
		in.SenderFirstName = sender.FirstName
		in.SenderIsBot = sender.IsBot
	}

	if u.IsCallback() {
		in.IsCallback = true
		in.CallbackID = u.CallbackQuery.ID
		in.CallbackData = u.CallbackQuery.Data
		return in
	}

	msg := u.IncomingMessage()
	if msg == nil {
		return in
	}

	in.Text = msg.Text
	in.Caption = msg.Caption
	if photo := msg.LargestPhoto(); photo != nil {
		in.PhotoFileID = photo.FileID
	}
	if msg.Document != nil {
		in.DocumentFileID = msg.Document.FileID
		in.DocumentName = msg.Document.FileName
		in.DocumentMime = msg.Document.MimeType
	}
	return in
}
