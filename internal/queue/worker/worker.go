package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alexroche/boutique/internal/jobs"
	"github.com/alexroche/boutique/internal/notifications"
	"github.com/alexroche/boutique/internal/observability"
)

type JobQueue interface {
	Enqueue(ctx context.Context, j jobs.Job) error
	Dequeue(ctx context.Context, timeout time.Duration) (jobs.Job, bool, error)
}

type Config struct {
	WorkerID    string
	PollTimeout time.Duration
}

// Worker drains the notification queue one job at a time. Failed jobs go
// back on the queue after a backoff until their tries run out.
type Worker struct {
	cfg      Config
	queue    JobQueue
	notifier notifications.Notifier
	prom     *observability.Prom
	log      *slog.Logger

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, queue JobQueue, notifier notifications.Notifier, prom *observability.Prom, log *slog.Logger) *Worker {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 2 * time.Second
	}

	return &Worker{
		cfg:      cfg,
		queue:    queue,
		notifier: notifier,
		prom:     prom,
		log:      log,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	defer w.setReady(false)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker received shutdown signal", "worker_id", w.cfg.WorkerID)
			return nil
		default:
		}

		processed, err := w.ProcessOne(ctx)

		if err != nil {
			w.log.Error("dequeue failed", "err", err)

			// transient redis trouble; don't spin
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
		}

		_ = processed
	}
}

// ProcessOne waits for at most the poll timeout and handles one job.
// Returns false when the wait came back empty.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	j, ok, err := w.queue.Dequeue(ctx, w.cfg.PollTimeout)

	if err != nil {
		return false, err
	}

	if !ok {
		return false, nil
	}

	start := time.Now()
	err = w.execute(ctx, j)
	result := "done"

	if err != nil {
		result = w.handleFailure(ctx, j, err)
	}

	if w.prom != nil {
		w.prom.NotifyDuration.WithLabelValues(string(j.Type), result).Observe(time.Since(start).Seconds())
		w.prom.NotifyResults.WithLabelValues(string(j.Type), result).Inc()
	}

	return true, nil
}

func (w *Worker) execute(ctx context.Context, j jobs.Job) error {
	payload, err := jobs.DecodePayload(j)

	if err != nil {
		return err
	}

	switch p := payload.(type) {
	case jobs.SendContactAckPayload:
		return w.notifier.SendContactAck(ctx, notifications.SendContactAckInput{
			ContactID: p.ContactID,
			Email:     p.Email,
			Fullname:  p.Fullname,
			Subject:   p.Subject,
		})
	default:
		return jobs.ErrInvalidJobType
	}
}

// handleFailure re-enqueues with a backoff, or drops the job once its tries
// are exhausted. Returns the result label for metrics.
func (w *Worker) handleFailure(ctx context.Context, j jobs.Job, cause error) string {
	j.Attempts++

	if j.Attempts >= j.MaxTries {
		w.log.Error("job failed permanently",
			"job_id", j.ID,
			"job_type", string(j.Type),
			"attempts", j.Attempts,
			"err", cause,
		)

		return "failed"
	}

	delay := ExponentialBackoff(j.Attempts)

	w.log.Warn("job failed, retrying",
		"job_id", j.ID,
		"job_type", string(j.Type),
		"attempts", j.Attempts,
		"retry_in", delay.String(),
		"err", cause,
	)

	select {
	case <-ctx.Done():
		return "retry"
	case <-time.After(delay):
	}

	if err := w.queue.Enqueue(ctx, j); err != nil {
		w.log.Error("re-enqueue failed", "job_id", j.ID, "err", err)
		return "failed"
	}

	return "retry"
}

func (w *Worker) setReady(ready bool) {
	w.readyMu.Lock()
	w.ready = ready
	w.readyMu.Unlock()
}
