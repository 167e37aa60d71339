package service

import (
	"context"
	"time"

	"spoileralert/spoiler-api/internal/model"

	"github.com/sethvargo/go-retry"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dispatcher owns the deferred-email outbox. Schedule persists a job row and
// returns immediately; a single poller goroutine claims rows whose trigger
// time has arrived and hands them to a worker pool that talks to the mail
// transport with retry and backoff. A job is never lost silently: terminal
// failures stay in the table as "failed" with the last error attached.
type Dispatcher struct {
	db     *gorm.DB
	mailer Mailer
	jobs   chan *model.EmailJob
	stop   chan struct{}

	workers     int
	poll        time.Duration
	maxAttempts int
	sendTimeout time.Duration
	backoff     time.Duration
}

func NewDispatcher(db *gorm.DB, m Mailer) *Dispatcher {
	return &Dispatcher{
		db:          db,
		mailer:      m,
		jobs:        make(chan *model.EmailJob),
		stop:        make(chan struct{}),
		workers:     viper.GetInt("dispatcher.workers"),
		poll:        viper.GetDuration("dispatcher.poll_interval"),
		maxAttempts: viper.GetInt("dispatcher.max_attempts"),
		sendTimeout: viper.GetDuration("dispatcher.send_timeout"),
		backoff:     500 * time.Millisecond,
	}
}

// Schedule enqueues one email for delivery at or as soon as possible after
// triggerAt. The returned id is the job's outbox row id, monotonic across
// restarts. The caller never blocks on delivery.
func (d *Dispatcher) Schedule(recipient, subject, body string, triggerAt time.Time) (int64, error) {
	job := &model.EmailJob{
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		TriggerAt: triggerAt,
		Status:    model.JobPending,
	}

	if err := d.db.Create(job).Error; err != nil {
		return 0, err
	}

	zap.L().Debug("Email job scheduled",
		zap.Int64("job_id", job.ID),
		zap.Time("trigger_at", triggerAt))

	return job.ID, nil
}

func (d *Dispatcher) Start() {
	d.requeueStale()

	for range d.workers {
		go d.worker()
	}

	go d.pollLoop()

	zap.L().Debug("Dispatcher started",
		zap.Int("workers", d.workers),
		zap.Duration("poll_interval", d.poll))
}

func (d *Dispatcher) Stop() {
	close(d.stop)
}

// Jobs claimed but not finished before a crash are left as "sending".
// Flipping them back to pending on startup re-attempts them, which keeps the
// at-least-once contract.
func (d *Dispatcher) requeueStale() {
	r := d.db.Model(&model.EmailJob{}).
		Where("status = ?", model.JobSending).
		Update("status", model.JobPending)
	if r.Error != nil {
		zap.L().Error("Failed to requeue stale email jobs", zap.Error(r.Error))
		return
	}

	if r.RowsAffected > 0 {
		zap.L().Warn("Requeued email jobs left over from a previous run",
			zap.Int64("count", r.RowsAffected))
	}
}

func (d *Dispatcher) pollLoop() {
	ticker := time.NewTicker(d.poll)
	defer ticker.Stop()

	for {
		select {
		case <-d.stop:
			close(d.jobs)
			return
		case <-ticker.C:
			d.dispatchDue()
		}
	}
}

func (d *Dispatcher) dispatchDue() {
	var due []model.EmailJob

	err := d.db.
		Where("status = ? AND trigger_at <= ?", model.JobPending, time.Now()).
		Order("trigger_at").
		Limit(100).
		Find(&due).
		Error
	if err != nil {
		zap.L().Error("Failed to query due email jobs", zap.Error(err))
		return
	}

	for i := range due {
		job := due[i]

		// Claim the row first so the next tick can't pick it up again
		r := d.db.Model(&model.EmailJob{}).
			Where("id = ? AND status = ?", job.ID, model.JobPending).
			Update("status", model.JobSending)
		if r.Error != nil || r.RowsAffected == 0 {
			continue
		}

		select {
		case d.jobs <- &job:
		case <-d.stop:
			return
		}
	}
}

func (d *Dispatcher) worker() {
	for job := range d.jobs {
		d.deliver(job)
	}
}

func (d *Dispatcher) deliver(job *model.EmailJob) {
	ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
	defer cancel()

	b := retry.WithMaxRetries(uint64(d.maxAttempts-1), retry.NewExponential(d.backoff))

	attempts := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempts++

		if err := d.send(ctx, job); err != nil {
			zap.L().Warn("Email send attempt failed",
				zap.Int64("job_id", job.ID),
				zap.Int("attempt", attempts),
				zap.Error(err))

			return retry.RetryableError(err)
		}

		return nil
	})
	if err != nil {
		zap.L().Error("Email job failed permanently",
			zap.Int64("job_id", job.ID),
			zap.String("recipient", job.Recipient),
			zap.Int("attempts", attempts),
			zap.Error(err))

		d.finish(job.ID, model.JobFailed, attempts, err.Error())
		return
	}

	zap.L().Debug("Email job delivered",
		zap.Int64("job_id", job.ID),
		zap.Int("attempts", attempts))

	d.finish(job.ID, model.JobSent, attempts, "")
}

// send bounds the transport call with ctx no matter what the mailer does.
// Transports like SMTP can't be interrupted once dialing, so the call runs
// off to the side and gets abandoned if it outlives the deadline, freeing
// the worker for the jobs behind it.
func (d *Dispatcher) send(ctx context.Context, job *model.EmailJob) error {
	done := make(chan error, 1)

	go func() {
		done <- d.mailer.Send(ctx, job.Recipient, job.Subject, job.Body)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) finish(id int64, status string, attempts int, lastErr string) {
	err := d.db.Model(&model.EmailJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"attempts":   attempts,
			"last_error": lastErr,
		}).
		Error
	if err != nil {
		zap.L().Error("Failed to update email job state",
			zap.Int64("job_id", id),
			zap.Error(err))
	}
}
