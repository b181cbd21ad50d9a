package scheduler

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	config "github.com/mansi-tandel/expirydate-tracker/internal/config/scheduler"
	"github.com/mansi-tandel/expirydate-tracker/internal/domain/job"
)

// Runner polls the durable queue and executes due jobs. Per-job
// failures are contained: the job is logged, marked done and never
// retried.
type Runner struct {
	Log  *zap.Logger
	Jobs job.Queue
	Exec *Executor
	Cfg  *config.JobsCfg

	mPicked  prometheus.Counter
	mSent    prometheus.Counter
	mSkipped prometheus.Counter
	mErr     prometheus.Counter
	mTickDur prometheus.Histogram
}

func NewRunner(log *zap.Logger, jobs job.Queue, exec *Executor, cfg *config.JobsCfg) *Runner {
	return &Runner{
		Log:  log,
		Jobs: jobs,
		Exec: exec,
		Cfg:  cfg,
		mPicked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_jobs_picked_total", Help: "Due jobs picked from the queue",
		}),
		mSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_notifications_sent_total", Help: "Notifications delivered by the job path",
		}),
		mSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_jobs_skipped_total", Help: "Jobs dropped by a no-op guard",
		}),
		mErr: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_errors_total", Help: "Errors in the job loop",
		}),
		mTickDur: promauto.NewHistogram(prometheus.HistogramOpts{
			Name: "scheduler_tick_duration_seconds", Help: "Job poll tick duration",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (r *Runner) tick(ctx context.Context) {
	start := time.Now()
	defer func() { r.mTickDur.Observe(time.Since(start).Seconds()) }()

	tr := otel.Tracer("scheduler.runner")
	ctxTick, span := tr.Start(ctx, "scheduler.tick",
		trace.WithAttributes(attribute.Int("batch.limit", r.Cfg.BatchLimit)),
	)
	defer span.End()

	due, err := r.Jobs.PickDue(ctxTick, r.Cfg.BatchLimit, r.Cfg.InProgressTTL)
	if err != nil {
		span.RecordError(err)
		r.mErr.Inc()
		r.Log.Warn("pick due jobs", zap.Error(err))
		return
	}
	if len(due) == 0 {
		return
	}
	r.mPicked.Add(float64(len(due)))

	done := make([]int64, 0, len(due))
	sent, skipped, errs := 0, 0, 0
	for _, j := range due {
		ok, err := r.Exec.Execute(ctxTick, j)
		switch {
		case err != nil:
			errs++
			r.mErr.Inc()
			r.Log.Warn("job execution failed",
				zap.Int64("job_id", j.ID),
				zap.Int64("reminder_id", j.ReminderID),
				zap.Int("days_before", j.DaysBefore),
				zap.Error(err),
			)
		case ok:
			sent++
			r.mSent.Inc()
		default:
			skipped++
			r.mSkipped.Inc()
		}
		// Terminal either way.
		done = append(done, j.ID)
	}

	if err := r.Jobs.MarkDone(ctxTick, done); err != nil {
		span.RecordError(err)
		r.mErr.Inc()
		r.Log.Warn("mark jobs done", zap.Error(err))
	}

	span.SetAttributes(
		attribute.Int("batch.picked", len(due)),
		attribute.Int("batch.sent", sent),
		attribute.Int("batch.skipped", skipped),
		attribute.Int("batch.errors", errs),
	)
	r.Log.Debug("job batch processed",
		zap.Int("picked", len(due)), zap.Int("sent", sent),
		zap.Int("skipped", skipped), zap.Int("errors", errs),
	)
}

func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.Cfg.Tick)
	defer ticker.Stop()

	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}
