package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	config "github.com/mansi-tandel/expirydate-tracker/internal/config/sweeper"
)

// Runner fires the sweep once per calendar day at a fixed wall-clock
// time, and optionally once at startup for catch-up after downtime.
type Runner struct {
	Log *zap.Logger
	UC  *Usecase
	Cfg *config.SweepCfg
	Loc *time.Location

	mRuns   prometheus.Counter
	mSent   prometheus.Counter
	mErr    prometheus.Counter
	mRunDur prometheus.Histogram
}

func NewRunner(log *zap.Logger, uc *Usecase, cfg *config.SweepCfg, loc *time.Location) *Runner {
	if loc == nil {
		loc = time.Local
	}
	return &Runner{
		Log: log,
		UC:  uc,
		Cfg: cfg,
		Loc: loc,
		mRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sweep_runs_total", Help: "Completed sweep runs",
		}),
		mSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sweep_notifications_sent_total", Help: "Notifications delivered by the sweep",
		}),
		mErr: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sweep_errors_total", Help: "Errors during sweep runs",
		}),
		mRunDur: promauto.NewHistogram(prometheus.HistogramOpts{
			Name: "sweep_run_duration_seconds", Help: "Sweep run duration",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// NextFire returns the next instant the sweep is due: today at the
// configured wall-clock time if that is still ahead, otherwise the
// same time tomorrow.
func NextFire(now time.Time, fireTime string, loc *time.Location) (time.Time, error) {
	at, err := time.Parse("15:04", fireTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse fire time %q: %w", fireTime, err)
	}
	now = now.In(loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next, nil
}

func (r *Runner) sweep(ctx context.Context) {
	start := time.Now()
	res, err := r.UC.ProcessDay(ctx)
	r.mRunDur.Observe(time.Since(start).Seconds())
	r.mRuns.Inc()
	r.mSent.Add(float64(res.Sent))
	if err != nil {
		r.mErr.Inc()
		r.Log.Warn("sweep run failed", zap.Error(err))
		return
	}
	if res.Errors > 0 {
		r.mErr.Add(float64(res.Errors))
	}
	r.Log.Info("sweep run finished",
		zap.Int("reminders", res.Reminders),
		zap.Int("sent", res.Sent),
		zap.Int("skipped", res.Skipped),
		zap.Int("errors", res.Errors),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func (r *Runner) Run(ctx context.Context) error {
	if r.Cfg.RunOnStart {
		r.Log.Info("sweep: immediate run on start")
		r.sweep(ctx)
	}

	for {
		next, err := NextFire(time.Now(), r.Cfg.FireTime, r.Loc)
		if err != nil {
			return err
		}
		r.Log.Info("sweep scheduled", zap.Time("next", next))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			r.sweep(ctx)
		}
	}
}
