package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mansi-tandel/expirydate-tracker/internal/domain/job"
	"github.com/mansi-tandel/expirydate-tracker/internal/domain/notification"
	"github.com/mansi-tandel/expirydate-tracker/internal/domain/reminder"
	"github.com/mansi-tandel/expirydate-tracker/internal/domain/user"
	"github.com/mansi-tandel/expirydate-tracker/internal/obs"
	"github.com/mansi-tandel/expirydate-tracker/internal/repository/postgres"
)

// Executor runs one fired job. Jobs are terminal: whatever happens
// here the job is not re-run, so a failed send is only recovered by
// the daily sweep.
type Executor struct {
	Log       *zap.Logger
	Reminders reminder.Repo
	Users     user.Repo
	Dispatch  notification.Dispatcher
	Clock     notification.Clock
	Loc       *time.Location
}

// Execute re-fetches the reminder (never trusts the enqueue-time
// snapshot), applies the no-op guards and delivers. The bool result
// reports whether an email actually went out.
func (e *Executor) Execute(ctx context.Context, j *job.Job) (bool, error) {
	log := obs.WithTrace(ctx, e.Log).With(zap.Int64("reminder_id", j.ReminderID), zap.Int("days_before", j.DaysBefore))

	rem, err := e.Reminders.GetByID(ctx, j.ReminderID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			log.Debug("reminder gone; job dropped")
			return false, nil
		}
		return false, fmt.Errorf("get reminder: %w", err)
	}

	if rem.OffsetSent(j.DaysBefore) {
		log.Debug("offset already delivered; job dropped")
		return false, nil
	}

	owner, err := e.Users.GetByID(ctx, rem.OwnerID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			log.Debug("owner gone; job dropped")
			return false, nil
		}
		return false, fmt.Errorf("get owner: %w", err)
	}
	if owner.Email == "" {
		log.Debug("owner has no email; job dropped")
		return false, nil
	}

	if err := e.Dispatch.Notify(ctx, owner, rem, j.DaysBefore); err != nil {
		return false, fmt.Errorf("dispatch: %w", err)
	}

	loc := e.Loc
	if loc == nil {
		loc = time.Local
	}
	if err := e.Reminders.AppendSent(ctx, rem.ID, j.DaysBefore, e.Clock.Now().In(loc)); err != nil {
		// Delivered but unrecorded: the next gate check may allow a
		// duplicate. Accepted tradeoff, must not go unlogged.
		log.Error("append to sent log failed after delivery", zap.Error(err))
		return true, fmt.Errorf("append sent: %w", err)
	}

	log.Info("notification delivered (job)", zap.String("to", owner.Email))
	return true, nil
}
