package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mansi-tandel/expirydate-tracker/internal/domain/job"
	"github.com/mansi-tandel/expirydate-tracker/internal/domain/notification"
	"github.com/mansi-tandel/expirydate-tracker/internal/domain/reminder"
	"github.com/mansi-tandel/expirydate-tracker/internal/repository/postgres"
)

// Tx runs fn atomically; cancel-then-reschedule happens inside one
// transaction so an old job can never coexist with its replacement.
type Tx interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Usecase reacts to reminder mutations: it re-derives the durable job
// set for a reminder from its expiry date and offsets.
type Usecase struct {
	Log       *zap.Logger
	Reminders reminder.Repo
	Jobs      job.Queue
	Tx        Tx
	Clock     notification.Clock
	Loc       *time.Location
}

func NewUsecase(log *zap.Logger, rems reminder.Repo, jobs job.Queue, tx Tx, clock notification.Clock, loc *time.Location) *Usecase {
	if loc == nil {
		loc = time.Local
	}
	return &Usecase{Log: log, Reminders: rems, Jobs: jobs, Tx: tx, Clock: clock, Loc: loc}
}

// ReminderSaved handles both create and update: every pending job for
// the reminder is canceled, then one job per offset is enqueued. An
// offset whose fire day is today or already past is enqueued at now and
// picked up on the next poll tick.
func (u *Usecase) ReminderSaved(ctx context.Context, reminderID int64) error {
	tr := otel.Tracer("scheduler.uc")
	ctx, span := tr.Start(ctx, "scheduler.reminder_saved",
		trace.WithAttributes(attribute.Int64("reminder.id", reminderID)),
	)
	defer span.End()

	rem, err := u.Reminders.GetByID(ctx, reminderID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			// Deleted before we got here; drop whatever was queued.
			return u.ReminderDeleted(ctx, reminderID)
		}
		span.RecordError(err)
		return fmt.Errorf("get reminder: %w", err)
	}

	now := u.Clock.Now().In(u.Loc)

	reschedule := func(ctx context.Context) error {
		if _, err := u.Jobs.CancelByReminder(ctx, reminderID); err != nil {
			return fmt.Errorf("cancel jobs: %w", err)
		}
		for _, d := range rem.NotifyBeforeDays {
			if d < 0 {
				continue
			}
			fireAt := rem.NotificationDate(d, u.Loc)
			if !fireAt.After(now) {
				fireAt = now
			}
			if err := u.Jobs.Enqueue(ctx, reminderID, d, fireAt); err != nil {
				return fmt.Errorf("enqueue offset %d: %w", d, err)
			}
		}
		return nil
	}

	if u.Tx != nil {
		err = u.Tx.WithTx(ctx, reschedule)
	} else {
		err = reschedule(ctx)
	}
	if err != nil {
		span.RecordError(err)
		return err
	}

	u.Log.Debug("reminder rescheduled",
		zap.Int64("reminder_id", reminderID),
		zap.Ints("offsets", rem.NotifyBeforeDays),
	)
	return nil
}

// ReminderDeleted drops every pending job for the reminder. Failures
// are surfaced but harmless: a stale job that fires anyway no-ops on
// the missing-reminder guard in the executor.
func (u *Usecase) ReminderDeleted(ctx context.Context, reminderID int64) error {
	n, err := u.Jobs.CancelByReminder(ctx, reminderID)
	if err != nil {
		u.Log.Warn("cancel jobs for deleted reminder", zap.Int64("reminder_id", reminderID), zap.Error(err))
		return fmt.Errorf("cancel jobs: %w", err)
	}
	u.Log.Debug("reminder jobs canceled", zap.Int64("reminder_id", reminderID), zap.Int64("canceled", n))
	return nil
}
