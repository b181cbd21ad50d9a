package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mansi-tandel/expirydate-tracker/internal/domain/notification"
	"github.com/mansi-tandel/expirydate-tracker/internal/domain/reminder"
	"github.com/mansi-tandel/expirydate-tracker/internal/domain/user"
	"github.com/mansi-tandel/expirydate-tracker/internal/obs"
	"github.com/mansi-tandel/expirydate-tracker/internal/repository/postgres"
)

// Usecase is the daily full-table sweep. It re-derives "is today a
// notification day" for every reminder and offset from scratch, so it
// stays correct even if the job queue was lost entirely.
type Usecase struct {
	Log       *zap.Logger
	Reminders reminder.Repo
	Users     user.Repo
	Dispatch  notification.Dispatcher
	Clock     notification.Clock
	Loc       *time.Location
}

func NewUsecase(log *zap.Logger, rems reminder.Repo, users user.Repo, d notification.Dispatcher, clock notification.Clock, loc *time.Location) *Usecase {
	if loc == nil {
		loc = time.Local
	}
	return &Usecase{Log: log, Reminders: rems, Users: users, Dispatch: d, Clock: clock, Loc: loc}
}

type Result struct {
	Reminders int
	Sent      int
	Skipped   int
	Errors    int
}

// ProcessDay walks every reminder in the store. A failure on one
// reminder/offset is logged and counted; the sweep never aborts early.
func (u *Usecase) ProcessDay(ctx context.Context) (Result, error) {
	today := reminder.DateOnly(u.Clock.Now().In(u.Loc))

	tr := otel.Tracer("sweep.uc")
	ctx, span := tr.Start(ctx, "sweep.process_day",
		trace.WithAttributes(attribute.String("day", today.Format("2006-01-02"))),
	)
	defer span.End()

	var res Result

	rems, err := u.Reminders.ListAll(ctx)
	if err != nil {
		span.RecordError(err)
		return res, fmt.Errorf("list reminders: %w", err)
	}
	res.Reminders = len(rems)

	for _, rem := range rems {
		for _, d := range rem.NotifyBeforeDays {
			if d < 0 {
				continue
			}
			if !rem.NotificationDate(d, u.Loc).Equal(today) {
				continue
			}
			sent, err := u.processOffset(ctx, rem, d, today)
			switch {
			case err != nil:
				res.Errors++
				u.Log.Warn("sweep item failed",
					zap.Int64("reminder_id", rem.ID),
					zap.Int("days_before", d),
					zap.Error(err),
				)
			case sent:
				res.Sent++
			default:
				res.Skipped++
			}
		}
	}

	span.SetAttributes(
		attribute.Int("sweep.reminders", res.Reminders),
		attribute.Int("sweep.sent", res.Sent),
		attribute.Int("sweep.skipped", res.Skipped),
		attribute.Int("sweep.errors", res.Errors),
	)
	return res, nil
}

func (u *Usecase) processOffset(ctx context.Context, rem *reminder.Reminder, daysBefore int, today time.Time) (bool, error) {
	if rem.SentOn(daysBefore, today) {
		return false, nil
	}

	owner, err := u.Users.GetByID(ctx, rem.OwnerID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get owner: %w", err)
	}
	if owner.Email == "" {
		return false, nil
	}

	if err := u.Dispatch.Notify(ctx, owner, rem, daysBefore); err != nil {
		return false, fmt.Errorf("dispatch: %w", err)
	}

	if err := u.Reminders.AppendSent(ctx, rem.ID, daysBefore, u.Clock.Now()); err != nil {
		u.Log.Error("append to sent log failed after delivery",
			zap.Int64("reminder_id", rem.ID),
			zap.Int("days_before", daysBefore),
			zap.Error(err),
		)
		return true, fmt.Errorf("append sent: %w", err)
	}

	obs.WithTrace(ctx, u.Log).Info("notification delivered (sweep)",
		zap.Int64("reminder_id", rem.ID),
		zap.Int("days_before", daysBefore),
		zap.String("to", owner.Email),
	)
	return true, nil
}
