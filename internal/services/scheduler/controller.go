package scheduler

import (
	"context"

	"go.uber.org/zap"

	"github.com/mansi-tandel/expirydate-tracker/internal/domain/event"
	kafkax "github.com/mansi-tandel/expirydate-tracker/internal/repository/kafka"
)

// Controller feeds reminder-change events from Kafka into the usecase.
// The CRUD layer publishes one event per successful mutation.
type Controller struct {
	Log *zap.Logger
	Sub *kafkax.Consumer
	UC  *Usecase
}

func (c *Controller) Run(ctx context.Context) error {
	handler := kafkax.JSONHandler(c.Log,
		func(ctx context.Context, _ []byte, ev *event.ReminderChange) error {
			if ev.ReminderID <= 0 {
				c.Log.Warn("reminder-change: invalid reminder_id", zap.Int64("reminder_id", ev.ReminderID))
				return nil
			}
			switch ev.Kind {
			case event.KindReminderSaved:
				return c.UC.ReminderSaved(ctx, ev.ReminderID)
			case event.KindReminderDeleted:
				return c.UC.ReminderDeleted(ctx, ev.ReminderID)
			default:
				c.Log.Warn("reminder-change: unknown kind", zap.String("kind", string(ev.Kind)))
				return nil
			}
		},
	)
	return c.Sub.Consume(ctx, handler)
}
