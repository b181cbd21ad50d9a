package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mansi-tandel/expirydate-tracker/internal/domain/event"
	"github.com/mansi-tandel/expirydate-tracker/internal/obs/retry"
)

// ReminderEventsKafka publishes reminder-change events for the
// scheduler to consume. Publishes are retried with backoff: a change
// event that never reaches the scheduler means the job set goes stale
// until the daily sweep catches up.
type ReminderEventsKafka struct {
	p   *Producer
	pol retry.Policy
}

func NewReminderEventsKafka(p *Producer, log *zap.Logger) *ReminderEventsKafka {
	return &ReminderEventsKafka{p: p, pol: retry.DefaultKafkaPolicy(log)}
}

var _ event.ReminderEvents = (*ReminderEventsKafka)(nil)

func (e *ReminderEventsKafka) PublishReminderSaved(ctx context.Context, reminderID int64) error {
	return e.publish(ctx, event.ReminderChange{
		Kind:       event.KindReminderSaved,
		ReminderID: reminderID,
		At:         time.Now().UTC(),
	})
}

func (e *ReminderEventsKafka) PublishReminderDeleted(ctx context.Context, reminderID int64) error {
	return e.publish(ctx, event.ReminderChange{
		Kind:       event.KindReminderDeleted,
		ReminderID: reminderID,
		At:         time.Now().UTC(),
	})
}

func (e *ReminderEventsKafka) publish(ctx context.Context, ev event.ReminderChange) error {
	return retry.Do(ctx, func() error {
		return e.p.PublishJSON(ctx, KeyFromInt64(ev.ReminderID), ev)
	}, e.pol)
}
