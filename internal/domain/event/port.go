package event

import (
	"context"
	"time"
)

type Kind string

const (
	KindReminderSaved   Kind = "reminder.saved"
	KindReminderDeleted Kind = "reminder.deleted"
)

// ReminderChange is the wire payload the CRUD layer publishes after a
// successful reminder mutation. Saved covers both create and update;
// the scheduler re-derives the full job set either way.
type ReminderChange struct {
	Kind       Kind      `json:"kind"`
	ReminderID int64     `json:"reminder_id"`
	At         time.Time `json:"at"`
}

type ReminderEvents interface {
	PublishReminderSaved(ctx context.Context, reminderID int64) error
	PublishReminderDeleted(ctx context.Context, reminderID int64) error
}
