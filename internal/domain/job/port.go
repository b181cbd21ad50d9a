package job

import (
	"context"
	"time"
)

type Queue interface {
	Enqueue(ctx context.Context, reminderID int64, daysBefore int, fireAt time.Time) error

	// CancelByReminder removes every not-yet-picked job for the
	// reminder. In-progress jobs are left alone; a stale one that
	// fires anyway must be neutralized by the executor's guards.
	CancelByReminder(ctx context.Context, reminderID int64) (int64, error)

	// PickDue claims up to limit due jobs and marks them in-progress.
	PickDue(ctx context.Context, limit int, inProgressTTL time.Duration) ([]*Job, error)

	MarkDone(ctx context.Context, ids []int64) error
}
