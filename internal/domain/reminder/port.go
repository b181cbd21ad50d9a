package reminder

import (
	"context"
	"time"
)

type Repo interface {
	Create(ctx context.Context, r *Reminder) error
	GetByID(ctx context.Context, id int64) (*Reminder, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*Reminder, error)
	SearchByOwner(ctx context.Context, ownerID int64, q string) ([]*Reminder, error)
	ListAll(ctx context.Context) ([]*Reminder, error)
	Update(ctx context.Context, r *Reminder) error
	Delete(ctx context.Context, id int64) error
	AppendSent(ctx context.Context, reminderID int64, daysBefore int, sentAt time.Time) error
}
