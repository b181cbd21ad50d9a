package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/mansi-tandel/expirydate-tracker/internal/domain/job"
	"github.com/mansi-tandel/expirydate-tracker/internal/domain/reminder"
	"github.com/mansi-tandel/expirydate-tracker/internal/domain/user"
	"github.com/mansi-tandel/expirydate-tracker/internal/repository/postgres"
)

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

type fakeReminderRepo struct {
	mu        sync.Mutex
	byID      map[int64]*reminder.Reminder
	appendErr error
	appended  []reminder.SentRecord
}

func newFakeReminderRepo(rems ...*reminder.Reminder) *fakeReminderRepo {
	m := make(map[int64]*reminder.Reminder, len(rems))
	for _, r := range rems {
		m[r.ID] = r
	}
	return &fakeReminderRepo{byID: m}
}

func (f *fakeReminderRepo) Create(ctx context.Context, r *reminder.Reminder) error { return nil }

func (f *fakeReminderRepo) GetByID(ctx context.Context, id int64) (*reminder.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return nil, postgres.ErrNotFound
	}
	return r, nil
}

func (f *fakeReminderRepo) ListByOwner(ctx context.Context, ownerID int64) ([]*reminder.Reminder, error) {
	return nil, nil
}

func (f *fakeReminderRepo) SearchByOwner(ctx context.Context, ownerID int64, q string) ([]*reminder.Reminder, error) {
	return nil, nil
}

func (f *fakeReminderRepo) ListAll(ctx context.Context) ([]*reminder.Reminder, error) {
	return nil, nil
}

func (f *fakeReminderRepo) Update(ctx context.Context, r *reminder.Reminder) error { return nil }
func (f *fakeReminderRepo) Delete(ctx context.Context, id int64) error             { return nil }

func (f *fakeReminderRepo) AppendSent(ctx context.Context, reminderID int64, daysBefore int, sentAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, reminder.SentRecord{DaysBefore: daysBefore, SentAt: sentAt})
	if r, ok := f.byID[reminderID]; ok {
		r.NotificationsSent = append(r.NotificationsSent, reminder.SentRecord{DaysBefore: daysBefore, SentAt: sentAt})
	}
	return nil
}

type fakeUserRepo struct {
	byID map[int64]*user.User
}

func newFakeUserRepo(users ...*user.User) *fakeUserRepo {
	m := make(map[int64]*user.User, len(users))
	for _, u := range users {
		m[u.ID] = u
	}
	return &fakeUserRepo{byID: m}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *user.User) error { return nil }

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, postgres.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return nil, postgres.ErrNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, u *user.User) error { return nil }

type enqueued struct {
	ReminderID int64
	DaysBefore int
	FireAt     time.Time
}

type fakeQueue struct {
	mu        sync.Mutex
	jobs      []enqueued
	canceled  []int64
	cancelErr error
}

func (q *fakeQueue) Enqueue(ctx context.Context, reminderID int64, daysBefore int, fireAt time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, enqueued{ReminderID: reminderID, DaysBefore: daysBefore, FireAt: fireAt})
	return nil
}

func (q *fakeQueue) CancelByReminder(ctx context.Context, reminderID int64) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.cancelErr != nil {
		return 0, q.cancelErr
	}
	var n int64
	kept := q.jobs[:0]
	for _, j := range q.jobs {
		if j.ReminderID == reminderID {
			n++
			continue
		}
		kept = append(kept, j)
	}
	q.jobs = kept
	q.canceled = append(q.canceled, reminderID)
	return n, nil
}

func (q *fakeQueue) PickDue(ctx context.Context, limit int, inProgressTTL time.Duration) ([]*job.Job, error) {
	return nil, nil
}

func (q *fakeQueue) MarkDone(ctx context.Context, ids []int64) error { return nil }

func (q *fakeQueue) pending(reminderID int64) []enqueued {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []enqueued
	for _, j := range q.jobs {
		if j.ReminderID == reminderID {
			out = append(out, j)
		}
	}
	return out
}

type fakeDispatcher struct {
	mu   sync.Mutex
	sent []enqueued
	err  error
}

func (d *fakeDispatcher) Notify(ctx context.Context, u *user.User, rem *reminder.Reminder, daysBefore int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, enqueued{ReminderID: rem.ID, DaysBefore: daysBefore})
	return nil
}
