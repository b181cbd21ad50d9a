package sweep

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mansi-tandel/expirydate-tracker/internal/domain/reminder"
	"github.com/mansi-tandel/expirydate-tracker/internal/domain/user"
	"github.com/mansi-tandel/expirydate-tracker/internal/repository/postgres"
)

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

type fakeReminderRepo struct {
	mu        sync.Mutex
	all       []*reminder.Reminder
	appendErr error
	appended  []reminder.SentRecord
}

func (f *fakeReminderRepo) Create(ctx context.Context, r *reminder.Reminder) error { return nil }

func (f *fakeReminderRepo) GetByID(ctx context.Context, id int64) (*reminder.Reminder, error) {
	for _, r := range f.all {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, postgres.ErrNotFound
}

func (f *fakeReminderRepo) ListByOwner(ctx context.Context, ownerID int64) ([]*reminder.Reminder, error) {
	return nil, nil
}

func (f *fakeReminderRepo) SearchByOwner(ctx context.Context, ownerID int64, q string) ([]*reminder.Reminder, error) {
	return nil, nil
}

func (f *fakeReminderRepo) ListAll(ctx context.Context) ([]*reminder.Reminder, error) {
	return f.all, nil
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
	return nil
}

type fakeUserRepo struct {
	byID map[int64]*user.User
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

type notifyCall struct {
	ReminderID int64
	DaysBefore int
}

type fakeDispatcher struct {
	mu    sync.Mutex
	sent  []notifyCall
	errOn int64
}

func (d *fakeDispatcher) Notify(ctx context.Context, u *user.User, rem *reminder.Reminder, daysBefore int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.errOn != 0 && rem.ID == d.errOn {
		return assert.AnError
	}
	d.sent = append(d.sent, notifyCall{ReminderID: rem.ID, DaysBefore: daysBefore})
	return nil
}

var testNow = time.Date(2025, time.June, 23, 9, 0, 0, 0, time.UTC)

func newTestUsecase(rems *fakeReminderRepo, users *fakeUserRepo, d *fakeDispatcher) *Usecase {
	return NewUsecase(zap.NewNop(), rems, users, d, fakeClock{now: testNow}, time.UTC)
}

// expiry is stored as a calendar date, midnight UTC
func expiring(id, owner int64, daysFromNow int, offsets ...int) *reminder.Reminder {
	return &reminder.Reminder{
		ID:               id,
		OwnerID:          owner,
		ItemType:         "passport",
		ExpiryDate:       time.Date(2025, time.June, 23+daysFromNow, 0, 0, 0, 0, time.UTC),
		NotifyBeforeDays: offsets,
	}
}

func TestProcessDay_SendsDueOffsetsOnly(t *testing.T) {
	repo := &fakeReminderRepo{all: []*reminder.Reminder{
		expiring(1, 7, 7, 1, 3, 7), // 7-day offset lands today
		expiring(2, 7, 3, 1, 3),    // 3-day offset lands today
		expiring(3, 7, 10, 1, 3),   // nothing due
	}}
	users := &fakeUserRepo{byID: map[int64]*user.User{7: {ID: 7, Email: "a@b.c", Name: "A"}}}
	d := &fakeDispatcher{}
	uc := newTestUsecase(repo, users, d)

	res, err := uc.ProcessDay(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Reminders)
	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 0, res.Errors)
	require.Len(t, d.sent, 2)
	assert.Contains(t, d.sent, notifyCall{ReminderID: 1, DaysBefore: 7})
	assert.Contains(t, d.sent, notifyCall{ReminderID: 2, DaysBefore: 3})
	assert.Len(t, repo.appended, 2)
}

func TestProcessDay_GateSuppressesSameDayRepeat(t *testing.T) {
	rem := expiring(1, 7, 7, 7)
	rem.NotificationsSent = []reminder.SentRecord{
		// sent earlier today, e.g. by the job path
		{DaysBefore: 7, SentAt: time.Date(2025, time.June, 23, 6, 30, 0, 0, time.UTC)},
	}
	repo := &fakeReminderRepo{all: []*reminder.Reminder{rem}}
	users := &fakeUserRepo{byID: map[int64]*user.User{7: {ID: 7, Email: "a@b.c"}}}
	d := &fakeDispatcher{}
	uc := newTestUsecase(repo, users, d)

	res, err := uc.ProcessDay(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Sent)
	assert.Equal(t, 1, res.Skipped)
	assert.Empty(t, d.sent)
}

func TestProcessDay_StaleRecordDoesNotSuppress(t *testing.T) {
	rem := expiring(1, 7, 7, 7)
	rem.NotificationsSent = []reminder.SentRecord{
		// same offset but a different day; the sweep gate is day-scoped
		{DaysBefore: 7, SentAt: time.Date(2025, time.June, 20, 9, 0, 0, 0, time.UTC)},
	}
	repo := &fakeReminderRepo{all: []*reminder.Reminder{rem}}
	users := &fakeUserRepo{byID: map[int64]*user.User{7: {ID: 7, Email: "a@b.c"}}}
	d := &fakeDispatcher{}
	uc := newTestUsecase(repo, users, d)

	res, err := uc.ProcessDay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	require.Len(t, d.sent, 1)
}

func TestProcessDay_SkipsOwnerWithoutEmail(t *testing.T) {
	repo := &fakeReminderRepo{all: []*reminder.Reminder{
		expiring(1, 7, 7, 7),
		expiring(2, 8, 7, 7),
	}}
	users := &fakeUserRepo{byID: map[int64]*user.User{
		7: {ID: 7, Email: ""},
		8: {ID: 8, Email: "b@c.d"},
	}}
	d := &fakeDispatcher{}
	uc := newTestUsecase(repo, users, d)

	res, err := uc.ProcessDay(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, d.sent, 1)
	assert.Equal(t, int64(2), d.sent[0].ReminderID)
}

func TestProcessDay_MissingOwnerSkipped(t *testing.T) {
	repo := &fakeReminderRepo{all: []*reminder.Reminder{expiring(1, 99, 7, 7)}}
	users := &fakeUserRepo{byID: map[int64]*user.User{}}
	d := &fakeDispatcher{}
	uc := newTestUsecase(repo, users, d)

	res, err := uc.ProcessDay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 0, res.Errors)
}

func TestProcessDay_ItemFailureIsIsolated(t *testing.T) {
	repo := &fakeReminderRepo{all: []*reminder.Reminder{
		expiring(1, 7, 7, 7), // dispatcher fails on this one
		expiring(2, 7, 7, 7),
	}}
	users := &fakeUserRepo{byID: map[int64]*user.User{7: {ID: 7, Email: "a@b.c"}}}
	d := &fakeDispatcher{errOn: 1}
	uc := newTestUsecase(repo, users, d)

	res, err := uc.ProcessDay(context.Background())
	require.NoError(t, err, "one bad item must not abort the sweep")

	assert.Equal(t, 1, res.Errors)
	assert.Equal(t, 1, res.Sent)
	require.Len(t, d.sent, 1)
	assert.Equal(t, int64(2), d.sent[0].ReminderID)
}

func TestProcessDay_NegativeOffsetIgnored(t *testing.T) {
	rem := expiring(1, 7, 0, -23)
	repo := &fakeReminderRepo{all: []*reminder.Reminder{rem}}
	users := &fakeUserRepo{byID: map[int64]*user.User{7: {ID: 7, Email: "a@b.c"}}}
	d := &fakeDispatcher{}
	uc := newTestUsecase(repo, users, d)

	res, err := uc.ProcessDay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Sent)
	assert.Empty(t, d.sent)
}
