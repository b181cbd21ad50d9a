package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mansi-tandel/expirydate-tracker/internal/domain/reminder"
)

func newTestUsecase(rems *fakeReminderRepo, q *fakeQueue, now time.Time) *Usecase {
	return NewUsecase(zap.NewNop(), rems, q, nil, fakeClock{now: now}, time.UTC)
}

func TestReminderSaved_EnqueuesPerOffset(t *testing.T) {
	now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	rem := &reminder.Reminder{
		ID:               42,
		OwnerID:          7,
		ExpiryDate:       time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC),
		NotifyBeforeDays: []int{1, 3, 7},
	}
	q := &fakeQueue{}
	uc := newTestUsecase(newFakeReminderRepo(rem), q, now)

	require.NoError(t, uc.ReminderSaved(context.Background(), 42))

	jobs := q.pending(42)
	require.Len(t, jobs, 3)
	byOffset := map[int]time.Time{}
	for _, j := range jobs {
		byOffset[j.DaysBefore] = j.FireAt
	}
	assert.Equal(t, time.Date(2025, time.June, 29, 0, 0, 0, 0, time.UTC), byOffset[1])
	assert.Equal(t, time.Date(2025, time.June, 27, 0, 0, 0, 0, time.UTC), byOffset[3])
	assert.Equal(t, time.Date(2025, time.June, 23, 0, 0, 0, 0, time.UTC), byOffset[7])
}

func TestReminderSaved_UpdateReplacesJobSet(t *testing.T) {
	now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	rem := &reminder.Reminder{
		ID:               42,
		OwnerID:          7,
		ExpiryDate:       time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC),
		NotifyBeforeDays: []int{1, 3, 7},
	}
	repo := newFakeReminderRepo(rem)
	q := &fakeQueue{}
	uc := newTestUsecase(repo, q, now)

	require.NoError(t, uc.ReminderSaved(context.Background(), 42))
	require.Len(t, q.pending(42), 3)

	// owner trims the offsets and pushes the expiry date out
	rem.NotifyBeforeDays = []int{3}
	rem.ExpiryDate = time.Date(2025, time.July, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, uc.ReminderSaved(context.Background(), 42))

	jobs := q.pending(42)
	require.Len(t, jobs, 1, "removed offsets must never fire")
	assert.Equal(t, 3, jobs[0].DaysBefore)
	assert.Equal(t, time.Date(2025, time.July, 12, 0, 0, 0, 0, time.UTC), jobs[0].FireAt)
}

func TestReminderSaved_PastDueEnqueuedAtNow(t *testing.T) {
	now := time.Date(2025, time.June, 25, 10, 0, 0, 0, time.UTC)
	rem := &reminder.Reminder{
		ID:               42,
		OwnerID:          7,
		ExpiryDate:       time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC),
		NotifyBeforeDays: []int{1, 7},
	}
	q := &fakeQueue{}
	uc := newTestUsecase(newFakeReminderRepo(rem), q, now)

	require.NoError(t, uc.ReminderSaved(context.Background(), 42))

	jobs := q.pending(42)
	require.Len(t, jobs, 2)
	for _, j := range jobs {
		switch j.DaysBefore {
		case 7:
			// June 23 is already past, fires immediately
			assert.Equal(t, now, j.FireAt)
		case 1:
			assert.Equal(t, time.Date(2025, time.June, 29, 0, 0, 0, 0, time.UTC), j.FireAt)
		default:
			t.Fatalf("unexpected offset %d", j.DaysBefore)
		}
	}
}

func TestReminderSaved_NegativeOffsetIgnored(t *testing.T) {
	now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	rem := &reminder.Reminder{
		ID:               42,
		OwnerID:          7,
		ExpiryDate:       time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC),
		NotifyBeforeDays: []int{-2, 3},
	}
	q := &fakeQueue{}
	uc := newTestUsecase(newFakeReminderRepo(rem), q, now)

	require.NoError(t, uc.ReminderSaved(context.Background(), 42))

	jobs := q.pending(42)
	require.Len(t, jobs, 1)
	assert.Equal(t, 3, jobs[0].DaysBefore)
}

func TestReminderSaved_MissingReminderCancels(t *testing.T) {
	now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	q := &fakeQueue{}
	require.NoError(t, q.Enqueue(context.Background(), 42, 7, now))
	uc := newTestUsecase(newFakeReminderRepo(), q, now)

	require.NoError(t, uc.ReminderSaved(context.Background(), 42))
	assert.Empty(t, q.pending(42))
}

func TestReminderDeleted_CancelsAllJobs(t *testing.T) {
	now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	q := &fakeQueue{}
	require.NoError(t, q.Enqueue(context.Background(), 42, 1, now))
	require.NoError(t, q.Enqueue(context.Background(), 42, 7, now))
	require.NoError(t, q.Enqueue(context.Background(), 99, 3, now))
	uc := newTestUsecase(newFakeReminderRepo(), q, now)

	require.NoError(t, uc.ReminderDeleted(context.Background(), 42))

	assert.Empty(t, q.pending(42))
	assert.Len(t, q.pending(99), 1, "other reminders untouched")
}

func TestReminderDeleted_CancelErrorSurfaced(t *testing.T) {
	now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	q := &fakeQueue{cancelErr: assert.AnError}
	uc := newTestUsecase(newFakeReminderRepo(), q, now)

	err := uc.ReminderDeleted(context.Background(), 42)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}
