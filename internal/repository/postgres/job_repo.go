package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/mansi-tandel/expirydate-tracker/internal/domain/job"
)

var _ job.Queue = (*JobQueue)(nil)

type JobQueue struct{ db *DB }

func NewJobQueue(db *DB) *JobQueue { return &JobQueue{db: db} }

const (
	qJobInsert = `
INSERT INTO reminder_jobs (reminder_id, days_before, fire_at, status)
VALUES ($1, $2, $3, 'PENDING');`

	qJobCancel = `
DELETE FROM reminder_jobs
WHERE reminder_id = $1 AND status = 'PENDING';`

	qJobPick = `
WITH cand AS (
   SELECT id
   FROM reminder_jobs
   WHERE (status = 'PENDING' AND fire_at <= now())
      OR (status = 'IN_PROGRESS' AND updated_at < now() - $2::interval)
   ORDER BY fire_at
   FOR UPDATE SKIP LOCKED
   LIMIT $1
), upd AS (
   UPDATE reminder_jobs j
   SET status = 'IN_PROGRESS', updated_at = now()
   FROM cand
   WHERE j.id = cand.id
   RETURNING j.id, j.reminder_id, j.days_before, j.fire_at, j.status, j.created_at, j.updated_at
)
SELECT id, reminder_id, days_before, fire_at, status, created_at, updated_at
FROM upd;`

	qJobDone = `
UPDATE reminder_jobs
SET status = 'DONE', updated_at = now()
WHERE id = ANY($1);`
)

func (q *JobQueue) Enqueue(ctx context.Context, reminderID int64, daysBefore int, fireAt time.Time) error {
	ctx, cancel := q.db.withTimeout(ctx)
	defer cancel()

	if _, err := q.db.execQueryer(ctx).Exec(ctx, qJobInsert, reminderID, daysBefore, fireAt); err != nil {
		return fmt.Errorf("job enqueue: %w", err)
	}
	return nil
}

func (q *JobQueue) CancelByReminder(ctx context.Context, reminderID int64) (int64, error) {
	ctx, cancel := q.db.withTimeout(ctx)
	defer cancel()

	cmd, err := q.db.execQueryer(ctx).Exec(ctx, qJobCancel, reminderID)
	if err != nil {
		return 0, fmt.Errorf("job cancel: %w", err)
	}
	return cmd.RowsAffected(), nil
}

func (q *JobQueue) PickDue(ctx context.Context, limit int, inProgressTTL time.Duration) ([]*job.Job, error) {
	if limit <= 0 {
		limit = 100
	}
	ctx, cancel := q.db.withTimeout(ctx)
	defer cancel()

	ttl := fmt.Sprintf("%f seconds", inProgressTTL.Seconds())
	rows, err := q.db.Pool.Query(ctx, qJobPick, limit, ttl)
	if err != nil {
		return nil, fmt.Errorf("job pick: %w", err)
	}
	defer rows.Close()

	var out []*job.Job
	for rows.Next() {
		var (
			j      job.Job
			status string
		)
		if err := rows.Scan(&j.ID, &j.ReminderID, &j.DaysBefore, &j.FireAt, &status, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, fmt.Errorf("job scan: %w", err)
		}
		j.Status = job.Status(status)
		out = append(out, &j)
	}
	return out, rows.Err()
}

func (q *JobQueue) MarkDone(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	ctx, cancel := q.db.withTimeout(ctx)
	defer cancel()

	if _, err := q.db.Pool.Exec(ctx, qJobDone, ids); err != nil {
		return fmt.Errorf("job mark done: %w", err)
	}
	return nil
}
