package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mansi-tandel/expirydate-tracker/internal/domain/reminder"
)

var _ reminder.Repo = (*ReminderRepo)(nil)

type ReminderRepo struct {
	db *DB
}

func NewReminderRepo(db *DB) *ReminderRepo { return &ReminderRepo{db: db} }

// Offsets applied when a reminder is created without any.
var defaultNotifyBeforeDays = []int{1, 3, 7}

const (
	qReminderInsert = `
INSERT INTO reminders (owner_id, item_type, image, attachment, expiry_date, notify_before_days)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, owner_id, item_type, image, attachment, expiry_date, notify_before_days, created_at, updated_at;`

	qReminderByID = `
SELECT id, owner_id, item_type, image, attachment, expiry_date, notify_before_days, created_at, updated_at
FROM reminders
WHERE id = $1;`

	qReminderByOwner = `
SELECT id, owner_id, item_type, image, attachment, expiry_date, notify_before_days, created_at, updated_at
FROM reminders
WHERE owner_id = $1
ORDER BY expiry_date;`

	qReminderSearch = `
SELECT id, owner_id, item_type, image, attachment, expiry_date, notify_before_days, created_at, updated_at
FROM reminders
WHERE owner_id = $1 AND item_type ILIKE '%' || $2 || '%'
ORDER BY expiry_date;`

	qReminderAll = `
SELECT id, owner_id, item_type, image, attachment, expiry_date, notify_before_days, created_at, updated_at
FROM reminders
ORDER BY id;`

	qReminderUpdate = `
UPDATE reminders
SET item_type          = $2,
    image              = $3,
    attachment         = $4,
    expiry_date        = $5,
    notify_before_days = $6,
    updated_at         = NOW()
WHERE id = $1
RETURNING id, owner_id, item_type, image, attachment, expiry_date, notify_before_days, created_at, updated_at;`

	qReminderDelete = `DELETE FROM reminders WHERE id = $1;`

	qSentInsert = `
INSERT INTO reminder_notifications (reminder_id, days_before, sent_at)
VALUES ($1, $2, $3);`

	qSentByReminder = `
SELECT days_before, sent_at
FROM reminder_notifications
WHERE reminder_id = $1
ORDER BY sent_at;`

	qSentAll = `
SELECT reminder_id, days_before, sent_at
FROM reminder_notifications
ORDER BY sent_at;`
)

func scanReminder(row pgx.Row, out *reminder.Reminder) error {
	var offsets []int32
	if err := row.Scan(
		&out.ID,
		&out.OwnerID,
		&out.ItemType,
		&out.Image,
		&out.Attachment,
		&out.ExpiryDate,
		&offsets,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan reminder: %w", err)
	}
	out.NotifyBeforeDays = make([]int, 0, len(offsets))
	for _, d := range offsets {
		out.NotifyBeforeDays = append(out.NotifyBeforeDays, int(d))
	}
	return nil
}

func toInt32s(days []int) []int32 {
	out := make([]int32, 0, len(days))
	for _, d := range days {
		out = append(out, int32(d))
	}
	return out
}

func (r *ReminderRepo) Create(ctx context.Context, rem *reminder.Reminder) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	days := rem.NotifyBeforeDays
	if len(days) == 0 {
		days = defaultNotifyBeforeDays
	}

	row := r.db.execQueryer(ctx).QueryRow(ctx, qReminderInsert,
		rem.OwnerID, rem.ItemType, rem.Image, rem.Attachment, rem.ExpiryDate, toInt32s(days))
	if err := scanReminder(row, rem); err != nil {
		return fmt.Errorf("reminder insert: %w", err)
	}
	return nil
}

func (r *ReminderRepo) GetByID(ctx context.Context, id int64) (*reminder.Reminder, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var rem reminder.Reminder
	if err := scanReminder(r.db.execQueryer(ctx).QueryRow(ctx, qReminderByID, id), &rem); err != nil {
		return nil, err
	}
	if err := r.loadSent(ctx, &rem); err != nil {
		return nil, err
	}
	return &rem, nil
}

func (r *ReminderRepo) ListByOwner(ctx context.Context, ownerID int64) ([]*reminder.Reminder, error) {
	return r.list(ctx, qReminderByOwner, ownerID)
}

func (r *ReminderRepo) SearchByOwner(ctx context.Context, ownerID int64, q string) ([]*reminder.Reminder, error) {
	return r.list(ctx, qReminderSearch, ownerID, q)
}

func (r *ReminderRepo) ListAll(ctx context.Context) ([]*reminder.Reminder, error) {
	return r.list(ctx, qReminderAll)
}

func (r *ReminderRepo) list(ctx context.Context, query string, args ...any) ([]*reminder.Reminder, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reminders: %w", err)
	}
	defer rows.Close()

	var out []*reminder.Reminder
	for rows.Next() {
		var rem reminder.Reminder
		if err := scanReminder(rows, &rem); err != nil {
			return nil, err
		}
		out = append(out, &rem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if err := r.attachSent(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ReminderRepo) Update(ctx context.Context, rem *reminder.Reminder) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.execQueryer(ctx).QueryRow(ctx, qReminderUpdate,
		rem.ID, rem.ItemType, rem.Image, rem.Attachment, rem.ExpiryDate, toInt32s(rem.NotifyBeforeDays))
	if err := scanReminder(row, rem); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("reminder update: %w", err)
	}
	return nil
}

func (r *ReminderRepo) Delete(ctx context.Context, id int64) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qReminderDelete, id)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendSent records one delivery in the append-only log. There is no
// uniqueness constraint on (reminder_id, days_before, day): a true
// simultaneous race between the job path and the sweep can produce a
// duplicate row, which the day-granularity gate tolerates.
func (r *ReminderRepo) AppendSent(ctx context.Context, reminderID int64, daysBefore int, sentAt time.Time) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.execQueryer(ctx).Exec(ctx, qSentInsert, reminderID, daysBefore, sentAt); err != nil {
		return fmt.Errorf("append sent: %w", err)
	}
	return nil
}

func (r *ReminderRepo) loadSent(ctx context.Context, rem *reminder.Reminder) error {
	rows, err := r.db.execQueryer(ctx).Query(ctx, qSentByReminder, rem.ID)
	if err != nil {
		return fmt.Errorf("query sent log: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec reminder.SentRecord
		if err := rows.Scan(&rec.DaysBefore, &rec.SentAt); err != nil {
			return fmt.Errorf("scan sent record: %w", err)
		}
		rem.NotificationsSent = append(rem.NotificationsSent, rec)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows: %w", err)
	}
	return nil
}

func (r *ReminderRepo) attachSent(ctx context.Context, rems []*reminder.Reminder) error {
	if len(rems) == 0 {
		return nil
	}

	byID := make(map[int64]*reminder.Reminder, len(rems))
	for _, rem := range rems {
		byID[rem.ID] = rem
	}

	rows, err := r.db.execQueryer(ctx).Query(ctx, qSentAll)
	if err != nil {
		return fmt.Errorf("query sent log: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  int64
			rec reminder.SentRecord
		)
		if err := rows.Scan(&id, &rec.DaysBefore, &rec.SentAt); err != nil {
			return fmt.Errorf("scan sent record: %w", err)
		}
		if rem, ok := byID[id]; ok {
			rem.NotificationsSent = append(rem.NotificationsSent, rec)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows: %w", err)
	}
	return nil
}
