package job

import "time"

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// Job is one durable instruction to deliver a single reminder
// notification at or after FireAt. Jobs are terminal: they execute at
// most once and are never retried, so the executor's guards (missing
// reminder, already-sent offset) carry the correctness burden.
type Job struct {
	ID         int64     `json:"id"`
	ReminderID int64     `json:"reminder_id"`
	DaysBefore int       `json:"days_before"`
	FireAt     time.Time `json:"fire_at"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
