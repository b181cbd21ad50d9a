package reminder

import "time"

// SentRecord is one entry of the append-only delivery log.
type SentRecord struct {
	DaysBefore int       `json:"days_before"`
	SentAt     time.Time `json:"sent_at"`
}

type Reminder struct {
	ID                int64        `json:"id"`
	OwnerID           int64        `json:"owner_id"`
	ItemType          string       `json:"item_type"`
	Image             string       `json:"image"`
	Attachment        string       `json:"attachment"`
	ExpiryDate        time.Time    `json:"expiry_date"`
	NotifyBeforeDays  []int        `json:"notify_before_days"`
	NotificationsSent []SentRecord `json:"notifications_sent"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day.
// Both are compared in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// NotificationDate is the calendar day the daysBefore offset is due:
// the expiry date minus daysBefore days, at midnight in loc. ExpiryDate
// is a calendar date; its Y/M/D are taken as stored, never shifted
// through a zone conversion.
func (r *Reminder) NotificationDate(daysBefore int, loc *time.Location) time.Time {
	y, m, d := r.ExpiryDate.Date()
	return time.Date(y, m, d-daysBefore, 0, 0, 0, 0, loc)
}

// OffsetSent reports whether any delivery was ever recorded for the
// offset, regardless of day. The job path uses this: a durable job
// fires once per offset, so any prior record means it is stale.
func (r *Reminder) OffsetSent(daysBefore int) bool {
	for _, n := range r.NotificationsSent {
		if n.DaysBefore == daysBefore {
			return true
		}
	}
	return false
}

// SentOn is the idempotence gate shared by both delivery paths: a log
// entry matches iff its offset equals daysBefore and its SentAt,
// truncated to day granularity in day's location, equals day. Day
// truncation (not exact timestamp equality) is what lets the job path
// and the sweep recognize each other's sends.
func (r *Reminder) SentOn(daysBefore int, day time.Time) bool {
	for _, n := range r.NotificationsSent {
		if n.DaysBefore == daysBefore && SameDay(day, n.SentAt) {
			return true
		}
	}
	return false
}
