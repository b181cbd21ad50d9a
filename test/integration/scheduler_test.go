//go:build integration

package integration

import (
	"testing"
	"time"
)

// End-to-end: seed a reminder whose notification date is already past,
// publish reminder.saved, expect the scheduler to enqueue a due job,
// deliver a mail through MailHog and append to the sent log.
func TestScheduler_SavedEvent_PastDueDelivers(t *testing.T) {
	cfg := LoadCfg()
	EnsureTopic(t, cfg.KafkaBootstrap, cfg.ChangeTopic)
	WaitHealthz(t, cfg.SchedHealthURL, 60*time.Second)

	db := DBOpen(t, cfg.DBDSN)
	defer db.Close()
	MailhogPurge(t, cfg.MailhogAPI)

	uid := RandID()
	rid := RandID()
	SeedUser(t, db, uid, "it-sched@example.com", "IT Scheduler")
	// expires tomorrow with a 7-day offset: notification date is in the past
	SeedReminder(t, db, rid, uid, "passport", time.Now().AddDate(0, 0, 1), []int32{7})

	PublishReminderSaved(t, cfg.KafkaBootstrap, cfg.ChangeTopic, rid)

	mh := WaitMailhogCount(t, cfg.MailhogAPI, 1, 90*time.Second)
	if mh.Total < 1 {
		t.Fatalf("no mail delivered, mailhog total=%d", mh.Total)
	}

	deadline := time.Now().Add(30 * time.Second)
	for !FindSent(t, db, rid, 7) {
		if time.Now().After(deadline) {
			t.Fatalf("sent log entry missing for reminder=%d days_before=7", rid)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

// Deleting a reminder must cancel its pending jobs before they fire.
func TestScheduler_DeletedEvent_CancelsJobs(t *testing.T) {
	cfg := LoadCfg()
	EnsureTopic(t, cfg.KafkaBootstrap, cfg.ChangeTopic)
	WaitHealthz(t, cfg.SchedHealthURL, 60*time.Second)

	db := DBOpen(t, cfg.DBDSN)
	defer db.Close()
	MailhogPurge(t, cfg.MailhogAPI)

	uid := RandID()
	rid := RandID()
	SeedUser(t, db, uid, "it-cancel@example.com", "IT Cancel")
	// far future: jobs stay PENDING long enough to observe
	SeedReminder(t, db, rid, uid, "license", time.Now().AddDate(1, 0, 0), []int32{1, 3, 7})

	PublishReminderSaved(t, cfg.KafkaBootstrap, cfg.ChangeTopic, rid)

	deadline := time.Now().Add(45 * time.Second)
	for CountPendingJobs(t, db, rid) != 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 3 pending jobs, got %d", CountPendingJobs(t, db, rid))
		}
		time.Sleep(500 * time.Millisecond)
	}

	DeleteReminder(t, db, rid)
	PublishReminderDeleted(t, cfg.KafkaBootstrap, cfg.ChangeTopic, rid)

	deadline = time.Now().Add(45 * time.Second)
	for CountPendingJobs(t, db, rid) != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("pending jobs not cancelled, got %d", CountPendingJobs(t, db, rid))
		}
		time.Sleep(500 * time.Millisecond)
	}

	ExpectNoMailhog(t, cfg.MailhogAPI, 5*time.Second)
}
