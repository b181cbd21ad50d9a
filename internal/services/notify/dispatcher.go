package notify

import (
	"context"
	"fmt"

	"github.com/mansi-tandel/expirydate-tracker/internal/domain/notification"
	"github.com/mansi-tandel/expirydate-tracker/internal/domain/reminder"
	"github.com/mansi-tandel/expirydate-tracker/internal/domain/user"
)

const expiryDateLayout = "Jan 2, 2006"

// Dispatcher composes and sends one expiry notification. Delivery
// errors are returned to the caller; both scheduling paths treat them
// as non-fatal for everything but the current reminder/offset.
type Dispatcher struct {
	Out notification.EmailSender
}

func NewDispatcher(out notification.EmailSender) *Dispatcher {
	return &Dispatcher{Out: out}
}

func (d *Dispatcher) Notify(ctx context.Context, u *user.User, rem *reminder.Reminder, daysBefore int) error {
	if u == nil || u.Email == "" {
		return nil
	}

	expiry := reminder.DateOnly(rem.ExpiryDate).Format(expiryDateLayout)

	subject := fmt.Sprintf("Reminder: %s expires on %s", rem.ItemType, expiry)
	text := fmt.Sprintf(
		"Hi %s,\n\nYour item %q is set to expire on %s. This is your %d-day reminder.\n\nRegards,\nExpiry Date Tracker",
		u.Name, rem.ItemType, expiry, daysBefore,
	)
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your item %q is set to expire on <strong>%s</strong>. This is your <strong>%d-day</strong> reminder.</p><p>Regards,<br/>Expiry Date Tracker</p>",
		u.Name, rem.ItemType, expiry, daysBefore,
	)

	if err := d.Out.Send(ctx, u.Email, subject, text, html); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
