package notification

import (
	"context"
	"time"

	"github.com/mansi-tandel/expirydate-tracker/internal/domain/reminder"
	"github.com/mansi-tandel/expirydate-tracker/internal/domain/user"
)

// EmailSender delivers one composed message. html may be empty.
type EmailSender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Dispatcher composes and delivers one expiry notification to the
// reminder's owner for the given offset.
type Dispatcher interface {
	Notify(ctx context.Context, u *user.User, rem *reminder.Reminder, daysBefore int) error
}

type Clock interface {
	Now() time.Time
}
