// Package notify composes and delivers the email summary for a listing entry.
// The concrete channel sits behind the Mailer interface; the dispatcher owns
// the configured recipient, the pre-send check and the rendered body.
package notify

import (
	"context"
	"errors"
	"fmt"

	"annonce-backend/internal/listing"
	"annonce-backend/internal/shared/telemetry"
)

var (
	// ErrNotConfigured means the sending channel is not set up; nothing was attempted.
	ErrNotConfigured = errors.New("email channel not configured")
	// ErrUserCancelled means the underlying channel reported an explicit cancel.
	ErrUserCancelled = errors.New("email sending cancelled")
	// ErrSendingFailed covers every other delivery failure.
	ErrSendingFailed = errors.New("email sending failed")
)

// Mailer is the outbound channel contract. Implementations report a
// draft-saved outcome as success. CanSend is a cheap configuration check.
type Mailer interface {
	CanSend() bool
	Send(ctx context.Context, recipient, subject, body string) error
}

// Dispatcher sends the formatted summary for an entry to the configured
// recipient. It is used both by the pipeline at creation time and by the
// manual resend path; both render byte-identical bodies for the same entry.
type Dispatcher struct {
	Mailer    Mailer
	Recipient string
}

// Configured reports whether a send could possibly succeed.
func (d *Dispatcher) Configured() bool {
	return d != nil && d.Mailer != nil && d.Recipient != "" && d.Mailer.CanSend()
}

// Send renders and delivers the summary for the entry. It never panics across
// the pipeline boundary: channel panics come back as ErrSendingFailed.
func (d *Dispatcher) Send(ctx context.Context, entry listing.Entry) (err error) {
	if !d.Configured() {
		return ErrNotConfigured
	}
	defer func() {
		if rec := recover(); rec != nil {
			telemetry.Error("notify.panic", map[string]any{
				"entry_id": entry.ID,
				"error":    fmt.Sprint(rec),
			})
			err = ErrSendingFailed
		}
	}()
	return d.Mailer.Send(ctx, d.Recipient, Subject(entry), Body(entry))
}
