package listing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"annonce-backend/internal/shared/telemetry"
)

// ErrNotificationFailed wraps delivery errors from the notifier. The entry
// itself is fine when this comes back; only the send went wrong.
var ErrNotificationFailed = errors.New("notification failed")

// Notifier delivers the summary for an entry. Implementations must not panic
// across this boundary and treat a draft-saved outcome as success.
type Notifier interface {
	Configured() bool
	Send(ctx context.Context, entry Entry) error
}

// Recordings removes stored audio assets. Satisfied by the object store.
type Recordings interface {
	Delete(ctx context.Context, storageKey string) error
}

// Service contains business logic for entries.
type Service struct {
	Repo       Repo
	Notifier   Notifier
	Recordings Recordings
	Now        func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Create persists a new entry assembled from a transcription and extracted
// fields. Notification is a separate step; a freshly created entry always has
// EmailSent false until a confirmed send.
func (s *Service) Create(ctx context.Context, transcribedText, audioKey string, fields Fields) (Entry, error) {
	entry := NewEntry(transcribedText, audioKey, fields.Normalize(), s.now())
	if err := s.Repo.Save(ctx, entry); err != nil {
		return Entry{}, fmt.Errorf("save entry: %w", err)
	}
	return entry, nil
}

// Notify sends the summary for an entry and records the confirmed delivery.
// EmailSent and LastEmailSentDate are only written after the channel reports
// success; the timestamp is the send time, not the creation time. Used by the
// pipeline after creation and by the manual resend path.
func (s *Service) Notify(ctx context.Context, id string) (Entry, error) {
	entry, err := s.Repo.FetchByID(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if s.Notifier == nil {
		return entry, fmt.Errorf("%w: no notifier", ErrNotificationFailed)
	}
	if err := s.Notifier.Send(ctx, entry); err != nil {
		return entry, fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}

	sentAt := s.now()
	entry.EmailSent = true
	entry.LastEmailSentDate = &sentAt
	if err := s.Repo.Update(ctx, entry); err != nil {
		// The mail is out; losing the status update must not fail the caller.
		telemetry.Error("entry.mark_sent_failed", map[string]any{
			"entry_id": entry.ID,
			"error":    err.Error(),
		})
	}
	return entry, nil
}

// Edit replaces the entry's structured fields and persists the full record.
// ID and CreationDate never change. EmailSent is left as-is after an edit,
// matching the established behavior even though the rendered body changes.
func (s *Service) Edit(ctx context.Context, id string, fields Fields) (Entry, error) {
	entry, err := s.Repo.FetchByID(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	entry.ApplyFields(fields.Normalize())
	if err := s.Repo.Update(ctx, entry); err != nil {
		return Entry{}, fmt.Errorf("update entry: %w", err)
	}
	return entry, nil
}

// List returns all entries newest-first.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	return s.Repo.FetchAll(ctx)
}

// Get returns an entry by id.
func (s *Service) Get(ctx context.Context, id string) (Entry, error) {
	if id == "" {
		return Entry{}, errors.New("id is required")
	}
	return s.Repo.FetchByID(ctx, id)
}

// Delete removes an entry by id, along with its stored recording.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("id is required")
	}
	entry, err := s.Repo.FetchByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	s.discardRecording(ctx, entry)
	return nil
}

// discardRecording removes the entry's audio asset. The row is already gone
// when this runs; a leftover file is logged, never surfaced to the caller.
func (s *Service) discardRecording(ctx context.Context, entry Entry) {
	if s.Recordings == nil || entry.AudioRecordingKey == "" {
		return
	}
	if err := s.Recordings.Delete(ctx, entry.AudioRecordingKey); err != nil {
		telemetry.Warn("entry.recording_delete_failed", map[string]any{
			"entry_id": entry.ID,
			"error":    err.Error(),
		})
	}
}
