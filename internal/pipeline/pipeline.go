// Package pipeline drives one recording session through
// record → transcribe → extract → save → notify, tracking stage-level state.
// Stage transitions are strictly sequential; each stage's output is the next
// stage's input. Creation success is decoupled from notification success: an
// entry is never lost because the email channel is down.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"annonce-backend/internal/extract"
	"annonce-backend/internal/listing"
	"annonce-backend/internal/record"
	"annonce-backend/internal/shared/metrics"
	"annonce-backend/internal/shared/telemetry"
	"annonce-backend/internal/transcribe"
)

// State names one position in the session state machine.
type State string

const (
	StateIdle         State = "idle"
	StateRecording    State = "recording"
	StateTranscribing State = "transcribing"
	StateExtracting   State = "extracting"
	StateSaving       State = "saving"
	StateDone         State = "done"
	StateFailed       State = "failed"
	StateCancelled    State = "cancelled"
)

var (
	// ErrPermissionRequired means capture or speech permissions are missing;
	// no session is started.
	ErrPermissionRequired = errors.New("microphone and speech recognition permissions are required")
	// ErrSessionNotFound means the session id is unknown.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidState means the requested operation does not apply to the
	// session's current state.
	ErrInvalidState = errors.New("operation not valid in current session state")
)

// Terminal sessions stay queryable for this long after finishing, then the
// registry drops them.
const terminalSessionTTL = time.Hour

// Session is one traversal of the pipeline for one recording.
type Session struct {
	mu sync.Mutex

	id         string
	state      State
	audio      record.AudioRef
	text       string
	entryID    string
	emailSent  bool
	notice     string
	failure    string
	createdAt  time.Time
	finishedAt time.Time
}

// Snapshot is an immutable copy of a session's observable state.
type Snapshot struct {
	ID              string    `json:"id"`
	State           State     `json:"state"`
	TranscribedText string    `json:"transcribedText,omitempty"`
	EntryID         string    `json:"entryId,omitempty"`
	EmailSent       bool      `json:"emailSent"`
	Notice          string    `json:"notice,omitempty"`
	Error           string    `json:"error,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		ID:              s.id,
		State:           s.state,
		TranscribedText: s.text,
		EntryID:         s.entryID,
		EmailSent:       s.emailSent,
		Notice:          s.notice,
		Error:           s.failure,
		CreatedAt:       s.createdAt,
	}
}

// Orchestrator owns the session registry and the exclusive capture device.
type Orchestrator struct {
	Recorder    record.Recorder
	Transcriber transcribe.Transcriber
	Extractor   extract.Extractor
	Entries     *listing.Service
	Recordings  listing.Recordings
	Locale      string

	mu          sync.Mutex
	sessions    map[string]*Session
	recordingID string
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator(rec record.Recorder, tr transcribe.Transcriber, ex extract.Extractor, entries *listing.Service, recordings listing.Recordings, locale string) *Orchestrator {
	return &Orchestrator{
		Recorder:    rec,
		Transcriber: tr,
		Extractor:   ex,
		Entries:     entries,
		Recordings:  recordings,
		Locale:      locale,
		sessions:    make(map[string]*Session),
	}
}

// Start begins a new recording session. Permissions must already be granted,
// otherwise ErrPermissionRequired comes back and nothing starts. Only one
// session may hold the capture device at a time.
func (o *Orchestrator) Start(ctx context.Context) (Snapshot, error) {
	if !o.Recorder.HasPermission() || !o.Transcriber.HasPermission() {
		return Snapshot{}, ErrPermissionRequired
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.pruneLocked(time.Now().UTC())
	if o.recordingID != "" {
		return Snapshot{}, record.ErrBusy
	}

	ref, err := o.Recorder.Start(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("start recording: %w", err)
	}

	sess := &Session{
		id:        uuid.NewString(),
		state:     StateRecording,
		audio:     ref,
		createdAt: time.Now().UTC(),
	}
	o.sessions[sess.id] = sess
	o.recordingID = sess.id
	metrics.IncSessionStarted()

	telemetry.Info("session.started", map[string]any{"session_id": sess.id})
	return sess.snapshot(), nil
}

// Ingest feeds captured audio bytes into the active recording.
func (o *Orchestrator) Ingest(sessionID string, p []byte) error {
	sess, err := o.get(sessionID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	if sess.state != StateRecording {
		sess.mu.Unlock()
		return ErrInvalidState
	}
	sess.mu.Unlock()

	// The capture device is shared. Re-check ownership under the registry
	// lock and hold it across the write, so a cancel followed by another
	// session's start cannot land these bytes in the next buffer.
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.recordingID != sessionID {
		return ErrInvalidState
	}
	_, err = o.Recorder.Write(p)
	return err
}

// Stop ends the recording and drives the session through transcription,
// extraction, persistence and best-effort notification. It returns the
// terminal snapshot. Failures before Saving mean no entry exists; a
// notification failure after a successful save still ends in Done.
func (o *Orchestrator) Stop(ctx context.Context, sessionID string) (Snapshot, error) {
	sess, err := o.get(sessionID)
	if err != nil {
		return Snapshot{}, err
	}

	sess.mu.Lock()
	if sess.state != StateRecording {
		snap := sess.snapshot()
		sess.mu.Unlock()
		return snap, ErrInvalidState
	}
	sess.state = StateTranscribing
	sess.mu.Unlock()

	start := time.Now()
	ref, err := o.Recorder.Stop(ctx)
	o.releaseCapture(sessionID)
	if err != nil {
		return o.fail(sess, fmt.Errorf("stop recording: %w", err)), nil
	}
	sess.mu.Lock()
	sess.audio = ref
	sess.mu.Unlock()

	text, err := o.Transcriber.Transcribe(ctx, ref.Key, o.Locale)
	if err != nil {
		// The session aborts before any record exists; the stored audio
		// has no owner anymore and is removed with it.
		o.discardAudio(ctx, ref.Key)
		return o.fail(sess, err), nil
	}
	sess.mu.Lock()
	sess.text = text
	sess.state = StateExtracting
	sess.mu.Unlock()

	// Extraction never fails; an empty mapping still proceeds to Saving.
	fields := o.Extractor.Extract(ctx, text)

	sess.mu.Lock()
	sess.state = StateSaving
	sess.mu.Unlock()

	entry, err := o.Entries.Create(ctx, text, ref.Key, fields)
	if err != nil {
		o.discardAudio(ctx, ref.Key)
		return o.fail(sess, err), nil
	}

	notified, nerr := o.Entries.Notify(ctx, entry.ID)
	sess.mu.Lock()
	sess.entryID = entry.ID
	sess.state = StateDone
	sess.finishedAt = time.Now().UTC()
	if nerr != nil {
		sess.notice = "entry saved, but email was not sent"
	} else {
		sess.emailSent = notified.EmailSent
	}
	snap := sess.snapshot()
	sess.mu.Unlock()

	metrics.IncSessionCompleted()
	metrics.ObserveSessionDurationMs(float64(time.Since(start).Milliseconds()))
	telemetry.Info("session.completed", map[string]any{
		"session_id": sessionID,
		"entry_id":   entry.ID,
		"email_sent": snap.EmailSent,
	})
	if nerr != nil {
		telemetry.Warn("session.notify_failed", map[string]any{
			"session_id": sessionID,
			"entry_id":   entry.ID,
			"error":      nerr.Error(),
		})
	}
	return snap, nil
}

// Cancel discards the session's recording and releases the capture device.
// It is only meaningful while Recording; once Transcribing has started it is
// a no-op and the current snapshot comes back unchanged.
func (o *Orchestrator) Cancel(ctx context.Context, sessionID string) (Snapshot, error) {
	sess, err := o.get(sessionID)
	if err != nil {
		return Snapshot{}, err
	}

	sess.mu.Lock()
	if sess.state != StateRecording {
		snap := sess.snapshot()
		sess.mu.Unlock()
		return snap, nil
	}
	sess.state = StateCancelled
	sess.finishedAt = time.Now().UTC()
	snap := sess.snapshot()
	sess.mu.Unlock()

	o.Recorder.Cancel(ctx)
	o.releaseCapture(sessionID)
	telemetry.Info("session.cancelled", map[string]any{"session_id": sessionID})
	return snap, nil
}

// Get returns the session's current snapshot.
func (o *Orchestrator) Get(sessionID string) (Snapshot, error) {
	sess, err := o.get(sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshot(), nil
}

func (o *Orchestrator) get(sessionID string) (*Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	sess, ok := o.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// pruneLocked evicts terminal sessions whose grace period has expired so the
// registry does not grow without bound. Caller holds o.mu.
func (o *Orchestrator) pruneLocked(now time.Time) {
	for id, sess := range o.sessions {
		sess.mu.Lock()
		finished := sess.finishedAt
		sess.mu.Unlock()
		if !finished.IsZero() && now.Sub(finished) > terminalSessionTTL {
			delete(o.sessions, id)
		}
	}
}

// discardAudio removes a stored recording that no entry references.
func (o *Orchestrator) discardAudio(ctx context.Context, key string) {
	if o.Recordings == nil || key == "" {
		return
	}
	if err := o.Recordings.Delete(ctx, key); err != nil {
		telemetry.Warn("session.audio_delete_failed", map[string]any{
			"audio_key": key,
			"error":     err.Error(),
		})
	}
}

func (o *Orchestrator) releaseCapture(sessionID string) {
	o.mu.Lock()
	if o.recordingID == sessionID {
		o.recordingID = ""
	}
	o.mu.Unlock()
}

func (o *Orchestrator) fail(sess *Session, err error) Snapshot {
	sess.mu.Lock()
	sess.state = StateFailed
	sess.failure = err.Error()
	sess.finishedAt = time.Now().UTC()
	snap := sess.snapshot()
	sess.mu.Unlock()

	metrics.IncSessionFailed()
	telemetry.Error("session.failed", map[string]any{
		"session_id": snap.ID,
		"error":      err.Error(),
	})
	return snap
}
