// Package transcribe defines the speech-to-text capability contract consumed
// by the pipeline. Adapters must wait for a final recognition result; partial
// results are never surfaced to callers.
package transcribe

import (
	"context"
	"errors"
)

var (
	// ErrPermissionDenied means the capability grant is missing.
	ErrPermissionDenied = errors.New("speech recognition permission denied")
	// ErrLanguageUnsupported means no recognizer exists for the requested locale.
	ErrLanguageUnsupported = errors.New("language not supported")
	// ErrRecognitionUnavailable means the recognizer reported itself unavailable.
	ErrRecognitionUnavailable = errors.New("speech recognition unavailable")
	// ErrUserCancelled means the recognition was explicitly cancelled.
	ErrUserCancelled = errors.New("transcription cancelled")
	// ErrTranscriptionFailed covers every other recognition error.
	ErrTranscriptionFailed = errors.New("transcription failed")
)

// Transcriber converts a recorded audio asset into text. The audio is
// addressed by its storage key; locale is a BCP 47 tag such as "fr-FR" and
// may be empty for the adapter's default.
type Transcriber interface {
	RequestPermission(ctx context.Context) bool
	HasPermission() bool
	Transcribe(ctx context.Context, audioKey, locale string) (string, error)
}
