// Package record defines the audio capture contract. The pipeline never
// talks to capture hardware directly; on this backend the "device" is the
// transport feeding recorded bytes between Start and Stop.
package record

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrPermissionDenied means the capture grant is missing.
	ErrPermissionDenied = errors.New("microphone permission denied")
	// ErrRecordingFailed covers capture and persistence errors.
	ErrRecordingFailed = errors.New("recording failed")
	// ErrBusy means the capture device is owned by another active recording.
	ErrBusy = errors.New("capture device busy")
	// ErrNotRecording means Stop or Write was called with no active recording.
	ErrNotRecording = errors.New("no active recording")
)

// AudioRef is a weak reference to a recorded audio asset. The asset's
// lifecycle is owned by the recorder's backing store, not by entries that
// point at it.
type AudioRef struct {
	Key      string
	FileName string
}

// Recorder is the capture device contract. The device is exclusively owned
// between Start and Stop/Cancel; a second Start fails with ErrBusy. Captured
// audio is fed through the Writer while a recording is active.
type Recorder interface {
	io.Writer
	RequestPermission(ctx context.Context) bool
	HasPermission() bool
	Start(ctx context.Context) (AudioRef, error)
	Stop(ctx context.Context) (AudioRef, error)
	Cancel(ctx context.Context)
}
