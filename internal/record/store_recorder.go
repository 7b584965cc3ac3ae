package record

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"annonce-backend/internal/shared/storage/object"
)

const recordingNamespace = "recordings"

// StoreRecorder buffers a recording in memory and persists it to the object
// store on Stop. Cancel discards the buffer without writing anything.
type StoreRecorder struct {
	store object.ObjectStore

	mu     sync.Mutex
	active bool
	ref    AudioRef
	buf    bytes.Buffer
}

// NewStoreRecorder constructs a recorder backed by the given object store.
func NewStoreRecorder(store object.ObjectStore) *StoreRecorder {
	return &StoreRecorder{store: store}
}

// RequestPermission always succeeds: the capture grant was given client-side
// before any audio reached this process.
func (r *StoreRecorder) RequestPermission(ctx context.Context) bool {
	_ = ctx
	return true
}

// HasPermission reports the capture grant.
func (r *StoreRecorder) HasPermission() bool {
	return true
}

// Start claims the device and allocates the pending audio reference.
func (r *StoreRecorder) Start(ctx context.Context) (AudioRef, error) {
	if err := ctx.Err(); err != nil {
		return AudioRef{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return AudioRef{}, ErrBusy
	}
	r.active = true
	r.buf.Reset()
	r.ref = AudioRef{FileName: fmt.Sprintf("recording_%s.m4a", uuid.NewString())}
	return r.ref, nil
}

// Write appends captured audio to the active recording.
func (r *StoreRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return 0, ErrNotRecording
	}
	return r.buf.Write(p)
}

// Stop persists the buffered audio and releases the device. The returned
// reference carries the storage key of the saved asset.
func (r *StoreRecorder) Stop(ctx context.Context) (AudioRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return AudioRef{}, ErrNotRecording
	}

	key, _, _, err := r.store.Save(ctx, recordingNamespace, r.ref.FileName, bytes.NewReader(r.buf.Bytes()))
	r.active = false
	r.buf.Reset()
	if err != nil {
		return AudioRef{}, fmt.Errorf("%w: %v", ErrRecordingFailed, err)
	}
	r.ref.Key = key
	return r.ref, nil
}

// Cancel discards any partial audio and releases the device.
func (r *StoreRecorder) Cancel(ctx context.Context) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = false
	r.buf.Reset()
	r.ref = AudioRef{}
}

var _ Recorder = (*StoreRecorder)(nil)
