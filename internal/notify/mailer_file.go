package notify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileMailer is a development channel that writes each message to a local
// outbox directory instead of a real transport. An empty directory means the
// channel is unconfigured.
type FileMailer struct {
	Dir string
}

// CanSend reports whether the outbox directory is configured.
func (m *FileMailer) CanSend() bool {
	return m != nil && strings.TrimSpace(m.Dir) != ""
}

// Send writes the message as a plain-text file in the outbox.
func (m *FileMailer) Send(ctx context.Context, recipient, subject, body string) error {
	if !m.CanSend() {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSendingFailed, err)
	}
	if err := os.MkdirAll(m.Dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrSendingFailed, err)
	}

	name := fmt.Sprintf("%d.eml", time.Now().UTC().UnixNano())
	msg := fmt.Sprintf("To: %s\nSubject: %s\n\n%s", recipient, subject, body)
	if err := os.WriteFile(filepath.Join(m.Dir, name), []byte(msg), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrSendingFailed, err)
	}
	return nil
}
