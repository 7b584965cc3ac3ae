package extract

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"

	"annonce-backend/internal/llm"
	"annonce-backend/internal/shared/telemetry"
)

const retryBaseDelay = 300 * time.Millisecond

// retryingClient retries one transient failure before the caller falls back
// to pattern extraction.
type retryingClient struct {
	base llm.Client
}

func newRetryingClient(base llm.Client) llm.Client {
	return retryingClient{base: base}
}

func (r retryingClient) ExtractListing(ctx context.Context, input llm.ExtractInput) (json.RawMessage, error) {
	resp, err := r.base.ExtractListing(ctx, input)
	if err == nil || !shouldRetry(err) {
		return resp, err
	}

	telemetry.Warn("llm.retry", map[string]any{"error": err.Error()})
	select {
	case <-time.After(retryBaseDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return r.base.ExtractListing(ctx, input)
}

func shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, llm.ErrUnavailable) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "server_error") {
		return true
	}
	if strings.Contains(msg, "timeout") {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "eof") {
		return true
	}

	return false
}
