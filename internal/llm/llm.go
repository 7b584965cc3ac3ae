package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Client abstracts the generative structured-extraction capability. The
// returned payload is a JSON object keyed by the listing field names; shaping
// and defaulting happen in the caller.
type Client interface {
	ExtractListing(ctx context.Context, input ExtractInput) (json.RawMessage, error)
}

// ExtractInput captures the inputs for a structured extraction call.
type ExtractInput struct {
	Text     string
	Language string
}

// ErrUnavailable is returned when no generative capability is configured.
// Callers are expected to degrade to pattern extraction.
var ErrUnavailable = errors.New("llm capability unavailable")

// PlaceholderClient stands in when no provider is wired. Every call reports
// the capability as unavailable.
type PlaceholderClient struct{}

// ExtractListing returns ErrUnavailable.
func (PlaceholderClient) ExtractListing(ctx context.Context, input ExtractInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, ErrUnavailable
}
