package extract

import (
	"context"
	"encoding/json"

	"annonce-backend/internal/listing"
	"annonce-backend/internal/llm"
	"annonce-backend/internal/shared/telemetry"
)

// Model wraps the generative extraction capability and degrades to the
// pattern extractor whenever the capability is absent, errors out or returns
// a payload that does not fit the field schema. Extraction therefore always
// completes; the pipeline never fails at this stage.
type Model struct {
	client   llm.Client
	fallback Extractor
	language string
}

// NewModel constructs the model extractor. A nil client means the capability
// is not wired on this deployment; every call then takes the fallback path.
func NewModel(client llm.Client, language string) *Model {
	if client != nil {
		client = newRetryingClient(client)
	}
	return &Model{
		client:   client,
		fallback: NewPattern(),
		language: language,
	}
}

// Extract attempts a model call and falls back to pattern extraction on any
// failure. It never fails.
func (m *Model) Extract(ctx context.Context, text string) listing.Fields {
	if m.client == nil {
		return m.fallback.Extract(ctx, text)
	}

	raw, err := m.client.ExtractListing(ctx, llm.ExtractInput{Text: text, Language: m.language})
	if err != nil {
		telemetry.Warn("extract.model_fallback", map[string]any{"error": err.Error()})
		return m.fallback.Extract(ctx, text)
	}

	var fields listing.Fields
	if err := json.Unmarshal(raw, &fields); err != nil {
		telemetry.Warn("extract.model_fallback", map[string]any{"error": "malformed response: " + err.Error()})
		return m.fallback.Extract(ctx, text)
	}
	return fields
}

var _ Extractor = (*Model)(nil)
