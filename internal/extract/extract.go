// Package extract turns transcribed free text into structured listing fields.
// Two extractors share the listing.Fields output schema: a generative
// model-based one and a deterministic pattern-based one. The pattern extractor
// is total, which makes it the guaranteed-safe fallback for the model path.
package extract

import (
	"context"

	"annonce-backend/internal/listing"
)

// Extractor produces listing fields from transcribed text. Implementations
// never fail: the worst case is an empty Fields value with nothing set.
type Extractor interface {
	Extract(ctx context.Context, text string) listing.Fields
}
