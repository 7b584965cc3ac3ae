package listing

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Fields is the loosely-populated extraction output: every field is optional
// so both extractors can report only what they actually found. It is the seam
// shared by the model-based and pattern-based extractors; anything that shapes
// text into structured listing data must produce this type.
type Fields struct {
	ID                *string  `json:"id,omitempty"`
	Title             *string  `json:"title,omitempty"`
	Brand             *string  `json:"brand,omitempty"`
	Color             *string  `json:"color,omitempty"`
	ItemDescription   *string  `json:"itemDescription,omitempty"`
	IsUnisex          *bool    `json:"isUnisex,omitempty"`
	MeasurementLength *float64 `json:"measurementLength,omitempty"`
	MeasurementWidth  *float64 `json:"measurementWidth,omitempty"`
	Price             *float64 `json:"price,omitempty"`
	Size              *string  `json:"size,omitempty"`
	Status            *string  `json:"status,omitempty"`
}

// Normalized holds the entry-shaped projection of extracted fields with the
// documented defaults applied: missing strings become "", missing booleans
// false, missing numbers 0.0, and negative numbers are clamped to 0.0.
type Normalized struct {
	ID                string
	Title             string
	Brand             string
	Color             string
	ItemDescription   string
	IsUnisex          bool
	MeasurementLength float64
	MeasurementWidth  float64
	Price             float64
	Size              string
	Status            string
}

// Normalize applies the default-on-missing rule to produce concrete values.
// Re-normalizing the fields of an already-normalized value yields the same
// value, so the operation is idempotent.
func (f Fields) Normalize() Normalized {
	return Normalized{
		ID:                derefString(f.ID),
		Title:             derefString(f.Title),
		Brand:             derefString(f.Brand),
		Color:             derefString(f.Color),
		ItemDescription:   derefString(f.ItemDescription),
		IsUnisex:          f.IsUnisex != nil && *f.IsUnisex,
		MeasurementLength: derefNumber(f.MeasurementLength),
		MeasurementWidth:  derefNumber(f.MeasurementWidth),
		Price:             derefNumber(f.Price),
		Size:              derefString(f.Size),
		Status:            derefString(f.Status),
	}
}

// Fields converts the normalized values back into the optional form. Empty
// and zero values round-trip as present-but-default, which keeps
// Normalize(Fields(n)) == n.
func (n Normalized) Fields() Fields {
	return Fields{
		ID:                &n.ID,
		Title:             &n.Title,
		Brand:             &n.Brand,
		Color:             &n.Color,
		ItemDescription:   &n.ItemDescription,
		IsUnisex:          &n.IsUnisex,
		MeasurementLength: &n.MeasurementLength,
		MeasurementWidth:  &n.MeasurementWidth,
		Price:             &n.Price,
		Size:              &n.Size,
		Status:            &n.Status,
	}
}

// NewEntry assembles an Entry from a transcription and normalized extraction
// output. The extracted id wins when present; otherwise a fresh one is
// generated. CreationDate is set once, here.
func NewEntry(transcribedText, audioKey string, n Normalized, now time.Time) Entry {
	id := strings.TrimSpace(n.ID)
	if id == "" {
		id = uuid.NewString()
	}
	e := Entry{
		ID:                id,
		TranscribedText:   transcribedText,
		CreationDate:      now.UTC(),
		AudioRecordingKey: audioKey,
	}
	e.ApplyFields(n)
	return e
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func derefNumber(f *float64) float64 {
	if f == nil || *f < 0 {
		return 0.0
	}
	return *f
}
