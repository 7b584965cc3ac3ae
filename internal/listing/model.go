package listing

import "time"

// Entry represents a persisted structured listing record derived from one
// voice note. Structured fields default to empty/zero when unknown; callers
// must treat 0.0 on the numeric fields as "unknown", not a real measurement.
type Entry struct {
	ID                string     `json:"id"`
	TranscribedText   string     `json:"transcribedText"`
	CreationDate      time.Time  `json:"creationDate"`
	EmailSent         bool       `json:"emailSent"`
	LastEmailSentDate *time.Time `json:"lastEmailSentDate,omitempty"`
	AudioRecordingKey string     `json:"audioRecordingKey,omitempty"`

	Title             string   `json:"title"`
	Brand             string   `json:"brand"`
	Color             string   `json:"color"`
	ItemDescription   string   `json:"itemDescription"`
	IsUnisex          bool     `json:"isUnisex"`
	MeasurementLength float64  `json:"measurementLength"`
	MeasurementWidth  float64  `json:"measurementWidth"`
	Price             float64  `json:"price"`
	Size              string   `json:"size"`
	Status            string   `json:"status"`
	Images            []string `json:"images"`
}

// ApplyFields overwrites the entry's structured fields from the normalized
// values. ID and CreationDate are never touched; edits go through here so the
// two stay immutable after creation.
func (e *Entry) ApplyFields(n Normalized) {
	e.Title = n.Title
	e.Brand = n.Brand
	e.Color = n.Color
	e.ItemDescription = n.ItemDescription
	e.IsUnisex = n.IsUnisex
	e.MeasurementLength = n.MeasurementLength
	e.MeasurementWidth = n.MeasurementWidth
	e.Price = n.Price
	e.Size = n.Size
	e.Status = n.Status
}
