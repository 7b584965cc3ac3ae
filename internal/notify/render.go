package notify

import (
	"strconv"
	"strings"
	"time"

	"annonce-backend/internal/listing"
)

const dateLayout = "Jan 2, 2006 15:04"

// Subject builds the email subject for an entry.
func Subject(entry listing.Entry) string {
	return "Voice Entry - " + formatDate(entry.CreationDate)
}

// Body renders the deterministic message body: the transcribed text, then a
// labeled block of the structured fields, then a creation-date footer. Fields
// holding their default value ("" or 0.0) are omitted entirely.
func Body(entry listing.Entry) string {
	var b strings.Builder
	b.WriteString("Transcribed Text:\n")
	b.WriteString(entry.TranscribedText)
	b.WriteString("\n\n")

	b.WriteString("Structured Data:\n")
	b.WriteString("---\n")
	writeField(&b, "ID", entry.ID)
	writeField(&b, "Title", entry.Title)
	writeField(&b, "Brand", entry.Brand)
	writeField(&b, "Color", entry.Color)
	writeField(&b, "Description", entry.ItemDescription)
	if entry.IsUnisex {
		b.WriteString("Is Unisex: Yes\n")
	}
	writeNumber(&b, "Measurement Length", entry.MeasurementLength)
	writeNumber(&b, "Measurement Width", entry.MeasurementWidth)
	writeNumber(&b, "Price", entry.Price)
	writeField(&b, "Size", entry.Size)
	writeField(&b, "Status", entry.Status)
	b.WriteString("---\n")

	b.WriteString("Created: ")
	b.WriteString(formatDate(entry.CreationDate))
	b.WriteString("\n")
	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\n")
}

func writeNumber(b *strings.Builder, label string, value float64) {
	if value <= 0 {
		return
	}
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(strconv.FormatFloat(value, 'f', -1, 64))
	b.WriteString("\n")
}

func formatDate(ts time.Time) string {
	return ts.UTC().Format(dateLayout)
}
