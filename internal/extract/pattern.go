package extract

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"annonce-backend/internal/listing"
)

// Pattern extracts fields from semi-structured "Label: value, Label: value"
// utterances with fixed rules. Labels that do not match are simply absent
// from the output; a string that matches nothing yields an empty Fields.
type Pattern struct{}

// NewPattern constructs the pattern extractor.
func NewPattern() *Pattern {
	return &Pattern{}
}

// Labels match case-sensitively so that e.g. "Valid:" never matches the id
// label and "Subtitle:" never matches the title label. Only the boolean value
// itself is case-insensitive.
var (
	idRe     = regexp.MustCompile(`\bId:\s*([^\s,]+)`)
	titleRe  = regexp.MustCompile(`\bTitle:\s*([^,]+)`)
	brandRe  = regexp.MustCompile(`\bBrand:\s*([^,]+)`)
	colorRe  = regexp.MustCompile(`\bColor:\s*([^,]+)`)
	descRe   = regexp.MustCompile(`\bDescription:\s*([^,]+)`)
	unisexRe = regexp.MustCompile(`\bIs unisex:\s*((?i:true|false|yes|no))`)
	lengthRe = regexp.MustCompile(`\bMeasurement length:\s*([0-9.]+)`)
	widthRe  = regexp.MustCompile(`\bMeasurement width:\s*([0-9.]+)`)
	priceRe  = regexp.MustCompile(`\bPrice:\s*([0-9.]+)`)
	sizeRe   = regexp.MustCompile(`\bSize:\s*([^,]+)`)
	statusRe = regexp.MustCompile(`\bStatus:\s*([^,]+)`)
)

// Extract matches each known label against the text. It never fails.
func (p *Pattern) Extract(ctx context.Context, text string) listing.Fields {
	_ = ctx
	var f listing.Fields
	f.ID = matchString(idRe, text)
	f.Title = matchString(titleRe, text)
	f.Brand = matchString(brandRe, text)
	f.Color = matchString(colorRe, text)
	f.ItemDescription = matchString(descRe, text)
	f.IsUnisex = matchBool(unisexRe, text)
	f.MeasurementLength = matchNumber(lengthRe, text)
	f.MeasurementWidth = matchNumber(widthRe, text)
	f.Price = matchNumber(priceRe, text)
	f.Size = matchString(sizeRe, text)
	f.Status = matchString(statusRe, text)
	return f
}

func matchString(re *regexp.Regexp, text string) *string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	val := strings.TrimSpace(m[1])
	if val == "" {
		return nil
	}
	return &val
}

func matchBool(re *regexp.Regexp, text string) *bool {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	val := strings.EqualFold(m[1], "true") || strings.EqualFold(m[1], "yes")
	return &val
}

// matchNumber parses a decimal value. Parse failure yields absence, never an
// error; the caller's defaults apply.
func matchNumber(re *regexp.Regexp, text string) *float64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	val, err := strconv.ParseFloat(strings.TrimSpace(m[1]), 64)
	if err != nil {
		return nil
	}
	return &val
}

var _ Extractor = (*Pattern)(nil)
