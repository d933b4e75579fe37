package extraction

import (
	"strings"
	"unicode/utf8"

	"triage_server/core/domain"
)

const (
	// DefaultMaxChars caps the text sent to the model.
	DefaultMaxChars = 50000
	// TruncationMarker is appended to capped text.
	TruncationMarker = "... [texto truncado]"
)

var markerLen = utf8.RuneCountInString(TruncationMarker)

// Normalizer collapses whitespace and caps text length.
type Normalizer struct {
	maxChars int
}

func NewNormalizer(maxChars int) *Normalizer {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Normalizer{maxChars: maxChars}
}

// Normalize collapses every whitespace run to a single space and trims the result.
// Text longer than the cap is cut at the cap and suffixed with TruncationMarker.
// Output that was already capped by this normalizer is returned unchanged.
func (n *Normalizer) Normalize(text string) domain.NormalizedText {
	collapsed := strings.Join(strings.Fields(text), " ")
	length := utf8.RuneCountInString(collapsed)

	out := domain.NormalizedText{
		OriginalText:   text,
		OriginalLength: utf8.RuneCountInString(text),
	}

	switch {
	case length == n.maxChars+markerLen && strings.HasSuffix(collapsed, TruncationMarker):
		out.ProcessedText = collapsed
		out.WasTruncated = true
	case length > n.maxChars:
		runes := []rune(collapsed)
		out.ProcessedText = string(runes[:n.maxChars]) + TruncationMarker
		out.WasTruncated = true
	default:
		out.ProcessedText = collapsed
	}

	out.ProcessedLength = utf8.RuneCountInString(out.ProcessedText)
	return out
}
