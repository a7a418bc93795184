package pipeline

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Chunk transformers may wrap spans in ((( ))) to mark text that must
// survive rewriting verbatim. The delimiters are stripped after
// concatenation, keeping the span itself.
var verbatimMarker = regexp.MustCompile(`\(\(\((.*?)\)\)\)`)

// StripVerbatimMarkers removes the ((( ))) delimiters, keeping their content.
func StripVerbatimMarkers(s string) string {
	return verbatimMarker.ReplaceAllString(s, "$1")
}

// CombineChunks joins chunk outputs with a blank-line separator and strips
// the verbatim markers from the combined text.
func CombineChunks(parts []string) string {
	return StripVerbatimMarkers(strings.Join(parts, "\n\n"))
}

// FailedChunkPlaceholder is the text substituted for a chunk that failed
// after its retry. The 1-based index keeps it traceable in the artifact.
func FailedChunkPlaceholder(number, total int) string {
	return fmt.Sprintf("[failed: chunk %d/%d could not be processed]", number, total)
}

// FormatElapsed renders a wall-clock duration as "1h 2m 3s", dropping empty
// leading units.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// RenderArtifact wraps the combined text into the final HTML fragment shown
// to the user: an elapsed-time banner, the title heading, and the body.
func RenderArtifact(title, body string, elapsed time.Duration) string {
	return fmt.Sprintf(
		`<i style="display: block; font-style: italic; text-align: center;">🕒 Processing took %s</i>`+
			`<h1 style="font-weight: 700; font-size: 1.8rem; margin: 1rem 0; text-align: center; line-height: 1;">%s</h1>`+
			"\n\n"+`<p style="text-indent: 30px;">%s</p>`,
		FormatElapsed(elapsed), title, body,
	)
}
