// Package segment splits large pipeline input into bounded, ordered chunks:
// word-count-bounded text chunks and time-bounded audio windows.
package segment

import (
	"fmt"
	"math"
	"strings"
)

// SplitByWordCount tokenizes text on whitespace and groups the tokens into
// chunks of at most wordsPerChunk words, rejoined with single spaces. Blank
// input yields an empty slice. A non-positive bound is a configuration error.
func SplitByWordCount(text string, wordsPerChunk int) ([]string, error) {
	if wordsPerChunk <= 0 {
		return nil, fmt.Errorf("wordsPerChunk must be a positive integer, got %d", wordsPerChunk)
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{}, nil
	}

	chunks := make([]string, 0, (len(words)+wordsPerChunk-1)/wordsPerChunk)
	for i := 0; i < len(words); i += wordsPerChunk {
		end := i + wordsPerChunk
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}

	return chunks, nil
}

// Window describes one audio segment by offset and length, in seconds.
// A window with Duration <= 0 falls off the end of the source and must be
// skipped, but it still occupies its sequence index so progress numbering
// matches the nominal segment count.
type Window struct {
	Index    int
	StartSec float64
	DurSec   float64
}

// Skip reports whether the window carries no audio.
func (w Window) Skip() bool {
	return w.DurSec <= 0
}

// PlanWindows produces ceil(totalSec/segmentSec) windows covering the whole
// source, the last one clamped to the remainder.
func PlanWindows(totalSec, segmentSec float64) ([]Window, error) {
	if totalSec <= 0 {
		return nil, fmt.Errorf("total duration must be positive, got %gs", totalSec)
	}
	if segmentSec <= 0 {
		return nil, fmt.Errorf("segment length must be positive, got %gs", segmentSec)
	}

	count := int(math.Ceil(totalSec / segmentSec))
	windows := make([]Window, 0, count)
	for i := 0; i < count; i++ {
		start := float64(i) * segmentSec
		dur := math.Min(segmentSec, totalSec-start)
		windows = append(windows, Window{Index: i, StartSec: start, DurSec: dur})
	}

	return windows, nil
}
