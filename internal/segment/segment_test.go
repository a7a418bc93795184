package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitByWordCount(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		wordsPerChunk int
		want          []string
		wantErr       bool
	}{
		{
			name:          "even split",
			text:          "a b c d",
			wordsPerChunk: 2,
			want:          []string{"a b", "c d"},
		},
		{
			name:          "remainder chunk",
			text:          "one two three four five",
			wordsPerChunk: 2,
			want:          []string{"one two", "three four", "five"},
		},
		{
			name:          "single chunk",
			text:          "hello world",
			wordsPerChunk: 1000,
			want:          []string{"hello world"},
		},
		{
			name:          "collapses whitespace",
			text:          "  a\t\tb \n c  ",
			wordsPerChunk: 3,
			want:          []string{"a b c"},
		},
		{
			name:          "blank input",
			text:          "   \n\t ",
			wordsPerChunk: 10,
			want:          []string{},
		},
		{
			name:          "empty input",
			text:          "",
			wordsPerChunk: 10,
			want:          []string{},
		},
		{
			name:          "non-positive bound",
			text:          "a b",
			wordsPerChunk: 0,
			wantErr:       true,
		},
		{
			name:          "negative bound",
			text:          "a b",
			wordsPerChunk: -5,
			wantErr:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitByWordCount(tt.text, tt.wordsPerChunk)

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Segmenting then rejoining with single spaces must reproduce the
// whitespace-normalized token sequence, and the chunk count must be
// ceil(wordCount / N).
func TestSplitByWordCountRoundTrip(t *testing.T) {
	words := make([]string, 0, 2503)
	for i := 0; i < 2503; i++ {
		words = append(words, "w")
	}
	text := strings.Join(words, "  \n ")

	for _, n := range []int{1, 2, 7, 1000, 2503, 5000} {
		chunks, err := SplitByWordCount(text, n)
		require.NoError(t, err)

		wantCount := (2503 + n - 1) / n
		assert.Len(t, chunks, wantCount, "n=%d", n)
		assert.Equal(t, strings.Join(words, " "), strings.Join(chunks, " "), "n=%d", n)
	}
}

func TestPlanWindows(t *testing.T) {
	tests := []struct {
		name       string
		totalSec   float64
		segmentSec float64
		wantCount  int
		wantLast   float64
		wantErr    bool
	}{
		{
			name:       "even windows",
			totalSec:   1200,
			segmentSec: 600,
			wantCount:  2,
			wantLast:   600,
		},
		{
			name:       "clamped last window",
			totalSec:   1500,
			segmentSec: 600,
			wantCount:  3,
			wantLast:   300,
		},
		{
			name:       "shorter than one segment",
			totalSec:   42,
			segmentSec: 600,
			wantCount:  1,
			wantLast:   42,
		},
		{
			name:       "zero duration",
			totalSec:   0,
			segmentSec: 600,
			wantErr:    true,
		},
		{
			name:       "zero segment length",
			totalSec:   600,
			segmentSec: 0,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			windows, err := PlanWindows(tt.totalSec, tt.segmentSec)

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, windows, tt.wantCount)

			var sum float64
			for i, w := range windows {
				assert.Equal(t, i, w.Index)
				assert.Equal(t, float64(i)*tt.segmentSec, w.StartSec)
				sum += w.DurSec
			}
			assert.InDelta(t, tt.totalSec, sum, 1e-9, "clamped durations must sum to the total")
			assert.InDelta(t, tt.wantLast, windows[len(windows)-1].DurSec, 1e-9)
		})
	}
}
