package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/scribehub/scribe-be/internal/pipeline"
)

// YTDLPResolver resolves media URLs with yt-dlp, selecting the best
// audio-only format and reporting title and duration.
type YTDLPResolver struct {
	binPath string
}

// NewYTDLPResolver creates a resolver. binPath may be empty for "yt-dlp" on
// PATH.
func NewYTDLPResolver(binPath string) *YTDLPResolver {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	return &YTDLPResolver{binPath: binPath}
}

type ytdlpInfo struct {
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
	URL      string  `json:"url"`
}

// Resolve runs `yt-dlp --dump-json -f bestaudio` and validates the result.
// Missing title, duration or stream URL is an error: the pipeline treats it
// as fatal resource provisioning failure.
func (y *YTDLPResolver) Resolve(ctx context.Context, mediaURL string) (*pipeline.SourceInfo, error) {
	cmd := exec.CommandContext(ctx, y.binPath,
		"--dump-json",
		"--no-playlist",
		"-f", "bestaudio/best",
		mediaURL,
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("yt-dlp: %w", err)
	}

	var info ytdlpInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}

	if info.Title == "" {
		return nil, fmt.Errorf("could not determine title for %s", mediaURL)
	}
	if info.Duration <= 0 {
		return nil, fmt.Errorf("could not determine a valid duration for %s", mediaURL)
	}
	if info.URL == "" {
		return nil, fmt.Errorf("no audio stream available for %s", mediaURL)
	}

	return &pipeline.SourceInfo{
		Title:       info.Title,
		DurationSec: info.Duration,
		AudioURL:    info.URL,
	}, nil
}
