package provider

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
)

// FFmpegExtractor cuts one time window out of a remote audio stream and
// reencodes it to mp3 on stdout.
type FFmpegExtractor struct {
	binPath string
}

// NewFFmpegExtractor creates an extractor. binPath may be empty for "ffmpeg"
// on PATH.
func NewFFmpegExtractor(binPath string) *FFmpegExtractor {
	if binPath == "" {
		binPath = "ffmpeg"
	}
	return &FFmpegExtractor{binPath: binPath}
}

// segmentReader closes the pipe and reaps the ffmpeg process on Close.
type segmentReader struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (r *segmentReader) Close() error {
	err := r.ReadCloser.Close()
	// Wait must run even when the consumer abandons the stream early, or the
	// process leaks as a zombie.
	if waitErr := r.cmd.Wait(); err == nil {
		err = waitErr
	}
	return err
}

// Extract streams the [startSec, startSec+durSec) window of audioURL as mp3.
// The returned reader must be closed by the caller.
func (f *FFmpegExtractor) Extract(ctx context.Context, audioURL string, startSec, durSec float64) (io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, f.binPath,
		"-ss", strconv.FormatFloat(startSec, 'f', 3, 64),
		"-t", strconv.FormatFloat(durSec, 'f', 3, 64),
		"-i", audioURL,
		"-vn",
		"-acodec", "libmp3lame",
		"-q:a", "2",
		"-f", "mp3",
		"pipe:1",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w", err)
	}

	return &segmentReader{ReadCloser: stdout, cmd: cmd}, nil
}
