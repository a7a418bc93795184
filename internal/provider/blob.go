package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const defaultStorageEndpoint = "https://storage.googleapis.com"

// GCSBlobStore provisions the temporary per-segment audio blobs through the
// Cloud Storage JSON API. Locators are gs://bucket/object URIs.
type GCSBlobStore struct {
	bucket      string
	token       string
	endpoint    string
	ffprobePath string
	client      *http.Client
}

// NewGCSBlobStore creates a blob store for one bucket.
func NewGCSBlobStore(bucket, token, endpoint, ffprobePath string) *GCSBlobStore {
	if endpoint == "" {
		endpoint = defaultStorageEndpoint
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &GCSBlobStore{
		bucket:      bucket,
		token:       token,
		endpoint:    endpoint,
		ffprobePath: ffprobePath,
		client:      &http.Client{Timeout: 30 * time.Minute},
	}
}

// Upload streams r into the bucket under name and returns the gs:// locator.
func (g *GCSBlobStore) Upload(ctx context.Context, r io.Reader, name string) (string, error) {
	uploadURL := fmt.Sprintf("%s/upload/storage/v1/b/%s/o?uploadType=media&name=%s",
		g.endpoint, g.bucket, url.QueryEscape(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, r)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "audio/mpeg")
	req.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("blob upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("blob upload http %d: %s", resp.StatusCode, string(b))
	}

	return fmt.Sprintf("gs://%s/%s", g.bucket, name), nil
}

// Delete removes a blob by its gs:// locator.
func (g *GCSBlobStore) Delete(ctx context.Context, locator string) error {
	bucket, object, err := parseLocator(locator)
	if err != nil {
		return err
	}

	deleteURL := fmt.Sprintf("%s/storage/v1/b/%s/o/%s", g.endpoint, bucket, url.PathEscape(object))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, deleteURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("blob delete failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("blob delete http %d: %s", resp.StatusCode, string(b))
	}
	return nil
}

// ProbeDuration runs ffprobe against the blob's media URL and returns the
// container duration in seconds.
func (g *GCSBlobStore) ProbeDuration(ctx context.Context, locator string) (float64, error) {
	bucket, object, err := parseLocator(locator)
	if err != nil {
		return 0, err
	}

	mediaURL := fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", g.endpoint, bucket, url.PathEscape(object))

	cmd := exec.CommandContext(ctx, g.ffprobePath,
		"-v", "error",
		"-headers", "Authorization: Bearer "+g.token+"\r\n",
		"-print_format", "json",
		"-show_format",
		mediaURL,
	)

	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &probe); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if probe.Format.Duration == "" {
		return 0, fmt.Errorf("ffprobe reported no duration for %s", locator)
	}

	seconds, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ffprobe duration %q: %w", probe.Format.Duration, err)
	}
	return seconds, nil
}

func parseLocator(locator string) (bucket, object string, err error) {
	trimmed, ok := strings.CutPrefix(locator, "gs://")
	if !ok {
		return "", "", fmt.Errorf("invalid blob locator %q", locator)
	}
	bucket, object, ok = strings.Cut(trimmed, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("invalid blob locator %q", locator)
	}
	return bucket, object, nil
}
