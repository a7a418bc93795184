package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultSpeechEndpoint = "https://speech.googleapis.com"

// SpeechClient transcribes uploaded audio blobs through the Speech-to-Text
// v2 recognize API.
type SpeechClient struct {
	projectID  string
	recognizer string
	token      string
	language   string
	endpoint   string
	client     *http.Client
}

// NewSpeechClient creates a transcriber against a pre-provisioned recognizer.
func NewSpeechClient(projectID, recognizer, token, language, endpoint string) *SpeechClient {
	if endpoint == "" {
		endpoint = defaultSpeechEndpoint
	}
	if language == "" {
		language = "uz-UZ"
	}
	return &SpeechClient{
		projectID:  projectID,
		recognizer: recognizer,
		token:      token,
		language:   language,
		endpoint:   endpoint,
		client:     &http.Client{Timeout: 10 * time.Minute},
	}
}

type recognizeRequest struct {
	Config recognizeConfig `json:"config"`
	URI    string          `json:"uri"`
}

type recognizeConfig struct {
	AutoDecodingConfig struct{} `json:"autoDecodingConfig"`
	LanguageCodes      []string `json:"languageCodes"`
	Model              string   `json:"model"`
}

type recognizeResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"results"`
}

// Transcribe recognizes the blob at locator (a gs:// URI) and returns the
// joined transcript. No results means an empty string with no error.
func (s *SpeechClient) Transcribe(ctx context.Context, locator string) (string, error) {
	payload := recognizeRequest{URI: locator}
	payload.Config.LanguageCodes = []string{s.language}
	payload.Config.Model = "long"

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal recognize request: %w", err)
	}

	url := fmt.Sprintf("%s/v2/projects/%s/locations/global/recognizers/%s:recognize",
		s.endpoint, s.projectID, s.recognizer)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("speech http %d: %s", resp.StatusCode, string(b))
	}

	var rr recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return "", fmt.Errorf("failed to decode recognize response: %w", err)
	}

	var parts []string
	for _, result := range rr.Results {
		if len(result.Alternatives) > 0 && result.Alternatives[0].Transcript != "" {
			parts = append(parts, result.Alternatives[0].Transcript)
		}
	}
	return strings.Join(parts, " "), nil
}
