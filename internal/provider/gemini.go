// Package provider implements the remote collaborators the pipeline
// consumes: the Gemini rewriter, the Speech-to-Text client, the temporary
// blob store, the media source resolver and the audio segment extractor.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultGeminiEndpoint = "https://generativelanguage.googleapis.com"

// GeminiRewriter rewrites text through the Gemini generateContent API.
type GeminiRewriter struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewGeminiRewriter creates a rewriter. endpoint may be empty for the public
// API host.
func NewGeminiRewriter(apiKey, model, endpoint string) *GeminiRewriter {
	if endpoint == "" {
		endpoint = defaultGeminiEndpoint
	}
	return &GeminiRewriter{
		apiKey:   apiKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Minute},
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Rewrite sends instruction+text as a single prompt and returns the model
// output. An empty candidate list yields an empty string with no error; the
// caller's retry policy handles it.
func (g *GeminiRewriter) Rewrite(ctx context.Context, text, instruction string) (string, error) {
	payload := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: instruction + text}}},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.endpoint, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("gemini http %d: %s", resp.StatusCode, string(b))
	}

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", fmt.Errorf("failed to decode gemini response: %w", err)
	}

	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return gr.Candidates[0].Content.Parts[0].Text, nil
}
