// Package practice is the client for the external generative practice
// service. The service is consumed only; failures degrade to a fallback
// message at the API layer and never break a session.
package practice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/projectlearn/vocaquiz/internal/domain"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-pro"
	defaultTimeout = 30 * time.Second
)

type Config struct {
	BaseURL string
	APIKey  string
	Model   string

	// HTTPClient overrides the default client, for tests.
	HTTPClient *http.Client
}

type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

func New(c Config) *Client {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{
		baseURL: strings.TrimSuffix(c.BaseURL, "/"),
		apiKey:  c.APIKey,
		model:   c.Model,
		http:    c.HTTPClient,
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GeneratePractice asks the service for a short practice text built around
// the word, and parses the structured JSON it is prompted to return.
func (c *Client) GeneratePractice(ctx context.Context, word string) (*domain.PracticeResult, error) {
	prompt := fmt.Sprintf(`Generate a short English practice conversation or sentence using the word %q.
Include pronunciation tips and common usage examples.
Format the response as JSON with the following structure:
{"conversation": "The conversation or sentence", "pronunciation": "Pronunciation tips", "usage": "Common usage examples"}`, word)

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("practice: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("practice: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("practice: call service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("practice: service returned %d: %s", resp.StatusCode, b)
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("practice: decode response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("practice: empty response")
	}

	var text strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}

	var result domain.PracticeResult
	if err := json.Unmarshal([]byte(stripFences(text.String())), &result); err != nil {
		return nil, fmt.Errorf("practice: parse generated JSON: %w", err)
	}

	return &result, nil
}

// stripFences removes a surrounding markdown code fence, which the service
// sometimes wraps around the JSON despite the prompt.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
