// Package assist calls the remote generative-text service for
// specification autocomplete and insight summaries. Both calls are
// best-effort; callers proceed unchanged on any failure.
package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mprs/internal/domain"
)

// Suggester is the engine-facing contract, substitutable in tests.
type Suggester interface {
	SuggestSpecification(ctx context.Context, itemName string) (string, error)
	Insights(ctx context.Context, hist []domain.Requisition) ([]string, error)
}

// FallbackInsights are shown whenever the remote call fails or returns
// nothing usable.
var FallbackInsights = []string{
	"Maintain stock levels",
	"Check lead times",
	"Review bulk discounts",
}

// Client talks to the Gemini generateContent REST endpoint.
type Client struct {
	Endpoint   string
	Model      string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(endpoint, model, apiKey string) *Client {
	return &Client{
		Endpoint: endpoint,
		Model:    model,
		APIKey:   apiKey,
		Timeout:  10 * time.Second,
	}
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("assist api error: status=%d body=%s", e.StatusCode, e.Body)
}

// SuggestSpecification asks for the most common industrial specification
// of an item. Very short names are skipped. Returns "" when the service
// has nothing to offer.
func (c *Client) SuggestSpecification(ctx context.Context, itemName string) (string, error) {
	name := strings.TrimSpace(itemName)
	if len(name) < 2 {
		return "", nil
	}
	prompt := fmt.Sprintf("You are an ERP assistant for a construction unit. Suggest common industrial specifications for the item: %q. Return only the most common specification string.", name)
	text, err := c.generate(ctx, prompt, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Insights asks for up to a few short observations over the stored
// history. The response is expected to be a JSON array of strings.
func (c *Client) Insights(ctx context.Context, hist []domain.Requisition) ([]string, error) {
	data, err := json.Marshal(hist)
	if err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf("Analyze these material requisitions and give 3 short bullet points about trends or reorder advice: %s", data)
	text, err := c.generate(ctx, prompt, true)
	if err != nil {
		return nil, err
	}
	var out []string
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &out); err != nil {
		return nil, fmt.Errorf("parse insights: %w", err)
	}
	return out, nil
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// generate posts one prompt and returns the first candidate's text.
func (c *Client) generate(ctx context.Context, prompt string, wantJSON bool) (string, error) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	payload := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}
	if wantJSON {
		payload.GenerationConfig = &generationConfig{ResponseMIMEType: "application/json"}
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", err
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimRight(c.Endpoint, "/"), url.PathEscape(c.Model), url.QueryEscape(c.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return decoded.Candidates[0].Content.Parts[0].Text, nil
}
