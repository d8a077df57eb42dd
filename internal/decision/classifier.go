// Package decision normalizes free text into a structured intent judgment by
// delegating to a generative classification service.
package decision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/vaniflow/vaniflow/internal/domain"
)

const serviceName = "gemini"

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// promptTemplate requests strict JSON with exactly the decision fields.
const promptTemplate = `You are an AI decision engine.

Extract:

- intent (one of: complaint, reservation, inquiry, payment, support, other)
- sentiment_score (-1 to +1)
- urgency_score (0 to 1)
- language (ISO code)
- requires_human (true if high anger or complexity)
- confidence (0 to 1)

Return only valid JSON.

User input:
%s`

// Classifier calls the generative classification service and enforces the
// DecisionOutput contract on its response. Every failure is terminal: no
// retries are performed.
type Classifier struct {
	apiKey     string
	model      string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// ClassifierOption configures the classifier.
type ClassifierOption func(*Classifier)

// WithBaseURL overrides the upstream base URL (used by tests).
func WithBaseURL(baseURL string) ClassifierOption {
	return func(c *Classifier) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTimeout bounds each classification call.
func WithTimeout(timeout time.Duration) ClassifierOption {
	return func(c *Classifier) {
		c.timeout = timeout
	}
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(client *http.Client) ClassifierOption {
	return func(c *Classifier) {
		c.httpClient = client
	}
}

// NewClassifier creates a classifier for the given API key and model.
func NewClassifier(apiKey, model string, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultBaseURL,
		timeout:    30 * time.Second,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Upstream request/response shapes (fixed contract, not reimplemented).

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Classify produces a structured decision for the given text, or an upstream
// failure naming the offending field or status.
func (c *Classifier) Classify(ctx context.Context, text string) (*domain.Decision, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: fmt.Sprintf(promptTemplate, text)}}},
		},
		GenerationConfig: generationConfig{Temperature: 0, ResponseMimeType: "application/json"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling classification request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building classification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.UpstreamFailuref(serviceName, "classification call failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.UpstreamFailuref(serviceName, "reading classification response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domain.UpstreamFailuref(serviceName, "classification failed (%d): %s",
			resp.StatusCode, truncate(string(raw), 200))
	}

	var payload generateResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, domain.UpstreamFailuref(serviceName, "classification returned malformed envelope")
	}
	if len(payload.Candidates) == 0 || len(payload.Candidates[0].Content.Parts) == 0 ||
		payload.Candidates[0].Content.Parts[0].Text == "" {
		return nil, domain.UpstreamFailuref(serviceName, "classification response missing output text")
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(stripCodeFence(payload.Candidates[0].Content.Parts[0].Text)), &fields); err != nil {
		return nil, domain.UpstreamFailuref(serviceName, "classification returned non-JSON output")
	}

	return validateDecision(fields)
}

var (
	openFence  = regexp.MustCompile("(?i)^```json\\s*")
	closeFence = regexp.MustCompile("(?i)```$")
)

// stripCodeFence removes an optional markdown code fence wrapping the JSON.
func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	s = openFence.ReplaceAllString(s, "")
	s = closeFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// validateDecision enforces the output contract: every field present, typed
// and in range. Absence is a hard failure, never a soft default.
func validateDecision(fields map[string]any) (*domain.Decision, error) {
	intent, _ := fields["intent"].(string)
	if !domain.AllowedIntents[intent] {
		return nil, domain.UpstreamFailuref(serviceName, "classifier output has invalid intent")
	}

	sentiment, err := parseScore(fields, "sentiment_score")
	if err != nil {
		return nil, err
	}
	if sentiment < -1 || sentiment > 1 {
		return nil, domain.UpstreamFailuref(serviceName, "sentiment_score must be between -1 and 1")
	}

	urgency, err := parseScore(fields, "urgency_score")
	if err != nil {
		return nil, err
	}
	if urgency < 0 || urgency > 1 {
		return nil, domain.UpstreamFailuref(serviceName, "urgency_score must be between 0 and 1")
	}

	confidence, err := parseScore(fields, "confidence")
	if err != nil {
		return nil, err
	}
	if confidence < 0 || confidence > 1 {
		return nil, domain.UpstreamFailuref(serviceName, "confidence must be between 0 and 1")
	}

	language, _ := fields["language"].(string)
	if len(strings.TrimSpace(language)) < 2 {
		return nil, domain.UpstreamFailuref(serviceName, "classifier output has invalid language")
	}

	requiresHuman, ok := fields["requires_human"].(bool)
	if !ok {
		return nil, domain.UpstreamFailuref(serviceName, "classifier output has invalid requires_human")
	}

	return &domain.Decision{
		Intent:         intent,
		SentimentScore: sentiment,
		UrgencyScore:   urgency,
		Language:       strings.ToLower(strings.TrimSpace(language)),
		RequiresHuman:  requiresHuman,
		Confidence:     confidence,
	}, nil
}

func parseScore(fields map[string]any, name string) (float64, error) {
	value, ok := fields[name].(float64)
	if !ok {
		return 0, domain.UpstreamFailuref(serviceName, "classifier output has invalid %s", name)
	}
	return value, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
