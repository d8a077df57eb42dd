// Package speech wraps the external speech-to-text/translation service.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/vaniflow/vaniflow/internal/domain"
)

const serviceName = "sarvam"

const defaultEndpoint = "https://api.sarvam.ai/speech-to-text-translate"

// Input is one audio clip to transcribe.
type Input struct {
	Audio    []byte
	MimeType string
	FileName string
}

// Result carries the source transcript, its English translation and the
// detected source language (empty when the upstream did not report one).
type Result struct {
	SourceText     string `json:"source_text"`
	TranslatedText string `json:"translated_text"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
}

// Transcriber uploads audio to the transcription service and normalizes its
// loosely-keyed response. At most one attempt per call.
type Transcriber struct {
	apiKey     string
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
}

// TranscriberOption configures the transcriber.
type TranscriberOption func(*Transcriber)

// WithEndpoint overrides the upstream URL (used by tests).
func WithEndpoint(endpoint string) TranscriberOption {
	return func(tr *Transcriber) {
		tr.endpoint = endpoint
	}
}

// WithTimeout bounds each transcription call.
func WithTimeout(timeout time.Duration) TranscriberOption {
	return func(tr *Transcriber) {
		tr.timeout = timeout
	}
}

// NewTranscriber creates a transcriber for the given API key.
func NewTranscriber(apiKey string, opts ...TranscriberOption) *Transcriber {
	tr := &Transcriber{
		apiKey:     apiKey,
		endpoint:   defaultEndpoint,
		timeout:    60 * time.Second,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(tr)
	}
	return tr
}

// Transcribe uploads the clip and returns the normalized transcription.
func (tr *Transcriber) Transcribe(ctx context.Context, input Input) (*Result, error) {
	fileName := input.FileName
	if fileName == "" {
		fileName = "input-audio.wav"
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	filePart, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, domain.UpstreamFailuref(serviceName, "building upload: %v", err)
	}
	if _, err := filePart.Write(input.Audio); err != nil {
		return nil, domain.UpstreamFailuref(serviceName, "building upload: %v", err)
	}
	writer.WriteField("target_language_code", "en-IN")
	writer.WriteField("translate", "true")
	if err := writer.Close(); err != nil {
		return nil, domain.UpstreamFailuref(serviceName, "building upload: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, tr.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tr.endpoint, &body)
	if err != nil {
		return nil, domain.UpstreamFailuref(serviceName, "building request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("api-subscription-key", tr.apiKey)

	resp, err := tr.httpClient.Do(req)
	if err != nil {
		return nil, domain.UpstreamFailuref(serviceName, "transcription call failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.UpstreamFailuref(serviceName, "reading transcription response: %v", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(raw) > 200 {
			raw = raw[:200]
		}
		return nil, domain.UpstreamFailuref(serviceName, "transcription failed (%d): %s", resp.StatusCode, raw)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, domain.UpstreamFailuref(serviceName, "transcription returned non-JSON output")
	}

	// The upstream has shipped several response shapes; accept any of the
	// known key spellings.
	sourceText := pickString(payload, "transcript", "text", "source_text", "input_text")
	translatedText := pickString(payload, "translated_text", "translation", "english_text", "output_text", "text")
	sourceLanguage := pickString(payload, "language", "source_language", "language_code", "detected_language")

	if translatedText == "" {
		return nil, domain.UpstreamFailuref(serviceName, "transcription response did not include transcribed text")
	}
	if sourceText == "" {
		sourceText = translatedText
	}

	return &Result{
		SourceText:     sourceText,
		TranslatedText: translatedText,
		SourceLanguage: sourceLanguage,
		TargetLanguage: "en",
	}, nil
}

func pickString(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := payload[key].(string); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
