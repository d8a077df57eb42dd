package httpapi

import (
	"encoding/base64"
	"net/http"
	"regexp"

	"github.com/vaniflow/vaniflow/internal/analytics"
	"github.com/vaniflow/vaniflow/internal/domain"
	"github.com/vaniflow/vaniflow/internal/routing"
	"github.com/vaniflow/vaniflow/internal/speech"
)

var dataURIPrefix = regexp.MustCompile(`^data:audio/[a-zA-Z0-9.+-]+;base64,`)

// handleVoiceDecision accepts a base64 audio clip, transcribes and translates
// it, classifies the transcript and routes the intent. No flow is involved;
// the caller gets the raw decision plus the routed service result.
func (s *Server) handleVoiceDecision(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AudioBase64 string         `json:"audio_base64"`
		MimeType    string         `json:"mime_type"`
		FileName    string         `json:"file_name"`
		SessionID   string         `json:"session_id"`
		Metadata    map[string]any `json:"metadata"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if body.AudioBase64 == "" {
		s.writeError(w, r, domain.BadRequestf("audio_base64 is required"))
		return
	}

	encoded := dataURIPrefix.ReplaceAllString(body.AudioBase64, "")
	audio, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(audio) == 0 {
		s.writeError(w, r, domain.BadRequestf("audio_base64 is not valid base64 audio"))
		return
	}

	mimeType := body.MimeType
	if mimeType == "" {
		mimeType = "audio/wav"
	}
	fileName := body.FileName
	if fileName == "" {
		fileName = "clip.wav"
	}

	ctx := r.Context()
	started := s.now()

	transcript, err := s.transcriber.Transcribe(ctx, speech.Input{
		Audio:    audio,
		MimeType: mimeType,
		FileName: fileName,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	decision, err := s.classifier.Classify(ctx, transcript.TranslatedText)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.router.Route(ctx, routing.Invocation{
		Decision:       decision,
		SourceText:     transcript.SourceText,
		TranslatedText: transcript.TranslatedText,
		SessionID:      body.SessionID,
		Metadata:       body.Metadata,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	latency := s.now().Sub(started).Milliseconds()

	queryLog := s.recorder.RecordQuery(ctx, analytics.QueryEvent{
		SessionID:      body.SessionID,
		Channel:        "voice",
		RawText:        transcript.SourceText,
		NormalizedText: transcript.TranslatedText,
		SourceLanguage: transcript.SourceLanguage,
		TranslatedTo:   transcript.TargetLanguage,
		Decision:       decision,
		Microservice:   result,
		LatencyMS:      latency,
		Metadata:       body.Metadata,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"input":        transcript,
		"decision":     decision,
		"microservice": result,
		"analytics":    queryLog,
		"latency_ms":   latency,
	})
}
