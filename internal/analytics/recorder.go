// Package analytics persists classification and routing events for later
// inspection. Recording is best-effort: a failed write must never abort a
// user-facing conversation turn, so failures are returned as data.
package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/vaniflow/vaniflow/internal/domain"
	"github.com/vaniflow/vaniflow/internal/store"
)

// Result reports the outcome of one record attempt inline in the response
// body instead of failing the request.
type Result struct {
	Logged bool   `json:"logged"`
	ID     string `json:"id,omitempty"`
	Error  string `json:"error,omitempty"`
}

// QueryEvent is one classified message, whatever the channel.
type QueryEvent struct {
	SessionID      string
	Channel        string
	RawText        string
	NormalizedText string
	SourceLanguage string
	TranslatedTo   string
	Decision       *domain.Decision
	Microservice   *domain.MicroserviceResult
	LatencyMS      int64
	Metadata       map[string]any
}

// FlowActionEvent is one flow traversal outcome tied to a chatbot + flow.
type FlowActionEvent struct {
	SessionID      string
	ChatbotID      string
	FlowID         string
	FromNodeID     string
	ToNodeID       string
	Decision       *domain.Decision
	Microservice   *domain.MicroserviceResult
	RawInput        string
	NormalizedInput string
}

// Recorder writes audit rows through the document store.
type Recorder struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewRecorder creates a recorder. A nil logger is replaced by the default.
func NewRecorder(s store.Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: s, logger: logger, now: time.Now}
}

// RecordQuery persists one query analytics row. Never returns an error.
func (r *Recorder) RecordQuery(ctx context.Context, event QueryEvent) Result {
	var sessionID any
	if event.SessionID != "" {
		sessionID = event.SessionID
	}
	var sourceLanguage any
	if event.SourceLanguage != "" {
		sourceLanguage = event.SourceLanguage
	}
	metadata := event.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	row := store.Doc{
		"session_id":            sessionID,
		"channel":               event.Channel,
		"query_text_raw":        event.RawText,
		"query_text_normalized": event.NormalizedText,
		"source_language":       sourceLanguage,
		"translated_to":         event.TranslatedTo,
		"intent":                event.Decision.Intent,
		"sentiment_score":       event.Decision.SentimentScore,
		"urgency_score":         event.Decision.UrgencyScore,
		"requires_human":        event.Decision.RequiresHuman,
		"confidence":            event.Decision.Confidence,
		"detected_language":     event.Decision.Language,
		"routed_service":        event.Microservice.Service,
		"routed_action":         event.Microservice.Action,
		"service_mode":          event.Microservice.Mode,
		"service_status":        event.Microservice.Status,
		"processing_latency_ms": event.LatencyMS,
		"metadata":              metadata,
		"created_at":            r.now().UTC().Format(time.RFC3339),
	}

	id, err := r.store.InsertOne(ctx, store.CollectionQueryAnalytics, row)
	if err != nil {
		r.logger.Warn("query analytics write failed", "error", err)
		return Result{Logged: false, Error: err.Error()}
	}
	return Result{Logged: true, ID: id}
}

// RecordFlowAction persists one flow action log row. Events without a chatbot
// and flow id are skipped silently; this mirrors conversations that never
// touched a flow. Never returns an error.
func (r *Recorder) RecordFlowAction(ctx context.Context, event FlowActionEvent) Result {
	if event.ChatbotID == "" || event.FlowID == "" {
		return Result{Logged: false}
	}

	var sessionID any
	if event.SessionID != "" {
		sessionID = event.SessionID
	}
	var fromNodeID any
	if event.FromNodeID != "" {
		fromNodeID = event.FromNodeID
	}
	var toNodeID any
	if event.ToNodeID != "" {
		toNodeID = event.ToNodeID
	}

	consequenceType := "continue_bot"
	if event.Decision.RequiresHuman || event.Decision.Intent == domain.IntentComplaint {
		consequenceType = "escalate_human"
	}

	row := store.Doc{
		"session_id":       sessionID,
		"chatbot_id":       event.ChatbotID,
		"flow_id":          event.FlowID,
		"from_node_id":     fromNodeID,
		"to_node_id":       toNodeID,
		"action_type":      event.Microservice.Action,
		"consequence_type": consequenceType,
		"routed_service":   event.Microservice.Service,
		"intent":           event.Decision.Intent,
		"sentiment_score":  event.Decision.SentimentScore,
		"urgency_score":    event.Decision.UrgencyScore,
		"input_text":       event.RawInput,
		"normalized_text":  event.NormalizedInput,
		"created_at":       r.now().UTC().Format(time.RFC3339),
	}

	id, err := r.store.InsertOne(ctx, store.CollectionFlowActionLogs, row)
	if err != nil {
		r.logger.Warn("flow action log write failed", "error", err)
		return Result{Logged: false, Error: err.Error()}
	}
	return Result{Logged: true, ID: id}
}
