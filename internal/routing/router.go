// Package routing maps a classified decision to a downstream business service
// and produces a uniform invocation result.
package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vaniflow/vaniflow/internal/domain"
)

// Endpoints holds the optional remote URL per service. An empty URL means the
// service is simulated locally; which services are externally backed is an
// operational concern, configured at startup.
type Endpoints struct {
	Ticketing   string
	Reservation string
	Knowledge   string
	Payment     string
	Support     string
}

// Invocation is one routing request.
type Invocation struct {
	Decision       *domain.Decision
	SourceText     string
	TranslatedText string
	SessionID      string
	Metadata       map[string]any
}

// Router resolves an intent to exactly one service and invokes it, remotely
// when configured, otherwise fabricating a local result.
type Router struct {
	endpoints  Endpoints
	timeout    time.Duration
	httpClient *http.Client
	newID      func() string
}

// RouterOption configures the router.
type RouterOption func(*Router)

// WithTimeout bounds each remote invocation.
func WithTimeout(timeout time.Duration) RouterOption {
	return func(r *Router) {
		r.timeout = timeout
	}
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(client *http.Client) RouterOption {
	return func(r *Router) {
		r.httpClient = client
	}
}

// WithIDGenerator overrides local case-id generation (used by tests).
func WithIDGenerator(newID func() string) RouterOption {
	return func(r *Router) {
		r.newID = newID
	}
}

// NewRouter creates a router over the configured endpoints.
func NewRouter(endpoints Endpoints, opts ...RouterOption) *Router {
	r := &Router{
		endpoints:  endpoints,
		timeout:    30 * time.Second,
		httpClient: &http.Client{},
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type serviceConfig struct {
	service   string
	action    string
	remoteURL string
}

// resolve maps an intent to its service. Unmapped intents (complaint, other)
// fall back to ticketing.
func (r *Router) resolve(intent string) serviceConfig {
	switch intent {
	case domain.IntentReservation:
		return serviceConfig{domain.ServiceReservation, "create_reservation", r.endpoints.Reservation}
	case domain.IntentInquiry:
		return serviceConfig{domain.ServiceKnowledge, "knowledge_lookup", r.endpoints.Knowledge}
	case domain.IntentPayment:
		return serviceConfig{domain.ServicePayment, "payment_support", r.endpoints.Payment}
	case domain.IntentSupport:
		return serviceConfig{domain.ServiceSupport, "general_support", r.endpoints.Support}
	default:
		return serviceConfig{domain.ServiceTicketing, "create_ticket", r.endpoints.Ticketing}
	}
}

// buildPayload produces the uniform request body every service receives.
func buildPayload(inv Invocation) map[string]any {
	var sessionID any
	if inv.SessionID != "" {
		sessionID = inv.SessionID
	}
	metadata := inv.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return map[string]any{
		"session_id":        sessionID,
		"intent":            inv.Decision.Intent,
		"confidence":        inv.Decision.Confidence,
		"sentiment_score":   inv.Decision.SentimentScore,
		"urgency_score":     inv.Decision.UrgencyScore,
		"requires_human":    inv.Decision.RequiresHuman,
		"detected_language": inv.Decision.Language,
		"input_text":        inv.SourceText,
		"normalized_text":   inv.TranslatedText,
		"metadata":          metadata,
	}
}

// Route resolves and invokes the service for the decision's intent.
func (r *Router) Route(ctx context.Context, inv Invocation) (*domain.MicroserviceResult, error) {
	service := r.resolve(inv.Decision.Intent)
	payload := buildPayload(inv)

	if service.remoteURL != "" {
		return r.invokeRemote(ctx, service, payload)
	}
	return r.invokeLocal(service, payload), nil
}

func (r *Router) invokeRemote(ctx context.Context, service serviceConfig, payload map[string]any) (*domain.MicroserviceResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, domain.UpstreamFailuref(service.service, "encoding payload: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, service.remoteURL, bytes.NewReader(body))
	if err != nil {
		return nil, domain.UpstreamFailuref(service.service, "building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, domain.UpstreamFailuref(service.service, "invocation failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.UpstreamFailuref(service.service, "reading response: %v", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(raw) > 200 {
			raw = raw[:200]
		}
		return nil, domain.UpstreamFailuref(service.service, "remote microservice failed (%d): %s",
			resp.StatusCode, raw)
	}

	// A non-JSON success payload is tolerated as an empty result.
	responsePayload := map[string]any{}
	if err := json.Unmarshal(raw, &responsePayload); err != nil {
		responsePayload = map[string]any{}
	}

	return &domain.MicroserviceResult{
		Service: service.service,
		Mode:    domain.ModeRemote,
		Status:  domain.StatusSuccess,
		Action:  service.action,
		Payload: responsePayload,
	}, nil
}

// invokeLocal fabricates the result a real service would return, with a fresh
// identifier and a service-specific status.
func (r *Router) invokeLocal(service serviceConfig, payload map[string]any) *domain.MicroserviceResult {
	var localPayload map[string]any

	switch service.service {
	case domain.ServiceReservation:
		localPayload = map[string]any{
			"reservation_id": r.newID(),
			"status":         "pending",
			"message":        "Reservation workflow started.",
			"input":          payload,
		}
	case domain.ServiceKnowledge:
		localPayload = map[string]any{
			"lookup_id": r.newID(),
			"status":    "queued",
			"message":   "Knowledge retrieval started.",
			"input":     payload,
		}
	case domain.ServicePayment:
		localPayload = map[string]any{
			"payment_case_id": r.newID(),
			"status":          "open",
			"message":         "Payment issue handed to payment workflow.",
			"input":           payload,
		}
	case domain.ServiceSupport:
		localPayload = map[string]any{
			"support_case_id": r.newID(),
			"status":          "open",
			"message":         "Support workflow started.",
			"input":           payload,
		}
	default:
		priority := "medium"
		if urgency, ok := payload["urgency_score"].(float64); ok && urgency > 0.8 {
			priority = "critical"
		}
		localPayload = map[string]any{
			"ticket_id": r.newID(),
			"priority":  priority,
			"status":    "open",
			"message":   "Ticket created from intent routing.",
			"input":     payload,
		}
	}

	return &domain.MicroserviceResult{
		Service: service.service,
		Mode:    domain.ModeLocal,
		Status:  domain.StatusSuccess,
		Action:  service.action,
		Payload: localPayload,
	}
}
