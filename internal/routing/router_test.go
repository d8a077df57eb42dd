package routing_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaniflow/vaniflow/internal/domain"
	"github.com/vaniflow/vaniflow/internal/routing"
)

func decisionWith(intent string, urgency float64) *domain.Decision {
	return &domain.Decision{
		Intent:         intent,
		SentimentScore: -0.2,
		UrgencyScore:   urgency,
		Language:       "en",
		RequiresHuman:  false,
		Confidence:     0.9,
	}
}

func TestRoute_IntentMapping(t *testing.T) {
	cases := []struct {
		intent  string
		service string
		action  string
	}{
		{domain.IntentReservation, domain.ServiceReservation, "create_reservation"},
		{domain.IntentInquiry, domain.ServiceKnowledge, "knowledge_lookup"},
		{domain.IntentPayment, domain.ServicePayment, "payment_support"},
		{domain.IntentSupport, domain.ServiceSupport, "general_support"},
		{domain.IntentComplaint, domain.ServiceTicketing, "create_ticket"},
		{domain.IntentOther, domain.ServiceTicketing, "create_ticket"},
	}

	router := routing.NewRouter(routing.Endpoints{})
	for _, tc := range cases {
		t.Run(tc.intent, func(t *testing.T) {
			result, err := router.Route(context.Background(), routing.Invocation{
				Decision: decisionWith(tc.intent, 0.3),
			})
			require.NoError(t, err)
			assert.Equal(t, tc.service, result.Service)
			assert.Equal(t, tc.action, result.Action)
			assert.Equal(t, domain.ModeLocal, result.Mode)
			assert.Equal(t, domain.StatusSuccess, result.Status)
		})
	}
}

func TestRoute_LocalPaymentFabricatesCaseID(t *testing.T) {
	router := routing.NewRouter(routing.Endpoints{})
	result, err := router.Route(context.Background(), routing.Invocation{
		Decision: decisionWith(domain.IntentPayment, 0.2),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ServicePayment, result.Service)
	assert.Equal(t, domain.ModeLocal, result.Mode)
	assert.NotEmpty(t, result.Payload["payment_case_id"])
	assert.Equal(t, "open", result.Payload["status"])
}

func TestRoute_LocalTicketingPriority(t *testing.T) {
	router := routing.NewRouter(routing.Endpoints{}, routing.WithIDGenerator(func() string { return "fixed-id" }))

	critical, err := router.Route(context.Background(), routing.Invocation{
		Decision: decisionWith(domain.IntentOther, 0.95),
	})
	require.NoError(t, err)
	assert.Equal(t, "critical", critical.Payload["priority"])
	assert.Equal(t, "fixed-id", critical.Payload["ticket_id"])

	medium, err := router.Route(context.Background(), routing.Invocation{
		Decision: decisionWith(domain.IntentOther, 0.5),
	})
	require.NoError(t, err)
	assert.Equal(t, "medium", medium.Payload["priority"])
}

func TestRoute_RemoteInvocation(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"reservation_id": "r-77", "status": "confirmed"}`))
	}))
	defer srv.Close()

	router := routing.NewRouter(routing.Endpoints{Reservation: srv.URL})
	result, err := router.Route(context.Background(), routing.Invocation{
		Decision:       decisionWith(domain.IntentReservation, 0.4),
		SourceText:     "book a table",
		TranslatedText: "book a table",
		SessionID:      "s-1",
		Metadata:       map[string]any{"channel": "web_chat"},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ModeRemote, result.Mode)
	assert.Equal(t, domain.StatusSuccess, result.Status)
	assert.Equal(t, "r-77", result.Payload["reservation_id"])

	// Uniform payload reaches the remote service.
	assert.Equal(t, "s-1", received["session_id"])
	assert.Equal(t, "reservation", received["intent"])
	assert.Equal(t, "book a table", received["normalized_text"])
	assert.Equal(t, map[string]any{"channel": "web_chat"}, received["metadata"])
}

func TestRoute_RemoteFailureNamesServiceAndStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "downstream exploded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	router := routing.NewRouter(routing.Endpoints{Support: srv.URL})
	_, err := router.Route(context.Background(), routing.Invocation{
		Decision: decisionWith(domain.IntentSupport, 0.3),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamFailure)
	assert.ErrorContains(t, err, domain.ServiceSupport)
	assert.ErrorContains(t, err, "(503)")
}

func TestRoute_RemoteNonJSONSuccessTolerated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	}))
	defer srv.Close()

	router := routing.NewRouter(routing.Endpoints{Knowledge: srv.URL})
	result, err := router.Route(context.Background(), routing.Invocation{
		Decision: decisionWith(domain.IntentInquiry, 0.1),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, result.Status)
	assert.Empty(t, result.Payload)
}
