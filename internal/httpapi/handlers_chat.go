package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vaniflow/vaniflow/internal/analytics"
	"github.com/vaniflow/vaniflow/internal/domain"
	"github.com/vaniflow/vaniflow/internal/flow"
	"github.com/vaniflow/vaniflow/internal/routing"
	"github.com/vaniflow/vaniflow/internal/store"
)

// handleChatOrganizations lists active chatbots for the public chat widget.
func (s *Server) handleChatOrganizations(w http.ResponseWriter, r *http.Request) {
	chatbots, err := s.store.Find(r.Context(), store.CollectionChatbots,
		store.Doc{"is_active": true},
		store.FindOptions{Projection: []string{"name", "description"}})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"organizations": serializeDocs(chatbots)})
}

// handleChatMessage runs one conversation turn: classify the message, walk the
// chatbot's latest active flow, route the intent, and record analytics.
func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	chatbotID := chi.URLParam(r, "chatbotID")

	var body struct {
		Message   string         `json:"message"`
		SessionID string         `json:"session_id"`
		Metadata  map[string]any `json:"metadata"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	message := strings.TrimSpace(body.Message)
	if message == "" {
		s.writeError(w, r, domain.BadRequestf("message is required"))
		return
	}

	ctx := r.Context()
	chatbot, err := s.store.FindOne(ctx, store.CollectionChatbots,
		store.Doc{store.IDField: chatbotID, "is_active": true})
	if errors.Is(err, store.ErrNoDocument) {
		s.writeError(w, r, domain.NotFoundf("organization chatbot not found"))
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	flows, err := s.store.Find(ctx, store.CollectionChatbotFlows,
		store.Doc{"chatbot_id": chatbotID, "is_active": true},
		store.FindOptions{Sort: map[string]int{"version": -1}, Limit: 1})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(flows) == 0 {
		s.writeError(w, r, domain.NotFoundf("no active flow for chatbot"))
		return
	}
	flowDoc := flows[0]
	flowID := docID(flowDoc)

	definition, err := flow.ValidateDefinition(flowDoc["definition"])
	if err != nil {
		s.writeError(w, r, domain.RuntimeErrorf("stored flow definition is invalid: %v", err))
		return
	}

	started := s.now()
	decision, err := s.classifier.Classify(ctx, message)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	traversal, err := s.engine.Run(definition, decision.Context(message))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	metadata := body.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["chatbot_id"] = chatbotID
	metadata["flow_id"] = flowID
	metadata["runtime_action"] = traversal.Action.Type

	result, err := s.router.Route(ctx, routing.Invocation{
		Decision:       decision,
		SourceText:     message,
		TranslatedText: message,
		SessionID:      body.SessionID,
		Metadata:       metadata,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	latency := s.now().Sub(started).Milliseconds()

	queryLog := s.recorder.RecordQuery(ctx, analytics.QueryEvent{
		SessionID:      body.SessionID,
		Channel:        "web_chat",
		RawText:        message,
		NormalizedText: message,
		TranslatedTo:   "en",
		Decision:       decision,
		Microservice:   result,
		LatencyMS:      latency,
		Metadata:       metadata,
	})

	var toNodeID string
	if traversal.NextNodeID != nil {
		toNodeID = *traversal.NextNodeID
	}
	flowLog := s.recorder.RecordFlowAction(ctx, analytics.FlowActionEvent{
		SessionID:       body.SessionID,
		ChatbotID:       chatbotID,
		FlowID:          flowID,
		FromNodeID:      traversal.ReachedNodeID,
		ToNodeID:        toNodeID,
		Decision:        decision,
		Microservice:    result,
		RawInput:        message,
		NormalizedInput: message,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"chatbot": map[string]any{
			"id":   docID(chatbot),
			"name": chatbot["name"],
		},
		"decision": decision,
		"flow": map[string]any{
			"flow_id":      flowID,
			"node_id":      traversal.ReachedNodeID,
			"action":       traversal.Action,
			"next_node_id": traversal.NextNodeID,
		},
		"response_text": responseText(traversal.Action),
		"microservice":  result,
		"analytics":     queryLog,
		"flow_log":      flowLog,
	})
}

// responseText renders the node action as a user-facing message.
func responseText(action domain.NodeAction) string {
	switch action.Type {
	case domain.ActionReply:
		if msg, ok := action.Payload["message"].(string); ok && msg != "" {
			return msg
		}
		return "Your request is being processed."
	case domain.ActionEscalateHuman:
		return "I am escalating this conversation to a human agent."
	case domain.ActionEnd:
		return "Thank you. This conversation has been closed."
	default:
		return "Your request is being processed."
	}
}
