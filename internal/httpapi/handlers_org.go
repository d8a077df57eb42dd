package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vaniflow/vaniflow/internal/domain"
	"github.com/vaniflow/vaniflow/internal/flow"
	"github.com/vaniflow/vaniflow/internal/store"
)

// requireOrganizationAccount verifies the caller has a live organization
// account before any chatbot management operation.
func (s *Server) requireOrganizationAccount(r *http.Request) error {
	identity := identityFrom(r.Context())
	account, err := s.findActiveAccount(r, identity.ID)
	if err != nil {
		return err
	}
	if accountType, _ := account["account_type"].(string); accountType != roleOrganization {
		return domain.Forbiddenf("organization account required")
	}
	return nil
}

func (s *Server) handleChatbotCreate(w http.ResponseWriter, r *http.Request) {
	if err := s.requireOrganizationAccount(r); err != nil {
		s.writeError(w, r, err)
		return
	}
	identity := identityFrom(r.Context())

	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		IsActive    *bool  `json:"is_active"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		s.writeError(w, r, domain.BadRequestf("name is required"))
		return
	}
	isActive := true
	if body.IsActive != nil {
		isActive = *body.IsActive
	}

	now := s.now().UTC().Format(time.RFC3339)
	id, err := s.store.InsertOne(r.Context(), store.CollectionChatbots, store.Doc{
		"owner_user_id": identity.ID,
		"name":          name,
		"description":   strings.TrimSpace(body.Description),
		"is_active":     isActive,
		"created_at":    now,
		"updated_at":    now,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	chatbot, err := s.store.FindOne(r.Context(), store.CollectionChatbots, store.Doc{store.IDField: id})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"chatbot": serializeDoc(chatbot)})
}

func (s *Server) handleChatbotList(w http.ResponseWriter, r *http.Request) {
	if err := s.requireOrganizationAccount(r); err != nil {
		s.writeError(w, r, err)
		return
	}
	identity := identityFrom(r.Context())

	chatbots, err := s.store.Find(r.Context(), store.CollectionChatbots,
		store.Doc{"owner_user_id": identity.ID}, store.FindOptions{})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"chatbots": serializeDocs(chatbots)})
}

func (s *Server) handleChatbotPatch(w http.ResponseWriter, r *http.Request) {
	if err := s.requireOrganizationAccount(r); err != nil {
		s.writeError(w, r, err)
		return
	}
	identity := identityFrom(r.Context())
	chatbotID := chi.URLParam(r, "chatbotID")

	var body struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		IsActive    *bool   `json:"is_active"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	set := store.Doc{}
	if body.Name != nil {
		name := strings.TrimSpace(*body.Name)
		if name == "" {
			s.writeError(w, r, domain.BadRequestf("name must not be empty"))
			return
		}
		set["name"] = name
	}
	if body.Description != nil {
		set["description"] = strings.TrimSpace(*body.Description)
	}
	if body.IsActive != nil {
		set["is_active"] = *body.IsActive
	}
	if len(set) == 0 {
		s.writeError(w, r, domain.BadRequestf("no updatable fields provided"))
		return
	}
	set["updated_at"] = s.now().UTC().Format(time.RFC3339)

	filter := store.Doc{store.IDField: chatbotID, "owner_user_id": identity.ID}
	n, err := s.store.UpdateOne(r.Context(), store.CollectionChatbots, filter, set, store.UpdateOptions{})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if n == 0 {
		s.writeError(w, r, domain.NotFoundf("chatbot not found"))
		return
	}

	chatbot, err := s.store.FindOne(r.Context(), store.CollectionChatbots, filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"chatbot": serializeDoc(chatbot)})
}

func (s *Server) handleChatbotDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.requireOrganizationAccount(r); err != nil {
		s.writeError(w, r, err)
		return
	}
	identity := identityFrom(r.Context())
	chatbotID := chi.URLParam(r, "chatbotID")

	n, err := s.store.DeleteOne(r.Context(), store.CollectionChatbots,
		store.Doc{store.IDField: chatbotID, "owner_user_id": identity.ID})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if n == 0 {
		s.writeError(w, r, domain.NotFoundf("chatbot not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// ownedChatbot loads a chatbot scoped to the caller.
func (s *Server) ownedChatbot(r *http.Request, chatbotID string) (store.Doc, error) {
	identity := identityFrom(r.Context())
	chatbot, err := s.store.FindOne(r.Context(), store.CollectionChatbots,
		store.Doc{store.IDField: chatbotID, "owner_user_id": identity.ID})
	if errors.Is(err, store.ErrNoDocument) {
		return nil, domain.NotFoundf("chatbot not found")
	}
	return chatbot, err
}

func (s *Server) handleFlowCreate(w http.ResponseWriter, r *http.Request) {
	if err := s.requireOrganizationAccount(r); err != nil {
		s.writeError(w, r, err)
		return
	}
	chatbotID := chi.URLParam(r, "chatbotID")
	if _, err := s.ownedChatbot(r, chatbotID); err != nil {
		s.writeError(w, r, err)
		return
	}

	var body struct {
		Name       string `json:"name"`
		Definition any    `json:"definition"`
		IsActive   *bool  `json:"is_active"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		s.writeError(w, r, domain.BadRequestf("name is required"))
		return
	}
	if _, err := flow.ValidateDefinition(body.Definition); err != nil {
		s.writeError(w, r, err)
		return
	}
	isActive := true
	if body.IsActive != nil {
		isActive = *body.IsActive
	}

	version, err := s.nextFlowVersion(r, chatbotID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	now := s.now().UTC().Format(time.RFC3339)
	id, err := s.store.InsertOne(r.Context(), store.CollectionChatbotFlows, store.Doc{
		"chatbot_id": chatbotID,
		"name":       name,
		"definition": body.Definition,
		"version":    version,
		"is_active":  isActive,
		"created_at": now,
		"updated_at": now,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	stored, err := s.store.FindOne(r.Context(), store.CollectionChatbotFlows, store.Doc{store.IDField: id})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"flow": serializeDoc(stored)})
}

// nextFlowVersion reads the highest stored version and adds one. Concurrent
// creates against the same chatbot can race this read; the last write wins.
func (s *Server) nextFlowVersion(r *http.Request, chatbotID string) (float64, error) {
	latest, err := s.store.Find(r.Context(), store.CollectionChatbotFlows,
		store.Doc{"chatbot_id": chatbotID},
		store.FindOptions{Sort: map[string]int{"version": -1}, Limit: 1})
	if err != nil {
		return 0, err
	}
	if len(latest) == 0 {
		return 1, nil
	}
	version, _ := latest[0]["version"].(float64)
	return version + 1, nil
}

func (s *Server) handleFlowList(w http.ResponseWriter, r *http.Request) {
	if err := s.requireOrganizationAccount(r); err != nil {
		s.writeError(w, r, err)
		return
	}
	chatbotID := chi.URLParam(r, "chatbotID")
	if _, err := s.ownedChatbot(r, chatbotID); err != nil {
		s.writeError(w, r, err)
		return
	}

	flows, err := s.store.Find(r.Context(), store.CollectionChatbotFlows,
		store.Doc{"chatbot_id": chatbotID},
		store.FindOptions{Sort: map[string]int{"version": -1}})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"flows": serializeDocs(flows)})
}

func (s *Server) handleFlowPatch(w http.ResponseWriter, r *http.Request) {
	if err := s.requireOrganizationAccount(r); err != nil {
		s.writeError(w, r, err)
		return
	}
	chatbotID := chi.URLParam(r, "chatbotID")
	flowID := chi.URLParam(r, "flowID")
	if _, err := s.ownedChatbot(r, chatbotID); err != nil {
		s.writeError(w, r, err)
		return
	}

	var body struct {
		Name       *string `json:"name"`
		Definition any     `json:"definition"`
		IsActive   *bool   `json:"is_active"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	set := store.Doc{}
	if body.Name != nil {
		name := strings.TrimSpace(*body.Name)
		if name == "" {
			s.writeError(w, r, domain.BadRequestf("name must not be empty"))
			return
		}
		set["name"] = name
	}
	if body.Definition != nil {
		if _, err := flow.ValidateDefinition(body.Definition); err != nil {
			s.writeError(w, r, err)
			return
		}
		set["definition"] = body.Definition
	}
	if body.IsActive != nil {
		set["is_active"] = *body.IsActive
	}
	if len(set) == 0 {
		s.writeError(w, r, domain.BadRequestf("no updatable fields provided"))
		return
	}
	set["updated_at"] = s.now().UTC().Format(time.RFC3339)

	filter := store.Doc{store.IDField: flowID, "chatbot_id": chatbotID}
	n, err := s.store.UpdateOne(r.Context(), store.CollectionChatbotFlows, filter, set, store.UpdateOptions{})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if n == 0 {
		s.writeError(w, r, domain.NotFoundf("flow not found"))
		return
	}

	stored, err := s.store.FindOne(r.Context(), store.CollectionChatbotFlows, filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"flow": serializeDoc(stored)})
}

func (s *Server) handleFlowDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.requireOrganizationAccount(r); err != nil {
		s.writeError(w, r, err)
		return
	}
	chatbotID := chi.URLParam(r, "chatbotID")
	flowID := chi.URLParam(r, "flowID")
	if _, err := s.ownedChatbot(r, chatbotID); err != nil {
		s.writeError(w, r, err)
		return
	}

	n, err := s.store.DeleteOne(r.Context(), store.CollectionChatbotFlows,
		store.Doc{store.IDField: flowID, "chatbot_id": chatbotID})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if n == 0 {
		s.writeError(w, r, domain.NotFoundf("flow not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}
