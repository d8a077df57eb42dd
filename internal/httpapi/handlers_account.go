package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/vaniflow/vaniflow/internal/domain"
	"github.com/vaniflow/vaniflow/internal/store"
)

// handleAccountRegister creates or refreshes the caller's account profile.
// Registering again after a soft delete revives the same document.
func (s *Server) handleAccountRegister(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())

	var body struct {
		AccountType      string `json:"account_type"`
		DisplayName      string `json:"display_name"`
		Phone            string `json:"phone"`
		OrganizationName string `json:"organization_name"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	accountType := body.AccountType
	if accountType == "" {
		accountType = identity.Role
	}
	if accountType != roleUser && accountType != roleOrganization {
		s.writeError(w, r, domain.BadRequestf("account_type must be user or organization"))
		return
	}
	if accountType == roleOrganization && strings.TrimSpace(body.OrganizationName) == "" {
		s.writeError(w, r, domain.BadRequestf("organization_name is required for organization account"))
		return
	}

	now := s.now().UTC().Format(time.RFC3339)
	set := store.Doc{
		"account_type": accountType,
		"updated_at":   now,
		"deleted_at":   nil,
	}
	if name := strings.TrimSpace(body.DisplayName); name != "" {
		set["display_name"] = name
	}
	if phone := strings.TrimSpace(body.Phone); phone != "" {
		set["phone"] = phone
	}
	if org := strings.TrimSpace(body.OrganizationName); org != "" {
		set["organization_name"] = org
	}

	if _, err := s.store.UpdateOne(r.Context(), store.CollectionUserAccounts,
		store.Doc{"user_id": identity.ID}, set,
		store.UpdateOptions{Upsert: true, SetOnInsert: store.Doc{"created_at": now}},
	); err != nil {
		s.writeError(w, r, err)
		return
	}

	account, err := s.store.FindOne(r.Context(), store.CollectionUserAccounts, store.Doc{"user_id": identity.ID})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"account": serializeDoc(account)})
}

func (s *Server) handleAccountGet(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())
	account, err := s.findActiveAccount(r, identity.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account": serializeDoc(account)})
}

func (s *Server) handleAccountPatch(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())

	var body struct {
		DisplayName      *string `json:"display_name"`
		Phone            *string `json:"phone"`
		OrganizationName *string `json:"organization_name"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	set := store.Doc{}
	if body.DisplayName != nil {
		set["display_name"] = *body.DisplayName
	}
	if body.Phone != nil {
		set["phone"] = *body.Phone
	}
	if body.OrganizationName != nil {
		set["organization_name"] = *body.OrganizationName
	}
	if len(set) == 0 {
		s.writeError(w, r, domain.BadRequestf("no updatable fields provided"))
		return
	}
	set["updated_at"] = s.now().UTC().Format(time.RFC3339)

	filter := store.Doc{"user_id": identity.ID, "deleted_at": nil}
	n, err := s.store.UpdateOne(r.Context(), store.CollectionUserAccounts, filter, set, store.UpdateOptions{})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if n == 0 {
		s.writeError(w, r, domain.NotFoundf("account not registered"))
		return
	}

	account, err := s.store.FindOne(r.Context(), store.CollectionUserAccounts, filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account": serializeDoc(account)})
}

func (s *Server) handleAccountDelete(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())

	now := s.now().UTC().Format(time.RFC3339)
	n, err := s.store.UpdateOne(r.Context(), store.CollectionUserAccounts,
		store.Doc{"user_id": identity.ID, "deleted_at": nil},
		store.Doc{"deleted_at": now, "updated_at": now},
		store.UpdateOptions{},
	)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if n == 0 {
		s.writeError(w, r, domain.NotFoundf("account not registered"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// findActiveAccount loads the caller's non-deleted account document.
func (s *Server) findActiveAccount(r *http.Request, userID string) (store.Doc, error) {
	account, err := s.store.FindOne(r.Context(), store.CollectionUserAccounts,
		store.Doc{"user_id": userID, "deleted_at": nil})
	if errors.Is(err, store.ErrNoDocument) {
		return nil, domain.NotFoundf("account not registered")
	}
	return account, err
}
