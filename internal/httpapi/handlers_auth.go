package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/vaniflow/vaniflow/internal/auth"
	"github.com/vaniflow/vaniflow/internal/domain"
	"github.com/vaniflow/vaniflow/internal/store"
)

const (
	roleOrganization = "organization"
	roleUser         = "user"
)

func (s *Server) handleAuthRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email            string `json:"email"`
		Password         string `json:"password"`
		DisplayName      string `json:"display_name"`
		AccountType      string `json:"account_type"`
		OrganizationName string `json:"organization_name"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	if body.Email == "" || body.Password == "" {
		s.writeError(w, r, domain.BadRequestf("email and password are required"))
		return
	}
	if len(body.Password) < 8 {
		s.writeError(w, r, domain.BadRequestf("password must be at least 8 characters"))
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))
	role := roleUser
	if body.AccountType == roleOrganization {
		role = roleOrganization
	}
	organizationName := strings.TrimSpace(body.OrganizationName)
	if role == roleOrganization && organizationName == "" {
		s.writeError(w, r, domain.BadRequestf("organization_name is required for organization account"))
		return
	}

	ctx := r.Context()
	if _, err := s.store.FindOne(ctx, store.CollectionUsers, store.Doc{"email": email}); err == nil {
		s.writeError(w, r, domain.BadRequestf("email already exists"))
		return
	} else if !errors.Is(err, store.ErrNoDocument) {
		s.writeError(w, r, err)
		return
	}

	passwordHash, err := auth.HashPassword(body.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	now := s.now().UTC().Format(time.RFC3339)
	var displayName any
	if name := strings.TrimSpace(body.DisplayName); name != "" {
		displayName = name
	}
	var orgName any
	if role == roleOrganization {
		orgName = organizationName
	}

	userID, err := s.store.InsertOne(ctx, store.CollectionUsers, store.Doc{
		"email":             email,
		"password_hash":     passwordHash,
		"role":              role,
		"display_name":      displayName,
		"organization_name": orgName,
		"created_at":        now,
		"updated_at":        now,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if _, err := s.store.InsertOne(ctx, store.CollectionUserAccounts, store.Doc{
		"user_id":           userID,
		"account_type":      role,
		"display_name":      displayName,
		"phone":             nil,
		"organization_name": orgName,
		"created_at":        now,
		"updated_at":        now,
		"deleted_at":        nil,
	}); err != nil {
		s.writeError(w, r, err)
		return
	}

	token, err := s.tokens.Issue(auth.Identity{ID: userID, Email: email, Role: role})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"token": token,
		"user": map[string]any{
			"id":                userID,
			"email":             email,
			"role":              role,
			"display_name":      displayName,
			"organization_name": orgName,
		},
	})
}

func (s *Server) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if body.Email == "" || body.Password == "" {
		s.writeError(w, r, domain.BadRequestf("email and password are required"))
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))
	user, err := s.store.FindOne(r.Context(), store.CollectionUsers, store.Doc{"email": email})
	if errors.Is(err, store.ErrNoDocument) {
		s.writeError(w, r, domain.Unauthorizedf("invalid credentials"))
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	passwordHash, _ := user["password_hash"].(string)
	if !auth.VerifyPassword(body.Password, passwordHash) {
		s.writeError(w, r, domain.Unauthorizedf("invalid credentials"))
		return
	}

	role, _ := user["role"].(string)
	if role == "" {
		role = roleUser
	}
	token, err := s.tokens.Issue(auth.Identity{ID: docID(user), Email: email, Role: role})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	public := serializeDoc(user)
	delete(public, "password_hash")
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  public,
	})
}
