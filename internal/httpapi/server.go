// Package httpapi exposes the service over HTTP.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vaniflow/vaniflow/internal/analytics"
	"github.com/vaniflow/vaniflow/internal/auth"
	"github.com/vaniflow/vaniflow/internal/domain"
	"github.com/vaniflow/vaniflow/internal/flow"
	"github.com/vaniflow/vaniflow/internal/routing"
	"github.com/vaniflow/vaniflow/internal/speech"
	"github.com/vaniflow/vaniflow/internal/store"
)

// Classifier produces a structured decision for free text.
type Classifier interface {
	Classify(ctx context.Context, text string) (*domain.Decision, error)
}

// Transcriber turns an audio clip into normalized text.
type Transcriber interface {
	Transcribe(ctx context.Context, input speech.Input) (*speech.Result, error)
}

// IntentRouter maps a decision to a downstream service invocation.
type IntentRouter interface {
	Route(ctx context.Context, inv routing.Invocation) (*domain.MicroserviceResult, error)
}

// Deps are the collaborators the server orchestrates.
type Deps struct {
	Store       store.Store
	Tokens      *auth.TokenManager
	Engine      *flow.Engine
	Classifier  Classifier
	Transcriber Transcriber
	Router      IntentRouter
	Recorder    *analytics.Recorder
	Logger      *slog.Logger
}

// Server holds the request handlers. Each request is one logical execution;
// the only shared mutable state is the store.
type Server struct {
	store       store.Store
	tokens      *auth.TokenManager
	engine      *flow.Engine
	classifier  Classifier
	transcriber Transcriber
	router      IntentRouter
	recorder    *analytics.Recorder
	logger      *slog.Logger
	metrics     *metrics
	limits      *rateLimiters
	readTier    limitTier
	strictTier  limitTier
	now         func() time.Time
}

// NewServer wires the handlers.
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:       deps.Store,
		tokens:      deps.Tokens,
		engine:      deps.Engine,
		classifier:  deps.Classifier,
		transcriber: deps.Transcriber,
		router:      deps.Router,
		recorder:    deps.Recorder,
		logger:      logger,
		metrics:     newMetrics(),
		limits:      newRateLimiters(),
		readTier:    tierRead,
		strictTier:  tierStrict,
		now:         time.Now,
	}
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)
	r.Use(s.instrument)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	r.Handle("/metrics", s.metrics.handler())

	r.Route("/auth", func(r chi.Router) {
		r.Use(s.rateLimit(s.strictTier))
		r.Post("/register", s.handleAuthRegister)
		r.Post("/login", s.handleAuthLogin)
	})

	r.Route("/account", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.With(s.rateLimit(s.strictTier)).Post("/register", s.handleAccountRegister)
		r.With(s.rateLimit(s.readTier)).Get("/me", s.handleAccountGet)
		r.With(s.rateLimit(s.strictTier)).Patch("/me", s.handleAccountPatch)
		r.With(s.rateLimit(s.strictTier)).Delete("/me", s.handleAccountDelete)
	})

	r.Route("/org", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.With(s.rateLimit(s.strictTier)).Post("/chatbots", s.handleChatbotCreate)
		r.With(s.rateLimit(s.readTier)).Get("/chatbots", s.handleChatbotList)
		r.With(s.rateLimit(s.strictTier)).Patch("/chatbots/{chatbotID}", s.handleChatbotPatch)
		r.With(s.rateLimit(s.strictTier)).Delete("/chatbots/{chatbotID}", s.handleChatbotDelete)
		r.With(s.rateLimit(s.strictTier)).Post("/chatbots/{chatbotID}/flows", s.handleFlowCreate)
		r.With(s.rateLimit(s.readTier)).Get("/chatbots/{chatbotID}/flows", s.handleFlowList)
		r.With(s.rateLimit(s.strictTier)).Patch("/chatbots/{chatbotID}/flows/{flowID}", s.handleFlowPatch)
		r.With(s.rateLimit(s.strictTier)).Delete("/chatbots/{chatbotID}/flows/{flowID}", s.handleFlowDelete)
	})

	r.Route("/chat", func(r chi.Router) {
		r.With(s.rateLimit(s.readTier)).Get("/organizations", s.handleChatOrganizations)
		r.With(s.rateLimit(s.strictTier)).Post("/organizations/{chatbotID}/message", s.handleChatMessage)
	})

	r.With(s.optionalAuth, s.rateLimit(s.strictTier)).Post("/ai/voice-decision", s.handleVoiceDecision)

	return r
}
