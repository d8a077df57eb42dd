package httpapi

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vaniflow/vaniflow/internal/auth"
	"github.com/vaniflow/vaniflow/internal/domain"
)

type contextKey string

const identityKey contextKey = "identity"

// identityFrom returns the authenticated caller, nil for anonymous requests.
func identityFrom(ctx context.Context) *auth.Identity {
	identity, _ := ctx.Value(identityKey).(*auth.Identity)
	return identity
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// requireAuth rejects requests without a valid access token.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			s.writeError(w, r, domain.Unauthorizedf("missing bearer token"))
			return
		}
		identity, err := s.tokens.Verify(token)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, identity)))
	})
}

// optionalAuth attaches the caller identity when a valid token is supplied
// and lets the request through anonymously otherwise.
func (s *Server) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := bearerToken(r); token != "" {
			if identity, err := s.tokens.Verify(token); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), identityKey, identity))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger emits one line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration_ms", time.Since(started).Milliseconds(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Rate limit tiers. Reads are generous; mutations and AI calls are tight.
type limitTier struct {
	name  string
	limit rate.Limit
	burst int
}

var (
	tierRead   = limitTier{name: "read", limit: 10, burst: 30}
	tierStrict = limitTier{name: "strict", limit: 2, burst: 5}
)

// rateLimiters keeps one token bucket per (tier, key).
type rateLimiters struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

func newRateLimiters() *rateLimiters {
	return &rateLimiters{buckets: make(map[string]*rate.Limiter)}
}

func (l *rateLimiters) allow(tier limitTier, key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	bucketKey := tier.name + ":" + key
	bucket, ok := l.buckets[bucketKey]
	if !ok {
		bucket = rate.NewLimiter(tier.limit, tier.burst)
		l.buckets[bucketKey] = bucket
	}
	return bucket.Allow()
}

// rateLimit keys buckets by authenticated user when available, by client IP
// otherwise.
func (s *Server) rateLimit(tier limitTier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			if !s.limits.allow(tier, key) {
				writeJSON(w, http.StatusTooManyRequests, errorBody{Error: errorDetail{
					Reason:  "rate_limited",
					Message: "too many requests",
				}})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if identity := identityFrom(r.Context()); identity != nil {
		return "user:" + identity.ID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr
	}
	return "ip:" + host
}
