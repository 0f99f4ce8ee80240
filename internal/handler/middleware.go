package handler

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/access"
	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/auth"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

type ctxKey int

const (
	principalKey ctxKey = iota
	claimsKey
)

// principal returns the authenticated caller, or nil for anonymous requests.
func principal(r *http.Request) *access.Principal {
	p, _ := r.Context().Value(principalKey).(*access.Principal)
	return p
}

func claims(r *http.Request) *auth.Claims {
	c, _ := r.Context().Value(claimsKey).(*auth.Claims)
	return c
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func (h *Handler) resolve(r *http.Request) (*http.Request, error) {
	token, ok := bearerToken(r)
	if !ok {
		return r, access.ErrUnauthenticated
	}
	p, c, err := h.users.Authenticate(r.Context(), token)
	if err != nil {
		return r, err
	}
	ctx := context.WithValue(r.Context(), principalKey, p)
	ctx = context.WithValue(ctx, claimsKey, c)
	return r.WithContext(ctx), nil
}

// Authenticate rejects requests without a valid bearer token and stores
// the caller in the request context.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, err := h.resolve(r)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// OptionalAuth stores the caller when a valid token is present and
// otherwise proceeds anonymously.
func (h *Handler) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if resolved, err := h.resolve(r); err == nil {
			r = resolved
		}
		next.ServeHTTP(w, r)
	})
}

// Logger writes one structured access-log line per request.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", chimiddleware.GetReqID(r.Context()),
				"remote", r.RemoteAddr,
			)
		})
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client address.
type RateLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

// NewRateLimiter allows perMinute requests a minute per client, with bursts
// of up to burst requests.
func NewRateLimiter(perMinute float64, burst int) *RateLimiter {
	return &RateLimiter{
		limit:    rate.Limit(perMinute / 60),
		burst:    max(burst, 1),
		idle:     10 * time.Minute,
		visitors: make(map[string]*visitor),
	}
}

func (rl *RateLimiter) allow(key string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) >= rl.idle {
		rl.evict(now)
	}
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// evict drops clients idle for longer than rl.idle. It runs at most once per
// idle window; the caller holds rl.mu.
func (rl *RateLimiter) evict(now time.Time) {
	for k, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.idle {
			delete(rl.visitors, k)
		}
	}
	rl.lastSweep = now
}

// Limit rejects requests over the client's budget with 429.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if host, _, err := net.SplitHostPort(key); err == nil {
			key = host
		}
		if !rl.allow(key, time.Now()) {
			writeMessage(w, http.StatusTooManyRequests, "too many requests, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}
