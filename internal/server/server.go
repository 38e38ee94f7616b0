// Package server exposes the HTTP API.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"aitodo/internal/app"
	"aitodo/internal/ratelimit"
	"aitodo/internal/util"
	"aitodo/pkg/domain"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App                      *app.App
	Redis                    *redis.Client
	LoginRateLimitPerMinute  int
	VerifyRateLimitPerMinute int
	TrustedProxies           *util.TrustedProxies
}

// Server exposes HTTP endpoints for the todo backend.
type Server struct {
	app           *app.App
	mux           *http.ServeMux
	trusted       *util.TrustedProxies
	loginLimiter  *ratelimit.FixedWindowLimiter
	verifyLimiter *ratelimit.FixedWindowLimiter
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	loginLimit := cfg.LoginRateLimitPerMinute
	if loginLimit <= 0 {
		loginLimit = 5
	}
	verifyLimit := cfg.VerifyRateLimitPerMinute
	if verifyLimit <= 0 {
		verifyLimit = 10
	}
	newLimiter := func(name string, limit int) (*ratelimit.FixedWindowLimiter, error) {
		prefix := "aitodo:ratelimit:" + name
		limiter, err := ratelimit.NewFixedWindowLimiter(cfg.Redis, prefix, limit, time.Minute)
		if err != nil {
			return nil, fmt.Errorf("init %s limiter: %w", name, err)
		}
		return limiter, nil
	}
	loginLimiter, err := newLimiter("login", loginLimit)
	if err != nil {
		return nil, err
	}
	verifyLimiter, err := newLimiter("verify", verifyLimit)
	if err != nil {
		return nil, err
	}
	s := &Server{
		app:           cfg.App,
		mux:           http.NewServeMux(),
		trusted:       cfg.TrustedProxies,
		loginLimiter:  loginLimiter,
		verifyLimiter: verifyLimiter,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler with the middleware chain applied.
func (s *Server) Router() http.Handler {
	return util.WithSecurityHeaders(util.WithCORS(util.WithRequestID(util.WithRequestLog(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// open endpoints
	s.mux.HandleFunc("/api/auth", s.handleAuth)
	s.mux.HandleFunc("/api/holidays", s.handleHolidays)

	// authenticated endpoints
	s.mux.Handle("/api/todos", s.authenticated(s.handleTodos))
	s.mux.Handle("/api/todos/", s.authenticated(s.handleTodoByID))
	s.mux.Handle("/api/share", s.authenticated(s.handleShare))
	s.mux.Handle("/api/users", s.authenticated(s.handleUsers))
	s.mux.Handle("/api/ai-parser", s.authenticated(s.handleParseText))
	s.mux.Handle("/api/image-parser", s.authenticated(s.handleParseImage))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// auth wrappers
type authHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authorize(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "登录已过期")
			return
		}
		next(w, r, user)
	})
}

func (s *Server) authorize(r *http.Request) (domain.User, bool) {
	token, ok := bearerToken(r)
	if !ok {
		s.audit(r, "auth.authorize", "fail", "reason", "missing_token")
		return domain.User{}, false
	}
	user, ok := s.app.UserFromToken(token)
	if !ok {
		s.audit(r, "auth.authorize", "fail", "reason", "invalid_or_expired_token")
		return domain.User{}, false
	}
	return user, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
