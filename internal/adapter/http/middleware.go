package adapthttp

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"mealplanner/internal/app"
	"mealplanner/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	userContextKey      contextKey = "user"
	requestIDContextKey contextKey = "request_id"

	sessionCookie   = "session"
	requestIDHeader = "X-Request-ID"
)

// userFrom returns the authenticated user stored by authMiddleware.
func userFrom(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userContextKey).(*domain.User)
	return u
}

// requestIDFrom returns the id assigned by loggingMiddleware.
func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

// sessionToken reads the session cookie, falling back to a bearer token.
func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// authMiddleware validates session tokens.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.fixedUser != nil {
			ctx := context.WithValue(r.Context(), userContextKey, s.fixedUser)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		token := sessionToken(r)
		if token == "" {
			writeErrorCode(w, http.StatusUnauthorized, "unauthorized", errors.New("unauthorized"))
			return
		}

		user, err := s.authSvc.ValidateSession(r.Context(), token, r.UserAgent())
		if errors.Is(err, app.ErrSessionNotFound) || errors.Is(err, app.ErrSessionExpired) || errors.Is(err, app.ErrUserNotFound) {
			writeErrorCode(w, http.StatusUnauthorized, "unauthorized", errors.New("unauthorized"))
			return
		}
		if err != nil {
			s.log.Error("session validation failed", zap.String("request_id", requestIDFrom(r.Context())), zap.Error(err))
			writeError(w, http.StatusInternalServerError, errors.New("internal error"))
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware tags each request with an id and logs its outcome.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		ctx := context.WithValue(r.Context(), requestIDContextKey, id)
		next.ServeHTTP(rec, r.WithContext(ctx))

		s.log.Info("request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func withNoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
