// Package middlewares carries the HTTP middleware of the server.
package middlewares

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/packlane/authd/internal/domain/repository"
	tokens "github.com/packlane/authd/internal/security/token"
)

type individualKey struct{}

// SessionAuth resolves a first-party web session (cookie or bearer) to the
// authenticated individual. Resolution is best-effort: endpoints that need
// an individual check for one themselves, so an anonymous request passes
// through untouched.
type SessionAuth struct {
	Sessions   repository.SessionRepository
	Codec      *tokens.Codec
	CookieName string
}

func (s *SessionAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := s.sessionToken(r); raw != "" {
			ws, err := s.Sessions.GetByTokenHash(r.Context(), s.Codec.Hash(raw))
			if err == nil && ws.Usable(time.Now().UTC()) {
				r = r.WithContext(context.WithValue(r.Context(), individualKey{}, ws.IndividualID))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *SessionAuth) sessionToken(r *http.Request) string {
	if c, err := r.Cookie(s.cookieName()); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Session ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Session "))
	}
	return ""
}

func (s *SessionAuth) cookieName() string {
	if s.CookieName != "" {
		return s.CookieName
	}
	return "pl_session"
}

// IndividualID returns the session-authenticated individual, if any.
func IndividualID(ctx context.Context) string {
	v, _ := ctx.Value(individualKey{}).(string)
	return v
}
