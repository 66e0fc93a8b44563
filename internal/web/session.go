package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/vbonduro/perfumery/internal/domain"
	"github.com/vbonduro/perfumery/internal/service"
)

const sessionCookie = "perfumery_session"

type userKey struct{}

// currentUser returns the logged-in user, or nil for anonymous requests.
func currentUser(r *http.Request) *domain.User {
	u, _ := r.Context().Value(userKey{}).(*domain.User)
	return u
}

// withSession resolves the session cookie to a user. Cookies that do not
// verify or that name a deleted user are cleared and the request continues
// anonymously.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := s.sessions.Verify(cookie.Value)
		if err != nil {
			s.logger.Debug("session rejected", "error", err)
			clearSession(w, r)
			next.ServeHTTP(w, r)
			return
		}

		user, err := s.accounts.GetUser(r.Context(), userID)
		switch {
		case errors.Is(err, service.ErrNotFound):
			s.logger.Info("session for unknown user", "user_id", userID)
			clearSession(w, r)
		case err != nil:
			s.logger.Error("resolve session failed", "user_id", userID, "error", err)
		default:
			r = r.WithContext(context.WithValue(r.Context(), userKey{}, user))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, user *domain.User) error {
	token, expires, err := s.sessions.Issue(user.ID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func clearSession(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// requireAdmin answers 403 unless the current user is an administrator.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		if user == nil || !user.IsAdmin {
			s.forbidden(w, r)
			return
		}
		next(w, r)
	}
}
