package web

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/vbonduro/perfumery/internal/metrics"
	"github.com/vbonduro/perfumery/internal/service"
)

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if currentUser(r) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	data := map[string]any{"Registered": r.URL.Query().Get("registered") == "1"}
	if err := s.renderPage(w, s.page(r, "login", data), "pages/login.html"); err != nil {
		s.logger.Error("render page failed", "page", "login", "error", err)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))

	if !s.limiter.Allow(clientAddr(r)) {
		metrics.RecordLogin(metrics.LoginThrottled)
		s.renderLoginError(w, r, http.StatusTooManyRequests, email, "Too many login attempts. Please try again later.")
		return
	}

	user, err := s.accounts.Login(r.Context(), email, r.FormValue("password"))
	if errors.Is(err, service.ErrInvalidCredentials) {
		metrics.RecordLogin(metrics.LoginFailure)
		s.renderLoginError(w, r, http.StatusUnauthorized, email, "Invalid email or password")
		return
	}
	if err != nil {
		s.internalError(w, r, "login", err)
		return
	}

	if err := s.startSession(w, r, user); err != nil {
		s.internalError(w, r, "issue session", err)
		return
	}
	metrics.RecordLogin(metrics.LoginSuccess)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) renderLoginError(w http.ResponseWriter, r *http.Request, status int, email, msg string) {
	data := s.page(r, "login", map[string]any{"Error": msg, "Email": email})
	if err := s.renderPageStatus(w, status, data, "pages/login.html"); err != nil {
		s.logger.Error("render page failed", "page", "login", "error", err)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if user := currentUser(r); user != nil {
		s.logger.Info("user logged out", "user_id", user.ID)
	}
	clearSession(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if currentUser(r) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.renderRegister(w, r, http.StatusOK, service.RegistrationInput{}, "")
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	in := service.RegistrationInput{
		Name:            r.FormValue("name"),
		Email:           r.FormValue("email"),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirmPassword"),
		YearOfBirth:     formInt(r, "yearOfBirth"),
		Gender:          r.FormValue("gender"),
	}

	_, err := s.accounts.Register(r.Context(), in)
	if msg, ok := userMessage(err); ok {
		s.renderRegister(w, r, http.StatusBadRequest, in, msg)
		return
	}
	if err != nil {
		s.internalError(w, r, "register", err)
		return
	}

	http.Redirect(w, r, "/login?registered=1", http.StatusSeeOther)
}

func (s *Server) renderRegister(w http.ResponseWriter, r *http.Request, status int, in service.RegistrationInput, msg string) {
	in.Password, in.ConfirmPassword = "", ""
	data := s.page(r, "register", map[string]any{
		"Form":    in,
		"Error":   msg,
		"Genders": service.Genders,
	})
	if err := s.renderPageStatus(w, status, data, "pages/register.html"); err != nil {
		s.logger.Error("render page failed", "page", "register", "error", err)
	}
}

// userMessage returns the message to show for errors caused by the form
// contents rather than by the server.
func userMessage(err error) (string, bool) {
	var verr *service.ValidationError
	switch {
	case err == nil:
		return "", false
	case errors.As(err, &verr):
		return verr.Message, true
	case errors.Is(err, service.ErrEmailTaken):
		return "Email is already registered", true
	default:
		return "", false
	}
}

// clientAddr is the key login attempts are throttled by.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// formInt parses an integer form field, returning 0 when it is missing or
// malformed so validation reports it.
func formInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.FormValue(key)))
	if err != nil {
		return 0
	}
	return n
}
