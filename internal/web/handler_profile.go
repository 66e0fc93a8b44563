package web

import (
	"net/http"

	"github.com/vbonduro/perfumery/internal/domain"
	"github.com/vbonduro/perfumery/internal/service"
)

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	s.renderProfile(w, r, http.StatusOK, user, profileForm(user), "", "")
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	in := service.ProfileInput{
		Name:        r.FormValue("name"),
		Email:       r.FormValue("email"),
		YearOfBirth: formInt(r, "yearOfBirth"),
		Gender:      r.FormValue("gender"),
	}

	updated, err := s.accounts.UpdateProfile(r.Context(), user, in)
	if msg, ok := userMessage(err); ok {
		s.renderProfile(w, r, http.StatusBadRequest, user, in, msg, "")
		return
	}
	if err != nil {
		s.internalError(w, r, "update profile", err)
		return
	}

	s.renderProfile(w, r, http.StatusOK, updated, profileForm(updated), "", "Profile updated successfully!")
}

func (s *Server) renderProfile(w http.ResponseWriter, r *http.Request, status int, user *domain.User, form service.ProfileInput, errMsg, success string) {
	data := s.page(r, "profile", map[string]any{
		"Profile": user,
		"Form":    form,
		"Genders": service.Genders,
		"Error":   errMsg,
		"Success": success,
	})
	// The header greets the user by the name just saved.
	data["CurrentUser"] = user
	if err := s.renderPageStatus(w, status, data, "pages/profile.html"); err != nil {
		s.logger.Error("render page failed", "page", "profile", "error", err)
	}
}

func profileForm(u *domain.User) service.ProfileInput {
	return service.ProfileInput{Name: u.Name, Email: u.Email, YearOfBirth: u.YOB, Gender: u.Gender}
}
