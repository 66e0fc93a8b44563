package web

import (
	"errors"
	"net/http"

	"github.com/vbonduro/perfumery/internal/metrics"
	"github.com/vbonduro/perfumery/internal/service"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	cards, err := s.catalog.ListPerfumes(r.Context())
	if err != nil {
		s.internalError(w, r, "list perfumes", err)
		return
	}

	if err := s.renderPage(w,
		s.page(r, "home", map[string]any{"Perfumes": cards}),
		"pages/home.html", "partials/perfume_card.html",
	); err != nil {
		s.logger.Error("render page failed", "page", "home", "error", err)
	}
}

func (s *Server) handlePerfumeDetail(w http.ResponseWriter, r *http.Request) {
	s.renderPerfumeDetail(w, r, http.StatusOK, service.CommentInput{Rating: service.DefaultRating}, "")
}

func (s *Server) renderPerfumeDetail(w http.ResponseWriter, r *http.Request, status int, form service.CommentInput, errMsg string) {
	detail, err := s.catalog.GetPerfume(r.Context(), r.PathValue("id"))
	if errors.Is(err, service.ErrNotFound) {
		s.notFound(w, r, "Perfume Not Found")
		return
	}
	if err != nil {
		s.internalError(w, r, "get perfume", err)
		return
	}

	data := s.page(r, "home", map[string]any{
		"Perfume": detail,
		"Form":    form,
		"Error":   errMsg,
	})
	if err := s.renderPageStatus(w, status, data, "pages/perfume_detail.html"); err != nil {
		s.logger.Error("render page failed", "page", "perfume_detail", "error", err)
	}
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	perfumeID := r.PathValue("id")

	rating := service.DefaultRating
	if r.FormValue("rating") != "" {
		rating = formInt(r, "rating")
	}
	in := service.CommentInput{Content: r.FormValue("content"), Rating: rating}

	_, err := s.catalog.AddComment(r.Context(), currentUser(r), perfumeID, in)
	switch {
	case err == nil:
		metrics.RecordComment()
		http.Redirect(w, r, "/perfumes/"+perfumeID, http.StatusSeeOther)
	case errors.Is(err, service.ErrForbidden):
		s.renderError(w, r, http.StatusForbidden, "Access Denied", "Please log in to leave a review.")
	case errors.Is(err, service.ErrBlocked):
		s.renderError(w, r, http.StatusForbidden, "Access Denied", "Your account has been blocked.")
	case errors.Is(err, service.ErrNotFound):
		s.notFound(w, r, "Perfume Not Found")
	default:
		if msg, ok := userMessage(err); ok {
			s.renderPerfumeDetail(w, r, http.StatusBadRequest, in, msg)
			return
		}
		s.internalError(w, r, "add comment", err)
	}
}
