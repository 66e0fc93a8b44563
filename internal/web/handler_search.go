package web

import (
	"net/http"
	"strings"

	"github.com/vbonduro/perfumery/internal/service"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	var results []*service.PerfumeCard
	if query != "" {
		var err error
		results, err = s.catalog.SearchPerfumes(r.Context(), query)
		if err != nil {
			s.internalError(w, r, "search", err)
			return
		}
	}

	// HTMX partial update: return only results fragment.
	if r.Header.Get("HX-Request") == "true" {
		if err := s.renderPartial(w, "search_results", map[string]any{"Results": results, "Query": query},
			"partials/search_results.html", "partials/perfume_card.html",
		); err != nil {
			s.logger.Error("render partial failed", "partial", "search_results", "error", err)
		}
		return
	}

	if err := s.renderPage(w,
		s.page(r, "search", map[string]any{"Results": results, "Query": query}),
		"pages/search.html", "partials/search_results.html", "partials/perfume_card.html",
	); err != nil {
		s.logger.Error("render page failed", "page", "search", "error", err)
	}
}
