package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vbonduro/perfumery/internal/metrics"
	"github.com/vbonduro/perfumery/internal/service"
)

var adminTabs = map[string]bool{"users": true, "perfumes": true, "brands": true}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	tab := r.URL.Query().Get("tab")
	if !adminTabs[tab] {
		tab = "users"
	}

	users, err := s.accounts.ListUsers(r.Context(), currentUser(r))
	if err != nil {
		s.internalError(w, r, "list users", err)
		return
	}
	perfumes, err := s.catalog.ListPerfumes(r.Context())
	if err != nil {
		s.internalError(w, r, "list perfumes", err)
		return
	}
	brands, err := s.catalog.ListBrands(r.Context())
	if err != nil {
		s.internalError(w, r, "list brands", err)
		return
	}

	if err := s.renderPage(w,
		s.page(r, "admin", map[string]any{
			"Tab":      tab,
			"Users":    users,
			"Perfumes": perfumes,
			"Brands":   brands,
		}),
		"pages/admin.html", "partials/user_row.html",
	); err != nil {
		s.logger.Error("render page failed", "page", "admin", "error", err)
	}
}

func (s *Server) handleToggleBlock(w http.ResponseWriter, r *http.Request) {
	user, err := s.accounts.ToggleBlock(r.Context(), currentUser(r), r.PathValue("id"))
	switch {
	case errors.Is(err, service.ErrNotFound):
		s.notFound(w, r, "User Not Found")
		return
	case errors.Is(err, service.ErrCannotBlockAdmin):
		s.renderError(w, r, http.StatusBadRequest, "Action Not Allowed", "Administrators cannot be blocked.")
		return
	case err != nil:
		s.internalError(w, r, "toggle block", err)
		return
	}

	action := "unblock"
	if user.IsBlocked {
		action = "block"
	}
	metrics.RecordAdminAction("user", action)

	if r.Header.Get("HX-Request") == "true" {
		if err := s.renderPartial(w, "user_row", user, "partials/user_row.html"); err != nil {
			s.logger.Error("render partial failed", "partial", "user_row", "error", err)
		}
		return
	}
	http.Redirect(w, r, "/admin?tab=users", http.StatusSeeOther)
}

// perfumeInput reads the perfume form. The message is non-empty when a
// numeric field cannot be parsed.
func perfumeInput(r *http.Request) (service.PerfumeInput, string) {
	in := service.PerfumeInput{
		Name:           r.FormValue("name"),
		BrandID:        r.FormValue("brandId"),
		Concentration:  strings.TrimSpace(r.FormValue("concentration")),
		Description:    strings.TrimSpace(r.FormValue("description")),
		Ingredients:    service.ParseIngredients(r.FormValue("ingredients")),
		TargetAudience: strings.TrimSpace(r.FormValue("targetAudience")),
		Category:       strings.TrimSpace(r.FormValue("category")),
		ImageURL:       r.FormValue("imageUrl"),
	}

	if v := strings.TrimSpace(r.FormValue("price")); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return in, "Price must be a number"
		}
		in.Price = price
	}
	if v := strings.TrimSpace(r.FormValue("volume")); v != "" {
		volume, err := strconv.Atoi(v)
		if err != nil {
			return in, "Volume must be a whole number"
		}
		in.Volume = volume
	}
	return in, ""
}

// describeInput reads only the descriptive fields of the perfume form, so a
// half-filled price or volume does not block drafting.
func describeInput(r *http.Request) service.PerfumeInput {
	return service.PerfumeInput{
		Name:           r.FormValue("name"),
		BrandID:        r.FormValue("brandId"),
		Concentration:  strings.TrimSpace(r.FormValue("concentration")),
		Ingredients:    service.ParseIngredients(r.FormValue("ingredients")),
		TargetAudience: strings.TrimSpace(r.FormValue("targetAudience")),
		Category:       strings.TrimSpace(r.FormValue("category")),
	}
}

type perfumeFormView struct {
	Title   string
	Action  string
	ID      string
	Form    service.PerfumeInput
	Error   string
	HasFile bool
}

func (s *Server) renderPerfumeForm(w http.ResponseWriter, r *http.Request, status int, view perfumeFormView) {
	brands, err := s.catalog.ListBrands(r.Context())
	if err != nil {
		s.internalError(w, r, "list brands", err)
		return
	}
	data := s.page(r, "admin", map[string]any{
		"View":        view,
		"Brands":      brands,
		"CanDescribe": s.catalog.CanDescribe(),
	})
	if err := s.renderPageStatus(w, status, data, "pages/perfume_form.html", "partials/description_field.html"); err != nil {
		s.logger.Error("render page failed", "page", "perfume_form", "error", err)
	}
}

func (s *Server) handleNewPerfume(w http.ResponseWriter, r *http.Request) {
	s.renderPerfumeForm(w, r, http.StatusOK, perfumeFormView{
		Title:  "Add Perfume",
		Action: "/admin/perfumes",
	})
}

func (s *Server) handleCreatePerfume(w http.ResponseWriter, r *http.Request) {
	view := perfumeFormView{Title: "Add Perfume", Action: "/admin/perfumes"}
	s.savePerfume(w, r, view, func(ctx context.Context, in service.PerfumeInput) (string, error) {
		p, err := s.catalog.CreatePerfume(ctx, in)
		if err != nil {
			return "", err
		}
		metrics.RecordAdminAction("perfume", "create")
		return p.ID, nil
	})
}

func (s *Server) handleEditPerfume(w http.ResponseWriter, r *http.Request) {
	detail, err := s.catalog.GetPerfume(r.Context(), r.PathValue("id"))
	if errors.Is(err, service.ErrNotFound) {
		s.notFound(w, r, "Perfume Not Found")
		return
	}
	if err != nil {
		s.internalError(w, r, "get perfume", err)
		return
	}

	p := detail.Perfume
	s.renderPerfumeForm(w, r, http.StatusOK, perfumeFormView{
		Title:  "Edit Perfume",
		Action: "/admin/perfumes/" + p.ID,
		ID:     p.ID,
		Form: service.PerfumeInput{
			Name:           p.Name,
			BrandID:        p.BrandID,
			Price:          p.Price,
			Concentration:  p.Concentration,
			Description:    p.Description,
			Ingredients:    p.Ingredients,
			Volume:         p.Volume,
			TargetAudience: p.TargetAudience,
			Category:       p.Category,
			ImageURL:       p.ImageURL,
		},
		HasFile: p.ImageKey != "",
	})
}

func (s *Server) handleUpdatePerfume(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	view := perfumeFormView{Title: "Edit Perfume", Action: "/admin/perfumes/" + id, ID: id}
	s.savePerfume(w, r, view, func(ctx context.Context, in service.PerfumeInput) (string, error) {
		if _, err := s.catalog.UpdatePerfume(ctx, id, in); err != nil {
			return "", err
		}
		metrics.RecordAdminAction("perfume", "update")
		return id, nil
	})
}

// savePerfume runs the shared create/update flow: parse the form, check the
// optional image, save the record, then attach the image.
func (s *Server) savePerfume(w http.ResponseWriter, r *http.Request, view perfumeFormView,
	save func(ctx context.Context, in service.PerfumeInput) (string, error),
) {
	if err := parseForm(r); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	in, msg := perfumeInput(r)
	view.Form = in
	if msg != "" {
		view.Error = msg
		s.renderPerfumeForm(w, r, http.StatusBadRequest, view)
		return
	}

	image, mimeType, err := s.readImage(r)
	if err != nil {
		view.Error = "Image must be a JPEG, PNG, GIF, or WebP file"
		s.renderPerfumeForm(w, r, http.StatusBadRequest, view)
		return
	}

	id, err := save(r.Context(), in)
	if errors.Is(err, service.ErrNotFound) {
		s.notFound(w, r, "Perfume Not Found")
		return
	}
	if msg, ok := userMessage(err); ok {
		view.Error = msg
		s.renderPerfumeForm(w, r, http.StatusBadRequest, view)
		return
	}
	if err != nil {
		s.internalError(w, r, "save perfume", err)
		return
	}

	if image != nil {
		if _, err := s.catalog.SetPerfumeImage(r.Context(), id, image, mimeType); err != nil {
			s.internalError(w, r, "attach image", err)
			return
		}
		metrics.RecordAdminAction("perfume", "image")
	}

	http.Redirect(w, r, "/admin?tab=perfumes", http.StatusSeeOther)
}

func (s *Server) handleDeletePerfume(w http.ResponseWriter, r *http.Request) {
	err := s.catalog.DeletePerfume(r.Context(), r.PathValue("id"))
	if errors.Is(err, service.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "failed to delete perfume", http.StatusInternalServerError)
		s.logger.Error("delete perfume failed", "perfume_id", r.PathValue("id"), "error", err)
		return
	}

	metrics.RecordAdminAction("perfume", "delete")
	w.Header().Set("HX-Redirect", "/admin?tab=perfumes")
	w.WriteHeader(http.StatusOK)
}

// describeTimeout bounds a single drafting call to the language model.
const describeTimeout = 60 * time.Second

func (s *Server) handleDescribePerfume(w http.ResponseWriter, r *http.Request) {
	if !s.catalog.CanDescribe() {
		http.Error(w, "description drafting is not configured", http.StatusServiceUnavailable)
		return
	}
	if err := parseForm(r); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}
	in := describeInput(r)

	ctx, cancel := context.WithTimeout(r.Context(), describeTimeout)
	defer cancel()

	start := time.Now()
	desc, err := s.catalog.DescribePerfume(ctx, in)
	metrics.ObserveDescription(err, time.Since(start))

	if msg, ok := userMessage(err); ok {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	if errors.Is(err, service.ErrCopywriterDisabled) {
		http.Error(w, "description drafting is not configured", http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		http.Error(w, "failed to draft description", http.StatusBadGateway)
		s.logger.Error("describe perfume failed", "name", in.Name, "error", err)
		return
	}

	if err := s.renderPartial(w, "description_field", desc, "partials/description_field.html"); err != nil {
		s.logger.Error("render partial failed", "partial", "description_field", "error", err)
	}
}

type brandFormView struct {
	Title  string
	Action string
	Form   service.BrandInput
	Error  string
}

func (s *Server) renderBrandForm(w http.ResponseWriter, r *http.Request, status int, view brandFormView) {
	data := s.page(r, "admin", map[string]any{"View": view})
	if err := s.renderPageStatus(w, status, data, "pages/brand_form.html"); err != nil {
		s.logger.Error("render page failed", "page", "brand_form", "error", err)
	}
}

func (s *Server) handleNewBrand(w http.ResponseWriter, r *http.Request) {
	s.renderBrandForm(w, r, http.StatusOK, brandFormView{Title: "Add Brand", Action: "/admin/brands"})
}

func (s *Server) handleCreateBrand(w http.ResponseWriter, r *http.Request) {
	in := service.BrandInput{Name: r.FormValue("name")}

	_, err := s.catalog.CreateBrand(r.Context(), in)
	if msg, ok := userMessage(err); ok {
		s.renderBrandForm(w, r, http.StatusBadRequest, brandFormView{
			Title: "Add Brand", Action: "/admin/brands", Form: in, Error: msg,
		})
		return
	}
	if err != nil {
		s.internalError(w, r, "create brand", err)
		return
	}

	metrics.RecordAdminAction("brand", "create")
	http.Redirect(w, r, "/admin?tab=brands", http.StatusSeeOther)
}

func (s *Server) handleEditBrand(w http.ResponseWriter, r *http.Request) {
	brand, err := s.catalog.GetBrand(r.Context(), r.PathValue("id"))
	if errors.Is(err, service.ErrNotFound) {
		s.notFound(w, r, "Brand Not Found")
		return
	}
	if err != nil {
		s.internalError(w, r, "get brand", err)
		return
	}

	s.renderBrandForm(w, r, http.StatusOK, brandFormView{
		Title:  "Edit Brand",
		Action: "/admin/brands/" + brand.ID,
		Form:   service.BrandInput{Name: brand.Name},
	})
}

func (s *Server) handleUpdateBrand(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	in := service.BrandInput{Name: r.FormValue("name")}

	_, err := s.catalog.UpdateBrand(r.Context(), id, in)
	if errors.Is(err, service.ErrNotFound) {
		s.notFound(w, r, "Brand Not Found")
		return
	}
	if msg, ok := userMessage(err); ok {
		s.renderBrandForm(w, r, http.StatusBadRequest, brandFormView{
			Title: "Edit Brand", Action: "/admin/brands/" + id, Form: in, Error: msg,
		})
		return
	}
	if err != nil {
		s.internalError(w, r, "update brand", err)
		return
	}

	metrics.RecordAdminAction("brand", "update")
	http.Redirect(w, r, "/admin?tab=brands", http.StatusSeeOther)
}

func (s *Server) handleDeleteBrand(w http.ResponseWriter, r *http.Request) {
	err := s.catalog.DeleteBrand(r.Context(), r.PathValue("id"))
	if errors.Is(err, service.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "failed to delete brand", http.StatusInternalServerError)
		s.logger.Error("delete brand failed", "brand_id", r.PathValue("id"), "error", err)
		return
	}

	metrics.RecordAdminAction("brand", "delete")
	w.Header().Set("HX-Redirect", "/admin?tab=brands")
	w.WriteHeader(http.StatusOK)
}
