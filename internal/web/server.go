package web

import (
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vbonduro/perfumery/internal/auth"
	"github.com/vbonduro/perfumery/internal/domain"
	"github.com/vbonduro/perfumery/internal/metrics"
	"github.com/vbonduro/perfumery/internal/service"
)

type Server struct {
	catalog   *service.CatalogService
	accounts  *service.AccountService
	sessions  *auth.SessionManager
	limiter   *auth.LoginLimiter
	templates fs.FS
	mux       *http.ServeMux
	tmplFuncs template.FuncMap
	logger    *slog.Logger
}

func NewServer(
	catalog *service.CatalogService,
	accounts *service.AccountService,
	sessions *auth.SessionManager,
	limiter *auth.LoginLimiter,
	tmpl fs.FS,
	logger *slog.Logger,
) *Server {
	s := &Server{
		catalog:   catalog,
		accounts:  accounts,
		sessions:  sessions,
		limiter:   limiter,
		templates: tmpl,
		mux:       http.NewServeMux(),
		logger:    logger,
		tmplFuncs: template.FuncMap{
			"price":    func(p float64) string { return fmt.Sprintf("$%.2f", p) },
			"date":     formatDate,
			"join":     strings.Join,
			"imageSrc": imageSrc,
			"ratings":  func() []int { return []int{5, 4, 3, 2, 1} },
		},
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleHome)
	s.mux.HandleFunc("GET /search", s.handleSearch)
	s.mux.HandleFunc("GET /perfumes/{id}", s.handlePerfumeDetail)
	s.mux.HandleFunc("GET /perfumes/{id}/image", s.handleGetImage)
	s.mux.HandleFunc("POST /perfumes/{id}/comments", s.handleAddComment)

	s.mux.HandleFunc("GET /login", s.handleLoginPage)
	s.mux.HandleFunc("POST /login", s.handleLogin)
	s.mux.HandleFunc("GET /register", s.handleRegisterPage)
	s.mux.HandleFunc("POST /register", s.handleRegister)
	s.mux.HandleFunc("POST /logout", s.handleLogout)
	s.mux.HandleFunc("GET /profile", s.handleProfile)
	s.mux.HandleFunc("POST /profile", s.handleUpdateProfile)

	s.mux.HandleFunc("GET /admin", s.requireAdmin(s.handleAdmin))
	s.mux.HandleFunc("POST /admin/users/{id}/block", s.requireAdmin(s.handleToggleBlock))
	s.mux.HandleFunc("GET /admin/perfumes/new", s.requireAdmin(s.handleNewPerfume))
	s.mux.HandleFunc("POST /admin/perfumes", s.requireAdmin(s.handleCreatePerfume))
	s.mux.HandleFunc("POST /admin/perfumes/describe", s.requireAdmin(s.handleDescribePerfume))
	s.mux.HandleFunc("GET /admin/perfumes/{id}/edit", s.requireAdmin(s.handleEditPerfume))
	s.mux.HandleFunc("POST /admin/perfumes/{id}", s.requireAdmin(s.handleUpdatePerfume))
	s.mux.HandleFunc("POST /admin/perfumes/{id}/image", s.requireAdmin(s.handleUploadImage))
	s.mux.HandleFunc("DELETE /admin/perfumes/{id}", s.requireAdmin(s.handleDeletePerfume))
	s.mux.HandleFunc("GET /admin/brands/new", s.requireAdmin(s.handleNewBrand))
	s.mux.HandleFunc("POST /admin/brands", s.requireAdmin(s.handleCreateBrand))
	s.mux.HandleFunc("GET /admin/brands/{id}/edit", s.requireAdmin(s.handleEditBrand))
	s.mux.HandleFunc("POST /admin/brands/{id}", s.requireAdmin(s.handleUpdateBrand))
	s.mux.HandleFunc("DELETE /admin/brands/{id}", s.requireAdmin(s.handleDeleteBrand))
}

// HandleMetrics exposes the Prometheus registry at GET /metrics.
func (s *Server) HandleMetrics() {
	s.mux.Handle("GET /metrics", metrics.Handler())
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy",
			"default-src 'self'; "+
				"script-src 'self' 'unsafe-inline' https://unpkg.com; "+
				"style-src 'self' 'unsafe-inline' https://fonts.googleapis.com; "+
				"font-src https://fonts.gstatic.com; "+
				"img-src 'self' https: data:; "+
				"connect-src 'self'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		// The mux records the matched pattern on the request.
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveRequest(r.Method, route, rec.status, elapsed)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.withSession(requestLogger(s.logger, securityHeaders(s.mux))).ServeHTTP(w, r)
}

// HTTPServer returns an *http.Server for addr with the storefront's timeouts.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	return s.HTTPServer(addr).ListenAndServe()
}

// page adds the fields every layout needs to data.
func (s *Server) page(r *http.Request, nav string, data map[string]any) map[string]any {
	if data == nil {
		data = map[string]any{}
	}
	data["CurrentUser"] = currentUser(r)
	data["ActiveNav"] = nav
	return data
}

// renderPage parses and executes a full-page template set.
func (s *Server) renderPage(w http.ResponseWriter, data any, files ...string) error {
	return s.renderPageStatus(w, http.StatusOK, data, files...)
}

func (s *Server) renderPageStatus(w http.ResponseWriter, status int, data any, files ...string) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, append([]string{"base.html"}, files...)...)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	return tmpl.ExecuteTemplate(w, "base", data)
}

// renderPartial parses files and executes the {{define}} block called name.
func (s *Server) renderPartial(w http.ResponseWriter, name string, data any, files ...string) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, files...)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return tmpl.ExecuteTemplate(w, name, data)
}

// renderError shows the error page with a title and message.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, title, message string) {
	data := s.page(r, "", map[string]any{"Title": title, "Message": message})
	if err := s.renderPageStatus(w, status, data, "pages/error.html"); err != nil {
		s.logger.Error("render page failed", "page", "error", "error", err)
	}
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request, title string) {
	s.renderError(w, r, http.StatusNotFound, title, "The page you are looking for does not exist.")
}

func (s *Server) forbidden(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusForbidden, "Access Denied", "You do not have permission to view this page.")
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.logger.Error(op+" failed", "path", r.URL.Path, "error", err)
	s.renderError(w, r, http.StatusInternalServerError, "Something went wrong", "Please try again later.")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

// imageSrc prefers an uploaded image over the catalog's external URL.
func imageSrc(p *domain.Perfume) string {
	if p.ImageKey != "" {
		return "/perfumes/" + p.ID + "/image"
	}
	return p.ImageURL
}
