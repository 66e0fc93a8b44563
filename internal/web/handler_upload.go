package web

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vbonduro/perfumery/internal/metrics"
	"github.com/vbonduro/perfumery/internal/service"
)

const maxImageSize = 10 * 1024 * 1024 // 10 MB

// allowedImageTypes is the set of MIME types accepted for uploaded images.
// net/http.DetectContentType handles JPEG, PNG, and GIF via magic-byte
// sniffing. WebP is detected separately because the WHATWG sniffing algorithm (and
// therefore the stdlib) does not include a WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

var errUnsupportedImage = errors.New("unsupported image format")

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

// parseForm parses urlencoded and multipart bodies alike.
func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(maxImageSize)
	}
	return r.ParseForm()
}

// readImage returns the bytes and sniffed MIME type of the optional "image"
// file field. A missing or empty file yields nil data and no error.
func (s *Server) readImage(r *http.Request) ([]byte, string, error) {
	if r.MultipartForm == nil {
		return nil, "", nil
	}
	file, _, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	defer closeWithLog(file, "upload file", s.logger)

	data, err := io.ReadAll(io.LimitReader(file, maxImageSize+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", nil
	}
	if len(data) > maxImageSize {
		return nil, "", errUnsupportedImage
	}

	mimeType, ok := allowedImageMIME(data)
	if !ok {
		return nil, "", errUnsupportedImage
	}
	return data, mimeType, nil
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	perfumeID := r.PathValue("id")

	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	data, mimeType, err := s.readImage(r)
	if errors.Is(err, errUnsupportedImage) {
		http.Error(w, "unsupported image format", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, "failed to read file", http.StatusBadRequest)
		s.logger.Error("read upload failed", "perfume_id", perfumeID, "error", err)
		return
	}
	if data == nil {
		http.Error(w, "image file required", http.StatusBadRequest)
		return
	}

	_, err = s.catalog.SetPerfumeImage(r.Context(), perfumeID, data, mimeType)
	if errors.Is(err, service.ErrNotFound) {
		s.notFound(w, r, "Perfume Not Found")
		return
	}
	if err != nil {
		s.internalError(w, r, "upload image", err)
		return
	}

	metrics.RecordAdminAction("perfume", "image")
	http.Redirect(w, r, "/admin/perfumes/"+perfumeID+"/edit", http.StatusSeeOther)
}

func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	perfumeID := r.PathValue("id")

	reader, mimeType, err := s.catalog.PerfumeImage(r.Context(), perfumeID)
	if errors.Is(err, service.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "failed to get image", http.StatusInternalServerError)
		s.logger.Error("get image failed", "perfume_id", perfumeID, "error", err)
		return
	}
	defer closeWithLog(reader, "image reader", s.logger)

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "private, max-age=300")
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write image failed", "perfume_id", perfumeID, "error", err)
	}
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
