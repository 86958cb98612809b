package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gemeenteweb/server/internal/api/middleware"
	"github.com/gemeenteweb/server/internal/api/respond"
	"github.com/gemeenteweb/server/internal/blob"
)

// MaxUploadSize caps a single uploaded file at 10MB.
const MaxUploadSize = 10 << 20

// UploadHandler stores uploaded files in object storage. Any authenticated
// user may upload; there is no role check on this endpoint.
type UploadHandler struct {
	store blob.Store
	env   string
}

func NewUploadHandler(store blob.Store, env string) *UploadHandler {
	return &UploadHandler{store: store, env: env}
}

// UploadResponse carries the public URL and storage name of the file.
type UploadResponse struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// Upload handles POST /api/upload. The multipart form carries the file
// under "file" and a category under "type".
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r)
	if !ok {
		respond.Error(w, r, http.StatusUnauthorized, "Unauthorized", respond.ErrUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respond.Error(w, r, http.StatusBadRequest, "Lêer is te groot. Maksimum grootte is 10MB", err)
			return
		}
		respond.Error(w, r, http.StatusBadRequest, "Ongeldige oplaai-versoek", err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, "Geen lêer ontvang nie", err)
		return
	}
	defer file.Close()

	if header.Size > MaxUploadSize {
		respond.Error(w, r, http.StatusBadRequest, "Lêer is te groot. Maksimum grootte is 10MB", nil)
		return
	}

	category := strings.TrimSpace(r.FormValue("type"))
	if category == "" {
		category = "general"
	}
	category = sanitizeCategory(category)

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	key := fmt.Sprintf("%s/%d-%s%s", category, time.Now().UnixMilli(), principal.ID, ext)

	url, err := h.store.Put(r.Context(), key, contentType, file, header.Size)
	if err != nil {
		respond.Error(w, r, http.StatusInternalServerError, "Failed to store file", err)
		return
	}

	respond.JSON(w, http.StatusOK, UploadResponse{URL: url, Filename: key})
}

// sanitizeCategory keeps the storage key prefix to a single safe path
// segment.
func sanitizeCategory(category string) string {
	var b strings.Builder
	for _, r := range category {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "general"
	}
	return b.String()
}
