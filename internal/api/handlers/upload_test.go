package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gemeenteweb/server/internal/auth"
)

type mockBlobStore struct {
	putFunc func(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	calls   int
	lastKey string
}

func (m *mockBlobStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	m.calls++
	m.lastKey = key
	if m.putFunc != nil {
		return m.putFunc(ctx, key, contentType, body, size)
	}
	return "https://files.gemeente.org/" + key, nil
}

func multipartUpload(t *testing.T, fieldName, fileName, fileType string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if fileName != "" {
		part, err := writer.CreateFormFile(fieldName, fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if fileType != "" {
		if err := writer.WriteField("type", fileType); err != nil {
			t.Fatalf("write type field: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadRequiresAuth(t *testing.T) {
	store := &mockBlobStore{}
	handler := NewUploadHandler(store, "test")

	req := multipartUpload(t, "file", "foto.jpg", "images", []byte("data"))
	w := httptest.NewRecorder()
	handler.Upload(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if store.calls != 0 {
		t.Error("store should not be touched without a principal")
	}
}

func TestUploadMissingFile(t *testing.T) {
	store := &mockBlobStore{}
	handler := NewUploadHandler(store, "test")

	req := multipartUpload(t, "file", "", "images", nil)
	req = authedRequest(req, auth.Principal{ID: "u1", Role: "viewer"})
	w := httptest.NewRecorder()
	handler.Upload(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if got := errorMessage(t, w); got != "Geen lêer ontvang nie" {
		t.Errorf("error = %q", got)
	}
	if store.calls != 0 {
		t.Error("store should not be touched without a file")
	}
}

func TestUploadMalformedBody(t *testing.T) {
	store := &mockBlobStore{}
	handler := NewUploadHandler(store, "test")

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(`{"file":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	req = authedRequest(req, auth.Principal{ID: "u1", Role: "viewer"})
	w := httptest.NewRecorder()
	handler.Upload(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if got := errorMessage(t, w); got != "Ongeldige oplaai-versoek" {
		t.Errorf("error = %q", got)
	}
	if store.calls != 0 {
		t.Error("store should not be touched for a malformed body")
	}
}

func TestUploadWrongFieldName(t *testing.T) {
	store := &mockBlobStore{}
	handler := NewUploadHandler(store, "test")

	req := multipartUpload(t, "document", "foto.jpg", "images", []byte("data"))
	req = authedRequest(req, auth.Principal{ID: "u1", Role: "viewer"})
	w := httptest.NewRecorder()
	handler.Upload(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if got := errorMessage(t, w); got != "Geen lêer ontvang nie" {
		t.Errorf("error = %q", got)
	}
}

func TestUploadSuccess(t *testing.T) {
	store := &mockBlobStore{}
	handler := NewUploadHandler(store, "test")

	req := multipartUpload(t, "file", "foto.JPG", "images", []byte("jpeg-bytes"))
	req = authedRequest(req, auth.Principal{ID: "u1", Role: "viewer"})
	w := httptest.NewRecorder()
	handler.Upload(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if store.calls != 1 {
		t.Fatalf("store calls = %d, want 1", store.calls)
	}
	if !strings.HasPrefix(store.lastKey, "images/") {
		t.Errorf("key = %q, want images/ prefix", store.lastKey)
	}
	if !strings.HasSuffix(store.lastKey, "-u1.jpg") {
		t.Errorf("key = %q, want -u1.jpg suffix", store.lastKey)
	}

	var resp UploadResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(resp.URL, "https://files.gemeente.org/images/") {
		t.Errorf("url = %q", resp.URL)
	}
	if resp.Filename != store.lastKey {
		t.Errorf("filename = %q, want %q", resp.Filename, store.lastKey)
	}
}

func TestUploadDefaultsCategory(t *testing.T) {
	store := &mockBlobStore{}
	handler := NewUploadHandler(store, "test")

	req := multipartUpload(t, "file", "doc.pdf", "", []byte("pdf"))
	req = authedRequest(req, auth.Principal{ID: "u1", Role: "viewer"})
	w := httptest.NewRecorder()
	handler.Upload(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.HasPrefix(store.lastKey, "general/") {
		t.Errorf("key = %q, want general/ prefix", store.lastKey)
	}
}

func TestUploadSanitizesCategory(t *testing.T) {
	store := &mockBlobStore{}
	handler := NewUploadHandler(store, "test")

	req := multipartUpload(t, "file", "doc.pdf", "../secrets", []byte("pdf"))
	req = authedRequest(req, auth.Principal{ID: "u1", Role: "viewer"})
	w := httptest.NewRecorder()
	handler.Upload(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if strings.Contains(store.lastKey, "..") || strings.HasPrefix(store.lastKey, "/") {
		t.Errorf("key = %q, traversal characters must be stripped", store.lastKey)
	}
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	store := &mockBlobStore{}
	handler := NewUploadHandler(store, "test")

	req := multipartUpload(t, "file", "groot.bin", "images", make([]byte, MaxUploadSize+1))
	req = authedRequest(req, auth.Principal{ID: "u1", Role: "viewer"})
	w := httptest.NewRecorder()
	handler.Upload(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if store.calls != 0 {
		t.Error("store should not be touched for an oversized file")
	}
}

func TestUploadStoreFailure(t *testing.T) {
	store := &mockBlobStore{
		putFunc: func(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
			return "", errors.New("bucket unreachable")
		},
	}
	handler := NewUploadHandler(store, "test")

	req := multipartUpload(t, "file", "foto.jpg", "images", []byte("data"))
	req = authedRequest(req, auth.Principal{ID: "u1", Role: "viewer"})
	w := httptest.NewRecorder()
	handler.Upload(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if got := errorMessage(t, w); got != "Failed to store file" {
		t.Errorf("error = %q, must not leak the cause", got)
	}
}
