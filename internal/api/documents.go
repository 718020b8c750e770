package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wxloong08/MindNexus/internal/apperr"
	"github.com/wxloong08/MindNexus/internal/noteservice"
)

const (
	documentsDir   = "documents"
	maxUploadBytes = 50 << 20 // 50 MB
)

// DocumentHandler accepts document uploads into the vault and serves the
// raw files back.
type DocumentHandler struct {
	vaultRoot string
	svc       *noteservice.Service
}

// NewDocumentHandler creates a handler rooted at the vault directory.
func NewDocumentHandler(vaultRoot string, svc *noteservice.Service) *DocumentHandler {
	return &DocumentHandler{vaultRoot: vaultRoot, svc: svc}
}

// docPath returns the absolute path to the documents directory.
func (h *DocumentHandler) docPath() string {
	return filepath.Join(h.vaultRoot, documentsDir)
}

// safeName validates that the filename is a plain name (no path separators,
// no traversal) and returns the absolute path under the documents dir.
func (h *DocumentHandler) safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	// Reject anything with path separators or traversal.
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	abs := filepath.Join(h.docPath(), cleaned)
	// Double-check the resolved path is under the documents dir.
	if !strings.HasPrefix(abs, h.docPath()+string(os.PathSeparator)) && abs != h.docPath() {
		return "", fmt.Errorf("path escapes documents directory")
	}
	return abs, nil
}

// ServeFile handles GET /api/documents/{filename}.
//
//	@Summary		Download a raw document file
//	@Tags			documents
//	@Param			filename	path	string	true	"Document filename"
//	@Success		200			"File content"
//	@Failure		404			"Not found"
//	@Security		BearerAuth
//	@Router			/documents/{filename} [get]
func (h *DocumentHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	abs, err := h.safeName(filename)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}

// Upload handles POST /api/documents (multipart/form-data, field "file").
// The document lands in the vault's documents/ directory and is indexed, so
// it joins the graph like any other note.
//
//	@Summary		Import a document into the vault
//	@Tags			documents
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Document file (.md, .txt, or .pdf)"
//	@Success		201		{object}	DocumentUploadResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents [post]
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	if _, err := h.safeName(header.Filename); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read upload"))
		return
	}

	detail, err := h.svc.ImportDocument(r.Context(), header.Filename, data)
	if err != nil {
		if errors.Is(err, apperr.ErrUnsupportedType) {
			writeJSON(w, http.StatusBadRequest, errorBody("unsupported document type (allowed: .md, .txt, .pdf)"))
		} else {
			writeJSON(w, http.StatusInternalServerError, errorBody("failed to store document"))
		}
		return
	}

	writeJSON(w, http.StatusCreated, DocumentUploadResponse{
		Path: detail.Path,
		Size: int64(len(data)),
		URL:  "/api/documents/" + filepath.Base(detail.Path),
	})
}
