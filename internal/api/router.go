package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wxloong08/MindNexus/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// vaultRoot is used to resolve the documents directory.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler, vaultRoot string) chi.Router {
	h := NewHandler(svc)
	dh := NewDocumentHandler(vaultRoot, svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes CRUD.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/*", h.GetNote)
	r.Put("/notes/*", h.UpdateNote)
	r.Delete("/notes/*", h.DeleteNote)

	// Search.
	r.Get("/search", h.Search)

	// Graph layout.
	r.Get("/graph", h.Graph)
	r.Get("/graph/scene", h.GraphScene)
	r.Post("/graph/rebuild", h.RebuildGraph)
	r.Post("/graph/select", h.SelectNode)

	// AI link suggestions.
	r.Get("/ai-links", h.ListAiLinks)
	r.Post("/ai-links", h.CreateAiLink)
	r.Delete("/ai-links", h.DeleteAiLink)

	// Document import and download.
	r.Post("/documents", dh.Upload)
	r.Get("/documents/{filename}", dh.ServeFile)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
