package api

import (
	"github.com/wxloong08/MindNexus/internal/graph"
	"github.com/wxloong08/MindNexus/internal/models"
	"github.com/wxloong08/MindNexus/internal/noteservice"
)

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Path    string `json:"path" example:"notes/hello.md" validate:"required"`
	Content string `json:"content" example:"# Hello\nWorld" validate:"required"`
}

// UpdateNoteRequest is the request body for updating a note.
type UpdateNoteRequest struct {
	Content string `json:"content" example:"# Updated\nContent" validate:"required"`
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = noteservice.NoteListItem

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path    string `json:"path" example:"notes/hello.md" validate:"required"`
	Title   string `json:"title" example:"Hello" validate:"required"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// GraphResponse is the layout engine's current frame: step counter, run
// state, and positioned nodes with their links.
type GraphResponse = graph.Frame

// SceneResponse is the current frame reduced to drawing primitives.
type SceneResponse = graph.Scene

// SelectRequest is the request body for hit-testing the layout.
type SelectRequest struct {
	X float64 `json:"x" example:"412.5"`
	Y float64 `json:"y" example:"288.0"`
}

// SelectResponse carries the path of the node hit by a selection.
type SelectResponse struct {
	Path string `json:"path" example:"notes/hello.md" validate:"required"`
}

// AiLinkRequest is the request body for creating an AI link suggestion.
type AiLinkRequest struct {
	Source string `json:"source" example:"notes/hello.md" validate:"required"`
	Target string `json:"target" example:"notes/world.md" validate:"required"`
}

// AiLinksResponse wraps the stored AI link suggestions.
type AiLinksResponse struct {
	Links []models.AiLink `json:"links" validate:"required"`
}

// DocumentUploadResponse is returned after a successful document import.
type DocumentUploadResponse struct {
	Path string `json:"path" example:"documents/paper.pdf" validate:"required"`
	Size int64  `json:"size" example:"12345" validate:"required"`
	URL  string `json:"url" example:"/api/documents/paper.pdf" validate:"required"`
}
