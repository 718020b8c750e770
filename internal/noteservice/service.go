// Package noteservice coordinates storage, the search index, and the layout
// engine behind one service type shared by the HTTP API and the MCP server.
package noteservice

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"

	"github.com/wxloong08/MindNexus/internal/apperr"
	"github.com/wxloong08/MindNexus/internal/checksum"
	"github.com/wxloong08/MindNexus/internal/graph"
	"github.com/wxloong08/MindNexus/internal/index"
	"github.com/wxloong08/MindNexus/internal/metrics"
	"github.com/wxloong08/MindNexus/internal/models"
	"github.com/wxloong08/MindNexus/internal/parser"
	"github.com/wxloong08/MindNexus/internal/storage"
)

// NoteDetail is the full representation of a note. Content is empty for
// opaque document types (pdf).
type NoteDetail struct {
	Path        string         `json:"path"`
	Title       string         `json:"title"`
	Type        models.DocType `json:"type"`
	Content     string         `json:"content"`
	Checksum    string         `json:"checksum"`
	Tags        []string       `json:"tags"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Backlinks   []string       `json:"backlinks"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	Path      string         `json:"path"`
	Title     string         `json:"title"`
	Type      models.DocType `json:"type"`
	Checksum  string         `json:"checksum"`
	Tags      []string       `json:"tags"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Service coordinates storage, index, and layout engine operations.
type Service struct {
	store  storage.Provider
	db     *index.DB
	engine *graph.Engine
}

// NewService creates a new note service.
func NewService(store storage.Provider, db *index.DB, engine *graph.Engine) *Service {
	return &Service{store: store, db: db, engine: engine}
}

// GetNote reads a note from storage, parses it, and enriches with backlinks.
func (s *Service) GetNote(_ context.Context, path string) (*NoteDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return s.buildNoteDetail(path, data)
}

// RenderNoteHTML renders an indexed markdown note's body to HTML.
// Non-markdown documents cannot be rendered.
func (s *Service) RenderNoteHTML(_ context.Context, path string) (string, error) {
	row, err := s.db.GetNote(path)
	if err != nil {
		return "", err
	}
	if row == nil {
		return "", apperr.ErrNotFound
	}
	if row.DocType != string(models.DocTypeMarkdown) {
		return "", apperr.ErrUnsupportedType
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(row.Body), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// CreateNote writes a new note and indexes it. The path extension decides
// the document type; unsupported extensions are rejected.
func (s *Service) CreateNote(_ context.Context, path string, content []byte) (*NoteDetail, error) {
	if !models.SupportedPath(path) {
		return nil, apperr.ErrUnsupportedType
	}
	if _, err := s.store.Read(path); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.IndexFile(path, content); err != nil {
		return nil, err
	}
	return s.buildNoteDetail(path, content)
}

// documentsDir is where imported documents land inside the vault.
const documentsDir = "documents"

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// sanitizeFilename strips path components and unsafe characters.
func sanitizeFilename(name string) string {
	return unsafeFilenameChars.ReplaceAllString(filepath.Base(name), "_")
}

// ImportDocument stores an uploaded document under the documents/ directory
// and indexes it, so it joins the graph like any authored note. The filename
// is reduced to a safe base name; a name collision gets a short unique
// suffix instead of failing the import.
func (s *Service) ImportDocument(_ context.Context, filename string, data []byte) (*NoteDetail, error) {
	name := sanitizeFilename(filename)
	if !models.SupportedPath(name) {
		return nil, apperr.ErrUnsupportedType
	}

	savePath := filepath.Join(documentsDir, name)
	if _, err := s.store.Read(savePath); err == nil {
		ext := filepath.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		savePath = filepath.Join(documentsDir, stem+"-"+uuid.NewString()[:8]+ext)
	}

	if err := s.store.Write(savePath, data); err != nil {
		return nil, err
	}
	if err := s.IndexFile(savePath, data); err != nil {
		return nil, err
	}
	return s.buildNoteDetail(savePath, data)
}

// UpdateNote writes updated content with optimistic concurrency.
func (s *Service) UpdateNote(_ context.Context, path string, content []byte, ifMatch string) (*NoteDetail, error) {
	existing, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, apperr.ErrConflict
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.IndexFile(path, content); err != nil {
		return nil, err
	}
	return s.buildNoteDetail(path, content)
}

// DeleteNote removes a note from storage and index.
func (s *Service) DeleteNote(_ context.Context, path string) error {
	if err := s.store.Delete(path); err != nil {
		return err
	}
	return s.db.DeleteNote(path)
}

// ListNotes returns paginated notes with optional tag filter.
func (s *Service) ListNotes(_ context.Context, limit, offset int, tag, sort string) ([]NoteListItem, int, error) {
	rows, total, err := s.db.ListNotes(limit, offset, tag, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]NoteListItem, len(rows))
	for i, r := range rows {
		items[i] = NoteListItem{
			Path:      r.Path,
			Title:     r.Title,
			Type:      models.DocType(r.DocType),
			Checksum:  r.Checksum,
			Tags:      nonNilSlice(r.Tags),
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Backlinks returns all note paths that link to the given target.
func (s *Service) Backlinks(_ context.Context, target string) ([]string, error) {
	return s.db.Backlinks(target)
}

// AddAiLink records an AI link suggestion between two indexed notes and
// resubmits the graph. Both endpoints must exist.
func (s *Service) AddAiLink(_ context.Context, source, target string) error {
	for _, p := range []string{source, target} {
		row, err := s.db.GetNote(p)
		if err != nil {
			return err
		}
		if row == nil {
			return apperr.ErrNotFound
		}
	}
	if err := s.db.AddAiLink(source, target); err != nil {
		return err
	}
	return s.RebuildGraph(context.Background())
}

// RemoveAiLink deletes an AI link suggestion and resubmits the graph.
// Removing a pair that was never linked is a no-op.
func (s *Service) RemoveAiLink(_ context.Context, source, target string) error {
	if err := s.db.RemoveAiLink(source, target); err != nil {
		return err
	}
	return s.RebuildGraph(context.Background())
}

// ListAiLinks returns every stored AI link suggestion.
func (s *Service) ListAiLinks(_ context.Context) ([]models.AiLink, error) {
	links, err := s.db.ListAiLinks()
	if err != nil {
		return nil, err
	}
	return nonNilSlice(links), nil
}

// RebuildGraph projects the index into layout engine input and submits it.
// The engine cancels any run in progress and starts over.
func (s *Service) RebuildGraph(_ context.Context) error {
	notes, aiLinks, err := s.graphInput()
	if err != nil {
		return err
	}
	s.engine.Submit(notes, aiLinks)
	metrics.GraphRebuilds.Inc()
	return nil
}

// GraphSnapshot returns the engine's current frame.
func (s *Service) GraphSnapshot(_ context.Context) graph.Frame {
	return s.engine.Snapshot()
}

// GraphScene returns the current frame projected into drawing primitives.
func (s *Service) GraphScene(_ context.Context) graph.Scene {
	frame := s.engine.Snapshot()
	return graph.BuildScene(frame.Nodes, frame.Links)
}

// SelectNode hit-tests the current layout at the given point. It returns
// the selected note path, or ok=false when the point hits nothing.
func (s *Service) SelectNode(_ context.Context, x, y float64) (string, bool) {
	return s.engine.SelectAt(x, y)
}

// IndexFile parses data and upserts it into the index.
// Exported so the API create/update paths share it.
func (s *Service) IndexFile(path string, data []byte) error {
	res := parser.ParseFile(path, data)
	err := s.db.UpsertNote(index.NoteRow{
		Path:      path,
		Title:     res.Title,
		Checksum:  checksum.Sum(data),
		Tags:      nonNilSlice(res.Tags),
		DocType:   string(res.Type),
		Body:      res.Body,
		UpdatedAt: time.Now(),
	}, res.Links)
	if err != nil {
		return err
	}
	metrics.NotesIndexed.Inc()
	return nil
}

// graphInput projects every indexed note and stored AI link into the layout
// engine's input model. Note IDs are vault-relative paths.
func (s *Service) graphInput() ([]graph.Note, []graph.AiLink, error) {
	rows, err := s.db.AllNotes()
	if err != nil {
		return nil, nil, err
	}
	notes := make([]graph.Note, len(rows))
	for i, r := range rows {
		notes[i] = graph.Note{
			ID:      r.Path,
			Title:   r.Title,
			Content: r.Body,
			Tags:    r.Tags,
			Type:    graph.NoteType(r.DocType),
		}
	}

	stored, err := s.db.ListAiLinks()
	if err != nil {
		return nil, nil, err
	}
	aiLinks := make([]graph.AiLink, len(stored))
	for i, l := range stored {
		aiLinks[i] = graph.AiLink{Source: l.Source, Target: l.Target}
	}
	return notes, aiLinks, nil
}

// buildNoteDetail constructs a NoteDetail from raw data without re-reading
// the file.
func (s *Service) buildNoteDetail(path string, data []byte) (*NoteDetail, error) {
	res := parser.ParseFile(path, data)
	bl, err := s.db.Backlinks(path)
	if err != nil {
		return nil, err
	}
	content := string(data)
	if res.Type == models.DocTypePDF {
		content = ""
	}
	return &NoteDetail{
		Path:        path,
		Title:       res.Title,
		Type:        res.Type,
		Content:     content,
		Checksum:    checksum.Sum(data),
		Tags:        nonNilSlice(res.Tags),
		Frontmatter: res.Frontmatter,
		Backlinks:   nonNilSlice(bl),
		UpdatedAt:   time.Now(),
	}, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
