// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes MindNexus tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wxloong08/MindNexus/internal/apperr"
	"github.com/wxloong08/MindNexus/internal/models"
	"github.com/wxloong08/MindNexus/internal/noteservice"
)

// Server wraps the MCP server with MindNexus tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all MindNexus tools registered.
func New(svc *noteservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"MindNexus",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through notes content and titles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a note. Works for Markdown and "+
			"plain-text documents; PDF content is not readable as text."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. folder/note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note at the specified path. "+
			"Markdown content MUST follow the canonical note format (YAML frontmatter with title, "+
			"optional tags, Markdown body with [[wikilinks]]). Read the contract first via "+
			"the get_note_contract tool or the mindnexus://note-format resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path for the new note (.md or .txt)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Content following the MindNexus note format contract")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the canonical MindNexus note format contract. "+
			"Call this before creating or updating notes to ensure correct structure."),
	), s.getNoteContract)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes or notes in a specific folder."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that link to the specified note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the note to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("link_notes",
		mcp.WithDescription("Record a semantic link between two notes you judged to be related. "+
			"The link appears as a dashed edge in the knowledge graph and pulls the notes together. "+
			"Both endpoints must be existing notes."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Path of the source note")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Path of the target note")),
	), s.linkNotes)

	s.mcp.AddTool(mcp.NewTool("unlink_notes",
		mcp.WithDescription("Remove a semantic link previously recorded between two notes. "+
			"Removing a link that does not exist is not an error."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Path of the source note")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Path of the target note")),
	), s.unlinkNotes)

	s.mcp.AddTool(mcp.NewTool("graph_snapshot",
		mcp.WithDescription("Return the current knowledge-graph layout as JSON: node positions, "+
			"radii, link endpoints, and the simulation state (idle, running or converged)."),
	), s.graphSnapshot)

	s.mcp.AddTool(mcp.NewTool("import_document",
		mcp.WithDescription("Import an external document (Markdown, plain text or PDF) into the vault "+
			"from an HTTP(S) URL or a base64 data URI. The document is indexed and joins the knowledge graph. "+
			"Returns the saved path and a Markdown link ready to paste into a note."),
		mcp.WithString("url", mcp.Required(), mcp.Description("HTTP(S) URL or data URI of the document")),
		mcp.WithString("filename", mcp.Description("Optional filename override (extension decides the document type)")),
	), s.importDocument)

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource("mindnexus://note-format", "Note Format Contract",
			mcp.WithResourceDescription("Canonical note format that all notes must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// Listen serves MCP over the given streams until ctx is cancelled. Used when
// the stdio transport runs alongside the HTTP server.
func (s *Server) Listen(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.GetNote(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	if detail.Type == models.DocTypePDF {
		return mcp.NewToolResultError(fmt.Sprintf("cannot read PDF content as text: %s (title: %s)", path, detail.Title)), nil
	}
	return mcp.NewToolResultText(detail.Content), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if _, err := s.svc.CreateNote(ctx, path, []byte(content)); err != nil {
		switch {
		case errors.Is(err, apperr.ErrAlreadyExists):
			return mcp.NewToolResultError(fmt.Sprintf("note already exists: %s", path)), nil
		case errors.Is(err, apperr.ErrUnsupportedType):
			return mcp.NewToolResultError(fmt.Sprintf("unsupported document type: %s (allowed: .md, .txt, .pdf)", path)), nil
		default:
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	return mcp.NewToolResultText(fmt.Sprintf("created: %s", path)), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = f
	}

	items, _, err := s.svc.ListNotes(ctx, 500, 0, "", "path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	prefix := ""
	if folder != "" {
		prefix = strings.TrimSuffix(folder, "/") + "/"
	}

	var paths []string
	for _, it := range items {
		if prefix != "" && !strings.HasPrefix(it.Path, prefix) {
			continue
		}
		paths = append(paths, it.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) getNoteContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "mindnexus://note-format",
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.svc.Backlinks(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}

func (s *Server) linkNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if source == target {
		return mcp.NewToolResultError("source and target must differ"), nil
	}

	if err := s.svc.AddAiLink(ctx, source, target); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError("both endpoints must be existing notes"), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("linked: %s -> %s", source, target)), nil
}

func (s *Server) unlinkNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.svc.RemoveAiLink(ctx, source, target); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("unlinked: %s -> %s", source, target)), nil
}

func (s *Server) graphSnapshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	frame := s.svc.GraphSnapshot(ctx)
	out, err := json.MarshalIndent(frame, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
