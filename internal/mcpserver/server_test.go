package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wxloong08/MindNexus/internal/graph"
	"github.com/wxloong08/MindNexus/internal/index"
	"github.com/wxloong08/MindNexus/internal/noteservice"
	"github.com/wxloong08/MindNexus/internal/storage"
)

func testServer(t *testing.T) (*Server, *noteservice.Service) {
	t.Helper()

	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}

	dbFile, err := os.CreateTemp("", "mindnexus-mcp-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	engine := graph.NewEngine(graph.Config{StepInterval: time.Millisecond, Seed: 1})
	t.Cleanup(engine.Close)

	svc := noteservice.NewService(store, db, engine)
	srv := New(svc)
	return srv, svc
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// Find the handler via the MCPServer's tool list. We call the handler directly.
	// Since mcp-go doesn't expose a direct "call tool" test helper, we test
	// through the tool handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "create_note":
		result, err = srv.createNote(ctx, req)
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "get_backlinks":
		result, err = srv.getBacklinks(ctx, req)
	case "link_notes":
		result, err = srv.linkNotes(ctx, req)
	case "unlink_notes":
		result, err = srv.unlinkNotes(ctx, req)
	case "graph_snapshot":
		result, err = srv.graphSnapshot(ctx, req)
	case "import_document":
		result, err = srv.importDocument(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateAndReadNote(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_note", map[string]interface{}{
		"path":    "test.md",
		"content": "# Test\nHello",
	})
	text := resultText(r)
	if text != "created: test.md" {
		t.Errorf("create result = %q", text)
	}

	r = callTool(t, srv, "read_note", map[string]interface{}{
		"path": "test.md",
	})
	text = resultText(r)
	if text != "# Test\nHello" {
		t.Errorf("read result = %q", text)
	}
}

func TestCreateNote_UnsupportedType(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_note", map[string]interface{}{
		"path":    "diagram.svg",
		"content": "<svg/>",
	})
	if !r.IsError {
		t.Fatal("expected error for unsupported extension")
	}
	if !strings.Contains(resultText(r), "unsupported document type") {
		t.Errorf("error = %q", resultText(r))
	}
}

func TestListNotes(t *testing.T) {
	srv, _ := testServer(t)
	callTool(t, srv, "create_note", map[string]interface{}{"path": "a.md", "content": "a"})
	callTool(t, srv, "create_note", map[string]interface{}{"path": "inbox/b.md", "content": "b"})

	r := callTool(t, srv, "list_notes", map[string]interface{}{})
	text := resultText(r)
	if text != "a.md\ninbox/b.md" {
		t.Errorf("list = %q", text)
	}

	// Folder filter.
	r = callTool(t, srv, "list_notes", map[string]interface{}{"folder": "inbox"})
	if text := resultText(r); text != "inbox/b.md" {
		t.Errorf("folder list = %q", text)
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestGetBacklinks(t *testing.T) {
	srv, _ := testServer(t)
	_ = callTool(t, srv, "create_note", map[string]interface{}{
		"path":    "a.md",
		"content": "links to [[b]]",
	})

	r := callTool(t, srv, "get_backlinks", map[string]interface{}{"path": "b"})
	text := resultText(r)
	if text != "a.md" {
		t.Errorf("backlinks = %q, want a.md", text)
	}
}

func TestLinkAndUnlinkNotes(t *testing.T) {
	srv, svc := testServer(t)
	callTool(t, srv, "create_note", map[string]interface{}{"path": "a.md", "content": "a"})
	callTool(t, srv, "create_note", map[string]interface{}{"path": "b.md", "content": "b"})

	r := callTool(t, srv, "link_notes", map[string]interface{}{"source": "a.md", "target": "b.md"})
	if r.IsError {
		t.Fatalf("link failed: %s", resultText(r))
	}
	if text := resultText(r); text != "linked: a.md -> b.md" {
		t.Errorf("link result = %q", text)
	}

	links, err := svc.ListAiLinks(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 1 {
		t.Fatalf("stored links = %d, want 1", len(links))
	}

	// Self-links and dangling endpoints are refused.
	if r := callTool(t, srv, "link_notes", map[string]interface{}{"source": "a.md", "target": "a.md"}); !r.IsError {
		t.Error("self link should fail")
	}
	r = callTool(t, srv, "link_notes", map[string]interface{}{"source": "a.md", "target": "ghost.md"})
	if !r.IsError {
		t.Error("dangling link should fail")
	}
	if !strings.Contains(resultText(r), "existing notes") {
		t.Errorf("dangling error = %q", resultText(r))
	}

	r = callTool(t, srv, "unlink_notes", map[string]interface{}{"source": "a.md", "target": "b.md"})
	if r.IsError {
		t.Fatalf("unlink failed: %s", resultText(r))
	}
	// Unlinking twice is not an error.
	if r := callTool(t, srv, "unlink_notes", map[string]interface{}{"source": "a.md", "target": "b.md"}); r.IsError {
		t.Errorf("repeat unlink should be a no-op, got %s", resultText(r))
	}
}

func TestGraphSnapshotTool(t *testing.T) {
	srv, _ := testServer(t)
	callTool(t, srv, "create_note", map[string]interface{}{"path": "a.md", "content": "a"})
	callTool(t, srv, "create_note", map[string]interface{}{"path": "b.md", "content": "b"})
	// Linking resubmits the graph, so the snapshot has both notes.
	callTool(t, srv, "link_notes", map[string]interface{}{"source": "a.md", "target": "b.md"})

	r := callTool(t, srv, "graph_snapshot", map[string]interface{}{})
	if r.IsError {
		t.Fatalf("snapshot failed: %s", resultText(r))
	}

	var frame graph.Frame
	if err := json.Unmarshal([]byte(resultText(r)), &frame); err != nil {
		t.Fatalf("snapshot is not valid JSON: %v", err)
	}
	if len(frame.Nodes) != 2 {
		t.Errorf("nodes = %d, want 2", len(frame.Nodes))
	}
	if len(frame.Links) != 1 || frame.Links[0].Type != graph.LinkTypeAI {
		t.Errorf("links = %+v, want one ai link", frame.Links)
	}
}

func TestImportDocument_DataURI(t *testing.T) {
	srv, _ := testServer(t)

	content := "# Imported\n\nFetched from elsewhere."
	uri := "data:text/markdown;base64," + base64.StdEncoding.EncodeToString([]byte(content))

	r := callTool(t, srv, "import_document", map[string]interface{}{
		"url":      uri,
		"filename": "guide.md",
	})
	if r.IsError {
		t.Fatalf("import failed: %s", resultText(r))
	}

	var res importResult
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatal(err)
	}
	if res.SavedPath != "documents/guide.md" {
		t.Errorf("savedPath = %q", res.SavedPath)
	}
	if res.MarkdownLink != "[guide.md](/api/documents/guide.md)" {
		t.Errorf("markdownLink = %q", res.MarkdownLink)
	}

	// The import indexed the document, so read_note sees it.
	r = callTool(t, srv, "read_note", map[string]interface{}{"path": "documents/guide.md"})
	if resultText(r) != content {
		t.Errorf("read back = %q", resultText(r))
	}
}

func TestImportDocument_GeneratedName(t *testing.T) {
	srv, _ := testServer(t)

	uri := "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("scratch"))
	r := callTool(t, srv, "import_document", map[string]interface{}{"url": uri})
	if r.IsError {
		t.Fatalf("import failed: %s", resultText(r))
	}

	var res importResult
	_ = json.Unmarshal([]byte(resultText(r)), &res)
	if !strings.HasPrefix(res.SavedPath, "documents/") || !strings.HasSuffix(res.SavedPath, ".txt") {
		t.Errorf("savedPath = %q, want documents/<uuid>.txt", res.SavedPath)
	}
}

func TestImportDocument_RejectsBadInput(t *testing.T) {
	srv, _ := testServer(t)

	// Unsupported URL scheme.
	r := callTool(t, srv, "import_document", map[string]interface{}{"url": "ftp://example.com/x.md"})
	if !r.IsError || !strings.Contains(resultText(r), "unsupported scheme") {
		t.Errorf("ftp result = %q", resultText(r))
	}

	// Unsupported MIME type in data URI.
	r = callTool(t, srv, "import_document", map[string]interface{}{
		"url": "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png")),
	})
	if !r.IsError {
		t.Error("png data URI should fail")
	}

	// PDF extension with non-PDF payload.
	r = callTool(t, srv, "import_document", map[string]interface{}{
		"url":      "data:application/pdf;base64," + base64.StdEncoding.EncodeToString([]byte("not a pdf")),
		"filename": "paper.pdf",
	})
	if !r.IsError || !strings.Contains(resultText(r), "valid PDF") {
		t.Errorf("bad pdf result = %q", resultText(r))
	}
}

func TestReadNote_PDFIsOpaque(t *testing.T) {
	srv, _ := testServer(t)

	pdf := "%PDF-1.4\nfake body"
	r := callTool(t, srv, "import_document", map[string]interface{}{
		"url":      "data:application/pdf;base64," + base64.StdEncoding.EncodeToString([]byte(pdf)),
		"filename": "paper.pdf",
	})
	if r.IsError {
		t.Fatalf("import failed: %s", resultText(r))
	}

	r = callTool(t, srv, "read_note", map[string]interface{}{"path": "documents/paper.pdf"})
	if !r.IsError {
		t.Fatal("reading a PDF as text should fail")
	}
	if !strings.Contains(resultText(r), "cannot read PDF content") {
		t.Errorf("error = %q", resultText(r))
	}
}
