package index

import (
	"os"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "mindnexus-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes`).Scan(&count); err != nil {
		t.Fatalf("notes table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM links`).Scan(&count); err != nil {
		t.Fatalf("links table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM ai_links`).Scan(&count); err != nil {
		t.Fatalf("ai_links table missing: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := NoteRow{
		Path:      "hello.md",
		Title:     "Hello World",
		Checksum:  "abc123",
		Tags:      []string{"go", "test"},
		DocType:   "markdown",
		Body:      "This is a hello world note.",
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertNote(row, []string{"other.md"}); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}
	cs, err := db.GetChecksum("hello.md")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestGetNote(t *testing.T) {
	db := testDB(t)
	row := NoteRow{
		Path:      "full.md",
		Title:     "Full Note",
		Checksum:  "c1",
		Tags:      []string{"alpha", "beta"},
		DocType:   "markdown",
		Body:      "the whole body",
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertNote(row, nil); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}

	got, err := db.GetNote("full.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got == nil {
		t.Fatal("GetNote returned nil for existing note")
	}
	if got.Title != "Full Note" || got.Body != "the whole body" || got.DocType != "markdown" {
		t.Errorf("GetNote = %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "alpha" {
		t.Errorf("tags = %v, want [alpha beta]", got.Tags)
	}
}

func TestGetNote_Missing(t *testing.T) {
	db := testDB(t)
	got, err := db.GetNote("nope.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing note, got %+v", got)
	}
}

func TestBacklinks(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "a.md", Checksum: "1", Tags: []string{}, Body: "body", UpdatedAt: time.Now()}, []string{"b.md"})
	_ = db.UpsertNote(NoteRow{Path: "c.md", Checksum: "2", Tags: []string{}, Body: "body", UpdatedAt: time.Now()}, []string{"b.md"})

	bl, err := db.Backlinks("b.md")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(bl) != 2 {
		t.Fatalf("expected 2 backlinks, got %d", len(bl))
	}
}

func TestDeleteNote(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "del.md", Checksum: "x", Tags: []string{}, Body: "body", UpdatedAt: time.Now()}, []string{"target.md"})

	if err := db.DeleteNote("del.md"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	cs, _ := db.GetChecksum("del.md")
	if cs != "" {
		t.Errorf("deleted note still has checksum %q", cs)
	}
	bl, _ := db.Backlinks("target.md")
	if len(bl) != 0 {
		t.Errorf("expected 0 backlinks after delete, got %d", len(bl))
	}
}

func TestDeleteNotePurgesAiLinks(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "x.md", Checksum: "1", Tags: []string{}, UpdatedAt: time.Now()}, nil)
	_ = db.UpsertNote(NoteRow{Path: "y.md", Checksum: "2", Tags: []string{}, UpdatedAt: time.Now()}, nil)
	if err := db.AddAiLink("x.md", "y.md"); err != nil {
		t.Fatalf("AddAiLink: %v", err)
	}
	if err := db.AddAiLink("y.md", "x.md"); err != nil {
		t.Fatalf("AddAiLink: %v", err)
	}

	if err := db.DeleteNote("x.md"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}

	links, err := db.ListAiLinks()
	if err != nil {
		t.Fatalf("ListAiLinks: %v", err)
	}
	if len(links) != 0 {
		t.Errorf("expected 0 ai links after delete, got %d: %+v", len(links), links)
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertNote(NoteRow{Path: "up.md", Title: "Old", Checksum: "1", Tags: []string{}, Body: "old body", UpdatedAt: now}, []string{"x.md"})
	_ = db.UpsertNote(NoteRow{Path: "up.md", Title: "New", Checksum: "2", Tags: []string{"new"}, Body: "new body", UpdatedAt: now}, []string{"y.md"})

	cs, _ := db.GetChecksum("up.md")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	bl, _ := db.Backlinks("x.md")
	if len(bl) != 0 {
		t.Error("old link should be removed on upsert")
	}
	bl, _ = db.Backlinks("y.md")
	if len(bl) != 1 {
		t.Error("new link should exist")
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "s.md", Title: "Search Me", Checksum: "1", Tags: []string{}, Body: "uniqueword appears here", UpdatedAt: time.Now()}, nil)

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "s.md" {
		t.Errorf("search results = %+v, want 1 hit for s.md", results)
	}
}

func TestListNotes_TagFilterAndSort(t *testing.T) {
	db := testDB(t)
	base := time.Now()
	_ = db.UpsertNote(NoteRow{Path: "b.md", Title: "Bravo", Checksum: "1", Tags: []string{"graphs"}, UpdatedAt: base.Add(-time.Hour)}, nil)
	_ = db.UpsertNote(NoteRow{Path: "a.md", Title: "Alpha", Checksum: "2", Tags: []string{"graphs", "go"}, UpdatedAt: base}, nil)
	_ = db.UpsertNote(NoteRow{Path: "c.md", Title: "Charlie", Checksum: "3", Tags: []string{"misc"}, UpdatedAt: base.Add(-2 * time.Hour)}, nil)

	notes, total, err := db.ListNotes(10, 0, "graphs", "title")
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	if len(notes) != 2 || notes[0].Title != "Alpha" || notes[1].Title != "Bravo" {
		t.Errorf("notes = %+v, want Alpha then Bravo", notes)
	}

	// Default sort is newest first.
	notes, total, err = db.ListNotes(10, 0, "", "")
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if total != 3 || len(notes) != 3 {
		t.Fatalf("total = %d len = %d, want 3/3", total, len(notes))
	}
	if notes[0].Path != "a.md" {
		t.Errorf("newest first: got %q", notes[0].Path)
	}
}

func TestListNotes_Pagination(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "1.md", Checksum: "1", Tags: []string{}, UpdatedAt: time.Now()}, nil)
	_ = db.UpsertNote(NoteRow{Path: "2.md", Checksum: "2", Tags: []string{}, UpdatedAt: time.Now()}, nil)
	_ = db.UpsertNote(NoteRow{Path: "3.md", Checksum: "3", Tags: []string{}, UpdatedAt: time.Now()}, nil)

	notes, total, err := db.ListNotes(2, 2, "", "path")
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(notes) != 1 || notes[0].Path != "3.md" {
		t.Errorf("page = %+v, want just 3.md", notes)
	}
}

func TestAllChecksums(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "a.md", Checksum: "ca", Tags: []string{}, UpdatedAt: time.Now()}, nil)
	_ = db.UpsertNote(NoteRow{Path: "b.md", Checksum: "cb", Tags: []string{}, UpdatedAt: time.Now()}, nil)

	got, err := db.AllChecksums()
	if err != nil {
		t.Fatalf("AllChecksums: %v", err)
	}
	if len(got) != 2 || got["a.md"] != "ca" || got["b.md"] != "cb" {
		t.Errorf("AllChecksums = %v", got)
	}
}

func TestAllNotes(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "b.md", Title: "B", Checksum: "1", Tags: []string{"t"}, DocType: "text", Body: "bb", UpdatedAt: time.Now()}, nil)
	_ = db.UpsertNote(NoteRow{Path: "a.md", Title: "A", Checksum: "2", Tags: []string{}, DocType: "markdown", Body: "aa", UpdatedAt: time.Now()}, nil)

	notes, err := db.AllNotes()
	if err != nil {
		t.Fatalf("AllNotes: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("len = %d, want 2", len(notes))
	}
	// Ordered by path.
	if notes[0].Path != "a.md" || notes[1].Path != "b.md" {
		t.Errorf("order = %q, %q", notes[0].Path, notes[1].Path)
	}
	if notes[1].DocType != "text" || notes[1].Body != "bb" || len(notes[1].Tags) != 1 {
		t.Errorf("b.md projection = %+v", notes[1])
	}
}

func TestAiLinks_AddListRemove(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "p.md", Checksum: "1", Tags: []string{}, UpdatedAt: time.Now()}, nil)
	_ = db.UpsertNote(NoteRow{Path: "q.md", Checksum: "2", Tags: []string{}, UpdatedAt: time.Now()}, nil)

	if err := db.AddAiLink("p.md", "q.md"); err != nil {
		t.Fatalf("AddAiLink: %v", err)
	}

	links, err := db.ListAiLinks()
	if err != nil {
		t.Fatalf("ListAiLinks: %v", err)
	}
	if len(links) != 1 || links[0].Source != "p.md" || links[0].Target != "q.md" {
		t.Fatalf("links = %+v", links)
	}
	if links[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	if err := db.RemoveAiLink("p.md", "q.md"); err != nil {
		t.Fatalf("RemoveAiLink: %v", err)
	}
	links, _ = db.ListAiLinks()
	if len(links) != 0 {
		t.Errorf("expected 0 links after remove, got %d", len(links))
	}
}

func TestAiLinks_AddIsIdempotent(t *testing.T) {
	db := testDB(t)
	if err := db.AddAiLink("p.md", "q.md"); err != nil {
		t.Fatalf("AddAiLink: %v", err)
	}
	if err := db.AddAiLink("p.md", "q.md"); err != nil {
		t.Fatalf("duplicate AddAiLink: %v", err)
	}
	links, _ := db.ListAiLinks()
	if len(links) != 1 {
		t.Errorf("expected 1 link after duplicate add, got %d", len(links))
	}
}

func TestAiLinks_RemoveMissingIsNoop(t *testing.T) {
	db := testDB(t)
	if err := db.RemoveAiLink("ghost.md", "phantom.md"); err != nil {
		t.Errorf("RemoveAiLink on missing pair: %v", err)
	}
}
