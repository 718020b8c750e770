// Package testutil provides shared test helpers for setting up vaults,
// databases, and layout engines.
package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/wxloong08/MindNexus/internal/graph"
	"github.com/wxloong08/MindNexus/internal/index"
	"github.com/wxloong08/MindNexus/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "mindnexus-test-*.db")
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
	return db
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// TestEngine creates a fast, deterministic layout engine that is closed when
// the test ends.
func TestEngine(t *testing.T) *graph.Engine {
	t.Helper()
	e := graph.NewEngine(graph.Config{
		StepInterval: time.Millisecond,
		Seed:         1,
	})
	t.Cleanup(e.Close)
	return e
}
