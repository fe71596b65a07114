// Package testutil provides shared test helpers for setting up document
// stores and databases.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/ansuz/internal/docstore"
	"github.com/starford/ansuz/internal/index"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "ansuz-test-*.db")
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

// TestDocsDir creates a temporary documents directory with a docstore.FS.
func TestDocsDir(t *testing.T) (string, *docstore.FS) {
	t.Helper()
	docsDir := t.TempDir()
	store, err := docstore.NewFS(docsDir)
	if err != nil {
		t.Fatal(err)
	}
	return docsDir, store
}
