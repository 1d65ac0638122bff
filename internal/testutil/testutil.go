// Package testutil provides shared test helpers for setting up wikis and link indexes.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/tinywiki/internal/index"
	"github.com/starford/tinywiki/internal/render"
	"github.com/starford/tinywiki/internal/storage"
	"github.com/starford/tinywiki/internal/wiki"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "tinywiki-test-*.db")
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

// TestWiki creates a temporary wiki root with a storage.Provider.
func TestWiki(t *testing.T) (string, storage.Provider) {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return store.Root(), store
}

// TestService wires a wiki.Service over a temporary wiki and link index.
func TestService(t *testing.T) (*wiki.Service, storage.Provider, *index.DB) {
	t.Helper()
	_, store := TestWiki(t)
	db := TestDB(t)
	return wiki.NewService(store, render.New(render.Config{}), db), store, db
}
