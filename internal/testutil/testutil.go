// Package testutil provides shared test helpers for setting up vault
// directories and databases.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/sovra/internal/blobstore"
	"github.com/starford/sovra/internal/index"
)

// TestDB creates a temporary SQLite database that is automatically
// cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "sovra-test-*.db")
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

// TestBlobs creates a temporary blob store rooted in a fresh directory.
func TestBlobs(t *testing.T) (string, *blobstore.Store) {
	t.Helper()
	dir := t.TempDir()
	blobs, err := blobstore.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, blobs
}
