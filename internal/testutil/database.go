package testutil

import (
	"path/filepath"
	"testing"

	"composewait/internal/db"
)

// SetupTestDB opens a migrated history database in a temp dir
func SetupTestDB(t *testing.T) *db.DB {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}
