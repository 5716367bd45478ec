package db

import "testing"

// SetupTestDB opens a migrated in-memory SQLite database that is closed when the test ends
func SetupTestDB(t testing.TB) *Database {
	t.Helper()

	database, err := NewDatabase(DialectSQLite, ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		database.Close()
	})

	return database
}
