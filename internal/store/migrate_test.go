package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/TobiSchelling/NewsExtractor/internal/logger"
)

func TestMigrateNewDB(t *testing.T) {
	sink := openTestSink(t)

	version, err := getSchemaVersion(sink.conn)
	if err != nil {
		t.Fatalf("getSchemaVersion: %v", err)
	}
	if version != latestVersion() {
		t.Errorf("expected version %d, got %d", latestVersion(), version)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "idem.db")

	db1, err := OpenSQLite(dbPath, logger.NewNop())
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	db1.Close(context.Background())

	db2, err := OpenSQLite(dbPath, logger.NewNop())
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer db2.Close(context.Background())

	version, err := getSchemaVersion(db2.conn)
	if err != nil {
		t.Fatalf("getSchemaVersion: %v", err)
	}
	if version != latestVersion() {
		t.Errorf("expected version %d, got %d", latestVersion(), version)
	}
}

func TestMigrateFromVersionOne(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "v1.db")

	sink, err := OpenSQLite(dbPath, logger.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	// Roll back to the state a v1 database would be in.
	if _, err := sink.conn.Exec("DROP INDEX idx_records_collection; DROP INDEX idx_records_url; PRAGMA user_version = 1"); err != nil {
		t.Fatalf("downgrade: %v", err)
	}
	sink.Close(context.Background())

	sink, err = OpenSQLite(dbPath, logger.NewNop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer sink.Close(context.Background())

	var count int
	if err := sink.conn.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name LIKE 'idx_records_%'",
	).Scan(&count); err != nil {
		t.Fatalf("count indexes: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 indexes after upgrade, got %d", count)
	}
}
