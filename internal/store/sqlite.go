package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/TobiSchelling/NewsExtractor/internal/article"
	"github.com/TobiSchelling/NewsExtractor/internal/logger"
)

// SQLiteSink stores every record as a JSON document in a single records table,
// keyed by database name and collection.
type SQLiteSink struct {
	conn *sql.DB
	path string
	log  logger.Logger
}

// OpenSQLite creates or opens a SQLite database at the given path.
func OpenSQLite(dbPath string, log logger.Logger) (*SQLiteSink, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Single writer; the pipeline persists from one goroutine anyway.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if err := migrate(conn, log); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &SQLiteSink{conn: conn, path: dbPath, log: log}, nil
}

// Persist writes the batch in one transaction. An empty batch is a no-op.
func (s *SQLiteSink) Persist(ctx context.Context, b Batch) error {
	if len(b.Records) == 0 {
		return nil
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (database_name, collection, search_date, url, payload, inserted_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	db := b.Database()
	now := time.Now().UTC().Format(time.RFC3339)
	for _, doc := range b.Documents() {
		payload, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encoding record: %w", err)
		}
		url, _ := doc["url"].(string)
		if _, err := stmt.ExecContext(ctx, db, b.Collection, b.Date, url, string(payload), now); err != nil {
			return fmt.Errorf("inserting into %s.%s: %w", db, b.Collection, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	s.log.Debug("persisted batch",
		logger.String("database", db),
		logger.String("collection", b.Collection),
		logger.Int("records", len(b.Records)))
	return nil
}

// Records returns the stored documents of one collection, oldest first.
// An empty searchDate matches every day.
func (s *SQLiteSink) Records(ctx context.Context, databaseName, collection, searchDate string) ([]article.Record, error) {
	query := `SELECT payload FROM records WHERE database_name = ? AND collection = ?`
	args := []any{databaseName, collection}
	if searchDate != "" {
		query += " AND search_date = ?"
		args = append(args, searchDate)
	}
	query += " ORDER BY id"

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []article.Record
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var rec article.Record
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("decoding record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteSink) Close(context.Context) error {
	return s.conn.Close()
}

// Path returns the database file path.
func (s *SQLiteSink) Path() string {
	return s.path
}
