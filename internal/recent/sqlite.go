package recent

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"courier/internal/recent/migrations"
)

// SQLiteStore keeps the recent-query list in a SQLite table
type SQLiteStore struct {
	db *sql.DB
}

// gooseUpContext is a seam for testing migrations
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// OpenSQLite opens (creating if needed) the database at path and applies
// the embedded migrations. ":memory:" is accepted.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	// a second pooled connection would see a different in-memory database
	db.SetMaxOpenConns(1)

	s := NewSQLiteStore(db)
	if err := s.RunMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore wraps an already migrated database
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// RunMigrations sets up goose with the embedded migrations and runs them
func (s *SQLiteStore) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, s.db, "."); err != nil {
		return fmt.Errorf("failed to migrate recent queries: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT query FROM recent_queries ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent queries: %w", err)
	}
	defer rows.Close()

	var queries []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("failed to scan recent query: %w", err)
		}
		queries = append(queries, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recent queries: %w", err)
	}
	return queries, nil
}

// Save replaces the stored list in one transaction
func (s *SQLiteStore) Save(ctx context.Context, queries []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM recent_queries`); err != nil {
		return fmt.Errorf("failed to clear recent queries: %w", err)
	}
	for i, q := range queries {
		if _, err := tx.ExecContext(ctx, `INSERT INTO recent_queries (position, query) VALUES (?, ?)`, i, q); err != nil {
			return fmt.Errorf("failed to insert recent query %q: %w", q, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recent queries: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
