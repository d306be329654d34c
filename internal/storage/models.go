// Package storage persists the knowledge corpora in a SQL database.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	// Registered drivers for Open.
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Table names.
const (
	TableFAQ       = "faq_entries"
	TableLegal     = "legal_entries"
	TableMisc      = "misc_entries"
	TableDocuments = "documents"
)

// Open connects to the database for driver and pings it.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	var sqlDriver string
	switch driver {
	case DriverSQLite, "sqlite3":
		sqlDriver = "sqlite3"
	case DriverPostgres:
		sqlDriver = "postgres"
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if sqlDriver == "sqlite3" {
		// In-memory databases are per connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS faq_entries (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		question TEXT NOT NULL,
		answer TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS legal_entries (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS misc_entries (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		question TEXT NOT NULL,
		answer TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		filename TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		pages INTEGER NOT NULL,
		extracted_at TIMESTAMP NOT NULL
	)`,
}

// EnsureSchema creates the corpus tables if they do not exist.
func EnsureSchema(ctx context.Context, db DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
