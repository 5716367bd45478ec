package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DialectSQLite   = "sqlite3"
	DialectPostgres = "postgres"
)

// Database wraps the connection pool together with the SQL dialect it speaks
type Database struct {
	db      *sql.DB
	dialect string
}

// NewDatabase opens, verifies and migrates the relay's store
func NewDatabase(dialect, dsn string) (*Database, error) {
	if dsn == "" {
		return nil, errors.New("database DSN is required")
	}
	if dialect != DialectSQLite && dialect != DialectPostgres {
		return nil, fmt.Errorf("unsupported database dialect %q", dialect)
	}

	conn, err := sql.Open(dialect, dsn)
	if err != nil {
		return nil, err
	}

	if dialect == DialectSQLite {
		// one writer keeps :memory: databases on a single connection and avoids SQLITE_BUSY
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			return nil, fmt.Errorf("ping failed: %w, close failed: %v", err, closeErr)
		}
		return nil, err
	}

	d := NewDatabaseFromConn(conn, dialect)
	if err := d.Migrate(context.Background()); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			return nil, fmt.Errorf("create tables failed: %w, close failed: %v", err, closeErr)
		}
		return nil, err
	}

	return d, nil
}

// NewDatabaseFromConn wraps an existing pool without migrating it
func NewDatabaseFromConn(conn *sql.DB, dialect string) *Database {
	return &Database{db: conn, dialect: dialect}
}

// GetDB exposes the underlying pool
func (d *Database) GetDB() *sql.DB {
	return d.db
}

// Dialect returns the configured SQL dialect
func (d *Database) Dialect() string {
	return d.dialect
}

// Rebind rewrites '?' placeholders into the dialect's positional form
func (d *Database) Rebind(query string) string {
	if d.dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Migrate creates the tables if they are missing. Safe to call repeatedly.
func (d *Database) Migrate(ctx context.Context) error {
	if d == nil || d.db == nil {
		return errors.New("database is closed")
	}
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Ping checks the connection
func (d *Database) Ping(ctx context.Context) error {
	if d == nil || d.db == nil {
		return errors.New("database is closed")
	}
	return d.db.PingContext(ctx)
}

// Close closes the pool
func (d *Database) Close() error {
	if d == nil {
		return errors.New("database is nil")
	}
	if d.db == nil {
		return errors.New("database already closed")
	}

	err := d.db.Close()
	d.db = nil
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS user_settings (
	user_id TEXT PRIMARY KEY,
	monday_token TEXT NOT NULL,
	whatsable_api_key TEXT,
	default_template TEXT,
	phone_column_id TEXT NOT NULL DEFAULT 'phone',
	settings TEXT NOT NULL DEFAULT '{}',
	created_at BIGINT NOT NULL,
	updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS phone_mapping (
	id TEXT PRIMARY KEY,
	phone TEXT NOT NULL,
	item_id TEXT NOT NULL,
	board_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	monday_token TEXT NOT NULL,
	created_at BIGINT NOT NULL,
	updated_at BIGINT NOT NULL,
	UNIQUE (phone, user_id)
);

CREATE INDEX IF NOT EXISTS idx_phone_mapping_phone ON phone_mapping(phone);

CREATE TABLE IF NOT EXISTS message_log (
	id TEXT PRIMARY KEY,
	phone TEXT NOT NULL,
	message TEXT NOT NULL,
	direction TEXT NOT NULL CHECK (direction IN ('outgoing', 'incoming')),
	item_id TEXT,
	board_id TEXT,
	message_id TEXT,
	status TEXT NOT NULL DEFAULT 'sent',
	created_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_message_log_phone ON message_log(phone);
`
