package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

// dialect carries the statements that differ between SQL engines.
type dialect struct {
	driver string
	ddl    string
	get    string
	upsert string
	del    string
}

var (
	sqliteDialect = dialect{
		driver: "sqlite",
		ddl: `CREATE TABLE IF NOT EXISTS kv_state (
			name TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		)`,
		get:    `SELECT payload FROM kv_state WHERE name = ?`,
		upsert: `INSERT INTO kv_state(name, payload) VALUES(?, ?) ON CONFLICT(name) DO UPDATE SET payload = excluded.payload`,
		del:    `DELETE FROM kv_state WHERE name = ?`,
	}
	postgresDialect = dialect{
		driver: "pgx",
		ddl: `CREATE TABLE IF NOT EXISTS kv_state (
			name TEXT PRIMARY KEY,
			payload BYTEA NOT NULL
		)`,
		get:    `SELECT payload FROM kv_state WHERE name = $1`,
		upsert: `INSERT INTO kv_state(name, payload) VALUES($1, $2) ON CONFLICT(name) DO UPDATE SET payload = EXCLUDED.payload`,
		del:    `DELETE FROM kv_state WHERE name = $1`,
	}
)

// SQLProvider stores each key as one row of the kv_state table.
type SQLProvider struct {
	db      *sql.DB
	dialect dialect
}

// NewSQLiteProvider opens (creating if needed) the SQLite file at path.
func NewSQLiteProvider(ctx context.Context, path string) (*SQLProvider, error) {
	if path == "" {
		path = "datagrid.db"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	p, err := openSQL(ctx, sqliteDialect, path)
	if err != nil {
		return nil, err
	}
	// One connection keeps ":memory:" databases from splitting per connection.
	p.db.SetMaxOpenConns(1)
	return p, nil
}

// NewPostgresProvider connects through pgx using dsn.
func NewPostgresProvider(ctx context.Context, dsn string) (*SQLProvider, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	return openSQL(ctx, postgresDialect, dsn)
}

func openSQL(ctx context.Context, d dialect, dsn string) (*SQLProvider, error) {
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.driver, err)
	}
	if _, err := db.ExecContext(ctx, d.ddl); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create kv_state table: %w", err)
	}
	return &SQLProvider{db: db, dialect: d}, nil
}

// Get returns the payload stored under key, or ErrNotFound.
func (p *SQLProvider) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := p.db.QueryRowContext(ctx, p.dialect.get, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", key, err)
	}
	return payload, nil
}

// Set upserts value under key.
func (p *SQLProvider) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	if _, err := p.db.ExecContext(ctx, p.dialect.upsert, key, value); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

// Del removes key.
func (p *SQLProvider) Del(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx, p.dialect.del, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Close releases the database handle.
func (p *SQLProvider) Close() error {
	return p.db.Close()
}
