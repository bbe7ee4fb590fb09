package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
)

// SQLOptions locates a SQL database. Path is used by sqlite only.
type SQLOptions struct {
	Dialect  Dialect
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string
}

// DB wraps a SQL connection and the dialect its queries are written for.
// Queries in this package use ? placeholders; q rebinds them for postgres.
type DB struct {
	conn    *sql.DB
	dialect Dialect
}

// OpenSQLite opens (or creates) the SQLite file at dbPath.
func OpenSQLite(dbPath string) (*DB, error) {
	return OpenSQL(SQLOptions{Dialect: SQLite, Path: dbPath})
}

// OpenSQL connects and runs migrations.
func OpenSQL(opts SQLOptions) (*DB, error) {
	driver, dsn, err := buildDSN(opts)
	if err != nil {
		return nil, err
	}
	if opts.Dialect == SQLite {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Dialect, err)
	}
	if opts.Dialect == SQLite {
		// SQLite only supports one writer; a single connection prevents SQLITE_BUSY.
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(5)
		conn.SetMaxIdleConns(2)
		conn.SetConnMaxLifetime(10 * time.Minute)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := conn.PingContext(ctx); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ping %s: %w", opts.Dialect, err)
		}
	}

	db := &DB{conn: conn, dialect: opts.Dialect}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

func buildDSN(opts SQLOptions) (driver, dsn string, err error) {
	switch opts.Dialect {
	case SQLite:
		return "sqlite", opts.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", nil
	case Postgres:
		port := opts.Port
		if port == 0 {
			port = 5432
		}
		sslMode := opts.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return "postgres", fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			opts.Host, port, opts.Username, opts.Password, opts.Database, sslMode,
		), nil
	case MySQL:
		port := opts.Port
		if port == 0 {
			port = 3306
		}
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
			opts.Username, opts.Password, opts.Host, port, opts.Database,
		)
		if opts.SSLMode == "require" {
			dsn += "&tls=true"
		}
		return "mysql", dsn, nil
	}
	return "", "", fmt.Errorf("unsupported sql dialect %q", opts.Dialect)
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) Dialect() Dialect {
	return db.dialect
}

// q rewrites ? placeholders to $n for postgres.
func (db *DB) q(query string) string {
	if db.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (db *DB) migrate() error {
	types := map[Dialect]*strings.Replacer{
		SQLite:   strings.NewReplacer("{id}", "TEXT", "{text}", "TEXT", "{ts}", "DATETIME", "{ine}", "IF NOT EXISTS "),
		Postgres: strings.NewReplacer("{id}", "TEXT", "{text}", "TEXT", "{ts}", "TIMESTAMPTZ", "{ine}", "IF NOT EXISTS "),
		MySQL:    strings.NewReplacer("{id}", "VARCHAR(64)", "{text}", "LONGTEXT", "{ts}", "DATETIME(6)", "{ine}", ""),
	}[db.dialect]

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id {id} PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			created_at {ts} NOT NULL,
			updated_at {ts} NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS pages (
			id {id} PRIMARY KEY,
			project_id {id} NOT NULL REFERENCES projects(id),
			name VARCHAR(255) NOT NULL,
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at {ts} NOT NULL,
			updated_at {ts} NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS blocks (
			id {id} PRIMARY KEY,
			page_id {id} NOT NULL REFERENCES pages(id),
			type VARCHAR(32) NOT NULL,
			sort_order INTEGER NOT NULL DEFAULT 0,
			content_json {text} NOT NULL,
			created_at {ts} NOT NULL,
			updated_at {ts} NOT NULL
		)`,
		`CREATE INDEX {ine}idx_pages_project ON pages(project_id)`,
		`CREATE INDEX {ine}idx_blocks_page ON blocks(page_id, sort_order)`,
		// Pending approvals of destructive MCP calls, shared with the standalone server process.
		`CREATE TABLE IF NOT EXISTS mcp_approvals (
			id {id} PRIMARY KEY,
			tool VARCHAR(64) NOT NULL,
			description {text} NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'pending',
			metadata {text} NOT NULL,
			created_at {ts} NOT NULL
		)`,
	}

	for _, m := range migrations {
		stmt := types.Replace(m)
		if _, err := db.conn.Exec(stmt); err != nil {
			if alreadyApplied(err) {
				continue
			}
			return fmt.Errorf("migration failed: %s: %w", stmt[:40], err)
		}
	}

	return nil
}

// alreadyApplied matches the errors a re-run migration produces on dialects
// without IF NOT EXISTS for that statement.
func alreadyApplied(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "duplicate column") ||
		strings.Contains(msg, "Duplicate key name") ||
		strings.Contains(msg, "already exists")
}
