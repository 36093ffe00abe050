// Package sqlite provides the embedded SQLite-backed Store used for local runs.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/mshayan3/vlrscrape/internal/store"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

func init() {
	sqlx.BindDriver(DriverName, sqlx.QUESTION)
}

// Config controls the SQLite database.
type Config struct {
	DSN         string
	BusyTimeout time.Duration
}

// Store writes the dataset into a single SQLite file.
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the database described by cfg.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, errors.New("store.dsn is required")
	}
	db, err := sqlx.Open(DriverName, withPragmas(cfg.DSN, cfg.BusyTimeout))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing handle (primarily for testing).
func NewWithDB(db *sqlx.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	return &Store{db: db}, nil
}

func withPragmas(dsn string, busy time.Duration) string {
	if busy <= 0 {
		busy = 5 * time.Second
	}
	var pragmas []string
	if !strings.Contains(dsn, "foreign_keys") {
		pragmas = append(pragmas, "_pragma=foreign_keys(1)")
	}
	if !strings.Contains(dsn, "busy_timeout") {
		pragmas = append(pragmas, fmt.Sprintf("_pragma=busy_timeout(%d)", busy.Milliseconds()))
	}
	if len(pragmas) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(pragmas, "&")
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Migrate creates missing tables.
func (s *Store) Migrate(ctx context.Context) error {
	for i, stmt := range store.SchemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table %s: %w", store.Tables[i], err)
		}
	}
	return nil
}

// Begin opens a write transaction.
func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin sqlite tx: %w", err)
	}
	return store.NewTx(&conn{tx: tx}), nil
}

// Query runs a validated SELECT on a connection switched to query_only.
func (s *Store) Query(ctx context.Context, query string) (store.Result, error) {
	q, err := store.ValidateReadOnly(query)
	if err != nil {
		return store.Result{}, err
	}
	c, err := s.db.Connx(ctx)
	if err != nil {
		return store.Result{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer c.Close()

	if _, err := c.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
		return store.Result{}, fmt.Errorf("enable query_only: %w", err)
	}
	defer func() {
		_, _ = c.ExecContext(context.WithoutCancel(ctx), "PRAGMA query_only = OFF")
	}()

	rows, err := c.QueryxContext(ctx, q)
	if err != nil {
		return store.Result{}, fmt.Errorf("run query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return store.Result{}, fmt.Errorf("read columns: %w", err)
	}
	result := store.Result{Columns: cols}
	for rows.Next() {
		row := make(map[string]any, len(cols))
		if err := rows.MapScan(row); err != nil {
			return store.Result{}, fmt.Errorf("read row: %w", err)
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return store.Result{}, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

type conn struct {
	tx *sqlx.Tx
}

func (c *conn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := c.tx.ExecContext(ctx, c.tx.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (c *conn) Commit(context.Context) error {
	return c.tx.Commit()
}

func (c *conn) Rollback(context.Context) error {
	err := c.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}
