package sink

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultTable = "classifications"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresConfig controls the Postgres connection pool used for the mirror.
type PostgresConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// PostgresAppender mirrors classifications into a Postgres table.
type PostgresAppender struct {
	pool  execCloser
	table string
}

// NewPostgresAppender connects a pool using cfg.
func NewPostgresAppender(ctx context.Context, cfg PostgresConfig) (*PostgresAppender, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresAppender{pool: pool, table: table}, nil
}

// NewPostgresAppenderWithPool wraps an existing pool (primarily for testing).
func NewPostgresAppenderWithPool(pool execCloser, table string) (*PostgresAppender, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &PostgresAppender{pool: pool, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// EnsureTable creates the mirror table when it does not exist.
func (a *PostgresAppender) EnsureTable(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	run_id text NOT NULL,
	domain text NOT NULL,
	category text NOT NULL,
	recorded_at timestamptz NOT NULL
)`, a.table)
	if _, err := a.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", a.table, err)
	}
	return nil
}

// Append inserts one classification row.
func (a *PostgresAppender) Append(ctx context.Context, rec Record) error {
	query := fmt.Sprintf(`
INSERT INTO %s (
	run_id,
	domain,
	category,
	recorded_at
) VALUES (
	$1,$2,$3,$4
)`, a.table)
	if _, err := a.pool.Exec(ctx, query, rec.RunID, rec.Domain.String(), string(rec.Category), rec.RecordedAt); err != nil {
		return fmt.Errorf("insert classification: %w", err)
	}
	return nil
}

// Close releases the pool.
func (a *PostgresAppender) Close(context.Context) error {
	if a == nil || a.pool == nil {
		return nil
	}
	a.pool.Close()
	return nil
}
