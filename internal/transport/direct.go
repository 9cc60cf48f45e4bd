package transport

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultMaxConns = 5

// DirectOptions tunes the pgx-backed transport.
type DirectOptions struct {
	// PreferIPv4 forces tcp4 dialing. Some hosted databases publish AAAA
	// records for hosts only reachable over IPv4 from CI runners.
	PreferIPv4     bool
	ConnectTimeout time.Duration
}

// Direct executes SQL over a pgx connection pool.
type Direct struct {
	pool *pgxpool.Pool
}

// NewDirect parses the database URL, builds a small connection pool, and
// pings the database to verify connectivity.
func NewDirect(ctx context.Context, databaseURL string, opts DirectOptions) (*Direct, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing database URL: %w", ErrUnavailable, err)
	}

	poolCfg.MaxConns = defaultMaxConns

	if opts.PreferIPv4 {
		dialer := &net.Dialer{Timeout: opts.ConnectTimeout}
		poolCfg.ConnConfig.DialFunc = func(ctx context.Context, _, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, "tcp4", addr)
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return &Direct{pool: pool}, nil
}

// NewDirectFromPool wraps an existing pool. Used by the integration suite.
func NewDirectFromPool(pool *pgxpool.Pool) *Direct {
	return &Direct{pool: pool}
}

// Exec runs sql and renders every result field as a string.
func (d *Direct) Exec(ctx context.Context, sql string) (Rows, error) {
	rows, err := d.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExec, err)
	}
	defer rows.Close()

	var out Rows

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("%w: scanning row: %w", ErrExec, err)
		}

		fields := make([]string, len(values))

		for i, v := range values {
			if v == nil {
				continue // NULL renders as empty string, matching psql
			}

			fields[i] = fmt.Sprint(v)
		}

		out = append(out, fields)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExec, err)
	}

	return out, nil
}

// ExecFile runs the script at path. Scripts containing CREATE INDEX
// CONCURRENTLY cannot run inside a transaction block, so they are executed
// statement by statement on the pool; everything else runs inside a single
// transaction.
func (d *Direct) ExecFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading script %s: %w", path, err)
	}

	script := strings.TrimSpace(string(data))
	if script == "" {
		return nil
	}

	stmts, concurrent, err := splitStatements(script)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExec, err)
	}

	if concurrent {
		for _, stmt := range stmts {
			if _, err := d.pool.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("%w: %w", ErrExec, err)
			}
		}

		return nil
	}

	return d.execInTransaction(ctx, script)
}

// Close closes the underlying pool.
func (d *Direct) Close() {
	d.pool.Close()
}

func (d *Direct) execInTransaction(ctx context.Context, sql string) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", ErrExec, err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit returns ErrTxClosed

	if _, err := tx.Exec(ctx, sql); err != nil {
		return fmt.Errorf("%w: %w", ErrExec, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: committing transaction: %w", ErrExec, err)
	}

	return nil
}
