// Package history manages the migration tracking table. One row per applied
// script; rows are never updated or deleted.
package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentbase/migration-runner/internal/transport"
)

// Executor is the query slice of the Transport the store needs.
type Executor interface {
	Exec(ctx context.Context, sql string) (transport.Rows, error)
}

// Store reads and writes the migration history table through a Transport.
type Store struct {
	exec  Executor
	table string
}

// New creates a Store over the given executor. An empty table name falls
// back to _schema_migrations.
func New(exec Executor, table string) *Store {
	if table == "" {
		table = "_schema_migrations"
	}

	return &Store{exec: exec, table: table}
}

// EnsureTable creates the tracking table if it does not exist.
func (s *Store) EnsureTable(ctx context.Context) error {
	if _, err := s.exec.Exec(ctx, fmt.Sprintf(createTableSQL, s.table)); err != nil {
		return fmt.Errorf("%w: %w", ErrTableCreation, err)
	}

	return nil
}

// Applied returns the set of recorded filenames. An empty set is a valid
// steady state on a fresh database.
func (s *Store) Applied(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.exec.Exec(ctx, "SELECT filename FROM "+s.table)
	if err != nil {
		return nil, fmt.Errorf("querying applied migrations: %w", err)
	}

	applied := make(map[string]struct{}, len(rows))

	for _, row := range rows {
		if len(row) == 0 || row[0] == "" {
			continue
		}

		applied[row[0]] = struct{}{}
	}

	return applied, nil
}

// AppliedAt returns filename -> applied_at timestamp for every record.
func (s *Store) AppliedAt(ctx context.Context) (map[string]string, error) {
	rows, err := s.exec.Exec(ctx, "SELECT filename, applied_at FROM "+s.table)
	if err != nil {
		return nil, fmt.Errorf("querying applied migrations: %w", err)
	}

	applied := make(map[string]string, len(rows))

	for _, row := range rows {
		if len(row) < 2 || row[0] == "" {
			continue
		}

		applied[row[0]] = row[1]
	}

	return applied, nil
}

// Record inserts a history record for filename. Inserting the same filename
// twice is a no-op, so a retry after a partial failure cannot duplicate a
// record.
func (s *Store) Record(ctx context.Context, filename string) error {
	sql := fmt.Sprintf(
		"INSERT INTO %s (filename) VALUES (%s) ON CONFLICT (filename) DO NOTHING",
		s.table, quoteLiteral(filename),
	)

	if _, err := s.exec.Exec(ctx, sql); err != nil {
		return fmt.Errorf("recording migration %s: %w", filename, err)
	}

	return nil
}

// RecordAll inserts records for every filename in a single statement.
// Used by seeding, where one round trip covers the whole backfill.
func (s *Store) RecordAll(ctx context.Context, filenames []string) error {
	if len(filenames) == 0 {
		return nil
	}

	values := make([]string, len(filenames))
	for i, f := range filenames {
		values[i] = "(" + quoteLiteral(f) + ")"
	}

	sql := fmt.Sprintf(
		"INSERT INTO %s (filename) VALUES %s ON CONFLICT (filename) DO NOTHING",
		s.table, strings.Join(values, ", "),
	)

	if _, err := s.exec.Exec(ctx, sql); err != nil {
		return fmt.Errorf("seeding %d migration record(s): %w", len(filenames), err)
	}

	return nil
}

// IsEmpty reports whether no record exists yet. Only an empty history table
// permits seeding.
func (s *Store) IsEmpty(ctx context.Context) (bool, error) {
	applied, err := s.Applied(ctx)
	if err != nil {
		return false, err
	}

	return len(applied) == 0, nil
}

// quoteLiteral renders v as a single-quoted SQL literal. The Transport is
// string-based, so parameter binding is not available here.
func quoteLiteral(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}
