// Package transport provides the SQL execution capability behind the
// migration runner. Three interchangeable strategies reach the database:
// shelling out to the psql client, a direct pgx driver connection, and a
// remote HTTP query API. Callers select one via configuration and treat
// them uniformly.
package transport

import (
	"context"
	"fmt"

	"github.com/agentbase/migration-runner/internal/config"
)

// Rows is tabular query output: ordered rows of string fields.
type Rows [][]string

// Transport executes SQL against the target database.
type Transport interface {
	// Exec runs sql and returns its result rows.
	Exec(ctx context.Context, sql string) (Rows, error)
	// ExecFile runs the script at path verbatim.
	ExecFile(ctx context.Context, path string) error
	// Close releases any underlying resources.
	Close()
}

// New constructs the Transport variant selected by cfg.Transport.
func New(ctx context.Context, cfg *config.Config) (Transport, error) {
	switch cfg.Transport {
	case config.TransportPsql:
		return NewPsql(cfg.DatabaseURL)
	case config.TransportDirect:
		return NewDirect(ctx, cfg.DatabaseURL, DirectOptions{
			PreferIPv4:     cfg.PreferIPv4,
			ConnectTimeout: cfg.ConnectTimeout,
		})
	case config.TransportHTTP:
		return NewHTTP(cfg.HTTPEndpoint, cfg.HTTPToken), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownTransport, cfg.Transport)
	}
}
