package reconciler

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentbase/migration-runner/internal/transport"
)

// SQLExecutor is the query slice of the Transport the probe needs.
type SQLExecutor interface {
	Exec(ctx context.Context, sql string) (transport.Rows, error)
}

// TableProbe returns a ProbeFunc that checks for a table in the public
// schema. The table acts as the bootstrap marker: its presence means the
// schema predates migration tracking and history should be seeded.
func TableProbe(exec SQLExecutor, table string) ProbeFunc {
	return func(ctx context.Context) (bool, error) {
		sql := fmt.Sprintf(
			"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = 'public' AND table_name = '%s'",
			strings.ReplaceAll(table, "'", "''"),
		)

		rows, err := exec.Exec(ctx, sql)
		if err != nil {
			return false, fmt.Errorf("checking for table %s: %w", table, err)
		}

		if len(rows) == 0 || len(rows[0]) == 0 {
			return false, nil
		}

		return strings.TrimSpace(rows[0][0]) == "1", nil
	}
}
