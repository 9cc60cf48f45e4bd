package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentbase/migration-runner/internal/catalog"
	"github.com/agentbase/migration-runner/internal/history"
	"github.com/agentbase/migration-runner/internal/transport"
)

var statusCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "status",
	Short: "Show migration status",
	Long: `Display every migration script in the catalog with whether and when it
was applied.`,
	RunE: runStatus,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for command registration
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig
	out := cmd.OutOrStdout()

	if err := cfg.Validate(); err != nil {
		return err
	}

	scripts, err := catalog.List(cfg.MigrationsDir)
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	tp, err := transport.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer tp.Close()

	store := history.New(tp, cfg.HistoryTable)

	if err := store.EnsureTable(ctx); err != nil {
		return err
	}

	appliedAt, err := store.AppliedAt(ctx)
	if err != nil {
		return err
	}

	data := make([][]string, 0, len(scripts))
	pending := 0

	for _, script := range scripts {
		if ts, ok := appliedAt[script.Name]; ok {
			data = append(data, []string{script.Name, "applied", ts})
		} else {
			data = append(data, []string{script.Name, "pending", ""})
			pending++
		}
	}

	if len(data) > 0 {
		if err := renderTable([]string{"FILE", "STATUS", "APPLIED AT"}, data, out); err != nil {
			return fmt.Errorf("rendering status table: %w", err)
		}
	}

	fmt.Fprintf(out, "\n%d applied, %d pending.\n", len(scripts)-pending, pending)

	return nil
}
