package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentbase/migration-runner/internal/catalog"
	"github.com/agentbase/migration-runner/internal/config"
	"github.com/agentbase/migration-runner/internal/history"
	"github.com/agentbase/migration-runner/internal/reconciler"
	"github.com/agentbase/migration-runner/internal/transport"
)

var upCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "up",
	Short: "Apply pending migrations",
	Long: `Apply every migration script not yet recorded as applied, in filename
order, stopping at the first failure.

On the first run against a database that already has a schema but no history
table, all scripts except the newest are seeded as already applied. Scripts
must be written as idempotent DDL (CREATE TABLE IF NOT EXISTS and similar)
because the newest script may re-execute.`,
	RunE: runUp,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for command registration
	rootCmd.AddCommand(upCmd)
}

func runUp(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig
	out := cmd.OutOrStdout()

	if err := cfg.Validate(); err != nil {
		return err
	}

	scripts, err := catalog.List(cfg.MigrationsDir)
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	if len(scripts) == 0 {
		fmt.Fprintln(out, "No migration files found.")
		return nil
	}

	fmt.Fprintf(out, "Found %d migration file(s).\n", len(scripts))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	slog.Debug("connecting",
		"transport", cfg.Transport,
		"target", config.RedactURL(cfg.DatabaseURL),
	)

	tp, err := transport.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer tp.Close()

	summary, err := reconcile(ctx, out, tp, cfg, scripts)
	if err != nil {
		return err
	}

	switch {
	case summary.Applied == 0:
		fmt.Fprintln(out, "All migrations already applied. Nothing to do.")
	default:
		fmt.Fprintf(out, "\nApply complete: %d applied, %d already applied.\n",
			summary.Applied, summary.Skipped)
	}

	return nil
}

func reconcile(
	ctx context.Context,
	out io.Writer,
	tp transport.Transport,
	cfg *config.Config,
	scripts []catalog.Script,
) (reconciler.Summary, error) {
	store := history.New(tp, cfg.HistoryTable)
	applier := reconciler.NewApplier(tp, store)

	rec := reconciler.New(store, applier,
		reconciler.WithProbe(reconciler.TableProbe(tp, cfg.BootstrapTable)),
		reconciler.WithProgressCallback(func(event reconciler.Event) {
			switch event.Status {
			case reconciler.StatusSeeded:
				fmt.Fprintf(out, "  Seeded %s as already applied.\n", event.Script.Name)
			case reconciler.StatusStarting:
				fmt.Fprintf(out, "  Applying %s ... ", event.Script.Name)
			case reconciler.StatusCompleted:
				fmt.Fprintf(out, "done (%s)\n", event.Duration.Truncate(time.Millisecond))
			case reconciler.StatusFailed:
				fmt.Fprintf(out, "FAILED\n")
				fmt.Fprintf(out, "    Error: %v\n", event.Err)
			}
		}),
	)

	return rec.Run(ctx, scripts)
}
