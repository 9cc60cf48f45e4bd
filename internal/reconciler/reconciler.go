// Package reconciler holds the migration-state reconciliation engine: it
// compares the catalog of scripts on disk to the history table, performs the
// one-time seeding of untracked schemas, and drives sequential application
// of whatever is pending.
package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/agentbase/migration-runner/internal/catalog"
)

// Progress status constants reported via Event.
const (
	StatusSeeded    = "seeded"
	StatusStarting  = "starting"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Event is emitted for each script processed.
type Event struct {
	Script   catalog.Script
	Status   string
	Duration time.Duration
	Err      error
}

// HistoryStore abstracts the migration history table for testability.
type HistoryStore interface {
	EnsureTable(ctx context.Context) error
	Applied(ctx context.Context) (map[string]struct{}, error)
	Record(ctx context.Context, filename string) error
	RecordAll(ctx context.Context, filenames []string) error
}

// ScriptApplier applies one pending script.
type ScriptApplier interface {
	Apply(ctx context.Context, script catalog.Script) error
}

// ProbeFunc reports whether the target schema pre-exists. It gates the
// one-time seeding of history records and is only consulted when the
// history table is empty.
type ProbeFunc func(ctx context.Context) (bool, error)

// Summary describes the outcome of a reconciliation run.
type Summary struct {
	Total   int // scripts in the catalog
	Seeded  int // history records backfilled this run
	Applied int // scripts executed this run
	Skipped int // scripts already recorded before this run
}

// Reconciler decides which scripts are pending and drives their application
// in catalog order, stopping at the first failure.
type Reconciler struct {
	history    HistoryStore
	applier    ScriptApplier
	probe      ProbeFunc
	onProgress func(Event)
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithProbe sets the pre-existing-schema predicate used to gate seeding.
// Without one, every database is treated as fresh and nothing is seeded.
func WithProbe(p ProbeFunc) Option {
	return func(r *Reconciler) { r.probe = p }
}

// WithProgressCallback sets a function called for each script processed.
func WithProgressCallback(fn func(Event)) Option {
	return func(r *Reconciler) { r.onProgress = fn }
}

// New creates a Reconciler over the given history store and applier.
func New(history HistoryStore, applier ScriptApplier, opts ...Option) *Reconciler {
	r := &Reconciler{
		history: history,
		applier: applier,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.probe == nil {
		r.probe = func(context.Context) (bool, error) { return false, nil }
	}

	return r
}

// Run reconciles the catalog against the history table and applies every
// pending script in order. The returned Summary is valid even on error;
// records written before a failure stay intact.
func (r *Reconciler) Run(ctx context.Context, scripts []catalog.Script) (Summary, error) {
	sum := Summary{Total: len(scripts)}

	if err := r.history.EnsureTable(ctx); err != nil {
		return sum, err
	}

	applied, err := r.history.Applied(ctx)
	if err != nil {
		return sum, err
	}

	// Seeding is strictly a first-run operation: once any record exists,
	// the history table is authoritative.
	if len(applied) == 0 && len(scripts) > 0 {
		seeded, err := r.maybeSeed(ctx, scripts)
		if err != nil {
			return sum, err
		}

		if seeded > 0 {
			sum.Seeded = seeded

			applied, err = r.history.Applied(ctx)
			if err != nil {
				return sum, err
			}
		}
	}

	for _, script := range scripts {
		if _, ok := applied[script.Name]; ok {
			sum.Skipped++
			continue
		}

		r.fireProgress(Event{Script: script, Status: StatusStarting})

		start := time.Now()

		if err := r.applier.Apply(ctx, script); err != nil {
			r.fireProgress(Event{
				Script:   script,
				Status:   StatusFailed,
				Duration: time.Since(start),
				Err:      err,
			})

			return sum, err
		}

		r.fireProgress(Event{
			Script:   script,
			Status:   StatusCompleted,
			Duration: time.Since(start),
		})

		sum.Applied++
	}

	return sum, nil
}

// maybeSeed backfills history records when the schema pre-exists but history
// is untracked. Every catalog entry except the last is assumed to have been
// run by hand before tracking existed; the last one stays pending and relies
// on scripts being idempotent DDL if it already ran. A one-entry catalog
// seeds nothing and that entry re-runs.
func (r *Reconciler) maybeSeed(ctx context.Context, scripts []catalog.Script) (int, error) {
	present, err := r.probe(ctx)
	if err != nil {
		return 0, fmt.Errorf("probing for existing schema: %w", err)
	}

	if !present {
		return 0, nil
	}

	toSeed := scripts[:len(scripts)-1]
	if len(toSeed) == 0 {
		return 0, nil
	}

	if err := r.history.RecordAll(ctx, catalog.Names(toSeed)); err != nil {
		return 0, fmt.Errorf("seeding migration history: %w", err)
	}

	for _, script := range toSeed {
		r.fireProgress(Event{Script: script, Status: StatusSeeded})
	}

	return len(toSeed), nil
}

func (r *Reconciler) fireProgress(event Event) {
	if r.onProgress != nil {
		r.onProgress(event)
	}
}
