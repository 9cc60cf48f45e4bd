package reconciler

import (
	"context"
	"fmt"

	"github.com/agentbase/migration-runner/internal/catalog"
)

// ScriptRunner is the slice of the Transport the applier needs.
type ScriptRunner interface {
	ExecFile(ctx context.Context, path string) error
}

// Recorder is the slice of the history store the applier needs.
type Recorder interface {
	Record(ctx context.Context, filename string) error
}

// Applier executes one pending script and records it. The two steps are
// deliberately not atomic: if the record write is lost, the script re-runs
// on the next invocation, which is safe only for idempotent DDL. That is
// the authoring contract for migration scripts.
type Applier struct {
	runner  ScriptRunner
	history Recorder
}

// NewApplier creates an Applier over the given transport and history store.
func NewApplier(runner ScriptRunner, history Recorder) *Applier {
	return &Applier{runner: runner, history: history}
}

// Apply executes the script and records it as applied. An execution failure
// returns immediately with nothing recorded.
func (a *Applier) Apply(ctx context.Context, script catalog.Script) error {
	if err := a.runner.ExecFile(ctx, script.Path); err != nil {
		return fmt.Errorf("executing migration %s: %w", script.Name, err)
	}

	if err := a.history.Record(ctx, script.Name); err != nil {
		return fmt.Errorf("recording migration %s: %w", script.Name, err)
	}

	return nil
}
