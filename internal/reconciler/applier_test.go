package reconciler_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentbase/migration-runner/internal/catalog"
	"github.com/agentbase/migration-runner/internal/reconciler"
)

// mockRunner implements reconciler.ScriptRunner.
type mockRunner struct {
	executed []string
	err      error
}

func (m *mockRunner) ExecFile(_ context.Context, path string) error {
	if m.err != nil {
		return m.err
	}

	m.executed = append(m.executed, path)

	return nil
}

// mockRecorder implements reconciler.Recorder.
type mockRecorder struct {
	recorded []string
	err      error
}

func (m *mockRecorder) Record(_ context.Context, filename string) error {
	if m.err != nil {
		return m.err
	}

	m.recorded = append(m.recorded, filename)

	return nil
}

func TestApply_executesThenRecords(t *testing.T) {
	t.Parallel()

	runner := &mockRunner{}
	recorder := &mockRecorder{}
	applier := reconciler.NewApplier(runner, recorder)

	err := applier.Apply(context.Background(), catalog.Script{
		Name: "001_a.sql",
		Path: "migrations/001_a.sql",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"migrations/001_a.sql"}, runner.executed)
	assert.Equal(t, []string{"001_a.sql"}, recorder.recorded)
}

func TestApply_executionFails_nothingRecorded(t *testing.T) {
	t.Parallel()

	execErr := errors.New("syntax error")
	runner := &mockRunner{err: execErr}
	recorder := &mockRecorder{}
	applier := reconciler.NewApplier(runner, recorder)

	err := applier.Apply(context.Background(), catalog.Script{Name: "001_a.sql"})

	require.ErrorIs(t, err, execErr)
	assert.Contains(t, err.Error(), "executing migration 001_a.sql")
	assert.Empty(t, recorder.recorded)
}

func TestApply_recordFails_returnsError(t *testing.T) {
	t.Parallel()

	recordErr := errors.New("connection dropped")
	runner := &mockRunner{}
	recorder := &mockRecorder{err: recordErr}
	applier := reconciler.NewApplier(runner, recorder)

	err := applier.Apply(context.Background(), catalog.Script{
		Name: "001_a.sql",
		Path: "migrations/001_a.sql",
	})

	require.ErrorIs(t, err, recordErr)
	assert.Contains(t, err.Error(), "recording migration 001_a.sql")
	// The script did execute; only the record write was lost. The next run
	// re-executes it, which is the documented contract.
	assert.Equal(t, []string{"migrations/001_a.sql"}, runner.executed)
}
