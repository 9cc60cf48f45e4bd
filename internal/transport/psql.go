package transport

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// psqlPreamble makes query output machine-readable: unaligned, no headers.
const psqlPreamble = "\\pset format unaligned\n\\pset tuples_only on\n"

// Psql shells out to the psql client, the same way operators run migrations
// by hand. Each call is a short-lived subprocess.
type Psql struct {
	databaseURL string
	binary      string
}

// NewPsql locates the psql binary and returns a Psql transport.
// A missing binary is reported as ErrUnavailable before any SQL is attempted.
func NewPsql(databaseURL string) (*Psql, error) {
	binary, err := exec.LookPath("psql")
	if err != nil {
		return nil, fmt.Errorf("%w: psql not found in PATH: %w", ErrUnavailable, err)
	}

	return &Psql{databaseURL: databaseURL, binary: binary}, nil
}

// Exec writes sql to a temp file with the unaligned/tuples-only preamble,
// runs it through psql, and parses stdout into rows of pipe-separated fields.
func (p *Psql) Exec(ctx context.Context, sql string) (Rows, error) {
	f, err := os.CreateTemp("", "migrate-*.sql")
	if err != nil {
		return nil, fmt.Errorf("creating temp script: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.WriteString(psqlPreamble + sql); err != nil {
		f.Close()

		return nil, fmt.Errorf("writing temp script: %w", err)
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("writing temp script: %w", err)
	}

	stdout, err := p.run(ctx, f.Name())
	if err != nil {
		return nil, err
	}

	return parseUnaligned(stdout), nil
}

// ExecFile runs the script at path verbatim.
func (p *Psql) ExecFile(ctx context.Context, path string) error {
	_, err := p.run(ctx, path)

	return err
}

// Close is a no-op; each call spawns and reaps its own subprocess.
func (p *Psql) Close() {}

// run invokes psql on a script file. psql exits zero even when individual
// statements fail (without ON_ERROR_STOP), so stderr is also scanned for
// ERROR lines; notices and warnings pass through.
func (p *Psql) run(ctx context.Context, path string) (string, error) {
	cmd := exec.CommandContext(ctx, p.binary, p.databaseURL, "--no-psqlrc", "-q", "-f", path)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %s", ErrExec, msg)
		}

		return "", fmt.Errorf("%w: %w", ErrExec, err)
	}

	if hasErrorLine(stderr.String()) {
		return "", fmt.Errorf("%w: %s", ErrExec, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}

// hasErrorLine reports whether any stderr line carries a true error.
func hasErrorLine(stderr string) bool {
	for _, line := range strings.Split(stderr, "\n") {
		if strings.Contains(line, "ERROR") {
			return true
		}
	}

	return false
}

// parseUnaligned splits psql's unaligned tuples-only output into rows of
// pipe-separated fields. Empty output yields nil.
func parseUnaligned(out string) Rows {
	out = strings.TrimRight(out, "\n")
	if out == "" {
		return nil
	}

	lines := strings.Split(out, "\n")
	rows := make(Rows, len(lines))

	for i, line := range lines {
		rows[i] = strings.Split(line, "|")
	}

	return rows
}
