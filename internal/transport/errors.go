package transport

import "errors"

// ErrUnavailable indicates the execution capability itself cannot be reached:
// the psql binary is missing, the connection cannot be established, or the
// HTTP endpoint is unreachable.
var ErrUnavailable = errors.New("transport unavailable")

// ErrExec indicates a SQL statement or script failed to execute.
var ErrExec = errors.New("sql execution failed")
