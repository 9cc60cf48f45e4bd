package history

import "errors"

// ErrTableCreation indicates the tracking table could not be created.
var ErrTableCreation = errors.New("creating migration history table")
