package repository

import "errors"

// Sentinel kinds for roster store errors.
var (
	ErrNotFound = errors.New("intern not found in roster")
	ErrStale    = errors.New("roster snapshot is stale")
)
