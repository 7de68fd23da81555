package backend

import "errors"

// Sentinel error kinds returned by the backend client. Callers match them
// with errors.Is; the wrapped message carries the operation and status.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
	ErrUpstream     = errors.New("upstream error")
	ErrNoBaseURL    = errors.New("backend base url is empty")
	ErrEmptyID      = errors.New("intern id is empty")
)
