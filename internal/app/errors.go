package service

import (
	"errors"
	"sort"
	"strings"
)

// Sentinel error kinds for the service.
var (
	ErrNotStarted    = errors.New("service not started")
	ErrNoBackend     = errors.New("no backend configured")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidAction = errors.New("invalid lor action")
	ErrNotEligible   = errors.New("intern not eligible")
	ErrBackpressure  = errors.New("backpressure")
	ErrJobNotFound   = errors.New("lor job not found")
)

// ValidationError lists per-field problems of a form. It matches
// ErrInvalidInput with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }
