// Package repository holds transient copies of backend state for the dashboard.
package repository

import (
	"context"
	"time"

	"github.com/okian/internboard/internal/domain/model"
)

// Store keeps the last fetched roster for a bounded time.
type Store interface {
	// Replace publishes a freshly fetched roster.
	Replace(ctx context.Context, interns []model.Intern)

	// Generation identifies the current store state. Every write moves it
	// forward. Read it before fetching and pass it to ReplaceIfGeneration.
	Generation(ctx context.Context) uint64

	// ReplaceIfGeneration publishes interns only when no write happened
	// since gen was read. It reports whether the roster was published.
	ReplaceIfGeneration(ctx context.Context, gen uint64, interns []model.Intern) bool

	// List returns the roster and whether it is still fresh. A stale or
	// missing roster returns (nil, false).
	List(ctx context.Context) ([]model.Intern, bool)

	// Get returns one intern from a fresh roster.
	// Returns ErrNotFound when absent and ErrStale when there is no fresh roster.
	Get(ctx context.Context, id string) (model.Intern, error)

	// Upsert updates or adds one intern in the current roster, if any.
	Upsert(ctx context.Context, in model.Intern)

	// Remove drops one intern from the current roster, if any.
	Remove(ctx context.Context, id string)

	// Invalidate forces the next List to miss.
	Invalidate(ctx context.Context)

	// Count returns the number of interns in the current roster.
	Count(ctx context.Context) int

	// FetchedAt reports when the current roster was published.
	FetchedAt(ctx context.Context) (time.Time, bool)
}
