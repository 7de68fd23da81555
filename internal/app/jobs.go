package service

import (
	"context"
	"sync"

	"github.com/okian/internboard/internal/domain/model"
)

// jobRegistry keeps LOR job state in memory. When it grows past max, the
// oldest finished jobs are dropped.
type jobRegistry struct {
	mu    sync.RWMutex
	max   int
	jobs  map[string]model.LORJob
	order []string
}

func newJobRegistry(maxJobs int) *jobRegistry {
	if maxJobs < 1 {
		maxJobs = 10_000
	}
	return &jobRegistry{max: maxJobs, jobs: make(map[string]model.LORJob)}
}

// Update implements worker.Tracker.
func (r *jobRegistry) Update(_ context.Context, job model.LORJob) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; !ok {
		r.order = append(r.order, job.ID)
	}
	r.jobs[job.ID] = job
	r.prune()
}

func (r *jobRegistry) Get(id string) (model.LORJob, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	return job, ok
}

func (r *jobRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
}

// Counts returns the number of jobs per status.
func (r *jobRegistry) Counts() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := map[string]int{}
	for _, j := range r.jobs {
		out[string(j.Status)]++
	}
	return out
}

// prune drops finished jobs oldest first, and ids already removed.
func (r *jobRegistry) prune() {
	if len(r.order) <= r.max {
		return
	}
	kept := r.order[:0]
	excess := len(r.order) - r.max
	for _, id := range r.order {
		job, ok := r.jobs[id]
		if !ok {
			excess--
			continue
		}
		if excess > 0 && job.Status.Done() {
			delete(r.jobs, id)
			excess--
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
}
