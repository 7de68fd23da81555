package repository

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/internboard/internal/domain/model"
	"github.com/okian/internboard/pkg/metrics"
)

// Snapshot is an immutable roster copy. Readers never see partial writes.
type Snapshot struct {
	Interns   []model.Intern
	byID      map[string]int
	FetchedAt time.Time
}

func newSnapshot(interns []model.Intern, at time.Time) *Snapshot {
	s := &Snapshot{
		Interns:   interns,
		byID:      make(map[string]int, len(interns)),
		FetchedAt: at,
	}
	for i := range interns {
		s.byID[interns[i].ID] = i
	}
	return s
}

// SnapshotStore is the in-memory Store. Writers build a new Snapshot under mu
// and publish it with an atomic swap. gen counts writes so a fetch that
// started before an invalidation or an upsert cannot publish older data.
type SnapshotStore struct {
	mu       sync.Mutex
	gen      uint64
	snapshot atomic.Pointer[Snapshot]

	ttl                   time.Duration
	metricsUpdateInterval time.Duration
	now                   func() time.Time

	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewSnapshotStore constructs a roster store and starts its metrics updater.
func NewSnapshotStore(ctx context.Context, opts ...Option) *SnapshotStore {
	s := &SnapshotStore{
		ttl:                   30 * time.Second,
		metricsUpdateInterval: 5 * time.Second,
		now:                   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.stopChan = make(chan struct{})
	s.startMetricsUpdater(ctx)
	return s
}

// TTL returns the freshness window.
func (s *SnapshotStore) TTL() time.Duration { return s.ttl }

// Close stops the metrics updater.
func (s *SnapshotStore) Close() error {
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

func (s *SnapshotStore) fresh() *Snapshot {
	snap := s.snapshot.Load()
	if snap == nil || s.now().Sub(snap.FetchedAt) >= s.ttl {
		return nil
	}
	return snap
}

// Replace implements Store.Replace.
func (s *SnapshotStore) Replace(_ context.Context, interns []model.Intern) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publish(interns)
}

// Generation implements Store.Generation.
func (s *SnapshotStore) Generation(_ context.Context) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// ReplaceIfGeneration implements Store.ReplaceIfGeneration.
func (s *SnapshotStore) ReplaceIfGeneration(_ context.Context, gen uint64, interns []model.Intern) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.publish(interns)
	return true
}

// publish must be called with mu held.
func (s *SnapshotStore) publish(interns []model.Intern) {
	s.gen++
	s.snapshot.Store(newSnapshot(slices.Clone(interns), s.now()))
	metrics.UpdateRosterSize(len(interns))
}

// List implements Store.List.
func (s *SnapshotStore) List(_ context.Context) ([]model.Intern, bool) {
	snap := s.fresh()
	if snap == nil {
		metrics.RecordRosterCache(false)
		return nil, false
	}
	metrics.RecordRosterCache(true)
	return slices.Clone(snap.Interns), true
}

// Get implements Store.Get.
func (s *SnapshotStore) Get(_ context.Context, id string) (model.Intern, error) {
	snap := s.fresh()
	if snap == nil {
		return model.Intern{}, ErrStale
	}
	i, ok := snap.byID[id]
	if !ok {
		return model.Intern{}, ErrNotFound
	}
	return snap.Interns[i], nil
}

// Upsert implements Store.Upsert. The freshness window is not extended.
// A write with no roster cached still moves the generation, so a fetch in
// flight cannot publish over it.
func (s *SnapshotStore) Upsert(_ context.Context, in model.Intern) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	snap := s.snapshot.Load()
	if snap == nil {
		return
	}
	interns := slices.Clone(snap.Interns)
	if i, ok := snap.byID[in.ID]; ok {
		interns[i] = in
	} else {
		interns = append(interns, in)
	}
	s.snapshot.Store(newSnapshot(interns, snap.FetchedAt))
}

// Remove implements Store.Remove.
func (s *SnapshotStore) Remove(_ context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	snap := s.snapshot.Load()
	if snap == nil {
		return
	}
	i, ok := snap.byID[id]
	if !ok {
		return
	}
	interns := slices.Delete(slices.Clone(snap.Interns), i, i+1)
	s.snapshot.Store(newSnapshot(interns, snap.FetchedAt))
}

// Invalidate implements Store.Invalidate.
func (s *SnapshotStore) Invalidate(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.snapshot.Store(nil)
}

// Count implements Store.Count.
func (s *SnapshotStore) Count(_ context.Context) int {
	if snap := s.snapshot.Load(); snap != nil {
		return len(snap.Interns)
	}
	return 0
}

// FetchedAt implements Store.FetchedAt.
func (s *SnapshotStore) FetchedAt(_ context.Context) (time.Time, bool) {
	if snap := s.snapshot.Load(); snap != nil {
		return snap.FetchedAt, true
	}
	return time.Time{}, false
}

// startMetricsUpdater periodically republishes the roster size gauge.
func (s *SnapshotStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateRosterSize(s.Count(ctx))
			}
		}
	}()
}

var _ Store = (*SnapshotStore)(nil)
