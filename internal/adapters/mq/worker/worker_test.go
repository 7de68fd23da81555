package worker_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	queue "github.com/okian/internboard/internal/adapters/mq/queue"
	worker "github.com/okian/internboard/internal/adapters/mq/worker"
	model "github.com/okian/internboard/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockQueue struct {
	jobs chan queue.Job
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 10)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Job { return mq.jobs }

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

// mockExecutor fails the first failures[internID] calls for an intern.
type mockExecutor struct {
	mu       sync.Mutex
	failures map[string]int
	err      error
	calls    map[string]int
}

func newMockExecutor() *mockExecutor {
	return &mockExecutor{failures: map[string]int{}, calls: map[string]int{}, err: errors.New("backend down")}
}

func (me *mockExecutor) Execute(_ context.Context, job model.LORJob) error {
	me.mu.Lock()
	defer me.mu.Unlock()
	me.calls[job.InternID]++
	if me.failures[job.InternID] > 0 {
		me.failures[job.InternID]--
		return me.err
	}
	return nil
}

func (me *mockExecutor) callCount(id string) int {
	me.mu.Lock()
	defer me.mu.Unlock()
	return me.calls[id]
}

type mockTracker struct {
	mu      sync.Mutex
	history map[string][]model.LORJob
}

func newMockTracker() *mockTracker {
	return &mockTracker{history: map[string][]model.LORJob{}}
}

func (mt *mockTracker) Update(_ context.Context, job model.LORJob) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.history[job.ID] = append(mt.history[job.ID], job)
}

func (mt *mockTracker) last(id string) (model.LORJob, bool) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	h := mt.history[id]
	if len(h) == 0 {
		return model.LORJob{}, false
	}
	return h[len(h)-1], true
}

func waitDone(mt *mockTracker, id string) model.LORJob {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if j, ok := mt.last(id); ok && j.Status.Done() {
			return j
		}
		time.Sleep(2 * time.Millisecond)
	}
	j, _ := mt.last(id)
	return j
}

func newJob(id, intern string) queue.Job {
	return model.LORJob{ID: id, InternID: intern, Action: model.LORGenerate, Status: model.JobQueued}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		q := newMockQueue()
		exec := newMockExecutor()
		tracker := newMockTracker()
		w := worker.NewInMemoryWorker(q, exec, tracker,
			worker.WithName("test-worker"),
			worker.WithMaxAttempts(3),
			worker.WithBackoff(time.Millisecond))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a job succeeds first time", func() {
			q.jobs <- newJob("j1", "i1")
			got := waitDone(tracker, "j1")

			convey.Convey("Then it is marked succeeded after one attempt", func() {
				convey.So(got.Status, convey.ShouldEqual, model.JobSucceeded)
				convey.So(got.Attempts, convey.ShouldEqual, 1)
				convey.So(got.Error, convey.ShouldBeEmpty)
			})

			convey.Convey("And the tracker saw it running first", func() {
				tracker.mu.Lock()
				first := tracker.history["j1"][0]
				tracker.mu.Unlock()
				convey.So(first.Status, convey.ShouldEqual, model.JobRunning)
			})
		})

		convey.Convey("When a job fails transiently", func() {
			exec.mu.Lock()
			exec.failures["i2"] = 2
			exec.mu.Unlock()
			q.jobs <- newJob("j2", "i2")
			got := waitDone(tracker, "j2")

			convey.Convey("Then it is retried until it succeeds", func() {
				convey.So(got.Status, convey.ShouldEqual, model.JobSucceeded)
				convey.So(got.Attempts, convey.ShouldEqual, 3)
				convey.So(exec.callCount("i2"), convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When a job keeps failing", func() {
			exec.mu.Lock()
			exec.failures["i3"] = 10
			exec.mu.Unlock()
			q.jobs <- newJob("j3", "i3")
			got := waitDone(tracker, "j3")

			convey.Convey("Then it fails after the attempt budget", func() {
				convey.So(got.Status, convey.ShouldEqual, model.JobFailed)
				convey.So(got.Attempts, convey.ShouldEqual, 3)
				convey.So(got.Error, convey.ShouldContainSubstring, "backend down")
			})
		})

		convey.Convey("When shutting down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer shutdownCancel()

			convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given a worker that only retries some errors", t, func() {
		permanent := errors.New("not eligible")
		q := newMockQueue()
		exec := newMockExecutor()
		exec.err = permanent
		exec.failures["i4"] = 5
		tracker := newMockTracker()
		w := worker.NewInMemoryWorker(q, exec, tracker,
			worker.WithBackoff(time.Millisecond),
			worker.WithRetryable(func(err error) bool { return !errors.Is(err, permanent) }))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		q.jobs <- newJob("j4", "i4")
		got := waitDone(tracker, "j4")

		convey.Convey("Then a permanent error fails at once", func() {
			convey.So(got.Status, convey.ShouldEqual, model.JobFailed)
			convey.So(got.Attempts, convey.ShouldEqual, 1)
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool over a real queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		exec := newMockExecutor()
		tracker := newMockTracker()
		pool := worker.NewPool(4, q, exec, tracker, worker.WithBackoff(time.Millisecond))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.So(pool.Size(), convey.ShouldEqual, 4)

		convey.Convey("When many jobs are enqueued", func() {
			ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
			for _, id := range ids {
				convey.So(q.Enqueue(ctx, newJob(id, "intern-"+id)), convey.ShouldBeNil)
			}

			var done atomic.Int32
			for _, id := range ids {
				if waitDone(tracker, id).Status == model.JobSucceeded {
					done.Add(1)
				}
			}

			convey.Convey("Then every job completes", func() {
				convey.So(done.Load(), convey.ShouldEqual, len(ids))
			})

			convey.Convey("And the pool shuts down cleanly", func() {
				convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a non-positive worker count", t, func() {
		pool := worker.NewPool(0, newMockQueue(), newMockExecutor(), newMockTracker())
		convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
	})
}
