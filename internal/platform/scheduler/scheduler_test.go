package scheduler

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bierschi/comunioscore/internal/platform/logging"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s := New(logging.NewNop())
	t.Cleanup(s.Close)
	return s
}

func TestScheduler_FiresInDeadlineOrder(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)

	// Deadlines are spread far enough apart that each dispatch tick
	// launches a single task; simultaneous deadlines carry no ordering
	// guarantee.
	const taskCount = 10
	base := time.Now().Add(50 * time.Millisecond)

	var mu sync.Mutex
	var fired []int
	done := make(chan struct{})

	for _, offset := range rand.Perm(taskCount) {
		idx := offset
		s.Schedule(func(...any) {
			mu.Lock()
			fired = append(fired, idx)
			if len(fired) == taskCount {
				close(done)
			}
			mu.Unlock()
		}, base.Add(time.Duration(offset)*30*time.Millisecond))
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for tasks to fire")
	}

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(fired); i++ {
		if fired[i] < fired[i-1] {
			t.Fatalf("tasks fired out of deadline order: %v", fired)
		}
	}
}

func TestScheduler_CancelledTaskNeverRuns(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)

	var cancelledRuns atomic.Int32
	fired := make(chan struct{})

	task := s.Schedule(func(...any) {
		cancelledRuns.Add(1)
	}, time.Now().Add(30*time.Millisecond))
	s.Cancel(task)

	// A later sentinel task proves the dispatch loop passed the cancelled one.
	s.Schedule(func(...any) {
		close(fired)
	}, time.Now().Add(60*time.Millisecond))

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for sentinel task")
	}

	if got := cancelledRuns.Load(); got != 0 {
		t.Fatalf("cancelled task executed %d times", got)
	}
	if !task.Cancelled() {
		t.Fatal("task handle should report cancelled")
	}
}

func TestScheduler_PastDeadlineFiresImmediately(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)

	fired := make(chan struct{})
	s.Schedule(func(...any) { close(fired) }, time.Now().Add(-time.Hour))

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("task with past deadline never fired")
	}
}

func TestScheduler_EarlierTaskInterruptsWait(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)

	// Park the dispatch loop on a far-away deadline, then schedule an
	// earlier task; it must fire without waiting for the first deadline.
	far := s.Schedule(func(...any) {}, time.Now().Add(time.Hour))
	defer s.Cancel(far)

	fired := make(chan struct{})
	start := time.Now()
	s.Schedule(func(...any) { close(fired) }, time.Now().Add(20*time.Millisecond))

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("earlier task did not interrupt the dispatch wait")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("earlier task fired too late: %v", elapsed)
	}
}

func TestScheduler_PanicDoesNotKillDispatchLoop(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)

	s.Schedule(func(...any) { panic("boom") }, time.Now())

	fired := make(chan struct{})
	s.Schedule(func(...any) { close(fired) }, time.Now().Add(30*time.Millisecond))

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatch loop stopped after task panic")
	}
}

func TestScheduler_PendingCountAndArgs(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)

	due := time.Now().Add(time.Hour)
	s.Schedule(func(...any) {}, due, 1, int64(42), "home", "away")
	task := s.Schedule(func(...any) {}, due.Add(time.Minute))

	if got := s.PendingCount(); got != 2 {
		t.Fatalf("pending count: got=%d want=2", got)
	}
	if s.IsEmpty() {
		t.Fatal("scheduler should not be empty")
	}

	s.Cancel(task)
	if got := s.PendingCount(); got != 1 {
		t.Fatalf("pending count after cancel: got=%d want=1", got)
	}

	pending := s.Pending()
	if len(pending) != 1 {
		t.Fatalf("pending snapshot: got=%d want=1", len(pending))
	}
	args := pending[0].Args()
	if len(args) != 4 || args[1] != int64(42) {
		t.Fatalf("unexpected task args: %v", args)
	}
}

func TestScheduler_DiscardHookRunsAfterCancelSweep(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)

	discarded := make(chan struct{})
	task := s.Schedule(func(...any) {
		t.Error("cancelled task executed")
	}, time.Now().Add(time.Hour))
	task.OnDiscard(func() { close(discarded) })

	s.Cancel(task)

	select {
	case <-discarded:
	case <-time.After(5 * time.Second):
		t.Fatal("discard hook never ran")
	}
	if got := s.PendingCount(); got != 0 {
		t.Fatalf("pending after sweep: %d", got)
	}
}

func TestScheduler_DiscardHookSkippedWhenTaskFires(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)

	var discards atomic.Int32
	fired := make(chan struct{})
	task := s.Schedule(func(...any) {
		close(fired)
	}, time.Now().Add(20*time.Millisecond))
	task.OnDiscard(func() { discards.Add(1) })

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("task never fired")
	}

	// Another dispatch cycle gives a stray hook the chance to surface.
	sentinel := make(chan struct{})
	s.Schedule(func(...any) { close(sentinel) }, time.Now().Add(30*time.Millisecond))
	select {
	case <-sentinel:
	case <-time.After(5 * time.Second):
		t.Fatal("sentinel never fired")
	}

	if got := discards.Load(); got != 0 {
		t.Fatalf("discard hook ran %d times for a fired task", got)
	}
}
