// Package scheduler provides a time-ordered, cancelable task queue. A single
// dispatch goroutine sleeps until the earliest deadline and launches each due
// task on its own goroutine. It carries no domain knowledge.
package scheduler

import (
	"container/heap"
	"sync"
	"time"

	"github.com/sourcegraph/conc/panics"

	"github.com/bierschi/comunioscore/internal/platform/logging"
)

// TaskFunc is the callback fired when a task comes due. It receives the
// arguments it was scheduled with.
type TaskFunc func(args ...any)

// Task is a handle to a scheduled unit of work. Cancellation is lazy: a
// cancelled task stays in the queue until it reaches the head and is then
// discarded without running.
type Task struct {
	fn    TaskFunc
	dueAt time.Time
	args  []any
	seq   uint64

	mu        sync.Mutex
	cancelled bool
	discarded bool
	onDiscard func()
}

func (t *Task) DueAt() time.Time { return t.dueAt }

func (t *Task) Args() []any { return t.args }

func (t *Task) Cancel() {
	t.mu.Lock()
	t.cancelled = true
	t.mu.Unlock()
}

func (t *Task) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// OnDiscard registers fn to run once when the dispatch loop sweeps the task
// out of the queue after cancellation. Tasks that fire never run fn. If the
// task was already swept, fn runs immediately on its own goroutine so the
// caller's locks are never held across it.
func (t *Task) OnDiscard(fn func()) {
	t.mu.Lock()
	if t.discarded {
		t.mu.Unlock()
		if fn != nil {
			go fn()
		}
		return
	}
	t.onDiscard = fn
	t.mu.Unlock()
}

// discard marks the task swept and hands back the registered hook.
func (t *Task) discard() func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.discarded = true
	fn := t.onDiscard
	t.onDiscard = nil
	return fn
}

type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].dueAt.Equal(h[j].dueAt) {
		return h[i].seq < h[j].seq
	}
	return h[i].dueAt.Before(h[j].dueAt)
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) { *h = append(*h, x.(*Task)) }

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Scheduler owns the task queue and the dispatch goroutine.
type Scheduler struct {
	mu     sync.Mutex
	tasks  taskHeap
	seq    uint64
	closed bool

	wake chan struct{}
	done chan struct{}

	logger *logging.Logger
	now    func() time.Time
}

func New(logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Default()
	}

	s := &Scheduler{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: logger,
		now:    time.Now,
	}
	go s.run()
	return s
}

// Schedule enqueues fn to run at or after dueAt. Deadlines in the past fire
// on the next dispatch tick. The returned handle can be cancelled until the
// task has been launched.
func (s *Scheduler) Schedule(fn TaskFunc, dueAt time.Time, args ...any) *Task {
	s.mu.Lock()
	s.seq++
	task := &Task{fn: fn, dueAt: dueAt, args: args, seq: s.seq}
	heap.Push(&s.tasks, task)
	s.mu.Unlock()

	s.notify()
	return task
}

// Cancel marks the task so the dispatch loop skips it. Tasks that have
// already been launched are unaffected.
func (s *Scheduler) Cancel(task *Task) {
	if task == nil {
		return
	}
	task.Cancel()
	s.notify()
}

// PendingCount reports tasks waiting in the queue, not counting cancelled
// ones that have yet to be swept out.
func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, task := range s.tasks {
		if !task.Cancelled() {
			count++
		}
	}
	return count
}

func (s *Scheduler) IsEmpty() bool {
	return s.PendingCount() == 0
}

// Pending returns a snapshot of the queued, not-yet-cancelled tasks so
// callers can inspect their arguments.
func (s *Scheduler) Pending() []*Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		if !task.Cancelled() {
			out = append(out, task)
		}
	}
	return out
}

// Close stops the dispatch loop. Queued tasks are abandoned; tasks already
// launched keep running.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	close(s.done)
}

func (s *Scheduler) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) run() {
	for {
		due, discarded, next := s.collectDue()
		for _, fn := range discarded {
			fn()
		}
		for _, task := range due {
			s.launch(task)
		}

		var timeout <-chan time.Time
		if next > 0 {
			timer := time.NewTimer(next)
			timeout = timer.C

			select {
			case <-s.done:
				timer.Stop()
				return
			case <-s.wake:
				timer.Stop()
			case <-timeout:
			}
			continue
		}

		select {
		case <-s.done:
			return
		case <-s.wake:
		}
	}
}

// collectDue pops every task whose deadline has passed, in deadline order,
// sweeping cancelled tasks as they surface at the head. It returns the due
// tasks, the discard hooks of swept tasks (run by the caller outside the
// lock), and the wait until the next deadline (0 when the queue is empty).
func (s *Scheduler) collectDue() ([]*Task, []func(), time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*Task
	var discarded []func()

	// Sweep cancelled tasks wherever they sit in the heap so their discard
	// hooks do not wait behind live deadlines.
	kept := make(taskHeap, 0, len(s.tasks))
	for _, task := range s.tasks {
		if task.Cancelled() {
			if fn := task.discard(); fn != nil {
				discarded = append(discarded, fn)
			}
			continue
		}
		kept = append(kept, task)
	}
	if len(kept) != len(s.tasks) {
		s.tasks = kept
		heap.Init(&s.tasks)
	}

	now := s.now()
	for len(s.tasks) > 0 {
		head := s.tasks[0]
		wait := head.dueAt.Sub(now)
		if wait > 0 {
			return due, discarded, wait
		}
		heap.Pop(&s.tasks)
		due = append(due, head)
	}
	return due, discarded, 0
}

// launch runs the task on its own goroutine. A panic inside the task is
// contained and logged so the dispatch loop and sibling tasks stay alive.
func (s *Scheduler) launch(task *Task) {
	go func() {
		var catcher panics.Catcher
		catcher.Try(func() { task.fn(task.args...) })
		if recovered := catcher.Recovered(); recovered != nil {
			s.logger.Error("scheduled task panicked",
				"panic", recovered.Value,
				"due_at", task.dueAt,
				"stack", recovered.String(),
			)
		}
	}()
}
