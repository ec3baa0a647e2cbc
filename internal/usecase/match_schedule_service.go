package usecase

import (
	"fmt"
	"sync"

	"github.com/bierschi/comunioscore/internal/domain/season"
	"github.com/bierschi/comunioscore/internal/platform/logging"
	"github.com/bierschi/comunioscore/internal/platform/scheduler"
)

// MatchScheduleService turns season fixtures into scheduled live-tracking
// tasks. Fixtures that have not started yet go through a capacity-bounded
// primary channel (at most one match day outstanding at a time); rescheduled
// postponed fixtures go through an unbounded channel deduplicated by match id.
type MatchScheduleService struct {
	sched    *scheduler.Scheduler
	capacity int
	logger   *logging.Logger

	mu          sync.Mutex
	outstanding int
	gateClosed  bool
	backlog     []deferredFixture
}

type deferredFixture struct {
	fixture season.Fixture
	onFire  scheduler.TaskFunc
}

// NewMatchScheduleService builds the policy on top of the generic scheduler.
// capacity is the number of fixtures in one match day (9 or 18 depending on
// the league).
func NewMatchScheduleService(sched *scheduler.Scheduler, capacity int, logger *logging.Logger) *MatchScheduleService {
	if capacity < 1 {
		capacity = 9
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &MatchScheduleService{
		sched:    sched,
		capacity: capacity,
		logger:   logger,
	}
}

// SubmitFixture routes a fixture onto the right channel. onFire receives
// (matchDay, matchID, homeTeam, awayTeam) when the kickoff deadline arrives;
// kickoffs already in the past fire on the next dispatch tick, which covers
// catch-up after a restart mid-matchday.
func (s *MatchScheduleService) SubmitFixture(fixture season.Fixture, onFire scheduler.TaskFunc) error {
	switch season.NormalizeStatus(fixture.Status) {
	case season.StatusNotStarted:
		s.submitPrimary(fixture, onFire)
		return nil
	case season.StatusPostponed:
		s.submitPostponed(fixture, onFire)
		return nil
	default:
		return fmt.Errorf("fixture %d with status %q is not schedulable", fixture.MatchID, fixture.Status)
	}
}

// PendingCount reports tasks waiting in the underlying scheduler. Deferred
// fixtures held back by the capacity gate are not included.
func (s *MatchScheduleService) PendingCount() int {
	return s.sched.PendingCount()
}

func (s *MatchScheduleService) submitPrimary(fixture season.Fixture, onFire scheduler.TaskFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A shifted kickoff resubmits the same match id; the queued task at the
	// old time must not fire alongside its replacement.
	if task := s.pendingTask(fixture.MatchID); task != nil {
		s.sched.Cancel(task)
		s.admitLocked(fixture, onFire)
		s.logger.Info("queued fixture replaced after kickoff change",
			"match_id", fixture.MatchID,
			"match_day", fixture.MatchDay,
			"kickoff_at", fixture.StartAt,
		)
		return
	}

	if s.gateClosed {
		for i := range s.backlog {
			if s.backlog[i].fixture.MatchID == fixture.MatchID {
				s.backlog[i] = deferredFixture{fixture: fixture, onFire: onFire}
				return
			}
		}
		s.backlog = append(s.backlog, deferredFixture{fixture: fixture, onFire: onFire})
		s.logger.Info("primary channel at capacity, fixture deferred",
			"match_id", fixture.MatchID,
			"match_day", fixture.MatchDay,
			"deferred", len(s.backlog),
		)
		return
	}
	s.admitLocked(fixture, onFire)
}

// admitLocked schedules a primary fixture and closes the gate when the
// channel reaches capacity. The gate reopens only after every admitted task
// has fired or been swept after cancellation, so a fast caller cannot pile
// up more than one match day.
func (s *MatchScheduleService) admitLocked(fixture season.Fixture, onFire scheduler.TaskFunc) {
	s.outstanding++
	if s.outstanding >= s.capacity {
		s.gateClosed = true
	}

	fired := func(args ...any) {
		s.onPrimaryFired()
		onFire(args...)
	}
	task := s.sched.Schedule(fired, fixture.StartAt, fixture.MatchDay, fixture.MatchID, fixture.HomeTeam, fixture.AwayTeam)
	task.OnDiscard(s.onPrimaryFired)

	s.logger.Info("fixture scheduled",
		"match_id", fixture.MatchID,
		"match_day", fixture.MatchDay,
		"home_team", fixture.HomeTeam,
		"away_team", fixture.AwayTeam,
		"kickoff_at", fixture.StartAt,
	)
}

func (s *MatchScheduleService) onPrimaryFired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.outstanding > 0 {
		s.outstanding--
	}
	if s.outstanding > 0 || !s.gateClosed {
		return
	}

	s.gateClosed = false
	for len(s.backlog) > 0 && !s.gateClosed {
		next := s.backlog[0]
		s.backlog = s.backlog[1:]
		s.admitLocked(next.fixture, next.onFire)
	}
}

// pendingTask scans the scheduler queue for a task carrying matchID.
func (s *MatchScheduleService) pendingTask(matchID int64) *scheduler.Task {
	for _, task := range s.sched.Pending() {
		args := task.Args()
		if len(args) >= 2 {
			if id, ok := args[1].(int64); ok && id == matchID {
				return task
			}
		}
	}
	return nil
}

// submitPostponed schedules a rescheduled fixture without a capacity bound,
// skipping match ids that already sit in the queue.
func (s *MatchScheduleService) submitPostponed(fixture season.Fixture, onFire scheduler.TaskFunc) {
	if s.pendingTask(fixture.MatchID) != nil {
		s.logger.Info("postponed fixture already scheduled",
			"match_id", fixture.MatchID,
			"match_day", fixture.MatchDay,
		)
		return
	}

	s.sched.Schedule(onFire, fixture.StartAt, fixture.MatchDay, fixture.MatchID, fixture.HomeTeam, fixture.AwayTeam)
	s.logger.Info("postponed fixture rescheduled",
		"match_id", fixture.MatchID,
		"match_day", fixture.MatchDay,
		"kickoff_at", fixture.StartAt,
	)
}
