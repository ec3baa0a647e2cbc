package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bierschi/comunioscore/internal/domain/season"
	"github.com/bierschi/comunioscore/internal/platform/logging"
	"github.com/bierschi/comunioscore/internal/platform/scheduler"
)

type SeasonSyncConfig struct {
	// RefreshInterval is how often the full season is re-fetched to pick
	// up result and reschedule updates.
	RefreshInterval time.Duration
	// TickInterval is how often the current match day is checked for
	// fixtures that need a live-tracking task.
	TickInterval time.Duration
}

// SeasonSyncService keeps the stored season in sync with the live data
// provider and feeds the current match day's fixtures into the scheduling
// policy. Fired tasks hand over to the live match service.
type SeasonSyncService struct {
	fixtures   FixtureProvider
	seasonRepo season.Repository
	schedule   *MatchScheduleService
	live       *LiveMatchService
	cfg        SeasonSyncConfig
	logger     *logging.Logger
	now        func() time.Time

	mu        sync.Mutex
	submitted map[int64]time.Time
}

func NewSeasonSyncService(
	fixtures FixtureProvider,
	seasonRepo season.Repository,
	schedule *MatchScheduleService,
	live *LiveMatchService,
	cfg SeasonSyncConfig,
	logger *logging.Logger,
) *SeasonSyncService {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 6 * time.Hour
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 30 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &SeasonSyncService{
		fixtures:   fixtures,
		seasonRepo: seasonRepo,
		schedule:   schedule,
		live:       live,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
		submitted:  make(map[int64]time.Time),
	}
}

// Run blocks until the context is cancelled. The season is ingested once at
// startup, refreshed periodically, and the current match day is routed into
// the scheduler on every tick.
func (s *SeasonSyncService) Run(ctx context.Context) error {
	if err := s.Bootstrap(ctx); err != nil {
		// The periodic refresh below retries; startup must not die on a
		// transient provider failure.
		s.logger.ErrorContext(ctx, "season bootstrap failed", "error", err)
	}

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()
	lastRefresh := s.now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.RouteCurrentMatchDay(ctx)
			if s.now().Sub(lastRefresh) >= s.cfg.RefreshInterval {
				if err := s.RefreshSeason(ctx); err != nil {
					s.logger.ErrorContext(ctx, "season refresh failed", "error", err)
				}
				lastRefresh = s.now()
			}
		}
	}
}

// Bootstrap replaces the stored season with a fresh provider snapshot.
func (s *SeasonSyncService) Bootstrap(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonSyncService.Bootstrap")
	defer span.End()

	fixtures, err := s.fixtures.SeasonFixtures(ctx)
	if err != nil {
		return fmt.Errorf("fetch season fixtures: %w", err)
	}
	if err := s.seasonRepo.ReplaceSeason(ctx, fixtures); err != nil {
		return fmt.Errorf("replace season: %w", err)
	}

	s.logger.Info("season ingested", "fixtures", len(fixtures))
	return nil
}

// RefreshSeason updates status, scores and rescheduled kickoff times.
func (s *SeasonSyncService) RefreshSeason(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonSyncService.RefreshSeason")
	defer span.End()

	fixtures, err := s.fixtures.SeasonFixtures(ctx)
	if err != nil {
		return fmt.Errorf("fetch season fixtures: %w", err)
	}
	for _, fixture := range fixtures {
		if err := s.seasonRepo.UpdateResult(ctx, fixture); err != nil {
			s.logger.WarnContext(ctx, "fixture update failed",
				"match_id", fixture.MatchID,
				"error", err,
			)
		}
	}

	s.logger.Info("season refreshed", "fixtures", len(fixtures))
	return nil
}

// RouteCurrentMatchDay submits the next unfinished match day's fixtures to
// the scheduling policy. Fixtures already handed over are skipped unless a
// postponed fixture received a new kickoff time.
func (s *SeasonSyncService) RouteCurrentMatchDay(ctx context.Context) {
	matchDay, err := s.nextMatchDay(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "resolve current match day", "error", err)
		return
	}

	fixtures, err := s.seasonRepo.ListByMatchDay(ctx, matchDay)
	if err != nil {
		s.logger.ErrorContext(ctx, "list match day fixtures", "match_day", matchDay, "error", err)
		return
	}

	onFire := s.startLiveTracking(ctx)
	for _, fixture := range fixtures {
		switch season.NormalizeStatus(fixture.Status) {
		case season.StatusNotStarted:
			if !s.markSubmitted(fixture) {
				continue
			}
			if err := s.schedule.SubmitFixture(fixture, onFire); err != nil {
				s.logger.WarnContext(ctx, "fixture submission rejected",
					"match_id", fixture.MatchID,
					"error", err,
				)
			}
		case season.StatusPostponed:
			// Only a rescheduled kickoff in the future counts as a new
			// start time; the stale original time is not schedulable.
			if !fixture.StartAt.After(s.now()) {
				continue
			}
			if !s.markSubmitted(fixture) {
				continue
			}
			if err := s.schedule.SubmitFixture(fixture, onFire); err != nil {
				s.logger.WarnContext(ctx, "postponed submission rejected",
					"match_id", fixture.MatchID,
					"error", err,
				)
			}
		}
	}
}

func (s *SeasonSyncService) startLiveTracking(ctx context.Context) scheduler.TaskFunc {
	return func(args ...any) {
		if len(args) != 4 {
			s.logger.Error("malformed live tracking task arguments", "args", args)
			return
		}
		matchDay, _ := args[0].(int)
		matchID, _ := args[1].(int64)
		homeTeam, _ := args[2].(string)
		awayTeam, _ := args[3].(string)
		s.live.Run(ctx, matchDay, matchID, homeTeam, awayTeam)
	}
}

func (s *SeasonSyncService) nextMatchDay(ctx context.Context) (int, error) {
	last, ok, err := s.seasonRepo.LastFinishedMatchDay(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 1, nil
	}
	return last + 1, nil
}

// markSubmitted records the handover and reports whether it is new. A
// changed kickoff time counts as new so rescheduled fixtures go back in;
// the postponed channel deduplicates anything still queued.
func (s *SeasonSyncService) markSubmitted(fixture season.Fixture) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if startAt, ok := s.submitted[fixture.MatchID]; ok && startAt.Equal(fixture.StartAt) {
		return false
	}
	s.submitted[fixture.MatchID] = fixture.StartAt
	return true
}
