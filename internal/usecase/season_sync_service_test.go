package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/bierschi/comunioscore/internal/domain/season"
	"github.com/bierschi/comunioscore/internal/infrastructure/repository/memory"
	"github.com/bierschi/comunioscore/internal/platform/logging"
	"github.com/bierschi/comunioscore/internal/platform/scheduler"
)

func newSyncFixture(t *testing.T, fixtures []season.Fixture) (*SeasonSyncService, *MatchScheduleService, *memory.SeasonStore, func()) {
	t.Helper()

	sched := scheduler.New(logging.NewNop())
	schedule := NewMatchScheduleService(sched, 9, logging.NewNop())
	seasonStore := memory.NewSeasonStore()
	live := NewLiveMatchService(
		&stubFixtureProvider{fixtures: fixtures},
		stubLineupProvider{},
		seasonStore,
		memory.NewSquadStore(),
		memory.NewScoreStore(),
		NewNoopNotifier(),
		LiveMatchConfig{},
		logging.NewNop(),
	)
	svc := NewSeasonSyncService(
		&stubFixtureProvider{fixtures: fixtures},
		seasonStore,
		schedule,
		live,
		SeasonSyncConfig{},
		logging.NewNop(),
	)
	return svc, schedule, seasonStore, sched.Close
}

func TestBootstrapIngestsSeason(t *testing.T) {
	fixtures := []season.Fixture{
		{MatchDay: 1, MatchID: 1, Status: season.StatusNotStarted, StartAt: time.Now().Add(time.Hour)},
		{MatchDay: 1, MatchID: 2, Status: season.StatusNotStarted, StartAt: time.Now().Add(time.Hour)},
	}
	svc, _, store, closeFn := newSyncFixture(t, fixtures)
	defer closeFn()

	if err := svc.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	stored, err := store.ListByMatchDay(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListByMatchDay: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("got %d fixtures, want 2", len(stored))
	}
}

func TestRouteCurrentMatchDaySubmitsOnce(t *testing.T) {
	fixtures := []season.Fixture{
		{MatchDay: 1, MatchID: 1, Status: season.StatusNotStarted, StartAt: time.Now().Add(time.Hour)},
		{MatchDay: 1, MatchID: 2, Status: season.StatusNotStarted, StartAt: time.Now().Add(time.Hour)},
		{MatchDay: 2, MatchID: 3, Status: season.StatusNotStarted, StartAt: time.Now().Add(2 * time.Hour)},
	}
	svc, schedule, _, closeFn := newSyncFixture(t, fixtures)
	defer closeFn()

	ctx := context.Background()
	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	svc.RouteCurrentMatchDay(ctx)
	if got := schedule.PendingCount(); got != 2 {
		t.Fatalf("first route: pending %d, want 2 (match day 1 only)", got)
	}

	// A second tick over unchanged fixtures must not resubmit.
	svc.RouteCurrentMatchDay(ctx)
	if got := schedule.PendingCount(); got != 2 {
		t.Fatalf("second route: pending %d, want 2", got)
	}
}

func TestRouteSkipsPostponedWithoutNewKickoff(t *testing.T) {
	stale := time.Now().Add(-48 * time.Hour)
	fresh := time.Now().Add(72 * time.Hour)
	fixtures := []season.Fixture{
		{MatchDay: 1, MatchID: 1, Status: season.StatusPostponed, StartAt: stale},
		{MatchDay: 1, MatchID: 2, Status: season.StatusPostponed, StartAt: fresh},
	}
	svc, schedule, _, closeFn := newSyncFixture(t, fixtures)
	defer closeFn()

	ctx := context.Background()
	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	svc.RouteCurrentMatchDay(ctx)
	if got := schedule.PendingCount(); got != 1 {
		t.Fatalf("pending %d, want 1 (stale postponed kickoff skipped)", got)
	}
}

func TestRescheduleDedupsAgainstQueuedTask(t *testing.T) {
	firstStart := time.Now().Add(time.Hour)
	fixtures := []season.Fixture{
		{MatchDay: 1, MatchID: 1, Status: season.StatusNotStarted, StartAt: firstStart},
	}
	svc, schedule, store, closeFn := newSyncFixture(t, fixtures)
	defer closeFn()

	ctx := context.Background()
	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	svc.RouteCurrentMatchDay(ctx)
	if got := schedule.PendingCount(); got != 1 {
		t.Fatalf("pending %d, want 1", got)
	}

	// Provider postpones the match and assigns a new kickoff time while the
	// original task is still queued; the postponed channel deduplicates.
	rescheduled := season.Fixture{
		MatchDay: 1,
		MatchID:  1,
		Status:   season.StatusPostponed,
		StartAt:  time.Now().Add(96 * time.Hour),
	}
	if err := store.UpdateResult(ctx, rescheduled); err != nil {
		t.Fatalf("UpdateResult: %v", err)
	}

	svc.RouteCurrentMatchDay(ctx)
	if got := schedule.PendingCount(); got != 1 {
		t.Fatalf("pending %d, want 1 (match id already queued)", got)
	}
}

func TestRefreshSeasonUpdatesResults(t *testing.T) {
	start := time.Now().Add(-2 * time.Hour)
	initial := []season.Fixture{
		{MatchDay: 1, MatchID: 1, Status: season.StatusInProgress, StartAt: start},
	}
	home, away := 2, 1
	refreshed := []season.Fixture{
		{MatchDay: 1, MatchID: 1, Status: season.StatusFinished, StartAt: start, HomeScore: &home, AwayScore: &away},
	}
	svc, _, store, closeFn := newSyncFixture(t, initial)
	defer closeFn()

	ctx := context.Background()
	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	svc.fixtures = &stubFixtureProvider{fixtures: refreshed}
	if err := svc.RefreshSeason(ctx); err != nil {
		t.Fatalf("RefreshSeason: %v", err)
	}

	stored, err := store.ListByMatchDay(ctx, 1)
	if err != nil {
		t.Fatalf("ListByMatchDay: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("got %d fixtures, want 1", len(stored))
	}
	if !season.IsFinishedStatus(stored[0].Status) || stored[0].HomeScore == nil || *stored[0].HomeScore != 2 {
		t.Fatalf("refresh not applied: %+v", stored[0])
	}
}
