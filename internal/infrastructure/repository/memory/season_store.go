// Package memory provides map-backed repository implementations. They back
// the service when no database is configured and double as test fixtures.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/bierschi/comunioscore/internal/domain/season"
)

type SeasonStore struct {
	mu       sync.RWMutex
	fixtures map[int64]season.Fixture
}

func NewSeasonStore() *SeasonStore {
	return &SeasonStore{fixtures: make(map[int64]season.Fixture)}
}

func (s *SeasonStore) ReplaceSeason(_ context.Context, fixtures []season.Fixture) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fixtures = make(map[int64]season.Fixture, len(fixtures))
	for _, fixture := range fixtures {
		if _, ok := s.fixtures[fixture.MatchID]; ok {
			return season.ErrDuplicateRecord
		}
		s.fixtures[fixture.MatchID] = fixture
	}
	return nil
}

func (s *SeasonStore) UpdateResult(_ context.Context, fixture season.Fixture) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.fixtures[fixture.MatchID]
	if !ok {
		s.fixtures[fixture.MatchID] = fixture
		return nil
	}
	stored.Status = fixture.Status
	stored.HomeScore = fixture.HomeScore
	stored.AwayScore = fixture.AwayScore
	stored.StartAt = fixture.StartAt
	s.fixtures[fixture.MatchID] = stored
	return nil
}

func (s *SeasonStore) ListByMatchDay(_ context.Context, matchDay int) ([]season.Fixture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]season.Fixture, 0)
	for _, fixture := range s.fixtures {
		if fixture.MatchDay == matchDay {
			out = append(out, fixture)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchID < out[j].MatchID })
	return out, nil
}

func (s *SeasonStore) LastFinishedMatchDay(_ context.Context) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	last, found := 0, false
	for _, fixture := range s.fixtures {
		if season.IsFinishedStatus(fixture.Status) && fixture.MatchDay > last {
			last, found = fixture.MatchDay, true
		}
	}
	return last, found, nil
}
