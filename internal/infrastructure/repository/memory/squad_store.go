package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/bierschi/comunioscore/internal/domain/squad"
)

type SquadStore struct {
	mu           sync.RWMutex
	participants map[string]squad.Participant
	rosters      map[string][]squad.RosterEntry
	frozen       map[string][]squad.RosterEntry
}

func NewSquadStore() *SquadStore {
	return &SquadStore{
		participants: make(map[string]squad.Participant),
		rosters:      make(map[string][]squad.RosterEntry),
	}
}

func (s *SquadStore) UpsertParticipant(_ context.Context, participant squad.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.participants[participant.ID] = squad.Participant{
		ID:          participant.ID,
		DisplayName: participant.DisplayName,
	}
	if len(participant.Roster) > 0 {
		s.rosters[participant.ID] = append([]squad.RosterEntry(nil), participant.Roster...)
	}
	return nil
}

func (s *SquadStore) ReplaceRoster(_ context.Context, participantID string, roster []squad.RosterEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rosters[participantID] = append([]squad.RosterEntry(nil), roster...)
	return nil
}

// FreezeLineupForMatchDay snapshots the current rosters; scoring reads the
// snapshot until the next freeze, so roster edits during a running match day
// have no effect.
func (s *SquadStore) FreezeLineupForMatchDay(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frozen = make(map[string][]squad.RosterEntry, len(s.rosters))
	for participantID, roster := range s.rosters {
		s.frozen[participantID] = append([]squad.RosterEntry(nil), roster...)
	}
	return nil
}

func (s *SquadStore) ListEligibleForMatchDay(_ context.Context) ([]squad.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rosters := s.frozen
	if rosters == nil {
		rosters = s.rosters
	}

	out := make([]squad.Participant, 0, len(s.participants))
	for id, participant := range s.participants {
		participant.Roster = append([]squad.RosterEntry(nil), rosters[id]...)
		out = append(out, participant)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
