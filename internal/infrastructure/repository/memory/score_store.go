package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bierschi/comunioscore/internal/domain/livescore"
)

type ScoreStore struct {
	mu     sync.RWMutex
	scores map[string]livescore.MatchScore
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{scores: make(map[string]livescore.MatchScore)}
}

func scoreKey(participantID string, matchID int64) string {
	return fmt.Sprintf("%s/%d", participantID, matchID)
}

func (s *ScoreStore) UpsertMatchScore(_ context.Context, score livescore.MatchScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scores[scoreKey(score.ParticipantID, score.MatchID)] = score
	return nil
}

func (s *ScoreStore) ListByParticipantAndMatchDay(_ context.Context, participantID string, matchDay int) ([]livescore.MatchScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]livescore.MatchScore, 0)
	for _, score := range s.scores {
		if score.ParticipantID == participantID && score.MatchDay == matchDay {
			out = append(out, score)
		}
	}
	sortScores(out)
	return out, nil
}

func (s *ScoreStore) ListByMatchDay(_ context.Context, matchDay int) ([]livescore.MatchScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]livescore.MatchScore, 0)
	for _, score := range s.scores {
		if score.MatchDay == matchDay {
			out = append(out, score)
		}
	}
	sortScores(out)
	return out, nil
}

func sortScores(scores []livescore.MatchScore) {
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].ParticipantID != scores[j].ParticipantID {
			return scores[i].ParticipantID < scores[j].ParticipantID
		}
		return scores[i].MatchID < scores[j].MatchID
	})
}
