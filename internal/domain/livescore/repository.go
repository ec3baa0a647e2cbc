package livescore

import "context"

// Repository exposes match score persistence. Writes are scoped to one
// (participant, match) key so concurrent sessions never contend.
type Repository interface {
	UpsertMatchScore(ctx context.Context, score MatchScore) error
	ListByParticipantAndMatchDay(ctx context.Context, participantID string, matchDay int) ([]MatchScore, error)
	ListByMatchDay(ctx context.Context, matchDay int) ([]MatchScore, error)
}
