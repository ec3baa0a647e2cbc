package squad

import "context"

// Repository exposes participant and roster persistence.
type Repository interface {
	UpsertParticipant(ctx context.Context, participant Participant) error
	// ReplaceRoster swaps a participant's full roster. Eligibility flags of
	// the previous roster are discarded.
	ReplaceRoster(ctx context.Context, participantID string, roster []RosterEntry) error
	// ListEligibleForMatchDay returns every participant with the roster
	// entries frozen as lineup eligible.
	ListEligibleForMatchDay(ctx context.Context) ([]Participant, error)
	// FreezeLineupForMatchDay marks the current rosters as the scoring
	// baseline for the running match day.
	FreezeLineupForMatchDay(ctx context.Context) error
}
