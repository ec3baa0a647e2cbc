package usecase

import (
	"context"

	"github.com/bierschi/comunioscore/internal/domain/livescore"
	"github.com/bierschi/comunioscore/internal/domain/season"
	"github.com/bierschi/comunioscore/internal/domain/squad"
)

// FixtureProvider delivers the season's fixture list and match state from
// the external live data source.
type FixtureProvider interface {
	SeasonFixtures(ctx context.Context) ([]season.Fixture, error)
	IsFinished(ctx context.Context, matchID int64) (bool, error)
}

// LineupProvider delivers the current lineup and incident snapshot of a
// running match.
type LineupProvider interface {
	Lineup(ctx context.Context, matchID int64) (livescore.MatchLineup, error)
}

// CommunityProvider delivers the fantasy community's participants and their
// squads from the fantasy platform.
type CommunityProvider interface {
	Participants(ctx context.Context) ([]squad.Participant, error)
	Roster(ctx context.Context, participantID string) ([]squad.RosterEntry, error)
}

// Notifier publishes a human-readable update. Implementations are expected
// to be asynchronous; Publish must not block on network I/O.
type Notifier interface {
	Publish(ctx context.Context, text string) error
}

type noopNotifier struct{}

func (noopNotifier) Publish(context.Context, string) error { return nil }

func NewNoopNotifier() Notifier { return noopNotifier{} }
