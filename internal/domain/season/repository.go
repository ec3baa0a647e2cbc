package season

import (
	"context"

	"github.com/cockroachdb/errors"
)

// ErrDuplicateRecord marks a persistence conflict on a primary key. Callers
// decide whether to ignore or alert; stores never swallow it.
var ErrDuplicateRecord = errors.New("duplicate season record")

// Repository exposes season fixture persistence.
type Repository interface {
	// ReplaceSeason drops the stored season and inserts the given fixtures.
	ReplaceSeason(ctx context.Context, fixtures []Fixture) error
	// UpdateResult refreshes status, score and (for rescheduled fixtures)
	// kickoff time of one fixture.
	UpdateResult(ctx context.Context, fixture Fixture) error
	ListByMatchDay(ctx context.Context, matchDay int) ([]Fixture, error)
	// LastFinishedMatchDay returns the highest match day with at least one
	// finished fixture; ok is false for a fresh season.
	LastFinishedMatchDay(ctx context.Context) (matchDay int, ok bool, err error)
}
