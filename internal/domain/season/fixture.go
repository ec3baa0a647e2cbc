package season

import (
	"strings"
	"time"
)

// Status values follow the provider's event status vocabulary.
const (
	StatusNotStarted = "notstarted"
	StatusPostponed  = "postponed"
	StatusInProgress = "inprogress"
	StatusFinished   = "finished"
	StatusCanceled   = "canceled"
)

// Fixture is one scheduled match of a league season.
type Fixture struct {
	MatchDay  int
	MatchID   int64
	HomeTeam  string
	AwayTeam  string
	StartAt   time.Time
	Status    string
	HomeScore *int
	AwayScore *int
}

func NormalizeStatus(value string) string {
	status := strings.ToLower(strings.TrimSpace(value))
	if status == "" {
		return StatusNotStarted
	}
	return status
}

func IsFinishedStatus(status string) bool {
	return NormalizeStatus(status) == StatusFinished
}

// IsTrackableStatus reports whether a fixture can still produce live data.
// Canceled fixtures are terminal and never tracked.
func IsTrackableStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusNotStarted, StatusPostponed, StatusInProgress:
		return true
	default:
		return false
	}
}
