package squad

import "strings"

// Position of a real-world player within a fantasy roster.
type Position string

const (
	PositionKeeper     Position = "keeper"
	PositionDefender   Position = "defender"
	PositionMidfielder Position = "midfielder"
	PositionForward    Position = "forward"
)

// ParsePosition maps provider position labels onto the internal enum.
func ParsePosition(value string) (Position, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "keeper", "goalkeeper":
		return PositionKeeper, true
	case "defender":
		return PositionDefender, true
	case "midfielder":
		return PositionMidfielder, true
	case "forward", "striker":
		return PositionForward, true
	default:
		return "", false
	}
}

// RosterEntry is one tracked real-world player of a participant's squad.
// LineupEligible is frozen once per match day so mid-match roster edits do
// not change which players are scored.
type RosterEntry struct {
	PlayerName     string
	Position       Position
	ClubName       string
	LineupEligible bool
}

// Participant is one fantasy manager competing in the community.
type Participant struct {
	ID          string
	DisplayName string
	Roster      []RosterEntry
}
