package livescore

// LineupEntry is one fielded player as reported by the live data provider.
// Ratings appear a while into the match; until then Rated is false and the
// entry contributes nothing to rating points.
type LineupEntry struct {
	PlayerName string
	Substitute bool
	Rating     float64
	Rated      bool
}

type IncidentType string

const (
	IncidentGoal IncidentType = "goal"
	IncidentCard IncidentType = "card"
)

type IncidentClass string

const (
	ClassRegularGoal IncidentClass = "regular_goal"
	ClassPenaltyGoal IncidentClass = "penalty_goal"
	ClassYellowRed   IncidentClass = "yellow_red"
	ClassRed         IncidentClass = "red"
)

// Incident is a discrete match event attributed to a named player.
type Incident struct {
	Type       IncidentType
	Class      IncidentClass
	PlayerName string
}

// MatchLineup is the per-poll snapshot of both teams' fielded players and
// the incidents recorded so far.
type MatchLineup struct {
	Home          []LineupEntry
	Away          []LineupEntry
	HomeIncidents []Incident
	AwayIncidents []Incident
}

// MatchScore is the persisted per-participant score of one match. Rating and
// card points can be negative; the three fields are always recomputed from
// the full incident list so re-polling never double counts.
type MatchScore struct {
	ParticipantID string
	MatchID       int64
	MatchDay      int
	RatingPoints  int
	GoalPoints    int
	CardPoints    int
}

func (s MatchScore) Total() int {
	return s.RatingPoints + s.GoalPoints + s.CardPoints
}
