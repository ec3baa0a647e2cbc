package livescore

import (
	"github.com/cockroachdb/errors"

	"github.com/bierschi/comunioscore/internal/domain/squad"
)

var (
	// ErrRatingOutOfRange marks a rating outside the scoring table. It is
	// never silently defaulted; callers log or escalate.
	ErrRatingOutOfRange = errors.New("rating outside scoring table")
	// ErrUnknownIncidentClass marks an incident class the scoring table
	// does not know.
	ErrUnknownIncidentClass = errors.New("unknown incident class")
)

type ratingBand struct {
	lo, hi float64
	points int
}

// Rating bands are half a point wide (wider at the extremes) and map onto
// [-8, 12]. Values between bands, such as 6.45, are out of table.
var ratingBands = []ratingBand{
	{0.0, 4.6, -8},
	{4.7, 4.9, -7},
	{5.0, 5.2, -6},
	{5.3, 5.4, -5},
	{5.5, 5.6, -4},
	{5.7, 5.8, -3},
	{5.9, 6.0, -2},
	{6.1, 6.2, -1},
	{6.3, 6.4, 0},
	{6.5, 6.6, 1},
	{6.7, 6.8, 2},
	{6.9, 7.0, 3},
	{7.1, 7.2, 4},
	{7.3, 7.4, 5},
	{7.5, 7.6, 6},
	{7.7, 7.8, 7},
	{7.9, 8.0, 8},
	{8.1, 8.4, 9},
	{8.5, 8.8, 10},
	{8.9, 9.2, 11},
	{9.3, 10.0, 12},
}

// PointsFromRating maps a player rating onto points via the fixed band table.
func PointsFromRating(rating float64) (int, error) {
	for _, band := range ratingBands {
		if rating >= band.lo && rating <= band.hi {
			return band.points, nil
		}
	}
	return 0, errors.Wrapf(ErrRatingOutOfRange, "rating=%.2f", rating)
}

// PointsForGoal scores a regular goal by the scorer's roster position.
func PointsForGoal(position squad.Position) int {
	switch position {
	case squad.PositionKeeper:
		return 6
	case squad.PositionDefender:
		return 5
	case squad.PositionMidfielder:
		return 4
	default:
		return 3
	}
}

// PointsForPenaltyGoal is flat, independent of position.
func PointsForPenaltyGoal() int {
	return 3
}

// PointsForCard scores a sending off.
func PointsForCard(class IncidentClass) (int, error) {
	switch class {
	case ClassYellowRed:
		return -3, nil
	case ClassRed:
		return -6, nil
	default:
		return 0, errors.Wrapf(ErrUnknownIncidentClass, "class=%s", class)
	}
}

// PointsForIncident scores one incident for a player in the given position.
func PointsForIncident(incident Incident, position squad.Position) (int, error) {
	switch incident.Type {
	case IncidentGoal:
		if incident.Class == ClassPenaltyGoal {
			return PointsForPenaltyGoal(), nil
		}
		return PointsForGoal(position), nil
	case IncidentCard:
		return PointsForCard(incident.Class)
	default:
		return 0, errors.Wrapf(ErrUnknownIncidentClass, "type=%s class=%s", incident.Type, incident.Class)
	}
}
