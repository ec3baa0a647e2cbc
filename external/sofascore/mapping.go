package sofascore

import (
	"time"

	"github.com/bierschi/comunioscore/internal/domain/livescore"
	"github.com/bierschi/comunioscore/internal/domain/season"
)

type eventsEnvelope struct {
	Events []eventPayload `json:"events"`
}

type eventEnvelope struct {
	Event eventPayload `json:"event"`
}

type eventPayload struct {
	ID             int64        `json:"id"`
	StartTimestamp int64        `json:"startTimestamp"`
	RoundInfo      roundInfo    `json:"roundInfo"`
	HomeTeam       teamPayload  `json:"homeTeam"`
	AwayTeam       teamPayload  `json:"awayTeam"`
	Status         eventStatus  `json:"status"`
	HomeScore      scorePayload `json:"homeScore"`
	AwayScore      scorePayload `json:"awayScore"`
}

type roundInfo struct {
	Round int `json:"round"`
}

type teamPayload struct {
	Name string `json:"name"`
}

type eventStatus struct {
	Type string `json:"type"`
}

type scorePayload struct {
	Current *int `json:"current"`
}

type lineupsEnvelope struct {
	Home teamLineup `json:"home"`
	Away teamLineup `json:"away"`
}

type teamLineup struct {
	Players []lineupPlayer `json:"players"`
}

type lineupPlayer struct {
	Player     playerPayload    `json:"player"`
	Substitute bool             `json:"substitute"`
	Statistics playerStatistics `json:"statistics"`
}

type playerPayload struct {
	Name string `json:"name"`
}

type playerStatistics struct {
	Rating float64 `json:"rating"`
}

type incidentsEnvelope struct {
	Incidents []incidentPayload `json:"incidents"`
}

type incidentPayload struct {
	IncidentType  string        `json:"incidentType"`
	IncidentClass string        `json:"incidentClass"`
	IsHome        bool          `json:"isHome"`
	Player        playerPayload `json:"player"`
}

func mapEventToFixture(event eventPayload) season.Fixture {
	return season.Fixture{
		MatchDay:  event.RoundInfo.Round,
		MatchID:   event.ID,
		HomeTeam:  event.HomeTeam.Name,
		AwayTeam:  event.AwayTeam.Name,
		StartAt:   time.Unix(event.StartTimestamp, 0).UTC(),
		Status:    season.NormalizeStatus(event.Status.Type),
		HomeScore: event.HomeScore.Current,
		AwayScore: event.AwayScore.Current,
	}
}

func mapLineupPlayers(players []lineupPlayer) []livescore.LineupEntry {
	out := make([]livescore.LineupEntry, 0, len(players))
	for _, player := range players {
		out = append(out, livescore.LineupEntry{
			PlayerName: player.Player.Name,
			Substitute: player.Substitute,
			Rating:     player.Statistics.Rating,
			Rated:      player.Statistics.Rating > 0,
		})
	}
	return out
}

// mapIncidents keeps only scorable incidents: goals and sending offs. Plain
// yellow cards and own goals carry no points and are dropped here.
func mapIncidents(incidents []incidentPayload) (home, away []livescore.Incident) {
	for _, incident := range incidents {
		mapped, ok := mapIncident(incident)
		if !ok {
			continue
		}
		if incident.IsHome {
			home = append(home, mapped)
		} else {
			away = append(away, mapped)
		}
	}
	return home, away
}

func mapIncident(incident incidentPayload) (livescore.Incident, bool) {
	switch incident.IncidentType {
	case "goal":
		class := livescore.ClassRegularGoal
		switch incident.IncidentClass {
		case "penalty":
			class = livescore.ClassPenaltyGoal
		case "ownGoal":
			return livescore.Incident{}, false
		}
		return livescore.Incident{
			Type:       livescore.IncidentGoal,
			Class:      class,
			PlayerName: incident.Player.Name,
		}, true
	case "card":
		var class livescore.IncidentClass
		switch incident.IncidentClass {
		case "yellowRed":
			class = livescore.ClassYellowRed
		case "red":
			class = livescore.ClassRed
		default:
			return livescore.Incident{}, false
		}
		return livescore.Incident{
			Type:       livescore.IncidentCard,
			Class:      class,
			PlayerName: incident.Player.Name,
		}, true
	default:
		return livescore.Incident{}, false
	}
}
