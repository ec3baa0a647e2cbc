// Package reconcile maps fantasy roster entries onto official match lineups
// despite inconsistent name formatting between the two data sources.
package reconcile

import (
	"strings"

	"github.com/bierschi/comunioscore/internal/domain/livescore"
	"github.com/bierschi/comunioscore/internal/domain/squad"
)

// Side names the lineup a reconciled player was found in.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
	SideNone Side = "none"
)

// ReconciledPlayer pairs a roster entry with the lineup entry it resolved
// to. Lineup is nil when the player is not in the starting or substitute
// list; the entry is still reported so callers can render that outcome.
type ReconciledPlayer struct {
	Roster squad.RosterEntry
	Lineup *livescore.LineupEntry
	Side   Side
}

const (
	clubRatioMin = 0.6
	// The away threshold is raised to offset a higher false-positive rate
	// observed with shorter away-roster overlaps.
	homeSurnameRatioMin = 0.74
	awaySurnameRatioMin = 0.77
)

// Reconcile resolves each roster entry playing for one of the two clubs of
// this fixture against that club's lineup. Roster entries whose club matches
// neither side are left out entirely; most roster players are simply not part
// of a given fixture.
//
// Matching is first-wins in lineup order. No optimal assignment is attempted,
// so two lineup players with near-identical surnames can resolve to the wrong
// entry; the thresholds below are empirically tuned around that trade-off.
func Reconcile(roster []squad.RosterEntry, lineup livescore.MatchLineup, homeTeam, awayTeam string) []ReconciledPlayer {
	out := make([]ReconciledPlayer, 0, len(roster))

	for _, entry := range roster {
		side := clubSide(entry.ClubName, homeTeam, awayTeam)
		if side == SideNone {
			continue
		}

		candidates := lineup.Home
		threshold := homeSurnameRatioMin
		if side == SideAway {
			candidates = lineup.Away
			threshold = awaySurnameRatioMin
		}

		if matched := findLineupEntry(entry, candidates, threshold); matched != nil {
			out = append(out, ReconciledPlayer{Roster: entry, Lineup: matched, Side: side})
			continue
		}
		out = append(out, ReconciledPlayer{Roster: entry, Lineup: nil, Side: SideNone})
	}

	return out
}

// clubSide decides which team of the fixture a roster club belongs to. Exact
// equality wins; otherwise the accent-stripped similarity against both team
// names is compared and the higher side above the threshold is taken.
func clubSide(club, homeTeam, awayTeam string) Side {
	if club == homeTeam {
		return SideHome
	}
	if club == awayTeam {
		return SideAway
	}

	normalized := StripAccents(club)
	homeRatio := Ratio(normalized, StripAccents(homeTeam))
	awayRatio := Ratio(normalized, StripAccents(awayTeam))

	switch {
	case homeRatio > clubRatioMin && homeRatio >= awayRatio:
		return SideHome
	case awayRatio > clubRatioMin:
		return SideAway
	default:
		return SideNone
	}
}

func findLineupEntry(entry squad.RosterEntry, candidates []livescore.LineupEntry, threshold float64) *livescore.LineupEntry {
	rosterForename, rosterSurname := SplitName(entry.PlayerName)
	if rosterSurname == "" {
		return nil
	}
	normalizedRoster := StripAccents(rosterSurname)

	for i := range candidates {
		lineupForename, lineupSurname := SplitName(candidates[i].PlayerName)
		normalizedLineup := StripAccents(lineupSurname)

		if normalizedRoster != normalizedLineup && Ratio(normalizedRoster, normalizedLineup) <= threshold {
			continue
		}
		// The forename gate runs on the raw, period-stripped forenames;
		// an empty roster forename accepts anything.
		if rosterForename != "" && !strings.HasPrefix(lineupForename, rosterForename) {
			continue
		}
		return &candidates[i]
	}
	return nil
}
