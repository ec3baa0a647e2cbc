package postgres

import "github.com/bierschi/comunioscore/internal/domain/squad"

type participantTableModel struct {
	ID          string `db:"id"`
	DisplayName string `db:"display_name"`
}

type rosterEntryTableModel struct {
	ParticipantID  string `db:"participant_id"`
	PlayerName     string `db:"player_name"`
	Position       string `db:"position"`
	ClubName       string `db:"club_name"`
	LineupEligible bool   `db:"lineup_eligible"`
}

func rosterEntryFromRow(row rosterEntryTableModel) squad.RosterEntry {
	return squad.RosterEntry{
		PlayerName:     row.PlayerName,
		Position:       squad.Position(row.Position),
		ClubName:       row.ClubName,
		LineupEligible: row.LineupEligible,
	}
}

func rosterEntryToRow(participantID string, entry squad.RosterEntry) rosterEntryTableModel {
	return rosterEntryTableModel{
		ParticipantID:  participantID,
		PlayerName:     entry.PlayerName,
		Position:       string(entry.Position),
		ClubName:       entry.ClubName,
		LineupEligible: entry.LineupEligible,
	}
}
