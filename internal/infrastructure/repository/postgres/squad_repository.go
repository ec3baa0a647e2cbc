package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bierschi/comunioscore/internal/domain/squad"
	qb "github.com/bierschi/comunioscore/internal/platform/querybuilder"
)

// SquadRepository persists participants, their live rosters and the frozen
// per-match-day snapshot scoring reads from. The frozen_rosters table is
// rewritten in one transaction on every freeze.
type SquadRepository struct {
	db *sqlx.DB
}

func NewSquadRepository(db *sqlx.DB) *SquadRepository {
	return &SquadRepository{db: db}
}

func (r *SquadRepository) UpsertParticipant(ctx context.Context, participant squad.Participant) error {
	model := participantTableModel{
		ID:          participant.ID,
		DisplayName: participant.DisplayName,
	}
	query, args, err := qb.InsertModel("participants", model,
		"ON CONFLICT (id) DO UPDATE SET display_name = EXCLUDED.display_name")
	if err != nil {
		return fmt.Errorf("build upsert participant query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert participant %s: %w", participant.ID, err)
	}

	if len(participant.Roster) > 0 {
		return r.ReplaceRoster(ctx, participant.ID, participant.Roster)
	}
	return nil
}

func (r *SquadRepository) ReplaceRoster(ctx context.Context, participantID string, roster []squad.RosterEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace roster: %w", err)
	}
	defer tx.Rollback()

	query, args, err := qb.DeleteFrom("rosters").
		Where(qb.Eq("participant_id", participantID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build clear roster query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear roster %s: %w", participantID, err)
	}

	for _, entry := range roster {
		query, args, err := qb.InsertModel("rosters", rosterEntryToRow(participantID, entry), "")
		if err != nil {
			return fmt.Errorf("build insert roster entry query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert roster entry %s/%s: %w", participantID, entry.PlayerName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace roster: %w", err)
	}
	return nil
}

func (r *SquadRepository) FreezeLineupForMatchDay(ctx context.Context) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin freeze rosters: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM frozen_rosters"); err != nil {
		return fmt.Errorf("clear frozen rosters: %w", err)
	}
	copyStmt := "INSERT INTO frozen_rosters " +
		"(participant_id, player_name, position, club_name, lineup_eligible) " +
		"SELECT participant_id, player_name, position, club_name, lineup_eligible FROM rosters"
	if _, err := tx.ExecContext(ctx, copyStmt); err != nil {
		return fmt.Errorf("snapshot rosters: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit freeze rosters: %w", err)
	}
	return nil
}

func (r *SquadRepository) ListEligibleForMatchDay(ctx context.Context) ([]squad.Participant, error) {
	query, args, err := qb.Select("id", "display_name").
		From("participants").
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select participants query: %w", err)
	}

	var participantRows []participantTableModel
	if err := r.db.SelectContext(ctx, &participantRows, query, args...); err != nil {
		return nil, fmt.Errorf("select participants: %w", err)
	}

	table := "frozen_rosters"
	frozen, err := r.hasFrozenRosters(ctx)
	if err != nil {
		return nil, err
	}
	if !frozen {
		table = "rosters"
	}

	out := make([]squad.Participant, 0, len(participantRows))
	for _, row := range participantRows {
		query, args, err := qb.Select("*").
			From(table).
			Where(qb.Eq("participant_id", row.ID)).
			OrderBy("player_name").
			ToSQL()
		if err != nil {
			return nil, fmt.Errorf("build select roster query: %w", err)
		}

		var rosterRows []rosterEntryTableModel
		if err := r.db.SelectContext(ctx, &rosterRows, query, args...); err != nil {
			return nil, fmt.Errorf("select roster %s: %w", row.ID, err)
		}

		roster := make([]squad.RosterEntry, 0, len(rosterRows))
		for _, rosterRow := range rosterRows {
			roster = append(roster, rosterEntryFromRow(rosterRow))
		}
		out = append(out, squad.Participant{
			ID:          row.ID,
			DisplayName: row.DisplayName,
			Roster:      roster,
		})
	}
	return out, nil
}

func (r *SquadRepository) hasFrozenRosters(ctx context.Context) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT count(*) FROM frozen_rosters"); err != nil {
		return false, fmt.Errorf("count frozen rosters: %w", err)
	}
	return count > 0, nil
}
