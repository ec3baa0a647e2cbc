package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bierschi/comunioscore/internal/domain/livescore"
	qb "github.com/bierschi/comunioscore/internal/platform/querybuilder"
)

type ScoreRepository struct {
	db *sqlx.DB
}

func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

func (r *ScoreRepository) UpsertMatchScore(ctx context.Context, score livescore.MatchScore) error {
	query, args, err := qb.InsertModel("match_scores", matchScoreToRow(score),
		"ON CONFLICT (participant_id, match_id) DO UPDATE SET "+
			"match_day = EXCLUDED.match_day, "+
			"rating_points = EXCLUDED.rating_points, "+
			"goal_points = EXCLUDED.goal_points, "+
			"card_points = EXCLUDED.card_points")
	if err != nil {
		return fmt.Errorf("build upsert match score query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert match score %s/%d: %w", score.ParticipantID, score.MatchID, err)
	}
	return nil
}

func (r *ScoreRepository) ListByParticipantAndMatchDay(ctx context.Context, participantID string, matchDay int) ([]livescore.MatchScore, error) {
	query, args, err := qb.Select("*").
		From("match_scores").
		Where(qb.Eq("participant_id", participantID), qb.Eq("match_day", matchDay)).
		OrderBy("match_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select scores query: %w", err)
	}
	return r.selectScores(ctx, query, args)
}

func (r *ScoreRepository) ListByMatchDay(ctx context.Context, matchDay int) ([]livescore.MatchScore, error) {
	query, args, err := qb.Select("*").
		From("match_scores").
		Where(qb.Eq("match_day", matchDay)).
		OrderBy("participant_id", "match_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select scores query: %w", err)
	}
	return r.selectScores(ctx, query, args)
}

func (r *ScoreRepository) selectScores(ctx context.Context, query string, args []any) ([]livescore.MatchScore, error) {
	var rows []matchScoreTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select match scores: %w", err)
	}

	out := make([]livescore.MatchScore, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchScoreFromRow(row))
	}
	return out, nil
}
