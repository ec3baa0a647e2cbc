package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bierschi/comunioscore/internal/domain/season"
	qb "github.com/bierschi/comunioscore/internal/platform/querybuilder"
)

type SeasonRepository struct {
	db *sqlx.DB
}

func NewSeasonRepository(db *sqlx.DB) *SeasonRepository {
	return &SeasonRepository{db: db}
}

func (r *SeasonRepository) ReplaceSeason(ctx context.Context, fixtures []season.Fixture) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace season: %w", err)
	}
	defer tx.Rollback()

	query, args, err := qb.DeleteFrom("season_fixtures").ToSQL()
	if err != nil {
		return fmt.Errorf("build clear season query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear season: %w", err)
	}

	for _, fixture := range fixtures {
		query, args, err := qb.InsertModel("season_fixtures", seasonFixtureToRow(fixture), "")
		if err != nil {
			return fmt.Errorf("build insert fixture query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("insert fixture %d: %w", fixture.MatchID, season.ErrDuplicateRecord)
			}
			return fmt.Errorf("insert fixture %d: %w", fixture.MatchID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace season: %w", err)
	}
	return nil
}

func (r *SeasonRepository) UpdateResult(ctx context.Context, fixture season.Fixture) error {
	query, args, err := qb.Update("season_fixtures").
		Set("status", season.NormalizeStatus(fixture.Status)).
		Set("home_score", intPtrToNullInt64(fixture.HomeScore)).
		Set("away_score", intPtrToNullInt64(fixture.AwayScore)).
		Set("kickoff_at", fixture.StartAt).
		Where(qb.Eq("match_id", fixture.MatchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update fixture query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update fixture %d: %w", fixture.MatchID, err)
	}
	return nil
}

func (r *SeasonRepository) ListByMatchDay(ctx context.Context, matchDay int) ([]season.Fixture, error) {
	query, args, err := qb.Select("*").
		From("season_fixtures").
		Where(qb.Eq("match_day", matchDay)).
		OrderBy("kickoff_at", "match_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select fixtures query: %w", err)
	}

	var rows []seasonFixtureTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select fixtures for day %d: %w", matchDay, err)
	}

	out := make([]season.Fixture, 0, len(rows))
	for _, row := range rows {
		out = append(out, seasonFixtureFromRow(row))
	}
	return out, nil
}

func (r *SeasonRepository) LastFinishedMatchDay(ctx context.Context) (int, bool, error) {
	query, args, err := qb.Select("match_day").
		From("season_fixtures").
		Where(qb.Eq("status", season.StatusFinished)).
		OrderBy("match_day DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return 0, false, fmt.Errorf("build last finished query: %w", err)
	}

	var matchDay int
	if err := r.db.GetContext(ctx, &matchDay, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("select last finished match day: %w", err)
	}
	return matchDay, true, nil
}
