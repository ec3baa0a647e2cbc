package postgres

import (
	"database/sql"
	"time"

	"github.com/bierschi/comunioscore/internal/domain/season"
)

type seasonFixtureTableModel struct {
	MatchDay  int           `db:"match_day"`
	MatchID   int64         `db:"match_id"`
	HomeTeam  string        `db:"home_team"`
	AwayTeam  string        `db:"away_team"`
	KickoffAt time.Time     `db:"kickoff_at"`
	Status    string        `db:"status"`
	HomeScore sql.NullInt64 `db:"home_score"`
	AwayScore sql.NullInt64 `db:"away_score"`
}

func seasonFixtureFromRow(row seasonFixtureTableModel) season.Fixture {
	return season.Fixture{
		MatchDay:  row.MatchDay,
		MatchID:   row.MatchID,
		HomeTeam:  row.HomeTeam,
		AwayTeam:  row.AwayTeam,
		StartAt:   row.KickoffAt,
		Status:    row.Status,
		HomeScore: nullInt64ToIntPtr(row.HomeScore),
		AwayScore: nullInt64ToIntPtr(row.AwayScore),
	}
}

func seasonFixtureToRow(fixture season.Fixture) seasonFixtureTableModel {
	return seasonFixtureTableModel{
		MatchDay:  fixture.MatchDay,
		MatchID:   fixture.MatchID,
		HomeTeam:  fixture.HomeTeam,
		AwayTeam:  fixture.AwayTeam,
		KickoffAt: fixture.StartAt,
		Status:    season.NormalizeStatus(fixture.Status),
		HomeScore: intPtrToNullInt64(fixture.HomeScore),
		AwayScore: intPtrToNullInt64(fixture.AwayScore),
	}
}

func nullInt64ToIntPtr(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int64)
	return &v
}

func intPtrToNullInt64(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}
