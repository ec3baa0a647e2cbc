package postgres

import "github.com/bierschi/comunioscore/internal/domain/livescore"

type matchScoreTableModel struct {
	ParticipantID string `db:"participant_id"`
	MatchID       int64  `db:"match_id"`
	MatchDay      int    `db:"match_day"`
	RatingPoints  int    `db:"rating_points"`
	GoalPoints    int    `db:"goal_points"`
	CardPoints    int    `db:"card_points"`
}

func matchScoreFromRow(row matchScoreTableModel) livescore.MatchScore {
	return livescore.MatchScore{
		ParticipantID: row.ParticipantID,
		MatchID:       row.MatchID,
		MatchDay:      row.MatchDay,
		RatingPoints:  row.RatingPoints,
		GoalPoints:    row.GoalPoints,
		CardPoints:    row.CardPoints,
	}
}

func matchScoreToRow(score livescore.MatchScore) matchScoreTableModel {
	return matchScoreTableModel{
		ParticipantID: score.ParticipantID,
		MatchID:       score.MatchID,
		MatchDay:      score.MatchDay,
		RatingPoints:  score.RatingPoints,
		GoalPoints:    score.GoalPoints,
		CardPoints:    score.CardPoints,
	}
}
