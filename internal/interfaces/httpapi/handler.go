package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bierschi/comunioscore/internal/domain/season"
	"github.com/bierschi/comunioscore/internal/platform/logging"
	"github.com/bierschi/comunioscore/internal/usecase"
)

type Handler struct {
	live       *usecase.LiveMatchService
	seasonRepo season.Repository
	logger     *logging.Logger
	validator  *validator.Validate
}

func NewHandler(live *usecase.LiveMatchService, seasonRepo season.Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		live:       live,
		seasonRepo: seasonRepo,
		logger:     logger,
		validator:  validator.New(),
	}
}

type matchDayParams struct {
	MatchDay int `validate:"gte=1,lte=50"`
}

func (h *Handler) matchDayFromPath(r *http.Request) (int, bool) {
	raw := r.PathValue("matchday")
	matchDay, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	if err := h.validator.Struct(matchDayParams{MatchDay: matchDay}); err != nil {
		return 0, false
	}
	return matchDay, true
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Health")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

type pointsResponse struct {
	MatchDay int         `json:"matchDay"`
	Rows     []pointsRow `json:"rows"`
}

type pointsRow struct {
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	Points        int    `json:"points"`
}

func (h *Handler) Points(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Points")
	defer span.End()

	matchDay, ok := h.matchDayFromPath(r)
	if !ok {
		writeError(ctx, w, http.StatusBadRequest, "matchday must be a number between 1 and 50")
		return
	}

	summary, err := h.live.PointsSummary(ctx, matchDay)
	if err != nil {
		h.logger.ErrorContext(ctx, "points summary failed", "match_day", matchDay, "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "points are unavailable")
		return
	}

	rows := make([]pointsRow, 0, len(summary))
	for _, row := range summary {
		rows = append(rows, pointsRow{
			ParticipantID: row.ParticipantID,
			DisplayName:   row.DisplayName,
			Points:        row.Points,
		})
	}
	writeSuccess(ctx, w, http.StatusOK, pointsResponse{MatchDay: matchDay, Rows: rows})
}

type fixtureResponse struct {
	MatchDay  int       `json:"matchDay"`
	MatchID   int64     `json:"matchId"`
	HomeTeam  string    `json:"homeTeam"`
	AwayTeam  string    `json:"awayTeam"`
	KickoffAt time.Time `json:"kickoffAt"`
	Status    string    `json:"status"`
	HomeScore *int      `json:"homeScore,omitempty"`
	AwayScore *int      `json:"awayScore,omitempty"`
}

func (h *Handler) Fixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Fixtures")
	defer span.End()

	matchDay, ok := h.matchDayFromPath(r)
	if !ok {
		writeError(ctx, w, http.StatusBadRequest, "matchday must be a number between 1 and 50")
		return
	}

	fixtures, err := h.seasonRepo.ListByMatchDay(ctx, matchDay)
	if err != nil {
		h.logger.ErrorContext(ctx, "fixture listing failed", "match_day", matchDay, "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "fixtures are unavailable")
		return
	}

	out := make([]fixtureResponse, 0, len(fixtures))
	for _, fixture := range fixtures {
		out = append(out, fixtureResponse{
			MatchDay:  fixture.MatchDay,
			MatchID:   fixture.MatchID,
			HomeTeam:  fixture.HomeTeam,
			AwayTeam:  fixture.AwayTeam,
			KickoffAt: fixture.StartAt,
			Status:    fixture.Status,
			HomeScore: fixture.HomeScore,
			AwayScore: fixture.AwayScore,
		})
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}
