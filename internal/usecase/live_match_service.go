package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/valyala/bytebufferpool"

	"github.com/bierschi/comunioscore/internal/domain/livescore"
	"github.com/bierschi/comunioscore/internal/domain/reconcile"
	"github.com/bierschi/comunioscore/internal/domain/season"
	"github.com/bierschi/comunioscore/internal/domain/squad"
	"github.com/bierschi/comunioscore/internal/platform/logging"
)

const (
	defaultPollInterval = 10 * time.Minute
	defaultWorkerCount  = 4
)

type LiveMatchConfig struct {
	PollInterval  time.Duration
	NotifyEnabled bool
	WorkerCount   int
}

// LiveMatchService drives one live-tracking session per fired fixture task:
// it polls lineup and incident data, reconciles every participant's roster
// against it, recomputes match scores and publishes summaries until the
// match finishes.
type LiveMatchService struct {
	fixtures   FixtureProvider
	lineups    LineupProvider
	seasonRepo season.Repository
	squadRepo  squad.Repository
	scoreRepo  livescore.Repository
	notifier   Notifier
	logger     *logging.Logger
	now        func() time.Time

	// pool is shared by every live session for the service's lifetime; nil
	// means the pool could not be built and scoring runs sequentially.
	pool *ants.Pool

	mu            sync.Mutex
	pollInterval  time.Duration
	notifyEnabled bool

	freezeMu       sync.Mutex
	frozenMatchDay int
}

func NewLiveMatchService(
	fixtures FixtureProvider,
	lineups LineupProvider,
	seasonRepo season.Repository,
	squadRepo squad.Repository,
	scoreRepo livescore.Repository,
	notifier Notifier,
	cfg LiveMatchConfig,
	logger *logging.Logger,
) *LiveMatchService {
	if notifier == nil {
		notifier = NewNoopNotifier()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = defaultWorkerCount
	}

	pool, err := ants.NewPool(cfg.WorkerCount)
	if err != nil {
		logger.Warn("worker pool unavailable, scoring sequentially", "error", err)
		pool = nil
	}

	return &LiveMatchService{
		fixtures:      fixtures,
		lineups:       lineups,
		seasonRepo:    seasonRepo,
		squadRepo:     squadRepo,
		scoreRepo:     scoreRepo,
		notifier:      notifier,
		logger:        logger,
		now:           time.Now,
		pool:          pool,
		pollInterval:  cfg.PollInterval,
		notifyEnabled: cfg.NotifyEnabled,
	}
}

// Close releases the scoring pool. Live sessions must have ended.
func (s *LiveMatchService) Close() {
	if s.pool != nil {
		s.pool.Release()
	}
}

func (s *LiveMatchService) PollInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pollInterval
}

// SetPollInterval adjusts the sleep between polls; the community can tune
// the update rate through the bot.
func (s *LiveMatchService) SetPollInterval(interval time.Duration) {
	if interval <= 0 {
		return
	}
	s.mu.Lock()
	s.pollInterval = interval
	s.mu.Unlock()
}

func (s *LiveMatchService) notify() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notifyEnabled
}

// Run is the session control loop for one match. It is entered by a fired
// scheduler task and returns once the match reports finished or the context
// is cancelled. A failing poll never terminates the session, and an
// unavailable finished signal counts as "still running".
func (s *LiveMatchService) Run(ctx context.Context, matchDay int, matchID int64, homeTeam, awayTeam string) {
	logger := s.logger.With("match_id", matchID, "match_day", matchDay)
	logger.Info("live tracking started", "home_team", homeTeam, "away_team", awayTeam)

	s.freezeRosters(ctx, matchDay, logger)

	for {
		s.poll(ctx, matchDay, matchID, homeTeam, awayTeam, logger)

		finished, err := s.fixtures.IsFinished(ctx, matchID)
		if err != nil {
			// Keep polling rather than truncating a live match.
			logger.WarnContext(ctx, "finished check unavailable", "error", err)
			finished = false
		}
		if finished {
			break
		}

		select {
		case <-ctx.Done():
			logger.Info("live tracking cancelled")
			return
		case <-time.After(s.PollInterval()):
		}
	}

	s.publishFinal(ctx, matchDay, matchID, homeTeam, awayTeam, logger)
	logger.Info("live tracking finished")
}

// freezeRosters triggers the match-day-wide roster freeze at most once, no
// matter how many sessions of the same match day call it.
func (s *LiveMatchService) freezeRosters(ctx context.Context, matchDay int, logger *logging.Logger) {
	s.freezeMu.Lock()
	defer s.freezeMu.Unlock()

	if s.frozenMatchDay == matchDay {
		return
	}
	if err := s.squadRepo.FreezeLineupForMatchDay(ctx); err != nil {
		logger.ErrorContext(ctx, "roster freeze failed", "error", err)
		return
	}
	s.frozenMatchDay = matchDay
	logger.Info("rosters frozen for match day")
}

type participantScore struct {
	displayName string
	score       livescore.MatchScore
	lines       []string
}

// poll runs one fetch/reconcile/persist cycle. Errors are logged and the
// cycle is skipped; the session stays alive for the next tick.
func (s *LiveMatchService) poll(ctx context.Context, matchDay int, matchID int64, homeTeam, awayTeam string, logger *logging.Logger) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LiveMatchService.poll")
	defer span.End()

	lineup, err := s.lineups.Lineup(ctx, matchID)
	if err != nil {
		logger.WarnContext(ctx, "lineup fetch failed", "error", err)
		return
	}

	participants, err := s.squadRepo.ListEligibleForMatchDay(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "list participants failed", "error", err)
		return
	}

	results := make([]participantScore, len(participants))
	run := func(i int) {
		results[i] = s.scoreParticipant(ctx, participants[i], lineup, matchDay, matchID, homeTeam, awayTeam, logger)
	}

	if s.pool == nil {
		for i := range participants {
			run(i)
		}
	} else {
		var wg sync.WaitGroup
		for i := range participants {
			i := i
			wg.Add(1)
			if err := s.pool.Submit(func() {
				defer wg.Done()
				run(i)
			}); err != nil {
				wg.Done()
				run(i)
			}
		}
		wg.Wait()
	}

	if s.notify() {
		text := renderMatchSummary(matchDay, homeTeam, awayTeam, results, false)
		if err := s.notifier.Publish(ctx, text); err != nil {
			logger.WarnContext(ctx, "summary publish failed", "error", err)
		}
	}
}

// scoreParticipant recomputes a participant's score for this match from the
// full lineup and incident snapshot. Recomputing from scratch every poll
// keeps the persisted score idempotent under repeated incident lists.
func (s *LiveMatchService) scoreParticipant(
	ctx context.Context,
	participant squad.Participant,
	lineup livescore.MatchLineup,
	matchDay int,
	matchID int64,
	homeTeam, awayTeam string,
	logger *logging.Logger,
) participantScore {
	roster := make([]squad.RosterEntry, 0, len(participant.Roster))
	for _, entry := range participant.Roster {
		if entry.LineupEligible {
			roster = append(roster, entry)
		}
	}

	reconciled := reconcile.Reconcile(roster, lineup, homeTeam, awayTeam)
	score := livescore.MatchScore{
		ParticipantID: participant.ID,
		MatchID:       matchID,
		MatchDay:      matchDay,
	}

	lines := make([]string, 0, len(reconciled))
	for _, player := range reconciled {
		if player.Lineup == nil {
			lines = append(lines, fmt.Sprintf("%s: not in lineup", player.Roster.PlayerName))
			continue
		}

		ratingLabel := "–"
		if player.Lineup.Rated {
			points, err := livescore.PointsFromRating(player.Lineup.Rating)
			if err != nil {
				logger.ErrorContext(ctx, "rating outside scoring table",
					"player", player.Lineup.PlayerName,
					"rating", player.Lineup.Rating,
				)
			} else {
				score.RatingPoints += points
				ratingLabel = fmt.Sprintf("%.1f", player.Lineup.Rating)
			}
		}

		incidents := lineup.HomeIncidents
		if player.Side == reconcile.SideAway {
			incidents = lineup.AwayIncidents
		}
		for _, incident := range incidents {
			if incident.PlayerName != player.Lineup.PlayerName {
				continue
			}
			points, err := livescore.PointsForIncident(incident, player.Roster.Position)
			if err != nil {
				logger.ErrorContext(ctx, "unscorable incident",
					"player", incident.PlayerName,
					"incident_type", incident.Type,
					"incident_class", incident.Class,
				)
				continue
			}
			if incident.Type == livescore.IncidentGoal {
				score.GoalPoints += points
			} else {
				score.CardPoints += points
			}
		}

		lines = append(lines, fmt.Sprintf("%s (%s)", player.Lineup.PlayerName, ratingLabel))
	}

	if err := s.scoreRepo.UpsertMatchScore(ctx, score); err != nil {
		logger.ErrorContext(ctx, "match score upsert failed",
			"participant_id", participant.ID,
			"error", err,
		)
	}

	return participantScore{
		displayName: participant.DisplayName,
		score:       score,
		lines:       lines,
	}
}

func (s *LiveMatchService) publishFinal(ctx context.Context, matchDay int, matchID int64, homeTeam, awayTeam string, logger *logging.Logger) {
	scores, err := s.scoreRepo.ListByMatchDay(ctx, matchDay)
	if err != nil {
		logger.ErrorContext(ctx, "final score load failed", "error", err)
		return
	}

	names, err := s.participantNames(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "participant lookup failed", "error", err)
		return
	}

	results := make([]participantScore, 0, len(scores))
	for _, score := range scores {
		if score.MatchID != matchID {
			continue
		}
		results = append(results, participantScore{
			displayName: names[score.ParticipantID],
			score:       score,
		})
	}

	text := renderMatchSummary(matchDay, homeTeam, awayTeam, results, true)
	if err := s.notifier.Publish(ctx, text); err != nil {
		logger.WarnContext(ctx, "final summary publish failed", "error", err)
	}
}

// ParticipantPoints is one row of the match day standings.
type ParticipantPoints struct {
	ParticipantID string
	DisplayName   string
	Points        int
}

// PointsSummary totals every participant's scores for a match day, ordered
// by points descending.
func (s *LiveMatchService) PointsSummary(ctx context.Context, matchDay int) ([]ParticipantPoints, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LiveMatchService.PointsSummary")
	defer span.End()

	scores, err := s.scoreRepo.ListByMatchDay(ctx, matchDay)
	if err != nil {
		return nil, fmt.Errorf("list match scores for day %d: %w", matchDay, err)
	}

	names, err := s.participantNames(ctx)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]int)
	for _, score := range scores {
		totals[score.ParticipantID] += score.Total()
	}

	out := make([]ParticipantPoints, 0, len(totals))
	for participantID, points := range totals {
		out = append(out, ParticipantPoints{
			ParticipantID: participantID,
			DisplayName:   names[participantID],
			Points:        points,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].DisplayName < out[j].DisplayName
	})
	return out, nil
}

// CurrentMatchDay is the match day currently being played or tracked next.
func (s *LiveMatchService) CurrentMatchDay(ctx context.Context) (int, error) {
	last, ok, err := s.seasonRepo.LastFinishedMatchDay(ctx)
	if err != nil {
		return 0, fmt.Errorf("last finished match day: %w", err)
	}
	if !ok {
		return 1, nil
	}
	return last + 1, nil
}

func (s *LiveMatchService) participantNames(ctx context.Context) (map[string]string, error) {
	participants, err := s.squadRepo.ListEligibleForMatchDay(ctx)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	names := make(map[string]string, len(participants))
	for _, participant := range participants {
		names[participant.ID] = participant.DisplayName
	}
	return names, nil
}

func renderMatchSummary(matchDay int, homeTeam, awayTeam string, results []participantScore, final bool) string {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score.Total() > results[j].score.Total()
	})

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if final {
		fmt.Fprintf(buf, "*Full-time: %s vs. %s* (match day %d)\n", homeTeam, awayTeam, matchDay)
	} else {
		fmt.Fprintf(buf, "*%s vs. %s* (match day %d)\n", homeTeam, awayTeam, matchDay)
	}
	for _, result := range results {
		fmt.Fprintf(buf, "*%s*: %d (rating %d / goals %d / cards %d)\n",
			result.displayName,
			result.score.Total(),
			result.score.RatingPoints,
			result.score.GoalPoints,
			result.score.CardPoints,
		)
		if len(result.lines) > 0 {
			fmt.Fprintf(buf, "  %s\n", strings.Join(result.lines, ", "))
		}
	}
	return buf.String()
}
