package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/bierschi/comunioscore/internal/domain/squad"
	"github.com/bierschi/comunioscore/internal/platform/logging"
)

// RosterSyncService mirrors the community's participants and squads into
// the squad store once at startup and then on a daily cadence.
type RosterSyncService struct {
	community CommunityProvider
	squadRepo squad.Repository
	interval  time.Duration
	logger    *logging.Logger
}

func NewRosterSyncService(
	community CommunityProvider,
	squadRepo squad.Repository,
	interval time.Duration,
	logger *logging.Logger,
) *RosterSyncService {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &RosterSyncService{
		community: community,
		squadRepo: squadRepo,
		interval:  interval,
		logger:    logger,
	}
}

// Run blocks until the context is cancelled.
func (s *RosterSyncService) Run(ctx context.Context) error {
	if err := s.SyncOnce(ctx); err != nil {
		s.logger.ErrorContext(ctx, "initial roster sync failed", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.SyncOnce(ctx); err != nil {
				s.logger.ErrorContext(ctx, "roster sync failed", "error", err)
			}
		}
	}
}

// SyncOnce fetches all participants and replaces each stored roster.
func (s *RosterSyncService) SyncOnce(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterSyncService.SyncOnce")
	defer span.End()

	participants, err := s.community.Participants(ctx)
	if err != nil {
		return fmt.Errorf("fetch participants: %w", err)
	}

	for _, participant := range participants {
		if err := s.squadRepo.UpsertParticipant(ctx, participant); err != nil {
			s.logger.WarnContext(ctx, "participant upsert failed",
				"participant_id", participant.ID,
				"error", err,
			)
			continue
		}

		roster, err := s.community.Roster(ctx, participant.ID)
		if err != nil {
			s.logger.WarnContext(ctx, "roster fetch failed",
				"participant_id", participant.ID,
				"error", err,
			)
			continue
		}
		if err := s.squadRepo.ReplaceRoster(ctx, participant.ID, roster); err != nil {
			s.logger.WarnContext(ctx, "roster replace failed",
				"participant_id", participant.ID,
				"error", err,
			)
		}
	}

	s.logger.Info("rosters synced", "participants", len(participants))
	return nil
}
