package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/bierschi/comunioscore/internal/domain/squad"
	"github.com/bierschi/comunioscore/internal/infrastructure/repository/memory"
	"github.com/bierschi/comunioscore/internal/platform/logging"
)

type communityProviderMock struct {
	mock.Mock
}

func (m *communityProviderMock) Participants(ctx context.Context) ([]squad.Participant, error) {
	args := m.Called(ctx)
	participants, _ := args.Get(0).([]squad.Participant)
	return participants, args.Error(1)
}

func (m *communityProviderMock) Roster(ctx context.Context, participantID string) ([]squad.RosterEntry, error) {
	args := m.Called(ctx, participantID)
	roster, _ := args.Get(0).([]squad.RosterEntry)
	return roster, args.Error(1)
}

func TestSyncOnceMirrorsParticipantsAndRosters(t *testing.T) {
	ctx := context.Background()
	community := &communityProviderMock{}
	store := memory.NewSquadStore()

	community.
		On("Participants", mock.Anything).
		Return([]squad.Participant{
			{ID: "101", DisplayName: "Alice"},
			{ID: "102", DisplayName: "Bob"},
		}, nil).
		Once()
	community.
		On("Roster", mock.Anything, "101").
		Return([]squad.RosterEntry{
			{PlayerName: "Thomas Berger", Position: squad.PositionMidfielder, ClubName: "Team A", LineupEligible: true},
		}, nil).
		Once()
	community.
		On("Roster", mock.Anything, "102").
		Return([]squad.RosterEntry{
			{PlayerName: "Jonas Keller", Position: squad.PositionForward, ClubName: "Team B", LineupEligible: true},
		}, nil).
		Once()

	svc := NewRosterSyncService(community, store, 0, logging.NewNop())
	if err := svc.SyncOnce(ctx); err != nil {
		t.Fatalf("sync once: %v", err)
	}
	community.AssertExpectations(t)

	participants, err := store.ListEligibleForMatchDay(ctx)
	if err != nil {
		t.Fatalf("list participants: %v", err)
	}
	if len(participants) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(participants))
	}
	if participants[0].ID != "101" || len(participants[0].Roster) != 1 {
		t.Fatalf("unexpected first participant %+v", participants[0])
	}
	if participants[0].Roster[0].PlayerName != "Thomas Berger" {
		t.Fatalf("unexpected roster entry %+v", participants[0].Roster[0])
	}
}

func TestSyncOnceSkipsFailingRoster(t *testing.T) {
	ctx := context.Background()
	community := &communityProviderMock{}
	store := memory.NewSquadStore()

	community.
		On("Participants", mock.Anything).
		Return([]squad.Participant{
			{ID: "101", DisplayName: "Alice"},
			{ID: "102", DisplayName: "Bob"},
		}, nil).
		Once()
	community.
		On("Roster", mock.Anything, "101").
		Return(nil, errors.New("squad endpoint down")).
		Once()
	community.
		On("Roster", mock.Anything, "102").
		Return([]squad.RosterEntry{
			{PlayerName: "Jonas Keller", Position: squad.PositionForward, ClubName: "Team B", LineupEligible: true},
		}, nil).
		Once()

	svc := NewRosterSyncService(community, store, 0, logging.NewNop())
	if err := svc.SyncOnce(ctx); err != nil {
		t.Fatalf("sync once: %v", err)
	}
	community.AssertExpectations(t)

	participants, err := store.ListEligibleForMatchDay(ctx)
	if err != nil {
		t.Fatalf("list participants: %v", err)
	}
	if len(participants) != 2 {
		t.Fatalf("both participants should be stored, got %d", len(participants))
	}
	if len(participants[0].Roster) != 0 {
		t.Fatalf("failed roster should stay empty, got %+v", participants[0].Roster)
	}
	if len(participants[1].Roster) != 1 {
		t.Fatalf("second roster should survive, got %+v", participants[1].Roster)
	}
}

func TestSyncOnceFailsWhenParticipantsUnavailable(t *testing.T) {
	community := &communityProviderMock{}
	community.
		On("Participants", mock.Anything).
		Return(nil, errors.New("login rejected")).
		Once()

	svc := NewRosterSyncService(community, memory.NewSquadStore(), 0, logging.NewNop())
	if err := svc.SyncOnce(context.Background()); err == nil {
		t.Fatal("expected error when participants cannot be fetched")
	}
	community.AssertExpectations(t)
}
