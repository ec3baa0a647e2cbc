package sofascore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/bierschi/comunioscore/internal/domain/livescore"
	"github.com/bierschi/comunioscore/internal/domain/season"
	"github.com/bierschi/comunioscore/internal/platform/logging"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(ClientConfig{
		BaseURL:      server.URL,
		TournamentID: 35,
		SeasonID:     23538,
		Logger:       logging.NewNop(),
	})
}

func TestSeasonFixturesMapping(t *testing.T) {
	payload := `{"events":[
		{"id":101,"startTimestamp":1756555800,
		 "roundInfo":{"round":1},
		 "homeTeam":{"name":"1. FC Köln"},"awayTeam":{"name":"Hertha BSC"},
		 "status":{"type":"finished"},
		 "homeScore":{"current":2},"awayScore":{"current":1}},
		{"id":102,"startTimestamp":1756642200,
		 "roundInfo":{"round":2},
		 "homeTeam":{"name":"FC Bayern"},"awayTeam":{"name":"BVB"},
		 "status":{"type":"notstarted"}}
	]}`
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/unique-tournament/35/season/23538/events" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(payload))
	}))

	fixtures, err := client.SeasonFixtures(context.Background())
	if err != nil {
		t.Fatalf("SeasonFixtures: %v", err)
	}
	if len(fixtures) != 2 {
		t.Fatalf("got %d fixtures, want 2", len(fixtures))
	}

	first := fixtures[0]
	if first.MatchID != 101 || first.MatchDay != 1 {
		t.Errorf("fixture identity: %+v", first)
	}
	if first.HomeTeam != "1. FC Köln" || first.AwayTeam != "Hertha BSC" {
		t.Errorf("fixture teams: %+v", first)
	}
	if !season.IsFinishedStatus(first.Status) {
		t.Errorf("status: got %q", first.Status)
	}
	if first.HomeScore == nil || *first.HomeScore != 2 {
		t.Errorf("home score: %+v", first.HomeScore)
	}
	if fixtures[1].HomeScore != nil {
		t.Errorf("unplayed fixture must have nil score: %+v", fixtures[1])
	}
}

func TestLineupAndIncidentMapping(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/event/101/lineups":
			w.Write([]byte(`{
				"home":{"players":[
					{"player":{"name":"Jorge Meré"},"substitute":false,"statistics":{"rating":7.3}},
					{"player":{"name":"Ohne Note"},"substitute":true,"statistics":{}}
				]},
				"away":{"players":[
					{"player":{"name":"Max Roth"},"substitute":false,"statistics":{"rating":6.1}}
				]}
			}`))
		case "/event/101/incidents":
			w.Write([]byte(`{"incidents":[
				{"incidentType":"goal","incidentClass":"regular","isHome":true,"player":{"name":"Jorge Meré"}},
				{"incidentType":"goal","incidentClass":"ownGoal","isHome":true,"player":{"name":"Jorge Meré"}},
				{"incidentType":"card","incidentClass":"yellow","isHome":false,"player":{"name":"Max Roth"}},
				{"incidentType":"card","incidentClass":"red","isHome":false,"player":{"name":"Max Roth"}},
				{"incidentType":"period","incidentClass":""}
			]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	lineup, err := client.Lineup(context.Background(), 101)
	if err != nil {
		t.Fatalf("Lineup: %v", err)
	}

	if len(lineup.Home) != 2 || len(lineup.Away) != 1 {
		t.Fatalf("lineup sizes: home=%d away=%d", len(lineup.Home), len(lineup.Away))
	}
	if !lineup.Home[0].Rated || lineup.Home[0].Rating != 7.3 {
		t.Errorf("rated player: %+v", lineup.Home[0])
	}
	if lineup.Home[1].Rated {
		t.Errorf("player without rating must be unrated: %+v", lineup.Home[1])
	}

	// Own goal and plain yellow are not scorable and must be dropped.
	if len(lineup.HomeIncidents) != 1 {
		t.Fatalf("home incidents: %+v", lineup.HomeIncidents)
	}
	if lineup.HomeIncidents[0].Class != livescore.ClassRegularGoal {
		t.Errorf("home incident class: %+v", lineup.HomeIncidents[0])
	}
	if len(lineup.AwayIncidents) != 1 || lineup.AwayIncidents[0].Class != livescore.ClassRed {
		t.Fatalf("away incidents: %+v", lineup.AwayIncidents)
	}
}

func TestLineupSurvivesIncidentFetchFailure(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/event/101/lineups":
			w.Write([]byte(`{"home":{"players":[{"player":{"name":"A"},"statistics":{"rating":6.8}}]},"away":{"players":[]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	lineup, err := client.Lineup(context.Background(), 101)
	if err != nil {
		t.Fatalf("Lineup: %v", err)
	}
	if len(lineup.Home) != 1 || len(lineup.HomeIncidents) != 0 {
		t.Fatalf("unexpected lineup %+v", lineup)
	}
}

func TestIsFinished(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"event":{"id":101,"status":{"type":"finished"}}}`))
	}))

	finished, err := client.IsFinished(context.Background(), 101)
	if err != nil {
		t.Fatalf("IsFinished: %v", err)
	}
	if !finished {
		t.Fatal("got finished=false, want true")
	}
}

func TestRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"event":{"id":101,"status":{"type":"inprogress"}}}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		BaseURL:    server.URL,
		MaxRetries: 1,
		Logger:     logging.NewNop(),
	})

	finished, err := client.IsFinished(context.Background(), 101)
	if err != nil {
		t.Fatalf("IsFinished after retry: %v", err)
	}
	if finished {
		t.Fatal("got finished=true, want false")
	}
	if calls.Load() != 2 {
		t.Fatalf("got %d calls, want 2", calls.Load())
	}
}
