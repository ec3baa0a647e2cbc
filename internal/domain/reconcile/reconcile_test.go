package reconcile

import (
	"testing"

	"github.com/bierschi/comunioscore/internal/domain/livescore"
	"github.com/bierschi/comunioscore/internal/domain/squad"
)

func TestSplitName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in       string
		forename string
		surname  string
	}{
		{"", "", ""},
		{"Neuer", "", "Neuer"},
		{"J. Meré", "J", "Meré"},
		{"Jorge Meré", "Jorge", "Meré"},
		{"Rafael Santos Borré", "Rafael", "Borré"},
		{"Jan Peter van der Berg", "", ""},
	}
	for _, tc := range cases {
		forename, surname := SplitName(tc.in)
		if forename != tc.forename || surname != tc.surname {
			t.Fatalf("SplitName(%q): got=(%q,%q) want=(%q,%q)", tc.in, forename, surname, tc.forename, tc.surname)
		}
	}
}

func TestStripAccents(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Meré":    "Mere",
		"Köln":    "Koln",
		"Häland":  "Haland",
		"Džeko":   "Dzeko",
		"Schmidt": "Schmidt",
	}
	for in, want := range cases {
		if got := StripAccents(in); got != want {
			t.Fatalf("StripAccents(%q): got=%q want=%q", in, got, want)
		}
	}
}

func TestRatio(t *testing.T) {
	t.Parallel()

	if got := Ratio("Meré", "Meré"); got != 1 {
		t.Fatalf("identical strings: got=%v want=1", got)
	}
	if got := Ratio("", ""); got != 1 {
		t.Fatalf("empty strings: got=%v want=1", got)
	}
	if got := Ratio("abc", "xyz"); got != 0 {
		t.Fatalf("disjoint strings: got=%v want=0", got)
	}

	// Transliterated club names must clear the club threshold.
	if got := Ratio(StripAccents("FC Koeln"), StripAccents("1. FC Köln")); got <= clubRatioMin {
		t.Fatalf("club transliteration ratio too low: %v", got)
	}
}

func fixtureLineup(home, away []livescore.LineupEntry) livescore.MatchLineup {
	return livescore.MatchLineup{Home: home, Away: away}
}

func TestReconcile_AccentAndInitialTolerant(t *testing.T) {
	t.Parallel()

	roster := []squad.RosterEntry{
		{PlayerName: "J. Meré", Position: squad.PositionDefender, ClubName: "1. FC Köln"},
	}
	lineup := fixtureLineup(
		[]livescore.LineupEntry{
			{PlayerName: "Timo Horn", Rating: 6.8, Rated: true},
			{PlayerName: "Jorge Mere", Rating: 7.1, Rated: true},
		},
		nil,
	)

	got := Reconcile(roster, lineup, "1. FC Köln", "Hertha BSC")
	if len(got) != 1 {
		t.Fatalf("reconciled players: got=%d want=1", len(got))
	}
	if got[0].Lineup == nil || got[0].Lineup.PlayerName != "Jorge Mere" {
		t.Fatalf("expected match on Jorge Mere, got %+v", got[0].Lineup)
	}
	if got[0].Side != SideHome {
		t.Fatalf("side: got=%s want=%s", got[0].Side, SideHome)
	}
}

func TestReconcile_TransliteratedClubName(t *testing.T) {
	t.Parallel()

	roster := []squad.RosterEntry{
		{PlayerName: "J. Meré", Position: squad.PositionDefender, ClubName: "FC Koeln"},
	}
	lineup := fixtureLineup(
		[]livescore.LineupEntry{{PlayerName: "Jorge Mere", Rating: 7.1, Rated: true}},
		nil,
	)

	got := Reconcile(roster, lineup, "1. FC Köln", "Hertha BSC")
	if len(got) != 1 || got[0].Lineup == nil {
		t.Fatalf("transliterated club failed to reconcile: %+v", got)
	}
}

func TestReconcile_ForeignClubExcluded(t *testing.T) {
	t.Parallel()

	roster := []squad.RosterEntry{
		{PlayerName: "M. Neuer", Position: squad.PositionKeeper, ClubName: "Bayern München"},
	}
	lineup := fixtureLineup(
		[]livescore.LineupEntry{{PlayerName: "Manuel Neuer", Rating: 7.0, Rated: true}},
		nil,
	)

	got := Reconcile(roster, lineup, "1. FC Köln", "Hertha BSC")
	if len(got) != 0 {
		t.Fatalf("roster entry of uninvolved club must be excluded, got %+v", got)
	}
}

func TestReconcile_UnmatchedPlayerStillReported(t *testing.T) {
	t.Parallel()

	roster := []squad.RosterEntry{
		{PlayerName: "L. Kainz", Position: squad.PositionMidfielder, ClubName: "1. FC Köln"},
	}
	lineup := fixtureLineup(
		[]livescore.LineupEntry{{PlayerName: "Timo Horn", Rating: 6.8, Rated: true}},
		nil,
	)

	got := Reconcile(roster, lineup, "1. FC Köln", "Hertha BSC")
	if len(got) != 1 {
		t.Fatalf("unmatched roster entry must still be reported, got %d entries", len(got))
	}
	if got[0].Lineup != nil || got[0].Side != SideNone {
		t.Fatalf("expected no lineup entry, got %+v", got[0])
	}
}

func TestReconcile_ForenamePrefixGate(t *testing.T) {
	t.Parallel()

	lineup := fixtureLineup(
		[]livescore.LineupEntry{{PlayerName: "Thomas Müller", Rating: 7.7, Rated: true}},
		nil,
	)

	matched := Reconcile(
		[]squad.RosterEntry{{PlayerName: "T. Müller", ClubName: "1. FC Köln"}},
		lineup, "1. FC Köln", "Hertha BSC",
	)
	if matched[0].Lineup == nil {
		t.Fatal("initial matching the forename must reconcile")
	}

	mismatched := Reconcile(
		[]squad.RosterEntry{{PlayerName: "P. Müller", ClubName: "1. FC Köln"}},
		lineup, "1. FC Köln", "Hertha BSC",
	)
	if mismatched[0].Lineup != nil {
		t.Fatal("wrong initial with identical surname must not reconcile")
	}
}

func TestReconcile_AwaySideUsesStricterThreshold(t *testing.T) {
	t.Parallel()

	// "Kovacsik" vs "Kovacsny" has ratio 0.75: above the home threshold,
	// below the away one.
	roster := []squad.RosterEntry{{PlayerName: "Kovacsik", ClubName: "VfL Bochum"}}
	entry := livescore.LineupEntry{PlayerName: "Kovacsny", Rating: 6.5, Rated: true}

	home := Reconcile(roster, fixtureLineup([]livescore.LineupEntry{entry}, nil), "VfL Bochum", "FC Augsburg")
	if home[0].Lineup == nil {
		t.Fatal("ratio 0.75 must match on the home side")
	}

	away := Reconcile(roster, fixtureLineup(nil, []livescore.LineupEntry{entry}), "FC Augsburg", "VfL Bochum")
	if away[0].Lineup != nil {
		t.Fatal("ratio 0.75 must not match on the away side")
	}
}

func TestReconcile_FirstMatchWins(t *testing.T) {
	t.Parallel()

	roster := []squad.RosterEntry{{PlayerName: "Müller", ClubName: "1. FC Köln"}}
	lineup := fixtureLineup(
		[]livescore.LineupEntry{
			{PlayerName: "Anton Müller", Rating: 6.1, Rated: true},
			{PlayerName: "Bernd Müller", Rating: 8.3, Rated: true},
		},
		nil,
	)

	got := Reconcile(roster, lineup, "1. FC Köln", "Hertha BSC")
	if got[0].Lineup == nil || got[0].Lineup.PlayerName != "Anton Müller" {
		t.Fatalf("first lineup match must win, got %+v", got[0].Lineup)
	}
}
