package telegram

import (
	"strings"
	"testing"

	"github.com/bierschi/comunioscore/internal/usecase"
)

func TestRenderPoints(t *testing.T) {
	got := renderPoints(12, []usecase.ParticipantPoints{
		{DisplayName: "Eins", Points: 21},
		{DisplayName: "Zwei", Points: 9},
	})

	if !strings.Contains(got, "Match day 12") {
		t.Errorf("missing header: %q", got)
	}
	if !strings.Contains(got, "1. Eins: 21") || !strings.Contains(got, "2. Zwei: 9") {
		t.Errorf("missing rows: %q", got)
	}
}

func TestRenderPointsEmpty(t *testing.T) {
	got := renderPoints(3, nil)
	if !strings.Contains(got, "match day 3") {
		t.Errorf("unexpected empty rendering: %q", got)
	}
}
