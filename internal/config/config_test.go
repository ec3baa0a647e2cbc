package config

import (
	"testing"
	"time"

	"github.com/bierschi/comunioscore/internal/platform/logging"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SOFASCORE_SEASON_ID", "23538")
	t.Setenv("COMUNIO_USERNAME", "manager")
	t.Setenv("COMUNIO_PASSWORD", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AppEnv != EnvDev {
		t.Errorf("AppEnv: got %q", cfg.AppEnv)
	}
	if cfg.HTTPAddr != ":8086" {
		t.Errorf("HTTPAddr: got %q", cfg.HTTPAddr)
	}
	if cfg.MatchDayCapacity != 9 {
		t.Errorf("MatchDayCapacity: got %d", cfg.MatchDayCapacity)
	}
	if cfg.LivePollInterval != 10*time.Minute {
		t.Errorf("LivePollInterval: got %v", cfg.LivePollInterval)
	}
	if cfg.LogLevel != logging.LevelInfo {
		t.Errorf("LogLevel: got %v", cfg.LogLevel)
	}
	if cfg.SofascoreTournamentID != 35 {
		t.Errorf("SofascoreTournamentID: got %d", cfg.SofascoreTournamentID)
	}
}

func TestLoadRejectsMissingSeasonID(t *testing.T) {
	t.Setenv("COMUNIO_USERNAME", "manager")
	t.Setenv("COMUNIO_PASSWORD", "secret")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing SOFASCORE_SEASON_ID")
	}
}

func TestLoadRejectsInvalidAppEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "production")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid APP_ENV")
	}
}

func TestTelegramRequiresTokenAndChat(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TELEGRAM_ENABLED", "true")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for enabled telegram without token")
	}

	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200300")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TelegramChatID != -100200300 {
		t.Errorf("TelegramChatID: got %d", cfg.TelegramChatID)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MATCH_DAY_CAPACITY", "18")
	t.Setenv("LIVE_POLL_INTERVAL", "90s")
	t.Setenv("APP_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MatchDayCapacity != 18 {
		t.Errorf("MatchDayCapacity: got %d", cfg.MatchDayCapacity)
	}
	if cfg.LivePollInterval != 90*time.Second {
		t.Errorf("LivePollInterval: got %v", cfg.LivePollInterval)
	}
	if cfg.LogLevel != logging.LevelDebug {
		t.Errorf("LogLevel: got %v", cfg.LogLevel)
	}
}
