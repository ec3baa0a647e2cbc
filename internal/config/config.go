// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bierschi/comunioscore/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string
	LogLevel       logging.Level

	DBURL string

	SofascoreBaseURL             string
	SofascoreTournamentID        int64
	SofascoreSeasonID            int64
	SofascoreTimeout             time.Duration
	SofascoreMaxRetries          int
	SofascoreCircuitEnabled      bool
	SofascoreCircuitFailureCount int
	SofascoreCircuitOpenTimeout  time.Duration
	SofascoreCircuitHalfOpenReq  int

	ComunioBaseURL  string
	ComunioUsername string
	ComunioPassword string
	ComunioTimeout  time.Duration

	TelegramEnabled       bool
	TelegramToken         string
	TelegramChatID        int64
	TelegramSendPerMinute int

	MatchDayCapacity   int
	LivePollInterval   time.Duration
	NotifyEnabled      bool
	ScoringWorkerCount int
	SeasonRefreshEvery time.Duration
	SeasonTickEvery    time.Duration
	RosterSyncEvery    time.Duration

	PprofEnabled bool
	PprofAddr    string

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

func Load() (Config, error) {
	var cfg Config

	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}
	cfg.AppEnv = appEnv
	cfg.ServiceName = getEnv("SERVICE_NAME", "comunioscore")
	cfg.ServiceVersion = getEnv("SERVICE_VERSION", "dev")
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8086")
	cfg.LogLevel = parseLogLevel(getEnv("APP_LOG_LEVEL", "info"))

	cfg.DBURL = strings.TrimSpace(getEnv("DB_URL", ""))

	cfg.SofascoreBaseURL = strings.TrimSpace(getEnv("SOFASCORE_BASE_URL", ""))
	tournamentID, err := getEnvAsInt64("SOFASCORE_TOURNAMENT_ID", 35)
	if err != nil {
		return Config{}, err
	}
	seasonID, err := getEnvAsInt64("SOFASCORE_SEASON_ID", 0)
	if err != nil {
		return Config{}, err
	}
	if seasonID <= 0 {
		return Config{}, fmt.Errorf("SOFASCORE_SEASON_ID is required")
	}
	cfg.SofascoreTournamentID = tournamentID
	cfg.SofascoreSeasonID = seasonID

	cfg.SofascoreTimeout, err = getEnvAsDuration("SOFASCORE_TIMEOUT", "20s")
	if err != nil {
		return Config{}, err
	}
	cfg.SofascoreMaxRetries, err = getEnvAsInt("SOFASCORE_MAX_RETRIES", 3)
	if err != nil {
		return Config{}, err
	}
	cfg.SofascoreCircuitEnabled, err = getEnvAsBool("SOFASCORE_CIRCUIT_ENABLED", "true")
	if err != nil {
		return Config{}, err
	}
	cfg.SofascoreCircuitFailureCount, err = getEnvAsInt("SOFASCORE_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, err
	}
	cfg.SofascoreCircuitOpenTimeout, err = getEnvAsDuration("SOFASCORE_CIRCUIT_OPEN_TIMEOUT", "30s")
	if err != nil {
		return Config{}, err
	}
	cfg.SofascoreCircuitHalfOpenReq, err = getEnvAsInt("SOFASCORE_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, err
	}

	cfg.ComunioBaseURL = strings.TrimSpace(getEnv("COMUNIO_BASE_URL", ""))
	cfg.ComunioUsername = strings.TrimSpace(getEnv("COMUNIO_USERNAME", ""))
	cfg.ComunioPassword = getEnv("COMUNIO_PASSWORD", "")
	if cfg.ComunioUsername == "" || cfg.ComunioPassword == "" {
		return Config{}, fmt.Errorf("COMUNIO_USERNAME and COMUNIO_PASSWORD are required")
	}
	cfg.ComunioTimeout, err = getEnvAsDuration("COMUNIO_TIMEOUT", "20s")
	if err != nil {
		return Config{}, err
	}

	cfg.TelegramEnabled, err = getEnvAsBool("TELEGRAM_ENABLED", "false")
	if err != nil {
		return Config{}, err
	}
	cfg.TelegramToken = strings.TrimSpace(getEnv("TELEGRAM_TOKEN", ""))
	cfg.TelegramChatID, err = getEnvAsInt64("TELEGRAM_CHAT_ID", 0)
	if err != nil {
		return Config{}, err
	}
	if cfg.TelegramEnabled && (cfg.TelegramToken == "" || cfg.TelegramChatID == 0) {
		return Config{}, fmt.Errorf("TELEGRAM_TOKEN and TELEGRAM_CHAT_ID are required when TELEGRAM_ENABLED=true")
	}
	cfg.TelegramSendPerMinute, err = getEnvAsInt("TELEGRAM_SEND_PER_MINUTE", 20)
	if err != nil {
		return Config{}, err
	}

	cfg.MatchDayCapacity, err = getEnvAsInt("MATCH_DAY_CAPACITY", 9)
	if err != nil {
		return Config{}, err
	}
	if cfg.MatchDayCapacity < 1 {
		return Config{}, fmt.Errorf("MATCH_DAY_CAPACITY must be >= 1")
	}
	cfg.LivePollInterval, err = getEnvAsDuration("LIVE_POLL_INTERVAL", "10m")
	if err != nil {
		return Config{}, err
	}
	cfg.NotifyEnabled, err = getEnvAsBool("NOTIFY_ENABLED", "true")
	if err != nil {
		return Config{}, err
	}
	cfg.ScoringWorkerCount, err = getEnvAsInt("SCORING_WORKER_COUNT", 4)
	if err != nil {
		return Config{}, err
	}
	cfg.SeasonRefreshEvery, err = getEnvAsDuration("SEASON_REFRESH_EVERY", "6h")
	if err != nil {
		return Config{}, err
	}
	cfg.SeasonTickEvery, err = getEnvAsDuration("SEASON_TICK_EVERY", "30s")
	if err != nil {
		return Config{}, err
	}
	cfg.RosterSyncEvery, err = getEnvAsDuration("ROSTER_SYNC_EVERY", "24h")
	if err != nil {
		return Config{}, err
	}

	cfg.PprofEnabled, err = getEnvAsBool("PPROF_ENABLED", "false")
	if err != nil {
		return Config{}, err
	}
	cfg.PprofAddr = strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))

	cfg.UptraceEnabled, err = getEnvAsBool("UPTRACE_ENABLED", "false")
	if err != nil {
		return Config{}, err
	}
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	cfg.PyroscopeEnabled, err = getEnvAsBool("PYROSCOPE_ENABLED", "false")
	if err != nil {
		return Config{}, err
	}
	cfg.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	cfg.PyroscopeAppName = getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName)
	cfg.PyroscopeAuthToken = getEnv("PYROSCOPE_AUTH_TOKEN", "")
	cfg.PyroscopeBasicAuthUser = getEnv("PYROSCOPE_BASIC_AUTH_USER", "")
	cfg.PyroscopeBasicAuthPassword = getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")
	cfg.PyroscopeUploadRate, err = getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", "15s")
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func parseAppEnv(v string) (string, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case EnvDev, EnvStage, EnvProd:
		return v, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func getEnvAsBool(key, fallback string) (bool, error) {
	value, err := strconv.ParseBool(getEnv(key, fallback))
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, nil
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvAsInt64(key string, fallback int64) (int64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvAsDuration(key, fallback string) (time.Duration, error) {
	parsed, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return parsed, nil
}
