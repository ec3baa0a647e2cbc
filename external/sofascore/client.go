// Package sofascore implements the live match data provider against the
// Sofascore public API. It serves both the season fixture list and the
// per-match lineup and incident snapshots.
package sofascore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/bierschi/comunioscore/internal/domain/livescore"
	"github.com/bierschi/comunioscore/internal/domain/season"
	"github.com/bierschi/comunioscore/internal/platform/logging"
	"github.com/bierschi/comunioscore/internal/platform/resilience"
	"github.com/bierschi/comunioscore/internal/usecase"
)

const defaultBaseURL = "https://api.sofascore.com/api/v1"

var errSofascoreTransient = crerr.New("sofascore transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	TournamentID   int64
	SeasonID       int64
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	tournamentID   int64
	seasonID       int64
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		tournamentID:   cfg.TournamentID,
		seasonID:       cfg.SeasonID,
		maxRetries:     maxRetries,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// SeasonFixtures fetches the whole season's fixture list, ordered by round.
func (c *Client) SeasonFixtures(ctx context.Context) ([]season.Fixture, error) {
	path := fmt.Sprintf("/unique-tournament/%d/season/%d/events", c.tournamentID, c.seasonID)

	var envelope eventsEnvelope
	if err := c.doJSON(ctx, path, &envelope); err != nil {
		return nil, fmt.Errorf("fetch season events: %w", err)
	}

	out := make([]season.Fixture, 0, len(envelope.Events))
	for _, event := range envelope.Events {
		if event.ID <= 0 {
			continue
		}
		out = append(out, mapEventToFixture(event))
	}
	return out, nil
}

// IsFinished reports whether the provider marks the match as finished.
func (c *Client) IsFinished(ctx context.Context, matchID int64) (bool, error) {
	path := fmt.Sprintf("/event/%d", matchID)

	var envelope eventEnvelope
	if err := c.doJSON(ctx, path, &envelope); err != nil {
		return false, fmt.Errorf("fetch event %d: %w", matchID, err)
	}
	return season.IsFinishedStatus(envelope.Event.Status.Type), nil
}

// Lineup fetches both teams' fielded players plus the goal and card
// incidents recorded so far.
func (c *Client) Lineup(ctx context.Context, matchID int64) (livescore.MatchLineup, error) {
	var lineups lineupsEnvelope
	if err := c.doJSON(ctx, fmt.Sprintf("/event/%d/lineups", matchID), &lineups); err != nil {
		return livescore.MatchLineup{}, fmt.Errorf("fetch lineups %d: %w", matchID, err)
	}

	out := livescore.MatchLineup{
		Home: mapLineupPlayers(lineups.Home.Players),
		Away: mapLineupPlayers(lineups.Away.Players),
	}

	var incidents incidentsEnvelope
	if err := c.doJSON(ctx, fmt.Sprintf("/event/%d/incidents", matchID), &incidents); err != nil {
		// Incidents appear later than lineups for a fresh match; an empty
		// incident list is a valid snapshot.
		c.logger.WarnContext(ctx, "incident fetch failed, scoring lineup only",
			"match_id", matchID,
			"error", err,
		)
		return out, nil
	}

	home, away := mapIncidents(incidents.Incidents)
	out.HomeIncidents = home
	out.AwayIncidents = away
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, path string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "sofascore circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: live data provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	fullURL := c.baseURL + path
	out, err, _ := c.flight.Do(path, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errSofascoreTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode provider payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errSofascoreTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errSofascoreTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: provider status=%d", errSofascoreTransient, resp.StatusCode)
			default:
				return nil, fmt.Errorf("provider status=%d", resp.StatusCode)
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "sofascore request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
