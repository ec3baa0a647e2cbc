// Package comunio implements the fantasy community provider against the
// Comunio API. It logs in with resource-owner credentials and exposes the
// community's participants and squads.
package comunio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/bierschi/comunioscore/internal/domain/squad"
	"github.com/bierschi/comunioscore/internal/platform/logging"
	"github.com/bierschi/comunioscore/internal/platform/resilience"
)

const (
	defaultBaseURL = "https://api.comunio.de"
	tokenSlack     = 30 * time.Second
)

var (
	// ErrAuthExpired marks a rejected access token. The client re-logs in
	// and retries once before surfacing the error.
	ErrAuthExpired = crerr.New("comunio auth expired")

	errComunioTransient = crerr.New("comunio transient failure")
)

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	Username   string
	Password   string
	Timeout    time.Duration
	Retry      resilience.RetryConfig
	Logger     *logging.Logger
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	username   string
	password   string
	retryCfg   resilience.RetryConfig
	logger     *logging.Logger
	now        func() time.Time

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
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

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		username:   cfg.Username,
		password:   cfg.Password,
		retryCfg:   resilience.NormalizeRetryConfig(cfg.Retry),
		logger:     logger,
		now:        time.Now,
	}
}

// Participants lists the community standings as participants.
func (c *Client) Participants(ctx context.Context) ([]squad.Participant, error) {
	var envelope standingsEnvelope
	if err := c.getJSON(ctx, "/standings", &envelope); err != nil {
		return nil, fmt.Errorf("fetch standings: %w", err)
	}

	out := make([]squad.Participant, 0, len(envelope.Items))
	for _, item := range envelope.Items {
		if item.ID == 0 {
			continue
		}
		out = append(out, squad.Participant{
			ID:          strconv.FormatInt(item.ID, 10),
			DisplayName: item.Name,
		})
	}
	return out, nil
}

// Roster fetches a participant's latest squad.
func (c *Client) Roster(ctx context.Context, participantID string) ([]squad.RosterEntry, error) {
	var envelope squadEnvelope
	path := fmt.Sprintf("/users/%s/squad-latest", url.PathEscape(participantID))
	if err := c.getJSON(ctx, path, &envelope); err != nil {
		return nil, fmt.Errorf("fetch squad %s: %w", participantID, err)
	}

	out := make([]squad.RosterEntry, 0, len(envelope.Items))
	for _, item := range envelope.Items {
		position, ok := squad.ParsePosition(item.Position)
		if !ok {
			c.logger.WarnContext(ctx, "unknown squad position, skipping player",
				"participant_id", participantID,
				"player", item.Name,
				"position", item.Position,
			)
			continue
		}
		out = append(out, squad.RosterEntry{
			PlayerName:     item.Name,
			Position:       position,
			ClubName:       item.Club.Name,
			LineupEligible: item.LinedUp,
		})
	}
	return out, nil
}

// getJSON performs an authenticated GET. An expired token triggers one
// re-login; transient failures go through the shared retry policy.
func (c *Client) getJSON(ctx context.Context, path string, target any) error {
	retryable := func(err error) bool {
		return crerr.Is(err, errComunioTransient) || crerr.Is(err, ErrAuthExpired)
	}
	return resilience.Retry(ctx, c.retryCfg, retryable, func(ctx context.Context) error {
		token, err := c.ensureToken(ctx)
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		req.Header.Set("authorization", "Bearer "+token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: send request: %v", errComunioTransient, err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return fmt.Errorf("%w: read response body: %v", errComunioTransient, err)
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			c.invalidateToken()
			return crerr.Wrapf(ErrAuthExpired, "status=%d", resp.StatusCode)
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: provider status=%d", errComunioTransient, resp.StatusCode)
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return fmt.Errorf("provider status=%d", resp.StatusCode)
		}

		if err := sonic.Unmarshal(raw, target); err != nil {
			return fmt.Errorf("decode provider payload: %w", err)
		}
		return nil
	})
}

func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && c.now().Add(tokenSlack).Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", c.username)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("content-type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: login: %v", errComunioTransient, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read login response: %v", errComunioTransient, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("login rejected status=%d", resp.StatusCode)
	}

	var token tokenEnvelope
	if err := sonic.Unmarshal(raw, &token); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("login response carries no access token")
	}

	c.accessToken = token.AccessToken
	c.tokenExpiry = c.now().Add(time.Duration(token.ExpiresIn) * time.Second)
	c.logger.Info("comunio login succeeded", "expires_in", token.ExpiresIn)
	return c.accessToken, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.accessToken = ""
	c.mu.Unlock()
}

type tokenEnvelope struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type standingsEnvelope struct {
	Items []standingItem `json:"items"`
}

type standingItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type squadEnvelope struct {
	Items []squadItem `json:"items"`
}

type squadItem struct {
	Name     string   `json:"name"`
	Position string   `json:"position"`
	LinedUp  bool     `json:"linedUp"`
	Club     clubItem `json:"club"`
}

type clubItem struct {
	Name string `json:"name"`
}
