package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	"github.com/bierschi/comunioscore/external/comunio"
	"github.com/bierschi/comunioscore/external/sofascore"
	"github.com/bierschi/comunioscore/internal/config"
	"github.com/bierschi/comunioscore/internal/domain/livescore"
	"github.com/bierschi/comunioscore/internal/domain/season"
	"github.com/bierschi/comunioscore/internal/domain/squad"
	"github.com/bierschi/comunioscore/internal/infrastructure/messenger/telegram"
	"github.com/bierschi/comunioscore/internal/infrastructure/repository/memory"
	"github.com/bierschi/comunioscore/internal/infrastructure/repository/postgres"
	"github.com/bierschi/comunioscore/internal/interfaces/httpapi"
	"github.com/bierschi/comunioscore/internal/platform/logging"
	"github.com/bierschi/comunioscore/internal/platform/resilience"
	"github.com/bierschi/comunioscore/internal/platform/scheduler"
	"github.com/bierschi/comunioscore/internal/usecase"
)

// App owns the full service graph: repositories, external clients, the
// match scheduler, the sync loops, the Telegram bot and the HTTP API.
type App struct {
	cfg    config.Config
	logger *logging.Logger

	db    *sqlx.DB
	sched *scheduler.Scheduler

	live       *usecase.LiveMatchService
	seasonSync *usecase.SeasonSyncService
	rosterSync *usecase.RosterSyncService
	bot        *telegram.Bot
	server     *http.Server
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	var (
		db         *sqlx.DB
		seasonRepo season.Repository
		squadRepo  squad.Repository
		scoreRepo  livescore.Repository
	)
	if strings.TrimSpace(cfg.DBURL) != "" {
		var err error
		db, err = openDatabase(cfg.DBURL)
		if err != nil {
			return nil, crerr.Wrap(err, "open database")
		}
		seasonRepo = postgres.NewSeasonRepository(db)
		squadRepo = postgres.NewSquadRepository(db)
		scoreRepo = postgres.NewScoreRepository(db)
	} else {
		logger.Warn("DB_URL is empty, running on in-memory stores")
		seasonRepo = memory.NewSeasonStore()
		squadRepo = memory.NewSquadStore()
		scoreRepo = memory.NewScoreStore()
	}

	sofa := sofascore.NewClient(sofascore.ClientConfig{
		BaseURL:      cfg.SofascoreBaseURL,
		TournamentID: cfg.SofascoreTournamentID,
		SeasonID:     cfg.SofascoreSeasonID,
		Timeout:      cfg.SofascoreTimeout,
		MaxRetries:   cfg.SofascoreMaxRetries,
		Logger:       logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.SofascoreCircuitEnabled,
			FailureThreshold: cfg.SofascoreCircuitFailureCount,
			OpenTimeout:      cfg.SofascoreCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.SofascoreCircuitHalfOpenReq,
		},
	})

	community := comunio.NewClient(comunio.ClientConfig{
		BaseURL:  cfg.ComunioBaseURL,
		Username: cfg.ComunioUsername,
		Password: cfg.ComunioPassword,
		Timeout:  cfg.ComunioTimeout,
		Logger:   logger,
	})

	// The live service publishes through the relay so the bot can be
	// constructed after it; the bot's commands read back through the live
	// service.
	relay := &publishRelay{}
	live := usecase.NewLiveMatchService(
		sofa,
		sofa,
		seasonRepo,
		squadRepo,
		scoreRepo,
		relay,
		usecase.LiveMatchConfig{
			PollInterval:  cfg.LivePollInterval,
			NotifyEnabled: cfg.NotifyEnabled,
			WorkerCount:   cfg.ScoringWorkerCount,
		},
		logger,
	)

	sched := scheduler.New(logger)
	schedule := usecase.NewMatchScheduleService(sched, cfg.MatchDayCapacity, logger)

	seasonSync := usecase.NewSeasonSyncService(
		sofa,
		seasonRepo,
		schedule,
		live,
		usecase.SeasonSyncConfig{
			RefreshInterval: cfg.SeasonRefreshEvery,
			TickInterval:    cfg.SeasonTickEvery,
		},
		logger,
	)
	rosterSync := usecase.NewRosterSyncService(community, squadRepo, cfg.RosterSyncEvery, logger)

	var bot *telegram.Bot
	if cfg.TelegramEnabled {
		b, err := telegram.New(telegram.Config{
			Token:         cfg.TelegramToken,
			ChatID:        cfg.TelegramChatID,
			SendPerMinute: cfg.TelegramSendPerMinute,
		}, live, logger)
		if err != nil {
			sched.Close()
			if db != nil {
				_ = db.Close()
			}
			return nil, crerr.Wrap(err, "telegram bot")
		}
		bot = b
		relay.set(b)
	}

	handler := httpapi.NewHandler(live, seasonRepo, logger)
	server := httpapi.NewServer(cfg.HTTPAddr, httpapi.NewRouter(handler, logger))

	return &App{
		cfg:        cfg,
		logger:     logger,
		db:         db,
		sched:      sched,
		live:       live,
		seasonSync: seasonSync,
		rosterSync: rosterSync,
		bot:        bot,
		server:     server,
	}, nil
}

// Run starts every long-running component and blocks until the context is
// cancelled or the HTTP server fails to serve.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.bot != nil {
		go a.bot.Start(ctx)
	}

	go func() {
		if err := a.seasonSync.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.ErrorContext(ctx, "season sync stopped", "error", err)
		}
	}()
	go func() {
		if err := a.rosterSync.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.ErrorContext(ctx, "roster sync stopped", "error", err)
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-serveErr:
		return crerr.Wrap(err, "http server")
	}
}

// Shutdown stops the HTTP server, the bot, the scheduler and the database
// connection in that order.
func (a *App) Shutdown(ctx context.Context) error {
	var firstErr error

	if err := a.server.Shutdown(ctx); err != nil {
		firstErr = crerr.Wrap(err, "http shutdown")
	}
	if a.bot != nil {
		a.bot.Stop()
	}
	a.sched.Close()
	a.live.Close()
	if a.db != nil {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = crerr.Wrap(err, "close database")
		}
	}

	return firstErr
}

// publishRelay breaks the construction cycle between the live match service
// and the Telegram bot. Publishing before a target is attached is a no-op.
type publishRelay struct {
	mu     sync.RWMutex
	target usecase.Notifier
}

func (r *publishRelay) set(target usecase.Notifier) {
	r.mu.Lock()
	r.target = target
	r.mu.Unlock()
}

func (r *publishRelay) Publish(ctx context.Context, text string) error {
	r.mu.RLock()
	target := r.target
	r.mu.RUnlock()
	if target == nil {
		return nil
	}
	return target.Publish(ctx, text)
}

var _ usecase.Notifier = (*publishRelay)(nil)
