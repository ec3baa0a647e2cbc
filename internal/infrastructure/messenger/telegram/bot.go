// Package telegram publishes live score updates to a community chat and
// answers a small set of commands.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"github.com/bierschi/comunioscore/internal/platform/logging"
	"github.com/bierschi/comunioscore/internal/usecase"
)

type Config struct {
	Token       string
	ChatID      int64
	PollTimeout time.Duration
	// QueueSize bounds the outbox; a full queue drops the newest update
	// rather than blocking a live session.
	QueueSize int
	// SendPerMinute throttles outgoing messages below Telegram's flood
	// limits.
	SendPerMinute int
}

// PointsService is the slice of the live match service the bot commands
// need.
type PointsService interface {
	PointsSummary(ctx context.Context, matchDay int) ([]usecase.ParticipantPoints, error)
	CurrentMatchDay(ctx context.Context) (int, error)
	SetPollInterval(interval time.Duration)
	PollInterval() time.Duration
}

type Bot struct {
	bot     *tele.Bot
	chat    *tele.Chat
	points  PointsService
	logger  *logging.Logger
	outbox  chan string
	limiter *rate.Limiter
	dropped atomic.Uint64

	stopOnce sync.Once
	done     chan struct{}
}

func New(cfg Config, points PointsService, logger *logging.Logger) (*Bot, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if logger == nil {
		logger = logging.Default()
	}

	pollTimeout := cfg.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 10 * time.Second
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 64
	}
	sendPerMinute := cfg.SendPerMinute
	if sendPerMinute <= 0 {
		sendPerMinute = 20
	}

	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: pollTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	bot := &Bot{
		bot:     b,
		chat:    &tele.Chat{ID: cfg.ChatID},
		points:  points,
		logger:  logger,
		outbox:  make(chan string, queueSize),
		limiter: rate.NewLimiter(rate.Limit(float64(sendPerMinute)/60.0), 1),
		done:    make(chan struct{}),
	}
	bot.registerHandlers()
	return bot, nil
}

// Start runs the send worker and the long poller until the context ends.
func (b *Bot) Start(ctx context.Context) {
	go b.sendWorker(ctx)
	go func() {
		<-ctx.Done()
		b.Stop()
	}()
	b.bot.Start()
}

func (b *Bot) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)
		b.bot.Stop()
	})
}

// Publish enqueues an update for the community chat. It never blocks; when
// the outbox is full the update is dropped and counted.
func (b *Bot) Publish(_ context.Context, text string) error {
	select {
	case b.outbox <- text:
		return nil
	default:
		dropped := b.dropped.Add(1)
		b.logger.Warn("telegram outbox full, update dropped", "dropped_total", dropped)
		return nil
	}
}

// sendWorker is the single writer towards the Telegram API. The rate
// limiter spaces messages out; send failures are logged and the update is
// lost rather than retried into the flood limit.
func (b *Bot) sendWorker(ctx context.Context) {
	for {
		select {
		case <-b.done:
			return
		case text := <-b.outbox:
			if err := b.limiter.Wait(ctx); err != nil {
				return
			}
			if _, err := b.bot.Send(b.chat, text, tele.ModeMarkdown); err != nil {
				b.logger.Warn("telegram send failed", "error", err)
			}
		}
	}
}

func (b *Bot) registerHandlers() {
	b.bot.Handle("/points", func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		matchDay := 0
		if args := c.Args(); len(args) > 0 {
			parsed, err := strconv.Atoi(args[0])
			if err != nil || parsed < 1 {
				return c.Send("usage: /points [matchday]")
			}
			matchDay = parsed
		}
		if matchDay == 0 {
			current, err := b.points.CurrentMatchDay(ctx)
			if err != nil {
				b.logger.Warn("current match day lookup failed", "error", err)
				return c.Send("points are unavailable right now")
			}
			matchDay = current
		}

		summary, err := b.points.PointsSummary(ctx, matchDay)
		if err != nil {
			b.logger.Warn("points summary failed", "match_day", matchDay, "error", err)
			return c.Send("points are unavailable right now")
		}
		return c.Send(renderPoints(matchDay, summary), tele.ModeMarkdown)
	})

	b.bot.Handle("/msg_rate", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			interval := b.points.PollInterval()
			return c.Send(fmt.Sprintf("updates every %s", interval))
		}

		minutes, err := strconv.Atoi(args[0])
		if err != nil || minutes < 1 {
			return c.Send("usage: /msg_rate <minutes>")
		}
		b.points.SetPollInterval(time.Duration(minutes) * time.Minute)
		return c.Send(fmt.Sprintf("updates every %dm from now on", minutes))
	})
}

func renderPoints(matchDay int, summary []usecase.ParticipantPoints) string {
	if len(summary) == 0 {
		return fmt.Sprintf("no points recorded for match day %d yet", matchDay)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "*Match day %d standings*\n", matchDay)
	for rank, row := range summary {
		fmt.Fprintf(&sb, "%d. %s: %d\n", rank+1, row.DisplayName, row.Points)
	}
	return sb.String()
}
