package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/IVsB88/read-later-bot/internal/config"
	"github.com/IVsB88/read-later-bot/internal/ratelimit"
	"github.com/IVsB88/read-later-bot/internal/scheduler"
	"github.com/IVsB88/read-later-bot/internal/store"
	"github.com/IVsB88/read-later-bot/internal/telegram"
)

// App owns the process wiring: one store, one limiter, one router, one
// scheduler, all constructed here and passed explicitly.
type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
	repo    store.Repo
	router  *telegram.Router
	sched   *scheduler.Scheduler
	limiter *ratelimit.Limiter
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	// The client timeout bounds every API call, including hung sends. It
	// must exceed the 30s long-poll window used by GetUpdatesChan.
	httpClient := &http.Client{Timeout: 40 * time.Second}
	bot, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	limiter := ratelimit.New(map[ratelimit.Category]ratelimit.Limit{
		ratelimit.CategoryMessages: {Max: cfg.RateLimitMessages, Window: time.Minute},
		ratelimit.CategoryLinks:    {Max: cfg.RateLimitLinks, Window: time.Minute},
	}, log)

	return &App{cfg: cfg, log: log, bot: bot, httpSrv: srv, limiter: limiter}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting read-later-bot", zap.String("http", a.cfg.HTTPAddr))

	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath, a.cfg.DefaultReminderHour)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("sqlite ready", zap.String("path", a.cfg.DBPath))

	a.router = telegram.NewRouter(a.bot, a.log, a.repo, a.limiter, a.cfg.Debug)
	a.sched = scheduler.New(a.repo, a.router, a.log, scheduler.Config{
		DueEvery:    a.cfg.SweepInterval,
		MissedAfter: a.cfg.MissedThreshold,
		SendTimeout: a.cfg.SendTimeout,
		Housekeep:   a.limiter.Cleanup,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	go func() {
		if err := a.sched.Start(ctx); err != nil {
			a.log.Error("scheduler error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")

			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := a.httpSrv.Shutdown(shCtx)
			cancel()

			if err != nil {
				a.log.Warn("http server shutdown error", zap.Error(err))
			}
			if a.repo != nil {
				_ = a.repo.Close()
			}
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}
