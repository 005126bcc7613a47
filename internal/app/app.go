package app

import (
	"context"
	"os"
	"time"

	"github.com/gotd/td/tg"

	"github.com/pavelc4/clipnova-tg-bot/config"
	"github.com/pavelc4/clipnova-tg-bot/internal/bot"
	"github.com/pavelc4/clipnova-tg-bot/internal/catalog"
	"github.com/pavelc4/clipnova-tg-bot/internal/delivery"
	"github.com/pavelc4/clipnova-tg-bot/internal/extractor"
	"github.com/pavelc4/clipnova-tg-bot/internal/flow"
	"github.com/pavelc4/clipnova-tg-bot/internal/handler"
	"github.com/pavelc4/clipnova-tg-bot/internal/limiter"
	"github.com/pavelc4/clipnova-tg-bot/internal/middleware"
	"github.com/pavelc4/clipnova-tg-bot/internal/session"
	"github.com/pavelc4/clipnova-tg-bot/internal/stats"
	"github.com/pavelc4/clipnova-tg-bot/internal/telegram"
	"github.com/pavelc4/clipnova-tg-bot/pkg/logger"
	"github.com/pavelc4/clipnova-tg-bot/pkg/utils"
)

type App struct {
	Bot *bot.Bot
	Cfg *config.Config

	store *session.Store
	peers *telegram.Peers
}

func New(cfg *config.Config) (*App, error) {
	logger.SetLevel(cfg.LogLevel)

	if err := os.MkdirAll(cfg.DownloadDir, 0o755); err != nil {
		return nil, err
	}

	ex := extractor.NewYtDlp(extractor.Options{
		SocketTimeout: cfg.SocketTimeout,
		Retries:       cfg.ExtractorRetries,
		Cookies:       cfg.YtdlpCookies,
	})
	store := session.NewStore()
	machine := flow.NewMachine(
		store,
		catalog.NewBuilder(ex, cfg.CatalogCacheTTL),
		ex,
		limiter.New(cfg.MaxConcurrentDownloads),
		delivery.New(cfg.FileDeleteRetries, cfg.FileDeleteDelay),
		flow.Options{
			DownloadDir:      cfg.DownloadDir,
			DownloadTimeout:  cfg.DownloadTimeout,
			ProgressInterval: cfg.ProgressInterval,
		},
	)
	recorder := stats.NewRecorder()
	machine.SetMetrics(recorder)

	zapLog, err := logger.NewZap(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	dispatcher := tg.NewUpdateDispatcher()

	client, err := telegram.NewClient(cfg, dispatcher, zapLog)
	if err != nil {
		return nil, err
	}

	peers := telegram.NewPeers(cfg.SessionTTL)
	h := handler.New(client, machine, peers, recorder, handler.Options{
		OwnerID:     cfg.OwnerID,
		DownloadDir: cfg.DownloadDir,
	})
	router := bot.NewRouter(h)

	// Updates run on their own goroutines: a download must not hold up
	// anyone else's messages.
	dispatcher.OnNewMessage(func(ctx context.Context, e tg.Entities, update *tg.UpdateNewMessage) error {
		handle := func() {
			if err := router.OnMessage(ctx, e, update); err != nil {
				logger.Error("OnMessage failed", "error", err)
			}
		}
		go middleware.Chain(handle, middleware.Recover, middleware.Logger("OnNewMessage"))()
		return nil
	})

	dispatcher.OnBotCallbackQuery(func(ctx context.Context, e tg.Entities, update *tg.UpdateBotCallbackQuery) error {
		handle := func() {
			if err := router.OnCallback(ctx, e, update); err != nil {
				logger.Error("OnCallback failed", "error", err)
			}
		}
		go middleware.Chain(handle, middleware.Recover, middleware.Logger("OnBotCallbackQuery"))()
		return nil
	})

	logger.Info("Application initialized successfully",
		"max_downloads", cfg.MaxConcurrentDownloads,
		"download_dir", cfg.DownloadDir,
	)
	return &App{
		Bot:   bot.New(client, router),
		Cfg:   cfg,
		store: store,
		peers: peers,
	}, nil
}

// Start prepares the download directory and the extractor, then runs the
// bot until ctx is done.
func (a *App) Start(ctx context.Context) error {
	if n := utils.SweepDir(ctx, a.Cfg.DownloadDir); n > 0 {
		logger.Info("Removed leftovers from a previous run", "entries", n)
	}

	if a.Cfg.YtdlpAutoInstall {
		start := time.Now()
		if err := extractor.Install(ctx); err != nil {
			return err
		}
		logger.InfoWithDuration("Extractor install checked", start)
	}

	return a.Bot.Run(ctx, a.Cfg.BotToken, func(ctx context.Context) {
		go a.store.RunEviction(ctx, a.Cfg.SessionTTL)
		go a.sweepPeers(ctx)
	})
}

func (a *App) sweepPeers(ctx context.Context) {
	if a.Cfg.SessionTTL <= 0 {
		return
	}
	ticker := time.NewTicker(a.Cfg.SessionTTL)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.peers.Sweep()
		}
	}
}
