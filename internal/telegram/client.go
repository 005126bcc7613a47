package telegram

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"

	"github.com/pavelc4/clipnova-tg-bot/config"
	"github.com/pavelc4/clipnova-tg-bot/pkg/logger"
)

type Client struct {
	client     *telegram.Client
	api        *tg.Client
	dispatcher tg.UpdateDispatcher
	me         *tg.User
}

func NewClient(cfg *config.Config, dispatcher tg.UpdateDispatcher, log *zap.Logger) (*Client, error) {
	if err := os.MkdirAll(cfg.SessionDir, 0o700); err != nil {
		return nil, errors.Wrap(err, "create session dir")
	}
	sessionPath := filepath.Join(cfg.SessionDir, "session.json")

	opts := telegram.Options{
		Logger:         log,
		SessionStorage: &session.FileStorage{Path: sessionPath},
		UpdateHandler:  dispatcher,
	}

	client := telegram.NewClient(cfg.AppID, cfg.AppHash, opts)

	return &Client{
		client:     client,
		api:        client.API(),
		dispatcher: dispatcher,
	}, nil
}

// Start logs in as the bot and blocks until ctx is done. ready runs once
// the bot is authorized.
func (c *Client) Start(ctx context.Context, botToken string, ready func(ctx context.Context)) error {
	return c.client.Run(ctx, func(ctx context.Context) error {
		status, err := c.client.Auth().Status(ctx)
		if err != nil {
			return errors.Wrap(err, "auth status")
		}

		if !status.Authorized {
			if _, err := c.client.Auth().Bot(ctx, botToken); err != nil {
				return errors.Wrap(err, "bot login")
			}
		}

		me, err := c.client.Self(ctx)
		if err != nil {
			return errors.Wrap(err, "get self")
		}
		c.me = me

		logger.Info("Telegram client connected", "username", me.Username, "id", me.ID)
		if ready != nil {
			ready(ctx)
		}

		<-ctx.Done()
		return nil
	})
}

func (c *Client) API() *tg.Client {
	return c.api
}

func (c *Client) Me() *tg.User {
	return c.me
}
