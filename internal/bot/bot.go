package bot

import (
	"context"

	"github.com/pavelc4/clipnova-tg-bot/internal/telegram"
)

type Bot struct {
	client *telegram.Client
	router *Router
}

func New(client *telegram.Client, router *Router) *Bot {
	return &Bot{
		client: client,
		router: router,
	}
}

// Run blocks until ctx is done. ready runs once the bot is logged in.
func (b *Bot) Run(ctx context.Context, token string, ready func(ctx context.Context)) error {
	return b.client.Start(ctx, token, ready)
}
