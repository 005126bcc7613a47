package bot

import (
	"context"
	"strings"

	"github.com/gotd/td/tg"

	"github.com/pavelc4/clipnova-tg-bot/internal/extractor"
	"github.com/pavelc4/clipnova-tg-bot/internal/handler"
	"github.com/pavelc4/clipnova-tg-bot/pkg/logger"
)

type Router struct {
	handler *handler.Handler
}

func NewRouter(h *handler.Handler) *Router {
	return &Router{handler: h}
}

// OnMessage is the entry point for new private and group messages.
func (r *Router) OnMessage(ctx context.Context, e tg.Entities, update *tg.UpdateNewMessage) error {
	msg, ok := update.Message.(*tg.Message)
	if !ok {
		return nil
	}
	if err := r.HandleMessage(ctx, e, msg); err != nil {
		logger.Error("HandleMessage failed", "error", err)
		return err
	}
	return nil
}

func (r *Router) OnCallback(ctx context.Context, e tg.Entities, update *tg.UpdateBotCallbackQuery) error {
	if err := r.handler.HandleCallback(ctx, e, update); err != nil {
		logger.Error("HandleCallback failed", "error", err)
		return err
	}
	return nil
}

func (r *Router) HandleMessage(ctx context.Context, e tg.Entities, msg *tg.Message) error {
	if msg.Out {
		return nil
	}
	logger.Debug("HandleMessage called", "id", msg.ID, "text", msg.Message)

	switch Command(msg.Message) {
	case "start":
		return r.handler.HandleStart(ctx, e, msg)
	case "help":
		return r.handler.HandleHelp(ctx, e, msg)
	case "cancel":
		return r.handler.HandleCancel(ctx, e, msg)
	case "stats":
		return r.handler.HandleStats(ctx, e, msg)
	case "":
	default:
		return nil
	}

	if extractor.LooksLikeVideoLink(msg.Message) {
		return r.handler.HandleLink(ctx, e, msg)
	}
	return nil
}

// Command returns the command name of text without the leading slash and
// any @botname suffix, or "" when text is not a command.
func Command(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	cmd := strings.TrimPrefix(fields[0], "/")
	if idx := strings.Index(cmd, "@"); idx != -1 {
		cmd = cmd[:idx]
	}
	return strings.ToLower(cmd)
}
