package handler

import (
	"context"
	"fmt"

	"github.com/gotd/td/tg"

	"github.com/pavelc4/clipnova-tg-bot/internal/flow"
	"github.com/pavelc4/clipnova-tg-bot/internal/stats"
	"github.com/pavelc4/clipnova-tg-bot/internal/telegram"
	"github.com/pavelc4/clipnova-tg-bot/pkg/logger"
)

// Conversation is the chat a handler answers in.
type Conversation interface {
	flow.Conversation
	Reply(ctx context.Context, styled string, hideKeyboard bool) error
	Edit(ctx context.Context, msgID int, styled string) error
}

type Options struct {
	OwnerID     int64
	DownloadDir string
}

type Handler struct {
	machine *flow.Machine
	peers   *telegram.Peers
	stats   *stats.Recorder
	opts    Options

	newChat func(peer tg.InputPeerClass, replyTo int) Conversation
	answer  func(ctx context.Context, queryID int64, text string) error
}

func New(client *telegram.Client, machine *flow.Machine, peers *telegram.Peers, recorder *stats.Recorder, opts Options) *Handler {
	api := client.API()
	return &Handler{
		machine: machine,
		peers:   peers,
		stats:   recorder,
		opts:    opts,
		newChat: func(peer tg.InputPeerClass, replyTo int) Conversation {
			return telegram.NewChat(api, peer, replyTo)
		},
		answer: func(ctx context.Context, queryID int64, text string) error {
			return telegram.AnswerCallback(ctx, api, queryID, text)
		},
	}
}

func (h *Handler) chatFor(e tg.Entities, msg *tg.Message) (Conversation, error) {
	peer, err := h.peers.Resolve(msg.PeerID, e)
	if err != nil {
		return nil, fmt.Errorf("resolve peer: %w", err)
	}
	return h.newChat(peer, msg.ID), nil
}

func (h *Handler) HandleStart(ctx context.Context, e tg.Entities, msg *tg.Message) error {
	chat, err := h.chatFor(e, msg)
	if err != nil {
		return err
	}
	logger.Info("User started the bot", "user_id", telegram.SenderID(msg))
	return chat.Reply(ctx, telegram.StartText(), true)
}

func (h *Handler) HandleHelp(ctx context.Context, e tg.Entities, msg *tg.Message) error {
	chat, err := h.chatFor(e, msg)
	if err != nil {
		return err
	}
	return chat.Reply(ctx, telegram.HelpText(), true)
}

func (h *Handler) HandleCancel(ctx context.Context, e tg.Entities, msg *tg.Message) error {
	chat, err := h.chatFor(e, msg)
	if err != nil {
		return err
	}
	h.machine.Cancel(telegram.SenderID(msg))
	return chat.Reply(ctx, telegram.StatusText(flow.StatusCancelled), false)
}

// HandleLink starts a request for the link in msg. Failures are answered
// in the chat and never returned.
func (h *Handler) HandleLink(ctx context.Context, e tg.Entities, msg *tg.Message) error {
	chat, err := h.chatFor(e, msg)
	if err != nil {
		return err
	}
	userID := telegram.SenderID(msg)

	if err := h.machine.Start(ctx, userID, msg.Message, chat); err != nil {
		logFailure("start", userID, err)
		if replyErr := chat.Reply(ctx, UserMessage(err), false); replyErr != nil {
			logger.Error("Failed to report failure", "user_id", userID, "error", replyErr)
		}
	}
	return nil
}

// HandleCallback answers a button press. The press is acknowledged before
// any work starts; a confirmed download can run for a long time.
func (h *Handler) HandleCallback(ctx context.Context, e tg.Entities, update *tg.UpdateBotCallbackQuery) error {
	if err := h.answer(ctx, update.QueryID, ""); err != nil {
		logger.Warn("Failed to answer callback", "query_id", update.QueryID, "error", err)
	}

	peer, err := h.peers.Resolve(update.Peer, e)
	if err != nil {
		return fmt.Errorf("resolve peer: %w", err)
	}
	chat := h.newChat(peer, 0)
	userID := update.UserID
	msgID := update.MsgID

	action, arg := telegram.ParseCallback(update.Data)
	switch action {
	case telegram.ActionSelect:
		err = h.machine.Select(ctx, userID, arg, msgID, chat)
	case telegram.ActionConfirm:
		err = h.machine.Confirm(ctx, userID, msgID, chat)
	case telegram.ActionCancel:
		h.machine.Cancel(userID)
		return chat.Edit(ctx, msgID, telegram.StatusText(flow.StatusCancelled))
	default:
		logger.Debug("Unknown callback data", "user_id", userID, "data", string(update.Data))
		return nil
	}
	if err == nil {
		return nil
	}

	logFailure("callback", userID, err)
	if replacesPrompt(err) {
		err = chat.Edit(ctx, msgID, UserMessage(err))
	} else {
		err = chat.Reply(ctx, UserMessage(err), false)
	}
	if err != nil {
		logger.Error("Failed to report failure", "user_id", userID, "error", err)
	}
	return nil
}
