package telegram

import (
	"context"
	"mime"
	"path/filepath"
	"time"

	"github.com/go-faster/errors"
	"github.com/gotd/td/telegram/uploader"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"

	"github.com/pavelc4/clipnova-tg-bot/internal/delivery"
	"github.com/pavelc4/clipnova-tg-bot/internal/extractor"
	"github.com/pavelc4/clipnova-tg-bot/internal/flow"
	"github.com/pavelc4/clipnova-tg-bot/internal/session"
	"github.com/pavelc4/clipnova-tg-bot/pkg/logger"
)

// Chat is one conversation with a user. It implements flow.Conversation.
type Chat struct {
	api     *tg.Client
	peer    tg.InputPeerClass
	replyTo int
}

// NewChat binds a chat to peer. New messages reply to replyTo when it is
// non-zero.
func NewChat(api *tg.Client, peer tg.InputPeerClass, replyTo int) *Chat {
	return &Chat{api: api, peer: peer, replyTo: replyTo}
}

func (c *Chat) replyHeader() tg.InputReplyToClass {
	if c.replyTo == 0 {
		return nil
	}
	return &tg.InputReplyToMessage{ReplyToMsgID: c.replyTo}
}

func (c *Chat) send(ctx context.Context, styled string, markup tg.ReplyMarkupClass) (int, error) {
	text, entities := Render(styled)
	req := &tg.MessagesSendMessageRequest{
		Peer:     c.peer,
		Message:  text,
		Entities: entities,
		RandomID: time.Now().UnixNano(),
	}
	if r := c.replyHeader(); r != nil {
		req.ReplyTo = r
	}
	if markup != nil {
		req.ReplyMarkup = markup
	}
	updates, err := c.api.MessagesSendMessage(ctx, req)
	if err != nil {
		logFloodWait(err)
		return 0, errors.Wrap(err, "send message")
	}
	return MessageID(updates), nil
}

func (c *Chat) edit(ctx context.Context, msgID int, styled string, markup tg.ReplyMarkupClass) error {
	text, entities := Render(styled)
	req := &tg.MessagesEditMessageRequest{
		Peer:     c.peer,
		ID:       msgID,
		Message:  text,
		Entities: entities,
	}
	if markup != nil {
		req.ReplyMarkup = markup
	}
	if _, err := c.api.MessagesEditMessage(ctx, req); err != nil {
		if tgerr.Is(err, "MESSAGE_NOT_MODIFIED") {
			return nil
		}
		logFloodWait(err)
		return errors.Wrap(err, "edit message")
	}
	return nil
}

// Reply sends styled text. hideKeyboard removes any custom reply keyboard
// the user still has open.
func (c *Chat) Reply(ctx context.Context, styled string, hideKeyboard bool) error {
	var markup tg.ReplyMarkupClass
	if hideKeyboard {
		markup = &tg.ReplyKeyboardHide{}
	}
	_, err := c.send(ctx, styled, markup)
	return err
}

// Edit replaces the text of msgID and drops its buttons.
func (c *Chat) Edit(ctx context.Context, msgID int, styled string) error {
	return c.edit(ctx, msgID, styled, nil)
}

func (c *Chat) PostStatus(ctx context.Context, st flow.Status) (int, error) {
	return c.send(ctx, StatusText(st), nil)
}

func (c *Chat) EditStatus(ctx context.Context, msgID int, st flow.Status) error {
	return c.edit(ctx, msgID, StatusText(st), nil)
}

func (c *Chat) ShowVideo(ctx context.Context, v session.VideoMetadata) error {
	if v.Thumbnail == "" {
		return nil
	}
	text, entities := Render(VideoCaption(v))
	_, err := c.api.MessagesSendMedia(ctx, &tg.MessagesSendMediaRequest{
		Peer:     c.peer,
		Media:    &tg.InputMediaPhotoExternal{URL: v.Thumbnail},
		Message:  text,
		Entities: entities,
		RandomID: time.Now().UnixNano(),
	})
	if err != nil {
		logFloodWait(err)
		return errors.Wrap(err, "send thumbnail")
	}
	return nil
}

func (c *Chat) ShowFormats(ctx context.Context, v session.VideoMetadata, formats []*session.FormatOption) error {
	_, err := c.send(ctx, FormatsPrompt(), FormatKeyboard(formats))
	return err
}

func (c *Chat) ShowConfirmation(ctx context.Context, msgID int, v session.VideoMetadata, f *session.FormatOption) error {
	return c.edit(ctx, msgID, ConfirmationText(v, f), ConfirmKeyboard())
}

func (c *Chat) ShowProgress(ctx context.Context, msgID int, p extractor.Progress) error {
	return c.edit(ctx, msgID, ProgressText(p), nil)
}

type uploadProgress func(uploaded, total int64)

func (f uploadProgress) Chunk(ctx context.Context, state uploader.ProgressState) error {
	f(state.Uploaded, state.Total)
	return nil
}

func (c *Chat) SendVideo(ctx context.Context, v delivery.Video) error {
	up := uploader.NewUploader(c.api)
	if v.OnUpload != nil {
		up = up.WithProgress(uploadProgress(v.OnUpload))
	}

	file, err := up.FromPath(ctx, v.Path)
	if err != nil {
		logFloodWait(err)
		return errors.Wrap(err, "upload video")
	}

	mimeType := mime.TypeByExtension(filepath.Ext(v.Filename))
	if mimeType == "" {
		mimeType = "video/mp4"
	}

	text, entities := Render(DeliveryCaption(v))
	req := &tg.MessagesSendMediaRequest{
		Peer: c.peer,
		Media: &tg.InputMediaUploadedDocument{
			File:     file,
			MimeType: mimeType,
			Attributes: []tg.DocumentAttributeClass{
				&tg.DocumentAttributeVideo{
					SupportsStreaming: true,
					Duration:          v.Duration.Seconds(),
					H:                 v.Height,
					W:                 v.Height * 16 / 9,
				},
				&tg.DocumentAttributeFilename{FileName: v.Filename},
			},
		},
		Message:  text,
		Entities: entities,
		RandomID: time.Now().UnixNano(),
	}
	if r := c.replyHeader(); r != nil {
		req.ReplyTo = r
	}
	if _, err := c.api.MessagesSendMedia(ctx, req); err != nil {
		logFloodWait(err)
		return errors.Wrap(err, "send video")
	}
	return nil
}

// AnswerCallback acknowledges a button press. text, when set, shows as a
// toast.
func AnswerCallback(ctx context.Context, api *tg.Client, queryID int64, text string) error {
	_, err := api.MessagesSetBotCallbackAnswer(ctx, &tg.MessagesSetBotCallbackAnswerRequest{
		QueryID: queryID,
		Message: text,
	})
	if err != nil && !tgerr.Is(err, "QUERY_ID_INVALID") {
		return errors.Wrap(err, "answer callback")
	}
	return nil
}

func logFloodWait(err error) {
	if d, ok := tgerr.AsFloodWait(err); ok {
		logger.Warn("Telegram flood wait", "wait", d)
	}
}

var _ flow.Conversation = (*Chat)(nil)
