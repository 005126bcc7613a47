package handler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gotd/td/tg"
	"github.com/lrstanley/go-ytdlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelc4/clipnova-tg-bot/internal/apperr"
	"github.com/pavelc4/clipnova-tg-bot/internal/catalog"
	"github.com/pavelc4/clipnova-tg-bot/internal/delivery"
	"github.com/pavelc4/clipnova-tg-bot/internal/extractor"
	"github.com/pavelc4/clipnova-tg-bot/internal/flow"
	"github.com/pavelc4/clipnova-tg-bot/internal/limiter"
	"github.com/pavelc4/clipnova-tg-bot/internal/session"
	"github.com/pavelc4/clipnova-tg-bot/internal/stats"
	"github.com/pavelc4/clipnova-tg-bot/internal/telegram"
)

const (
	userID = 42
	link   = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
)

type stubExtractor struct {
	probeErr error
}

func ptr[T any](v T) *T { return &v }

func (s *stubExtractor) Probe(ctx context.Context, url string) (*ytdlp.ExtractedInfo, error) {
	if s.probeErr != nil {
		return nil, s.probeErr
	}
	return &ytdlp.ExtractedInfo{
		ID:    "dQw4w9WgXcQ",
		Title: ptr("Never Gonna Give You Up"),
		Formats: []*ytdlp.ExtractedFormat{{
			FormatID:  ptr("22"),
			Extension: ptr("mp4"),
			VCodec:    ptr("avc1"),
			ACodec:    ptr("mp4a"),
			Height:    ptr(720.0),
		}},
	}, nil
}

func (s *stubExtractor) Download(ctx context.Context, req extractor.DownloadRequest) error {
	return errors.New("not used")
}

type recordingChat struct {
	mu      sync.Mutex
	replies []string
	edits   map[int]string
	formats int
}

func (c *recordingChat) Reply(ctx context.Context, styled string, hideKeyboard bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, styled)
	return nil
}

func (c *recordingChat) Edit(ctx context.Context, msgID int, styled string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.edits == nil {
		c.edits = map[int]string{}
	}
	c.edits[msgID] = styled
	return nil
}

func (c *recordingChat) SendVideo(ctx context.Context, v delivery.Video) error { return nil }
func (c *recordingChat) PostStatus(ctx context.Context, st flow.Status) (int, error) {
	return 1, nil
}
func (c *recordingChat) EditStatus(ctx context.Context, msgID int, st flow.Status) error {
	return nil
}
func (c *recordingChat) ShowVideo(ctx context.Context, v session.VideoMetadata) error { return nil }
func (c *recordingChat) ShowFormats(ctx context.Context, v session.VideoMetadata, f []*session.FormatOption) error {
	c.formats = len(f)
	return nil
}
func (c *recordingChat) ShowConfirmation(ctx context.Context, msgID int, v session.VideoMetadata, f *session.FormatOption) error {
	return c.Edit(ctx, msgID, "confirm "+f.Resolution)
}
func (c *recordingChat) ShowProgress(ctx context.Context, msgID int, p extractor.Progress) error {
	return nil
}

func newTestHandler(t *testing.T, ex *stubExtractor, owner int64) (*Handler, *recordingChat, *[]int64) {
	t.Helper()
	store := session.NewStore()
	machine := flow.NewMachine(store, catalog.NewBuilder(ex, 0), ex, limiter.New(1), delivery.New(1, 0), flow.Options{
		DownloadDir: t.TempDir(),
	})
	chat := &recordingChat{}
	var answered []int64
	h := &Handler{
		machine: machine,
		peers:   telegram.NewPeers(time.Minute),
		stats:   stats.NewRecorder(),
		opts:    Options{OwnerID: owner, DownloadDir: t.TempDir()},
		newChat: func(tg.InputPeerClass, int) Conversation { return chat },
		answer: func(ctx context.Context, queryID int64, text string) error {
			answered = append(answered, queryID)
			return nil
		},
	}
	return h, chat, &answered
}

func entities() tg.Entities {
	return tg.Entities{Users: map[int64]*tg.User{userID: {ID: userID, AccessHash: 1}}}
}

func message(text string) *tg.Message {
	return &tg.Message{ID: 10, Message: text, PeerID: &tg.PeerUser{UserID: userID}}
}

func callback(data string) *tg.UpdateBotCallbackQuery {
	return &tg.UpdateBotCallbackQuery{
		QueryID: 7,
		UserID:  userID,
		Peer:    &tg.PeerUser{UserID: userID},
		MsgID:   55,
		Data:    []byte(data),
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, kindMessages[apperr.KindNoFormats], UserMessage(apperr.New(apperr.KindNoFormats, "catalog", nil)))
	assert.Equal(t, kindMessages[apperr.KindTimeout], UserMessage(context.DeadlineExceeded))

	internal := fmt.Errorf("open /var/lib/secret: %w", errors.New("boom"))
	assert.Equal(t, genericFailure, UserMessage(internal))
	assert.NotContains(t, UserMessage(internal), "secret")
	assert.Equal(t, genericFailure, UserMessage(apperr.New(apperr.KindFileOperation, "delete", nil)))

	assert.True(t, replacesPrompt(apperr.ErrSessionExpired))
	assert.False(t, replacesPrompt(apperr.ErrExtraction))
}

func TestHandleLinkInvalid(t *testing.T) {
	h, chat, _ := newTestHandler(t, &stubExtractor{}, 0)

	require.NoError(t, h.HandleLink(context.Background(), entities(), message("https://youtube.com/watch?v=bad")))
	assert.Equal(t, []string{kindMessages[apperr.KindInvalidLink]}, chat.replies)
}

func TestHandleLinkExtractionFailure(t *testing.T) {
	h, chat, _ := newTestHandler(t, &stubExtractor{probeErr: errors.New("network unreachable")}, 0)

	require.NoError(t, h.HandleLink(context.Background(), entities(), message(link)))
	assert.Equal(t, []string{kindMessages[apperr.KindExtraction]}, chat.replies)
	_, _, sessions := h.machine.Usage()
	assert.Equal(t, 0, sessions)
}

func TestSelectThenCancelThenStaleSelect(t *testing.T) {
	h, chat, answered := newTestHandler(t, &stubExtractor{}, 0)
	ctx := context.Background()

	require.NoError(t, h.HandleLink(ctx, entities(), message(link)))
	assert.Equal(t, 1, chat.formats)
	assert.Empty(t, chat.replies)

	require.NoError(t, h.HandleCallback(ctx, entities(), callback("format_22")))
	assert.Equal(t, "confirm 720p", chat.edits[55])

	require.NoError(t, h.HandleCancel(ctx, entities(), message("/cancel")))
	assert.Equal(t, []string{telegram.StatusText(flow.StatusCancelled)}, chat.replies)

	// the button press carries no entities; the peer seen earlier is used
	require.NoError(t, h.HandleCallback(ctx, tg.Entities{}, callback("format_22")))
	assert.Equal(t, kindMessages[apperr.KindSessionExpired], chat.edits[55])
	assert.Equal(t, []int64{7, 7}, *answered)
}

func TestCallbackInvalidSelection(t *testing.T) {
	h, chat, _ := newTestHandler(t, &stubExtractor{}, 0)
	ctx := context.Background()
	require.NoError(t, h.HandleLink(ctx, entities(), message(link)))

	require.NoError(t, h.HandleCallback(ctx, entities(), callback("format_999")))
	assert.Equal(t, kindMessages[apperr.KindInvalidSelection], chat.edits[55])
}

func TestCallbackCancelButton(t *testing.T) {
	h, chat, _ := newTestHandler(t, &stubExtractor{}, 0)
	ctx := context.Background()
	require.NoError(t, h.HandleLink(ctx, entities(), message(link)))

	require.NoError(t, h.HandleCallback(ctx, entities(), callback("cancel")))
	assert.Equal(t, telegram.StatusText(flow.StatusCancelled), chat.edits[55])

	require.NoError(t, h.HandleCallback(ctx, entities(), callback("confirm_download")))
	assert.Equal(t, kindMessages[apperr.KindSessionExpired], chat.edits[55])
}

func TestStatsOwnerOnly(t *testing.T) {
	h, chat, _ := newTestHandler(t, &stubExtractor{}, 99)
	require.NoError(t, h.HandleStats(context.Background(), entities(), message("/stats")))
	assert.Empty(t, chat.replies)

	h.opts.OwnerID = userID
	require.NoError(t, h.HandleStats(context.Background(), entities(), message("/stats")))
	require.Len(t, chat.replies, 1)
	text, _ := telegram.Render(chat.replies[0])
	assert.Contains(t, text, "Downloads : 0 / 1 running")
}
