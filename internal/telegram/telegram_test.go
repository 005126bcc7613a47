package telegram

import (
	"strings"
	"testing"
	"time"

	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelc4/clipnova-tg-bot/internal/delivery"
	"github.com/pavelc4/clipnova-tg-bot/internal/extractor"
	"github.com/pavelc4/clipnova-tg-bot/internal/flow"
	"github.com/pavelc4/clipnova-tg-bot/internal/session"
)

func TestRender(t *testing.T) {
	text, entities := Render(`📌 <b>Tom &amp; Jerry</b> at <a href="https://x.test/?a=1&amp;b=2">link</a> <code>1.5MB</code>`)
	assert.Equal(t, "📌 Tom & Jerry at link 1.5MB", text)
	require.Len(t, entities, 3)

	// the emoji is two UTF-16 code units
	assert.Equal(t, &tg.MessageEntityBold{Offset: 3, Length: 11}, entities[0])
	assert.Equal(t, &tg.MessageEntityTextURL{Offset: 18, Length: 4, URL: "https://x.test/?a=1&b=2"}, entities[1])
	assert.Equal(t, &tg.MessageEntityCode{Offset: 23, Length: 5}, entities[2])
}

func TestRenderPlain(t *testing.T) {
	text, entities := Render("no tags &lt;here&gt;")
	assert.Equal(t, "no tags <here>", text)
	assert.Empty(t, entities)
}

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data   string
		action Action
		arg    string
	}{
		{"format_22", ActionSelect, "22"},
		{"format_hls-720p", ActionSelect, "hls-720p"},
		{"format_", ActionUnknown, ""},
		{"confirm_download", ActionConfirm, ""},
		{"cancel", ActionCancel, ""},
		{"something", ActionUnknown, ""},
	}
	for _, tt := range tests {
		action, arg := ParseCallback([]byte(tt.data))
		assert.Equal(t, tt.action, action, tt.data)
		assert.Equal(t, tt.arg, arg, tt.data)
	}
}

func TestFormatKeyboard(t *testing.T) {
	formats := []*session.FormatOption{
		{FormatID: "37", Resolution: "1080p", SizeLabel: "50.0MB"},
		{FormatID: "22", Resolution: "720p", SizeLabel: "30.0MB"},
		{FormatID: "18", Resolution: "480p", SizeLabel: "N/A"},
		{FormatID: strings.Repeat("x", 80), Resolution: "360p"},
	}
	kb := FormatKeyboard(formats)
	require.Len(t, kb.Rows, 3)
	assert.Len(t, kb.Rows[0].Buttons, 2)
	assert.Len(t, kb.Rows[1].Buttons, 1)

	first := kb.Rows[0].Buttons[0].(*tg.KeyboardButtonCallback)
	assert.Equal(t, "🎬 1080p (50.0MB)", first.Text)
	assert.Equal(t, "format_37", string(first.Data))

	last := kb.Rows[2].Buttons[0].(*tg.KeyboardButtonCallback)
	assert.Equal(t, DataCancel, string(last.Data))
}

func TestConfirmKeyboard(t *testing.T) {
	kb := ConfirmKeyboard()
	require.Len(t, kb.Rows, 2)
	btn := kb.Rows[0].Buttons[0].(*tg.KeyboardButtonCallback)
	action, _ := ParseCallback(btn.Data)
	assert.Equal(t, ActionConfirm, action)
}

func TestTexts(t *testing.T) {
	v := session.VideoMetadata{Title: "<script> & co", DurationLabel: "3:32"}
	f := &session.FormatOption{Resolution: "720p", SizeLabel: "30.0MB", Container: "mp4"}

	text, _ := Render(ConfirmationText(v, f))
	assert.Contains(t, text, "<script> & co")
	assert.Contains(t, text, "Quality: 720p")
	assert.Contains(t, text, "Format: MP4")

	text, _ = Render(VideoCaption(v))
	assert.Equal(t, "📌 <script> & co\n🕒 Duration: 3:32", text)

	text, _ = Render(DeliveryCaption(delivery.Video{Title: "Song", Resolution: "720p", Size: 30 * 1024 * 1024}))
	assert.Equal(t, "✅ Song\n🔹 Resolution: 720p\n🔹 Size: 30.0MB", text)

	for st := flow.StatusFetching; st <= flow.StatusReplaced; st++ {
		assert.NotEqual(t, "…", StatusText(st))
	}
}

func TestProgressText(t *testing.T) {
	text, _ := Render(ProgressText(extractor.Progress{
		Status:     extractor.StatusDownloading,
		Percent:    50,
		Speed:      2 * 1024 * 1024,
		ETA:        90 * time.Second,
		Downloaded: 15 * 1024 * 1024,
		Total:      30 * 1024 * 1024,
	}))
	assert.Contains(t, text, "Downloading...")
	assert.Contains(t, text, "50.0%")
	assert.Contains(t, text, "Speed: 2.0 MB/s")
	assert.Contains(t, text, "ETA: 01:30")

	text, _ = Render(ProgressText(extractor.Progress{Status: flow.ProgressUploading, Downloaded: 10}))
	assert.Contains(t, text, "Uploading...")
	assert.Contains(t, text, "of ?")
	assert.NotContains(t, text, "ETA")
}

func TestMessageID(t *testing.T) {
	assert.Equal(t, 7, MessageID(&tg.UpdateShortSentMessage{ID: 7}))
	assert.Equal(t, 9, MessageID(&tg.Updates{Updates: []tg.UpdateClass{
		&tg.UpdateMessageID{ID: 9},
		&tg.UpdateNewMessage{Message: &tg.Message{ID: 9}},
	}}))
	assert.Equal(t, 11, MessageID(&tg.UpdatesCombined{Updates: []tg.UpdateClass{
		&tg.UpdateNewChannelMessage{Message: &tg.Message{ID: 11}},
	}}))
	assert.Equal(t, 0, MessageID(&tg.Updates{}))
	assert.Equal(t, 0, MessageID(&tg.UpdatesTooLong{}))
}

func TestResolvePeer(t *testing.T) {
	entities := tg.Entities{
		Users:    map[int64]*tg.User{42: {ID: 42, AccessHash: 99}},
		Chats:    map[int64]*tg.Chat{5: {ID: 5}},
		Channels: map[int64]*tg.Channel{8: {ID: 8, AccessHash: 3}},
	}

	input, err := ResolvePeer(&tg.PeerChat{ChatID: 5}, entities)
	require.NoError(t, err)
	assert.Equal(t, &tg.InputPeerChat{ChatID: 5}, input)

	input, err = ResolvePeer(&tg.PeerChannel{ChannelID: 8}, entities)
	require.NoError(t, err)
	assert.Equal(t, &tg.InputPeerChannel{ChannelID: 8, AccessHash: 3}, input)

	_, err = ResolvePeer(&tg.PeerChannel{ChannelID: 9}, entities)
	assert.ErrorContains(t, err, "ch9")
}

func TestPeers(t *testing.T) {
	p := NewPeers(time.Minute)
	peer := &tg.PeerUser{UserID: 42}
	entities := tg.Entities{Users: map[int64]*tg.User{42: {ID: 42, AccessHash: 99}}}

	input, err := p.Resolve(peer, entities)
	require.NoError(t, err)
	assert.Equal(t, &tg.InputPeerUser{UserID: 42, AccessHash: 99}, input)

	// later update without entities falls back to the remembered peer
	input, err = p.Resolve(peer, tg.Entities{})
	require.NoError(t, err)
	assert.Equal(t, &tg.InputPeerUser{UserID: 42, AccessHash: 99}, input)

	_, err = p.Resolve(&tg.PeerUser{UserID: 7}, tg.Entities{})
	assert.Error(t, err)
}

func TestSenderID(t *testing.T) {
	msg := &tg.Message{PeerID: &tg.PeerUser{UserID: 5}}
	assert.Equal(t, int64(5), SenderID(msg))

	msg = &tg.Message{PeerID: &tg.PeerChat{ChatID: 1}}
	msg.SetFromID(&tg.PeerUser{UserID: 8})
	assert.Equal(t, int64(8), SenderID(msg))
}
