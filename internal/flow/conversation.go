package flow

import (
	"context"

	"github.com/pavelc4/clipnova-tg-bot/internal/delivery"
	"github.com/pavelc4/clipnova-tg-bot/internal/extractor"
	"github.com/pavelc4/clipnova-tg-bot/internal/session"
)

type Status int

const (
	StatusFetching Status = iota
	StatusPreparing
	StatusQueued
	StatusStarting
	StatusUploading
	StatusDelivered
	StatusCancelled
	// StatusReplaced ends a request whose session a newer link took over.
	StatusReplaced
)

// ProgressUploading marks progress snapshots that describe the upload to
// the chat rather than the download.
const ProgressUploading extractor.Status = "uploading"

// Conversation is the chat one request is handled in. Message ids refer
// to messages the bot sent into that chat.
type Conversation interface {
	delivery.Sender

	// PostStatus sends a new status message and returns its id.
	PostStatus(ctx context.Context, st Status) (int, error)
	EditStatus(ctx context.Context, msgID int, st Status) error

	ShowVideo(ctx context.Context, video session.VideoMetadata) error
	ShowFormats(ctx context.Context, video session.VideoMetadata, formats []*session.FormatOption) error
	ShowConfirmation(ctx context.Context, msgID int, video session.VideoMetadata, format *session.FormatOption) error
	ShowProgress(ctx context.Context, msgID int, p extractor.Progress) error
}

// Metrics receives the outcome of every download that reached delivery or
// failed while downloading.
type Metrics interface {
	Delivered(userID int64, bytes int64)
	Failed(userID int64)
}

type nopMetrics struct{}

func (nopMetrics) Delivered(int64, int64) {}
func (nopMetrics) Failed(int64)           {}
