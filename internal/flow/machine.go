// Package flow drives one user's request from a submitted link to a
// delivered file.
package flow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pavelc4/clipnova-tg-bot/internal/apperr"
	"github.com/pavelc4/clipnova-tg-bot/internal/catalog"
	"github.com/pavelc4/clipnova-tg-bot/internal/delivery"
	"github.com/pavelc4/clipnova-tg-bot/internal/extractor"
	"github.com/pavelc4/clipnova-tg-bot/internal/limiter"
	"github.com/pavelc4/clipnova-tg-bot/internal/session"
	"github.com/pavelc4/clipnova-tg-bot/pkg/logger"
)

type Options struct {
	DownloadDir      string
	DownloadTimeout  time.Duration
	ProgressInterval time.Duration
}

type Machine struct {
	store     *session.Store
	catalogs  *catalog.Builder
	extractor extractor.Extractor
	limiter   *limiter.Limiter
	deliverer *delivery.Deliverer
	metrics   Metrics
	opts      Options
}

func NewMachine(
	store *session.Store,
	catalogs *catalog.Builder,
	ex extractor.Extractor,
	lim *limiter.Limiter,
	deliverer *delivery.Deliverer,
	opts Options,
) *Machine {
	return &Machine{
		store:     store,
		catalogs:  catalogs,
		extractor: ex,
		limiter:   lim,
		deliverer: deliverer,
		metrics:   nopMetrics{},
		opts:      opts,
	}
}

func (m *Machine) SetMetrics(metrics Metrics) {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	m.metrics = metrics
}

// Usage reports running downloads, the download limit and live sessions.
func (m *Machine) Usage() (active, limit, sessions int) {
	return m.limiter.Active(), m.limiter.Limit(), m.store.Len()
}

// Start handles a submitted link. A session exists afterwards only if the
// link carried a video id and the catalog had at least one option.
func (m *Machine) Start(ctx context.Context, userID int64, text string, conv Conversation) error {
	url := extractor.ExtractURL(text)
	videoID := extractor.VideoID(url)
	if videoID == "" {
		return apperr.New(apperr.KindInvalidLink, "start", fmt.Errorf("no video id in %q", url))
	}

	if _, err := conv.PostStatus(ctx, StatusFetching); err != nil {
		logger.Warn("Failed to post fetching status", "user_id", userID, "error", err)
	}

	start := time.Now()
	cat, err := m.catalogs.Build(ctx, url, videoID)
	if err != nil {
		return err
	}
	logger.InfoWithDuration("Catalog built", start, "user_id", userID, "video_id", videoID, "formats", len(cat.Formats))

	formats := make([]*session.FormatOption, len(cat.Formats))
	for i := range cat.Formats {
		formats[i] = &cat.Formats[i]
	}
	s := &session.Session{
		UserID:  userID,
		URL:     url,
		Video:   cat.Video,
		Formats: formats,
		Stage:   session.AwaitingFormat,
	}
	m.store.Put(s)

	if err := conv.ShowVideo(ctx, s.Video); err != nil {
		logger.Warn("Failed to send thumbnail", "user_id", userID, "error", err)
	}
	if err := conv.ShowFormats(ctx, s.Video, s.Formats); err != nil {
		m.store.Release(s)
		return fmt.Errorf("show formats: %w", err)
	}
	return nil
}

// Select records the user's choice. The selected option is always one of
// the session's own options.
func (m *Machine) Select(ctx context.Context, userID int64, formatID string, msgID int, conv Conversation) error {
	var (
		video    session.VideoMetadata
		selected *session.FormatOption
	)
	_, err := m.store.Update(userID, func(s *session.Session) error {
		switch s.Stage {
		case session.AwaitingFormat, session.AwaitingConfirmation:
		case session.Downloading:
			return apperr.New(apperr.KindBusy, "select", nil)
		default:
			return apperr.New(apperr.KindSessionExpired, "select", nil)
		}
		f := s.Format(formatID)
		if f == nil {
			return apperr.New(apperr.KindInvalidSelection, "select", fmt.Errorf("unknown format %q", formatID))
		}
		s.Selected = f
		s.Stage = session.AwaitingConfirmation
		video = s.Video
		selected = f
		return nil
	})
	if err != nil {
		return err
	}

	logger.Debug("Format selected", "user_id", userID, "format_id", formatID, "resolution", selected.Resolution)
	return conv.ShowConfirmation(ctx, msgID, video, selected)
}

// Confirm runs the download for the user's selected option and delivers
// the file. msgID is the message progress is rendered into.
func (m *Machine) Confirm(ctx context.Context, userID int64, msgID int, conv Conversation) error {
	s, err := m.store.Transition(userID, session.AwaitingConfirmation, session.Downloading)
	if err != nil {
		return err
	}

	job := delivery.Job{
		Dir:    filepath.Join(m.opts.DownloadDir, uuid.NewString()),
		Title:  s.Video.Title,
		Format: s.Selected,
	}
	if err := os.MkdirAll(job.Dir, 0o755); err != nil {
		m.store.Release(s)
		return apperr.New(apperr.KindFileOperation, "confirm", err)
	}
	defer m.deliverer.Discard(job)

	m.editStatus(ctx, conv, msgID, StatusPreparing)

	timeout := m.opts.DownloadTimeout
	if timeout <= 0 {
		timeout = time.Hour
	}
	dlCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reporter := newProgressReporter(conv, msgID, m.opts.ProgressInterval)
	start := time.Now()

	err = m.limiter.Do(dlCtx, func() {
		logger.Info("Download queued", "user_id", userID, "active", m.limiter.Active())
		m.editStatus(ctx, conv, msgID, StatusQueued)
	}, func(ctx context.Context) error {
		if !m.store.Current(s) {
			return errCancelled
		}
		m.editStatus(ctx, conv, msgID, StatusStarting)

		reporter.Start(ctx)
		defer reporter.Stop()

		return m.extractor.Download(ctx, extractor.DownloadRequest{
			URL:            s.URL,
			FormatID:       s.Selected.FormatID,
			OutputTemplate: job.OutputTemplate(),
			OnProgress:     reporter.Post,
		})
	})

	if !m.store.Current(s) {
		m.discard(ctx, conv, msgID, s, err)
		return nil
	}
	if err != nil {
		m.store.Release(s)
		m.metrics.Failed(userID)
		if errors.Is(dlCtx.Err(), context.DeadlineExceeded) && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return apperr.New(apperr.KindTimeout, "download", err)
		}
		if apperr.KindOf(err) == apperr.KindInternal {
			return apperr.New(apperr.KindExtraction, "download", err)
		}
		return err
	}
	logger.InfoWithDuration("Download finished", start, "user_id", userID, "format_id", s.Selected.FormatID)

	m.editStatus(ctx, conv, msgID, StatusUploading)
	upload := newProgressReporter(conv, msgID, m.opts.ProgressInterval)
	upload.Start(ctx)
	job.OnUpload = func(uploaded, total int64) {
		p := extractor.Progress{Status: ProgressUploading, Downloaded: uploaded, Total: total}
		if total > 0 {
			p.Percent = float64(uploaded) * 100 / float64(total)
		}
		upload.Post(p)
	}

	size, err := m.deliverer.Deliver(ctx, conv, job, s.Video.Duration)
	upload.Stop()
	m.store.Release(s)
	if err != nil {
		m.metrics.Failed(userID)
		return err
	}

	m.metrics.Delivered(userID, size)
	m.editStatus(ctx, conv, msgID, StatusDelivered)
	return nil
}

// Cancel drops the user's session whatever its stage. A running download
// keeps going; its result is discarded.
func (m *Machine) Cancel(userID int64) bool {
	ok := m.store.Delete(userID)
	if ok {
		logger.Info("Session cancelled", "user_id", userID)
	}
	return ok
}

var errCancelled = errors.New("session cancelled before download started")

// discard ends the status message of a download whose session was
// cancelled or replaced while it waited or ran.
func (m *Machine) discard(ctx context.Context, conv Conversation, msgID int, s *session.Session, err error) {
	st := StatusCancelled
	if cur, ok := m.store.Get(s.UserID); ok && cur != s {
		st = StatusReplaced
	}
	logger.Info("Download result discarded, session gone", "user_id", s.UserID, "replaced", st == StatusReplaced, "error", err)
	m.editStatus(ctx, conv, msgID, st)
}

func (m *Machine) editStatus(ctx context.Context, conv Conversation, msgID int, st Status) {
	if err := conv.EditStatus(ctx, msgID, st); err != nil {
		logger.Warn("Status update failed", "msg_id", msgID, "status", st, "error", err)
	}
}
