package delivery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pavelc4/clipnova-tg-bot/internal/apperr"
	"github.com/pavelc4/clipnova-tg-bot/internal/session"
	"github.com/pavelc4/clipnova-tg-bot/pkg/logger"
	"github.com/pavelc4/clipnova-tg-bot/pkg/utils"
)

// Video is what gets handed to the chat.
type Video struct {
	Path       string
	Filename   string
	Title      string
	Resolution string
	Height     int
	Size       int64
	Duration   time.Duration
	OnUpload   func(uploaded, total int64)
}

type Sender interface {
	SendVideo(ctx context.Context, v Video) error
}

// Job names the files of one download. Everything the download writes
// lives under Dir.
type Job struct {
	Dir      string
	Title    string
	Format   *session.FormatOption
	OnUpload func(uploaded, total int64)
}

func (j Job) baseName() string {
	return utils.SanitizeFilename(j.Title)
}

// OutputTemplate is the yt-dlp output template the download is run with.
func (j Job) OutputTemplate() string {
	return filepath.Join(j.Dir, j.baseName()+".%(ext)s")
}

// OutputPath is where OutputTemplate lands for the selected container.
func (j Job) OutputPath() string {
	return filepath.Join(j.Dir, j.Filename())
}

func (j Job) Filename() string {
	return j.baseName() + "." + j.Format.Container
}

type Deliverer struct {
	retries int
	delay   time.Duration
	remove  func(string) error
}

func New(retries int, delay time.Duration) *Deliverer {
	if retries < 1 {
		retries = 1
	}
	return &Deliverer{
		retries: retries,
		delay:   delay,
		remove:  os.Remove,
	}
}

// Deliver sends the downloaded file and then removes it whatever the send
// outcome was. A file that cannot be removed is logged, never returned.
func (d *Deliverer) Deliver(ctx context.Context, s Sender, job Job, duration time.Duration) (int64, error) {
	path := job.OutputPath()
	info, err := os.Stat(path)
	if err != nil {
		return 0, apperr.New(apperr.KindExtraction, "deliver", fmt.Errorf("downloaded file missing: %w", err))
	}
	if info.IsDir() {
		return 0, apperr.New(apperr.KindExtraction, "deliver", fmt.Errorf("%s is a directory", path))
	}

	v := Video{
		Path:       path,
		Filename:   job.Filename(),
		Title:      job.baseName(),
		Resolution: job.Format.Resolution,
		Height:     job.Format.Height,
		Size:       info.Size(),
		Duration:   duration,
		OnUpload:   job.OnUpload,
	}

	start := time.Now()
	sendErr := s.SendVideo(ctx, v)
	d.SafeDelete(path)

	if sendErr != nil {
		return 0, fmt.Errorf("send video: %w", sendErr)
	}
	logger.InfoWithDuration("Video delivered", start, "file", v.Filename, "size", utils.FormatBytes(v.Size))
	return v.Size, nil
}

// SafeDelete removes path, retrying while the file is locked. It reports
// whether a file was removed.
func (d *Deliverer) SafeDelete(path string) bool {
	attempt := 0
	op := func() error {
		attempt++
		err := d.remove(path)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, fs.ErrNotExist):
			return backoff.Permanent(err)
		case retryable(err):
			return err
		default:
			return backoff.Permanent(err)
		}
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn("File delete failed, retrying", "path", path, "attempt", attempt, "wait", wait, "error", err)
	}

	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(d.delay), uint64(d.retries-1))
	err := backoff.RetryNotify(op, b, notify)
	switch {
	case err == nil:
		return true
	case errors.Is(err, fs.ErrNotExist):
		return false
	default:
		logger.Error("Failed to delete file", "path", path, "attempts", attempt,
			"error", apperr.New(apperr.KindFileOperation, "delete", err))
		return false
	}
}

// Discard removes whatever is left of a job: the output file, partial
// fragments and the job directory itself.
func (d *Deliverer) Discard(job Job) {
	entries, err := os.ReadDir(job.Dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Failed to list job dir", "dir", job.Dir, "error", err)
		}
		return
	}
	for _, e := range entries {
		d.SafeDelete(filepath.Join(job.Dir, e.Name()))
	}
	if err := os.Remove(job.Dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Failed to remove job dir", "dir", job.Dir, "error", err)
	}
}

func retryable(err error) bool {
	return errors.Is(err, fs.ErrPermission) || errors.Is(err, syscall.EBUSY)
}
