package extractor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/pavelc4/clipnova-tg-bot/internal/apperr"
	"github.com/pavelc4/clipnova-tg-bot/pkg/logger"
)

const (
	probeTimeout         = 2 * time.Minute
	progressFrequency    = 500 * time.Millisecond
	mergeContainer       = "mp4"
	formatUnavailableMsg = "requested format is not available"
)

type Options struct {
	SocketTimeout time.Duration
	Retries       int
	Cookies       string
}

// YtDlp drives the yt-dlp executable through go-ytdlp.
type YtDlp struct {
	opts Options
}

func NewYtDlp(opts Options) *YtDlp {
	return &YtDlp{opts: opts}
}

// Install fetches a yt-dlp binary when none is usable on PATH.
func Install(ctx context.Context) error {
	resolved, err := ytdlp.Install(ctx, nil)
	if err != nil {
		return fmt.Errorf("install yt-dlp: %w", err)
	}
	logger.Info("yt-dlp ready", "path", resolved.Executable, "version", resolved.Version)
	return nil
}

func (y *YtDlp) command() *ytdlp.Command {
	cmd := ytdlp.New().
		NoPlaylist().
		NoWarnings().
		SocketTimeout(y.opts.SocketTimeout.Seconds()).
		Retries(strconv.Itoa(y.opts.Retries))

	if y.opts.Cookies != "" {
		if _, err := os.Stat(y.opts.Cookies); err == nil {
			cmd = cmd.Cookies(y.opts.Cookies)
		} else {
			logger.Warn("Cookies file not found", "path", y.opts.Cookies)
		}
	}
	return cmd
}

func (y *YtDlp) Probe(ctx context.Context, url string) (*ytdlp.ExtractedInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	res, err := y.command().
		DumpSingleJSON().
		SkipDownload().
		Run(ctx, url)
	if err != nil {
		return nil, classify("probe", err, stderrOf(res))
	}

	info, err := parseInfo(res.Stdout)
	if err != nil {
		return nil, apperr.New(apperr.KindExtraction, "probe", err)
	}

	logger.InfoWithDuration("Video info resolved", start,
		"id", info.ID,
		"title", Title(info),
		"formats", len(info.Formats),
	)
	return info, nil
}

func (y *YtDlp) Download(ctx context.Context, req DownloadRequest) error {
	cmd := y.command().
		Format(req.FormatID).
		Output(req.OutputTemplate).
		MergeOutputFormat(mergeContainer)

	if req.OnProgress != nil {
		cmd = cmd.ProgressFunc(progressFrequency, func(u ytdlp.ProgressUpdate) {
			req.OnProgress(toProgress(u))
		})
	}

	start := time.Now()
	res, err := cmd.Run(ctx, req.URL)
	if err != nil {
		return classify("download", err, stderrOf(res))
	}
	logger.InfoWithDuration("yt-dlp download finished", start, "format", req.FormatID)
	return nil
}

func toProgress(u ytdlp.ProgressUpdate) Progress {
	p := Progress{
		Status:     Status(u.Status),
		Downloaded: int64(u.DownloadedBytes),
		Total:      int64(u.TotalBytes),
		ETA:        u.ETA(),
		Percent:    u.Percent(),
	}
	if !u.Started.IsZero() {
		if elapsed := time.Since(u.Started).Seconds(); elapsed > 0 {
			p.Speed = float64(u.DownloadedBytes) / elapsed
		}
	}
	return p
}

func stderrOf(res *ytdlp.Result) string {
	if res == nil {
		return ""
	}
	return strings.TrimSpace(res.Stderr)
}

// classify maps a yt-dlp failure to an error kind. The stderr text is kept
// in the error for the server log only.
func classify(op string, err error, stderr string) error {
	if stderr != "" {
		err = fmt.Errorf("%w (stderr: %s)", err, stderr)
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.New(apperr.KindTimeout, op, err)
	case strings.Contains(strings.ToLower(err.Error()), formatUnavailableMsg):
		return apperr.New(apperr.KindFormatUnavailable, op, err)
	default:
		return apperr.New(apperr.KindExtraction, op, err)
	}
}
