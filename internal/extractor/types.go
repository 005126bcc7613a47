package extractor

import (
	"context"
	"time"

	"github.com/lrstanley/go-ytdlp"
)

type Status string

const (
	StatusDownloading Status = "downloading"
	StatusFinished    Status = "finished"
	StatusError       Status = "error"
)

// Progress is one snapshot reported while a download runs.
type Progress struct {
	Status     Status
	Percent    float64
	Speed      float64 // bytes per second, 0 when unknown
	ETA        time.Duration
	Downloaded int64
	Total      int64
}

type DownloadRequest struct {
	URL            string
	FormatID       string
	OutputTemplate string
	OnProgress     func(Progress)
}

// Extractor is the boundary to the media-extraction library.
type Extractor interface {
	Probe(ctx context.Context, url string) (*ytdlp.ExtractedInfo, error)
	Download(ctx context.Context, req DownloadRequest) error
}
