package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lrstanley/go-ytdlp"
)

// parseInfo decodes the single info dict printed by --dump-single-json.
func parseInfo(stdout string) (*ytdlp.ExtractedInfo, error) {
	raw := json.RawMessage(stdout)
	info, err := ytdlp.ParseExtractedInfo(&raw)
	if err != nil {
		return nil, fmt.Errorf("decode info json: %w", err)
	}
	if info.ID == "" && info.Title == nil {
		return nil, errors.New("empty info json")
	}
	return info, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// HasVideo and HasAudio treat a missing codec, or yt-dlp's "none", as
// absent.
func HasVideo(f *ytdlp.ExtractedFormat) bool { return present(f.VCodec) }
func HasAudio(f *ytdlp.ExtractedFormat) bool { return present(f.ACodec) }

func present(codec *string) bool {
	c := deref(codec)
	return c != "" && c != "none"
}

func Height(f *ytdlp.ExtractedFormat) int { return int(deref(f.Height)) }

func Container(f *ytdlp.ExtractedFormat) string { return deref(f.Extension) }

func FormatID(f *ytdlp.ExtractedFormat) string { return deref(f.FormatID) }

// Size is the exact size when yt-dlp knows it, else the approximate one,
// else 0.
func Size(f *ytdlp.ExtractedFormat) int64 {
	if n := deref(f.FileSize); n > 0 {
		return int64(n)
	}
	return int64(deref(f.FileSizeApprox))
}

func Title(info *ytdlp.ExtractedInfo) string { return deref(info.Title) }

func Duration(info *ytdlp.ExtractedInfo) time.Duration {
	return time.Duration(deref(info.Duration) * float64(time.Second))
}

// ThumbnailURL prefers the top level thumbnail and falls back to the first
// entry of the thumbnail list.
func ThumbnailURL(info *ytdlp.ExtractedInfo) string {
	if t := deref(info.Thumbnail); t != "" {
		return t
	}
	for _, t := range info.Thumbnails {
		if t != nil && t.URL != "" {
			return t.URL
		}
	}
	return ""
}
