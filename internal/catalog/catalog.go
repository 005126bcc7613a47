package catalog

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/pavelc4/clipnova-tg-bot/internal/apperr"
	"github.com/pavelc4/clipnova-tg-bot/internal/cache"
	"github.com/pavelc4/clipnova-tg-bot/internal/extractor"
	"github.com/pavelc4/clipnova-tg-bot/internal/session"
	"github.com/pavelc4/clipnova-tg-bot/pkg/logger"
	"github.com/pavelc4/clipnova-tg-bot/pkg/utils"
)

const (
	MinHeight        = 144
	defaultContainer = "mp4"
	unknownSize      = "N/A"
)

type Prober interface {
	Probe(ctx context.Context, url string) (*ytdlp.ExtractedInfo, error)
}

// Catalog is the video's metadata and the options offered to the user.
type Catalog struct {
	Video   session.VideoMetadata
	Formats []session.FormatOption
}

type Builder struct {
	prober Prober
	cache  *cache.Cache[*Catalog]
}

func NewBuilder(p Prober, ttl time.Duration) *Builder {
	return &Builder{
		prober: p,
		cache:  cache.New[*Catalog](ttl),
	}
}

// Build queries the extraction library once and reduces its formats. The
// returned catalog is always non-empty. Catalogs are cached by video id;
// callers get their own copy of the options.
func (b *Builder) Build(ctx context.Context, url, videoID string) (*Catalog, error) {
	if cached, ok := b.cache.Get(videoID); ok {
		logger.Debug("Catalog cache hit", "video_id", videoID)
		return cached.clone(), nil
	}

	info, err := b.prober.Probe(ctx, url)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			err = apperr.New(apperr.KindExtraction, "catalog", err)
		}
		return nil, err
	}

	formats := Reduce(info.Formats)
	if len(formats) == 0 {
		return nil, apperr.New(apperr.KindNoFormats, "catalog", fmt.Errorf("%d raw formats, none combined", len(info.Formats)))
	}

	c := &Catalog{
		Video:   metadata(info, videoID),
		Formats: formats,
	}
	b.cache.Set(videoID, c)
	return c.clone(), nil
}

func (c *Catalog) clone() *Catalog {
	out := *c
	out.Formats = append([]session.FormatOption(nil), c.Formats...)
	return &out
}

// Reduce keeps combined video+audio streams of at least MinHeight, one per
// resolution (first seen wins), sorted by resolution descending.
func Reduce(streams []*ytdlp.ExtractedFormat) []session.FormatOption {
	seen := make(map[int]bool)
	var out []session.FormatOption

	for _, s := range streams {
		if s == nil || !extractor.HasVideo(s) || !extractor.HasAudio(s) {
			continue
		}
		height := extractor.Height(s)
		if height < MinHeight || seen[height] {
			continue
		}
		seen[height] = true

		container := extractor.Container(s)
		if container == "" {
			container = defaultContainer
		}
		out = append(out, session.FormatOption{
			FormatID:   extractor.FormatID(s),
			Resolution: fmt.Sprintf("%dp", height),
			Height:     height,
			Container:  container,
			SizeLabel:  SizeLabel(extractor.Size(s)),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Height > out[j].Height
	})
	return out
}

// SizeLabel renders a byte count in megabytes, or N/A when unknown.
func SizeLabel(size int64) string {
	if size <= 0 {
		return unknownSize
	}
	return fmt.Sprintf("%.1fMB", float64(size)/(1024*1024))
}

func metadata(info *ytdlp.ExtractedInfo, videoID string) session.VideoMetadata {
	title := extractor.Title(info)
	if title == "" {
		title = "Untitled"
	}
	id := info.ID
	if id == "" {
		id = videoID
	}
	d := extractor.Duration(info)
	return session.VideoMetadata{
		ID:            id,
		Title:         title,
		Duration:      d,
		DurationLabel: utils.FormatDuration(d),
		Thumbnail:     extractor.ThumbnailURL(info),
	}
}
