package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelc4/clipnova-tg-bot/internal/apperr"
)

const mb = 1024 * 1024

type fakeProber struct {
	info  *ytdlp.ExtractedInfo
	err   error
	calls int
}

func (f *fakeProber) Probe(ctx context.Context, url string) (*ytdlp.ExtractedInfo, error) {
	f.calls++
	return f.info, f.err
}

func ptr[T any](v T) *T { return &v }

func stream(id, ext, vcodec, acodec string, height int) *ytdlp.ExtractedFormat {
	return &ytdlp.ExtractedFormat{
		FormatID:  ptr(id),
		Extension: ptr(ext),
		VCodec:    ptr(vcodec),
		ACodec:    ptr(acodec),
		Height:    ptr(float64(height)),
	}
}

func combined(id string, height int, size int) *ytdlp.ExtractedFormat {
	f := stream(id, "mp4", "avc1", "mp4a", height)
	if size > 0 {
		f.FileSize = ptr(size)
	}
	return f
}

func TestReduce(t *testing.T) {
	streams := []*ytdlp.ExtractedFormat{
		combined("18", 360, 10*mb),
		stream("137", "mp4", "avc1", "none", 1080),
		{FormatID: ptr("140"), Extension: ptr("m4a"), ACodec: ptr("mp4a")},
		combined("22", 720, 0),
		combined("43", 360, 12*mb), // duplicate resolution, first seen wins
		combined("17", 144, 1*mb),
		combined("13", 96, 1*mb),
		stream("sb0", "mhtml", "none", "none", 45),
		nil,
	}
	streams[3].FileSizeApprox = ptr(30 * mb)

	got := Reduce(streams)
	require.Len(t, got, 3)

	assert.Equal(t, "22", got[0].FormatID)
	assert.Equal(t, "720p", got[0].Resolution)
	assert.Equal(t, "30.0MB", got[0].SizeLabel)

	assert.Equal(t, "18", got[1].FormatID)
	assert.Equal(t, "10.0MB", got[1].SizeLabel)

	assert.Equal(t, "144p", got[2].Resolution)

	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i-1].Height, got[i].Height, "resolutions must be strictly descending")
	}
}

func TestReduceUniqueAndDescending(t *testing.T) {
	heights := []int{240, 1080, 360, 720, 1080, 480, 144, 720, 2160, 360}
	var streams []*ytdlp.ExtractedFormat
	for i, h := range heights {
		streams = append(streams, combined(string(rune('a'+i)), h, 0))
	}

	got := Reduce(streams)
	labels := make(map[string]bool)
	for i, f := range got {
		assert.False(t, labels[f.Resolution], "duplicate %s", f.Resolution)
		labels[f.Resolution] = true
		if i > 0 {
			assert.Greater(t, got[i-1].Height, f.Height)
		}
	}
	assert.Len(t, got, 7)
	assert.Equal(t, "b", got[1].FormatID, "first 1080p stream wins")
}

func TestSizeLabel(t *testing.T) {
	assert.Equal(t, "N/A", SizeLabel(0))
	assert.Equal(t, "1.5MB", SizeLabel(3*mb/2))
	assert.Equal(t, "2.0MB", SizeLabel(2*mb))

	f := combined("22", 720, mb/2)
	f.FileSizeApprox = ptr(9 * mb)
	got := Reduce([]*ytdlp.ExtractedFormat{f})
	require.Len(t, got, 1)
	assert.Equal(t, "0.5MB", got[0].SizeLabel, "exact size wins over the estimate")
}

func TestBuild(t *testing.T) {
	p := &fakeProber{info: &ytdlp.ExtractedInfo{
		ID:        "dQw4w9WgXcQ",
		Title:     ptr("Song"),
		Duration:  ptr(212.0),
		Thumbnail: ptr("https://img/x.jpg"),
		Formats:   []*ytdlp.ExtractedFormat{combined("22", 720, 30*mb), combined("18", 360, 10*mb)},
	}}
	b := NewBuilder(p, time.Minute)

	c, err := b.Build(context.Background(), "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "Song", c.Video.Title)
	assert.Equal(t, "03:32", c.Video.DurationLabel)
	assert.Equal(t, "https://img/x.jpg", c.Video.Thumbnail)
	assert.Equal(t, 212*time.Second, c.Video.Duration)
	assert.Len(t, c.Formats, 2)

	// cached, and the copy is independent of the cached value
	c.Formats[0].FormatID = "mutated"
	again, err := b.Build(context.Background(), "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, "22", again.Formats[0].FormatID)
}

func TestBuildFailures(t *testing.T) {
	p := &fakeProber{err: errors.New("network unreachable")}
	_, err := NewBuilder(p, 0).Build(context.Background(), "u", "dQw4w9WgXcQ")
	assert.ErrorIs(t, err, apperr.ErrExtraction)

	p = &fakeProber{err: apperr.New(apperr.KindTimeout, "probe", context.DeadlineExceeded)}
	_, err = NewBuilder(p, 0).Build(context.Background(), "u", "dQw4w9WgXcQ")
	assert.ErrorIs(t, err, apperr.ErrTimeout)

	p = &fakeProber{info: &ytdlp.ExtractedInfo{ID: "x", Formats: []*ytdlp.ExtractedFormat{
		stream("137", "mp4", "avc1", "none", 1080),
	}}}
	_, err = NewBuilder(p, time.Minute).Build(context.Background(), "u", "x")
	assert.ErrorIs(t, err, apperr.ErrNoFormats)
}
