package session

import (
	"time"
)

type Stage int

const (
	AwaitingFormat Stage = iota
	AwaitingConfirmation
	Downloading
	Done
	Cancelled
)

func (s Stage) String() string {
	switch s {
	case AwaitingFormat:
		return "awaiting_format"
	case AwaitingConfirmation:
		return "awaiting_confirmation"
	case Downloading:
		return "downloading"
	case Done:
		return "done"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

func (s Stage) Terminal() bool {
	return s == Done || s == Cancelled
}

// FormatOption is one selectable quality tier of a video.
type FormatOption struct {
	FormatID   string // opaque yt-dlp format id
	Resolution string // "720p"
	Height     int
	Container  string // file extension
	SizeLabel  string // "12.3MB" or "N/A"
}

type VideoMetadata struct {
	ID            string
	Title         string
	Duration      time.Duration
	DurationLabel string
	Thumbnail     string
}

type Session struct {
	UserID   int64
	URL      string
	Video    VideoMetadata
	Formats  []*FormatOption
	Selected *FormatOption
	Stage    Stage

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Format returns the option with the given id, or nil.
func (s *Session) Format(formatID string) *FormatOption {
	for _, f := range s.Formats {
		if f.FormatID == formatID {
			return f
		}
	}
	return nil
}
