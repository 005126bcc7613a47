package utils

import (
	"fmt"
	"strings"
	"time"
)

const (
	progressBarFilled = "■"
	progressBarEmpty  = "□"
	progressBarLength = 12
)

func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

// FormatMB renders a size the way format labels do, e.g. "12.3MB".
func FormatMB(b int64) string {
	return fmt.Sprintf("%.1fMB", float64(b)/(1024*1024))
}

func FormatSpeed(bytesPerSec float64) string {
	if bytesPerSec <= 0 {
		return "N/A"
	}
	return FormatBytes(int64(bytesPerSec)) + "/s"
}

func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "N/A"
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func FormatProgressBar(percent float64) string {
	if percent > 100 {
		percent = 100
	}
	if percent < 0 {
		percent = 0
	}
	filled := int(percent / 100 * progressBarLength)
	return fmt.Sprintf("[%s%s] %.1f%%",
		strings.Repeat(progressBarFilled, filled),
		strings.Repeat(progressBarEmpty, progressBarLength-filled),
		percent,
	)
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
