package extractor

import (
	"regexp"
	"strings"
)

var (
	urlRegex = regexp.MustCompile(`https?://[^\s]+`)

	videoIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`youtu\.be/([0-9A-Za-z_-]{11})(?:[^0-9A-Za-z_-]|$)`),
		regexp.MustCompile(`youtube\.com/shorts/([0-9A-Za-z_-]{11})(?:[^0-9A-Za-z_-]|$)`),
		regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})(?:[^0-9A-Za-z_-]|$)`),
	}
)

// LooksLikeVideoLink is the cheap filter the router applies to plain text.
func LooksLikeVideoLink(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "youtube.com") || strings.Contains(lower, "youtu.be")
}

// ExtractURL returns the first http(s) URL in text, or text itself when it
// has no scheme.
func ExtractURL(text string) string {
	if m := urlRegex.FindString(text); m != "" {
		return m
	}
	return strings.TrimSpace(text)
}

// VideoID returns the 11 character video id carried by url, or "".
func VideoID(url string) string {
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}
