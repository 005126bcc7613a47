package telegram

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf16"

	"github.com/gotd/td/tg"
)

var tagRegex = regexp.MustCompile(`(?s)<(b|i|code|a)(?: href="([^"]+)")?>([^<]+)</(?:b|i|code|a)>`)

// Render turns the small HTML subset the bot writes (b, i, code, a) into
// plain text plus entities. Text between tags is HTML-unescaped; offsets
// are in UTF-16 code units.
func Render(text string) (string, []tg.MessageEntityClass) {
	var clean strings.Builder
	var entities []tg.MessageEntityClass
	offset := 0

	write := func(s string) int {
		s = html.UnescapeString(s)
		clean.WriteString(s)
		n := len(utf16.Encode([]rune(s)))
		offset += n
		return n
	}

	lastIdx := 0
	for _, m := range tagRegex.FindAllStringSubmatchIndex(text, -1) {
		write(text[lastIdx:m[0]])

		tagName := text[m[2]:m[3]]
		href := ""
		if m[4] != -1 {
			href = html.UnescapeString(text[m[4]:m[5]])
		}
		start := offset
		length := write(text[m[6]:m[7]])

		var ent tg.MessageEntityClass
		switch tagName {
		case "b":
			ent = &tg.MessageEntityBold{Offset: start, Length: length}
		case "i":
			ent = &tg.MessageEntityItalic{Offset: start, Length: length}
		case "code":
			ent = &tg.MessageEntityCode{Offset: start, Length: length}
		case "a":
			ent = &tg.MessageEntityTextURL{Offset: start, Length: length, URL: href}
		}
		entities = append(entities, ent)
		lastIdx = m[1]
	}
	write(text[lastIdx:])
	return clean.String(), entities
}
