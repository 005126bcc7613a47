package telegram

import (
	"strings"

	"github.com/gotd/td/tg"

	"github.com/pavelc4/clipnova-tg-bot/internal/session"
)

const (
	formatPrefix    = "format_"
	DataConfirm     = "confirm_download"
	DataCancel      = "cancel"
	formatsPerRow   = 2
	maxCallbackData = 64
)

type Action int

const (
	ActionUnknown Action = iota
	ActionSelect
	ActionConfirm
	ActionCancel
)

// ParseCallback splits button data into an action and, for a selection,
// the format id.
func ParseCallback(data []byte) (Action, string) {
	s := string(data)
	switch {
	case s == DataConfirm:
		return ActionConfirm, ""
	case s == DataCancel:
		return ActionCancel, ""
	case strings.HasPrefix(s, formatPrefix) && len(s) > len(formatPrefix):
		return ActionSelect, strings.TrimPrefix(s, formatPrefix)
	default:
		return ActionUnknown, ""
	}
}

func cancelRow() tg.KeyboardButtonRow {
	return tg.KeyboardButtonRow{Buttons: []tg.KeyboardButtonClass{
		&tg.KeyboardButtonCallback{Text: "❌ Cancel", Data: []byte(DataCancel)},
	}}
}

// FormatKeyboard lays the options out two per row with a cancel row last.
// Options whose id does not fit in callback data are left out.
func FormatKeyboard(formats []*session.FormatOption) *tg.ReplyInlineMarkup {
	var rows []tg.KeyboardButtonRow
	var row []tg.KeyboardButtonClass
	for _, f := range formats {
		data := formatPrefix + f.FormatID
		if len(data) > maxCallbackData {
			continue
		}
		row = append(row, &tg.KeyboardButtonCallback{
			Text: FormatLabel(f),
			Data: []byte(data),
		})
		if len(row) == formatsPerRow {
			rows = append(rows, tg.KeyboardButtonRow{Buttons: row})
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, tg.KeyboardButtonRow{Buttons: row})
	}
	rows = append(rows, cancelRow())
	return &tg.ReplyInlineMarkup{Rows: rows}
}

func ConfirmKeyboard() *tg.ReplyInlineMarkup {
	return &tg.ReplyInlineMarkup{Rows: []tg.KeyboardButtonRow{
		{Buttons: []tg.KeyboardButtonClass{
			&tg.KeyboardButtonCallback{Text: "✅ Download Now", Data: []byte(DataConfirm)},
		}},
		cancelRow(),
	}}
}
