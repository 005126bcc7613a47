package handler

import (
	"github.com/pavelc4/clipnova-tg-bot/internal/apperr"
	"github.com/pavelc4/clipnova-tg-bot/pkg/logger"
)

const genericFailure = "❌ Something went wrong. Please try again later."

var kindMessages = map[apperr.Kind]string{
	apperr.KindInvalidLink:       "❌ Invalid YouTube URL. Please try again.",
	apperr.KindExtraction:        "❌ Failed to process this video. Please try another URL.",
	apperr.KindNoFormats:         "❌ No downloadable formats found for this video.",
	apperr.KindSessionExpired:    "❌ Session expired. Please send the URL again.",
	apperr.KindInvalidSelection:  "❌ Invalid selection. Please try again.",
	apperr.KindFormatUnavailable: "❌ The selected quality isn't available for this video.\nPlease try a different quality.",
	apperr.KindBusy:              "⏳ Your download is already running. Please wait for it to finish.",
	apperr.KindTimeout:           "❌ The download took too long and was stopped. Please try again.",
}

// UserMessage is the only text a failure is ever reported with. Anything
// unclassified gets the generic notice; its details stay in the log.
func UserMessage(err error) string {
	if msg, ok := kindMessages[apperr.KindOf(err)]; ok {
		return msg
	}
	return genericFailure
}

// replacesPrompt reports whether the failure belongs in the message whose
// button was pressed rather than in a new message.
func replacesPrompt(err error) bool {
	switch apperr.KindOf(err) {
	case apperr.KindSessionExpired, apperr.KindInvalidSelection:
		return true
	}
	return false
}

func logFailure(op string, userID int64, err error) {
	kind := apperr.KindOf(err)
	switch kind {
	case apperr.KindInternal, apperr.KindFileOperation:
		logger.Error("Request failed", "op", op, "user_id", userID, "kind", kind, "error", err)
	case apperr.KindInvalidLink, apperr.KindSessionExpired, apperr.KindInvalidSelection, apperr.KindBusy:
		logger.Debug("Request rejected", "op", op, "user_id", userID, "kind", kind, "error", err)
	default:
		logger.Warn("Request failed", "op", op, "user_id", userID, "kind", kind, "error", err)
	}
}
