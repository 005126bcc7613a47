package telegram

import (
	"fmt"
	"html"
	"strings"

	"github.com/pavelc4/clipnova-tg-bot/internal/delivery"
	"github.com/pavelc4/clipnova-tg-bot/internal/extractor"
	"github.com/pavelc4/clipnova-tg-bot/internal/flow"
	"github.com/pavelc4/clipnova-tg-bot/internal/session"
	"github.com/pavelc4/clipnova-tg-bot/pkg/utils"
)

const maxTitle = 100

func StartText() string {
	return "🎬 <b>Welcome to ClipNova Bot</b> 🎬\n\n" +
		"The most advanced YouTube downloader on Telegram!\n\n" +
		"✨ <b>Features</b>:\n" +
		"- Download videos in multiple resolutions\n" +
		"- Real-time progress with speed and ETA\n" +
		"- File size information before download\n" +
		"- Fast and reliable downloads\n\n" +
		"Send me a YouTube link to get started!"
}

func HelpText() string {
	return "🛠️ <b>ClipNova Bot Help</b> 🛠️\n\n" +
		"<b>Available Commands</b>:\n" +
		"/start - Show welcome message\n" +
		"/help - Display this help message\n" +
		"/cancel - Cancel current operation\n\n" +
		"<b>How to Use</b>:\n" +
		"1. Send a YouTube URL\n" +
		"2. Choose your preferred format\n" +
		"3. Wait for download to complete"
}

func StatusText(st flow.Status) string {
	switch st {
	case flow.StatusFetching:
		return "🔍 Fetching video information..."
	case flow.StatusPreparing:
		return "⏳ Preparing download..."
	case flow.StatusQueued:
		return "🕒 Waiting for a free download slot..."
	case flow.StatusStarting:
		return "🚀 Starting download..."
	case flow.StatusUploading:
		return "📤 Uploading to Telegram..."
	case flow.StatusDelivered:
		return "✅ Done!"
	case flow.StatusCancelled:
		return "❌ Operation cancelled."
	case flow.StatusReplaced:
		return "🔁 Discarded, a newer link replaced this request."
	default:
		return "…"
	}
}

func escapedTitle(title string) string {
	return html.EscapeString(utils.Truncate(title, maxTitle))
}

func VideoCaption(v session.VideoMetadata) string {
	return fmt.Sprintf("📌 <b>%s</b>\n🕒 Duration: %s", escapedTitle(v.Title), html.EscapeString(v.DurationLabel))
}

func FormatLabel(f *session.FormatOption) string {
	return fmt.Sprintf("🎬 %s (%s)", f.Resolution, f.SizeLabel)
}

func FormatsPrompt() string {
	return "📌 Available formats (with approximate sizes):\nPlease select your preferred quality:"
}

func ConfirmationText(v session.VideoMetadata, f *session.FormatOption) string {
	return fmt.Sprintf("📌 <b>%s</b>\n\n"+
		"🔹 Quality: %s\n"+
		"🔹 Size: %s\n"+
		"🔹 Format: %s\n\n"+
		"Would you like to start the download?",
		escapedTitle(v.Title),
		f.Resolution,
		f.SizeLabel,
		strings.ToUpper(html.EscapeString(f.Container)),
	)
}

func ProgressText(p extractor.Progress) string {
	title := "📥 <b>Downloading...</b>"
	if p.Status == flow.ProgressUploading {
		title = "📤 <b>Uploading...</b>"
	}

	total := "?"
	if p.Total > 0 {
		total = utils.FormatBytes(p.Total)
	}
	eta := "N/A"
	if p.ETA > 0 {
		eta = utils.FormatDuration(p.ETA)
	}

	var b strings.Builder
	b.WriteString(title + "\n\n")
	fmt.Fprintf(&b, "%s\n", utils.FormatProgressBar(p.Percent))
	if p.Status != flow.ProgressUploading {
		fmt.Fprintf(&b, "├ Speed: <code>%s</code>\n", utils.FormatSpeed(p.Speed))
	}
	if p.Status == flow.ProgressUploading {
		fmt.Fprintf(&b, "└ Done: <code>%s</code> of <code>%s</code>", utils.FormatBytes(p.Downloaded), total)
		return b.String()
	}
	fmt.Fprintf(&b, "├ Done: <code>%s</code> of <code>%s</code>\n", utils.FormatBytes(p.Downloaded), total)
	fmt.Fprintf(&b, "└ ETA: <code>%s</code>", eta)
	return b.String()
}

func DeliveryCaption(v delivery.Video) string {
	return fmt.Sprintf("✅ <b>%s</b>\n🔹 Resolution: %s\n🔹 Size: %s",
		escapedTitle(v.Title),
		v.Resolution,
		utils.FormatMB(v.Size),
	)
}
