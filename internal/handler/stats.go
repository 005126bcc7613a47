package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/gotd/td/tg"

	"github.com/pavelc4/clipnova-tg-bot/internal/stats"
	"github.com/pavelc4/clipnova-tg-bot/internal/telegram"
	"github.com/pavelc4/clipnova-tg-bot/pkg/utils"
)

// HandleStats shows the owner how the bot and its host are doing. Anyone
// else is ignored.
func (h *Handler) HandleStats(ctx context.Context, e tg.Entities, msg *tg.Message) error {
	if h.opts.OwnerID == 0 || telegram.SenderID(msg) != h.opts.OwnerID {
		return nil
	}
	chat, err := h.chatFor(e, msg)
	if err != nil {
		return err
	}

	sys := stats.GetSystemInfo(ctx, h.opts.DownloadDir)
	active, limit, sessions := h.machine.Usage()
	return chat.Reply(ctx, statsText(sys, h.stats.Snapshot(), active, limit, sessions), false)
}

func statsText(sys *stats.SystemInfo, snap stats.Snapshot, active, limit, sessions int) string {
	last := "never"
	if !snap.LastDelivery.IsZero() {
		last = snap.LastDelivery.Format("2006-01-02 15:04:05")
	}
	return fmt.Sprintf(
		"<b>System Status</b>\n\n"+
			"<b>Host</b>\n"+
			"├ System : <code>%s</code>\n"+
			"├ Host : <code>%s</code>\n"+
			"└ Uptime : <code>%s</code>\n\n"+
			"<b>Resources</b>\n"+
			"├ CPU : <code>%d cores, %.1f%%</code>\n"+
			"├ Memory : <code>%s / %s (%.1f%%)</code>\n"+
			"└ Disk free : <code>%s (%.1f%% used)</code>\n\n"+
			"<b>Bot</b>\n"+
			"├ Uptime : <code>%s</code>\n"+
			"├ Downloads : <code>%d / %d running</code>\n"+
			"├ Sessions : <code>%d</code>\n"+
			"├ Delivered : <code>%d (%s)</code>\n"+
			"├ Failed : <code>%d</code>\n"+
			"├ Users : <code>%d</code>\n"+
			"├ Today : <code>%d delivered, %d failed</code>\n"+
			"└ Last delivery : <code>%s</code>\n\n"+
			"<b>Go Process</b>\n"+
			"├ Version : <code>%s</code>\n"+
			"├ Routines : <code>%d</code>\n"+
			"├ Heap : <code>%s</code>\n"+
			"└ RSS : <code>%s</code>",
		sys.OS,
		sys.Hostname,
		sys.SystemUptime.Round(time.Second),
		sys.CPUCores, sys.CPUUsage,
		utils.FormatBytes(int64(sys.MemUsed)), utils.FormatBytes(int64(sys.MemTotal)), sys.MemPercent,
		utils.FormatBytes(int64(sys.DiskFree)), sys.DiskPercent,
		snap.Uptime.Round(time.Second),
		active, limit,
		sessions,
		snap.Delivered, utils.FormatBytes(snap.TotalBytes),
		snap.Failed,
		snap.UniqueUsers,
		snap.Today.Delivered, snap.Today.Failed,
		last,
		sys.GoVersion,
		sys.Goroutines,
		utils.FormatBytes(int64(sys.HeapAlloc)),
		utils.FormatBytes(int64(sys.ProcessMem)),
	)
}
