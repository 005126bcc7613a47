package utils

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pavelc4/clipnova-tg-bot/pkg/logger"
)

// SweepDir removes every entry directly under dir. It is meant for the
// download directory at startup, when no download can be running.
func SweepDir(ctx context.Context, dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to read download dir", "dir", dir, "error", err)
		}
		return 0
	}

	cleaned := 0
	for _, e := range entries {
		if ctx.Err() != nil {
			logger.Warn("Sweep cancelled", "cleaned", cleaned)
			return cleaned
		}
		path := filepath.Join(dir, e.Name())
		if err := os.RemoveAll(path); err != nil {
			logger.Warn("Failed to remove leftover", "path", path, "error", err)
			continue
		}
		cleaned++
	}

	if cleaned > 0 {
		logger.Info("Removed leftovers from previous run", "dir", dir, "count", cleaned)
	}
	return cleaned
}
