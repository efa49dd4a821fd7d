package chart

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// StartUploadSweeper periodically removes files older than ttl from dir.
// Requests delete their own upload; this only catches files left behind by
// a crash between save and cleanup. A non-positive ttl or interval leaves
// the sweeper off.
func StartUploadSweeper(ctx context.Context, dir string, ttl, interval time.Duration, logger *slog.Logger) bool {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 || interval <= 0 {
		logger.Warn("upload sweeper disabled", "ttl", ttl, "interval", interval)
		return false
	}
	go sweepLoop(ctx, dir, ttl, interval, logger)
	return true
}

func sweepLoop(ctx context.Context, dir string, ttl, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := SweepUploads(dir, ttl, time.Now())
			if err != nil {
				logger.Error("sweep uploads failed", "dir", dir, "error", err)
				continue
			}
			if removed > 0 {
				logger.Info("swept stale uploads", "dir", dir, "removed", removed)
			}
		}
	}
}

// SweepUploads deletes regular files in dir last modified before now-ttl and
// returns how many were removed.
func SweepUploads(dir string, ttl time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	cutoff := now.Add(-ttl)
	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("remove stale upload failed", "path", path, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}
