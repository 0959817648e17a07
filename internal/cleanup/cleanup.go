package cleanup

import (
	"os"
	"time"

	"context"

	"github.com/streamcap/streamcapd/internal/logctx"
	"github.com/streamcap/streamcapd/internal/storage"
)

// DeleteExpiredCaptures deletes capture files older than keepDuration based on
// tracked records. Active captures are never touched.
func DeleteExpiredCaptures(ctx context.Context, records []storage.CaptureRecord, keepDuration time.Duration) error {
	logger := logctx.LoggerFromContext(ctx)
	now := time.Now()

	for _, rec := range records {
		if rec.Status == storage.CaptureStatusActive {
			continue
		}

		info, err := os.Stat(rec.OutputPath)
		if err != nil {
			if os.IsNotExist(err) {
				continue // already deleted
			}

			logger.Error("Failed to stat file", "file", rec.OutputPath, "err", err)

			return err
		}

		endedAt, err := time.Parse(time.RFC3339, rec.EndedAt)
		if err != nil {
			// fallback: use file mod time
			logger.Warn("Failed to parse capture end time, using file mod time", "file", rec.OutputPath, "err", err)

			endedAt = info.ModTime()
		}

		if now.Sub(endedAt) > keepDuration {
			if err := os.Remove(rec.OutputPath); err != nil && !os.IsNotExist(err) {
				logger.Error("Failed to delete expired file", "file", rec.OutputPath, "err", err)

				return err
			}

			logger.Info("Deleted expired file", "file", rec.OutputPath)
		}
	}

	return nil
}
