package fetch

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lecturesync/internal/logging"
)

// CleanupResult lists the partial downloads removed and the failures met.
type CleanupResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a path with its removal error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStalePartials removes ".part" downloads in videosDir not modified for
// maxAge. Younger partials are kept so a resumed download can continue them.
func CleanStalePartials(videosDir string, maxAge time.Duration, now time.Time, logger *slog.Logger) CleanupResult {
	var result CleanupResult
	videosDir = strings.TrimSpace(videosDir)
	if videosDir == "" {
		return result
	}
	logger = logging.NewComponentLogger(logger, "fetch")

	entries, err := os.ReadDir(videosDir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: videosDir, Error: err})
		}
		return result
	}

	cutoff := now.Add(-maxAge)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), partialExt) {
			continue
		}
		path := filepath.Join(videosDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			logging.WarnWithContext(logger, "failed to remove stale partial download", "partial_cleanup_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check videos_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, path)
		logger.Info("removed stale partial download",
			logging.String("path", path),
			logging.Duration("age", now.Sub(info.ModTime())),
			logging.String(logging.FieldEventType, "partial_cleanup"),
		)
	}
	return result
}
