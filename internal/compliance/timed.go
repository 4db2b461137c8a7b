package compliance

import (
	"log/slog"
	"time"
)

// Timed runs fn and logs its wall-clock duration under name. The duration is
// only logged; it never reaches the caller's result.
func Timed(logger *slog.Logger, name string, fn func() error, attrs ...any) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	args := append([]any{"op", name, "elapsed_ms", elapsed.Milliseconds()}, attrs...)
	if err != nil {
		logger.Warn("operation failed", append(args, "error", err)...)
		return err
	}
	logger.Info("operation finished", args...)
	return nil
}
