package task

import (
	"context"
	"errors"
	"time"

	"github.com/CTRL-ALT-OP/docker-tools/internal/logger"
)

// Scoped runs fn as one named unit of asynchronous work and logs the elapsed
// duration on exit, whether fn succeeded, failed or was cancelled. The error
// is returned unchanged; Scoped only observes failures, it never swallows
// them.
func Scoped(ctx context.Context, name string, log *logger.Logger, fn func(context.Context) error) error {
	start := time.Now()
	log.Debug("starting operation", logger.Field{Key: "operation", Value: name})

	err := fn(ctx)
	elapsed := time.Since(start)

	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		log.Info("operation cancelled",
			logger.Field{Key: "operation", Value: name},
			logger.Field{Key: "elapsed", Value: elapsed.String()})
	case err != nil:
		log.Error("operation failed", err,
			logger.Field{Key: "operation", Value: name},
			logger.Field{Key: "elapsed", Value: elapsed.String()})
	default:
		log.Debug("operation completed",
			logger.Field{Key: "operation", Value: name},
			logger.Field{Key: "elapsed", Value: elapsed.String()})
	}
	return err
}
