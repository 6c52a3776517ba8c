package middlewares

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var operationIDKey = contextKey{"operation_id"}

// LoggingMiddleware returns a middleware that logs every run of the named
// operation. It also generates a unique operation ID and stores it in the context.
func LoggingMiddleware(log *zap.SugaredLogger, name string) func(Operation) Operation {
	return func(next Operation) Operation {
		return func(ctx context.Context) error {
			opID := uuid.New().String()
			start := time.Now()

			ctx = context.WithValue(ctx, operationIDKey, opID)
			err := next(ctx)

			log.Infow("operation",
				"operation_id", opID,
				"name", name,
				"duration", time.Since(start),
				"error", err,
			)

			return err
		}
	}
}

// GetOperationIDFromContext returns the operation ID or an empty string.
func GetOperationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(operationIDKey).(string)
	return id
}
