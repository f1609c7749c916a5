package middleware

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hanpama/silkweave/internal/reqid"
)

// Logging records every resolution at debug level and failures at warn.
func Logging(logger logrus.FieldLogger) *Middleware {
	return New("logging", func(ctx context.Context, next Next, opts *Options) (any, error) {
		start := time.Now()
		value, err := next(ctx)
		fields := logrus.Fields{
			"operation":   opts.Path(),
			"kind":        opts.Kind,
			"duration_ms": time.Since(start).Milliseconds(),
		}
		if id, ok := reqid.FromContext(ctx); ok {
			fields["request_id"] = id
		}
		entry := logger.WithFields(fields)
		if err != nil {
			entry.WithError(err).Warn("resolution failed")
			return value, err
		}
		entry.Debug("resolved")
		return value, nil
	})
}
