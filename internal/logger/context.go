// internal/logger/context.go
//
// Request-scoped loggers.  The access-log middleware stores a logger that
// already carries request_id, method, and path; handlers pull it back out
// with FromContext and add their own fields.

package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// WithContext returns a child context carrying l.
func WithContext(ctx context.Context, l *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the request logger, or the global sugared logger when
// none was attached.  Never nil.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zap.SugaredLogger); ok && l != nil {
			return l
		}
	}
	return zap.S()
}
