package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// queryLogger routes gorm diagnostics into the service logger. Slow queries
// and unexpected failures are always reported; record-not-found is a normal
// lookup outcome and stays quiet. Every statement is traced at debug level.
type queryLogger struct {
	logg          *logger.Logger
	slowThreshold time.Duration
}

func newQueryLogger(logg *logger.Logger, slowThreshold time.Duration) gormlogger.Interface {
	if logg == nil {
		return gormlogger.Discard
	}
	return &queryLogger{logg: logg, slowThreshold: slowThreshold}
}

func (l *queryLogger) LogMode(gormlogger.LogLevel) gormlogger.Interface {
	return l
}

func (l *queryLogger) Info(context.Context, string, ...any) {}

func (l *queryLogger) Warn(ctx context.Context, msg string, _ ...any) {
	l.logg.Warn(ctx, msg)
}

func (l *queryLogger) Error(ctx context.Context, msg string, args ...any) {
	l.logg.Error(l.logg.WithField(ctx, "args", args), msg, nil)
}

func (l *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && !errors.Is(err, context.Canceled):
		sql, rows := fc()
		l.logg.Error(l.logg.WithFields(ctx, map[string]any{
			"sql":         sql,
			"rows":        rows,
			"duration_ms": elapsed.Milliseconds(),
		}), "query failed", err)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold:
		sql, rows := fc()
		l.logg.Warn(l.logg.WithFields(ctx, map[string]any{
			"sql":         sql,
			"rows":        rows,
			"duration_ms": elapsed.Milliseconds(),
		}), "slow query")
	case l.logg.DebugEnabled(ctx):
		sql, rows := fc()
		l.logg.Debug(l.logg.WithFields(ctx, map[string]any{
			"sql":         sql,
			"rows":        rows,
			"duration_ms": elapsed.Milliseconds(),
		}), "query")
	}
}
