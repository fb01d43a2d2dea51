package database

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"plume/internal/middleware"
	"plume/internal/observability"
)

// slogGormLogger bridges gorm's logger interface onto the app's slog logger
// and records query latency.
type slogGormLogger struct {
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

func NewSlogGormLogger(level gormlogger.LogLevel, slowThreshold time.Duration) gormlogger.Interface {
	return &slogGormLogger{level: level, slowThreshold: slowThreshold}
}

func (l *slogGormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *slogGormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		middleware.Logger.InfoContext(ctx, "gorm", slog.String("msg", msg), slog.Any("args", args))
	}
}

func (l *slogGormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		middleware.Logger.WarnContext(ctx, "gorm", slog.String("msg", msg), slog.Any("args", args))
	}
}

func (l *slogGormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		middleware.Logger.ErrorContext(ctx, "gorm", slog.String("msg", msg), slog.Any("args", args))
	}
}

func (l *slogGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	observability.DatabaseQueryLatency.Observe(elapsed.Seconds())

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		middleware.Logger.ErrorContext(ctx, "gorm query failed",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()))
	case l.slowThreshold > 0 && elapsed > l.slowThreshold:
		sql, rows := fc()
		middleware.Logger.WarnContext(ctx, "gorm slow query",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed))
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		middleware.Logger.InfoContext(ctx, "gorm query",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed))
	}
}
