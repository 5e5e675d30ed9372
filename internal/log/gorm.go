package log

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger routes gorm's SQL logging through the global slog logger.
type GormLogger struct {
	Level         gormlogger.LogLevel
	SlowThreshold time.Duration
}

// NewGormLogger logs SQL errors and queries slower than slow.
func NewGormLogger(slow time.Duration) *GormLogger {
	return &GormLogger{Level: gormlogger.Warn, SlowThreshold: slow}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.Level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.Level >= gormlogger.Info {
		Debug(ctx, fmt.Sprintf(msg, args...), "component", "gorm")
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.Level >= gormlogger.Warn {
		Warn(ctx, fmt.Sprintf(msg, args...), "component", "gorm")
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.Level >= gormlogger.Error {
		Error(ctx, fmt.Sprintf(msg, args...), "component", "gorm")
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.Level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && l.Level >= gormlogger.Error && !expectedError(err):
		sql, rows := fc()
		Error(ctx, "sql error", "component", "gorm", "error", err, "elapsed", elapsed, "rows", rows, "sql", sql)
	case l.SlowThreshold > 0 && elapsed > l.SlowThreshold && l.Level >= gormlogger.Warn:
		sql, rows := fc()
		Warn(ctx, "slow sql", "component", "gorm", "elapsed", elapsed, "threshold", l.SlowThreshold, "rows", rows, "sql", sql)
	case l.Level >= gormlogger.Info:
		sql, rows := fc()
		Debug(ctx, "sql", "component", "gorm", "elapsed", elapsed, "rows", rows, "sql", sql)
	}
}

// expectedError reports errors the callers turn into 404 and 409 responses.
func expectedError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, gorm.ErrDuplicatedKey)
}
