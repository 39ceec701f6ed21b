package db

import (
	"context"
	"errors"
	"time"

	"github.com/apimgmt/mgmtrepo/internal/slogging"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQueryThreshold = 500 * time.Millisecond

// gormLogger adapts slogging to GORM's logger interface
type gormLogger struct {
	log        *slogging.Logger
	logQueries bool
	silent     bool
}

func newGormLogger(log *slogging.Logger, logQueries bool) logger.Interface {
	return &gormLogger{log: log.With("component", "gorm"), logQueries: logQueries}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	cp := *l
	cp.silent = level == logger.Silent
	return &cp
}

func (l *gormLogger) Info(_ context.Context, msg string, data ...any) {
	if !l.silent {
		l.log.Info(msg, data...)
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, data ...any) {
	if !l.silent {
		l.log.Warn(msg, data...)
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, data ...any) {
	if !l.silent {
		l.log.Error(msg, data...)
	}
}

// Trace logs failed statements at error level. Record-not-found is an expected miss for
// find operations and is not reported.
func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		l.log.Error("GORM query error: %v [%s] (%d rows, %s)", err, sql, rows, elapsed)
	case elapsed > slowQueryThreshold:
		sql, rows := fc()
		l.log.Warn("GORM slow query: %s (%d rows, %s)", sql, rows, elapsed)
	case l.logQueries:
		sql, rows := fc()
		l.log.Debug("GORM query: %s (%d rows, %s)", sql, rows, elapsed)
	}
}
