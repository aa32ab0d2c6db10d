// Package repo implements the data persistence layer for the contacts API,
// backed by GORM on the pure Go SQLite driver.
//
// This file opens the database: connection PRAGMAs, pool limits, the
// OpenTelemetry query tracing plugin and a zerolog bridge for GORM's own
// logging.
package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-api-response/internal/domain"
)

// pragmas run once per open, in order.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
	"PRAGMA busy_timeout=5000",
}

// Options tunes OpenSQLite. The zero value is usable.
type Options struct {
	MaxOpenConns  int           // default 10
	SlowThreshold time.Duration // default 200ms; queries slower than this log at warn
}

func (o Options) withDefaults() Options {
	if o.MaxOpenConns <= 0 {
		o.MaxOpenConns = 10
	}
	if o.SlowThreshold <= 0 {
		o.SlowThreshold = 200 * time.Millisecond
	}
	return o
}

// OpenSQLite opens or creates the database at path. The parent directory
// must already exist; a missing one is reported as-is rather than as the
// driver's opaque "out of memory (14)".
func OpenSQLite(path string, opts ...Options) (*gorm.DB, error) {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	o = o.withDefaults()

	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         queryLogger{slow: o.SlowThreshold},
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	for _, p := range pragmas {
		if err := db.Exec(p).Error; err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(o.MaxOpenConns)
	sqlDB.SetMaxIdleConns(o.MaxOpenConns)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	// Bind values may carry emails; keep them out of span attributes.
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics(), tracing.WithoutQueryVariables())); err != nil {
		return nil, err
	}
	return db, nil
}

// AutoMigrate creates or updates the contacts and idempotency tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Contact{}, &domain.Idempotency{})
}

// queryLogger sends GORM's logging to zerolog. Failed statements log at
// debug because the service layer classifies and reports them; only slow
// statements warn. SQL text is logged, bind values are not.
type queryLogger struct {
	slow time.Duration
}

func (l queryLogger) LogMode(logger.LogLevel) logger.Interface { return l }

func (queryLogger) Info(ctx context.Context, msg string, args ...any) {
	loggerFor(ctx).Info().Msgf(msg, args...)
}

func (queryLogger) Warn(ctx context.Context, msg string, args ...any) {
	loggerFor(ctx).Warn().Msgf(msg, args...)
}

func (queryLogger) Error(ctx context.Context, msg string, args ...any) {
	loggerFor(ctx).Error().Msgf(msg, args...)
}

func (l queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	var ev *zerolog.Event
	switch lg := loggerFor(ctx); {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		ev = lg.Debug().Err(err)
	case l.slow > 0 && elapsed > l.slow:
		ev = lg.Warn().Dur("slow_threshold", l.slow)
	default:
		return
	}
	sql, rows := fc()
	ev.Str("sql", sql).Int64("rows", rows).Dur("elapsed", elapsed).Msg("gorm query")
}

// loggerFor prefers a logger carried by ctx and falls back to the global one.
func loggerFor(ctx context.Context) *zerolog.Logger {
	if lg := zerolog.Ctx(ctx); lg.GetLevel() != zerolog.Disabled {
		return lg
	}
	return &log.Logger
}
