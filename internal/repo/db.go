// Package repo implements persistence for eggs, creatures and their generated
// assets. Two record stores share one contract: JSONStore keeps each record
// kind as a JSON array document, SQLStore maps them with GORM onto SQLite.
// This file bootstraps the SQLite database.
package repo

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-hatch-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist. Both stores
// return it so callers can match with errors.Is regardless of backend.
var ErrNotFound = gorm.ErrRecordNotFound

// slowQuery is the threshold above which queries are logged at warn.
const slowQuery = 200 * time.Millisecond

// sqlitePragmas are applied by the driver to every pooled connection.
var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"busy_timeout(5000)",
}

func sqliteDSN(path string) string {
	q := url.Values{"_pragma": sqlitePragmas}
	return path + "?" + q.Encode()
}

// OpenSQLite opens (or creates) the database at path. The parent directory
// must exist. Queries are traced as children of the request span and logged
// through the request's zerolog logger.
func OpenSQLite(path string) (*gorm.DB, error) {
	// sqlite reports a missing directory as "out of memory (14)"
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(sqliteDSN(path)), &gorm.Config{
		Logger: gormLogger{level: logger.Warn, slow: slowQuery},
	})
	if err != nil {
		return nil, err
	}
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	// A small pool: SQLite still takes one write lock at a time (busy_timeout
	// waits for it) while WAL lets readers run alongside the writer.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetMaxIdleConns(4)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// AutoMigrate creates or updates the eggs and creatures tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Egg{}, &domain.Creature{})
}

// gormLogger sends GORM's logs to the zerolog logger carried by ctx.
// Record-not-found is an expected outcome of FindEgg and is not logged.
type gormLogger struct {
	level logger.LogLevel
	slow  time.Duration
}

func (l gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	l.level = level
	return l
}

func (l gormLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= logger.Info {
		zerolog.Ctx(ctx).Info().Msgf(msg, args...)
	}
}

func (l gormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= logger.Warn {
		zerolog.Ctx(ctx).Warn().Msgf(msg, args...)
	}
}

func (l gormLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= logger.Error {
		zerolog.Ctx(ctx).Error().Msgf(msg, args...)
	}
}

func (l gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	lg := zerolog.Ctx(ctx)

	var ev *zerolog.Event
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		ev = lg.Error().Err(err)
	case l.slow > 0 && elapsed > l.slow && l.level >= logger.Warn:
		ev = lg.Warn().Dur("threshold", l.slow)
	case l.level >= logger.Info:
		ev = lg.Debug()
	default:
		return
	}
	sql, rows := fc()
	ev.Str("sql", sql).Int64("rows", rows).Dur("elapsed", elapsed).Msg("gorm query")
}
