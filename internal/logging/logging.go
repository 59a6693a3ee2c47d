// Package logging builds the zerolog root logger and bridges GORM's logger onto it.
package logging

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// New returns a logger writing to w. format is "json" or "console".
func New(w io.Writer, level, format string) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// SlowQueryThreshold is the duration above which GORM queries are logged.
const SlowQueryThreshold = 500 * time.Millisecond

// Gorm adapts a zerolog.Logger to gorm's logger.Interface. Only errors and
// slow queries are reported.
type Gorm struct {
	Log   zerolog.Logger
	Level gormlogger.LogLevel
}

func NewGorm(log zerolog.Logger) *Gorm {
	return &Gorm{Log: log.With().Str("component", "gorm").Logger(), Level: gormlogger.Warn}
}

func (g *Gorm) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *g
	cp.Level = level
	return &cp
}

func (g *Gorm) Info(_ context.Context, msg string, args ...any) {
	if g.Level >= gormlogger.Info {
		g.Log.Info().Msgf(msg, args...)
	}
}

func (g *Gorm) Warn(_ context.Context, msg string, args ...any) {
	if g.Level >= gormlogger.Warn {
		g.Log.Warn().Msgf(msg, args...)
	}
}

func (g *Gorm) Error(_ context.Context, msg string, args ...any) {
	if g.Level >= gormlogger.Error {
		g.Log.Error().Msgf(msg, args...)
	}
}

func (g *Gorm) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.Level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && g.Level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		g.Log.Error().Err(err).Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("query failed")
	case elapsed > SlowQueryThreshold && g.Level >= gormlogger.Warn:
		sql, rows := fc()
		g.Log.Warn().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("slow query")
	case g.Level >= gormlogger.Info:
		sql, rows := fc()
		g.Log.Debug().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("query")
	}
}
