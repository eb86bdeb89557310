package gormlog

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"

	"github.com/fatflowers/repricer/pkg/config"
	"github.com/fatflowers/repricer/pkg/logctx"
	"github.com/fatflowers/repricer/pkg/metrics"
)

// ZapLogger implements gorm.io/gorm/logger.Interface and enriches logs with
// trace_id and caller_id from context via logctx.FromCtx.
type ZapLogger struct {
	base   *zap.SugaredLogger
	config gormlogger.Config
}

// New builds a gorm logger from the database section of cfg. A nil cfg
// yields warn level and a 500ms slow threshold.
func New(base *zap.SugaredLogger, cfg *config.Config) *ZapLogger {
	gcfg := gormlogger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	}
	if cfg != nil {
		if cfg.Database.SlowThresholdMs > 0 {
			gcfg.SlowThreshold = time.Duration(cfg.Database.SlowThresholdMs) * time.Millisecond
		}
		gcfg.LogLevel = ParseLevel(cfg.Database.LogLevel)
	}
	return &ZapLogger{base: base, config: gcfg}
}

// ParseLevel maps silent/error/warn/info to gorm levels, defaulting to warn.
func ParseLevel(s string) gormlogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

func (z *ZapLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cfg := z.config
	cfg.LogLevel = level
	return &ZapLogger{base: z.base, config: cfg}
}

func (z *ZapLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if z.config.LogLevel >= gormlogger.Info {
		logctx.FromCtx(ctx, z.base).Infow(msg, "args", data)
	}
}

func (z *ZapLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if z.config.LogLevel >= gormlogger.Warn {
		logctx.FromCtx(ctx, z.base).Warnw(msg, "args", data)
	}
}

func (z *ZapLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if z.config.LogLevel >= gormlogger.Error {
		logctx.FromCtx(ctx, z.base).Errorw(msg, "args", data)
	}
}

func (z *ZapLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if z.config.LogLevel == gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	failed := err != nil && !(z.config.IgnoreRecordNotFoundError && errors.Is(err, gormlogger.ErrRecordNotFound))
	slow := z.config.SlowThreshold > 0 && elapsed > z.config.SlowThreshold
	if !failed && !slow && z.config.LogLevel < gormlogger.Info {
		return
	}

	sql, rows := fc()
	fields := []interface{}{
		"sql", sql,
		"rows", rows,
		"elapsed_ms", elapsed.Milliseconds(),
		"caller", shortCaller(utils.FileWithLineNum()),
	}
	lg := logctx.FromCtx(ctx, z.base)
	switch {
	case failed:
		metrics.ObserveProcess("db", "error", begin)
		lg.Errorw("db query failed", append(fields, "err", err)...)
	case slow:
		metrics.ObserveProcess("db", "slow", begin)
		lg.Warnw("db query slow", append(fields, "threshold_ms", z.config.SlowThreshold.Milliseconds())...)
	default:
		lg.Infow("db query", fields...)
	}
}

// shortCaller keeps the repo-relative part of a file:line reference,
// falling back to the last three path segments.
func shortCaller(s string) string {
	if s == "" {
		return s
	}
	path, line := s, ""
	if idx := strings.LastIndex(s, ":"); idx >= 0 {
		path, line = s[:idx], s[idx:]
	}
	path = filepath.ToSlash(path)
	for _, root := range []string{"/internal/", "/pkg/", "/cmd/"} {
		if i := strings.Index(path, root); i >= 0 {
			return path[i+1:] + line
		}
	}
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(parts) > 3 {
		parts = parts[len(parts)-3:]
	}
	return strings.Join(parts, "/") + line
}
