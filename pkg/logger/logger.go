package logger

import (
    "go.uber.org/fx"
    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"

    "github.com/fatflowers/repricer/pkg/config"
)

func New(cfg *config.Config) (*zap.SugaredLogger, error) {
    zcfg := zap.NewProductionConfig()
    zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
    zcfg.EncoderConfig.TimeKey = "time"
    if cfg != nil && cfg.Log.Level != "" {
        lvl, err := zapcore.ParseLevel(cfg.Log.Level)
        if err != nil {
            return nil, err
        }
        zcfg.Level = zap.NewAtomicLevelAt(lvl)
    }
    if cfg != nil && cfg.Env == config.EnvDev {
        zcfg.Development = true
    }
    l, err := zcfg.Build()
    if err != nil {
        return nil, err
    }
    return l.Sugar(), nil
}

var Module = fx.Options(
    fx.Provide(New),
)
