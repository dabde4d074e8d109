package engine

import (
	"github.com/l1jgo/engine/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger from the [logging] config section.
// Output goes to cfg.Output when set, stderr otherwise.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
		zapCfg.Sampling = nil
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	if cfg.Output != "" {
		zapCfg.OutputPaths = []string{cfg.Output}
		if cfg.Format != "json" {
			zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		}
	}
	zapCfg.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level, zapcore.InfoLevel))

	return zapCfg.Build()
}

// Named returns the sub-logger for one engine subsystem. A level configured
// under [logging.levels] can only raise the minimum, never lower it.
func Named(log *zap.Logger, cfg config.LoggingConfig, name string) *zap.Logger {
	sub := log.Named(name)
	s, ok := cfg.Levels[name]
	if !ok {
		return sub
	}
	lvl := parseLevel(s, zapcore.DebugLevel)
	if !log.Core().Enabled(lvl) {
		return sub
	}
	return sub.WithOptions(zap.IncreaseLevel(lvl))
}

func parseLevel(s string, fallback zapcore.Level) zapcore.Level {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return fallback
	}
	return level
}
