package ecsloop

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// logger wraps *zap.Logger with the handful of scheduler-facing call sites
// (stage entry/exit, system panics, rejected cycles) the Stage Runner and
// App Driver need, following the logging shape of a typical zap-backed
// command entrypoint.
type logger struct {
	z *zap.Logger
}

func nopLogger() *logger {
	return &logger{z: zap.NewNop()}
}

func newLogger(z *zap.Logger) *logger {
	if z == nil {
		z = zap.NewNop()
	}
	return &logger{z: z}
}

// LoggingConfig controls the format and verbosity of a built-in *zap.Logger,
// mirroring the {level, format} shape the reference command line reads from
// its own TOML config file.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewZapLogger builds a *zap.Logger from cfg: JSON output in "json" format,
// colorized console output otherwise. An unrecognized level falls back to
// info rather than failing startup.
func NewZapLogger(cfg LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// SetLogger replaces w's logger. Passing nil installs a no-op logger.
func (w *World) SetLogger(z *zap.Logger) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.logger = newLogger(z)
}

func (l *logger) stageEnter(stage Stage) {
	l.z.Debug("stage enter", zap.String("stage", stage.String()))
}

func (l *logger) stageExit(stage Stage, elapsedMs float64) {
	l.z.Debug("stage exit", zap.String("stage", stage.String()), zap.Float64("elapsed_ms", elapsedMs))
}

func (l *logger) systemPanic(name string, recovered any) {
	l.z.Error("system panicked", zap.String("system", name), zap.Any("recover", recovered))
}

func (l *logger) cycleRejected(err error) {
	l.z.Error("schedule rejected: dependency cycle", zap.Error(err))
}
