package metrics

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewZapLogger builds a production-grade *zap.Logger writing to w at the
// given level. cmd/amvp-demo uses this as its operational logger; the
// lightweight Logger type in this package is separate and is what
// EngineObserver and PoolMetricsObserver log through.
func NewZapLogger(level Level, w io.Writer) *zap.Logger {
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(w),
		zapLevelEnabler(level),
	)
	return zap.New(core)
}

func zapLevelEnabler(level Level) zapcore.LevelEnabler {
	var min zapcore.Level
	switch level {
	case LevelDebug:
		min = zapcore.DebugLevel
	case LevelInfo:
		min = zapcore.InfoLevel
	case LevelWarn:
		min = zapcore.WarnLevel
	case LevelError:
		min = zapcore.ErrorLevel
	default: // LevelSilent and anything unrecognized
		min = zapcore.FatalLevel + 1
	}
	return zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= min
	})
}
