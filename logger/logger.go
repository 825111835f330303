package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var instance = zap.NewNop()

// Init builds the process-wide logger. Debug mode lowers the level and uses the
// console encoder.
func Init(debug bool) error {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return err
	}
	instance = l
	return nil
}

// L returns the current logger (a no-op logger until Init is called)
func L() *zap.Logger {
	return instance
}

// Set replaces the logger, mostly useful in tests (zaptest, observer)
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	instance = l
}

func Sync() {
	_ = instance.Sync()
}
