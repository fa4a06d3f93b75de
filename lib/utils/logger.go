package utils

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SetupLogger builds the process logger at the configured level. Unknown
// levels fall back to info.
func SetupLogger(logLevel string) *zap.SugaredLogger {
	level, err := zapcore.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		level = zapcore.InfoLevel
	}

	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(level)

	logger := zap.Must(config.Build())
	return logger.Sugar()
}
