package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/0uali-Yassine/Machine-Learning-deployment-system/config"
)

// New builds the diagnostic logger. Output goes to stderr, or to a
// rotated file when cfg.File is set; stdout is never used.
func New(cfg config.LogConfig) (*zap.Logger, func() error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if cfg.Level != "" {
		if parsed, err := zapcore.ParseLevel(cfg.Level); err == nil {
			level.SetLevel(parsed)
		}
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var (
		sink    zapcore.WriteSyncer
		encoder zapcore.Encoder
		closer  = func() error { return nil }
	)
	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		sink = zapcore.AddSync(rotator)
		encoder = zapcore.NewJSONEncoder(encoderConfig)
		closer = rotator.Close
	} else {
		sink = zapcore.Lock(os.Stderr)
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	logger := zap.New(zapcore.NewCore(encoder, sink, level))
	return logger, func() error {
		_ = logger.Sync()
		return closer()
	}
}
