package log

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	level  = zap.NewAtomicLevelAt(zap.InfoLevel)
	logger atomic.Pointer[zap.Logger]
)

func init() {
	logger.Store(newLogger())
}

func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.DisableStacktrace = true
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// 设置日志级别（debug/info/warn/error），无效值时保持原级别
func SetLevel(lvl string) (err error) {
	var l zapcore.Level
	if err = l.UnmarshalText([]byte(lvl)); err != nil {
		return
	}
	level.SetLevel(l)
	return
}

// 替换全局logger，测试中可用zaptest/observer注入
func ReplaceLogger(l *zap.Logger) (restore func()) {
	prev := logger.Swap(l)
	return func() {
		logger.Store(prev)
	}
}

func L() *zap.Logger {
	return logger.Load()
}

func Debug(msg string, fields ...zap.Field) {
	logger.Load().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	logger.Load().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	logger.Load().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	logger.Load().Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	logger.Load().Fatal(msg, fields...)
}

func Sync() error {
	return logger.Load().Sync()
}
