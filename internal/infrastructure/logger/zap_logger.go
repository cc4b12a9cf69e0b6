package logger

import (
	"fmt"

	"blackboxbe/internal/domain/ports"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger реализует интерфейс ports.Logger поверх zap.SugaredLogger.
// Также удовлетворяет retryablehttp.LeveledLogger.
type ZapLogger struct {
	zap *zap.SugaredLogger
}

// NewZapLogger создает JSON-логгер с заданным уровнем (debug, info, warn, error).
func NewZapLogger(level string) (*ZapLogger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("не удалось создать логгер: %w", err)
	}
	return &ZapLogger{zap: z.Sugar()}, nil
}

// NewFromZap оборачивает готовый zap.Logger (используется в тестах с observer).
func NewFromZap(z *zap.Logger) *ZapLogger {
	return &ZapLogger{zap: z.Sugar()}
}

// NewNopLogger создает логгер, который ничего не пишет.
func NewNopLogger() *ZapLogger {
	return &ZapLogger{zap: zap.NewNop().Sugar()}
}

// ParseLevel разбирает имя уровня. Пустая строка означает info.
func ParseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return lvl, fmt.Errorf("неизвестный уровень логирования %q: %w", level, err)
	}
	return lvl, nil
}

// Debug выводит отладочную информацию.
func (l *ZapLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.zap.Debugw(msg, keysAndValues...)
}

// Info выводит информационные сообщения.
func (l *ZapLogger) Info(msg string, keysAndValues ...interface{}) {
	l.zap.Infow(msg, keysAndValues...)
}

// Warn выводит предупреждения.
func (l *ZapLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.zap.Warnw(msg, keysAndValues...)
}

// Error выводит ошибки.
func (l *ZapLogger) Error(msg string, keysAndValues ...interface{}) {
	l.zap.Errorw(msg, keysAndValues...)
}

// With возвращает дочерний логгер с постоянными полями.
func (l *ZapLogger) With(keysAndValues ...interface{}) ports.Logger {
	return &ZapLogger{zap: l.zap.With(keysAndValues...)}
}

// Sync сбрасывает буферы.
func (l *ZapLogger) Sync() error {
	return l.zap.Sync()
}
