package logging

import (
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LoggerService interface {
	Log(value string)
	LogWarning(value string)
	LogError(value string, err error)
	LogSuccess(value string)
	// Notify records a message the operator should see even when only the
	// notification channel is watched.
	Notify(value string)
}

type Notifier interface {
	Send(level, value string) error
}

type Logger struct {
	zap      *zap.Logger
	notifier Notifier
}

func NewLogger(base *zap.Logger, notifier Notifier) *Logger {
	if base == nil {
		base = zap.NewNop()
	}
	return &Logger{zap: base, notifier: notifier}
}

// NewZap builds the process logger. format is "json" or "console".
func NewZap(format string, runID string) (*zap.Logger, error) {
	var cfg zap.Config
	if strings.EqualFold(strings.TrimSpace(format), "console") {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	if runID != "" {
		logger = logger.With(zap.String("run_id", runID))
	}
	return logger, nil
}

func NewRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func Nop() *Logger {
	return NewLogger(zap.NewNop(), nil)
}

func (l *Logger) Log(value string) {
	if l == nil {
		return
	}
	l.zap.Info(normalize(value))
}

func (l *Logger) LogWarning(value string) {
	if l == nil {
		return
	}
	l.zap.Warn(normalize(value))
}

func (l *Logger) LogError(value string, err error) {
	if l == nil {
		return
	}
	msg := normalize(value)
	if err != nil {
		l.zap.Error(msg, zap.Error(err))
		l.notify(levelError, msg+": "+err.Error())
		return
	}
	l.zap.Error(msg)
	l.notify(levelError, msg)
}

func (l *Logger) LogSuccess(value string) {
	if l == nil {
		return
	}
	l.zap.Info(normalize(value), zap.Bool("success", true))
}

func (l *Logger) Notify(value string) {
	if l == nil {
		return
	}
	msg := normalize(value)
	l.zap.Info(msg, zap.Bool("notify", true))
	l.notify(levelSuccess, msg)
}

func (l *Logger) Sync() error {
	if l == nil {
		return nil
	}
	return l.zap.Sync()
}

func (l *Logger) notify(level, value string) {
	if l.notifier == nil {
		return
	}
	if err := l.notifier.Send(level, value); err != nil {
		l.zap.Warn("notification failed", zap.Error(err))
	}
}

func normalize(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return "-"
	}
	return v
}
