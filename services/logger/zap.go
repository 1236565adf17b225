package logsvc

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/trezcool/unitrack/core"
)

// ZapLogger is the default core.Logger: a sugared zap logger.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

var _ core.Logger = (*ZapLogger)(nil) // interface compliance check

// NewZapLogger builds a human-readable console logger in DEV and a JSON one otherwise.
func NewZapLogger(conf *core.Config) (*ZapLogger, error) {
	var zapCfg zap.Config
	if conf.Env == "DEV" {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	if conf.LogLevel != "" {
		level, err := zapcore.ParseLevel(conf.LogLevel)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid log level %q", conf.LogLevel)
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	logger, err := zapCfg.Build(
		zap.AddCallerSkip(1),
		zap.Fields(zap.String("app", conf.AppName), zap.String("build", conf.Build)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "building zap logger")
	}
	return &ZapLogger{sugar: logger.Sugar()}, nil
}

// NewZapLoggerFrom wraps an existing zap logger, e.g. zap.NewNop() or an observer in tests.
func NewZapLoggerFrom(logger *zap.Logger) *ZapLogger {
	return &ZapLogger{sugar: logger.Sugar()}
}

func (l *ZapLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *ZapLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *ZapLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *ZapLogger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

func (l *ZapLogger) Fatal(msg string, keysAndValues ...interface{}) {
	l.sugar.Fatalw(msg, keysAndValues...)
}

// Sync flushes buffered entries; call it before exiting.
func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}
