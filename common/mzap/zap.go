package mzap

import (
	"github.com/elder-platform/elder/common/mlog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger is a mlog.Logger backed by zap.SugaredLogger.
type ZapLogger struct {
	Logger *zap.SugaredLogger
}

// Info implements Info Logger interface function.
func (l *ZapLogger) Info(args ...any) { l.Logger.Info(args...) }

// Infof implements Infof Logger interface function.
func (l *ZapLogger) Infof(format string, args ...any) { l.Logger.Infof(format, args...) }

// Infoln implements Infoln Logger interface function.
func (l *ZapLogger) Infoln(args ...any) { l.Logger.Info(args...) }

// Error implements Error Logger interface function.
func (l *ZapLogger) Error(args ...any) { l.Logger.Error(args...) }

// Errorf implements Errorf Logger interface function.
func (l *ZapLogger) Errorf(format string, args ...any) { l.Logger.Errorf(format, args...) }

// Errorln implements Errorln Logger interface function.
func (l *ZapLogger) Errorln(args ...any) { l.Logger.Error(args...) }

// Warn implements Warn Logger interface function.
func (l *ZapLogger) Warn(args ...any) { l.Logger.Warn(args...) }

// Warnf implements Warnf Logger interface function.
func (l *ZapLogger) Warnf(format string, args ...any) { l.Logger.Warnf(format, args...) }

// Warnln implements Warnln Logger interface function.
func (l *ZapLogger) Warnln(args ...any) { l.Logger.Warn(args...) }

// Debug implements Debug Logger interface function.
func (l *ZapLogger) Debug(args ...any) { l.Logger.Debug(args...) }

// Debugf implements Debugf Logger interface function.
func (l *ZapLogger) Debugf(format string, args ...any) { l.Logger.Debugf(format, args...) }

// Debugln implements Debugln Logger interface function.
func (l *ZapLogger) Debugln(args ...any) { l.Logger.Debug(args...) }

// Fatal implements Fatal Logger interface function.
func (l *ZapLogger) Fatal(args ...any) { l.Logger.Fatal(args...) }

// Fatalf implements Fatalf Logger interface function.
func (l *ZapLogger) Fatalf(format string, args ...any) { l.Logger.Fatalf(format, args...) }

// Fatalln implements Fatalln Logger interface function.
func (l *ZapLogger) Fatalln(args ...any) { l.Logger.Fatal(args...) }

// WithFields adds structured context to the logger. It returns a new logger
// and leaves the original unchanged.
//
//nolint:ireturn
func (l *ZapLogger) WithFields(fields ...any) mlog.Logger {
	return &ZapLogger{Logger: l.Logger.With(fields...)}
}

// Sync flushes buffered log entries.
func (l *ZapLogger) Sync() error {
	return l.Logger.Sync()
}

// NewLogger builds a production zap logger at the given level, or a
// development (console, colorized) logger when dev is true.
func NewLogger(levelName string, dev bool) (mlog.Logger, error) {
	level, err := mlog.ParseLevel(levelName)
	if err != nil {
		level = mlog.InfoLevel
	}

	zapLevel := toZapLevel(level)

	var cfg zap.Config
	if dev {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	base, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	return &ZapLogger{Logger: base.Sugar()}, nil
}

func toZapLevel(l mlog.LogLevel) zapcore.Level {
	switch l {
	case mlog.DebugLevel:
		return zapcore.DebugLevel
	case mlog.WarnLevel:
		return zapcore.WarnLevel
	case mlog.ErrorLevel:
		return zapcore.ErrorLevel
	case mlog.FatalLevel, mlog.PanicLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}
