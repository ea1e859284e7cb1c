package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger adapts a zap sugared logger to the Logger port.
type ZapLogger struct {
	sugar  *zap.SugaredLogger
	prefix string
}

// NewZapLogger builds a logger for the given level ("debug", "info", ...).
// Unknown levels fall back to info.
func NewZapLogger(levelStr string, isProduction bool) (*ZapLogger, error) {
	var config zap.Config
	if isProduction {
		config = zap.NewProductionConfig()
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(level)
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	built, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &ZapLogger{sugar: built.Sugar()}, nil
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() *ZapLogger {
	return &ZapLogger{sugar: zap.NewNop().Sugar()}
}

func (z *ZapLogger) Debugf(format string, v ...interface{}) {
	z.sugar.Debugf(z.prefix+format, v...)
}

func (z *ZapLogger) Infof(format string, v ...interface{}) {
	z.sugar.Infof(z.prefix+format, v...)
}

func (z *ZapLogger) Warnf(format string, v ...interface{}) {
	z.sugar.Warnf(z.prefix+format, v...)
}

func (z *ZapLogger) Errorf(format string, v ...interface{}) {
	z.sugar.Errorf(z.prefix+format, v...)
}

func (z *ZapLogger) WithPrefix(prefix string) Logger {
	return &ZapLogger{sugar: z.sugar, prefix: z.prefix + prefix + " "}
}
