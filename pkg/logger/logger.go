package logger

// Logger is the logging port shared by every component. Implementations may
// wrap any backend; the zap adapter in this package is the default one.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
	WithPrefix(prefix string) Logger
}
