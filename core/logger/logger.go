package logger

// Logger exposes leveled logging to the core packages without binding them
// to a concrete backend. The zerolog implementation lives in infra/logger.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}
