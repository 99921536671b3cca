package core

// Logger is implemented by the application loggers (see services/logger).
// args may hold errors, extra data maps, or the student concerned.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
