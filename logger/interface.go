// Package logger defines the structured logging contract used by the
// annotation engine and provides a zerolog-backed implementation plus a
// no-op sink for hosts that do not care about diagnostics.
package logger

// Logger is the contract for structured logging.
type Logger interface {
	Debug() LogEvent
	Info() LogEvent
	Warn() LogEvent
	Error() LogEvent
}

// LogEvent is a structured log event built up with fields and finished with
// a message.
type LogEvent interface {
	Msg(msg string)
	Msgf(format string, args ...any)
	Err(err error) LogEvent
	Str(key, value string) LogEvent
	Int(key string, value int) LogEvent
	Interface(key string, value any) LogEvent
}
