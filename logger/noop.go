package logger

// Noop returns a logger that discards every event. It is the default sink
// when a host configures no logger.
func Noop() Logger {
	return noopLogger{}
}

type noopLogger struct{}

func (noopLogger) Debug() LogEvent { return noopEvent{} }
func (noopLogger) Info() LogEvent  { return noopEvent{} }
func (noopLogger) Warn() LogEvent  { return noopEvent{} }
func (noopLogger) Error() LogEvent { return noopEvent{} }

type noopEvent struct{}

func (noopEvent) Msg(string)                     {}
func (noopEvent) Msgf(string, ...any)            {}
func (noopEvent) Err(error) LogEvent             { return noopEvent{} }
func (noopEvent) Str(string, string) LogEvent    { return noopEvent{} }
func (noopEvent) Int(string, int) LogEvent       { return noopEvent{} }
func (noopEvent) Interface(string, any) LogEvent { return noopEvent{} }
