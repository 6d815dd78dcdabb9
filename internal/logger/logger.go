package logger

import (
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"codeberg.org/mutker/powerctl/internal/errors"
	"github.com/rs/zerolog"
)

var log = zerolog.New(io.Discard)

type LogLevel int8

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

type LogEvent struct {
	*zerolog.Event
}

func (e *LogEvent) Msg(msg string) {
	e.Event.Msg(msg)
}

func (e *LogEvent) Send() {
	e.Event.Send()
}

// Init initializes the logger based on the given configuration
func Init(debug, verbose, isService bool) {
	InitWriter(os.Stdout, isService)

	SetLogLevel(WarnLevel) // Default log level

	if debug {
		SetLogLevel(DebugLevel)
	} else if verbose {
		SetLogLevel(InfoLevel)
	}
}

// InitWriter points the global logger at w using the console format.
func InitWriter(w io.Writer, isService bool) {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}

	if isService {
		output.TimeFormat = ""
		output.FormatTimestamp = func(_ interface{}) string {
			return ""
		}
	}

	log = zerolog.New(output).With().Timestamp().Logger()
}

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	zerolog.SetGlobalLevel(zerolog.Level(level))
}

// ParseLevel maps a configured level name onto a LogLevel.
func ParseLevel(name string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, errors.New().WithData(errors.ErrInvalidLogLevel, name)
	}
}

// IsService checks if the application is running as a service
func IsService() bool {
	if _, err := os.Stdin.Stat(); err != nil {
		return true
	}
	if os.Getenv("SERVICE_NAME") != "" || os.Getenv("INVOCATION_ID") != "" {
		return true
	}
	if os.Getppid() == 1 {
		return true
	}

	return syscall.Getpgrp() == syscall.Getpid()
}

// Debug logs a debug message
func Debug() *LogEvent {
	return &LogEvent{log.Debug()}
}

// Info logs an info message
func Info() *LogEvent {
	return &LogEvent{log.Info()}
}

// Warn logs a warning message
func Warn() *LogEvent {
	return &LogEvent{log.Warn()}
}

// Error logs an error message
func Error() *LogEvent {
	return &LogEvent{log.Error()}
}

// ErrorWithCode logs an error message with a specific error code
func ErrorWithCode(err errors.Error) *LogEvent {
	return &LogEvent{withCode(log.Error(), err)}
}

// Fatal logs a fatal message and exits the program
func Fatal() *LogEvent {
	return &LogEvent{log.Fatal()}
}

// FatalWithCode logs a fatal message with a specific error code and exits the program
func FatalWithCode(err errors.Error) *LogEvent {
	return &LogEvent{withCode(log.Fatal(), err)}
}

func withCode(ev *zerolog.Event, err errors.Error) *zerolog.Event {
	return ev.
		Str("error_code", string(err.Code())).
		Str("error_message", err.Error()).
		AnErr("error", err.Unwrap())
}

// componentLogger scopes the global logger to one component. It reads the
// global logger on every call so Init after construction still applies.
type componentLogger struct {
	component string
	base      *zerolog.Logger
}

// New returns a Logger that tags every event with component.
func New(component string) Logger {
	return &componentLogger{component: component}
}

// NewWithWriter returns a Logger writing JSON lines to w, for tests.
func NewWithWriter(w io.Writer, component string) Logger {
	zl := zerolog.New(w).With().Timestamp().Logger()
	return &componentLogger{component: component, base: &zl}
}

func (l *componentLogger) logger() *zerolog.Logger {
	if l.base != nil {
		return l.base
	}
	return &log
}

func (l *componentLogger) event(ev *zerolog.Event) *LogEvent {
	return &LogEvent{ev.Str("component", l.component)}
}

func (l *componentLogger) Debug() *LogEvent { return l.event(l.logger().Debug()) }
func (l *componentLogger) Info() *LogEvent  { return l.event(l.logger().Info()) }
func (l *componentLogger) Warn() *LogEvent  { return l.event(l.logger().Warn()) }
func (l *componentLogger) Error() *LogEvent { return l.event(l.logger().Error()) }

func (l *componentLogger) ErrorWithCode(err errors.Error) *LogEvent {
	return l.event(withCode(l.logger().Error(), err))
}

func (l *componentLogger) ErrorWithContext(err errors.Error, component, operation string) *LogEvent {
	return &LogEvent{withCode(l.logger().Error(), err).
		Str("component", component).
		Str("operation", operation)}
}

func (l *componentLogger) With(component string) Logger {
	return &componentLogger{component: l.component + "." + component, base: l.base}
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	zl := zerolog.Nop()
	return &componentLogger{component: "nop", base: &zl}
}
