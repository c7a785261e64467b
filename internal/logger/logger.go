package logger

import (
	"fmt"
	"io"
	"log"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	}
	return "UNKNOWN"
}

// Logger writes leveled messages to a single destination. A Logger is
// created once in main and handed to every component that logs.
type Logger struct {
	out   *log.Logger
	name  string
	level LogLevel
}

func New(w io.Writer, name string) *Logger {
	return &Logger{
		out:   log.New(w, "", log.LstdFlags),
		name:  name,
		level: INFO,
	}
}

// Discard returns a Logger that drops everything, for tests.
func Discard() *Logger {
	return New(io.Discard, "")
}

func (l *Logger) SetLevel(level LogLevel) {
	l.level = level
}

func (l *Logger) formatMessage(level LogLevel, format string, args ...interface{}) string {
	msg := fmt.Sprintf(format, args...)
	if l.name == "" {
		return fmt.Sprintf("[%s] %s", level, msg)
	}
	return fmt.Sprintf("[%s] [%s] %s", level, l.name, msg)
}

func (l *Logger) logf(level LogLevel, format string, args ...interface{}) {
	if l == nil || level < l.level {
		return
	}
	l.out.Println(l.formatMessage(level, format, args...))
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.logf(DEBUG, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.logf(INFO, format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.logf(WARN, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.logf(ERROR, format, args...)
}
