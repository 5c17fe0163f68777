package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

type Logger struct {
	sl *slog.Logger
}

// New returns a logger writing to w. Terminals get the colored handler.
func New(w io.Writer) *Logger {
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		// skip 2 slog pkg calls, 2 this pkg calls
		return &Logger{sl: slog.New(withCallDepth(4, newTerminalHandler(w)))}
	}
	return &Logger{sl: slog.New(newTextHandler(w))}
}

// Or returns l, or the default logger when l is nil.
func Or(l *Logger) *Logger {
	if l == nil {
		return defaultLogger
	}
	return l
}

func (l *Logger) Error(a ...any)   { l.log(slog.LevelError, fmt.Sprint(a...)) }
func (l *Logger) Warning(a ...any) { l.log(slog.LevelWarn, fmt.Sprint(a...)) }
func (l *Logger) Info(a ...any)    { l.log(slog.LevelInfo, fmt.Sprint(a...)) }
func (l *Logger) Debug(a ...any)   { l.log(slog.LevelDebug, fmt.Sprint(a...)) }

func (l *Logger) Errorf(format string, a ...any) {
	l.log(slog.LevelError, fmt.Sprintf(format, a...))
}

func (l *Logger) Warningf(format string, a ...any) {
	l.log(slog.LevelWarn, fmt.Sprintf(format, a...))
}

func (l *Logger) Infof(format string, a ...any) {
	l.log(slog.LevelInfo, fmt.Sprintf(format, a...))
}

func (l *Logger) Debugf(format string, a ...any) {
	l.log(slog.LevelDebug, fmt.Sprintf(format, a...))
}

func (l *Logger) With(args ...any) *Logger {
	if l.isNil() {
		return &Logger{sl: slog.New(newTextHandler(io.Discard))}
	}
	return &Logger{sl: l.sl.With(args...)}
}

func (l *Logger) log(level slog.Level, msg string) {
	if l.isNil() {
		return
	}
	l.sl.Log(context.Background(), level, msg)
}

func (l *Logger) isNil() bool { return l == nil || l.sl == nil }
