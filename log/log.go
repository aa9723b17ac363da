// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package log provides the small leveled-logging facade the rest of
// clrmeta logs through: a Logger sink, a level Filter wrapping it, and a
// Helper offering printf-style convenience methods.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level is a logging severity, ordered from most to least verbose.
type Level int8

// The supported levels, in increasing severity.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Logger logs a leveled message with alternating key-value pairs.
type Logger interface {
	Log(level Level, keyvals ...interface{}) error
}

// stdLogger writes log lines to an io.Writer, one per Log call.
type stdLogger struct {
	mu  sync.Mutex
	out io.Writer
}

// NewStdLogger returns a Logger that writes timestamped lines to w.
func NewStdLogger(w io.Writer) Logger {
	return &stdLogger{out: w}
}

func (l *stdLogger) Log(level Level, keyvals ...interface{}) error {
	if len(keyvals)%2 != 0 {
		keyvals = append(keyvals, "")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.out, "%s level=%s", time.Now().Format(time.RFC3339), level)
	for i := 0; i < len(keyvals); i += 2 {
		fmt.Fprintf(l.out, " %v=%v", keyvals[i], keyvals[i+1])
	}
	fmt.Fprintln(l.out)
	return nil
}

// FilterOption configures a Filter.
type FilterOption func(*Filter)

// FilterLevel drops any Log call below the given level.
func FilterLevel(level Level) FilterOption {
	return func(f *Filter) { f.level = level }
}

// Filter wraps a Logger, dropping messages below a configured level.
type Filter struct {
	logger Logger
	level  Level
}

// NewFilter wraps logger with the given FilterOptions applied.
func NewFilter(logger Logger, opts ...FilterOption) *Filter {
	f := &Filter{logger: logger, level: LevelDebug}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Log implements Logger, dropping messages below f's configured level.
func (f *Filter) Log(level Level, keyvals ...interface{}) error {
	if level < f.level {
		return nil
	}
	return f.logger.Log(level, keyvals...)
}

// Helper adds printf-style convenience methods on top of a Logger.
type Helper struct {
	logger Logger
}

// NewHelper wraps logger with Debug/Info/Warn/Error/Fatal helpers.
func NewHelper(logger Logger) *Helper {
	return &Helper{logger: logger}
}

func (h *Helper) log(level Level, msg string) {
	h.logger.Log(level, "msg", msg)
}

// Debugf logs at LevelDebug.
func (h *Helper) Debugf(format string, args ...interface{}) { h.log(LevelDebug, fmt.Sprintf(format, args...)) }

// Infof logs at LevelInfo.
func (h *Helper) Infof(format string, args ...interface{}) { h.log(LevelInfo, fmt.Sprintf(format, args...)) }

// Warnf logs at LevelWarn.
func (h *Helper) Warnf(format string, args ...interface{}) { h.log(LevelWarn, fmt.Sprintf(format, args...)) }

// Errorf logs at LevelError.
func (h *Helper) Errorf(format string, args ...interface{}) { h.log(LevelError, fmt.Sprintf(format, args...)) }

// Fatalf logs at LevelFatal, then exits with status 1.
func (h *Helper) Fatalf(format string, args ...interface{}) {
	h.log(LevelFatal, fmt.Sprintf(format, args...))
	os.Exit(1)
}
