// File: internal/observability/logger.go
// Package observability wraps zerolog the way chaos-utils' pkg/reporting
// logger does: a small struct around zerolog.Logger with level control
// and structured fields, injected into components rather than used as
// a bare global.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package observability

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog.Logger with component tagging.
type Logger struct {
	z zerolog.Logger
}

// Options configures a new Logger.
type Options struct {
	Level      string // debug|info|warn|error
	Pretty     bool
	Component  string
	Output     io.Writer
}

// New builds a Logger from Options, console-writer pretty printing when
// requested, otherwise structured JSON to Output (or stderr).
func New(opts Options) *Logger {
	var output io.Writer = os.Stderr
	if opts.Output != nil {
		output = opts.Output
	}
	if opts.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}

	zl := zerolog.New(output).With().Timestamp().Logger()
	if opts.Component != "" {
		zl = zl.With().Str("component", opts.Component).Logger()
	}

	switch opts.Level {
	case "debug":
		zl = zl.Level(zerolog.DebugLevel)
	case "warn":
		zl = zl.Level(zerolog.WarnLevel)
	case "error":
		zl = zl.Level(zerolog.ErrorLevel)
	default:
		zl = zl.Level(zerolog.InfoLevel)
	}
	return &Logger{z: zl}
}

// With returns a child Logger carrying an additional component tag,
// used when the supervisor hands a scoped logger to a node or path.
func (l *Logger) With(component string) *Logger {
	return &Logger{z: l.z.With().Str("component", component).Logger()}
}

func (l *Logger) Debug(msg string, fields map[string]any) { l.emit(l.z.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields map[string]any)  { l.emit(l.z.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields map[string]any)  { l.emit(l.z.Warn(), msg, fields) }
func (l *Logger) Error(msg string, err error, fields map[string]any) {
	ev := l.z.Error()
	if err != nil {
		ev = ev.Err(err)
	}
	l.emit(ev, msg, fields)
}

func (l *Logger) emit(ev *zerolog.Event, msg string, fields map[string]any) {
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

// RateLimited gates a Warn emission to at most once per interval per key,
// used for ingress format-decode warnings (spec §4.8: "log-rate-limited
// warning, continue").
type RateLimited struct {
	logger   *Logger
	interval time.Duration
	mu       sync.Mutex
	last     map[string]time.Time
}

// NewRateLimited constructs a rate-limited warning sink.
func NewRateLimited(logger *Logger, interval time.Duration) *RateLimited {
	return &RateLimited{logger: logger, interval: interval, last: make(map[string]time.Time)}
}

// Warn emits at most once per interval for the given key.
func (r *RateLimited) Warn(key, msg string, fields map[string]any) {
	now := time.Now()
	r.mu.Lock()
	prev, ok := r.last[key]
	if ok && now.Sub(prev) < r.interval {
		r.mu.Unlock()
		return
	}
	r.last[key] = now
	r.mu.Unlock()
	r.logger.Warn(msg, fields)
}
