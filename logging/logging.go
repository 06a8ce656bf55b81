// Package logging is FluffyMUD's console logger: a small chainable
// wrapper over zerolog, in the shape of a structured log entry with a
// severity kind, a message, an optional error chain, and arbitrary fields.
//
// It also doubles as the File Daemon's bounded log envelope: Render
// produces a fixed-width boxed representation of an Entry, independent of
// whatever sink zerolog is writing to, for collaborators (the console,
// an admin telnet line) that want a human-formatted view.
package logging

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// L is the process-wide logger instance.
var L = New(os.Stdout)

// Logger wraps a zerolog.Logger behind the chainable Entry builder used
// throughout the driver.
type Logger struct {
	mu   sync.RWMutex
	zlog zerolog.Logger
}

// New builds a Logger writing human-readable console output to w.
func New(w *os.File) *Logger {
	zlog := zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}).With().
		Timestamp().
		CallerWithSkipFrameCount(3).
		Caller().
		Logger()
	return &Logger{zlog: zlog}
}

// maxChainDepth bounds how many wrapped causes WithChain will walk, per
// the bounded log envelope's depth-capped exception chain.
const maxChainDepth = 10

// Entry is an in-flight structured log record. Build one from a Logger's
// Info/Warn/Error, chain WithField(s)/WithMessage calls, then terminate
// with Write.
type Entry struct {
	logger  *Logger
	Level   string
	Message string
	Err     error
	Fields  map[string]interface{}
}

// Error starts an error-level Entry carrying err as the causal chain.
func (l *Logger) Error(err error) *Entry {
	return &Entry{logger: l, Level: "error", Err: err, Fields: make(map[string]interface{})}
}

// Warn starts a warning-level Entry.
func (l *Logger) Warn() *Entry {
	return &Entry{logger: l, Level: "warn", Fields: make(map[string]interface{})}
}

// Info starts an info-level Entry.
func (l *Logger) Info() *Entry {
	return &Entry{logger: l, Level: "info", Fields: make(map[string]interface{})}
}

// Debug starts a debug-level Entry.
func (l *Logger) Debug() *Entry {
	return &Entry{logger: l, Level: "debug", Fields: make(map[string]interface{})}
}

// WithMessage sets the entry's message.
func (e *Entry) WithMessage(msg string) *Entry {
	e.Message = msg
	return e
}

// WithField adds one key/value pair to the entry.
func (e *Entry) WithField(key string, value interface{}) *Entry {
	e.Fields[key] = value
	return e
}

// WithFields merges multiple key/value pairs into the entry.
func (e *Entry) WithFields(fields map[string]interface{}) *Entry {
	for k, v := range fields {
		e.Fields[k] = v
	}
	return e
}

// Write terminates the entry, emitting it through the underlying zerolog
// logger.
func (e *Entry) Write() {
	e.logger.mu.RLock()
	defer e.logger.mu.RUnlock()

	var zevt *zerolog.Event
	switch e.Level {
	case "error":
		zevt = e.logger.zlog.Error()
	case "warn":
		zevt = e.logger.zlog.Warn()
	case "debug":
		zevt = e.logger.zlog.Debug()
	default:
		zevt = e.logger.zlog.Info()
	}

	if e.Err != nil {
		zevt = zevt.Err(e.Err)
	}
	for k, v := range e.Fields {
		zevt = zevt.Interface(k, v)
	}
	zevt.Msg(e.Message)
}

// chain walks e.Err's Unwrap chain up to maxChainDepth entries, for the
// boxed renderer's "optional exception chain with depth cap" field.
func (e *Entry) chain() []string {
	if e.Err == nil {
		return nil
	}
	var out []string
	cur := e.Err
	for i := 0; i < maxChainDepth && cur != nil; i++ {
		out = append(out, cur.Error())
		u, ok := cur.(interface{ Unwrap() error })
		if !ok {
			break
		}
		cur = u.Unwrap()
	}
	return out
}
