// Package logsink is the reporting channel used while parsing options and
// configuration files. Parsers never stop on user errors; they emit a message
// of a given severity and carry on, and the caller inspects the counts at the
// end.
package logsink

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Severity of an emitted message
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// ParseSeverity parses a severity name (case-insensitive).
// Unknown names map to SeverityInfo.
func ParseSeverity(name string) Severity {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return SeverityDebug
	case "INFO":
		return SeverityInfo
	case "WARN", "WARNING":
		return SeverityWarning
	case "ERROR":
		return SeverityError
	case "FATAL":
		return SeverityFatal
	default:
		return SeverityInfo
	}
}

// Sink receives messages. Emit is fire-and-forget.
type Sink interface {
	Emit(severity Severity, message string)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(severity Severity, message string)

func (f SinkFunc) Emit(severity Severity, message string) { f(severity, message) }

// Discard returns a sink that drops everything.
func Discard() Sink {
	return SinkFunc(func(Severity, string) {})
}

// zerologSink forwards messages to a zerolog.Logger
type zerologSink struct {
	logger zerolog.Logger
}

// Zerolog wraps an existing zerolog.Logger.
func Zerolog(logger zerolog.Logger) Sink {
	return &zerologSink{logger: logger}
}

// New creates a zerolog backed sink writing to w (os.Stderr when nil).
// pretty selects the human readable console format.
func New(w io.Writer, pretty bool) Sink {
	if w == nil {
		w = os.Stderr
	}
	out := w
	if pretty {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return Zerolog(zerolog.New(out).With().Timestamp().Logger())
}

func (z *zerologSink) Emit(severity Severity, message string) {
	z.logger.WithLevel(level(severity)).Msg(message)
}

// level maps a severity onto a zerolog level; fatal is logged at error
// level so that emitting never exits the process.
func level(s Severity) zerolog.Level {
	switch s {
	case SeverityDebug:
		return zerolog.DebugLevel
	case SeverityInfo:
		return zerolog.InfoLevel
	case SeverityWarning:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

var (
	defaultOnce sync.Once
	defaultSink Sink
)

// Default returns the shared console sink on stderr.
func Default() Sink {
	defaultOnce.Do(func() {
		defaultSink = New(os.Stderr, true)
	})
	return defaultSink
}

// Counter forwards messages to another sink and counts errors and warnings.
type Counter struct {
	sink     Sink
	errors   atomic.Int64
	warnings atomic.Int64
}

// NewCounter wraps sink; a nil sink discards messages.
func NewCounter(sink Sink) *Counter {
	if sink == nil {
		sink = Discard()
	}
	return &Counter{sink: sink}
}

func (c *Counter) Emit(severity Severity, message string) {
	switch {
	case severity >= SeverityError:
		c.errors.Add(1)
	case severity == SeverityWarning:
		c.warnings.Add(1)
	}
	c.sink.Emit(severity, message)
}

// Errors returns the number of error (or fatal) messages seen since the last reset.
func (c *Counter) Errors() int { return int(c.errors.Load()) }

// Warnings returns the number of warnings seen since the last reset.
func (c *Counter) Warnings() int { return int(c.warnings.Load()) }

// Reset zeroes both counters.
func (c *Counter) Reset() {
	c.errors.Store(0)
	c.warnings.Store(0)
}

// Entry is one recorded message
type Entry struct {
	Severity Severity
	Message  string
}

// Recorder keeps every message in memory. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) Emit(severity Severity, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Severity: severity, Message: message})
}

// Entries returns a copy of the recorded messages.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Messages returns the recorded messages of the given severity.
func (r *Recorder) Messages(severity Severity) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.entries {
		if e.Severity == severity {
			out = append(out, e.Message)
		}
	}
	return out
}

// Contains reports whether any message contains substr.
func (r *Recorder) Contains(substr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// Reset forgets every recorded message.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}
