package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// lineEncoder turns one entry into the bytes of a single output line
type lineEncoder func(entry LogEntry, keys []string) ([]byte, error)

// StreamLogger writes one encoded line per entry to an io.Writer.
// JSONLogger and TextLogger are StreamLoggers with different encoders.
type StreamLogger struct {
	out    *lockedWriter
	level  Level
	fields []Field
	encode lineEncoder
	mu     sync.Mutex
}

// JSONLogger implements Logger with JSON output
type JSONLogger = StreamLogger

// TextLogger implements Logger with logfmt-style output
type TextLogger = StreamLogger

// lockedWriter serialises writes of loggers sharing one writer
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) writeLine(data []byte) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.w.Write(data)
	lw.w.Write([]byte("\n"))
}

// NewJSONLogger creates a new JSON logger
func NewJSONLogger(writer io.Writer, level Level) *JSONLogger {
	return &StreamLogger{out: &lockedWriter{w: writer}, level: level, encode: encodeJSON}
}

// NewTextLogger creates a logger writing "time LEVEL msg key=value" lines
func NewTextLogger(writer io.Writer, level Level) *TextLogger {
	return &StreamLogger{out: &lockedWriter{w: writer}, level: level, encode: encodeText}
}

// New creates a logger for the given format
func New(format Format, writer io.Writer, level Level) Logger {
	if format == FormatText {
		return NewTextLogger(writer, level)
	}
	return NewJSONLogger(writer, level)
}

// log is the internal logging method
func (l *StreamLogger) log(level Level, msg string, fields ...Field) {
	l.mu.Lock()
	if level < l.level {
		l.mu.Unlock()
		return
	}
	preset := l.fields
	l.mu.Unlock()

	fieldMap := make(map[string]any, len(preset)+len(fields))
	for _, f := range preset {
		fieldMap[f.Key] = f.Value
	}
	for _, f := range fields {
		fieldMap[f.Key] = f.Value
	}

	entry := LogEntry{
		Time:    time.Now().Format(time.RFC3339Nano),
		Level:   level.String(),
		Message: msg,
	}
	var keys []string
	if len(fieldMap) > 0 {
		entry.Fields = fieldMap
		keys = make([]string, 0, len(fieldMap))
		for k := range fieldMap {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}

	data, err := l.encode(entry, keys)
	if err != nil {
		data = []byte(fmt.Sprintf("[ERROR] Failed to encode log entry: %v", err))
	}
	l.out.writeLine(data)
}

func encodeJSON(entry LogEntry, _ []string) ([]byte, error) {
	return json.Marshal(entry)
}

func encodeText(entry LogEntry, keys []string) ([]byte, error) {
	var sb strings.Builder
	sb.WriteString(entry.Time)
	sb.WriteByte(' ')
	sb.WriteString(entry.Level)
	sb.WriteByte(' ')
	sb.WriteString(entry.Message)
	for _, k := range keys {
		sb.WriteByte(' ')
		sb.WriteString(k)
		sb.WriteByte('=')
		v := fmt.Sprint(entry.Fields[k])
		if strings.ContainsAny(v, " \t\"=") {
			v = fmt.Sprintf("%q", v)
		}
		sb.WriteString(v)
	}
	return []byte(sb.String()), nil
}

func (l *StreamLogger) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields...) }
func (l *StreamLogger) Info(msg string, fields ...Field)  { l.log(InfoLevel, msg, fields...) }
func (l *StreamLogger) Warn(msg string, fields ...Field)  { l.log(WarnLevel, msg, fields...) }
func (l *StreamLogger) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields...) }

// With creates a child logger with the given fields pre-set. The child shares
// the parent's writer.
func (l *StreamLogger) With(fields ...Field) Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	newFields := make([]Field, len(l.fields)+len(fields))
	copy(newFields, l.fields)
	copy(newFields[len(l.fields):], fields)

	return &StreamLogger{
		out:    l.out,
		level:  l.level,
		fields: newFields,
		encode: l.encode,
	}
}

// SetLevel sets the minimum log level
func (l *StreamLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// GetLevel returns the current log level
func (l *StreamLogger) GetLevel() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Global default logger
var (
	defaultLogger Logger
	defaultMu     sync.Mutex
)

// DefaultLogger returns the process-wide logger. Unless replaced with
// SetDefaultLogger it writes JSON to stderr at the level named by LOG_LEVEL.
func DefaultLogger() Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		level := InfoLevel
		if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
			level = ParseLevel(levelStr)
		}
		defaultLogger = NewJSONLogger(os.Stderr, level)
	}
	return defaultLogger
}

// SetDefaultLogger sets the global default logger
func SetDefaultLogger(logger Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// StartTimer begins timing an operation
func StartTimer(logger Logger, msg string, fields ...Field) *TimedOperation {
	return &TimedOperation{
		logger: logger,
		msg:    msg,
		start:  time.Now(),
		fields: fields,
	}
}

// End logs the operation at debug level with its duration and returns it
func (t *TimedOperation) End(extra ...Field) time.Duration {
	elapsed := time.Since(t.start)
	fields := append(append(t.fields[:len(t.fields):len(t.fields)], extra...), Latency(elapsed))
	t.logger.Debug(t.msg, fields...)
	return elapsed
}

// EndError logs the operation as an error with its duration
func (t *TimedOperation) EndError(err error) time.Duration {
	elapsed := time.Since(t.start)
	fields := append(t.fields[:len(t.fields):len(t.fields)], Latency(elapsed), Error(err))
	t.logger.Error(t.msg, fields...)
	return elapsed
}
