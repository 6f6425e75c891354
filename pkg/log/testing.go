package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Entry is one record captured by a TestLogger. Field values have been
// through a JSON round trip, so numbers are float64 and errors are strings.
type Entry struct {
	Level   Level
	Message string
	Fields  map[string]any
}

// testSink is shared by a TestLogger and every logger derived from it.
type testSink struct {
	mu      sync.Mutex
	level   Level
	buf     bytes.Buffer
	entries []Entry
}

// TestLogger captures records in memory. Loggers returned by With write to
// the same sink, and SetLevel on a TestLoggerProvider affects all of them.
type TestLogger struct {
	sink   *testSink
	fields map[string]any
}

var _ Logger = (*TestLogger)(nil)

// NewTestLogger returns a logger capturing records at level and above, and
// the buffer receiving one JSON line per record.
//
//	logger, buf := log.NewTestLogger(log.LevelDebug)
//	runner.SetLogger(logger)
//	...
//	assert.True(t, logger.ContainsField(log.StateKey, "exhausted"))
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	sink := &testSink{level: level}
	return &TestLogger{sink: sink, fields: map[string]any{}}, &sink.buf
}

func (t *TestLogger) Debug(msg string, fields ...any) { t.record(LevelDebug, msg, fields) }
func (t *TestLogger) Info(msg string, fields ...any)  { t.record(LevelInfo, msg, fields) }
func (t *TestLogger) Warn(msg string, fields ...any)  { t.record(LevelWarn, msg, fields) }
func (t *TestLogger) Error(msg string, fields ...any) { t.record(LevelError, msg, fields) }

func (t *TestLogger) With(fields ...any) Logger {
	merged := make(map[string]any, len(t.fields)+len(fields)/2)
	for k, v := range t.fields {
		merged[k] = v
	}
	addPairs(merged, fields)
	return &TestLogger{sink: t.sink, fields: merged}
}

func (t *TestLogger) Enabled(_ context.Context, level Level) bool {
	t.sink.mu.Lock()
	defer t.sink.mu.Unlock()
	return t.sink.level <= level
}

func (t *TestLogger) record(level Level, msg string, fields []any) {
	if !t.Enabled(context.Background(), level) {
		return
	}

	raw := map[string]any{"level": level.String(), "message": msg}
	for k, v := range t.fields {
		raw[k] = v
	}
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			raw[ErrAttrKey] = err.Error()
			if kind := ErrorKind(err); kind != "" {
				raw[ErrorKindAttrKey] = kind
			}
			fields = fields[1:]
		}
	}
	addPairs(raw, fields)

	line, err := json.Marshal(raw)
	if err != nil {
		line, _ = json.Marshal(map[string]any{"level": level.String(), "message": msg, "marshal_error": err.Error()})
	}
	var decoded map[string]any
	_ = json.Unmarshal(line, &decoded)
	delete(decoded, "level")
	delete(decoded, "message")

	t.sink.mu.Lock()
	defer t.sink.mu.Unlock()
	t.sink.buf.Write(line)
	t.sink.buf.WriteByte('\n')
	t.sink.entries = append(t.sink.entries, Entry{Level: level, Message: msg, Fields: decoded})
}

func addPairs(dst map[string]any, fields []any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		if err, ok := fields[i+1].(error); ok {
			dst[key] = err.Error()
			continue
		}
		dst[key] = fields[i+1]
	}
}

// Entries returns a copy of the captured records in order.
func (t *TestLogger) Entries() []Entry {
	t.sink.mu.Lock()
	defer t.sink.mu.Unlock()
	return append([]Entry(nil), t.sink.entries...)
}

// Count returns the number of captured records at exactly level.
func (t *TestLogger) Count(level Level) int {
	n := 0
	for _, e := range t.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}

// ContainsMessage reports whether any record's message contains message.
func (t *TestLogger) ContainsMessage(message string) bool {
	for _, e := range t.Entries() {
		if strings.Contains(e.Message, message) {
			return true
		}
	}
	return false
}

// ContainsField reports whether any record has key set to value.
// Numbers must be given as float64.
func (t *TestLogger) ContainsField(key string, value any) bool {
	for _, e := range t.Entries() {
		if v, ok := e.Fields[key]; ok && reflect.DeepEqual(v, value) {
			return true
		}
	}
	return false
}

// Clear drops everything captured so far.
func (t *TestLogger) Clear() {
	t.sink.mu.Lock()
	defer t.sink.mu.Unlock()
	t.sink.buf.Reset()
	t.sink.entries = nil
}

// TestLoggerProvider hands out loggers sharing one TestLogger sink.
type TestLoggerProvider struct {
	logger *TestLogger
}

var _ LoggerProvider = (*TestLoggerProvider)(nil)

// NewTestLoggerProvider returns a provider and the buffer its loggers write to.
func NewTestLoggerProvider(level Level) (*TestLoggerProvider, *bytes.Buffer) {
	logger, buf := NewTestLogger(level)
	return &TestLoggerProvider{logger: logger}, buf
}

func (p *TestLoggerProvider) GetLogger() Logger {
	return p.logger
}

func (p *TestLoggerProvider) GetLoggerWithName(name string) Logger {
	return p.logger.With(ComponentKey, name)
}

func (p *TestLoggerProvider) SetLevel(level Level) {
	p.logger.sink.mu.Lock()
	defer p.logger.sink.mu.Unlock()
	p.logger.sink.level = level
}
