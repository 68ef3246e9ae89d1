// Test helpers: a Logger that captures JSON lines in memory.

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// TestLogger captures all log messages in memory for later inspection.
type TestLogger struct {
	mu     *sync.Mutex
	buffer *bytes.Buffer
	level  Level
	fields map[string]interface{}
}

// NewTestLogger creates a TestLogger with the specified minimum level and
// returns it with the buffer that receives its output.
//
//	logger, buffer := log.NewTestLogger(log.LevelDebug)
//	logger.Info("test message", "key", "value")
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	buffer := &bytes.Buffer{}
	return &TestLogger{
		mu:     &sync.Mutex{},
		buffer: buffer,
		level:  level,
		fields: make(map[string]interface{}),
	}, buffer
}

func (t *TestLogger) Debug(msg string, fields ...any) { t.log(LevelDebug, msg, fields) }
func (t *TestLogger) Info(msg string, fields ...any)  { t.log(LevelInfo, msg, fields) }
func (t *TestLogger) Warn(msg string, fields ...any)  { t.log(LevelWarn, msg, fields) }

func (t *TestLogger) Error(msg string, fields ...any) {
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			fields = append([]any{"error", err}, fields[1:]...)
		}
	}
	t.log(LevelError, msg, fields)
}

// With implements Logger.With. The child shares the parent's buffer.
func (t *TestLogger) With(fields ...any) Logger {
	newFields := make(map[string]interface{}, len(t.fields)+len(fields)/2)
	for k, v := range t.fields {
		newFields[k] = v
	}
	mergeFields(newFields, fields)

	return &TestLogger{
		mu:     t.mu,
		buffer: t.buffer,
		level:  t.level,
		fields: newFields,
	}
}

// Enabled implements Logger.Enabled.
func (t *TestLogger) Enabled(_ context.Context, level Level) bool {
	return t.level <= level
}

func (t *TestLogger) log(level Level, msg string, fields []any) {
	if level < t.level {
		return
	}
	entry := map[string]interface{}{
		"level":   level.String(),
		"message": msg,
	}
	for k, v := range t.fields {
		entry[k] = v
	}
	mergeFields(entry, fields)

	jsonData, _ := json.Marshal(entry)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buffer.Write(jsonData)
	t.buffer.WriteByte('\n')
}

func mergeFields(dst map[string]interface{}, fields []any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		if err, ok := fields[i+1].(error); ok {
			dst[key] = err.Error()
			continue
		}
		dst[key] = fields[i+1]
	}
}

// GetLogEntries parses the captured output into one map per record.
func (t *TestLogger) GetLogEntries() ([]map[string]interface{}, error) {
	t.mu.Lock()
	raw := t.buffer.String()
	t.mu.Unlock()

	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ContainsMessage reports whether any record contains message.
func (t *TestLogger) ContainsMessage(message string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Contains(t.buffer.String(), message)
}

// ContainsField reports whether any record has key set to value. Numbers
// come back from JSON as float64.
func (t *TestLogger) ContainsField(key string, value interface{}) bool {
	entries, err := t.GetLogEntries()
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if fieldValue, exists := entry[key]; exists && fieldValue == value {
			return true
		}
	}
	return false
}

// TestLoggerProvider implements LoggerProvider on top of a TestLogger.
type TestLoggerProvider struct {
	logger *TestLogger
}

// NewTestLoggerProvider creates a provider whose loggers share one buffer.
func NewTestLoggerProvider(level Level) (*TestLoggerProvider, *TestLogger) {
	logger, _ := NewTestLogger(level)
	return &TestLoggerProvider{logger: logger}, logger
}

func (p *TestLoggerProvider) GetLogger() Logger { return p.logger }

func (p *TestLoggerProvider) GetLoggerWithName(name string) Logger {
	return p.logger.With(ComponentKey, name)
}

func (p *TestLoggerProvider) SetLevel(level Level) { p.logger.level = level }
