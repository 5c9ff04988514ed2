package gamesvc

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-logr/logr"
)

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// LogFunc adapts a single line sink to Logger. Each call renders
// "LEVEL msg key=value ..." with keys sorted.
type LogFunc func(line string)

func (f LogFunc) Debug(msg string, fields map[string]interface{}) { f(formatLine("DEBUG", msg, fields)) }
func (f LogFunc) Info(msg string, fields map[string]interface{})  { f(formatLine("INFO", msg, fields)) }
func (f LogFunc) Warn(msg string, fields map[string]interface{})  { f(formatLine("WARN", msg, fields)) }
func (f LogFunc) Error(msg string, fields map[string]interface{}) { f(formatLine("ERROR", msg, fields)) }

func formatLine(level, msg string, fields map[string]interface{}) string {
	var builder strings.Builder

	builder.WriteString(level)
	builder.WriteByte(' ')
	builder.WriteString(msg)

	for _, key := range sortedKeys(fields) {
		fmt.Fprintf(&builder, " %s=%v", key, fields[key])
	}

	return builder.String()
}

func sortedKeys(fields map[string]interface{}) []string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// logrLogger bridges Logger onto a logr.Logger. Debug maps to V(1).
type logrLogger struct {
	logger logr.Logger
}

// NewLogrLogger returns a Logger backed by logger.
func NewLogrLogger(logger logr.Logger) Logger {
	return &logrLogger{logger: logger}
}

func (l *logrLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.V(1).Info(msg, keysAndValues(fields)...)
}

func (l *logrLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, keysAndValues(fields)...)
}

func (l *logrLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, append(keysAndValues(fields), "severity", "warning")...)
}

func (l *logrLogger) Error(msg string, fields map[string]interface{}) {
	var cause error

	if err, ok := fields["error"].(error); ok {
		cause = err
	}

	l.logger.Error(cause, msg, keysAndValues(fields)...)
}

func keysAndValues(fields map[string]interface{}) []interface{} {
	kv := make([]interface{}, 0, len(fields)*2)
	for _, key := range sortedKeys(fields) {
		kv = append(kv, key, fields[key])
	}

	return kv
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, map[string]interface{}) {}
func (NopLogger) Info(string, map[string]interface{})  {}
func (NopLogger) Warn(string, map[string]interface{})  {}
func (NopLogger) Error(string, map[string]interface{}) {}
