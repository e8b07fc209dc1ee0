package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// StructuredLogger is the reference Logger implementation: text output for
// local development, JSON when ASC_LOG_FORMAT=json or KUBERNETES_SERVICE_HOST
// is set, with a rate limiter on Error-level logs. It implements
// ComponentAwareLogger so that WithComponent scoping composes across every
// ASC subpackage.
//
// Configuration priority: explicit constructor options, then environment
// variables (ASC_LOG_LEVEL, ASC_LOG_FORMAT), then auto-detection, then
// defaults.
type StructuredLogger struct {
	level     string
	component string
	format    string
	output    io.Writer
	mu        sync.RWMutex

	errorLimiter *rateLimiter
}

// StructuredLoggerOption configures NewStructuredLogger.
type StructuredLoggerOption func(*StructuredLogger)

// WithLevel sets the minimum log level (DEBUG, INFO, WARN, ERROR).
func WithLevel(level string) StructuredLoggerOption {
	return func(l *StructuredLogger) { l.level = strings.ToUpper(level) }
}

// WithFormat sets the output format ("text" or "json").
func WithFormat(format string) StructuredLoggerOption {
	return func(l *StructuredLogger) { l.format = format }
}

// WithOutput redirects log output, primarily for tests.
func WithOutput(w io.Writer) StructuredLoggerOption {
	return func(l *StructuredLogger) { l.output = w }
}

// NewStructuredLogger builds the reference Logger implementation.
func NewStructuredLogger(opts ...StructuredLoggerOption) *StructuredLogger {
	level := os.Getenv("ASC_LOG_LEVEL")
	if level == "" {
		level = "INFO"
	}

	format := "text"
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		format = "json"
	}
	if envFormat := os.Getenv("ASC_LOG_FORMAT"); envFormat != "" {
		format = envFormat
	}

	l := &StructuredLogger{
		level:        strings.ToUpper(level),
		format:       format,
		output:       os.Stdout,
		errorLimiter: newRateLimiter(time.Second),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *StructuredLogger) Info(msg string, fields map[string]interface{}) {
	l.log("INFO", msg, fields)
}

func (l *StructuredLogger) Warn(msg string, fields map[string]interface{}) {
	l.log("WARN", msg, fields)
}

func (l *StructuredLogger) Error(msg string, fields map[string]interface{}) {
	if l.errorLimiter != nil && !l.errorLimiter.Allow() {
		return
	}
	l.log("ERROR", msg, fields)
}

func (l *StructuredLogger) Debug(msg string, fields map[string]interface{}) {
	l.log("DEBUG", msg, fields)
}

func (l *StructuredLogger) InfoWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.Info(msg, fields)
}

func (l *StructuredLogger) WarnWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.Warn(msg, fields)
}

func (l *StructuredLogger) ErrorWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.Error(msg, fields)
}

func (l *StructuredLogger) DebugWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.Debug(msg, fields)
}

// WithComponent returns a new logger scoped to component, sharing this
// logger's level/format/output/rate limiter.
func (l *StructuredLogger) WithComponent(component string) Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return &StructuredLogger{
		level:        l.level,
		component:    component,
		format:       l.format,
		output:       l.output,
		errorLimiter: l.errorLimiter,
	}
}

func (l *StructuredLogger) log(level, msg string, fields map[string]interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.shouldLog(level) {
		return
	}

	timestamp := time.Now().Format(time.RFC3339)
	if l.format == "json" {
		l.logJSON(timestamp, level, msg, fields)
	} else {
		l.logText(timestamp, level, msg, fields)
	}
}

func (l *StructuredLogger) logJSON(timestamp, level, msg string, fields map[string]interface{}) {
	entry := map[string]interface{}{
		"timestamp": timestamp,
		"level":     level,
		"component": l.component,
		"message":   msg,
	}
	for k, v := range fields {
		if k != "timestamp" && k != "level" && k != "component" && k != "message" {
			entry[k] = v
		}
	}
	if data, err := json.Marshal(entry); err == nil {
		fmt.Fprintln(l.output, string(data))
	}
}

func (l *StructuredLogger) logText(timestamp, level, msg string, fields map[string]interface{}) {
	var b strings.Builder
	if len(fields) > 0 {
		b.WriteString(" ")
		if op, ok := fields["operation"]; ok {
			fmt.Fprintf(&b, "operation=%v ", op)
		}
		for k, v := range fields {
			if k == "operation" {
				continue
			}
			fmt.Fprintf(&b, "%s=%v ", k, v)
		}
	}
	comp := l.component
	if comp == "" {
		comp = "asc"
	}
	fmt.Fprintf(l.output, "%s [%s] [%s] %s%s\n", timestamp, level, comp, msg, b.String())
}

func (l *StructuredLogger) shouldLog(level string) bool {
	levels := map[string]int{"DEBUG": 0, "INFO": 1, "WARN": 2, "ERROR": 3}
	cur, ok1 := levels[l.level]
	msg, ok2 := levels[level]
	if !ok1 || !ok2 {
		return true
	}
	return msg >= cur
}

var _ ComponentAwareLogger = (*StructuredLogger)(nil)
