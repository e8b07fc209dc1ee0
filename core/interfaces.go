// Package core holds the small, dependency-free interfaces shared by every
// ASC package: logging, telemetry, and the error taxonomy. Components accept
// these as constructor options rather than importing a concrete logging or
// tracing library directly.
package core

import (
	"context"
)

// Logger is the minimal logging interface every ASC component accepts.
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	Debug(msg string, fields map[string]interface{})

	InfoWithContext(ctx context.Context, msg string, fields map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, fields map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, fields map[string]interface{})
	DebugWithContext(ctx context.Context, msg string, fields map[string]interface{})
}

// ComponentAwareLogger extends Logger with component-scoping. Every ASC
// subpackage requests a logger scoped to "asc/<component>" when the supplied
// logger implements this interface; otherwise it logs unscoped.
//
// Component naming convention:
//   - "asc/history"      - HistoryLog & hashing
//   - "asc/cycles"       - CycleDetector
//   - "asc/degradation"  - DegradationManager
//   - "asc/healing"      - Self-Healing Engine
//   - "asc/escalation"   - Escalation Manager
//   - "asc/prevention"   - Proactive Prevention
//   - "asc/checkpoint"   - Checkpoint Manager
//   - "asc/decomposition" - Task Decomposer
//   - "asc/safety"       - Integration Façade
type ComponentAwareLogger interface {
	Logger
	WithComponent(component string) Logger
}

// ScopedLogger returns l.WithComponent("asc/"+component) if l implements
// ComponentAwareLogger, otherwise returns l unchanged.
func ScopedLogger(l Logger, component string) Logger {
	if l == nil {
		return &NoOpLogger{}
	}
	if cal, ok := l.(ComponentAwareLogger); ok {
		return cal.WithComponent("asc/" + component)
	}
	return l
}

// Telemetry is optional tracing/metrics support. NoOpTelemetry is the
// default; otelbridge.New wires a real OpenTelemetry-backed implementation.
type Telemetry interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
	RecordMetric(name string, value float64, labels map[string]string)
}

// Span represents a single traced operation.
type Span interface {
	End()
	SetAttribute(key string, value interface{})
	RecordError(err error)
}

// NoOpLogger discards everything. It is the zero-value default logger.
type NoOpLogger struct{}

func (n *NoOpLogger) Info(msg string, fields map[string]interface{})  {}
func (n *NoOpLogger) Warn(msg string, fields map[string]interface{})  {}
func (n *NoOpLogger) Error(msg string, fields map[string]interface{}) {}
func (n *NoOpLogger) Debug(msg string, fields map[string]interface{}) {}

func (n *NoOpLogger) InfoWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
}
func (n *NoOpLogger) WarnWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
}
func (n *NoOpLogger) ErrorWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
}
func (n *NoOpLogger) DebugWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
}

// NoOpTelemetry records nothing. It is the zero-value default telemetry.
type NoOpTelemetry struct{}

func (n *NoOpTelemetry) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	return ctx, &NoOpSpan{}
}

func (n *NoOpTelemetry) RecordMetric(name string, value float64, labels map[string]string) {}

// NoOpSpan is the span returned by NoOpTelemetry.
type NoOpSpan struct{}

func (n *NoOpSpan) End()                                       {}
func (n *NoOpSpan) SetAttribute(key string, value interface{}) {}
func (n *NoOpSpan) RecordError(err error)                      {}
