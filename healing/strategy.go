// Package healing implements the Self-Healing Engine (spec.md §4.5): a
// process-wide RecoveryStrategy registry, error-to-strategy matching with
// exponential backoff, and the health-score computation. The backoff math
// is grounded on resilience/retry.go's Retry(); the registry's
// snapshot-on-write read discipline follows spec §5's requirement that
// read-only consultation of a process-wide table observe a consistent
// snapshot.
package healing

import "strings"

// ActionKind tags which RecoveryAction arm is populated (spec §3).
type ActionKind int

const (
	ActionRetry ActionKind = iota
	ActionReconnect
	ActionRefreshFile
	ActionIncreaseTimeout
	ActionFallbackTool
	ActionRequestHuman
)

func (k ActionKind) String() string {
	switch k {
	case ActionRetry:
		return "retry"
	case ActionReconnect:
		return "reconnect"
	case ActionRefreshFile:
		return "refresh_file"
	case ActionIncreaseTimeout:
		return "increase_timeout"
	case ActionFallbackTool:
		return "fallback_tool"
	case ActionRequestHuman:
		return "request_human"
	default:
		return "unknown"
	}
}

// RecoveryAction is one concrete remediation step.
type RecoveryAction struct {
	Kind        ActionKind
	DelayMs     int64   // Retry
	Target      string  // Reconnect
	Path        string  // RefreshFile
	Factor      float64 // IncreaseTimeout
	Alternative string  // FallbackTool
}

// Strategy is a RecoveryStrategy (spec §3): matched against an error by
// type (required) and, optionally, by tool name and a message substring.
type Strategy struct {
	ID                string
	AppliesToErrors   map[string]bool
	AppliesToTools    map[string]bool // empty/nil means "any tool"
	MessageSubstrings []string        // empty means "no substring constraint"
	MaxRetries        int
	BaseDelayMs       int64
	Actions           []RecoveryAction
}

// Matches reports whether this strategy applies to an error of the given
// type, tool, and message.
func (s Strategy) Matches(errorType, toolName, message string) bool {
	if !s.AppliesToErrors[errorType] {
		return false
	}
	if len(s.AppliesToTools) > 0 && !s.AppliesToTools[toolName] {
		return false
	}
	if len(s.MessageSubstrings) > 0 {
		lower := strings.ToLower(message)
		matched := false
		for _, sub := range s.MessageSubstrings {
			if strings.Contains(lower, strings.ToLower(sub)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// BuiltinStrategies returns the spec's named built-in strategies:
// FileNotFound, PermissionDenied, Timeout, SyntaxError, RateLimit,
// ConnectionError.
func BuiltinStrategies() []Strategy {
	return []Strategy{
		{
			ID:              "file_not_found",
			AppliesToErrors: set("FileNotFound", "ENOENT"),
			MaxRetries:      3,
			BaseDelayMs:     1000,
			Actions:         []RecoveryAction{{Kind: ActionRefreshFile}, {Kind: ActionRetry}},
		},
		{
			ID:              "permission_denied",
			AppliesToErrors: set("PermissionDenied", "EACCES"),
			MaxRetries:      1,
			BaseDelayMs:     500,
			Actions:         []RecoveryAction{{Kind: ActionRequestHuman}},
		},
		{
			ID:              "timeout",
			AppliesToErrors: set("Timeout", "DeadlineExceeded"),
			MaxRetries:      3,
			BaseDelayMs:     2000,
			Actions:         []RecoveryAction{{Kind: ActionIncreaseTimeout, Factor: 2}, {Kind: ActionRetry}},
		},
		{
			ID:              "syntax_error",
			AppliesToErrors: set("SyntaxError", "ParseError"),
			MaxRetries:      1,
			BaseDelayMs:     0,
			Actions:         []RecoveryAction{{Kind: ActionRequestHuman}},
		},
		{
			ID:              "rate_limit",
			AppliesToErrors: set("RateLimit", "TooManyRequests"),
			MaxRetries:      5,
			BaseDelayMs:     5000,
			Actions:         []RecoveryAction{{Kind: ActionRetry}},
		},
		{
			ID:              "connection_error",
			AppliesToErrors: set("ConnectionError", "ConnectionRefused", "ECONNRESET"),
			MaxRetries:      3,
			BaseDelayMs:     1000,
			Actions:         []RecoveryAction{{Kind: ActionReconnect}, {Kind: ActionRetry}},
		},
	}
}

func set(values ...string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}
