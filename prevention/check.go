package prevention

import (
	"fmt"

	"github.com/agentsafe/asc/history"
	"github.com/agentsafe/asc/valuetree"
)

// Config parameterizes PreExecutionCheck with host-specific overrides
// (spec §4.7's built-in rules are all extensible, not hardcoded).
type Config struct {
	SchemaOverrides      map[string]ArgSchema
	RecentFailureThreshold float64 // ErrorRateLast over history.RecentErrorWindow that triggers a warning
}

// DefaultConfig returns the built-in schema table and a 0.5 recent-failure
// warning threshold.
func DefaultConfig() Config {
	return Config{SchemaOverrides: BuiltinSchemas(), RecentFailureThreshold: 0.5}
}

func (c Config) schemaFor(tool string) (ArgSchema, bool) {
	s, ok := c.SchemaOverrides[tool]
	return s, ok
}

// CheckResult is spec §4.7's pre_execution_check output.
type CheckResult struct {
	CanProceed  bool
	Warnings    []string
	Blockers    []string
	Suggestions []string
	Risk        RiskLevel
}

// addUnique appends msg to list unless an identical string is already there —
// the façade layer further dedups by (type, message) across components,
// but within one check call a rule should not repeat itself.
func addUnique(list []string, msg string) []string {
	for _, existing := range list {
		if existing == msg {
			return list
		}
	}
	return append(list, msg)
}

// PreExecutionCheck implements spec §4.7: a total, synchronous function
// from a proposed tool call and recent history to a proceed/warn/block
// verdict plus a risk level. now is epoch milliseconds, recent is the
// caller's recent ExecutionEntry window (oldest first), patterns may be
// nil to skip learned-pattern matching.
func PreExecutionCheck(now int64, tool string, args valuetree.Value, recent []history.ExecutionEntry, patterns *Registry, cfg Config) CheckResult {
	var result CheckResult

	destructive := destructivePotentialFor(tool)
	scope := 0.2
	rollback := 0.3
	historical := history.ErrorRateLast(recent, history.RecentErrorWindow, tool)

	if schema, ok := cfg.schemaFor(tool); ok {
		for _, missing := range MissingRequired(args, schema) {
			result.Blockers = addUnique(result.Blockers, fmt.Sprintf("missing required argument %q for tool %q", missing, tool))
		}
	}

	if command, ok := StringField(args, "command"); ok {
		blocked, cautions := CheckShellCommand(command)
		if blocked != "" {
			result.Blockers = addUnique(result.Blockers, "command matches a destructive blocklist entry: "+blocked)
			destructive = 1.0
		}
		for _, c := range cautions {
			result.Warnings = addUnique(result.Warnings, "command contains a high-risk pattern: "+c)
			if destructive < 0.6 {
				destructive = 0.6
			}
		}
		scope = 0.5
		rollback = 0.8
	}

	if path, ok := StringField(args, "path"); ok {
		if blocked, reason := CheckPath(path); blocked {
			result.Blockers = addUnique(result.Blockers, reason)
			destructive = 1.0
		}
		scope = 0.4
	}

	if pattern, ok := StringField(args, "pattern"); ok {
		if invalid, broad := CheckRegex(pattern); invalid != "" {
			result.Blockers = addUnique(result.Blockers, "invalid regular expression: "+invalid)
		} else if broad {
			result.Warnings = addUnique(result.Warnings, "pattern matches nearly everything; consider narrowing it")
			result.Suggestions = addUnique(result.Suggestions, "add a more specific pattern or scope path")
		}
	}

	if patterns != nil {
		for _, p := range patterns.MatchAgainst(tool, args) {
			switch {
			case p.Confidence >= BlockThreshold:
				result.Blockers = addUnique(result.Blockers, fmt.Sprintf("arguments match a learned failure pattern (%s, confidence %.2f)", p.ErrorType, p.Confidence))
			case p.Confidence >= WarnThreshold:
				result.Warnings = addUnique(result.Warnings, fmt.Sprintf("arguments resemble a past %s failure (confidence %.2f)", p.ErrorType, p.Confidence))
			default:
				continue
			}
			if p.PreventionStrategy != "" {
				result.Suggestions = addUnique(result.Suggestions, p.PreventionStrategy)
			}
			if historical < p.Confidence {
				historical = p.Confidence
			}
		}
	}

	threshold := cfg.RecentFailureThreshold
	if threshold <= 0 {
		threshold = 0.5
	}
	if historical >= threshold && historical > 0 {
		result.Warnings = addUnique(result.Warnings, fmt.Sprintf("%s has failed recently (%.0f%% of its last executions)", tool, historical*100))
	}

	score := Score(RiskFactors{
		DestructivePotential: destructive,
		OperationScope:       scope,
		RollbackAvailability: rollback,
		HistoricalErrors:     historical,
	})
	result.Risk = LevelFor(score)
	result.CanProceed = len(result.Blockers) == 0
	return result
}
