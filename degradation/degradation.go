// Package degradation implements the DegradationManager (spec.md §4.4): a
// 5-level hysteresis state machine driven by weighted pressure factors,
// generalized in style from the teacher's three-state circuit breaker
// (resilience/circuit_breaker.go's CircuitState Closed/Open/HalfOpen and
// its evaluateState/transitionToUnlocked pattern) without that file's
// atomic/goroutine machinery — spec §5 requires every ASC operation to be
// synchronous and nonblocking, so level transitions here are plain
// synchronous state updates, not concurrent state shared across goroutines.
package degradation

import (
	"fmt"

	"github.com/agentsafe/asc/core"
)

// Level is the 5-level degradation scale (spec §3).
type Level int

const (
	Normal Level = iota
	Warning
	Restricted
	Minimal
	Halted
)

func (l Level) String() string {
	switch l {
	case Normal:
		return "normal"
	case Warning:
		return "warning"
	case Restricted:
		return "restricted"
	case Minimal:
		return "minimal"
	case Halted:
		return "halted"
	default:
		return "unknown"
	}
}

// ToolCategory buckets a tool name for allow-listing (spec §4.4).
type ToolCategory string

const (
	CategoryFileOperations   ToolCategory = "file_operations"
	CategoryShellCommands    ToolCategory = "shell_commands"
	CategorySearchTools      ToolCategory = "search_tools"
	CategoryCodeModification ToolCategory = "code_modification"
	CategoryCommunication    ToolCategory = "communication"
	CategoryOther            ToolCategory = "other"
)

// builtinCategories is the fixed mapping from spec §4.4, extended per
// spec §9 Open Question (c) via Config.ToolCategoryOverrides.
var builtinCategories = map[string]ToolCategory{
	"read_file":             CategoryFileOperations,
	"write_file":             CategoryFileOperations,
	"list_files":             CategoryFileOperations,
	"delete_file":             CategoryFileOperations,
	"shell":                   CategoryShellCommands,
	"execute_command":         CategoryShellCommands,
	"run_shell":               CategoryShellCommands,
	"search_files":            CategorySearchTools,
	"grep":                    CategorySearchTools,
	"find":                    CategorySearchTools,
	"search_code":             CategorySearchTools,
	"apply_diff":              CategoryCodeModification,
	"edit_file":               CategoryCodeModification,
	"patch":                   CategoryCodeModification,
	"insert_content":          CategoryCodeModification,
	"ask_followup_question":   CategoryCommunication,
	"request_human_help":      CategoryCommunication,
	"message_user":            CategoryCommunication,
	"attempt_completion":      CategoryCommunication,
}

// CategoryFor resolves tool's category, applying overrides before the
// built-in mapping, and falling back to CategoryOther.
func CategoryFor(tool string, overrides map[string]ToolCategory) ToolCategory {
	if overrides != nil {
		if c, ok := overrides[tool]; ok {
			return c
		}
	}
	if c, ok := builtinCategories[tool]; ok {
		return c
	}
	return CategoryOther
}

// LevelPolicy is what a degradation level permits.
type LevelPolicy struct {
	AllowedCategories    map[ToolCategory]bool
	BlockedTools         map[string]bool
	RequiresConfirmation bool
	AddDelayMs           int64
	MaxActionsPerMinute  int
	CooldownMs           int64
	LowerThreshold       float64
	UpperThreshold       float64
	AlternativesOnBlock  []string
}

func allCategories() map[ToolCategory]bool {
	return map[ToolCategory]bool{
		CategoryFileOperations:   true,
		CategoryShellCommands:    true,
		CategorySearchTools:      true,
		CategoryCodeModification: true,
		CategoryCommunication:    true,
		CategoryOther:            true,
	}
}

// Config bundles per-level policies and hysteresis thresholds.
type Config struct {
	Levels                map[Level]LevelPolicy
	ToolCategoryOverrides map[string]ToolCategory
	// SemanticMatchThreshold scales the similar_actions factor (spec
	// §4.4: "min(count/sem_match_threshold, 1)"); defaults to 5 to match
	// CycleDetector's DefaultConfig.SemanticMatchThreshold.
	SemanticMatchThreshold int
}

// DefaultConfig builds the spec §4.4 hysteresis table and a reasonable
// progressive tool restriction per level (spec leaves the exact allow-list
// per non-Halted level to the implementer beyond the Halted and Minimal
// examples in §8 scenario 3 and §4.4's "Halted blocks everything except
// communication tools").
func DefaultConfig() Config {
	alternatives := []string{"ask_followup_question", "request_human_help"}

	normal := LevelPolicy{
		AllowedCategories:   allCategories(),
		BlockedTools:        map[string]bool{},
		AddDelayMs:          0,
		MaxActionsPerMinute: 0, // 0 = unlimited
		CooldownMs:          0,
		LowerThreshold:      0,
		UpperThreshold:      0.20,
	}
	warning := LevelPolicy{
		AllowedCategories:    allCategories(),
		BlockedTools:         map[string]bool{},
		RequiresConfirmation: false,
		AddDelayMs:           500,
		MaxActionsPerMinute:  30,
		CooldownMs:           30_000,
		LowerThreshold:       0.15,
		UpperThreshold:       0.40,
		AlternativesOnBlock:  alternatives,
	}
	restricted := LevelPolicy{
		AllowedCategories: map[ToolCategory]bool{
			CategoryFileOperations:   true,
			CategoryShellCommands:    true,
			CategorySearchTools:      true,
			CategoryCodeModification: true,
			CategoryCommunication:    true,
		},
		BlockedTools:         map[string]bool{},
		RequiresConfirmation: true,
		AddDelayMs:           2_000,
		MaxActionsPerMinute:  15,
		CooldownMs:           60_000,
		LowerThreshold:       0.35,
		UpperThreshold:       0.60,
		AlternativesOnBlock:  alternatives,
	}
	minimal := LevelPolicy{
		AllowedCategories: map[ToolCategory]bool{
			CategorySearchTools:   true,
			CategoryCommunication: true,
		},
		BlockedTools:         map[string]bool{},
		RequiresConfirmation: true,
		AddDelayMs:           5_000,
		MaxActionsPerMinute:  5,
		CooldownMs:           120_000,
		LowerThreshold:       0.55,
		UpperThreshold:       0.80,
		AlternativesOnBlock:  alternatives,
	}
	halted := LevelPolicy{
		AllowedCategories: map[ToolCategory]bool{
			CategoryCommunication: true,
		},
		BlockedTools:         map[string]bool{},
		RequiresConfirmation: true,
		AddDelayMs:           0,
		MaxActionsPerMinute:  0,
		CooldownMs:           300_000,
		LowerThreshold:       0.75,
		UpperThreshold:       1.00,
		AlternativesOnBlock:  alternatives,
	}

	return Config{
		Levels: map[Level]LevelPolicy{
			Normal:     normal,
			Warning:    warning,
			Restricted: restricted,
			Minimal:    minimal,
			Halted:     halted,
		},
		SemanticMatchThreshold: 5,
	}
}

// Factors are the spec §4.4 weighted pressure inputs, each in [0,1].
type Factors struct {
	ConsecutiveErrors    float64
	SimilarActions       float64
	TimeSinceLastSuccess float64
	RecentErrorRate      float64
}

const (
	weightConsecutiveErrors    = 0.35
	weightSimilarActions       = 0.30
	weightTimeSinceLastSuccess = 0.20
	weightRecentErrorRate      = 0.15
)

// ComputeFactors derives the four factor scores from raw counters.
func ComputeFactors(consecutiveErrorCount, similarActionCount uint32, msSinceLastSuccess int64, recentErrorRate float64, semanticMatchThreshold int) Factors {
	if semanticMatchThreshold <= 0 {
		semanticMatchThreshold = 5
	}
	return Factors{
		ConsecutiveErrors:    minF(float64(consecutiveErrorCount)/5, 1),
		SimilarActions:       minF(float64(similarActionCount)/float64(semanticMatchThreshold), 1),
		TimeSinceLastSuccess: minF(float64(msSinceLastSuccess)/300_000, 1),
		RecentErrorRate:      recentErrorRate,
	}
}

// AggregateScore computes s = Σ weight·value / Σ weight (spec §4.4); the
// four weights already sum to 1.0 so this reduces to a weighted sum.
func AggregateScore(f Factors) float64 {
	return f.ConsecutiveErrors*weightConsecutiveErrors +
		f.SimilarActions*weightSimilarActions +
		f.TimeSinceLastSuccess*weightTimeSinceLastSuccess +
		f.RecentErrorRate*weightRecentErrorRate
}

// RawLevel maps an aggregate score to a level ignoring hysteresis.
func RawLevel(s float64) Level {
	switch {
	case s >= 0.8:
		return Halted
	case s >= 0.6:
		return Minimal
	case s >= 0.4:
		return Restricted
	case s >= 0.2:
		return Warning
	default:
		return Normal
	}
}

// Manager is the stateful degradation machine for one SafetyState.
type Manager struct {
	level           Level
	lastTransition  int64
	cfg             Config
	logger          core.Logger
}

// Option configures NewManager.
type Option func(*Manager)

// WithLogger attaches a logger, scoped to "asc/degradation" if it
// implements core.ComponentAwareLogger.
func WithLogger(l core.Logger) Option {
	return func(m *Manager) { m.logger = core.ScopedLogger(l, "degradation") }
}

// WithConfig overrides the default level/hysteresis table.
func WithConfig(cfg Config) Option {
	return func(m *Manager) { m.cfg = cfg }
}

// NewManager builds a Manager starting at Normal.
func NewManager(opts ...Option) *Manager {
	m := &Manager{level: Normal, cfg: DefaultConfig(), logger: &core.NoOpLogger{}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Level() Level            { return m.level }
func (m *Manager) LastTransitionAt() int64 { return m.lastTransition }
func (m *Manager) Config() Config          { return m.cfg }

// Evaluate applies hysteresis to an aggregate score and transitions the
// manager if the score crosses the upper threshold of a higher level, or
// falls below the lower threshold of the current level (spec §4.4).
// Per spec §8's quantified invariant, the caller must not call Evaluate in
// a way that would decrease the level while consecutive_error_count > 0 —
// that guard lives in the caller (safety façade), since Evaluate itself
// has no notion of "why" the score changed.
func (m *Manager) Evaluate(now int64, score float64) Level {
	raw := RawLevel(score)

	switch {
	case raw > m.level:
		// Rising: the level climbs one step at a time, not straight to
		// raw — a single call only crosses into the next level up, so
		// sustained pressure across repeated Evaluate calls is what
		// climbs further (spec §4.4: "monotonically rises under
		// pressure"). Using raw itself as the target would let one huge
		// score spike skip the intervening hysteresis bands entirely.
		next := m.level + 1
		targetPolicy := m.cfg.Levels[next]
		if score >= targetPolicy.UpperThreshold {
			m.transition(now, next)
		}
	case raw < m.level:
		// Falling: only move if score falls below the *current* level's
		// lower threshold.
		currentPolicy := m.cfg.Levels[m.level]
		if score < currentPolicy.LowerThreshold {
			m.transition(now, raw)
		}
	}
	return m.level
}

func (m *Manager) transition(now int64, to Level) {
	from := m.level
	m.level = to
	m.lastTransition = now
	m.logger.Info("degradation level transition", map[string]interface{}{
		"operation": "degradation.Evaluate",
		"from":      from.String(),
		"to":        to.String(),
	})
}

// ReduceCriteria are the inputs to CanReduce (spec §4.4 "ReduceDegradation").
type ReduceCriteria struct {
	Now                   int64
	ConsecutiveErrorCount uint32
	HasLastFive           bool
	SuccessRateLastFive   float64
	SimilarActionCount    uint32
}

// CanReduce reports whether the manager is eligible to drop one level,
// per spec §4.4: cooldown elapsed, no consecutive errors, at least five
// entries of history, and either a high success rate or (no similar
// actions and a moderate success rate).
func (m *Manager) CanReduce(c ReduceCriteria) bool {
	if m.level == Normal {
		return false
	}
	policy := m.cfg.Levels[m.level]
	if c.Now-m.lastTransition < policy.CooldownMs {
		return false
	}
	if c.ConsecutiveErrorCount != 0 {
		return false
	}
	if !c.HasLastFive {
		return false
	}
	if c.SuccessRateLastFive >= 0.8 {
		return true
	}
	return c.SimilarActionCount == 0 && c.SuccessRateLastFive >= 0.6
}

// Reduce drops the manager by exactly one level if CanReduce(c) holds.
// Returns whether a transition occurred.
func (m *Manager) Reduce(c ReduceCriteria) bool {
	if !m.CanReduce(c) {
		return false
	}
	m.transition(c.Now, m.level-1)
	return true
}

// ToolDecision is the result of IsToolAllowed (spec §4.4).
type ToolDecision struct {
	Allowed              bool
	Reason               string
	Alternatives         []string
	RequiresConfirmation bool
}

// IsToolAllowed checks tool against the policy for level, applying
// BlockedTools first, then category allow-listing.
func IsToolAllowed(tool string, level Level, cfg Config) ToolDecision {
	policy, ok := cfg.Levels[level]
	if !ok {
		return ToolDecision{Allowed: true}
	}
	if policy.BlockedTools[tool] {
		return ToolDecision{
			Allowed:      false,
			Reason:       fmt.Sprintf("tool %q is explicitly blocked at degradation level %s", tool, level),
			Alternatives: policy.AlternativesOnBlock,
		}
	}
	category := CategoryFor(tool, cfg.ToolCategoryOverrides)
	if !policy.AllowedCategories[category] {
		return ToolDecision{
			Allowed:      false,
			Reason:       fmt.Sprintf("category %q is not permitted at degradation level %s", category, level),
			Alternatives: policy.AlternativesOnBlock,
		}
	}
	return ToolDecision{Allowed: true, RequiresConfirmation: policy.RequiresConfirmation}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
