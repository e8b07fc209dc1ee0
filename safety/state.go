// Package safety implements the Integration Façade (spec.md §4.10): the
// two-operation contract — before_tool and after_tool — a host uses to
// bracket every tool invocation, plus determine_next_action and
// handle_error_with_recovery. Grounded on orchestration/orchestrator.go's
// and orchestration/executor.go's pipeline shape: a sequence of
// consult-then-decide calls into independently-owned sub-components, with
// no component here owning I/O or a goroutine of its own (spec §5: every
// ASC operation is synchronous, total, and nonblocking).
package safety

import (
	"github.com/agentsafe/asc/core"
	"github.com/agentsafe/asc/degradation"
	"github.com/agentsafe/asc/healing"
	"github.com/agentsafe/asc/history"
)

// SafetyState is spec §3's SafetyState: the single per-agent-session
// record threaded through before_tool/after_tool. It exclusively owns one
// HistoryLog (spec §3 "Ownership") and is not safe for concurrent use by
// more than one goroutine at a time (spec §5).
type SafetyState struct {
	History               *history.HistoryLog
	ConsecutiveErrorCount uint32
	ToolErrorCounts       map[string]uint32
	SimilarActionCount    uint32
	LastStrategySwitchMs  int64
	LastSuccessAtMs       int64

	Degradation *degradation.Manager
	Healing     *healing.AttemptState

	degradationJustRose bool
	logger              core.Logger
}

// Option configures NewSafetyState.
type Option func(*SafetyState)

// WithHistory overrides the default history.New(0,0) log.
func WithHistory(h *history.HistoryLog) Option {
	return func(s *SafetyState) { s.History = h }
}

// WithDegradationManager overrides the default degradation.NewManager().
func WithDegradationManager(m *degradation.Manager) Option {
	return func(s *SafetyState) { s.Degradation = m }
}

// WithLogger attaches a logger, scoped to "asc/safety" if it implements
// core.ComponentAwareLogger.
func WithLogger(l core.Logger) Option {
	return func(s *SafetyState) { s.logger = core.ScopedLogger(l, "safety") }
}

// NewSafetyState builds a fresh SafetyState at DegradationLevel Normal
// with an empty history log, matching spec §3's initial state.
func NewSafetyState(opts ...Option) *SafetyState {
	s := &SafetyState{
		History:         history.New(0, 0),
		ToolErrorCounts: make(map[string]uint32),
		Healing:         healing.NewAttemptState(),
		Degradation:     degradation.NewManager(),
		logger:          &core.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// recentErrorRate computes the spec §9 Open Question (b) fixed window
// (last 10 entries, any tool) used by both the degradation factor and the
// health score.
func (s *SafetyState) recentErrorRate() float64 {
	return history.ErrorRateLast(s.History.Entries(), history.RecentErrorWindow, "")
}

// msSinceLastSuccess returns now - LastSuccessAtMs, or a large sentinel if
// no success has ever been recorded (treated as "as bad as it gets" by
// degradation.ComputeFactors' min(ms/300_000, 1) clamp).
func (s *SafetyState) msSinceLastSuccess(now int64) int64 {
	if s.LastSuccessAtMs == 0 {
		return 300_000
	}
	d := now - s.LastSuccessAtMs
	if d < 0 {
		return 0
	}
	return d
}
