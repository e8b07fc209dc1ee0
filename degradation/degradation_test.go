package degradation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateScoreWeightsSumToOne(t *testing.T) {
	f := Factors{ConsecutiveErrors: 1, SimilarActions: 1, TimeSinceLastSuccess: 1, RecentErrorRate: 1}
	assert.InDelta(t, 1.0, AggregateScore(f), 0.0001)
}

func TestRawLevelThresholds(t *testing.T) {
	assert.Equal(t, Normal, RawLevel(0.0))
	assert.Equal(t, Warning, RawLevel(0.2))
	assert.Equal(t, Restricted, RawLevel(0.4))
	assert.Equal(t, Minimal, RawLevel(0.6))
	assert.Equal(t, Halted, RawLevel(0.8))
}

func TestHysteresisBlocksSmallRise(t *testing.T) {
	m := NewManager()
	// Score of 0.25 is RawLevel=Warning, but to actually transition from
	// Normal, score must cross Warning's upper threshold (0.40).
	m.Evaluate(1, 0.25)
	assert.Equal(t, Normal, m.Level())

	m.Evaluate(2, 0.45)
	assert.Equal(t, Warning, m.Level())
}

func TestHysteresisHoldsOnSmallFall(t *testing.T) {
	m := NewManager()
	m.Evaluate(1, 0.45) // -> Warning
	require := assert.New(t)
	require.Equal(Warning, m.Level())

	// Warning's lower threshold is 0.15; 0.20 does not fall below it.
	m.Evaluate(2, 0.20)
	require.Equal(Warning, m.Level())

	m.Evaluate(3, 0.10)
	require.Equal(Normal, m.Level())
}

func TestMinimalBlocksShellWithAlternatives(t *testing.T) {
	cfg := DefaultConfig()
	decision := IsToolAllowed("shell", Minimal, cfg)
	assert.False(t, decision.Allowed)
	assert.ElementsMatch(t, []string{"ask_followup_question", "request_human_help"}, decision.Alternatives)
}

func TestHaltedAllowsOnlyCommunication(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, IsToolAllowed("shell", Halted, cfg).Allowed)
	assert.False(t, IsToolAllowed("read_file", Halted, cfg).Allowed)
	assert.True(t, IsToolAllowed("ask_followup_question", Halted, cfg).Allowed)
}

func TestCanReduceRequiresNoConsecutiveErrors(t *testing.T) {
	m := NewManager()
	m.Evaluate(1, 0.45) // -> Warning, lastTransition=1

	ok := m.CanReduce(ReduceCriteria{
		Now:                   100_000,
		ConsecutiveErrorCount: 1,
		HasLastFive:           true,
		SuccessRateLastFive:   1.0,
	})
	assert.False(t, ok)

	ok = m.CanReduce(ReduceCriteria{
		Now:                   100_000,
		ConsecutiveErrorCount: 0,
		HasLastFive:           true,
		SuccessRateLastFive:   1.0,
	})
	assert.True(t, ok)
}

func TestCategoryOverride(t *testing.T) {
	overrides := map[string]ToolCategory{"custom_tool": CategoryShellCommands}
	assert.Equal(t, CategoryShellCommands, CategoryFor("custom_tool", overrides))
	assert.Equal(t, CategoryOther, CategoryFor("totally_unknown_tool", nil))
}
