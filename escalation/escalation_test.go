package escalation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsecutiveErrorsScenario2(t *testing.T) {
	// Spec §8 scenario 2: consecutive_error_count=15, degradation_level=0.
	triggers := EvaluateTriggers(0, 0, 15, 0)
	require.Len(t, triggers, 1)
	priority := Priority(triggers)
	assert.Equal(t, Critical, priority)
	assert.True(t, ShouldEscalate(priority, len(triggers)))
}

func TestMediumRequiresTwoTriggers(t *testing.T) {
	// A single medium-severity trigger alone should not escalate.
	triggers := []Trigger{{Kind: ConsecutiveErrorsTrigger, Severity: Medium}}
	assert.False(t, ShouldEscalate(Priority(triggers), len(triggers)))

	triggers = append(triggers, Trigger{Kind: SimilarActionsTrigger, Severity: Medium})
	assert.True(t, ShouldEscalate(Priority(triggers), len(triggers)))
}

func TestPriorityMonotoneInMaxSeverity(t *testing.T) {
	low := Priority([]Trigger{{Severity: Low}})
	high := Priority([]Trigger{{Severity: High}})
	assert.Less(t, int(low), int(high))
}

func TestExpiryMinutesByPriority(t *testing.T) {
	assert.Equal(t, int64(15), expiryMinutesByPriority(Critical))
	assert.Equal(t, int64(30), expiryMinutesByPriority(High))
	assert.Equal(t, int64(60), expiryMinutesByPriority(Medium))
	assert.Equal(t, int64(120), expiryMinutesByPriority(Low))
}

func TestParseResponseGrammar(t *testing.T) {
	assert.Equal(t, ResponseContinue, ParseResponse("Continue").Action)
	assert.Equal(t, ResponseRetry, ParseResponse("retry").Action)
	assert.Equal(t, ResponseAbort, ParseResponse("ABORT").Action)

	modify := ParseResponse("modify: use a different file path")
	assert.Equal(t, ResponseModify, modify.Action)
	assert.Equal(t, "use a different file path", modify.Instructions)

	fallback := ParseResponse("do something else entirely")
	assert.Equal(t, ResponseModify, fallback.Action)
	assert.Equal(t, "do something else entirely", fallback.Instructions)
}

func TestTrackerLifecycle(t *testing.T) {
	esc, ok := Build(1000, []Trigger{{Severity: Critical}}, Summary{Title: "stuck"}, nil, nil)
	require.True(t, ok)

	reg := NewRegistry()
	tr := reg.Track(esc)
	assert.Equal(t, Pending, tr.Status)

	require.NoError(t, reg.Acknowledge(esc.ID))
	assert.Equal(t, Acknowledged, tr.Status)

	require.NoError(t, reg.Resolve(esc.ID, "retry"))
	assert.Equal(t, Resolved, tr.Status)
	require.NotNil(t, tr.Response)
	assert.Equal(t, ResponseRetry, tr.Response.Action)
}

func TestProcessExpirationsFailsSafe(t *testing.T) {
	esc, ok := Build(1000, []Trigger{{Severity: Critical}}, Summary{}, nil, nil)
	require.True(t, ok)

	var delivered []string
	reg := NewRegistry(WithExpiryCallback(func(t *Tracker) {
		delivered = append(delivered, t.Escalation.ID)
	}))
	reg.Track(esc)

	expired := reg.ProcessExpirations(esc.ExpiresAtMs + 1)
	require.Len(t, expired, 1)
	assert.Equal(t, esc.ID, expired[0])
	assert.Equal(t, []string{esc.ID}, delivered)

	tr, _ := reg.Get(esc.ID)
	assert.Equal(t, Expired, tr.Status)
}

func TestExpiryCallbackPanicIsRecovered(t *testing.T) {
	esc, _ := Build(1000, []Trigger{{Severity: Critical}}, Summary{}, nil, nil)
	reg := NewRegistry(WithExpiryCallback(func(t *Tracker) {
		panic("boom")
	}))
	reg.Track(esc)

	assert.NotPanics(t, func() {
		reg.ProcessExpirations(esc.ExpiresAtMs + 1)
	})
}
