package healing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffDelayMatchesScenario6(t *testing.T) {
	assert.Equal(t, int64(1000), BackoffDelay(1000, 0))
	assert.Equal(t, int64(2000), BackoffDelay(1000, 1))
	assert.Equal(t, int64(4000), BackoffDelay(1000, 2))
}

func TestBackoffDelayCappedAt30s(t *testing.T) {
	assert.Equal(t, int64(30_000), BackoffDelay(1000, 20))
}

func TestAttemptRecoveryExhaustionMatchesScenario6(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Strategy{
		ID:              "file_not_found",
		AppliesToErrors: set("FileNotFound"),
		MaxRetries:      3,
		BaseDelayMs:     1000,
		Actions:         []RecoveryAction{{Kind: ActionRetry}},
	})
	attempts := NewAttemptState()

	r1 := AttemptRecovery(reg, "FileNotFound", "read_file", "no such file", attempts)
	require.True(t, r1.ShouldRetry)
	assert.Equal(t, int64(1000), r1.RetryDelayMs)

	r2 := AttemptRecovery(reg, "FileNotFound", "read_file", "no such file", attempts)
	assert.Equal(t, int64(2000), r2.RetryDelayMs)

	r3 := AttemptRecovery(reg, "FileNotFound", "read_file", "no such file", attempts)
	assert.Equal(t, int64(4000), r3.RetryDelayMs)

	r4 := AttemptRecovery(reg, "FileNotFound", "read_file", "no such file", attempts)
	assert.False(t, r4.ShouldRetry)
	assert.True(t, r4.EscalationNeeded)
}

func TestNoMatchingStrategyEscalates(t *testing.T) {
	reg := NewDefaultRegistry()
	attempts := NewAttemptState()
	r := AttemptRecovery(reg, "TotallyUnknownErrorType", "shell", "???", attempts)
	assert.False(t, r.Success)
	assert.True(t, r.EscalationNeeded)
}

func TestHealthScoreAndStatus(t *testing.T) {
	score := Score(0, 0, 0, 0)
	assert.Equal(t, 100.0, score)
	assert.Equal(t, Healthy, StatusFor(score))

	critical := Score(10, 4, 100, 10)
	assert.Equal(t, Critical, StatusFor(critical))
}

func TestRegistryUnregisterAndClear(t *testing.T) {
	reg := NewDefaultRegistry()
	before := len(reg.Snapshot())
	assert.Greater(t, before, 0)

	reg.Unregister("file_not_found")
	assert.Equal(t, before-1, len(reg.Snapshot()))

	reg.Clear()
	assert.Empty(t, reg.Snapshot())
}
