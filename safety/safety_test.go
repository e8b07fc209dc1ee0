package safety

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentsafe/asc/config"
	"github.com/agentsafe/asc/core"
	"github.com/agentsafe/asc/cycles"
	"github.com/agentsafe/asc/healing"
	"github.com/agentsafe/asc/history"
	"github.com/agentsafe/asc/prevention"
	"github.com/agentsafe/asc/valuetree"
)

func shellArgs(command string) valuetree.Value {
	return valuetree.NewObject(map[string]valuetree.Value{
		"command": valuetree.NewString(command),
	})
}

// TestExactRepeatBlocksAndEscalates is spec §8 scenario 1: five/six
// consecutive identical shell calls with exact_match_threshold=2 — by the
// 3rd call before_tool already blocks with a "Loop detected" blocker, and
// by the 6th call the detector's suggested action has climbed to Escalate.
func TestExactRepeatBlocksAndEscalates(t *testing.T) {
	state := NewSafetyState()
	cfg := config.DefaultConfig()
	cfg.ExactMatchThreshold = 2
	args := shellArgs("ls -la")

	var lastBefore BeforeResult
	now := int64(1_000)
	for call := 1; call <= 6; call++ {
		lastBefore = BeforeTool(state, now, "shell", args, cfg, nil)
		AfterTool(state, now, "shell", args, history.Success, 5, "", "", cfg, nil)
		now += 1_000

		if call == 3 {
			assert.False(t, lastBefore.CanProceed, "call 3 should already be blocked")
			assert.True(t, lastBefore.DetectedLoop)
			found := false
			for _, b := range lastBefore.Blockers {
				if strings.Contains(b, "Loop detected") {
					found = true
				}
			}
			assert.True(t, found, "expected a 'Loop detected' blocker, got %v", lastBefore.Blockers)
		}
	}

	assert.Equal(t, cycles.Escalate, lastBefore.SuggestedAction)
}

// TestDetermineNextActionEscalatesOnConsecutiveErrors is spec §8 scenario
// 2: consecutive_error_count=15, degradation_level=0, auto-escalation
// enabled -> DetermineNextAction returns Escalate with priority Critical.
func TestDetermineNextActionEscalatesOnConsecutiveErrors(t *testing.T) {
	state := NewSafetyState()
	state.ConsecutiveErrorCount = 15
	state.LastSuccessAtMs = 0

	cfg := config.DefaultConfig()
	cfg.AutoEscalationEnabled = true

	action := DetermineNextAction(state, 2_000_000, cfg)
	assert.Equal(t, Escalate, action.Action)
	assert.Equal(t, "critical", action.Context["priority"])
}

// TestMinimalDegradationBlocksShell is spec §8 scenario 3: at degradation
// level Minimal, before_tool blocks shell with the alternatives list.
func TestMinimalDegradationBlocksShell(t *testing.T) {
	state := NewSafetyState()
	cfg := config.DefaultConfig()

	// Drive the manager up to Minimal one hysteresis step at a time.
	now := int64(1)
	for state.Degradation.Level() < 3 {
		state.Degradation.Evaluate(now, 1.0)
		now++
	}
	require.Equal(t, 3, int(state.Degradation.Level()))

	result := BeforeTool(state, now, "shell", shellArgs("ls"), cfg, nil)
	assert.False(t, result.CanProceed)
	assert.Contains(t, result.Suggestions, "ask_followup_question")
	assert.Contains(t, result.Suggestions, "request_human_help")
}

// TestHandleErrorWithRecoveryBackoff is spec §8 scenario 6: the
// file_not_found strategy retried 3 times with base_delay=1000 produces
// delays 1000, 2000, 4000, then exhausts on the 4th attempt.
func TestHandleErrorWithRecoveryBackoff(t *testing.T) {
	state := NewSafetyState()
	reg := healing.NewDefaultRegistry()
	cfg := config.DefaultConfig()

	failure := &core.ExecutionFailure{Type: "FileNotFound", Message: "no such file", Tool: "read_file"}

	delays := []int64{}
	for i := 0; i < 3; i++ {
		res := HandleErrorWithRecovery(state, int64(i), failure, reg, cfg)
		require.True(t, res.ShouldRetry)
		delays = append(delays, res.RetryDelayMs)
	}
	assert.Equal(t, []int64{1000, 2000, 4000}, delays)

	exhausted := HandleErrorWithRecovery(state, 10, failure, reg, cfg)
	assert.False(t, exhausted.ShouldRetry)
	assert.True(t, exhausted.EscalationNeeded)
}

// TestAfterToolRecommendsCheckpointOnDegradationRise checks that a rising
// degradation level recommends a checkpoint, per spec §4.5's
// needs_preventive_action and §4.10's after_tool checkpoint decision.
func TestAfterToolRecommendsCheckpointOnDegradationRise(t *testing.T) {
	state := NewSafetyState()
	cfg := config.DefaultConfig()
	args := shellArgs("rm -rf ./build")

	now := int64(0)
	for i := 0; i < 6; i++ {
		AfterTool(state, now, "shell", args, history.Error, 5, "Timeout", "timed out", cfg, nil)
		now += 1000
	}

	result := AfterTool(state, now, "shell", args, history.Error, 5, "Timeout", "timed out", cfg, nil)
	assert.True(t, result.ShouldCheckpoint)
}

// TestAfterToolLearnsFailurePatterns exercises the prevention.Registry
// wiring: failures reported through AfterTool are recorded in the registry
// as a learned pattern.
func TestAfterToolLearnsFailurePatterns(t *testing.T) {
	state := NewSafetyState()
	cfg := config.DefaultConfig()
	patterns := prevention.NewRegistry()
	args := shellArgs("rm -rf /tmp/x")

	now := int64(0)
	for i := 0; i < 6; i++ {
		AfterTool(state, now, "shell", args, history.Error, 5, "PermissionDenied", "denied", cfg, patterns)
		now += 1000
	}

	assert.NotEmpty(t, patterns.Snapshot())
}

func TestCanProceedDefaultsTrueWithEmptyState(t *testing.T) {
	state := NewSafetyState()
	cfg := config.DefaultConfig()
	result := BeforeTool(state, 1, "read_file", valuetree.NewObject(map[string]valuetree.Value{
		"path": valuetree.NewString("/tmp/a.txt"),
	}), cfg, nil)
	assert.True(t, result.CanProceed)
}
