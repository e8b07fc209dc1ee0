package cycles

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentsafe/asc/history"
	"github.com/agentsafe/asc/valuetree"
)

func shellArgs(cmd string) valuetree.Value {
	return valuetree.MustFromAny(map[string]interface{}{"command": cmd})
}

func TestExactRepeatFiresAtThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExactMatchThreshold = 2
	cfg.SemanticSimilarityEnabled = false
	cfg.PatternDetectionEnabled = false

	log := history.New(100, history.DefaultTimeWindowMs)
	args := shellArgs("ls -la")
	hash := valuetree.Hash(args)

	// Two prior identical calls recorded.
	log.Append(1, "shell", args, history.Success, 1, "", "")
	log.Append(2, "shell", args, history.Success, 1, "", "")

	result := Detect(3, "shell", args, hash, log, 0, cfg)
	assert.True(t, result.IsLoop)
	assert.Equal(t, ExactRepeat, result.Kind)
}

func TestSuggestedActionEscalatesAtThreeX(t *testing.T) {
	assert.Equal(t, SwitchStrategy, suggestedAction(2, 2))
	assert.Equal(t, Clarify, suggestedAction(4, 2))
	assert.Equal(t, Escalate, suggestedAction(6, 2))
	assert.Equal(t, Continue, suggestedAction(1, 2))
}

func TestErrorCycleFires(t *testing.T) {
	cfg := DefaultConfig()
	log := history.New(100, history.DefaultTimeWindowMs)
	result := Detect(1, "shell", shellArgs("x"), "h", log, 5, cfg)
	assert.True(t, result.IsLoop)
	assert.Equal(t, ErrorCycle, result.Kind)
}

func TestNoLoopWhenHistoryEmpty(t *testing.T) {
	cfg := DefaultConfig()
	log := history.New(100, history.DefaultTimeWindowMs)
	result := Detect(1, "shell", shellArgs("x"), "h", log, 0, cfg)
	assert.False(t, result.IsLoop)
	assert.Equal(t, Continue, result.SuggestedAction)
}

func TestGradualChangeIsWarningOnly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SemanticSimilarityEnabled = false
	cfg.PatternDetectionEnabled = false
	cfg.GradualChangeLookbackWindow = 5

	log := history.New(100, history.DefaultTimeWindowMs)
	vals := []float64{10, 12, 14.4, 17.28}
	for i, v := range vals {
		log.Append(int64(i+1), "resize", valuetree.NewNumber(v), history.Success, 1, "", "")
	}

	result := Detect(5, "resize", valuetree.NewNumber(20.736), "h", log, 0, cfg)
	assert.False(t, result.IsLoop, "gradual change alone must never block")
	assert.Equal(t, Continue, result.SuggestedAction)

	found := false
	for _, m := range result.Matches {
		if m.Kind == GradualChange {
			found = true
		}
	}
	assert.True(t, found, "expected a GradualChange match to be surfaced, got %v", result.Matches)
}

func TestPatternCycleDetectsRepeatedSequence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinPatternLength = 2
	cfg.MaxPatternLength = 2
	cfg.PatternRepetitionThreshold = 2

	log := history.New(100, history.DefaultTimeWindowMs)
	log.Append(1, "read_file", shellArgs("a"), history.Success, 1, "", "")
	log.Append(2, "write_file", shellArgs("b"), history.Success, 1, "", "")
	log.Append(3, "read_file", shellArgs("c"), history.Success, 1, "", "")
	log.Append(4, "write_file", shellArgs("d"), history.Success, 1, "", "")

	finding := detectPatternCycle(5, log, cfg)
	assert.True(t, finding.fired)
	assert.Equal(t, Pattern, finding.pattern.Kind)
}
