package prevention

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentsafe/asc/history"
	"github.com/agentsafe/asc/valuetree"
)

func obj(fields map[string]interface{}) valuetree.Value {
	return valuetree.MustFromAny(fields)
}

func TestMissingRequiredBlocks(t *testing.T) {
	res := PreExecutionCheck(1000, "write_file", obj(map[string]interface{}{"path": "a.txt"}), nil, nil, DefaultConfig())
	require.False(t, res.CanProceed)
	assert.Contains(t, res.Blockers[0], "content")
}

func TestDangerousShellCommandBlocked(t *testing.T) {
	args := obj(map[string]interface{}{"command": "rm -rf /"})
	res := PreExecutionCheck(1000, "shell", args, nil, nil, DefaultConfig())
	assert.False(t, res.CanProceed)
	assert.Equal(t, RiskCritical, res.Risk)
}

func TestCautionShellCommandWarnsOnly(t *testing.T) {
	args := obj(map[string]interface{}{"command": "sudo apt-get update"})
	res := PreExecutionCheck(1000, "shell", args, nil, nil, DefaultConfig())
	assert.True(t, res.CanProceed)
	assert.NotEmpty(t, res.Warnings)
}

func TestDangerousPathBlocked(t *testing.T) {
	args := obj(map[string]interface{}{"path": "/etc", "content": "x"})
	res := PreExecutionCheck(1000, "write_file", args, nil, nil, DefaultConfig())
	assert.False(t, res.CanProceed)
}

func TestBroadRegexWarns(t *testing.T) {
	args := obj(map[string]interface{}{"pattern": ".*"})
	res := PreExecutionCheck(1000, "search_files", args, nil, nil, DefaultConfig())
	assert.True(t, res.CanProceed)
	assert.NotEmpty(t, res.Warnings)
}

func TestInvalidRegexBlocks(t *testing.T) {
	args := obj(map[string]interface{}{"pattern": "["})
	res := PreExecutionCheck(1000, "search_files", args, nil, nil, DefaultConfig())
	assert.False(t, res.CanProceed)
}

func TestLearnedPatternWarnsAfterRepeatedFailures(t *testing.T) {
	reg := NewRegistry()
	args := obj(map[string]interface{}{"path": "missing.txt"})

	// 0.5 after the first failure, then nine reinforcements: ~0.806.
	var p *LearnedErrorPattern
	for i := 0; i < 10; i++ {
		p = reg.Learn(int64(i), "read_file", "file_not_found", "no such file", args)
	}
	require.NotNil(t, p)
	assert.Equal(t, 10, p.Frequency)
	assert.Greater(t, p.Confidence, WarnThreshold)

	res := PreExecutionCheck(1000, "read_file", args, nil, reg, DefaultConfig())
	assert.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Suggestions, p.PreventionStrategy)
}

func TestRecentSimilarFailuresWarns(t *testing.T) {
	log := history.New(50, 60_000)
	args := obj(map[string]interface{}{"path": "x"})
	for i := 0; i < 4; i++ {
		log.Append(int64(i), "read_file", args, history.Error, 1, "file_not_found", "missing")
	}
	res := PreExecutionCheck(1000, "read_file", args, log.Entries(), nil, DefaultConfig())
	assert.NotEmpty(t, res.Warnings)
}

func TestRegexArgPatternMatches(t *testing.T) {
	p := ArgPattern{Field: "path", Kind: Regex, Value: `^/etc/.*\.conf$`}
	assert.True(t, p.matches(obj(map[string]interface{}{"path": "/etc/nginx/site.conf"})))
	assert.False(t, p.matches(obj(map[string]interface{}{"path": "/home/user/notes.txt"})))
}

func TestRegexArgPatternInvalidPatternNeverMatches(t *testing.T) {
	p := ArgPattern{Field: "path", Kind: Regex, Value: `(unterminated`}
	assert.False(t, p.matches(obj(map[string]interface{}{"path": "anything"})))
}

func TestLearnedPatternMatchesAllViaRegex(t *testing.T) {
	pattern := &LearnedErrorPattern{
		ToolName: "shell",
		ArgPatterns: []ArgPattern{
			{Field: "command", Kind: Regex, Value: `^rm\s+-rf\s+/`},
		},
	}
	assert.True(t, pattern.matchesAll("shell", obj(map[string]interface{}{"command": "rm -rf /var/log"})))
	assert.False(t, pattern.matchesAll("shell", obj(map[string]interface{}{"command": "ls -la"})))
}

func TestRiskLevelThresholds(t *testing.T) {
	assert.Equal(t, RiskLow, LevelFor(10))
	assert.Equal(t, RiskMedium, LevelFor(30))
	assert.Equal(t, RiskHigh, LevelFor(60))
	assert.Equal(t, RiskCritical, LevelFor(80))
}

func TestConfidenceUpdateApproachesOne(t *testing.T) {
	c := initialConfidence
	for i := 0; i < 20; i++ {
		c = confidenceUpdate(c)
	}
	assert.Greater(t, c, 0.99)
	assert.LessOrEqual(t, c, 1.0)
}
