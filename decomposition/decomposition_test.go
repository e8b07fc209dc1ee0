package decomposition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeScenario5(t *testing.T) {
	// Spec §8 scenario 5: refactor auth using OAuth2 across multiple
	// files, 2 constraints -> level at least Moderate.
	task := Task{
		Description: "Refactor authentication using OAuth2 across multiple files",
		Constraints: []string{"must not break existing sessions", "zero downtime"},
	}
	analysis := Analyze(task)
	assert.GreaterOrEqual(t, int(analysis.Level), int(Moderate))
}

func TestShouldDecomposeThresholds(t *testing.T) {
	cfg := DefaultDecomposeConfig()
	assert.True(t, ShouldDecompose(ComplexityAnalysis{Score: 61}, cfg))
	assert.True(t, ShouldDecompose(ComplexityAnalysis{Level: Complex}, cfg))
	assert.True(t, ShouldDecompose(ComplexityAnalysis{EstimatedSteps: 6}, cfg))
	assert.True(t, ShouldDecompose(ComplexityAnalysis{Risk: RiskHigh}, cfg))
	assert.False(t, ShouldDecompose(ComplexityAnalysis{Score: 10, Level: Trivial, EstimatedSteps: 1, Risk: RiskLow}, cfg))
}

func TestDecomposeIncludesCheckpointWhenWriteDetected(t *testing.T) {
	task := Task{Description: "Delete the temp files and create a report"}
	analysis := Analyze(task)
	decomp := Decompose(nil, task, analysis)

	var hasCheckpoint bool
	for _, st := range decomp.Subtasks {
		if st.Title == "Create checkpoint" {
			hasCheckpoint = true
		}
	}
	assert.True(t, hasCheckpoint)
	assert.False(t, decomp.Graph.HasCycles)
	assert.NotEmpty(t, decomp.Graph.ExecutionOrder)
}

func TestDecomposeExecutionOrderRespectsDependencies(t *testing.T) {
	task := Task{Description: "Read a config file"}
	analysis := Analyze(task)
	decomp := Decompose(nil, task, analysis)

	position := make(map[string]int, len(decomp.Graph.ExecutionOrder))
	for i, id := range decomp.Graph.ExecutionOrder {
		position[id] = i
	}
	for _, st := range decomp.Subtasks {
		for _, dep := range st.Dependencies {
			assert.Less(t, position[dep], position[st.ID], "dependency %s must precede %s", dep, st.ID)
		}
	}
}

func TestIdentifyDependenciesDetectsCycle(t *testing.T) {
	subtasks := []SubTask{
		{ID: "a", Order: 0, Dependencies: []string{"b"}},
		{ID: "b", Order: 1, Dependencies: []string{"a"}},
	}
	graph := IdentifyDependencies(subtasks)
	assert.True(t, graph.HasCycles)
	assert.Empty(t, graph.ExecutionOrder)
}

func TestParseLLMDecompositionFencedBlock(t *testing.T) {
	text := "Here is the plan:\n```json\n{\"subtasks\": [{\"title\": \"Step 1\", \"description\": \"do it\"}]}\n```\n"
	subtasks := ParseLLMDecomposition(nil, Task{}, text)
	require.Len(t, subtasks, 1)
	assert.Equal(t, "Step 1", subtasks[0].Title)
}

func TestParseLLMDecompositionBalancedObject(t *testing.T) {
	text := `some preamble {"subtasks": [{"title": "A"}, {"title": "B"}]} trailing text`
	subtasks := ParseLLMDecomposition(nil, Task{}, text)
	require.Len(t, subtasks, 2)
}

func TestParseLLMDecompositionFailureReturnsEmpty(t *testing.T) {
	subtasks := ParseLLMDecomposition(nil, Task{}, "no json here at all")
	assert.Empty(t, subtasks)
}

func TestTrackProgressDerivesBlockedAndReady(t *testing.T) {
	subtasks := []SubTask{
		{ID: "a", Order: 0, Status: Pending, Estimated: Effort{DurationMin: 5}},
		{ID: "b", Order: 1, Dependencies: []string{"a"}, Status: Pending, Estimated: Effort{DurationMin: 5}},
		{ID: "c", Order: 2, Dependencies: []string{"b"}, Status: Pending, Estimated: Effort{DurationMin: 5}},
	}
	decomp := TaskDecomposition{Subtasks: subtasks}

	report := TrackProgress(decomp, nil)
	statusByID := map[string]Status{}
	for _, st := range report.Updated {
		statusByID[st.ID] = st.Status
	}
	assert.Equal(t, Pending, statusByID["a"])
	assert.Equal(t, Blocked, statusByID["b"])
	assert.Equal(t, Blocked, statusByID["c"])
	require.Len(t, report.NextReady, 1)
	assert.Equal(t, "a", report.NextReady[0].ID)

	after := TrackProgress(decomp, []string{"a"})
	statusByID = map[string]Status{}
	for _, st := range after.Updated {
		statusByID[st.ID] = st.Status
	}
	assert.Equal(t, Completed, statusByID["a"])
	assert.Equal(t, Pending, statusByID["b"])
	assert.Equal(t, Blocked, statusByID["c"])
}
