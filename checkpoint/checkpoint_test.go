package checkpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentsafe/asc/core"
	"github.com/agentsafe/asc/valuetree"
)

func stateWithTask(task string) CheckpointableState {
	return CheckpointableState{
		SafetyState:    valuetree.NewObject(map[string]valuetree.Value{"degradation_level": valuetree.NewNumber(0)}),
		CurrentTask:    task,
		HasCurrentTask: true,
		Custom:         map[string]valuetree.Value{},
	}
}

func TestCreateSealsHash(t *testing.T) {
	cp := Create(1000, stateWithTask("A"), Metadata{Reason: ReasonManual}, nil, nil)
	assert.Equal(t, computeHash(cp.State), cp.Hash)
	assert.Contains(t, cp.ID, "chk_")
}

func TestValidateDetectsHashMismatch(t *testing.T) {
	cp := Create(1000, stateWithTask("A"), Metadata{Reason: ReasonManual}, nil, nil)
	cp.Hash = "tampered"
	res := Validate(2000, cp)
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Errors)
}

func TestValidateWarnsOnAge(t *testing.T) {
	cp := Create(0, stateWithTask("A"), Metadata{Reason: ReasonManual}, nil, nil)
	res := Validate(25*60*60*1000, cp)
	assert.True(t, res.Valid)
	assert.NotEmpty(t, res.Warnings)
}

func TestValidateRejectsUnknownReason(t *testing.T) {
	cp := Create(1000, stateWithTask("A"), Metadata{Reason: "bogus"}, nil, nil)
	res := Validate(1000, cp)
	assert.False(t, res.Valid)
}

func TestDiffSingleFieldChange(t *testing.T) {
	// Spec §8 scenario 4: current_task A -> B yields exactly one StateChange.
	cp := Create(1000, stateWithTask("A"), Metadata{Reason: ReasonManual}, nil, nil)
	current := stateWithTask("B")
	diff := Diff(cp, current)
	require.Len(t, diff.StateChanges, 1)
	assert.Equal(t, "current_task", diff.StateChanges[0].Path)
	oldStr, _ := diff.StateChanges[0].Old.AsString()
	newStr, _ := diff.StateChanges[0].New.AsString()
	assert.Equal(t, "A", oldStr)
	assert.Equal(t, "B", newStr)
}

func TestDiffFileChanges(t *testing.T) {
	cp := Create(1000, CheckpointableState{ModifiedFiles: []string{"a.txt", "b.txt"}, Custom: map[string]valuetree.Value{}}, Metadata{Reason: ReasonAuto}, nil, nil)
	current := CheckpointableState{ModifiedFiles: []string{"b.txt", "c.txt"}, Custom: map[string]valuetree.Value{}}
	diff := Diff(cp, current)

	kinds := map[string]FileChangeKind{}
	for _, fc := range diff.FileChanges {
		kinds[fc.Path] = fc.Kind
	}
	assert.Equal(t, FileDeleted, kinds["a.txt"])
	assert.Equal(t, FileCreated, kinds["c.txt"])
	assert.Equal(t, FileModified, kinds["b.txt"])
}

func TestRollbackPlanBlocksAutoExecuteWithoutStoredContent(t *testing.T) {
	cp := Create(1000, CheckpointableState{ModifiedFiles: []string{"a.txt"}, Custom: map[string]valuetree.Value{}}, Metadata{Reason: ReasonAuto}, nil, nil)
	current := CheckpointableState{ModifiedFiles: []string{}, Custom: map[string]valuetree.Value{}}
	plan := GenerateRollbackPlan(cp, current, map[string]bool{})
	assert.False(t, plan.CanAutoExecute)
	assert.NotEmpty(t, plan.Risks)
}

func TestRollbackPlanAllowsAutoExecuteForStateOnlyChanges(t *testing.T) {
	cp := Create(1000, stateWithTask("A"), Metadata{Reason: ReasonAuto}, nil, nil)
	current := stateWithTask("B")
	plan := GenerateRollbackPlan(cp, current, map[string]bool{})
	assert.True(t, plan.CanAutoExecute)
	assert.NotEmpty(t, plan.Steps)
}

func TestPruneKeepsMilestonesAndHighPriority(t *testing.T) {
	old := Create(0, stateWithTask("old"), Metadata{Reason: ReasonMilestone}, nil, nil)
	recent := Create(1000, stateWithTask("recent"), Metadata{Reason: ReasonAuto}, nil, nil)
	policy := RetentionPolicy{MaxCount: 1, MaxAgeMs: 10_000, KeepMilestones: true, KeepHighPriority: true}

	retained := Prune(2000, []Checkpoint{old, recent}, policy)
	ids := map[string]bool{}
	for _, cp := range retained {
		ids[cp.ID] = true
	}
	assert.True(t, ids[old.ID], "milestone must be retained regardless of quota")
	assert.False(t, ids[recent.ID], "the milestone already fills the MaxCount=1 quota")
}

func TestSerializeRoundTrip(t *testing.T) {
	cp := Create(1000, stateWithTask("A"), Metadata{Reason: ReasonManual, Tags: []string{"x"}}, nil, nil)
	raw, err := Serialize(cp)
	require.NoError(t, err)

	restored, err := Deserialize(raw)
	require.NoError(t, err)
	assert.Equal(t, cp.ID, restored.ID)
	assert.Equal(t, cp.Hash, restored.Hash)
	res := Validate(1000, *restored)
	assert.True(t, res.Valid)
}

func TestDeserializeMalformedIsCorrupt(t *testing.T) {
	_, err := Deserialize("{not json")
	require.Error(t, err)
	assert.True(t, core.IsCheckpointCorrupt(err))
}
