package checkpoint

// StepKind is the action type of one rollback plan step.
type StepKind int

const (
	RestoreState StepKind = iota
	RestoreFile
	RunCommand
	Notify
)

func (k StepKind) String() string {
	switch k {
	case RestoreState:
		return "restore_state"
	case RestoreFile:
		return "restore_file"
	case RunCommand:
		return "run_command"
	case Notify:
		return "notify"
	default:
		return "unknown"
	}
}

// Step is one action in a rollback plan.
type Step struct {
	Kind        StepKind
	Target      string // field path (RestoreState) or file path (RestoreFile)
	Command     string // RunCommand only
	Message     string // Notify only
	EstimatedMs int64
}

// RollbackPlan is spec §4.8's generate_rollback_plan output.
type RollbackPlan struct {
	Steps               []Step
	EstimatedDurationMs int64
	Risks               []string
	CanAutoExecute      bool
}

const (
	stateRestoreStepMs = 50
	fileRestoreStepMs  = 200
)

// GenerateRollbackPlan builds a plan restoring cp's state. storedContent
// reports, per modified file path, whether original content is available
// to restore (false means the file was never captured, only its name).
// Files present in current but not in cp.State (FileCreated in the diff)
// get a delete step and make the plan unsafe to auto-execute.
func GenerateRollbackPlan(cp Checkpoint, current CheckpointableState, storedContent map[string]bool) RollbackPlan {
	diff := Diff(cp, current)

	var plan RollbackPlan
	plan.CanAutoExecute = true

	if len(diff.StateChanges) > 0 {
		plan.Steps = append(plan.Steps, Step{Kind: RestoreState, Target: "safety_state and task progress", EstimatedMs: stateRestoreStepMs})
		plan.EstimatedDurationMs += stateRestoreStepMs
	}

	for _, fc := range diff.FileChanges {
		switch fc.Kind {
		case FileModified:
			if !storedContent[fc.Path] {
				plan.CanAutoExecute = false
				plan.Risks = append(plan.Risks, "no stored original content for modified file: "+fc.Path)
			}
			plan.Steps = append(plan.Steps, Step{Kind: RestoreFile, Target: fc.Path, EstimatedMs: fileRestoreStepMs})
			plan.EstimatedDurationMs += fileRestoreStepMs
		case FileCreated:
			plan.CanAutoExecute = false
			plan.Risks = append(plan.Risks, "rollback would delete file created after checkpoint: "+fc.Path)
			plan.Steps = append(plan.Steps, Step{Kind: RunCommand, Command: "delete " + fc.Path, EstimatedMs: fileRestoreStepMs})
			plan.EstimatedDurationMs += fileRestoreStepMs
		case FileDeleted:
			if !storedContent[fc.Path] {
				plan.CanAutoExecute = false
				plan.Risks = append(plan.Risks, "no stored original content to recreate deleted file: "+fc.Path)
			}
			plan.Steps = append(plan.Steps, Step{Kind: RestoreFile, Target: fc.Path, EstimatedMs: fileRestoreStepMs})
			plan.EstimatedDurationMs += fileRestoreStepMs
		}
	}

	plan.Steps = append(plan.Steps, Step{Kind: Notify, Message: "rollback to checkpoint " + cp.ID + " complete"})
	return plan
}
