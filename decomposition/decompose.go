package decomposition

import (
	"fmt"
	"strings"
)

// TaskDecomposition is spec §9's TaskDecomposition: original task, the
// generated subtasks, the dependency graph over them, and an overall
// confidence.
type TaskDecomposition struct {
	OriginalTask Task
	Subtasks     []SubTask
	Graph        DependencyGraph
	Confidence   float64
}

var writeKeywords = []string{"write", "modify", "create", "update", "delete", "refactor", "rename", "move"}

func detectsWrite(description string) bool {
	return containsAny(description, writeKeywords) > 0
}

func mentionsTest(description string) bool {
	lower := strings.ToLower(description)
	return strings.Contains(lower, "test") || strings.Contains(lower, "verify")
}

// Decompose implements spec §4.9's decompose(): analyze-requirements,
// conditional create-checkpoint, operation-specific subtasks, conditional
// verification, finalize.
func Decompose(id func(int) string, task Task, analysis ComplexityAnalysis) TaskDecomposition {
	if id == nil {
		id = func(n int) string { return fmt.Sprintf("subtask_%d", n) }
	}

	var subtasks []SubTask
	order := 0

	nextOrder := func() int {
		o := order
		order++
		return o
	}

	subtasks = append(subtasks, SubTask{
		ID:          id(len(subtasks)),
		Title:       "Analyze requirements",
		Description: "Review the task description and constraints to confirm scope before acting.",
		Order:       nextOrder(),
		Estimated:   Effort{Steps: 1, DurationMin: 5, Confidence: 0.9},
		Status:      Pending,
	})
	requirementsID := subtasks[len(subtasks)-1].ID

	var lastID string
	if detectsWrite(task.Description) {
		subtasks = append(subtasks, SubTask{
			ID:           id(len(subtasks)),
			Title:        "Create checkpoint",
			Description:  "Snapshot current state before making modifications.",
			Order:        nextOrder(),
			Dependencies: []string{requirementsID},
			Estimated:    Effort{Steps: 1, DurationMin: 2, Confidence: 0.95},
			Status:       Pending,
		})
		lastID = subtasks[len(subtasks)-1].ID
	} else {
		lastID = requirementsID
	}

	ops := detectedOperations(task.Description)
	for _, op := range ops {
		st := SubTask{
			ID:           id(len(subtasks)),
			Title:        strings.Title(op) + " changes",
			Description:  fmt.Sprintf("Perform the %s operation implied by the task.", op),
			Order:        nextOrder(),
			Dependencies: []string{lastID},
			Estimated:    Effort{Steps: 2, DurationMin: 15, Confidence: 0.7},
			Status:       Pending,
		}
		subtasks = append(subtasks, st)
		lastID = st.ID
	}

	if analysis.Risk != RiskLow || mentionsTest(task.Description) {
		subtasks = append(subtasks, SubTask{
			ID:           id(len(subtasks)),
			Title:        "Verify changes",
			Description:  "Run tests or otherwise confirm the change behaves as intended.",
			Order:        nextOrder(),
			Dependencies: []string{lastID},
			Estimated:    Effort{Steps: 1, DurationMin: 10, Confidence: 0.75},
			Status:       Pending,
		})
		lastID = subtasks[len(subtasks)-1].ID
	}

	subtasks = append(subtasks, SubTask{
		ID:           id(len(subtasks)),
		Title:        "Finalize",
		Description:  "Summarize what changed and confirm the task is complete.",
		Order:        nextOrder(),
		Dependencies: []string{lastID},
		Estimated:    Effort{Steps: 1, DurationMin: 5, Confidence: 0.9},
		Status:       Pending,
	})

	graph := IdentifyDependencies(subtasks)

	confidence := 0.6
	if !graph.HasCycles {
		confidence = 0.85
	}

	return TaskDecomposition{
		OriginalTask: task,
		Subtasks:     subtasks,
		Graph:        graph,
		Confidence:   confidence,
	}
}
