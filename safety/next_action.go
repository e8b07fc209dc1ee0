package safety

import (
	"fmt"

	"github.com/agentsafe/asc/config"
	"github.com/agentsafe/asc/degradation"
	"github.com/agentsafe/asc/escalation"
	"github.com/agentsafe/asc/healing"
)

// Action is determine_next_action's / handle_error_with_recovery's shared
// routing vocabulary (spec §4.10).
type Action int

const (
	Continue Action = iota
	Retry
	Degrade
	Escalate
	Halt
	Checkpoint
)

func (a Action) String() string {
	switch a {
	case Continue:
		return "continue"
	case Retry:
		return "retry"
	case Degrade:
		return "degrade"
	case Escalate:
		return "escalate"
	case Halt:
		return "halt"
	case Checkpoint:
		return "checkpoint"
	default:
		return "unknown"
	}
}

// NextAction is determine_next_action's result.
type NextAction struct {
	Action  Action
	Reason  string
	DelayMs int64
	Context map[string]interface{}
}

// DetermineNextAction implements spec §4.10's determine_next_action:
// maps (degradation_level, escalation triggers, health, preventive
// action) to a single routing decision, checked in the priority order the
// spec lists — Halt first (level=4 or health=Critical), then Escalate,
// then Checkpoint, then Degrade, else Continue.
func DetermineNextAction(state *SafetyState, now int64, cfg config.Config) NextAction {
	if !cfg.Enabled {
		return NextAction{Action: Continue, Reason: "agent safety controller is disabled"}
	}

	msStuck := state.msSinceLastSuccess(now)
	triggers := escalation.EvaluateTriggers(int(state.Degradation.Level()), msStuck, state.ConsecutiveErrorCount, state.SimilarActionCount)
	priority := escalation.Priority(triggers)
	shouldEscalate := cfg.AutoEscalationEnabled && escalation.ShouldEscalate(priority, len(triggers))

	recentErrorRate := state.recentErrorRate()
	healthScore := healing.Score(state.ConsecutiveErrorCount, int(state.Degradation.Level()), recentErrorRate*100, state.SimilarActionCount)
	status := healing.StatusFor(healthScore)
	preventive := healing.NeedsPreventiveAction(status, state.degradationJustRose)

	context := map[string]interface{}{
		"degradation_level": state.Degradation.Level().String(),
		"health_status":     status.String(),
		"health_score":      healthScore,
		"trigger_count":     len(triggers),
	}

	if state.Degradation.Level() == degradation.Halted || status == healing.Critical {
		return NextAction{Action: Halt, Reason: "agent is halted or health is critical", Context: context}
	}

	if shouldEscalate {
		context["priority"] = priority.String()
		return NextAction{Action: Escalate, Reason: fmt.Sprintf("escalation triggers fired with priority %s", priority), Context: context}
	}

	if preventive == healing.PreventiveCheckpoint {
		return NextAction{Action: Checkpoint, Reason: "preventive checkpoint recommended before continuing", Context: context}
	}

	if state.Degradation.Level() >= degradation.Restricted {
		policy := cfg.ToDegradationConfig().Levels[state.Degradation.Level()]
		return NextAction{Action: Degrade, Reason: fmt.Sprintf("degradation level %s requires restricted behavior", state.Degradation.Level()), DelayMs: policy.AddDelayMs, Context: context}
	}

	return NextAction{Action: Continue, Reason: "no pressure factors require intervention", Context: context}
}
