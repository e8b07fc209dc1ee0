// Command ascdemo wires the Agent Safety Controller components together
// and drives a short scripted sequence through before_tool/after_tool,
// printing the resulting decisions. It exists to exercise the safety
// façade end to end, the way core/cmd/example/main.go exercises a bare
// BaseAgent.
package main

import (
	"fmt"

	"github.com/agentsafe/asc/config"
	"github.com/agentsafe/asc/core"
	"github.com/agentsafe/asc/healing"
	"github.com/agentsafe/asc/history"
	"github.com/agentsafe/asc/prevention"
	"github.com/agentsafe/asc/safety"
	"github.com/agentsafe/asc/valuetree"
)

func main() {
	logger := core.NewStructuredLogger(core.WithLevel("INFO")).WithComponent("ascdemo")
	cfg := config.DefaultConfig()
	cfg.ExactMatchThreshold = 2

	patterns := prevention.NewRegistry()
	recovery := healing.NewDefaultRegistry()
	state := safety.NewSafetyState(
		safety.WithLogger(logger),
	)

	shellCommand := valuetree.NewObject(map[string]valuetree.Value{
		"command": valuetree.NewString("rm -rf ./build"),
	})

	now := int64(1_700_000_000_000)
	for call := 1; call <= 4; call++ {
		before := safety.BeforeTool(state, now, "shell", shellCommand, cfg, patterns)
		logger.Info("before_tool", map[string]interface{}{
			"call":          call,
			"can_proceed":   before.CanProceed,
			"blockers":      before.Blockers,
			"suggestions":   before.Suggestions,
			"detected_loop": before.DetectedLoop,
		})

		if !before.CanProceed {
			failure := &core.ExecutionFailure{Type: "LoopDetected", Message: "repeated identical shell command", Tool: "shell"}
			recoveryResult := safety.HandleErrorWithRecovery(state, now, failure, recovery, cfg)
			logger.Warn("handle_error_with_recovery", map[string]interface{}{
				"call":              call,
				"should_retry":      recoveryResult.ShouldRetry,
				"retry_delay_ms":    recoveryResult.RetryDelayMs,
				"escalation_needed": recoveryResult.EscalationNeeded,
			})
			now += recoveryResult.RetryDelayMs + 1_000
			continue
		}

		after := safety.AfterTool(state, now, "shell", shellCommand, history.Success, 120, "", "", cfg, patterns)
		logger.Info("after_tool", map[string]interface{}{
			"call":              call,
			"health":            after.Health.String(),
			"should_checkpoint": after.ShouldCheckpoint,
			"recommendations":   after.Recommendations,
		})

		next := safety.DetermineNextAction(state, now, cfg)
		fmt.Printf("call %d: next_action=%s reason=%q\n", call, next.Action, next.Reason)

		now += 1_000
	}
}
