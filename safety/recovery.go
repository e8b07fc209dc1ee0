package safety

import (
	"github.com/agentsafe/asc/config"
	"github.com/agentsafe/asc/core"
	"github.com/agentsafe/asc/healing"
)

// RecoveryResult is handle_error_with_recovery's contract (spec §4.10).
type RecoveryResult struct {
	Recovered        bool
	Action           *healing.RecoveryAction
	ShouldRetry      bool
	RetryDelayMs     int64
	EscalationNeeded bool
	UpdatedState     *SafetyState
}

// defaultBackoffBaseMs is the fallback base delay used when no registered
// strategy matches the failure at all (spec §4.10: "default exponential
// backoff if strategy omitted one").
const defaultBackoffBaseMs = 1000

// HandleErrorWithRecovery implements spec §4.10's
// handle_error_with_recovery: delegates to the Self-Healing Engine,
// increments the consecutive-error counters, and falls back to a default
// exponential backoff when no strategy in reg applies.
func HandleErrorWithRecovery(state *SafetyState, now int64, failure *core.ExecutionFailure, reg *healing.Registry, cfg config.Config) RecoveryResult {
	_ = now
	if !cfg.Enabled {
		return RecoveryResult{ShouldRetry: true, UpdatedState: state}
	}

	state.ConsecutiveErrorCount++
	state.ToolErrorCounts[failure.Tool]++

	outcome := healing.AttemptRecovery(reg, failure.Type, failure.Tool, failure.Message, state.Healing)

	if outcome.StrategyID == "" && !outcome.Success {
		// No strategy matched the error at all: fall back to a plain
		// exponential backoff keyed on how many consecutive errors this
		// session has already seen, capped the same way healing.BackoffDelay
		// caps a matched strategy's retries (spec §8: "min(base·2^k, 30_000)").
		attempt := int(state.ConsecutiveErrorCount) - 1
		if attempt < 0 {
			attempt = 0
		}
		delay := healing.BackoffDelay(defaultBackoffBaseMs, attempt)
		return RecoveryResult{
			Recovered:        false,
			ShouldRetry:      true,
			RetryDelayMs:     delay,
			EscalationNeeded: attempt >= 3,
			UpdatedState:     state,
		}
	}

	return RecoveryResult{
		Recovered:        outcome.Success,
		Action:           outcome.Action,
		ShouldRetry:      outcome.ShouldRetry,
		RetryDelayMs:     outcome.RetryDelayMs,
		EscalationNeeded: outcome.EscalationNeeded,
		UpdatedState:     state,
	}
}
