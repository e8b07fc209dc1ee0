package safety

import (
	"github.com/agentsafe/asc/config"
	"github.com/agentsafe/asc/degradation"
	"github.com/agentsafe/asc/healing"
	"github.com/agentsafe/asc/history"
	"github.com/agentsafe/asc/prevention"
	"github.com/agentsafe/asc/valuetree"
)

// AfterResult is after_tool's public contract (spec §4.10).
type AfterResult struct {
	UpdatedState     *SafetyState
	ShouldCheckpoint bool
	Health           healing.Status
	Recommendations  []string
}

// riskyCategories are the tool categories that AfterTool treats as
// "risky" for checkpoint recommendation purposes — anything that mutates
// the workspace or the host environment rather than just reading it.
var riskyCategories = map[degradation.ToolCategory]bool{
	degradation.CategoryShellCommands:    true,
	degradation.CategoryCodeModification: true,
	degradation.CategoryFileOperations:   true,
}

// AfterTool implements spec §4.10's after_tool: append to log -> learn
// from the action -> recompute degradation with hysteresis -> attempt
// reduction if success and eligible -> compute health -> decide
// checkpoint.
func AfterTool(state *SafetyState, now int64, tool string, args valuetree.Value, result history.Result, durationMs int64, errorType, errorMessage string, cfg config.Config, patterns *prevention.Registry) AfterResult {
	entry := state.History.Append(now, tool, args, result, durationMs, errorType, errorMessage)

	if !cfg.Enabled {
		return AfterResult{UpdatedState: state, Health: healing.Healthy}
	}

	// similar_action_count: incremented when the appended entry shares
	// (tool, args_hash) with any PRIOR retained entry (spec §3) — i.e.
	// CountMatching includes the entry itself, so >1 means a prior match
	// existed.
	if state.History.CountMatching(entry.ToolName, entry.ArgsHash) > 1 {
		state.SimilarActionCount++
	}

	switch result {
	case history.Success:
		state.ConsecutiveErrorCount = 0
		state.ToolErrorCounts[tool] = 0
		state.Healing.Reset()
		state.LastSuccessAtMs = now
	case history.Error:
		state.ConsecutiveErrorCount++
		state.ToolErrorCounts[tool]++
		if patterns != nil {
			patterns.Learn(now, tool, errorType, errorMessage, args)
		}
	}

	recentEntries := state.History.Entries()
	recentErrorRate := state.recentErrorRate()

	degCfg := cfg.ToDegradationConfig()
	factors := degradation.ComputeFactors(state.ConsecutiveErrorCount, state.SimilarActionCount, state.msSinceLastSuccess(now), recentErrorRate, degCfg.SemanticMatchThreshold)
	score := degradation.AggregateScore(factors)

	before := state.Degradation.Level()
	// Spec §8 invariant: level must not decrease while
	// consecutive_error_count > 0. degradation.Manager.Evaluate has no
	// notion of "why" the score changed, so the façade enforces this
	// guard before calling it.
	raw := degradation.RawLevel(score)
	if !(raw < before && state.ConsecutiveErrorCount > 0) {
		state.Degradation.Evaluate(now, score)
	}
	after := state.Degradation.Level()
	state.degradationJustRose = after > before

	if result == history.Success {
		state.Degradation.Reduce(degradation.ReduceCriteria{
			Now:                   now,
			ConsecutiveErrorCount: state.ConsecutiveErrorCount,
			HasLastFive:           len(recentEntries) >= 5,
			SuccessRateLastFive:   history.SuccessRateLast(recentEntries, 5, ""),
			SimilarActionCount:    state.SimilarActionCount,
		})
	}

	healthScore := healing.Score(state.ConsecutiveErrorCount, int(state.Degradation.Level()), recentErrorRate*100, state.SimilarActionCount)
	status := healing.StatusFor(healthScore)
	preventive := healing.NeedsPreventiveAction(status, state.degradationJustRose)

	var recommendations []string
	shouldCheckpoint := false

	if preventive == healing.PreventiveCheckpoint {
		recommendations = append(recommendations, "create a checkpoint: recent history suggests imminent risk of failure")
		shouldCheckpoint = true
	}
	if preventive == healing.PreventiveSlowDown {
		recommendations = append(recommendations, "slow down: health score indicates the agent is struggling")
	}
	if state.degradationJustRose {
		recommendations = append(recommendations, "degradation level rose: checkpoint before continuing")
		shouldCheckpoint = true
	}
	if riskyCategories[degradation.CategoryFor(tool, degCfg.ToolCategoryOverrides)] && result == history.Success {
		shouldCheckpoint = shouldCheckpoint || state.Degradation.Level() >= degradation.Restricted
	}

	return AfterResult{
		UpdatedState:     state,
		ShouldCheckpoint: shouldCheckpoint,
		Health:           status,
		Recommendations:  dedupeStrings(recommendations),
	}
}
