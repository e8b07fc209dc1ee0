package safety

import (
	"fmt"

	"github.com/agentsafe/asc/config"
	"github.com/agentsafe/asc/cycles"
	"github.com/agentsafe/asc/degradation"
	"github.com/agentsafe/asc/prevention"
	"github.com/agentsafe/asc/valuetree"
)

// BeforeResult is before_tool's public contract (spec §4.10). DetectedLoop
// and SuggestedAction surface the CycleDetector's verdict directly, since
// spec §8's scenarios assert on suggested_action independently of the
// coarser can_proceed/blockers fields.
type BeforeResult struct {
	CanProceed      bool
	Warnings        []string
	Blockers        []string
	Suggestions     []string
	ModifiedArgs    *valuetree.Value
	DelayMs         int64
	DetectedLoop    bool
	SuggestedAction cycles.Action
}

// dedupeStrings preserves first-seen order while dropping exact repeats.
// The spec's "(type,message)" dedupe key collapses to plain message
// equality here because every upstream component already emits a single
// flattened string per warning/suggestion/blocker (prevention.CheckResult,
// cycles.DetectionResult, degradation.ToolDecision) rather than a
// separately-tagged (type,message) pair.
func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// BeforeTool implements spec §4.10's before_tool: Proactive ->
// Degradation.is_tool_allowed -> CycleDetector -> Degradation.apply_effects
// -> pause check. Any blocker from any stage sets CanProceed=false; the
// pipeline still runs every stage so warnings/suggestions accumulate even
// once a blocker has fired, matching §4.7/§4.2's "total, synchronous"
// analysis functions.
func BeforeTool(state *SafetyState, now int64, tool string, args valuetree.Value, cfg config.Config, patterns *prevention.Registry) BeforeResult {
	var result BeforeResult
	result.CanProceed = true

	if !cfg.Enabled {
		return result
	}

	argsHash := valuetree.Hash(args)
	recent := state.History.Entries()

	// Stage 1: Proactive Prevention.
	check := prevention.PreExecutionCheck(now, tool, args, recent, patterns, prevention.DefaultConfig())
	result.Warnings = append(result.Warnings, check.Warnings...)
	result.Suggestions = append(result.Suggestions, check.Suggestions...)
	if !check.CanProceed {
		result.Blockers = append(result.Blockers, check.Blockers...)
		result.CanProceed = false
	}

	// Stage 2: degradation tool allow-listing.
	degCfg := cfg.ToDegradationConfig()
	decision := degradation.IsToolAllowed(tool, state.Degradation.Level(), degCfg)
	if !decision.Allowed {
		result.Blockers = append(result.Blockers, decision.Reason)
		result.Suggestions = append(result.Suggestions, decision.Alternatives...)
		result.CanProceed = false
	}

	// Stage 3: cycle detection.
	detection := cycles.Detect(now, tool, args, argsHash, state.History, state.ConsecutiveErrorCount, cfg.EffectiveForTool(tool))
	// Every fired layer surfaces a warning, including warning-only layers
	// (GradualChange) that never set IsLoop on their own (spec §4.3).
	for _, m := range detection.Matches {
		result.Warnings = append(result.Warnings, fmt.Sprintf("loop detected (%s): %s", m.Kind, m.Description))
	}
	// A blocking layer having fired blocks outright (spec §8 scenario 1:
	// at exact_match_threshold=2, the 3rd identical call already yields
	// can_proceed=false with a "Loop detected" blocker, well before
	// suggested_action climbs to Escalate at the 6th). SuggestedAction
	// only tunes what the host is told to do about it.
	if detection.IsLoop {
		result.DetectedLoop = true
		result.SuggestedAction = detection.SuggestedAction
		blockingDescription := detection.Matches[0].Description
		for _, m := range detection.Matches {
			if m.Kind == detection.Kind {
				blockingDescription = m.Description
				break
			}
		}
		result.Blockers = append(result.Blockers, fmt.Sprintf("Loop detected: %s", blockingDescription))
		result.CanProceed = false
		switch detection.SuggestedAction {
		case cycles.Escalate:
			result.Suggestions = append(result.Suggestions, "loop detected: escalate to a human")
		case cycles.Clarify:
			result.Suggestions = append(result.Suggestions, "loop detected: request clarification before continuing")
		case cycles.SwitchStrategy:
			result.Suggestions = append(result.Suggestions, "loop detected: consider switching strategy or tool")
		}
	}

	// Stage 4: apply degradation effects (delay, confirmation) — these
	// never block on their own, they only shape how the host executes a
	// proceeding call.
	levelPolicy := degCfg.Levels[state.Degradation.Level()]
	result.DelayMs = levelPolicy.AddDelayMs
	if decision.RequiresConfirmation && result.CanProceed {
		result.Suggestions = append(result.Suggestions, "this action requires explicit confirmation at the current degradation level")
	}

	// Stage 5: pause check — Halted always blocks regardless of category
	// allow-listing quirks, as a final backstop.
	if state.Degradation.Level() == degradation.Halted && result.CanProceed {
		result.Blockers = append(result.Blockers, "agent is halted: no further actions are permitted until degradation recovers")
		result.CanProceed = false
	}

	result.Warnings = dedupeStrings(result.Warnings)
	result.Blockers = dedupeStrings(result.Blockers)
	result.Suggestions = dedupeStrings(result.Suggestions)

	return result
}
