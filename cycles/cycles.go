// Package cycles implements the CycleDetector (spec.md §4.2): a layered
// loop-pattern detector over a tool invocation's history, similarity, and
// consecutive-error state.
package cycles

import (
	"fmt"

	"github.com/agentsafe/asc/history"
	"github.com/agentsafe/asc/similarity"
	"github.com/agentsafe/asc/valuetree"
)

// PatternKind tags which LoopPattern arm fired.
type PatternKind int

const (
	ExactRepeat PatternKind = iota
	SimilarArgs
	ErrorCycle
	Oscillation
	GradualChange
	Pattern
)

func (k PatternKind) String() string {
	switch k {
	case ExactRepeat:
		return "exact_repeat"
	case SimilarArgs:
		return "similar_args"
	case ErrorCycle:
		return "error_cycle"
	case Oscillation:
		return "oscillation"
	case GradualChange:
		return "gradual_change"
	case Pattern:
		return "pattern"
	default:
		return "unknown"
	}
}

// LoopPattern is one detected repetition (spec §3).
type LoopPattern struct {
	Kind          PatternKind
	ToolNames     []string
	Sequence      []string // populated only for Kind == Pattern
	Occurrences   int
	Confidence    float64
	FirstDetected int64
	Description   string
}

// Action is the detector's recommendation for how the host should respond.
type Action int

const (
	Continue Action = iota
	SwitchStrategy
	Clarify
	Escalate
)

func (a Action) String() string {
	switch a {
	case Continue:
		return "continue"
	case SwitchStrategy:
		return "switch_strategy"
	case Clarify:
		return "clarify"
	case Escalate:
		return "escalate"
	default:
		return "unknown"
	}
}

// Config is the detector's effective configuration for one tool — i.e.
// already merged with any tool_specific override (spec §6).
type Config struct {
	ExactMatchThreshold        int
	ExactMatchLookbackWindow   int
	SemanticSimilarityEnabled  bool
	SemanticSimilarityThreshold float64
	SemanticMatchThreshold     int
	PatternDetectionEnabled    bool
	MinPatternLength           int
	MaxPatternLength           int
	PatternRepetitionThreshold int
	MaxConsecutiveErrors       int
	OscillationSimilarityThreshold float64

	GradualChangeEnabled               bool
	GradualChangeLookbackWindow        int
	GradualChangeMaxStepThreshold      float64
	GradualChangeMinCumulativeThreshold float64
}

// DefaultConfig returns the spec §6 defaults.
func DefaultConfig() Config {
	return Config{
		ExactMatchThreshold:            3,
		ExactMatchLookbackWindow:       50,
		SemanticSimilarityEnabled:      true,
		SemanticSimilarityThreshold:    0.85,
		SemanticMatchThreshold:         5,
		PatternDetectionEnabled:        true,
		MinPatternLength:               2,
		MaxPatternLength:               5,
		PatternRepetitionThreshold:     2,
		MaxConsecutiveErrors:           5,
		OscillationSimilarityThreshold: 0.85,

		GradualChangeEnabled:                true,
		GradualChangeLookbackWindow:         5,
		GradualChangeMaxStepThreshold:       0.7,
		GradualChangeMinCumulativeThreshold: 0.5,
	}
}

// DetectionResult is the CycleDetector's public contract (spec §4.2).
type DetectionResult struct {
	IsLoop          bool
	Kind            PatternKind
	HasKind         bool
	Confidence      float64
	Matches         []LoopPattern
	SuggestedAction Action
}

// layerFinding is the internal result of one detection layer.
// warningOnly layers (GradualChange) contribute their pattern to
// DetectionResult.Matches but never win DetectionResult.Kind/IsLoop on
// their own (spec §4.3: GradualChange is "a warning-only pattern").
type layerFinding struct {
	fired       bool
	warningOnly bool
	pattern     LoopPattern
	matchCount  int
	threshold   int
}

// Detect runs all six detection layers in spec order. The first
// non-warning-only layer (in listed order) that fires wins
// DetectionResult.Kind/IsLoop; every firing layer — warning-only included
// — contributes its LoopPattern to Matches, and the aggregate Confidence
// is the max across all of them (spec §4.2: "confidences union = max").
func Detect(now int64, tool string, currentArgs valuetree.Value, argsHash string, log *history.HistoryLog, consecutiveErrorCount uint32, cfg Config) DetectionResult {
	var findings []layerFinding

	findings = append(findings, detectExactRepeat(now, tool, argsHash, log, cfg))
	if cfg.SemanticSimilarityEnabled {
		findings = append(findings, detectSimilarArgs(now, tool, currentArgs, log, cfg))
	}
	findings = append(findings, detectErrorCycle(now, consecutiveErrorCount, cfg))
	if cfg.PatternDetectionEnabled {
		findings = append(findings, detectPatternCycle(now, log, cfg))
	}
	findings = append(findings, detectOscillation(now, tool, currentArgs, log, cfg))
	if cfg.GradualChangeEnabled {
		findings = append(findings, detectGradualChange(now, tool, currentArgs, log, cfg))
	}

	var matches []LoopPattern
	var winner *layerFinding
	maxConfidence := 0.0

	for i := range findings {
		f := &findings[i]
		if !f.fired {
			continue
		}
		matches = append(matches, f.pattern)
		if winner == nil && !f.warningOnly {
			winner = f
		}
		if f.pattern.Confidence > maxConfidence {
			maxConfidence = f.pattern.Confidence
		}
	}

	if winner == nil {
		return DetectionResult{IsLoop: false, SuggestedAction: Continue, Matches: matches, Confidence: maxConfidence}
	}

	return DetectionResult{
		IsLoop:          true,
		Kind:            winner.pattern.Kind,
		HasKind:         true,
		Confidence:      maxConfidence,
		Matches:         matches,
		SuggestedAction: suggestedAction(winner.matchCount, winner.threshold),
	}
}

// suggestedAction implements spec §4.2's match_count/threshold mapping,
// reused verbatim by every layer that fires.
func suggestedAction(matchCount, threshold int) Action {
	if threshold <= 0 {
		return Continue
	}
	switch {
	case matchCount >= 3*threshold:
		return Escalate
	case matchCount >= 2*threshold:
		return Clarify
	case matchCount >= threshold:
		return SwitchStrategy
	default:
		return Continue
	}
}

func detectExactRepeat(now int64, tool, argsHash string, log *history.HistoryLog, cfg Config) layerFinding {
	count := log.CountMatchingInWindow(tool, argsHash, cfg.ExactMatchLookbackWindow)
	threshold := cfg.ExactMatchThreshold
	if count+1 < threshold {
		return layerFinding{}
	}
	confidence := minF(1, float64(count)/float64(threshold))
	return layerFinding{
		fired: true,
		pattern: LoopPattern{
			Kind:          ExactRepeat,
			ToolNames:     []string{tool},
			Occurrences:   count + 1,
			Confidence:    confidence,
			FirstDetected: now,
			Description:   fmt.Sprintf("tool %q repeated with identical arguments %d times", tool, count+1),
		},
		matchCount: count + 1,
		threshold:  threshold,
	}
}

func detectSimilarArgs(now int64, tool string, currentArgs valuetree.Value, log *history.HistoryLog, cfg Config) layerFinding {
	window := log.IterRecent(cfg.ExactMatchLookbackWindow)
	matchCount := 0
	for _, e := range window {
		if e.ToolName != tool {
			continue
		}
		if similarity.Of(currentArgs, e.ToolArgs) >= cfg.SemanticSimilarityThreshold {
			matchCount++
		}
	}
	threshold := cfg.SemanticMatchThreshold
	if matchCount < threshold {
		return layerFinding{}
	}
	confidence := minF(1, float64(matchCount)/float64(threshold))
	return layerFinding{
		fired: true,
		pattern: LoopPattern{
			Kind:          SimilarArgs,
			ToolNames:     []string{tool},
			Occurrences:   matchCount,
			Confidence:    confidence,
			FirstDetected: now,
			Description:   fmt.Sprintf("tool %q invoked with semantically similar arguments %d times", tool, matchCount),
		},
		matchCount: matchCount,
		threshold:  threshold,
	}
}

func detectErrorCycle(now int64, consecutiveErrorCount uint32, cfg Config) layerFinding {
	threshold := cfg.MaxConsecutiveErrors
	count := int(consecutiveErrorCount)
	if threshold <= 0 || count < threshold {
		return layerFinding{}
	}
	confidence := minF(1, float64(count)/float64(threshold))
	return layerFinding{
		fired: true,
		pattern: LoopPattern{
			Kind:          ErrorCycle,
			Occurrences:   count,
			Confidence:    confidence,
			FirstDetected: now,
			Description:   fmt.Sprintf("%d consecutive errors", count),
		},
		matchCount: count,
		threshold:  threshold,
	}
}

// detectPatternCycle searches suffixes of length L in [min,max] of the
// tool-name sequence for a subsequence repeated consecutively >= threshold
// times (spec §4.2 item 4).
func detectPatternCycle(now int64, log *history.HistoryLog, cfg Config) layerFinding {
	maxLookback := cfg.MaxPatternLength * (cfg.PatternRepetitionThreshold + 1)
	recent := log.IterRecent(maxLookback)
	names := make([]string, len(recent))
	for i, e := range recent {
		names[i] = e.ToolName
	}

	for length := cfg.MinPatternLength; length <= cfg.MaxPatternLength; length++ {
		if length*cfg.PatternRepetitionThreshold > len(names) {
			continue
		}
		tail := names[len(names)-length:]
		reps := 1
		for rep := 2; rep*length <= len(names); rep++ {
			start := len(names) - rep*length
			block := names[start : start+length]
			if !equalStrings(block, tail) {
				break
			}
			reps = rep
		}
		if reps >= cfg.PatternRepetitionThreshold {
			return layerFinding{
				fired: true,
				pattern: LoopPattern{
					Kind:          Pattern,
					ToolNames:     uniqueStrings(tail),
					Sequence:      append([]string(nil), tail...),
					Occurrences:   reps,
					Confidence:    minF(1, float64(reps)/float64(cfg.PatternRepetitionThreshold)),
					FirstDetected: now,
					Description:   fmt.Sprintf("tool sequence %v repeated %d times", tail, reps),
				},
				matchCount: reps,
				threshold:  cfg.PatternRepetitionThreshold,
			}
		}
	}
	return layerFinding{}
}

func detectOscillation(now int64, tool string, currentArgs valuetree.Value, log *history.HistoryLog, cfg Config) layerFinding {
	window := log.IterRecent(log.MaxEntries())
	var sameTool []valuetree.Value
	for _, e := range window {
		if e.ToolName == tool {
			sameTool = append(sameTool, e.ToolArgs)
		}
	}
	sameTool = append(sameTool, currentArgs)

	res := similarity.DetectOscillation(sameTool, cfg.OscillationSimilarityThreshold)
	if !res.Detected {
		return layerFinding{}
	}
	return layerFinding{
		fired: true,
		pattern: LoopPattern{
			Kind:          Oscillation,
			ToolNames:     []string{tool},
			Occurrences:   res.Occurrences,
			Confidence:    0.8,
			FirstDetected: now,
			Description:   fmt.Sprintf("tool %q alternating between two argument states", tool),
		},
		matchCount: res.Occurrences,
		threshold:  res.Occurrences,
	}
}

// detectGradualChange looks for a monotone drift in a same-tool argument
// series: small per-step similarity deltas compounding into a large
// cumulative delta (spec §4.3). Always warning-only — see layerFinding.
func detectGradualChange(now int64, tool string, currentArgs valuetree.Value, log *history.HistoryLog, cfg Config) layerFinding {
	window := log.IterRecent(log.MaxEntries())
	var sameTool []valuetree.Value
	for _, e := range window {
		if e.ToolName == tool {
			sameTool = append(sameTool, e.ToolArgs)
		}
	}
	sameTool = append(sameTool, currentArgs)

	if cfg.GradualChangeLookbackWindow > 0 && len(sameTool) > cfg.GradualChangeLookbackWindow {
		sameTool = sameTool[len(sameTool)-cfg.GradualChangeLookbackWindow:]
	}

	res := similarity.DetectGradualChange(sameTool, cfg.GradualChangeMaxStepThreshold, cfg.GradualChangeMinCumulativeThreshold)
	if !res.Detected {
		return layerFinding{}
	}
	return layerFinding{
		fired:       true,
		warningOnly: true,
		pattern: LoopPattern{
			Kind:          GradualChange,
			ToolNames:     []string{tool},
			Occurrences:   len(sameTool),
			Confidence:    res.CumulativeDelta,
			FirstDetected: now,
			Description:   fmt.Sprintf("tool %q arguments are drifting gradually over %d calls", tool, len(sameTool)),
		},
		matchCount: len(sameTool),
		threshold:  cfg.GradualChangeLookbackWindow,
	}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
