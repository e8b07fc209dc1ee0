// Package config implements the ASC's external configuration surface
// (spec.md §6): the enumerated option set, named presets, validation with
// clamp-and-warn semantics, YAML/env loading, and per-tool effective
// config resolution for the cycles and degradation packages.
package config

import (
	"fmt"

	"github.com/agentsafe/asc/core"
	"github.com/agentsafe/asc/cycles"
	"github.com/agentsafe/asc/degradation"
)

// DegradationLevelRule is one row of spec §6's degradation_levels list.
type DegradationLevelRule struct {
	Level           int
	TriggerCondition string
	Action          string // switch-strategy | request-clarification | escalate | abort
	CooldownMs      int64
}

// ToolOverride is spec §6's tool_specific per-tool override record; zero
// fields mean "inherit the top-level value".
type ToolOverride struct {
	ExactMatchThreshold      int `yaml:"exact_match_threshold,omitempty"`
	SemanticMatchThreshold   int `yaml:"semantic_match_threshold,omitempty"`
	AllowedConsecutiveErrors int `yaml:"allowed_consecutive_errors,omitempty"`
}

// Config is spec §6's enumerated option set.
type Config struct {
	Enabled bool `yaml:"enabled"`

	ExactMatchThreshold      int `yaml:"exact_match_threshold"`
	ExactMatchLookbackWindow int `yaml:"exact_match_lookback_window"`

	SemanticSimilarityEnabled   bool    `yaml:"semantic_similarity_enabled"`
	SemanticSimilarityThreshold float64 `yaml:"semantic_similarity_threshold"`
	SemanticMatchThreshold      int     `yaml:"semantic_match_threshold"`

	PatternDetectionEnabled   bool `yaml:"pattern_detection_enabled"`
	MinPatternLength          int  `yaml:"min_pattern_length"`
	MaxPatternLength          int  `yaml:"max_pattern_length"`
	PatternRepetitionThreshold int `yaml:"pattern_repetition_threshold"`

	GradualChangeEnabled                bool    `yaml:"gradual_change_enabled"`
	GradualChangeLookbackWindow         int     `yaml:"gradual_change_lookback_window"`
	GradualChangeMaxStepThreshold       float64 `yaml:"gradual_change_max_step_threshold"`
	GradualChangeMinCumulativeThreshold float64 `yaml:"gradual_change_min_cumulative_threshold"`

	ToolSpecific map[string]ToolOverride `yaml:"tool_specific"`

	DegradationLevels []DegradationLevelRule `yaml:"degradation_levels"`

	AutoEscalationEnabled bool  `yaml:"auto_escalation_enabled"`
	EscalationCooldownMs  int64 `yaml:"escalation_cooldown_ms"`
}

// DefaultConfig returns spec §6's documented defaults — the "balanced"
// preset.
func DefaultConfig() Config {
	return Config{
		Enabled: true,

		ExactMatchThreshold:      3,
		ExactMatchLookbackWindow: 50,

		SemanticSimilarityEnabled:   true,
		SemanticSimilarityThreshold: 0.85,
		SemanticMatchThreshold:      5,

		PatternDetectionEnabled:    true,
		MinPatternLength:           2,
		MaxPatternLength:           5,
		PatternRepetitionThreshold: 2,

		GradualChangeEnabled:                true,
		GradualChangeLookbackWindow:         5,
		GradualChangeMaxStepThreshold:       0.7,
		GradualChangeMinCumulativeThreshold: 0.5,

		ToolSpecific: map[string]ToolOverride{},

		DegradationLevels: []DegradationLevelRule{
			{Level: 1, TriggerCondition: "score>=0.20", Action: "switch-strategy", CooldownMs: 30_000},
			{Level: 2, TriggerCondition: "score>=0.40", Action: "request-clarification", CooldownMs: 60_000},
			{Level: 3, TriggerCondition: "score>=0.60", Action: "escalate", CooldownMs: 120_000},
			{Level: 4, TriggerCondition: "score>=0.80", Action: "abort", CooldownMs: 300_000},
		},

		AutoEscalationEnabled: true,
		EscalationCooldownMs:  120_000,
	}
}

// clampResult records one value that validation adjusted.
type clampResult struct {
	field string
	from  interface{}
	to    interface{}
}

func (c clampResult) String() string {
	return fmt.Sprintf("%s: %v out of range, clamped to %v", c.field, c.from, c.to)
}

func clampInt(field string, v, lo, hi int, warnings *[]string) int {
	if v < lo {
		*warnings = append(*warnings, clampResult{field, v, lo}.String())
		return lo
	}
	if v > hi {
		*warnings = append(*warnings, clampResult{field, v, hi}.String())
		return hi
	}
	return v
}

func clampFloat(field string, v, lo, hi float64, warnings *[]string) float64 {
	if v < lo {
		*warnings = append(*warnings, clampResult{field, v, lo}.String())
		return lo
	}
	if v > hi {
		*warnings = append(*warnings, clampResult{field, v, hi}.String())
		return hi
	}
	return v
}

func clampInt64(field string, v, lo, hi int64, warnings *[]string) int64 {
	if v < lo {
		*warnings = append(*warnings, clampResult{field, v, lo}.String())
		return lo
	}
	if v > hi {
		*warnings = append(*warnings, clampResult{field, v, hi}.String())
		return hi
	}
	return v
}

// Validate clamps out-of-range values (returning warnings describing each
// adjustment) and rejects min_pattern_length > max_pattern_length as a
// hard error — spec §6: "min_pattern_length ≤ max_pattern_length is
// enforced as a hard error".
func Validate(c Config) (Config, []string, error) {
	var warnings []string

	c.ExactMatchThreshold = clampInt("exact_match_threshold", c.ExactMatchThreshold, 1, 100, &warnings)
	c.ExactMatchLookbackWindow = clampInt("exact_match_lookback_window", c.ExactMatchLookbackWindow, 5, 1000, &warnings)
	c.SemanticSimilarityThreshold = clampFloat("semantic_similarity_threshold", c.SemanticSimilarityThreshold, 0, 1, &warnings)
	c.SemanticMatchThreshold = clampInt("semantic_match_threshold", c.SemanticMatchThreshold, 1, 100, &warnings)
	c.MinPatternLength = clampInt("min_pattern_length", c.MinPatternLength, 2, 20, &warnings)
	c.MaxPatternLength = clampInt("max_pattern_length", c.MaxPatternLength, 2, 50, &warnings)
	c.PatternRepetitionThreshold = clampInt("pattern_repetition_threshold", c.PatternRepetitionThreshold, 1, 20, &warnings)
	c.EscalationCooldownMs = clampInt64("escalation_cooldown_ms", c.EscalationCooldownMs, 1000, 3_600_000, &warnings)
	c.GradualChangeLookbackWindow = clampInt("gradual_change_lookback_window", c.GradualChangeLookbackWindow, 3, 50, &warnings)
	c.GradualChangeMaxStepThreshold = clampFloat("gradual_change_max_step_threshold", c.GradualChangeMaxStepThreshold, 0, 1, &warnings)
	c.GradualChangeMinCumulativeThreshold = clampFloat("gradual_change_min_cumulative_threshold", c.GradualChangeMinCumulativeThreshold, 0, 1, &warnings)

	if c.MinPatternLength > c.MaxPatternLength {
		fe := core.NewFrameworkError("config.Validate", "config", core.ErrConfigInvalid)
		fe.Message = fmt.Sprintf("min_pattern_length (%d) must be <= max_pattern_length (%d)", c.MinPatternLength, c.MaxPatternLength)
		return c, warnings, fe
	}

	return c, warnings, nil
}

// ToCyclesConfig converts a top-level Config into cycles.Config, ignoring
// tool_specific overrides — use EffectiveForTool to get a per-tool config.
func (c Config) ToCyclesConfig() cycles.Config {
	return cycles.Config{
		ExactMatchThreshold:            c.ExactMatchThreshold,
		ExactMatchLookbackWindow:       c.ExactMatchLookbackWindow,
		SemanticSimilarityEnabled:      c.SemanticSimilarityEnabled,
		SemanticSimilarityThreshold:    c.SemanticSimilarityThreshold,
		SemanticMatchThreshold:         c.SemanticMatchThreshold,
		PatternDetectionEnabled:        c.PatternDetectionEnabled,
		MinPatternLength:               c.MinPatternLength,
		MaxPatternLength:               c.MaxPatternLength,
		PatternRepetitionThreshold:     c.PatternRepetitionThreshold,
		MaxConsecutiveErrors:           5,
		OscillationSimilarityThreshold: c.SemanticSimilarityThreshold,

		GradualChangeEnabled:                c.GradualChangeEnabled,
		GradualChangeLookbackWindow:         c.GradualChangeLookbackWindow,
		GradualChangeMaxStepThreshold:       c.GradualChangeMaxStepThreshold,
		GradualChangeMinCumulativeThreshold: c.GradualChangeMinCumulativeThreshold,
	}
}

// ToDegradationConfig converts a top-level Config into degradation.Config,
// keeping the package's own level/hysteresis table (spec §6 only
// enumerates trigger_condition/action/cooldown at a descriptive level; the
// concrete thresholds live in degradation.DefaultConfig) but applying the
// cooldowns named in DegradationLevels where the levels line up.
func (c Config) ToDegradationConfig() degradation.Config {
	cfg := degradation.DefaultConfig()
	for _, rule := range c.DegradationLevels {
		lvl := degradation.Level(rule.Level)
		if policy, ok := cfg.Levels[lvl]; ok {
			policy.CooldownMs = rule.CooldownMs
			cfg.Levels[lvl] = policy
		}
	}
	cfg.SemanticMatchThreshold = c.SemanticMatchThreshold
	return cfg
}

// EffectiveForTool merges a tool_specific override onto the top-level
// config and returns the cycles.Config the CycleDetector should use for
// that tool (spec §6: "tool_specific: Map<ToolName, {...}>").
func (c Config) EffectiveForTool(tool string) cycles.Config {
	eff := c.ToCyclesConfig()
	override, ok := c.ToolSpecific[tool]
	if !ok {
		return eff
	}
	if override.ExactMatchThreshold > 0 {
		eff.ExactMatchThreshold = override.ExactMatchThreshold
	}
	if override.SemanticMatchThreshold > 0 {
		eff.SemanticMatchThreshold = override.SemanticMatchThreshold
	}
	if override.AllowedConsecutiveErrors > 0 {
		eff.MaxConsecutiveErrors = override.AllowedConsecutiveErrors
	}
	return eff
}
