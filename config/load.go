package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// FromYAML parses a YAML document into a Config layered onto
// DefaultConfig (unset fields keep their default), matching spec §6:
// "Config accepts a serialized string form (JSON-like) OR an in-memory
// object; malformed strings fall back to defaults." YAML is a superset of
// JSON so this accepts both.
func FromYAML(data []byte) Config {
	c := DefaultConfig()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return DefaultConfig()
	}
	return c
}

// envPrefix namespaces every ASC environment variable, following the
// teacher's GOMIND_HITL_* convention.
const envPrefix = "ASC_"

func getEnvInt(key string, def int) int {
	if v := os.Getenv(envPrefix + key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(envPrefix + key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(envPrefix + key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getEnvDurationMs(key string, def int64) int64 {
	if v := os.Getenv(envPrefix + key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d.Milliseconds()
		}
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

// FromEnv loads a Config from ASC_* environment variables layered onto
// DefaultConfig, matching the precedence convention of
// ExpiryProcessorConfigFromEnv in the teacher's hitl_checkpoint_store.go:
// explicit > env > default.
func FromEnv() Config {
	d := DefaultConfig()
	return Config{
		Enabled: getEnvBool("ENABLED", d.Enabled),

		ExactMatchThreshold:      getEnvInt("EXACT_MATCH_THRESHOLD", d.ExactMatchThreshold),
		ExactMatchLookbackWindow: getEnvInt("EXACT_MATCH_LOOKBACK_WINDOW", d.ExactMatchLookbackWindow),

		SemanticSimilarityEnabled:   getEnvBool("SEMANTIC_SIMILARITY_ENABLED", d.SemanticSimilarityEnabled),
		SemanticSimilarityThreshold: getEnvFloat("SEMANTIC_SIMILARITY_THRESHOLD", d.SemanticSimilarityThreshold),
		SemanticMatchThreshold:      getEnvInt("SEMANTIC_MATCH_THRESHOLD", d.SemanticMatchThreshold),

		PatternDetectionEnabled:    getEnvBool("PATTERN_DETECTION_ENABLED", d.PatternDetectionEnabled),
		MinPatternLength:           getEnvInt("MIN_PATTERN_LENGTH", d.MinPatternLength),
		MaxPatternLength:           getEnvInt("MAX_PATTERN_LENGTH", d.MaxPatternLength),
		PatternRepetitionThreshold: getEnvInt("PATTERN_REPETITION_THRESHOLD", d.PatternRepetitionThreshold),

		GradualChangeEnabled:                d.GradualChangeEnabled,
		GradualChangeLookbackWindow:         d.GradualChangeLookbackWindow,
		GradualChangeMaxStepThreshold:       d.GradualChangeMaxStepThreshold,
		GradualChangeMinCumulativeThreshold: d.GradualChangeMinCumulativeThreshold,

		ToolSpecific:      d.ToolSpecific,
		DegradationLevels: d.DegradationLevels,

		AutoEscalationEnabled: getEnvBool("AUTO_ESCALATION_ENABLED", d.AutoEscalationEnabled),
		EscalationCooldownMs:  getEnvDurationMs("ESCALATION_COOLDOWN_MS", d.EscalationCooldownMs),
	}
}
