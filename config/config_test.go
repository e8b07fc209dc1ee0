package config

import (
	"testing"

	"github.com/agentsafe/asc/core"
	"github.com/agentsafe/asc/degradation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigMatchesSpecDefaults(t *testing.T) {
	c := DefaultConfig()
	assert.True(t, c.Enabled)
	assert.Equal(t, 3, c.ExactMatchThreshold)
	assert.Equal(t, 50, c.ExactMatchLookbackWindow)
	assert.Equal(t, 0.85, c.SemanticSimilarityThreshold)
	assert.Equal(t, 2, c.MinPatternLength)
	assert.Equal(t, 5, c.MaxPatternLength)
	assert.True(t, c.AutoEscalationEnabled)
	assert.EqualValues(t, 120_000, c.EscalationCooldownMs)
}

func TestValidateClampsOutOfRangeValues(t *testing.T) {
	c := DefaultConfig()
	c.ExactMatchThreshold = 500
	c.SemanticSimilarityThreshold = 5
	c.EscalationCooldownMs = 10

	clamped, warnings, err := Validate(c)
	require.NoError(t, err)
	assert.Equal(t, 100, clamped.ExactMatchThreshold)
	assert.Equal(t, 1.0, clamped.SemanticSimilarityThreshold)
	assert.EqualValues(t, 1000, clamped.EscalationCooldownMs)
	assert.NotEmpty(t, warnings)
}

func TestValidateRejectsInvertedPatternLengthRange(t *testing.T) {
	c := DefaultConfig()
	c.MinPatternLength = 10
	c.MaxPatternLength = 4

	_, _, err := Validate(c)
	require.Error(t, err)
	assert.True(t, core.IsConfigInvalid(err))
}

func TestPresetsAreDistinct(t *testing.T) {
	strict, ok := FromPreset(PresetStrict)
	require.True(t, ok)
	permissive, ok := FromPreset(PresetPermissive)
	require.True(t, ok)

	assert.Less(t, strict.ExactMatchThreshold, permissive.ExactMatchThreshold)
	assert.Less(t, strict.SemanticMatchThreshold, permissive.SemanticMatchThreshold)
}

func TestUnknownPresetNotOK(t *testing.T) {
	_, ok := FromPreset(Preset("nonexistent"))
	assert.False(t, ok)
}

func TestFromYAMLMalformedFallsBackToDefault(t *testing.T) {
	c := FromYAML([]byte("not: valid: yaml: ][}"))
	assert.Equal(t, DefaultConfig().ExactMatchThreshold, c.ExactMatchThreshold)
}

func TestFromYAMLOverridesLayerOntoDefaults(t *testing.T) {
	yamlDoc := []byte("exact_match_threshold: 7\nauto_escalation_enabled: false\n")
	c := FromYAML(yamlDoc)
	assert.Equal(t, 7, c.ExactMatchThreshold)
	assert.False(t, c.AutoEscalationEnabled)
	// Untouched fields keep their default.
	assert.Equal(t, DefaultConfig().MaxPatternLength, c.MaxPatternLength)
}

func TestEffectiveForToolAppliesOverride(t *testing.T) {
	c := DefaultConfig()
	c.ToolSpecific = map[string]ToolOverride{
		"shell": {ExactMatchThreshold: 2},
	}

	eff := c.EffectiveForTool("shell")
	assert.Equal(t, 2, eff.ExactMatchThreshold)

	other := c.EffectiveForTool("read_file")
	assert.Equal(t, c.ExactMatchThreshold, other.ExactMatchThreshold)
}

func TestToDegradationConfigAppliesCooldowns(t *testing.T) {
	c := DefaultConfig()
	degCfg := c.ToDegradationConfig()
	require.Contains(t, degCfg.Levels, degradation.Level(1))
	assert.EqualValues(t, 30_000, degCfg.Levels[degradation.Level(1)].CooldownMs)
}
