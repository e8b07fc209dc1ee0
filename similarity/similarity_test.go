package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentsafe/asc/valuetree"
)

func TestIdenticalIsOne(t *testing.T) {
	v := valuetree.MustFromAny(map[string]interface{}{"a": 1.0})
	assert.Equal(t, 1.0, Of(v, v))
}

func TestDifferentPrimitiveKindsZero(t *testing.T) {
	assert.Equal(t, 0.0, Of(valuetree.NewString("1"), valuetree.NewNumber(1)))
}

func TestNumberCloseness(t *testing.T) {
	assert.InDelta(t, 0.9, Of(valuetree.NewNumber(10), valuetree.NewNumber(9)), 0.001)
	assert.Equal(t, 1.0, Of(valuetree.NewNumber(5), valuetree.NewNumber(5)))
}

func TestStringJaccard(t *testing.T) {
	a := valuetree.NewString("delete the file now")
	b := valuetree.NewString("delete the FILE immediately")
	sim := Of(a, b)
	assert.Greater(t, sim, 0.0)
	assert.Less(t, sim, 1.0)
}

func TestObjectMissingKeyContributesZero(t *testing.T) {
	a := valuetree.MustFromAny(map[string]interface{}{"x": 1.0, "y": 2.0})
	b := valuetree.MustFromAny(map[string]interface{}{"x": 1.0})
	sim := Of(a, b)
	assert.InDelta(t, 0.5, sim, 0.001)
}

func TestArrayLengthPenalty(t *testing.T) {
	a := valuetree.MustFromAny([]interface{}{1.0, 2.0, 3.0})
	b := valuetree.MustFromAny([]interface{}{1.0, 2.0})
	sim := Of(a, b)
	assert.Less(t, sim, 1.0)
}

func TestOscillationDetected(t *testing.T) {
	a := valuetree.NewString("connect to host A")
	b := valuetree.NewString("connect to host B totally different wording here")
	seq := []valuetree.Value{a, b, a, b}
	res := DetectOscillation(seq, 0.85)
	assert.True(t, res.Detected)
}

func TestOscillationNotDetectedWhenTooShort(t *testing.T) {
	seq := []valuetree.Value{valuetree.NewString("a"), valuetree.NewString("b")}
	res := DetectOscillation(seq, 0.85)
	assert.False(t, res.Detected)
}

// TestGradualChangeDetected uses a 20%-per-step geometric drift: each
// consecutive pair stays close (similarity ~0.83, well above the 0.7 step
// threshold) while the compounding drift pulls the first and last values
// apart (similarity ~0.48, below the 0.6 cumulative threshold).
func TestGradualChangeDetected(t *testing.T) {
	seq := []valuetree.Value{
		valuetree.NewNumber(10),
		valuetree.NewNumber(12),
		valuetree.NewNumber(14.4),
		valuetree.NewNumber(17.28),
		valuetree.NewNumber(20.736),
	}
	res := DetectGradualChange(seq, 0.7, 0.6)
	assert.True(t, res.Detected)
	assert.InDelta(t, 0.518, res.CumulativeDelta, 0.005)
}

func TestGradualChangeNotDetectedWhenStepsAreLarge(t *testing.T) {
	seq := []valuetree.Value{
		valuetree.NewNumber(10),
		valuetree.NewNumber(100),
		valuetree.NewNumber(10),
	}
	res := DetectGradualChange(seq, 0.7, 0.6)
	assert.False(t, res.Detected)
}
