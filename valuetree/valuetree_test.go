package valuetree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalKeyOrderIndependent(t *testing.T) {
	a, err := FromAny(map[string]interface{}{"b": 1.0, "a": 2.0})
	require.NoError(t, err)
	b, err := FromAny(map[string]interface{}{"a": 2.0, "b": 1.0})
	require.NoError(t, err)

	assert.Equal(t, Canonical(a), Canonical(b))
	assert.True(t, Equal(a, b))
}

func TestCanonicalNestedKeyOrder(t *testing.T) {
	a := MustFromAny(map[string]interface{}{
		"outer": map[string]interface{}{"z": 1.0, "a": 2.0},
		"list":  []interface{}{1.0, 2.0, 3.0},
	})
	b := MustFromAny(map[string]interface{}{
		"list":  []interface{}{1.0, 2.0, 3.0},
		"outer": map[string]interface{}{"a": 2.0, "z": 1.0},
	})
	assert.Equal(t, Canonical(a), Canonical(b))
}

func TestHashEqualIffCanonicalEqual(t *testing.T) {
	a := MustFromAny(map[string]interface{}{"command": "ls -la"})
	b := MustFromAny(map[string]interface{}{"command": "ls -la"})
	c := MustFromAny(map[string]interface{}{"command": "ls -lah"})

	assert.Equal(t, Hash(a), Hash(b))
	assert.NotEqual(t, Hash(a), Hash(c))
	assert.Len(t, Hash(a), 16)
}

func TestNumberFormattingStable(t *testing.T) {
	a := NewNumber(1.0)
	b := NewNumber(1.0)
	assert.Equal(t, Canonical(a), Canonical(b))
}

func TestArrayOrderMatters(t *testing.T) {
	a := MustFromAny([]interface{}{1.0, 2.0})
	b := MustFromAny([]interface{}{2.0, 1.0})
	assert.False(t, Equal(a, b))
	assert.NotEqual(t, Canonical(a), Canonical(b))
}

func TestDifferentPrimitiveTypesNotEqual(t *testing.T) {
	assert.False(t, Equal(NewString("1"), NewNumber(1)))
	assert.False(t, Equal(NewBool(true), NewNumber(1)))
}

func TestToAnyRoundTrip(t *testing.T) {
	orig := map[string]interface{}{
		"name":    "ls -la",
		"count":   3.0,
		"enabled": true,
		"tags":    []interface{}{"a", "b"},
	}
	v := MustFromAny(orig)
	back := ToAny(v)
	v2 := MustFromAny(back)
	assert.True(t, Equal(v, v2))
}

func TestStringEscaping(t *testing.T) {
	v := NewString(`hello "world"` + "\n")
	canon := Canonical(v)
	assert.Contains(t, canon, `\"world\"`)
	assert.Contains(t, canon, `\n`)
}
