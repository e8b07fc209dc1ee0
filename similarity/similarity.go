// Package similarity implements structural similarity over canonicalized
// value trees (spec.md §4.3), plus the Oscillation and GradualChange
// sequence patterns built on top of it.
package similarity

import (
	"math"
	"strings"

	"github.com/agentsafe/asc/valuetree"
)

// Of computes similarity(a, b) ∈ [0,1] per spec §4.3:
//   - identical values → 1
//   - different primitive (non-container) kinds → 0
//   - numbers → 1 - min(1, |a-b|/max(|a|,|b|,1))
//   - strings → token-Jaccard after lowercasing and whitespace-splitting
//   - arrays → mean of pairwise aligned similarities, penalized by length difference
//   - objects → mean over the union of keys (a missing key contributes 0)
func Of(a, b valuetree.Value) float64 {
	if valuetree.Equal(a, b) {
		return 1
	}
	if a.Kind() != b.Kind() {
		return 0
	}

	switch a.Kind() {
	case valuetree.Null:
		return 1
	case valuetree.Bool:
		av, _ := a.AsBool()
		bv, _ := b.AsBool()
		if av == bv {
			return 1
		}
		return 0
	case valuetree.Number:
		return numberSimilarity(a, b)
	case valuetree.String:
		return stringSimilarity(a, b)
	case valuetree.Array:
		return arraySimilarity(a, b)
	case valuetree.Object:
		return objectSimilarity(a, b)
	default:
		return 0
	}
}

func numberSimilarity(a, b valuetree.Value) float64 {
	av, _ := a.AsNumber()
	bv, _ := b.AsNumber()
	denom := math.Max(math.Max(math.Abs(av), math.Abs(bv)), 1)
	return 1 - math.Min(1, math.Abs(av-bv)/denom)
}

func stringSimilarity(a, b valuetree.Value) float64 {
	av, _ := a.AsString()
	bv, _ := b.AsString()
	return tokenJaccard(av, bv)
}

func tokenJaccard(a, b string) float64 {
	at := tokenize(a)
	bt := tokenize(b)
	if len(at) == 0 && len(bt) == 0 {
		return 1
	}
	union := make(map[string]struct{}, len(at)+len(bt))
	inA := make(map[string]struct{}, len(at))
	for _, tok := range at {
		inA[tok] = struct{}{}
		union[tok] = struct{}{}
	}
	inB := make(map[string]struct{}, len(bt))
	for _, tok := range bt {
		inB[tok] = struct{}{}
		union[tok] = struct{}{}
	}
	inter := 0
	for tok := range inB {
		if _, ok := inA[tok]; ok {
			inter++
		}
	}
	if len(union) == 0 {
		return 1
	}
	return float64(inter) / float64(len(union))
}

func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

func arraySimilarity(a, b valuetree.Value) float64 {
	av, _ := a.AsArray()
	bv, _ := b.AsArray()
	if len(av) == 0 && len(bv) == 0 {
		return 1
	}
	n := len(av)
	if len(bv) < n {
		n = len(bv)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += Of(av[i], bv[i])
	}
	mean := 0.0
	if n > 0 {
		mean = sum / float64(n)
	}
	maxLen := len(av)
	if len(bv) > maxLen {
		maxLen = len(bv)
	}
	if maxLen == 0 {
		return 1
	}
	lengthPenalty := float64(maxLen-n) / float64(maxLen)
	return mean * (1 - lengthPenalty)
}

func objectSimilarity(a, b valuetree.Value) float64 {
	ao, _ := a.AsObject()
	bo, _ := b.AsObject()
	keys := make(map[string]struct{}, len(ao)+len(bo))
	for k := range ao {
		keys[k] = struct{}{}
	}
	for k := range bo {
		keys[k] = struct{}{}
	}
	if len(keys) == 0 {
		return 1
	}
	var sum float64
	for k := range keys {
		av, aok := ao[k]
		bv, bok := bo[k]
		if aok && bok {
			sum += Of(av, bv)
		}
		// missing key on either side contributes 0, per spec.
	}
	return sum / float64(len(keys))
}
