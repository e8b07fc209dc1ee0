package similarity

import "github.com/agentsafe/asc/valuetree"

// OscillationResult describes an A/B/A/B alternation detected in a
// sequence of same-tool argument trees (spec §4.3).
type OscillationResult struct {
	Detected   bool
	Occurrences int
}

// DetectOscillation looks for A/B/A/B alternation across the last >=4
// entries of the same tool: similarity(A_i, A_j) >= threshold for the
// "A" positions, similarity(A_i, B_i) < threshold across the alternation.
// args must be given oldest-first.
func DetectOscillation(args []valuetree.Value, threshold float64) OscillationResult {
	n := len(args)
	if n < 4 {
		return OscillationResult{}
	}
	last4 := args[n-4:]
	a1, b1, a2, b2 := last4[0], last4[1], last4[2], last4[3]

	aSim := Of(a1, a2)
	bSim := Of(b1, b2)
	crossSim := Of(a1, b1)

	if aSim >= threshold && bSim >= threshold && crossSim < threshold {
		return OscillationResult{Detected: true, Occurrences: 2}
	}
	return OscillationResult{}
}

// GradualChangeResult describes a monotone drift pattern: small per-step
// similarity deltas that accumulate into a large cumulative delta — a
// warning-only pattern per spec §4.3.
type GradualChangeResult struct {
	Detected      bool
	CumulativeDelta float64
}

// DetectGradualChange inspects a same-tool argument series (oldest-first,
// length >= 3) for a monotone drift: consecutive-pair similarity stays
// above maxStepThreshold (small per-step change) while the head-to-tail
// similarity falls below minCumulativeThreshold (large cumulative drift).
func DetectGradualChange(args []valuetree.Value, maxStepThreshold, minCumulativeThreshold float64) GradualChangeResult {
	n := len(args)
	if n < 3 {
		return GradualChangeResult{}
	}

	smallSteps := true
	for i := 1; i < n; i++ {
		if Of(args[i-1], args[i]) < maxStepThreshold {
			smallSteps = false
			break
		}
	}
	if !smallSteps {
		return GradualChangeResult{}
	}

	headTail := Of(args[0], args[n-1])
	cumulativeDelta := 1 - headTail
	if headTail < minCumulativeThreshold {
		return GradualChangeResult{Detected: true, CumulativeDelta: cumulativeDelta}
	}
	return GradualChangeResult{}
}
