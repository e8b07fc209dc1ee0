package prevention

// RiskLevel buckets a pre-execution risk score (spec §4.7 risk scoring).
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
	RiskCritical
)

func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	case RiskCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// RiskFactors are the four weighted inputs to the risk score (spec §4.7):
// each is normalized to [0,1] by the caller before scoring.
type RiskFactors struct {
	DestructivePotential float64
	OperationScope       float64
	RollbackAvailability float64 // 1 = no rollback available (higher risk)
	HistoricalErrors     float64
}

const (
	weightDestructivePotential = 0.4
	weightOperationScope       = 0.3
	weightRollbackAvailability = 0.2
	weightHistoricalErrors     = 0.1
)

// Score combines RiskFactors into a single 0-100 value.
func Score(f RiskFactors) float64 {
	raw := f.DestructivePotential*weightDestructivePotential +
		f.OperationScope*weightOperationScope +
		f.RollbackAvailability*weightRollbackAvailability +
		f.HistoricalErrors*weightHistoricalErrors
	return clamp(raw*100, 0, 100)
}

// LevelFor buckets a 0-100 score via the spec's 30/60/80 thresholds.
func LevelFor(score float64) RiskLevel {
	switch {
	case score >= 80:
		return RiskCritical
	case score >= 60:
		return RiskHigh
	case score >= 30:
		return RiskMedium
	default:
		return RiskLow
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// destructiveShellHint scores higher for commands touching the
// filesystem/network beyond the task's apparent scope. A blocked exact
// match is maximal; a caution hit is partial.
func destructiveShellHint(blocked string, cautions []string) float64 {
	if blocked != "" {
		return 1.0
	}
	if len(cautions) > 0 {
		return 0.5
	}
	return 0.0
}

// destructivePotentialFor returns a coarse per-tool baseline used when the
// caller has no finer-grained signal (e.g. non-shell, non-path tools).
func destructivePotentialFor(tool string) float64 {
	switch tool {
	case "delete_file":
		return 0.8
	case "write_file", "edit_file", "apply_diff":
		return 0.4
	case "shell", "execute_command":
		return 0.3
	default:
		return 0.1
	}
}
