package checkpoint

import "sort"

// RetentionPolicy governs Prune (spec §6 "Retention policy").
type RetentionPolicy struct {
	MaxCount         int
	MaxAgeMs         int64
	KeepMilestones   bool
	KeepHighPriority bool
}

// DefaultRetentionPolicy matches spec §6's defaults.
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		MaxCount:         50,
		MaxAgeMs:         24 * 60 * 60 * 1000,
		KeepMilestones:   true,
		KeepHighPriority: true,
	}
}

// highPriorityThreshold is the Metadata.Priority value at/above which a
// checkpoint is treated as "high priority" for retention purposes.
const highPriorityThreshold = 8

func protected(cp Checkpoint, policy RetentionPolicy) bool {
	if policy.KeepMilestones && cp.Metadata.Reason == ReasonMilestone {
		return true
	}
	if policy.KeepHighPriority && cp.Metadata.Priority >= highPriorityThreshold {
		return true
	}
	return false
}

// Prune implements spec §4.8's prune(): keep all protected checkpoints,
// then fill the remaining quota with the most-recent checkpoints inside
// the age window.
func Prune(now int64, checkpoints []Checkpoint, policy RetentionPolicy) []Checkpoint {
	sorted := append([]Checkpoint(nil), checkpoints...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CreatedAtMs > sorted[j].CreatedAtMs })

	var kept []Checkpoint
	var rest []Checkpoint
	for _, cp := range sorted {
		if protected(cp, policy) {
			kept = append(kept, cp)
		} else {
			rest = append(rest, cp)
		}
	}

	remaining := policy.MaxCount - len(kept)
	for _, cp := range rest {
		if remaining <= 0 {
			break
		}
		if policy.MaxAgeMs > 0 && now-cp.CreatedAtMs > policy.MaxAgeMs {
			continue
		}
		kept = append(kept, cp)
		remaining--
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].CreatedAtMs > kept[j].CreatedAtMs })
	return kept
}
