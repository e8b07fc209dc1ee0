package decomposition

import "sort"

// ProgressReport is spec §4.9's track_progress output.
type ProgressReport struct {
	Updated            []SubTask
	RemainingDurationMin int
	NextReady          []SubTask
}

// TrackProgress implements spec §4.9's track_progress: marks completedIDs
// as Completed, derives Blocked for subtasks with an unmet dependency,
// computes remaining estimated duration, and returns up to 3 ready
// (Pending, all dependencies Completed) subtasks ordered by Order.
func TrackProgress(decomp TaskDecomposition, completedIDs []string) ProgressReport {
	completed := make(map[string]bool, len(completedIDs))
	for _, id := range completedIDs {
		completed[id] = true
	}

	updated := make([]SubTask, len(decomp.Subtasks))
	copy(updated, decomp.Subtasks)

	statusByID := make(map[string]Status, len(updated))
	for i := range updated {
		if completed[updated[i].ID] {
			updated[i].Status = Completed
		}
		statusByID[updated[i].ID] = updated[i].Status
	}

	for i := range updated {
		if updated[i].Status == Completed || updated[i].Status == Skipped {
			continue
		}
		blocked := false
		for _, dep := range updated[i].Dependencies {
			if statusByID[dep] != Completed {
				blocked = true
				break
			}
		}
		if blocked {
			updated[i].Status = Blocked
		} else if updated[i].Status == Blocked {
			updated[i].Status = Pending
		}
	}

	var remaining int
	var ready []SubTask
	for _, st := range updated {
		if st.Status == Completed || st.Status == Skipped {
			continue
		}
		remaining += st.Estimated.DurationMin
		if st.Status == Pending {
			ready = append(ready, st)
		}
	}

	sort.Slice(ready, func(i, j int) bool { return ready[i].Order < ready[j].Order })
	if len(ready) > 3 {
		ready = ready[:3]
	}

	return ProgressReport{
		Updated:              updated,
		RemainingDurationMin: remaining,
		NextReady:            ready,
	}
}
