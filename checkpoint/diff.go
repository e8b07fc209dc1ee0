package checkpoint

import (
	"fmt"
	"sort"

	"github.com/agentsafe/asc/valuetree"
)

// StateChange is one field-level difference between a checkpoint's state
// and the current state (spec §4.8 diff).
type StateChange struct {
	Path string
	Old  valuetree.Value
	New  valuetree.Value
}

// FileChangeKind classifies a file difference by set membership.
type FileChangeKind int

const (
	FileCreated FileChangeKind = iota
	FileModified
	FileDeleted
)

func (k FileChangeKind) String() string {
	switch k {
	case FileCreated:
		return "created"
	case FileModified:
		return "modified"
	case FileDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// FileChange is one file-level difference.
type FileChange struct {
	Path string
	Kind FileChangeKind
}

// DiffResult is spec §4.8's diff() output.
type DiffResult struct {
	StateChanges []StateChange
	FileChanges  []FileChange
	Summary      string
}

// Diff recursively compares the checkpoint's sealed state against current,
// emitting one StateChange leaf per differing field, plus a file-level
// diff derived from set difference on ModifiedFiles (spec §4.8).
func Diff(cp Checkpoint, current CheckpointableState) DiffResult {
	var res DiffResult
	diffValue("", cp.State.toValue(), current.toValue(), &res.StateChanges)
	res.FileChanges = diffFiles(cp.State.ModifiedFiles, current.ModifiedFiles)
	res.Summary = summarize(res.StateChanges, res.FileChanges)
	return res
}

func diffValue(path string, old, new valuetree.Value, out *[]StateChange) {
	if valuetree.Equal(old, new) {
		return
	}
	if old.Kind() != valuetree.Object || new.Kind() != valuetree.Object {
		*out = append(*out, StateChange{Path: path, Old: old, New: new})
		return
	}

	oldObj, _ := old.AsObject()
	newObj, _ := new.AsObject()
	keys := make(map[string]struct{}, len(oldObj)+len(newObj))
	for k := range oldObj {
		keys[k] = struct{}{}
	}
	for k := range newObj {
		keys[k] = struct{}{}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	for _, k := range sorted {
		childPath := k
		if path != "" {
			childPath = path + "." + k
		}
		ov, hasOld := oldObj[k]
		nv, hasNew := newObj[k]
		if !hasOld {
			ov = valuetree.NewNull()
		}
		if !hasNew {
			nv = valuetree.NewNull()
		}
		diffValue(childPath, ov, nv, out)
	}
}

func diffFiles(before, after []string) []FileChange {
	beforeSet := make(map[string]struct{}, len(before))
	for _, f := range before {
		beforeSet[f] = struct{}{}
	}
	afterSet := make(map[string]struct{}, len(after))
	for _, f := range after {
		afterSet[f] = struct{}{}
	}

	var changes []FileChange
	paths := make(map[string]struct{}, len(before)+len(after))
	for f := range beforeSet {
		paths[f] = struct{}{}
	}
	for f := range afterSet {
		paths[f] = struct{}{}
	}
	sorted := make([]string, 0, len(paths))
	for p := range paths {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	for _, p := range sorted {
		_, inBefore := beforeSet[p]
		_, inAfter := afterSet[p]
		switch {
		case !inBefore && inAfter:
			changes = append(changes, FileChange{Path: p, Kind: FileCreated})
		case inBefore && !inAfter:
			changes = append(changes, FileChange{Path: p, Kind: FileDeleted})
		case inBefore && inAfter:
			changes = append(changes, FileChange{Path: p, Kind: FileModified})
		}
	}
	return changes
}

func summarize(states []StateChange, files []FileChange) string {
	if len(states) == 0 && len(files) == 0 {
		return "no changes since checkpoint"
	}
	return fmt.Sprintf("%d state change(s), %d file change(s)", len(states), len(files))
}
