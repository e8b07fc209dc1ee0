// Package checkpoint implements the Checkpoint Manager (spec.md §4.8):
// hash-sealed, restorable snapshots of an agent's control state. Every
// function here is pure — no I/O, no clock reads beyond the `now` passed
// in by the caller — per spec §5's "checkpoint persistence... [is a] host
// responsibility" rule. Host-side persistence lives in checkpoint/store.
package checkpoint

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/agentsafe/asc/valuetree"
)

// Reason is the closed set of valid Metadata.Reason values (spec §4.8
// validate: "validates metadata reason ∈ {...}").
type Reason string

const (
	ReasonManual           Reason = "manual"
	ReasonAuto             Reason = "auto"
	ReasonBeforeRiskyAction Reason = "before_risky_action"
	ReasonMilestone        Reason = "milestone"
	ReasonErrorRecovery    Reason = "error_recovery"
)

func validReason(r Reason) bool {
	switch r {
	case ReasonManual, ReasonAuto, ReasonBeforeRiskyAction, ReasonMilestone, ReasonErrorRecovery:
		return true
	default:
		return false
	}
}

// Metadata is the human-facing annotation attached to a Checkpoint.
type Metadata struct {
	Reason      Reason
	Description string
	Tags        []string
	Priority    int
}

// FileEntry is one file's recorded content at checkpoint time.
type FileEntry struct {
	Path    string
	Hash    string
	Content string // empty when the checkpoint only tracks presence, not content
}

// CheckpointableState is the snapshot payload (spec §4.8).
type CheckpointableState struct {
	SafetyState  valuetree.Value
	CurrentTask  string
	HasCurrentTask bool
	CurrentStep  string
	HasCurrentStep bool
	PlanProgress float64
	HasPlanProgress bool
	ModifiedFiles []string
	Custom       map[string]valuetree.Value
}

// toValue builds the canonical Value tree hashed/serialized for state, so
// hashing and JSON encoding always agree on field order (spec §4.8:
// "hash is computed over canonical serialization").
func (s CheckpointableState) toValue() valuetree.Value {
	fields := map[string]valuetree.Value{
		"safety_state":   s.SafetyState,
		"modified_files": stringArray(s.ModifiedFiles),
		"custom":         valuetree.NewObject(s.Custom),
	}
	if s.HasCurrentTask {
		fields["current_task"] = valuetree.NewString(s.CurrentTask)
	}
	if s.HasCurrentStep {
		fields["current_step"] = valuetree.NewString(s.CurrentStep)
	}
	if s.HasPlanProgress {
		fields["plan_progress"] = valuetree.NewNumber(s.PlanProgress)
	}
	return valuetree.NewObject(fields)
}

func stringArray(ss []string) valuetree.Value {
	items := make([]valuetree.Value, len(ss))
	for i, s := range ss {
		items[i] = valuetree.NewString(s)
	}
	return valuetree.NewArray(items...)
}

// clone deep-copies state (spec §4.8: "the state is deeply cloned").
// valuetree.Value is itself immutable/defensively-copied by its
// constructors, so Values are shared as-is; the ModifiedFiles slice and
// the Custom map are copied explicitly.
func (s CheckpointableState) clone() CheckpointableState {
	cp := s
	cp.ModifiedFiles = append([]string(nil), s.ModifiedFiles...)
	cp.Custom = make(map[string]valuetree.Value, len(s.Custom))
	for k, v := range s.Custom {
		cp.Custom[k] = v
	}
	return cp
}

// Checkpoint is a hash-sealed, restorable snapshot (spec §4.8).
type Checkpoint struct {
	ID           string
	CreatedAtMs  int64
	State        CheckpointableState
	Metadata     Metadata
	Hash         string
	ParentID     string
	HasParent    bool
	FileSnapshot []FileEntry
}

// computeHash is the invariant spec §3 requires: hash == sha256(canonical(state)).
func computeHash(state CheckpointableState) string {
	return valuetree.HashStateHex(state.toValue())
}

// newID builds "chk_" + base36(ts) + hex(rand8) per spec §3.
func newID(now int64) string {
	rand8 := uuid.New().String()
	rand8 = rand8[len(rand8)-8:]
	return fmt.Sprintf("chk_%s%s", strconv.FormatInt(now, 36), rand8)
}

// Create builds a new hash-sealed Checkpoint from a deep clone of state
// (spec §4.8 create(state, metadata, parent?)).
func Create(now int64, state CheckpointableState, metadata Metadata, parent *Checkpoint, fileSnapshot []FileEntry) Checkpoint {
	cloned := state.clone()
	cp := Checkpoint{
		ID:           newID(now),
		CreatedAtMs:  now,
		State:        cloned,
		Metadata:     metadata,
		Hash:         computeHash(cloned),
		FileSnapshot: append([]FileEntry(nil), fileSnapshot...),
	}
	if parent != nil {
		cp.ParentID = parent.ID
		cp.HasParent = true
	}
	return cp
}

const maxCheckpointAgeMs = 24 * 60 * 60 * 1000

// ValidateResult is spec §4.8's validate() output.
type ValidateResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// Validate recomputes the hash and checks metadata/file-snapshot
// integrity (spec §4.8 validate).
func Validate(now int64, cp Checkpoint) ValidateResult {
	var res ValidateResult
	res.Valid = true

	if cp.ID == "" {
		res.Errors = append(res.Errors, "checkpoint id is empty")
		res.Valid = false
	}
	if computeHash(cp.State) != cp.Hash {
		res.Errors = append(res.Errors, "hash mismatch: checkpoint state does not match its recorded hash")
		res.Valid = false
	}
	if !validReason(cp.Metadata.Reason) {
		res.Errors = append(res.Errors, fmt.Sprintf("invalid metadata reason %q", cp.Metadata.Reason))
		res.Valid = false
	}
	if age := now - cp.CreatedAtMs; age > maxCheckpointAgeMs {
		res.Warnings = append(res.Warnings, "checkpoint is older than 24 hours")
	}
	for _, f := range cp.FileSnapshot {
		if f.Path == "" {
			res.Errors = append(res.Errors, "file snapshot entry has an empty path")
			res.Valid = false
			continue
		}
		if f.Content != "" && valuetree.Hash(valuetree.NewString(f.Content)) != f.Hash && f.Hash != "" {
			res.Warnings = append(res.Warnings, fmt.Sprintf("file snapshot hash for %q does not match its stored content", f.Path))
		}
	}
	return res
}
