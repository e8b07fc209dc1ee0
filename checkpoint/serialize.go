package checkpoint

import (
	"encoding/json"

	"github.com/agentsafe/asc/core"
	"github.com/agentsafe/asc/valuetree"
)

// wireState is the JSON-facing shape of CheckpointableState. Using
// encoding/json's normal field-presence/omitempty handling (rather than
// hand-rolling a decoder) gives us "unknown fields are ignored" for free
// on Unmarshal (spec §4.8/§6: forward-compatible serialization).
type wireState struct {
	SafetyState   interface{}            `json:"safety_state"`
	CurrentTask   *string                `json:"current_task,omitempty"`
	CurrentStep   *string                `json:"current_step,omitempty"`
	PlanProgress  *float64               `json:"plan_progress,omitempty"`
	ModifiedFiles []string               `json:"modified_files"`
	Custom        map[string]interface{} `json:"custom"`
}

type wireMetadata struct {
	Reason      string   `json:"reason"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Priority    int      `json:"priority,omitempty"`
}

type wireFileEntry struct {
	Path    string `json:"path"`
	Hash    string `json:"hash"`
	Content string `json:"content,omitempty"`
}

type wireCheckpoint struct {
	ID           string          `json:"id"`
	Timestamp    int64           `json:"timestamp"`
	State        wireState       `json:"state"`
	Metadata     wireMetadata    `json:"metadata"`
	Hash         string          `json:"hash"`
	ParentID     string          `json:"parent_id,omitempty"`
	FileSnapshot []wireFileEntry `json:"file_snapshot,omitempty"`
}

func toWire(cp Checkpoint) wireCheckpoint {
	w := wireCheckpoint{
		ID:        cp.ID,
		Timestamp: cp.CreatedAtMs,
		State: wireState{
			SafetyState:   valuetree.ToAny(cp.State.SafetyState),
			ModifiedFiles: cp.State.ModifiedFiles,
			Custom:        make(map[string]interface{}, len(cp.State.Custom)),
		},
		Metadata: wireMetadata{
			Reason:      string(cp.Metadata.Reason),
			Description: cp.Metadata.Description,
			Tags:        cp.Metadata.Tags,
			Priority:    cp.Metadata.Priority,
		},
		Hash: cp.Hash,
	}
	for k, v := range cp.State.Custom {
		w.State.Custom[k] = valuetree.ToAny(v)
	}
	if cp.State.HasCurrentTask {
		w.State.CurrentTask = &cp.State.CurrentTask
	}
	if cp.State.HasCurrentStep {
		w.State.CurrentStep = &cp.State.CurrentStep
	}
	if cp.State.HasPlanProgress {
		w.State.PlanProgress = &cp.State.PlanProgress
	}
	if cp.HasParent {
		w.ParentID = cp.ParentID
	}
	for _, f := range cp.FileSnapshot {
		w.FileSnapshot = append(w.FileSnapshot, wireFileEntry{Path: f.Path, Hash: f.Hash, Content: f.Content})
	}
	return w
}

func fromWire(w wireCheckpoint) (Checkpoint, error) {
	safetyState, err := valuetree.FromAny(w.State.SafetyState)
	if err != nil {
		return Checkpoint{}, err
	}
	custom := make(map[string]valuetree.Value, len(w.State.Custom))
	for k, v := range w.State.Custom {
		cv, err := valuetree.FromAny(v)
		if err != nil {
			return Checkpoint{}, err
		}
		custom[k] = cv
	}

	state := CheckpointableState{
		SafetyState:   safetyState,
		ModifiedFiles: w.State.ModifiedFiles,
		Custom:        custom,
	}
	if w.State.CurrentTask != nil {
		state.CurrentTask = *w.State.CurrentTask
		state.HasCurrentTask = true
	}
	if w.State.CurrentStep != nil {
		state.CurrentStep = *w.State.CurrentStep
		state.HasCurrentStep = true
	}
	if w.State.PlanProgress != nil {
		state.PlanProgress = *w.State.PlanProgress
		state.HasPlanProgress = true
	}

	cp := Checkpoint{
		ID:          w.ID,
		CreatedAtMs: w.Timestamp,
		State:       state,
		Metadata: Metadata{
			Reason:      Reason(w.Metadata.Reason),
			Description: w.Metadata.Description,
			Tags:        w.Metadata.Tags,
			Priority:    w.Metadata.Priority,
		},
		Hash: w.Hash,
	}
	if w.ParentID != "" {
		cp.ParentID = w.ParentID
		cp.HasParent = true
	}
	for _, f := range w.FileSnapshot {
		cp.FileSnapshot = append(cp.FileSnapshot, FileEntry{Path: f.Path, Hash: f.Hash, Content: f.Content})
	}
	return cp, nil
}

// Serialize renders cp as self-describing JSON (spec §4.8/§6).
func Serialize(cp Checkpoint) (string, error) {
	b, err := json.Marshal(toWire(cp))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Deserialize parses a serialized checkpoint. Per spec §4.8, a checkpoint
// is "round-trippable with deserialize(str) -> Checkpoint?" — malformed
// JSON returns (nil, err); hash mismatches are a Validate concern, not a
// parse error, so a structurally valid-but-corrupt checkpoint still
// deserializes successfully.
func Deserialize(data string) (*Checkpoint, error) {
	var w wireCheckpoint
	if err := json.Unmarshal([]byte(data), &w); err != nil {
		fe := core.NewFrameworkError("checkpoint.Deserialize", "checkpoint", core.ErrCheckpointCorrupt)
		fe.Message = err.Error()
		return nil, fe
	}
	cp, err := fromWire(w)
	if err != nil {
		fe := core.NewFrameworkError("checkpoint.Deserialize", "checkpoint", core.ErrCheckpointCorrupt)
		fe.Message = err.Error()
		return nil, fe
	}
	return &cp, nil
}
