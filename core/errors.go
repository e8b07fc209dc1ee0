package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for the ASC's error taxonomy (spec §7). These are kinds,
// not type names: internal routines never throw on expected conditions —
// they return tagged results — so these sentinels only ever surface at the
// few places §7 calls out as legitimately surfaced (config validation,
// checkpoint restore, host-supplied execution failures).
var (
	// ErrConfigInvalid marks unrepairable configuration, e.g. a pattern
	// length range that is inverted (min > max).
	ErrConfigInvalid = errors.New("asc: invalid configuration")

	// ErrCheckpointCorrupt marks a checkpoint whose stored hash does not
	// match the recomputed hash of its canonical state, or that failed
	// to deserialize.
	ErrCheckpointCorrupt = errors.New("asc: checkpoint corrupt")

	// ErrNoRecoveryAvailable marks a self-healing attempt that exhausted
	// its strategy's retry budget without success.
	ErrNoRecoveryAvailable = errors.New("asc: no recovery available")

	// ErrEscalationExpired marks an escalation tracker that transitioned
	// to Expired before receiving a human response.
	ErrEscalationExpired = errors.New("asc: escalation expired")

	// ErrExecutionFailure wraps a host-reported tool failure passed into
	// handle_error_with_recovery. The ASC never originates this kind.
	ErrExecutionFailure = errors.New("asc: execution failure")
)

// FrameworkError carries structured context around one of the sentinels
// above, following the teacher's {Op, Kind, ID, Message, Err} shape.
type FrameworkError struct {
	Op      string // operation that failed, e.g. "checkpoint.Validate"
	Kind    string // error kind, e.g. "config", "checkpoint", "escalation"
	ID      string // optional ID of the entity involved
	Message string
	Err     error
}

func (e *FrameworkError) Error() string {
	if e.Op != "" && e.Err != nil {
		if e.ID != "" {
			return fmt.Sprintf("%s [%s]: %v", e.Op, e.ID, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s error", e.Kind)
}

func (e *FrameworkError) Unwrap() error {
	return e.Err
}

// NewFrameworkError wraps err with operation and kind context.
func NewFrameworkError(op, kind string, err error) *FrameworkError {
	return &FrameworkError{Op: op, Kind: kind, Err: err}
}

// IsConfigInvalid reports whether err (or anything it wraps) is ErrConfigInvalid.
func IsConfigInvalid(err error) bool { return errors.Is(err, ErrConfigInvalid) }

// IsCheckpointCorrupt reports whether err (or anything it wraps) is ErrCheckpointCorrupt.
func IsCheckpointCorrupt(err error) bool { return errors.Is(err, ErrCheckpointCorrupt) }

// IsNoRecoveryAvailable reports whether err is ErrNoRecoveryAvailable.
func IsNoRecoveryAvailable(err error) bool { return errors.Is(err, ErrNoRecoveryAvailable) }

// IsEscalationExpired reports whether err is ErrEscalationExpired.
func IsEscalationExpired(err error) bool { return errors.Is(err, ErrEscalationExpired) }

// ExecutionFailure is the value a host passes into handle_error_with_recovery
// to describe a tool's real-world failure (spec §9: "Error-by-exception in
// host code maps to ExecutionFailure values").
type ExecutionFailure struct {
	Type    string
	Message string
	Tool    string
	Args    map[string]interface{}
	Trace   string
}

func (f *ExecutionFailure) Error() string {
	if f.Tool != "" {
		return fmt.Sprintf("%s: %s (tool=%s)", f.Type, f.Message, f.Tool)
	}
	return fmt.Sprintf("%s: %s", f.Type, f.Message)
}

// Unwrap lets errors.Is(failure, ErrExecutionFailure) succeed.
func (f *ExecutionFailure) Unwrap() error { return ErrExecutionFailure }
