// Package history implements the append-only, bounded execution log and
// canonical argument hashing described in spec.md §3 and §4.1. A HistoryLog
// is exclusively owned by a single SafetyState (spec §3 "Ownership"); it is
// not safe for concurrent use by multiple goroutines, matching the
// cooperative single-threaded concurrency model of spec §5.
package history

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/agentsafe/asc/valuetree"
)

// Result is the outcome of one tool execution.
type Result int

const (
	Success Result = iota
	Error
)

func (r Result) String() string {
	if r == Success {
		return "success"
	}
	return "error"
}

// ExecutionEntry is immutable once appended (spec §3).
type ExecutionEntry struct {
	ID           string
	TimestampMs  int64
	ToolName     string
	ToolArgs     valuetree.Value
	ArgsHash     string
	Result       Result
	DurationMs   int64
	ErrorMessage string
	ErrorType    string
}

// SameAction reports whether e and other share (tool_name, args_hash) —
// the spec's equality-for-repetition relation.
func (e ExecutionEntry) SameAction(other ExecutionEntry) bool {
	return e.ToolName == other.ToolName && e.ArgsHash == other.ArgsHash
}

const (
	// DefaultMaxEntries is the spec's default bound on log size.
	DefaultMaxEntries = 100
	// DefaultTimeWindowMs is the spec's default sliding time window.
	DefaultTimeWindowMs int64 = 60_000

	// keepFraction is the fraction of max_entries kept when a full log
	// must make room for a new entry (spec §4.1 step 4: "keep last 80%").
	keepFraction = 0.8
)

// HistoryLog is an ordered, bounded sequence of ExecutionEntry.
type HistoryLog struct {
	entries      []ExecutionEntry
	maxEntries   int
	timeWindowMs int64
	seq          uint64
}

// New builds an empty log with the given bounds. maxEntries <= 0 and
// timeWindowMs <= 0 fall back to the spec defaults.
func New(maxEntries int, timeWindowMs int64) *HistoryLog {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if timeWindowMs <= 0 {
		timeWindowMs = DefaultTimeWindowMs
	}
	return &HistoryLog{maxEntries: maxEntries, timeWindowMs: timeWindowMs}
}

// Size returns the current number of retained entries.
func (h *HistoryLog) Size() int { return len(h.entries) }

// MaxEntries returns the configured entry cap.
func (h *HistoryLog) MaxEntries() int { return h.maxEntries }

// TimeWindowMs returns the configured sliding time window.
func (h *HistoryLog) TimeWindowMs() int64 { return h.timeWindowMs }

// Entries returns a defensive copy of all retained entries, oldest first.
func (h *HistoryLog) Entries() []ExecutionEntry {
	cp := make([]ExecutionEntry, len(h.entries))
	copy(cp, h.entries)
	return cp
}

// Prune removes entries older than timeWindowMs relative to now. It is
// idempotent: Prune(Prune(log)) == Prune(log) for the same now.
func (h *HistoryLog) Prune(now int64) {
	cutoff := now - h.timeWindowMs
	i := 0
	for i < len(h.entries) && h.entries[i].TimestampMs < cutoff {
		i++
	}
	if i > 0 {
		h.entries = append([]ExecutionEntry(nil), h.entries[i:]...)
	}
}

// Append stamps, hashes, prunes, and appends a new entry, enforcing both
// bounds from spec §4.1:
//
//  1. stamp timestamp = now, assign a monotonically-ordered id
//  2. compute args_hash
//  3. prune by time window
//  4. if size >= max_entries, keep the last 80% before appending
//  5. return the appended entry
func (h *HistoryLog) Append(now int64, toolName string, args valuetree.Value, result Result, durationMs int64, errorType, errorMessage string) ExecutionEntry {
	h.seq++
	entry := ExecutionEntry{
		ID:           h.nextID(now),
		TimestampMs:  now,
		ToolName:     toolName,
		ToolArgs:     args,
		ArgsHash:     valuetree.Hash(args),
		Result:       result,
		DurationMs:   durationMs,
		ErrorType:    errorType,
		ErrorMessage: errorMessage,
	}

	h.Prune(now)

	if len(h.entries) >= h.maxEntries {
		keep := int(float64(h.maxEntries) * keepFraction)
		if keep < 0 {
			keep = 0
		}
		if keep > len(h.entries) {
			keep = len(h.entries)
		}
		start := len(h.entries) - keep
		h.entries = append([]ExecutionEntry(nil), h.entries[start:]...)
	}

	h.entries = append(h.entries, entry)
	return entry
}

// nextID assigns a ULID-like, lexicographically time-ordered identifier:
// base36 timestamp prefix (sortable), then the log's zero-padded append
// sequence number (orders entries stamped in the same millisecond), then a
// uuid suffix (uniqueness), following the instance-ID construction style
// of hitl_checkpoint_store.go.
func (h *HistoryLog) nextID(now int64) string {
	return fmt.Sprintf("exec_%s_%012d_%s", strconv.FormatInt(now, 36), h.seq, uuid.New().String()[:8])
}

// IterRecent returns up to the n most recently appended entries, oldest
// first within that slice.
func (h *HistoryLog) IterRecent(n int) []ExecutionEntry {
	if n <= 0 || len(h.entries) == 0 {
		return nil
	}
	if n > len(h.entries) {
		n = len(h.entries)
	}
	start := len(h.entries) - n
	out := make([]ExecutionEntry, n)
	copy(out, h.entries[start:])
	return out
}

// IterSince returns every retained entry with TimestampMs >= t, oldest
// first.
func (h *HistoryLog) IterSince(t int64) []ExecutionEntry {
	var out []ExecutionEntry
	for _, e := range h.entries {
		if e.TimestampMs >= t {
			out = append(out, e)
		}
	}
	return out
}

// CountMatching counts retained entries sharing (tool, args_hash) with the
// given pair — the "prior retained entry" test used for
// similar_action_count (spec §3) and exact-repeat loop detection (§4.2).
func (h *HistoryLog) CountMatching(toolName, argsHash string) int {
	count := 0
	for _, e := range h.entries {
		if e.ToolName == toolName && e.ArgsHash == argsHash {
			count++
		}
	}
	return count
}

// CountMatchingInWindow counts entries matching (tool, args_hash) among the
// most recent lookback entries (spec §4.2 "last lookback_window").
func (h *HistoryLog) CountMatchingInWindow(toolName, argsHash string, lookback int) int {
	window := h.IterRecent(lookback)
	count := 0
	for _, e := range window {
		if e.ToolName == toolName && e.ArgsHash == argsHash {
			count++
		}
	}
	return count
}

// ErrorRateLast computes the fraction of Error outcomes among the last n
// entries for the given tool (or across all tools if toolName is ""). Per
// spec §9 Open Question (b), every caller that needs a "recent error rate"
// uses this helper with n=10, rather than recomputing the window ad hoc.
func ErrorRateLast(entries []ExecutionEntry, n int, toolName string) float64 {
	filtered := entries
	if toolName != "" {
		filtered = make([]ExecutionEntry, 0, len(entries))
		for _, e := range entries {
			if e.ToolName == toolName {
				filtered = append(filtered, e)
			}
		}
	}
	if len(filtered) > n {
		filtered = filtered[len(filtered)-n:]
	}
	if len(filtered) == 0 {
		return 0
	}
	errs := 0
	for _, e := range filtered {
		if e.Result == Error {
			errs++
		}
	}
	return float64(errs) / float64(len(filtered))
}

// SuccessRateLast computes 1 - ErrorRateLast over the last n entries.
func SuccessRateLast(entries []ExecutionEntry, n int, toolName string) float64 {
	return 1 - ErrorRateLast(entries, n, toolName)
}

// RecentErrorWindow is the fixed window length for "recent error rate"
// calculations (spec §9 Open Question (b): fixed at last 10 entries).
const RecentErrorWindow = 10
