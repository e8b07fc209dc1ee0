package prevention

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/agentsafe/asc/valuetree"
)

// MatcherKind is how an ArgPattern field is compared against a live
// argument value (spec §3: "arg_patterns: [{field, kind ∈ {Exact,
// Contains, Regex, TypeName}, value}]").
type MatcherKind int

const (
	Exact MatcherKind = iota
	Contains
	Regex
	TypeName
)

// ArgPattern is one learned field-level predicate extracted from a past
// failing execution.
type ArgPattern struct {
	Field string
	Kind  MatcherKind
	Value string
}

// matches reports whether args satisfies p.
func (p ArgPattern) matches(args valuetree.Value) bool {
	obj, ok := args.AsObject()
	if !ok {
		return false
	}
	field, ok := obj[p.Field]
	if !ok {
		return false
	}
	switch p.Kind {
	case Exact:
		s, _ := field.AsString()
		return s == p.Value
	case Contains:
		s, _ := field.AsString()
		return strings.Contains(s, p.Value)
	case Regex:
		s, _ := field.AsString()
		re, err := regexp.Compile(p.Value)
		if err != nil {
			return false
		}
		return re.MatchString(s)
	case TypeName:
		return field.Kind().String() == p.Value
	default:
		return false
	}
}

// LearnedErrorPattern is a process-wide record that a given tool, with
// arguments matching ArgPatterns, tends to fail with ErrorType (spec
// §4.7 "Learning operation").
type LearnedErrorPattern struct {
	ID                string
	ToolName          string
	ArgPatterns       []ArgPattern
	ErrorType         string
	ErrorMessageTemplate string
	Frequency         int
	LastOccurrenceMs  int64
	PreventionStrategy string
	Confidence        float64
}

// matchesAll reports whether every ArgPattern of p matches args.
func (p *LearnedErrorPattern) matchesAll(toolName string, args valuetree.Value) bool {
	if p.ToolName != toolName {
		return false
	}
	for _, ap := range p.ArgPatterns {
		if !ap.matches(args) {
			return false
		}
	}
	return len(p.ArgPatterns) > 0
}

// confidenceUpdate implements spec §4.7's reinforcement rule:
// c <- c + 0.1*(1-c), asymptotically approaching 1 with repeated
// confirmation instead of saturating immediately.
func confidenceUpdate(c float64) float64 {
	return c + 0.1*(1-c)
}

const (
	initialConfidence = 0.5
	// WarnThreshold is the confidence at which a matching pattern produces
	// a warning (spec §4.7).
	WarnThreshold = 0.8
	// BlockThreshold is the confidence at which a matching pattern is
	// treated as a near-certain repeat failure.
	BlockThreshold = 0.95
)

// Registry is the process-wide LearnedErrorPattern store (spec §3:
// registries of this kind are process-wide and require a mutex since
// multiple SafetyStates may share the same learned history).
type Registry struct {
	mu       sync.Mutex
	byID     map[string]*LearnedErrorPattern
	idSeq    int
	snapshot []*LearnedErrorPattern
}

// NewRegistry builds an empty learned-pattern registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*LearnedErrorPattern)}
}

// Snapshot returns the patterns sorted by ID, safe for concurrent read
// while Learn is in progress elsewhere.
func (r *Registry) Snapshot() []*LearnedErrorPattern {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot
}

func (r *Registry) rebuildSnapshotLocked() {
	out := make([]*LearnedErrorPattern, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	r.snapshot = out
}

// MatchAgainst finds every registered pattern whose ArgPatterns all match
// (toolName, args), highest confidence first.
func (r *Registry) MatchAgainst(toolName string, args valuetree.Value) []*LearnedErrorPattern {
	snapshot := r.Snapshot()
	var hits []*LearnedErrorPattern
	for _, p := range snapshot {
		if p.matchesAll(toolName, args) {
			hits = append(hits, p)
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Confidence > hits[j].Confidence })
	return hits
}

// extractArgPatterns walks a failed execution's Object args tree and
// produces one ArgPattern per field: strings of up to 40 bytes become
// Contains matchers (substring-tolerant of minor variation); longer
// strings, numbers, booleans, arrays and objects become TypeName
// matchers. No Exact matcher is produced here. Grounded on the argument-walking
// idea in orchestration/error_analyzer.go, without that file's LLM call.
func extractArgPatterns(args valuetree.Value) []ArgPattern {
	obj, ok := args.AsObject()
	if !ok {
		return nil
	}
	fields := make([]string, 0, len(obj))
	for f := range obj {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var patterns []ArgPattern
	for _, field := range fields {
		v := obj[field]
		switch v.Kind() {
		case valuetree.String:
			s, _ := v.AsString()
			if len(s) > 40 {
				patterns = append(patterns, ArgPattern{Field: field, Kind: TypeName, Value: "string"})
			} else {
				patterns = append(patterns, ArgPattern{Field: field, Kind: Contains, Value: s})
			}
		case valuetree.Number, valuetree.Bool:
			patterns = append(patterns, ArgPattern{Field: field, Kind: TypeName, Value: v.Kind().String()})
		default:
			patterns = append(patterns, ArgPattern{Field: field, Kind: TypeName, Value: v.Kind().String()})
		}
	}
	return patterns
}

// defaultPreventionStrategy maps a known error type to advice surfaced
// alongside a matching pattern; unknown error types get a generic
// suggestion.
func defaultPreventionStrategy(errorType string) string {
	switch errorType {
	case "file_not_found":
		return "verify the path exists before using it"
	case "permission_denied":
		return "check permissions or request elevated access before retrying"
	case "timeout":
		return "reduce scope or increase timeout before retrying"
	case "syntax_error":
		return "validate syntax before submitting"
	default:
		return "review arguments against the prior failure before retrying"
	}
}

// Learn records a failing execution against the registry: if an existing
// pattern already describes this (tool, errorType, argPatterns) triple it
// is replaced by a copy with Frequency/Confidence/LastOccurrence updated
// (patterns already returned by Snapshot are never mutated), else a new
// pattern is registered at initialConfidence.
func (r *Registry) Learn(now int64, toolName, errorType, errorMessage string, args valuetree.Value) *LearnedErrorPattern {
	extracted := extractArgPatterns(args)
	if len(extracted) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, p := range r.byID {
		if p.ToolName == toolName && p.ErrorType == errorType && sameArgPatterns(p.ArgPatterns, extracted) {
			updated := *p
			updated.Frequency++
			updated.LastOccurrenceMs = now
			updated.Confidence = confidenceUpdate(p.Confidence)
			r.byID[id] = &updated
			r.rebuildSnapshotLocked()
			return &updated
		}
	}

	r.idSeq++
	p := &LearnedErrorPattern{
		ID:                 idFor(r.idSeq),
		ToolName:           toolName,
		ArgPatterns:        extracted,
		ErrorType:          errorType,
		ErrorMessageTemplate: errorMessage,
		Frequency:          1,
		LastOccurrenceMs:   now,
		PreventionStrategy: defaultPreventionStrategy(errorType),
		Confidence:         initialConfidence,
	}
	r.byID[p.ID] = p
	r.rebuildSnapshotLocked()
	return p
}

func idFor(seq int) string {
	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	if seq == 0 {
		return "pattern_0"
	}
	b := make([]byte, 0, 8)
	n := seq
	for n > 0 {
		b = append([]byte{digits[n%36]}, b...)
		n /= 36
	}
	return "pattern_" + string(b)
}

func sameArgPatterns(a, b []ArgPattern) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
