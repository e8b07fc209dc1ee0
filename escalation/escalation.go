package escalation

import "github.com/google/uuid"

// Summary is the human-readable half of an Escalation (spec §4.6).
type Summary struct {
	Title          string
	Description    string
	WhatAttempted  string
	WhatFailed     string
	PossibleCauses []string
	SuggestedFixes []string
}

// Escalation is the machine-and-human-readable package handed to a host
// when ShouldEscalate fires (spec §4.6).
type Escalation struct {
	ID               string
	Priority         Level
	Summary          Summary
	Context          map[string]interface{}
	SuggestedActions []string
	Triggers         []Trigger
	TimestampMs      int64
	ExpiresAtMs      int64
}

// expiryMinutesByPriority implements spec §4.6: "Expiry by priority:
// critical 15 min, high 30, medium 60, low 120".
func expiryMinutesByPriority(p Level) int64 {
	switch p {
	case Critical:
		return 15
	case High:
		return 30
	case Medium:
		return 60
	default:
		return 120
	}
}

// Build packages an escalation if triggers warrant one (ShouldEscalate),
// else returns (nil, false) — escalation is total, never an error.
func Build(now int64, triggers []Trigger, summary Summary, context map[string]interface{}, suggestedActions []string) (*Escalation, bool) {
	priority := Priority(triggers)
	if !ShouldEscalate(priority, len(triggers)) {
		return nil, false
	}
	minutes := expiryMinutesByPriority(priority)
	return &Escalation{
		ID:               uuid.New().String(),
		Priority:         priority,
		Summary:          summary,
		Context:          context,
		SuggestedActions: suggestedActions,
		Triggers:         triggers,
		TimestampMs:      now,
		ExpiresAtMs:      now + minutes*60_000,
	}, true
}
