package domain

import "time"

// ViolationType classifies an anti-cheat event.
type ViolationType string

const (
	// ViolationSeekForward is logged when the position jumps past the allowed threshold.
	ViolationSeekForward ViolationType = "seek_forward"
	// ViolationRateExceeded is logged when the playback rate exceeds the configured maximum.
	ViolationRateExceeded ViolationType = "rate_exceeded"
	// ViolationTabHidden is logged when a heartbeat reports the tab as hidden.
	ViolationTabHidden ViolationType = "tab_hidden"
)

// Violation is a logged anti-cheat event. Violations never block playback by
// themselves; the completion verifier consults them before marking a lesson
// verified complete.
type Violation struct {
	Type ViolationType  `json:"type"`
	At   time.Time      `json:"at"`
	Meta map[string]any `json:"meta,omitempty"`
}

// NewSeekViolation builds a seek_forward violation with jump metadata.
func NewSeekViolation(at time.Time, from, to float64) Violation {
	return Violation{
		Type: ViolationSeekForward,
		At:   at,
		Meta: map[string]any{
			"jump": to - from,
			"from": from,
			"to":   to,
		},
	}
}

// NewRateViolation builds a rate_exceeded violation recording the observed rate.
func NewRateViolation(at time.Time, rate, maxAllowed float64) Violation {
	return Violation{
		Type: ViolationRateExceeded,
		At:   at,
		Meta: map[string]any{
			"rate": rate,
			"max":  maxAllowed,
		},
	}
}

// NewTabHiddenViolation builds a tab_hidden violation.
func NewTabHiddenViolation(at time.Time) Violation {
	return Violation{Type: ViolationTabHidden, At: at}
}
