// Package intake is the job-application intake wizard: a step state machine
// that accumulates validated answers, the per-step rule sets, and the derived
// fields that keep dependent answers consistent.
//
// Step graph:
//
//	PERSONAL_INFO ──► JOB_DETAILS ──► SKILLS_PREFERENCES ──► EMERGENCY_CONTACT ──► REVIEW ──► SUBMITTED
//	      ◄──────────────── ◄────────────────── ◄──────────────────── ◄──────────
//
// Forward moves require the active step to validate; backward moves never
// validate. SUBMITTED is terminal.
//
// Everything in this package is synchronous and free of I/O. Callers own the
// State value and are responsible for not running two operations on the same
// State concurrently.
package intake

import "fmt"

// Step identifies one stage of the wizard.
type Step string

const (
	StepPersonalInfo      Step = "PERSONAL_INFO"
	StepJobDetails        Step = "JOB_DETAILS"
	StepSkillsPreferences Step = "SKILLS_PREFERENCES"
	StepEmergencyContact  Step = "EMERGENCY_CONTACT"
	StepReview            Step = "REVIEW"
	StepSubmitted         Step = "SUBMITTED"
)

// steps lists every step in order; the index is the step number.
var steps = []Step{
	StepPersonalInfo,
	StepJobDetails,
	StepSkillsPreferences,
	StepEmergencyContact,
	StepReview,
	StepSubmitted,
}

var titles = map[Step]string{
	StepPersonalInfo:      "First step - Personal Info",
	StepJobDetails:        "Second step - Job Details",
	StepSkillsPreferences: "Third step - Skills & Preferences",
	StepEmergencyContact:  "Fourth step - Emergency Contact",
	StepReview:            "Last step - Review & Submit",
	StepSubmitted:         "Thank you for submitting the form.",
}

// Steps returns all steps in wizard order.
func Steps() []Step {
	out := make([]Step, len(steps))
	copy(out, steps)
	return out
}

// ParseStep converts a raw string to a Step, returning an error for unknown
// values.
func ParseStep(s string) (Step, error) {
	st := Step(s)
	if st.Index() < 0 {
		return "", fmt.Errorf("unknown intake step %q", s)
	}
	return st, nil
}

// Index returns the zero-based position of s, or -1 for an unknown step.
func (s Step) Index() int {
	for i, st := range steps {
		if st == s {
			return i
		}
	}
	return -1
}

// Title is the heading shown above the step.
func (s Step) Title() string { return titles[s] }

// Progress is the completion percentage shown in the progress bar.
func (s Step) Progress() int {
	if i := s.Index(); i > 0 {
		return i * 20
	}
	return 0
}

// IsTerminal returns true for SUBMITTED.
func (s Step) IsTerminal() bool { return s == StepSubmitted }

// IsDataStep reports whether s collects answers that are merged into the Record.
func (s Step) IsDataStep() bool {
	switch s {
	case StepPersonalInfo, StepJobDetails, StepSkillsPreferences, StepEmergencyContact:
		return true
	}
	return false
}

// next returns the step after s, clamped at SUBMITTED.
func (s Step) next() Step {
	i := s.Index()
	if i < 0 || i >= len(steps)-1 {
		return s
	}
	return steps[i+1]
}

// prev returns the step before s, clamped at PERSONAL_INFO.
func (s Step) prev() Step {
	i := s.Index()
	if i <= 0 {
		return s
	}
	return steps[i-1]
}
