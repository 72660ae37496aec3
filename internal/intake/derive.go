package intake

import (
	"slices"
	"strings"
)

// DefaultWorkTime is the window a skills draft starts with.
var DefaultWorkTime = TimeRange{Start: "10:30:00", End: "18:30:00"}

// Hints are derived, render-only facts about a draft: which choices to offer
// and which conditional fields currently apply. They are recomputed on every
// call and never stored.
type Hints struct {
	Departments             []string `json:"departments,omitempty"`
	Managers                []string `json:"managers,omitempty"`
	Skills                  []string `json:"skills,omitempty"`
	Relationships           []string `json:"relationships,omitempty"`
	ManagerCleared          bool     `json:"managerCleared,omitempty"`
	ManagerApprovalRequired bool     `json:"managerApprovalRequired"`
	GuardianRequired        bool     `json:"guardianRequired"`
	Age                     *int     `json:"age,omitempty"`
}

// IsAtLeast reports whether someone born on dob is at least years old on
// today. The birthday itself counts: dob exactly years before today qualifies.
func IsAtLeast(dob, today Date, years int) bool {
	if dob.IsZero() {
		return false
	}
	return !dob.After(today.AddYears(-years))
}

// Age returns the completed years between dob and today (0 for a zero dob or
// a dob in the future).
func Age(dob, today Date) int {
	if dob.IsZero() || dob.After(today) {
		return 0
	}
	age := today.Year() - dob.Year()
	if !IsAtLeast(dob, today, age) {
		age--
	}
	return age
}

// GuardianRequired reports whether an applicant born on dob still needs a
// guardian on today. An unknown dob counts as a minor.
func GuardianRequired(dob, today Date) bool {
	return !IsAtLeast(dob, today, GuardianAge)
}

// ApprovalRequired reports whether a remote preference of pct percent needs
// the manager's approval.
func ApprovalRequired(pct int) bool {
	return pct < ApprovalThreshold
}

// ReconcileExperience returns the experience map for a new skill selection:
// entries of deselected skills are dropped, newly selected skills get an empty
// entry, and retained skills keep their text. prev is not modified.
func ReconcileExperience(skills []string, prev map[string]string) map[string]string {
	out := make(map[string]string, len(skills))
	for _, s := range skills {
		out[s] = prev[s]
	}
	return out
}

// ResetManager returns manager when it is on department's roster and "" otherwise.
func (r *Rules) ResetManager(department, manager string) string {
	if r.catalog.HasManager(department, manager) {
		return manager
	}
	return ""
}

// Derive brings the dependent fields of draft in line with the fields they
// depend on and reports the current render hints. It is pure: the returned
// draft is a new value and nothing is remembered between calls.
func (r *Rules) Derive(draft StepData, f Facts) (StepData, Hints) {
	var h Hints
	switch d := draft.(type) {
	case PersonalInfo:
		d = d.clone()
		if !d.DateOfBirth.IsZero() {
			age := Age(d.DateOfBirth, f.Today)
			h.Age = &age
		}
		return d, h

	case JobDetails:
		d = d.clone()
		h.Departments = slices.Clone(r.catalog.Departments)
		dept := strings.TrimSpace(d.Department)
		h.Managers = r.catalog.ManagersFor(dept)
		manager := strings.TrimSpace(d.Manager)
		d.Manager = r.ResetManager(dept, manager)
		h.ManagerCleared = manager != "" && d.Manager == ""
		return d, h

	case SkillsPreferences:
		d = d.clone()
		h.Skills = slices.Clone(r.catalog.SkillsFor(f.Department))
		for i := range d.Skills {
			d.Skills[i] = strings.TrimSpace(d.Skills[i])
		}
		d.Experience = ReconcileExperience(d.Skills, trimKeys(d.Experience))
		if d.PreferWorkTime == nil {
			tr := DefaultWorkTime
			d.PreferWorkTime = &tr
		}
		h.ManagerApprovalRequired = d.RemotePrefer != nil && ApprovalRequired(*d.RemotePrefer)
		return d, h

	case EmergencyContact:
		h.Relationships = slices.Clone(r.catalog.Relationships)
		h.GuardianRequired = GuardianRequired(f.DateOfBirth, f.Today)
		if !f.DateOfBirth.IsZero() {
			age := Age(f.DateOfBirth, f.Today)
			h.Age = &age
		}
		return d, h
	}
	return draft, h
}

// trimKeys returns m keyed by the trimmed keys. An exact key wins over one
// that only matches after trimming.
func trimKeys(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		tk := strings.TrimSpace(k)
		if _, taken := out[tk]; taken && tk != k {
			continue
		}
		out[tk] = v
	}
	return out
}
