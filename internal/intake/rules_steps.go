package intake

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"jobmate/intake-service/internal/catalog"
)

const (
	// MinApplicantAge is the youngest age accepted on the personal step.
	MinApplicantAge = 18
	// GuardianAge is the age below which guardian details are required.
	GuardianAge = 21
	// StartWindowDays bounds the start date to [today, today+StartWindowDays].
	StartWindowDays = 90
	// MaxProfileImageBytes is the largest accepted profile picture.
	MaxProfileImageBytes = 2_000_000
	// ApprovalThreshold is the remote percentage below which a manager's
	// approval is required.
	ApprovalThreshold = 50
	// MinSkills is the smallest accepted skill selection.
	MinSkills = catalog.MinSkills
)

var acceptedImageTypes = []string{"image/png", "image/jpeg"}

// SalaryRange is the inclusive expectation bound for one job type.
type SalaryRange struct {
	Min, Max float64
	Message  string
}

// SalaryRanges holds the expectation bounds per job type. Contract values are
// hourly rates.
var SalaryRanges = map[JobType]SalaryRange{
	JobTypeFullTime: {30_000, 200_000, "Full-time salary must be between $30,000 and $200,000"},
	JobTypePartTime: {5_000, 30_000, "Part-time salary must be between $5,000 and $30,000"},
	JobTypeContract: {50, 150, "Contract rate must be between $50 and $150"},
}

// blockedStartDays lists, per department, the weekdays a start date may not
// fall on.
var blockedStartDays = map[string][]time.Weekday{
	"HR":      {time.Friday, time.Saturday},
	"Finance": {time.Friday, time.Saturday},
}

// ─── PersonalInfo ────────────────────────────────────────────────────────────

// ValidatePersonalInfo checks the personal step. The applicant must be at
// least MinApplicantAge on f.Today.
func (r *Rules) ValidatePersonalInfo(p PersonalInfo, f Facts) (PersonalInfo, FieldErrors) {
	p = p.clone()
	p.FullName = strings.TrimSpace(p.FullName)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)

	errs := r.structErrors(p)
	if !errs.Has("dateOfBirth") && !IsAtLeast(p.DateOfBirth, f.Today, MinApplicantAge) {
		errs.Add("dateOfBirth", "You must be at least 18 years old")
	}
	if p.ProfilePic != nil {
		pic, msg := checkProfileImage(*p.ProfilePic)
		if msg != "" {
			errs.Add("profilePic", msg)
		}
		p.ProfilePic = &pic
	}
	return p, errs.orNil()
}

// checkProfileImage sniffs the MIME type from the bytes when present and
// enforces the size and type limits.
func checkProfileImage(pic ProfileImage) (ProfileImage, string) {
	if len(pic.Data) > 0 {
		pic.Size = int64(len(pic.Data))
		pic.MIME = mimetype.Detect(pic.Data).String()
	}
	if pic.Size > MaxProfileImageBytes {
		return pic, "File must be less than 2MB"
	}
	for _, t := range acceptedImageTypes {
		if mimetype.EqualsAny(pic.MIME, t) {
			pic.MIME = t
			return pic, ""
		}
	}
	return pic, "Only accept JPG and PNG"
}

// ─── JobDetails ──────────────────────────────────────────────────────────────

// ValidateJobDetails checks the job step. Refinements: department-specific
// blocked start weekdays, job-type salary bounds and manager roster membership.
func (r *Rules) ValidateJobDetails(j JobDetails, f Facts) (JobDetails, FieldErrors) {
	j = j.clone()
	j.Department = strings.TrimSpace(j.Department)
	j.Position = strings.TrimSpace(j.Position)
	j.Manager = strings.TrimSpace(j.Manager)

	errs := r.structErrors(j)
	if !errs.Has("department") && !r.catalog.HasDepartment(j.Department) {
		errs.Add("department", "Please Select a department!")
	}
	if !errs.Has("startDate") && !WithinStartWindow(j.StartDate, f.Today) {
		errs.Add("startDate", "Can't hire you after 90 days!")
	}
	if j.SalaryExpt != nil && (math.IsNaN(*j.SalaryExpt) || math.IsInf(*j.SalaryExpt, 0)) {
		errs.Add("salaryExpt", "Select your job type and express your expectation!")
	}
	if len(errs) > 0 {
		return j, errs
	}

	if StartDayBlocked(j.Department, j.StartDate) {
		errs.Add("startDate", "Start dates for HR and Finance roles must not be scheduled on Fridays or Saturdays.")
	}
	if rng, ok := SalaryRanges[j.JobType]; ok && !rng.Contains(*j.SalaryExpt) {
		errs.Add("salaryExpt", rng.Message)
	}
	if !r.catalog.HasManager(j.Department, j.Manager) {
		errs.Add("manager", "Select a Manager")
	}
	return j, errs.orNil()
}

// Contains reports whether v lies within the inclusive range.
func (s SalaryRange) Contains(v float64) bool {
	return v >= s.Min && v <= s.Max
}

// WithinStartWindow reports whether start lies in [today, today+StartWindowDays].
func WithinStartWindow(start, today Date) bool {
	return !start.Before(today) && !start.After(today.AddDays(StartWindowDays))
}

// StartDayBlocked reports whether department forbids starting on start's weekday.
func StartDayBlocked(department string, start Date) bool {
	for _, d := range blockedStartDays[department] {
		if start.Weekday() == d {
			return true
		}
	}
	return false
}

// ─── SkillsPreferences ───────────────────────────────────────────────────────

// ValidateSkillsPreferences checks the skills step against the department in
// f. Refinements: experience keys equal the selected skills, the work window
// ends after it starts, and remote preference below ApprovalThreshold needs
// manager approval.
func (r *Rules) ValidateSkillsPreferences(s SkillsPreferences, f Facts) (SkillsPreferences, FieldErrors) {
	s = s.clone()
	for i := range s.Skills {
		s.Skills[i] = strings.TrimSpace(s.Skills[i])
	}
	exp := make(map[string]string, len(s.Experience))
	for k, v := range trimKeys(s.Experience) {
		exp[k] = strings.TrimSpace(v)
	}
	if s.Experience != nil {
		s.Experience = exp
	}
	s.Notes = strings.TrimSpace(s.Notes)

	errs := r.structErrors(s)
	if !errs.Has("skills") {
		for _, skill := range s.Skills {
			if !r.catalog.HasSkill(f.Department, skill) {
				errs.Add("skills", fmt.Sprintf("%q is not a %s skill", skill, f.Department))
				break
			}
		}
	}
	if len(errs) > 0 {
		return s, errs
	}

	selected := make(map[string]bool, len(s.Skills))
	for _, skill := range s.Skills {
		selected[skill] = true
		if _, ok := s.Experience[skill]; !ok {
			errs.Add("experience["+skill+"]", "Experience is required")
		}
	}
	for k := range s.Experience {
		if !selected[k] {
			errs.Add("experience["+k+"]", "Experience given for a skill that is not selected")
		}
	}

	start, _ := parseClock(s.PreferWorkTime.Start)
	end, _ := parseClock(s.PreferWorkTime.End)
	if end <= start {
		errs.Add("preferWorkTime.end", "End time cannot be earlier than start time")
	}

	// Reported on managerApprove even when the remote preference is what changed.
	if ApprovalRequired(*s.RemotePrefer) && (s.ManagerApprove == nil || !*s.ManagerApprove) {
		errs.Add("managerApprove", "Manager approval is required.")
	}
	return s, errs.orNil()
}

// ─── EmergencyContact ────────────────────────────────────────────────────────

// ValidateEmergencyContact checks the emergency step. Guardian name and phone
// are required when the applicant (f.DateOfBirth) is younger than GuardianAge.
func (r *Rules) ValidateEmergencyContact(e EmergencyContact, f Facts) (EmergencyContact, FieldErrors) {
	e.ContactName = strings.TrimSpace(e.ContactName)
	e.Relationship = strings.TrimSpace(e.Relationship)
	e.Phone = strings.TrimSpace(e.Phone)
	e.GuardianName = strings.TrimSpace(e.GuardianName)
	e.GuardianPhone = strings.TrimSpace(e.GuardianPhone)

	errs := r.structErrors(e)
	if !errs.Has("relationship") && !r.catalog.HasRelationship(e.Relationship) {
		errs.Add("relationship", "Please Select the relative!")
	}
	if len(errs) > 0 {
		return e, errs
	}

	if GuardianRequired(f.DateOfBirth, f.Today) {
		if e.GuardianName == "" {
			errs.Add("guardianName", "Guardian name is required")
		}
		if e.GuardianPhone == "" {
			errs.Add("guardianPhone", "Guardian phone is required")
		}
	}
	return e, errs.orNil()
}

// ─── Confirmation ────────────────────────────────────────────────────────────

// ValidateConfirmation requires the applicant to tick the confirmation box.
func (r *Rules) ValidateConfirmation(c Confirmation) (Confirmation, FieldErrors) {
	if !c.Confirm {
		return c, FieldErrors{"confirm": messages["confirm"]}
	}
	return c, nil
}
