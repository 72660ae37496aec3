package intake

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// DateLayout is the wire format of Date.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time of day. The zero value means "not set".
type Date struct {
	t time.Time
}

// NewDate returns the date y-m-d.
func NewDate(y int, m time.Month, d int) Date {
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp (whose date part is
// kept). An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return DateOf(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

func (d Date) IsZero() bool          { return d.t.IsZero() }
func (d Date) Time() time.Time       { return d.t }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) Before(o Date) bool    { return d.t.Before(o.t) }
func (d Date) After(o Date) bool     { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool     { return d.t.Equal(o.t) }
func (d Date) AddDays(n int) Date    { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) AddYears(n int) Date   { return Date{t: d.t.AddDate(n, 0, 0)} }
func (d Date) Year() int             { return d.t.Year() }
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	v, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// JobType is the kind of contract applied for.
type JobType string

const (
	JobTypeFullTime JobType = "full-time"
	JobTypePartTime JobType = "part-time"
	JobTypeContract JobType = "contract"
)

// StepData is the answer object of one step.
type StepData interface {
	Step() Step
}

// ProfileImage is an optional uploaded picture. When Data is present the MIME
// type and size are derived from it; otherwise the declared values are used.
type ProfileImage struct {
	Name string `json:"name,omitempty" form:"name"`
	MIME string `json:"mime,omitempty" form:"mime"`
	Size int64  `json:"size,omitempty" form:"size"`
	Data []byte `json:"data,omitempty" form:"-"`
}

// PersonalInfo is the first step.
type PersonalInfo struct {
	FullName    string        `json:"fullName" form:"fullName" validate:"required,fullname"`
	Email       string        `json:"email" form:"email" validate:"required,email"`
	Phone       string        `json:"phone" form:"phone" validate:"required,phone"`
	DateOfBirth Date          `json:"dateOfBirth" form:"dateOfBirth" validate:"required"`
	ProfilePic  *ProfileImage `json:"profilePic,omitempty" form:"-" validate:"-"`
}

// JobDetails is the second step.
type JobDetails struct {
	Department string   `json:"department" form:"department" validate:"required"`
	Position   string   `json:"position" form:"position" validate:"required,min=3"`
	StartDate  Date     `json:"startDate" form:"startDate" validate:"required"`
	JobType    JobType  `json:"jobType" form:"jobType" validate:"required,oneof=full-time part-time contract"`
	SalaryExpt *float64 `json:"salaryExpt" form:"salaryExpt" validate:"required"`
	Manager    string   `json:"manager" form:"manager" validate:"required"`
}

// TimeRange is a daily working window in HH:MM[:SS] clock times.
type TimeRange struct {
	Start string `json:"start" form:"start" validate:"required,clock"`
	End   string `json:"end" form:"end" validate:"required,clock"`
}

// SkillsPreferences is the third step. Experience is keyed by skill name and
// always carries exactly the selected skills.
type SkillsPreferences struct {
	Skills         []string          `json:"skills" form:"skills" validate:"required,min=3,unique,dive,required"`
	Experience     map[string]string `json:"experience" form:"experience" validate:"dive,required,min=3"`
	PreferWorkTime *TimeRange        `json:"preferWorkTime" form:"preferWorkTime" validate:"required"`
	RemotePrefer   *int              `json:"remotePrefer" form:"remotePrefer" validate:"required,min=0,max=100"`
	ManagerApprove *bool             `json:"managerApprove,omitempty" form:"managerApprove"`
	Notes          string            `json:"notes,omitempty" form:"notes" validate:"omitempty,min=10,max=500"`
}

// EmergencyContact is the fourth step. The guardian fields are required only
// for applicants younger than 21.
type EmergencyContact struct {
	ContactName   string `json:"contactName" form:"contactName" validate:"required,fullname"`
	Relationship  string `json:"relationship" form:"relationship" validate:"required"`
	Phone         string `json:"phone" form:"phone" validate:"required,phone"`
	GuardianName  string `json:"guardianName,omitempty" form:"guardianName"`
	GuardianPhone string `json:"guardianPhone,omitempty" form:"guardianPhone" validate:"omitempty,phone"`
}

// Confirmation is the review step's answer.
type Confirmation struct {
	Confirm bool `json:"confirm" form:"confirm"`
}

func (PersonalInfo) Step() Step      { return StepPersonalInfo }
func (JobDetails) Step() Step        { return StepJobDetails }
func (SkillsPreferences) Step() Step { return StepSkillsPreferences }
func (EmergencyContact) Step() Step  { return StepEmergencyContact }
func (Confirmation) Step() Step      { return StepReview }

// NewDraft returns an empty answer object for step s, or nil for steps that
// take no data.
func NewDraft(s Step) StepData {
	switch s {
	case StepPersonalInfo:
		return PersonalInfo{}
	case StepJobDetails:
		return JobDetails{}
	case StepSkillsPreferences:
		return SkillsPreferences{}
	case StepEmergencyContact:
		return EmergencyContact{}
	case StepReview:
		return Confirmation{}
	}
	return nil
}

func (p PersonalInfo) clone() PersonalInfo {
	if p.ProfilePic != nil {
		pic := *p.ProfilePic
		pic.Data = slices.Clone(pic.Data)
		p.ProfilePic = &pic
	}
	return p
}

func (j JobDetails) clone() JobDetails {
	if j.SalaryExpt != nil {
		v := *j.SalaryExpt
		j.SalaryExpt = &v
	}
	return j
}

func (s SkillsPreferences) clone() SkillsPreferences {
	s.Skills = slices.Clone(s.Skills)
	s.Experience = maps.Clone(s.Experience)
	if s.PreferWorkTime != nil {
		tr := *s.PreferWorkTime
		s.PreferWorkTime = &tr
	}
	if s.RemotePrefer != nil {
		v := *s.RemotePrefer
		s.RemotePrefer = &v
	}
	if s.ManagerApprove != nil {
		v := *s.ManagerApprove
		s.ManagerApprove = &v
	}
	return s
}

// Record is the accumulated set of validated answers, one slice per data step.
// A nil slice means the step has not been completed yet.
type Record struct {
	PersonalInfo      *PersonalInfo      `json:"personalInfo,omitempty"`
	JobDetails        *JobDetails        `json:"jobDetails,omitempty"`
	SkillsPreferences *SkillsPreferences `json:"skillsPreferences,omitempty"`
	EmergencyContact  *EmergencyContact  `json:"emergencyContact,omitempty"`
	Confirmed         bool               `json:"confirmed"`
}

// Slice returns a copy of the answers stored for step s, or nil when the step
// has none yet.
func (r Record) Slice(s Step) StepData {
	switch s {
	case StepPersonalInfo:
		if r.PersonalInfo != nil {
			return r.PersonalInfo.clone()
		}
	case StepJobDetails:
		if r.JobDetails != nil {
			return r.JobDetails.clone()
		}
	case StepSkillsPreferences:
		if r.SkillsPreferences != nil {
			return r.SkillsPreferences.clone()
		}
	case StepEmergencyContact:
		if r.EmergencyContact != nil {
			return *r.EmergencyContact
		}
	case StepReview, StepSubmitted:
		return Confirmation{Confirm: r.Confirmed}
	}
	return nil
}

// Complete reports whether all four data slices are present.
func (r Record) Complete() bool {
	return r.PersonalInfo != nil && r.JobDetails != nil &&
		r.SkillsPreferences != nil && r.EmergencyContact != nil
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := Record{Confirmed: r.Confirmed}
	if r.PersonalInfo != nil {
		v := r.PersonalInfo.clone()
		out.PersonalInfo = &v
	}
	if r.JobDetails != nil {
		v := r.JobDetails.clone()
		out.JobDetails = &v
	}
	if r.SkillsPreferences != nil {
		v := r.SkillsPreferences.clone()
		out.SkillsPreferences = &v
	}
	if r.EmergencyContact != nil {
		v := *r.EmergencyContact
		out.EmergencyContact = &v
	}
	return out
}

// merge returns a copy of r with data stored in its step's slice. Other
// slices are left untouched.
func (r Record) merge(data StepData) Record {
	out := r.Clone()
	switch v := data.(type) {
	case PersonalInfo:
		c := v.clone()
		out.PersonalInfo = &c
	case JobDetails:
		c := v.clone()
		out.JobDetails = &c
	case SkillsPreferences:
		c := v.clone()
		out.SkillsPreferences = &c
	case EmergencyContact:
		out.EmergencyContact = &v
	}
	return out
}
