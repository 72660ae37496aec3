package intake

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"

	"jobmate/intake-service/internal/catalog"
)

// DefaultPhoneRegion is used to parse phone numbers written without a "+"
// country prefix.
const DefaultPhoneRegion = "US"

// Rules evaluates the per-step rule sets. A Rules value is immutable after
// construction and safe for concurrent use.
type Rules struct {
	catalog  *catalog.Catalog
	validate *validator.Validate
	now      func() time.Time
	region   string
}

// Option configures Rules.
type Option func(*Rules)

// WithClock overrides the clock used to compute "today".
func WithClock(now func() time.Time) Option {
	return func(r *Rules) { r.now = now }
}

// WithPhoneRegion sets the default region for phone number parsing.
func WithPhoneRegion(region string) Option {
	return func(r *Rules) { r.region = strings.ToUpper(region) }
}

// NewRules builds the rule sets over the given catalog.
func NewRules(c *catalog.Catalog, opts ...Option) *Rules {
	r := &Rules{
		catalog: c,
		now:     time.Now,
		region:  DefaultPhoneRegion,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.validate = r.newValidator()
	return r
}

// Catalog returns the lookup tables the rules evaluate against.
func (r *Rules) Catalog() *catalog.Catalog { return r.catalog }

// Today returns the current calendar date according to the rules' clock.
func (r *Rules) Today() Date { return DateOf(r.now()) }

// Facts are the answers from other steps, plus the evaluation date, that a
// step's rules depend on.
type Facts struct {
	Today       Date
	Department  string // JobDetails.Department
	DateOfBirth Date   // PersonalInfo.DateOfBirth
}

// FactsFor extracts the cross-step facts from rec as of today.
func FactsFor(rec Record, today Date) Facts {
	f := Facts{Today: today}
	if rec.JobDetails != nil {
		f.Department = rec.JobDetails.Department
	}
	if rec.PersonalInfo != nil {
		f.DateOfBirth = rec.PersonalInfo.DateOfBirth
	}
	return f
}

// Validate runs step's rule set over data. Field-level rules run first; the
// step's cross-field refinements only run when every field-level rule passed,
// and all failing refinements are reported together.
//
// On success it returns the normalised data and nil errors. Validate has no
// side effects: identical (data, facts) always produce identical results.
func (r *Rules) Validate(step Step, data StepData, f Facts) (StepData, FieldErrors) {
	if data == nil || data.Step() != step {
		return nil, FieldErrors{"": fmt.Sprintf("expected %s data", step)}
	}
	switch v := data.(type) {
	case PersonalInfo:
		return wrap(r.ValidatePersonalInfo(v, f))
	case JobDetails:
		return wrap(r.ValidateJobDetails(v, f))
	case SkillsPreferences:
		return wrap(r.ValidateSkillsPreferences(v, f))
	case EmergencyContact:
		return wrap(r.ValidateEmergencyContact(v, f))
	case Confirmation:
		return wrap(r.ValidateConfirmation(v))
	}
	return nil, FieldErrors{"": fmt.Sprintf("unsupported %T", data)}
}

func wrap(v StepData, errs FieldErrors) (StepData, FieldErrors) {
	if len(errs) > 0 {
		return nil, errs
	}
	return v, nil
}

// ─── Validator wiring ────────────────────────────────────────────────────────

func (r *Rules) newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json field names so error paths match the wire format.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(Date); ok {
			return d.String()
		}
		return nil
	}, Date{})

	mustRegister(v, "fullname", func(fl validator.FieldLevel) bool {
		return hasTwoWords(fl.Field().String())
	})
	mustRegister(v, "phone", func(fl validator.FieldLevel) bool {
		return r.validPhone(fl.Field().String())
	})
	mustRegister(v, "clock", func(fl validator.FieldLevel) bool {
		_, err := parseClock(fl.Field().String())
		return err == nil
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// validPhone reports whether s is a dialable number, parsed in the configured
// region unless it carries its own "+" country code.
func (r *Rules) validPhone(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	num, err := phonenumbers.Parse(s, r.region)
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(num)
}

func hasTwoWords(s string) bool {
	return len(strings.Fields(s)) >= 2
}

// parseClock parses HH:MM or HH:MM:SS into an offset from midnight.
func parseClock(s string) (time.Duration, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("invalid clock time %q", s)
}

// structErrors runs the tag rules on v and converts failures to FieldErrors.
func (r *Rules) structErrors(v any) FieldErrors {
	errs := FieldErrors{}
	err := r.validate.Struct(v)
	if err == nil {
		return errs
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add("", err.Error())
		return errs
	}
	for _, fe := range verrs {
		path := fieldPath(fe)
		errs.Add(path, messageFor(path, fe.Tag()))
	}
	return errs
}

// fieldPath strips the struct name from the validator namespace:
// "SkillsPreferences.preferWorkTime.end" → "preferWorkTime.end".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

// basePath drops map/slice subscripts: "experience[Go]" → "experience".
func basePath(path string) string {
	var b strings.Builder
	depth := 0
	for _, c := range path {
		switch {
		case c == '[':
			depth++
		case c == ']' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// Messages keyed by "<field>.<tag>", then by "<field>", then by "<tag>".
var messages = map[string]string{
	"fullName.required":       "Full name is required",
	"fullName.fullname":       "Please enter at least two words",
	"contactName.required":    "Full name is required",
	"contactName.fullname":    "Please enter at least two words",
	"email":                   "Enter a valid email",
	"phone":                   "Invalid phone number",
	"dateOfBirth":             "Please select your date of birth",
	"department":              "Please Select a department!",
	"position":                "At least 3 characters!",
	"startDate":               "Please select a date",
	"jobType":                 "You need to select a type.",
	"salaryExpt":              "Select your job type and express your expectation!",
	"manager":                 "Select a Manager",
	"skills.unique":           "Each skill can only be selected once.",
	"skills":                  "You must select at least 3 items.",
	"experience.required":     "Experience is required",
	"experience":              "At least 3 letters are required",
	"preferWorkTime.required": "Please select your preferable work time",
	"preferWorkTime.start":    "Enter a time as HH:MM or HH:MM:SS",
	"preferWorkTime.end":      "Enter a time as HH:MM or HH:MM:SS",
	"remotePrefer":            "Choose your Remote preference",
	"notes.min":               "Notes must be at least 10 characters.",
	"notes.max":               "Notes must not be longer than 500 characters.",
	"relationship":            "Please Select the relative!",
	"guardianPhone":           "Invalid phone number",
	"confirm":                 "You must confirm before continuing",
}

func messageFor(path, tag string) string {
	base := basePath(path)
	for _, key := range []string{base + "." + tag, base, tag} {
		if m, ok := messages[key]; ok {
			return m
		}
	}
	return fmt.Sprintf("%s is invalid", path)
}
