// Package catalog holds the lookup tables the intake form renders choices from:
// departments, per-department skills, the manager roster and relationship types.
//
// The intake core only reads these tables when evaluating rules such as
// "is the selected manager in this department's roster".
package catalog

import (
	"errors"
	"fmt"
	"slices"
)

// Manager is one roster entry. A manager belongs to exactly one department.
type Manager struct {
	Name       string `json:"name" yaml:"name"`
	Department string `json:"department" yaml:"department"`
}

// Catalog is the full set of lookup tables.
type Catalog struct {
	Departments   []string            `json:"departments" yaml:"departments"`
	Skills        map[string][]string `json:"skills" yaml:"skills"`
	Managers      []Manager           `json:"managers" yaml:"managers"`
	Relationships []string            `json:"relationships" yaml:"relationships"`
}

// MinSkills is the fewest skills a department may offer; the skills step
// needs at least this many selected.
const MinSkills = 3

// ErrInvalid is wrapped by every error returned from Validate.
var ErrInvalid = errors.New("invalid catalog")

// HasDepartment reports whether d is one of the enumerated departments.
func (c *Catalog) HasDepartment(d string) bool {
	return d != "" && slices.Contains(c.Departments, d)
}

// SkillsFor returns the allowed skill list of department d (nil if unknown).
func (c *Catalog) SkillsFor(d string) []string {
	return c.Skills[d]
}

// HasSkill reports whether skill s may be selected in department d.
func (c *Catalog) HasSkill(d, s string) bool {
	return slices.Contains(c.Skills[d], s)
}

// ManagersFor returns the names of exactly those managers whose department is d,
// in catalog order.
func (c *Catalog) ManagersFor(d string) []string {
	names := make([]string, 0)
	for _, m := range c.Managers {
		if m.Department == d {
			names = append(names, m.Name)
		}
	}
	return names
}

// HasManager reports whether manager m is on department d's roster.
func (c *Catalog) HasManager(d, m string) bool {
	if m == "" {
		return false
	}
	for _, e := range c.Managers {
		if e.Department == d && e.Name == m {
			return true
		}
	}
	return false
}

// HasRelationship reports whether r is an accepted relationship type.
func (c *Catalog) HasRelationship(r string) bool {
	return r != "" && slices.Contains(c.Relationships, r)
}

// Validate checks the tables are internally consistent.
func (c *Catalog) Validate() error {
	if len(c.Departments) == 0 {
		return fmt.Errorf("%w: no departments", ErrInvalid)
	}
	seen := make(map[string]bool, len(c.Departments))
	for _, d := range c.Departments {
		if d == "" {
			return fmt.Errorf("%w: empty department name", ErrInvalid)
		}
		if seen[d] {
			return fmt.Errorf("%w: duplicate department %q", ErrInvalid, d)
		}
		seen[d] = true
	}
	for d := range c.Skills {
		if !seen[d] {
			return fmt.Errorf("%w: skills listed for unknown department %q", ErrInvalid, d)
		}
	}
	staffed := make(map[string]bool, len(c.Departments))
	for _, m := range c.Managers {
		if m.Name == "" {
			return fmt.Errorf("%w: manager with empty name", ErrInvalid)
		}
		if !seen[m.Department] {
			return fmt.Errorf("%w: manager %q has unknown department %q", ErrInvalid, m.Name, m.Department)
		}
		staffed[m.Department] = true
	}
	for _, d := range c.Departments {
		if n := len(c.Skills[d]); n < MinSkills {
			return fmt.Errorf("%w: department %q offers %d skills, need at least %d", ErrInvalid, d, n, MinSkills)
		}
		if !staffed[d] {
			return fmt.Errorf("%w: department %q has no managers", ErrInvalid, d)
		}
	}
	if len(c.Relationships) == 0 {
		return fmt.Errorf("%w: no relationships", ErrInvalid)
	}
	return nil
}

// Default returns the built-in catalog used when no file or database is configured.
func Default() *Catalog {
	return &Catalog{
		Departments: []string{"Engineering", "Design", "Marketing", "Sales", "HR", "Finance"},
		Skills: map[string][]string{
			"Engineering": {"Go", "TypeScript", "React", "PostgreSQL", "Docker", "Kubernetes", "AWS", "Testing"},
			"Design":      {"Figma", "Sketch", "Prototyping", "User Research", "Illustration", "Motion Design"},
			"Marketing":   {"SEO", "Content Writing", "Social Media", "Email Campaigns", "Analytics", "Branding"},
			"Sales":       {"Negotiation", "CRM", "Lead Generation", "Cold Calling", "Account Management", "Forecasting"},
			"HR":          {"Recruiting", "Onboarding", "Payroll", "Employee Relations", "Compliance", "Training"},
			"Finance":     {"Accounting", "Budgeting", "Excel", "Auditing", "Tax", "Financial Modeling"},
		},
		Managers: []Manager{
			{Name: "Alice Johnson", Department: "Engineering"},
			{Name: "Brian Lee", Department: "Engineering"},
			{Name: "Chloe Martin", Department: "Design"},
			{Name: "Daniel Kim", Department: "Design"},
			{Name: "Emma Davis", Department: "Marketing"},
			{Name: "Frank Wilson", Department: "Marketing"},
			{Name: "Grace Taylor", Department: "Sales"},
			{Name: "Henry Moore", Department: "Sales"},
			{Name: "Isabel Clark", Department: "HR"},
			{Name: "Jack Lewis", Department: "HR"},
			{Name: "Karen Hall", Department: "Finance"},
			{Name: "Liam Young", Department: "Finance"},
		},
		Relationships: []string{"Parent", "Spouse", "Sibling", "Child", "Friend", "Relative", "Other"},
	}
}
