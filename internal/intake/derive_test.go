package intake_test

import (
	"maps"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/intake-service/internal/intake"
)

// After any sequence of selections the experience keys equal the latest
// selection, and a skill that stays selected keeps its text.
func TestReconcileExperience_RandomSelections(t *testing.T) {
	pool := []string{"Go", "TypeScript", "React", "PostgreSQL", "Docker", "Kubernetes", "AWS", "Testing"}
	rng := rand.New(rand.NewPCG(7, 19))

	for run := 0; run < 200; run++ {
		exp := map[string]string{}
		var prevSel []string
		for step := 0; step < 12; step++ {
			sel := randomSubset(rng, pool)
			before := maps.Clone(exp)

			next := intake.ReconcileExperience(sel, exp)

			assert.Equal(t, before, exp, "input map must not change")
			assert.ElementsMatch(t, sel, slices.Collect(maps.Keys(next)))
			for _, s := range sel {
				if slices.Contains(prevSel, s) {
					assert.Equal(t, exp[s], next[s], "retained %s", s)
				} else {
					assert.Empty(t, next[s], "new %s", s)
				}
			}

			// simulate the applicant typing into every field
			for _, s := range sel {
				if rng.IntN(2) == 0 {
					next[s] = s + " experience " + string(rune('a'+step))
				}
			}
			exp, prevSel = next, sel
		}
	}
}

func randomSubset(rng *rand.Rand, pool []string) []string {
	var out []string
	for _, p := range pool {
		if rng.IntN(3) == 0 {
			out = append(out, p)
		}
	}
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func TestReconcileExperience_Examples(t *testing.T) {
	got := intake.ReconcileExperience([]string{"Go", "AWS"}, map[string]string{"Go": "years", "Docker": "some"})
	assert.Equal(t, map[string]string{"Go": "years", "AWS": ""}, got)

	assert.Empty(t, intake.ReconcileExperience(nil, map[string]string{"Go": "x"}))
	assert.Equal(t, map[string]string{"Go": ""}, intake.ReconcileExperience([]string{"Go"}, nil))
}

func TestResetManager(t *testing.T) {
	r := newRules()
	assert.Equal(t, "Alice Johnson", r.ResetManager("Engineering", "Alice Johnson"))
	assert.Equal(t, "", r.ResetManager("HR", "Alice Johnson"))
	assert.Equal(t, "", r.ResetManager("Legal", "Alice Johnson"))
	assert.Equal(t, "", r.ResetManager("Engineering", ""))
}

func TestIsAtLeast(t *testing.T) {
	assert.True(t, intake.IsAtLeast(today.AddYears(-18), today, 18))
	assert.False(t, intake.IsAtLeast(today.AddYears(-18).AddDays(1), today, 18))
	assert.True(t, intake.IsAtLeast(today.AddYears(-18).AddDays(-1), today, 18))
	assert.False(t, intake.IsAtLeast(intake.Date{}, today, 0))
}

func TestAge(t *testing.T) {
	cases := []struct {
		dob  intake.Date
		want int
	}{
		{today.AddYears(-30), 30},
		{today.AddYears(-30).AddDays(1), 29},
		{today.AddYears(-30).AddDays(-1), 30},
		{today, 0},
		{today.AddDays(5), 0},
		{intake.Date{}, 0},
		{intake.NewDate(2006, 2, 28), 20},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, intake.Age(tc.dob, today), "dob %s", tc.dob)
	}
}

// GuardianRequired holds exactly when the computed age is under 21.
func TestGuardianRequired_AgreesWithAge(t *testing.T) {
	start := today.AddYears(-23)
	for d := start; d.Before(today.AddYears(-19)); d = d.AddDays(1) {
		assert.Equal(t, intake.Age(d, today) < intake.GuardianAge, intake.GuardianRequired(d, today), "dob %s", d)
	}
	assert.True(t, intake.GuardianRequired(intake.Date{}, today), "unknown dob counts as a minor")
}

func TestApprovalRequired(t *testing.T) {
	for pct := 0; pct <= 100; pct++ {
		assert.Equal(t, pct < 50, intake.ApprovalRequired(pct), pct)
	}
}

// ── Derive ─────────────────────────────────────────────────────────────────

func TestDerive_JobDetailsClearsForeignManager(t *testing.T) {
	r := newRules()
	j := validJob()
	j.Department = "HR"

	got, h := r.Derive(j, engineeringFacts())
	d := got.(intake.JobDetails)
	assert.Empty(t, d.Manager)
	assert.True(t, h.ManagerCleared)
	assert.Equal(t, []string{"Isabel Clark", "Jack Lewis"}, h.Managers)
	assert.Equal(t, testCatalog().Departments, h.Departments)
	assert.Equal(t, "Alice Johnson", j.Manager, "input draft must not change")
}

func TestDerive_JobDetailsKeepsRosterManager(t *testing.T) {
	j := validJob()
	j.Manager = " Brian Lee "
	got, h := newRules().Derive(j, engineeringFacts())
	assert.Equal(t, "Brian Lee", got.(intake.JobDetails).Manager)
	assert.False(t, h.ManagerCleared)
}

func TestDerive_JobDetailsNoDepartment(t *testing.T) {
	got, h := newRules().Derive(intake.JobDetails{}, engineeringFacts())
	assert.Empty(t, got.(intake.JobDetails).Manager)
	assert.NotNil(t, h.Managers)
	assert.Empty(t, h.Managers)
	assert.False(t, h.ManagerCleared)
}

func TestDerive_SkillsDefaultsAndReconciles(t *testing.T) {
	s := intake.SkillsPreferences{
		Skills:       []string{"A", "C"},
		Experience:   map[string]string{"A": "kept", "B": "dropped"},
		RemotePrefer: ptr(20),
	}
	f := engineeringFacts()
	f.Department = "Research"

	got, h := newRules().Derive(s, f)
	d := got.(intake.SkillsPreferences)
	assert.Equal(t, map[string]string{"A": "kept", "C": ""}, d.Experience)
	require.NotNil(t, d.PreferWorkTime)
	assert.Equal(t, intake.DefaultWorkTime, *d.PreferWorkTime)
	assert.True(t, h.ManagerApprovalRequired)
	assert.Equal(t, []string{"A", "B", "C", "D"}, h.Skills)

	assert.Nil(t, s.PreferWorkTime, "input draft must not change")
	assert.Contains(t, s.Experience, "B")
}

func TestDerive_SkillsTrimsNamesAndKeys(t *testing.T) {
	s := intake.SkillsPreferences{
		Skills:     []string{" A", "B "},
		Experience: map[string]string{"A ": "padded key", "B": "exact", "B ": "loses to exact"},
	}
	f := engineeringFacts()
	f.Department = "Research"

	got, _ := newRules().Derive(s, f)
	d := got.(intake.SkillsPreferences)
	assert.Equal(t, []string{"A", "B"}, d.Skills)
	assert.Equal(t, map[string]string{"A": "padded key", "B": "exact"}, d.Experience)
	assert.Equal(t, []string{" A", "B "}, s.Skills, "input draft must not change")
}

func TestDerive_SkillsKeepsChosenWorkTime(t *testing.T) {
	s := validSkills()
	got, h := newRules().Derive(s, engineeringFacts())
	assert.Equal(t, intake.TimeRange{Start: "09:00", End: "17:00"}, *got.(intake.SkillsPreferences).PreferWorkTime)
	assert.False(t, h.ManagerApprovalRequired)
}

func TestDerive_EmergencyGuardianHint(t *testing.T) {
	f := engineeringFacts()
	f.DateOfBirth = today.AddYears(-20)

	_, h := newRules().Derive(validEmergency(), f)
	assert.True(t, h.GuardianRequired)
	require.NotNil(t, h.Age)
	assert.Equal(t, 20, *h.Age)
	assert.Equal(t, testCatalog().Relationships, h.Relationships)

	_, h = newRules().Derive(validEmergency(), engineeringFacts())
	assert.False(t, h.GuardianRequired)
}

func TestDerive_PersonalAgeHint(t *testing.T) {
	_, h := newRules().Derive(validPersonal(), engineeringFacts())
	require.NotNil(t, h.Age)
	assert.Equal(t, 30, *h.Age)

	_, h = newRules().Derive(intake.PersonalInfo{}, engineeringFacts())
	assert.Nil(t, h.Age)
}

// Deriving twice is the same as deriving once.
func TestDerive_Idempotent(t *testing.T) {
	r := newRules()
	f := researchFacts()
	drafts := []intake.StepData{
		validPersonal(),
		intake.JobDetails{Department: "Design", Manager: "Alice Johnson"},
		intake.SkillsPreferences{Skills: []string{"B"}, Experience: map[string]string{"Z": "x"}},
		validEmergency(),
	}
	for _, d := range drafts {
		once, h1 := r.Derive(d, f)
		twice, h2 := r.Derive(once, f)
		assert.Equal(t, once, twice, d.Step())
		h1.ManagerCleared, h2.ManagerCleared = false, false
		assert.Equal(t, h1, h2, d.Step())
	}
}
