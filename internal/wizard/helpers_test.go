package wizard_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"jobmate/intake-service/internal/catalog"
	"jobmate/intake-service/internal/intake"
	"jobmate/intake-service/internal/wizard"
)

// today is a Monday; nextMonday is the first valid start date after it.
var (
	today      = intake.NewDate(2026, time.October, 19)
	nextMonday = intake.NewDate(2026, time.October, 26)
)

type published struct {
	channel string
	payload map[string]string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, channel string, message any) *redis.IntCmd {
	var payload map[string]string
	_ = json.Unmarshal(message.([]byte), &payload)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{channel: channel, payload: payload})
	return redis.NewIntResult(1, p.err)
}

func (p *fakePublisher) channels() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.channel)
	}
	return out
}

// testClock is a settable clock for idle tracking.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	svc     *wizard.Service
	pub     *fakePublisher
	clock   *testClock
	reg     *prometheus.Registry
	metrics *wizard.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		pub:   &fakePublisher{},
		clock: &testClock{t: time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)},
		reg:   prometheus.NewRegistry(),
	}
	f.metrics = wizard.NewMetrics(f.reg)
	rules := intake.NewRules(catalog.Default(), intake.WithClock(func() time.Time {
		return time.Date(2026, time.October, 19, 14, 30, 0, 0, time.UTC)
	}))
	f.svc = wizard.NewService(intake.NewController(rules),
		wizard.WithPublisher(f.pub),
		wizard.WithMetrics(f.metrics),
		wizard.WithTTL(10*time.Minute),
		wizard.WithClock(f.clock.Now),
	)
	return f
}

func ptr[T any](v T) *T { return &v }

func validPersonal() intake.PersonalInfo {
	return intake.PersonalInfo{
		FullName:    "Jane Doe",
		Email:       "jane.doe@example.com",
		Phone:       "+1 650-253-0000",
		DateOfBirth: today.AddYears(-30),
	}
}

func validJob() intake.JobDetails {
	return intake.JobDetails{
		Department: "Engineering",
		Position:   "Backend Engineer",
		StartDate:  nextMonday,
		JobType:    intake.JobTypeFullTime,
		SalaryExpt: ptr(50_000.0),
		Manager:    "Alice Johnson",
	}
}

func validSkills() intake.SkillsPreferences {
	return intake.SkillsPreferences{
		Skills:         []string{"Go", "Docker", "Testing"},
		Experience:     map[string]string{"Go": "Five years", "Docker": "Daily use", "Testing": "Table tests"},
		PreferWorkTime: &intake.TimeRange{Start: "09:00", End: "17:00"},
		RemotePrefer:   ptr(60),
	}
}

func validEmergency() intake.EmergencyContact {
	return intake.EmergencyContact{
		ContactName:  "John Doe",
		Relationship: "Parent",
		Phone:        "+1 212-736-5000",
	}
}

// toReview drives a new session to the review step.
func (f *fixture) toReview(t *testing.T) wizard.View {
	t.Helper()
	ctx := context.Background()
	v := f.svc.Start(ctx)
	for _, d := range []intake.StepData{validPersonal(), validJob(), validSkills(), validEmergency()} {
		next, errs, err := f.svc.Advance(ctx, v.ID, d)
		if err != nil || errs != nil {
			t.Fatalf("advance %s: err=%v fields=%v", v.Step, err, errs)
		}
		v = next
	}
	return v
}
