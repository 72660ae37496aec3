package wizard_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/intake-service/internal/catalog"
	"jobmate/intake-service/internal/intake"
	"jobmate/intake-service/internal/wizard"
)

func TestService_Start(t *testing.T) {
	f := newFixture(t)
	v := f.svc.Start(context.Background())

	assert.NotEmpty(t, v.ID)
	assert.Equal(t, intake.StepPersonalInfo, v.Step)
	assert.Equal(t, 0, v.Progress)
	assert.Equal(t, "First step - Personal Info", v.Title)
	assert.Nil(t, v.Saved)
	assert.Equal(t, 1, f.svc.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Active()))

	other := f.svc.Start(context.Background())
	assert.NotEqual(t, v.ID, other.ID)
}

func TestService_FullFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.toReview(t)
	assert.Equal(t, intake.StepReview, v.Step)
	assert.Equal(t, 80, v.Progress)

	sum, err := f.svc.Review(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", sum.PersonalInfo.FullName)

	done, errs, err := f.svc.Submit(ctx, v.ID, true)
	require.NoError(t, err)
	require.Nil(t, errs)
	assert.Equal(t, intake.StepSubmitted, done.Step)
	assert.Equal(t, 100, done.Progress)

	assert.Equal(t, []string{
		wizard.EventStep, wizard.EventStep, wizard.EventStep, wizard.EventStep, wizard.EventSubmitted,
	}, f.pub.channels())
	first := f.pub.events[0].payload
	assert.Equal(t, map[string]string{
		"type": wizard.EventStep, "sessionId": v.ID, "from": "PERSONAL_INFO", "to": "JOB_DETAILS",
	}, first)
	assert.Equal(t, map[string]string{"type": wizard.EventSubmitted, "sessionId": v.ID}, f.pub.events[4].payload)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Advances().WithLabelValues("PERSONAL_INFO", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Submissions()))

	_, _, err = f.svc.Advance(ctx, v.ID, intake.Confirmation{Confirm: true})
	assert.ErrorIs(t, err, intake.ErrSubmitted)
	_, err = f.svc.Retreat(ctx, v.ID)
	assert.ErrorIs(t, err, intake.ErrSubmitted)
	_, _, err = f.svc.Submit(ctx, v.ID, true)
	assert.ErrorIs(t, err, intake.ErrSubmitted)

	got, err := f.svc.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, intake.StepSubmitted, got.Step)
	assert.True(t, got.Record.Confirmed)
}

func TestService_InvalidAdvanceKeepsStep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.svc.Start(ctx)

	p := validPersonal()
	p.FullName = "Jane"
	got, errs, err := f.svc.Advance(ctx, v.ID, p)
	require.NoError(t, err)
	assert.Equal(t, intake.FieldErrors{"fullName": "Please enter at least two words"}, errs)
	assert.Equal(t, intake.StepPersonalInfo, got.Step)
	assert.Empty(t, f.pub.channels())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Advances().WithLabelValues("PERSONAL_INFO", "invalid")))
}

func TestService_UnconfirmedSubmit(t *testing.T) {
	f := newFixture(t)
	v := f.toReview(t)

	got, errs, err := f.svc.Submit(context.Background(), v.ID, false)
	require.NoError(t, err)
	assert.True(t, errs.Has("confirm"))
	assert.Equal(t, intake.StepReview, got.Step)
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.Submissions()))
}

func TestService_RetreatShowsSavedAnswers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.svc.Start(ctx)

	_, _, err := f.svc.Advance(ctx, v.ID, validPersonal())
	require.NoError(t, err)
	back, err := f.svc.Retreat(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, intake.StepPersonalInfo, back.Step)
	saved, ok := back.Saved.(intake.PersonalInfo)
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", saved.FullName)

	n := len(f.pub.channels())
	again, err := f.svc.Retreat(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, intake.StepPersonalInfo, again.Step)
	assert.Len(t, f.pub.channels(), n, "no event when retreat is a no-op")
}

func TestService_Draft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.svc.Start(ctx)
	_, _, err := f.svc.Advance(ctx, v.ID, validPersonal())
	require.NoError(t, err)

	j := validJob()
	j.Department = "HR"
	d, hints, err := f.svc.Draft(ctx, v.ID, j)
	require.NoError(t, err)
	assert.Empty(t, d.(intake.JobDetails).Manager)
	assert.True(t, hints.ManagerCleared)
	assert.Equal(t, []string{"Isabel Clark", "Jack Lewis"}, hints.Managers)

	got, err := f.svc.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Record.JobDetails, "draft must not be stored")
}

func TestService_UnknownSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Get(ctx, "nope")
	assert.ErrorIs(t, err, wizard.ErrNotFound)
	_, _, err = f.svc.Advance(ctx, "nope", validPersonal())
	assert.ErrorIs(t, err, wizard.ErrNotFound)
	_, _, err = f.svc.Draft(ctx, "nope", validPersonal())
	assert.ErrorIs(t, err, wizard.ErrNotFound)
	_, err = f.svc.Retreat(ctx, "nope")
	assert.ErrorIs(t, err, wizard.ErrNotFound)
	_, err = f.svc.Review(ctx, "nope")
	assert.ErrorIs(t, err, wizard.ErrNotFound)
	_, _, err = f.svc.Submit(ctx, "nope", true)
	assert.ErrorIs(t, err, wizard.ErrNotFound)
	assert.ErrorIs(t, f.svc.End(ctx, "nope"), wizard.ErrNotFound)
}

func TestService_End(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.svc.Start(ctx)

	require.NoError(t, f.svc.End(ctx, v.ID))
	assert.Equal(t, 0, f.svc.Len())
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.Active()))
	_, err := f.svc.Get(ctx, v.ID)
	assert.ErrorIs(t, err, wizard.ErrNotFound)
}

func TestService_SweepDropsIdleSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	idle := f.svc.Start(ctx)
	f.clock.Advance(6 * time.Minute)
	busy := f.svc.Start(ctx)
	f.clock.Advance(5 * time.Minute)

	_, err := f.svc.Get(ctx, busy.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, f.svc.Sweep(f.clock.Now()))
	_, err = f.svc.Get(ctx, idle.ID)
	assert.ErrorIs(t, err, wizard.ErrNotFound)
	_, err = f.svc.Get(ctx, busy.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Active()))

	assert.Equal(t, 0, f.svc.Sweep(f.clock.Now()))
}

// Concurrent advances on one session are serialised: exactly one wins and
// the rest see the step has moved on.
func TestService_ConcurrentAdvanceSameSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.svc.Start(ctx)

	const n = 16
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		mismatch int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs, err := f.svc.Advance(ctx, v.ID, validPersonal())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && errs == nil:
				ok++
			case errors.Is(err, intake.ErrStepMismatch):
				mismatch++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, mismatch)
	got, err := f.svc.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, intake.StepJobDetails, got.Step)
}

// Different sessions do not interfere.
func TestService_IndependentSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := f.svc.Start(ctx)
			ids[i] = v.ID
			for _, d := range []intake.StepData{validPersonal(), validJob()} {
				_, errs, err := f.svc.Advance(ctx, v.ID, d)
				assert.NoError(t, err)
				assert.Nil(t, errs)
			}
		}()
	}
	wg.Wait()

	for _, id := range ids {
		v, err := f.svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, intake.StepSkillsPreferences, v.Step)
	}
}

func TestService_PublishFailureIsNonFatal(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("redis down")
	ctx := context.Background()
	v := f.svc.Start(ctx)

	got, errs, err := f.svc.Advance(ctx, v.ID, validPersonal())
	require.NoError(t, err)
	require.Nil(t, errs)
	assert.Equal(t, intake.StepJobDetails, got.Step)
}

func TestService_NoPublisher(t *testing.T) {
	rules := intake.NewRules(catalog.Default())
	svc := wizard.NewService(intake.NewController(rules))
	v := svc.Start(context.Background())
	assert.Equal(t, intake.StepPersonalInfo, v.Step)
	_, err := svc.Retreat(context.Background(), v.ID)
	assert.NoError(t, err)
}
