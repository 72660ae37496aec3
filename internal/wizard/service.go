// Package wizard holds the intake sessions of the service. Each session owns
// one intake.State; every operation on a session is serialised by that
// session's lock while different sessions proceed independently.
// It is transport-agnostic: used by the HTTP handler and the gRPC server.
package wizard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"jobmate/intake-service/internal/catalog"
	"jobmate/intake-service/internal/intake"
)

// DefaultTTL is how long an untouched session is kept.
const DefaultTTL = 30 * time.Minute

// ErrNotFound is returned for an unknown or already discarded session.
var ErrNotFound = errors.New("session not found")

// View is the state of a session as shown to a client.
type View struct {
	ID       string          `json:"id"`
	Step     intake.Step     `json:"step"`
	Title    string          `json:"title"`
	Progress int             `json:"progress"`
	Saved    intake.StepData `json:"saved,omitempty"`
	Record   intake.Record   `json:"record"`
}

func viewOf(id string, st intake.State) View {
	return View{
		ID:       id,
		Step:     st.Step,
		Title:    st.Step.Title(),
		Progress: st.Step.Progress(),
		Saved:    st.Saved(),
		Record:   st.Record.Clone(),
	}
}

type session struct {
	mu    sync.Mutex
	state intake.State
	seen  time.Time
}

// ─── Service ─────────────────────────────────────────────────────────────────

// Service owns the in-memory sessions. Nothing is persisted: a session ends
// when End is called or when it has been idle longer than the TTL.
type Service struct {
	ctrl    *intake.Controller
	pub     Publisher
	metrics *Metrics
	ttl     time.Duration
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher publishes step events through p.
func WithPublisher(p Publisher) Option { return func(s *Service) { s.pub = p } }

// WithMetrics records counters on m.
func WithMetrics(m *Metrics) Option { return func(s *Service) { s.metrics = m } }

// WithTTL sets the idle timeout used by Sweep.
func WithTTL(d time.Duration) Option { return func(s *Service) { s.ttl = d } }

// WithClock overrides the clock used for idle tracking.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// NewService returns a Service driving ctrl.
func NewService(ctrl *intake.Controller, opts ...Option) *Service {
	s := &Service{
		ctrl:     ctrl,
		ttl:      DefaultTTL,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the lookup tables the sessions validate against.
func (s *Service) Catalog() *catalog.Catalog { return s.ctrl.Rules().Catalog() }

// Start opens a new session at the first step.
func (s *Service) Start(ctx context.Context) View {
	id := uuid.NewString()
	sess := &session{state: intake.NewState(), seen: s.now()}

	s.mu.Lock()
	s.sessions[id] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	s.metrics.sessions(n)
	slog.Debug("intake session started", "session", id)
	return viewOf(id, sess.state)
}

// Get returns the current view of session id.
func (s *Service) Get(ctx context.Context, id string) (View, error) {
	var v View
	err := s.with(id, func(sess *session) error {
		v = viewOf(id, sess.state)
		return nil
	})
	return v, err
}

// Draft runs the derived-field engine over an in-progress draft without
// storing anything.
func (s *Service) Draft(ctx context.Context, id string, draft intake.StepData) (intake.StepData, intake.Hints, error) {
	var (
		out   intake.StepData
		hints intake.Hints
	)
	err := s.with(id, func(sess *session) error {
		var err error
		out, hints, err = s.ctrl.Derive(sess.state, draft)
		return err
	})
	return out, hints, err
}

// Advance validates draft against the active step and, when it passes, moves
// the session forward. Field errors are returned as data with the unchanged
// view.
func (s *Service) Advance(ctx context.Context, id string, draft intake.StepData) (View, intake.FieldErrors, error) {
	var (
		v    View
		errs intake.FieldErrors
	)
	err := s.with(id, func(sess *session) error {
		from := sess.state.Step
		next, fe, err := s.ctrl.Advance(sess.state, draft)
		if err != nil {
			s.logTransitionError(id, from, err)
			return err
		}
		s.metrics.advance(string(from), fe == nil)
		if fe != nil {
			slog.Debug("intake step rejected", "session", id, "step", from, "fields", fe.Fields())
			errs, v = fe, viewOf(id, sess.state)
			return nil
		}
		sess.state = next
		v = viewOf(id, next)
		s.transitioned(ctx, id, from, next.Step)
		return nil
	})
	return v, errs, err
}

// Retreat moves the session one step back.
func (s *Service) Retreat(ctx context.Context, id string) (View, error) {
	var v View
	err := s.with(id, func(sess *session) error {
		from := sess.state.Step
		next, err := s.ctrl.Retreat(sess.state)
		if err != nil {
			s.logTransitionError(id, from, err)
			return err
		}
		sess.state = next
		v = viewOf(id, next)
		if next.Step != from {
			s.transitioned(ctx, id, from, next.Step)
		}
		return nil
	})
	return v, err
}

// Review returns the summary of a session whose data steps are complete.
func (s *Service) Review(ctx context.Context, id string) (intake.Summary, error) {
	var sum intake.Summary
	err := s.with(id, func(sess *session) error {
		var err error
		sum, err = s.ctrl.Review(sess.state)
		return err
	})
	return sum, err
}

// Submit finalises the session from the review step.
func (s *Service) Submit(ctx context.Context, id string, confirmed bool) (View, intake.FieldErrors, error) {
	var (
		v    View
		errs intake.FieldErrors
	)
	err := s.with(id, func(sess *session) error {
		from := sess.state.Step
		next, fe, err := s.ctrl.Submit(sess.state, confirmed)
		if err != nil {
			s.logTransitionError(id, from, err)
			return err
		}
		if fe != nil {
			errs, v = fe, viewOf(id, sess.state)
			return nil
		}
		sess.state = next
		v = viewOf(id, next)
		s.transitioned(ctx, id, from, next.Step)
		return nil
	})
	return v, errs, err
}

// End discards session id.
func (s *Service) End(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	s.metrics.sessions(n)
	slog.Debug("intake session ended", "session", id)
	return nil
}

// Sweep discards every session idle since before now minus the TTL and
// returns how many were dropped. Sessions busy in an operation are skipped.
func (s *Service) Sweep(now time.Time) int {
	cutoff := now.Add(-s.ttl)

	s.mu.Lock()
	dropped := 0
	for id, sess := range s.sessions {
		if !sess.mu.TryLock() {
			continue
		}
		if sess.seen.Before(cutoff) {
			delete(s.sessions, id)
			dropped++
		}
		sess.mu.Unlock()
	}
	n := len(s.sessions)
	s.mu.Unlock()

	s.metrics.sessions(n)
	return dropped
}

// Len returns the number of live sessions.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// with runs fn holding session id's lock and marks the session as seen.
func (s *Service) with(id string, fn func(*session) error) error {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	// A sweep may have dropped the session before its lock was taken.
	s.mu.RLock()
	live := s.sessions[id] == sess
	s.mu.RUnlock()
	if !live {
		return ErrNotFound
	}

	sess.seen = s.now()
	return fn(sess)
}

func (s *Service) transitioned(ctx context.Context, id string, from, to intake.Step) {
	if to == intake.StepSubmitted {
		s.metrics.submitted()
		slog.Info("intake submitted", "session", id)
		s.publish(ctx, EventSubmitted, map[string]string{"sessionId": id})
		return
	}
	s.publish(ctx, EventStep, map[string]string{
		"sessionId": id,
		"from":      string(from),
		"to":        string(to),
	})
}

func (s *Service) logTransitionError(id string, step intake.Step, err error) {
	if errors.Is(err, intake.ErrSubmitted) {
		slog.Error("transition attempted after submit", "session", id, "err", err)
		return
	}
	slog.Warn("transition refused", "session", id, "step", step, "err", err)
}
