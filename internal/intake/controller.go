package intake

import "fmt"

// State is one applicant's progress: the active step and the answers
// accumulated so far. It is a plain value; every Controller operation returns
// a new State and leaves its input untouched.
type State struct {
	Step   Step   `json:"step"`
	Record Record `json:"record"`
}

// NewState returns the state of a fresh session: first step, empty record.
func NewState() State {
	return State{Step: StepPersonalInfo}
}

// CurrentStep returns the active step.
func (s State) CurrentStep() Step { return s.Step }

// Saved returns the stored answers for the active step, for pre-filling the
// form when the applicant returns to it. It is nil when the step has none yet.
func (s State) Saved() StepData { return s.Record.Slice(s.Step) }

// Controller drives the step state machine. It holds no per-session state and
// is safe for concurrent use across different States.
type Controller struct {
	rules *Rules
}

// NewController returns a Controller evaluating rules.
func NewController(rules *Rules) *Controller {
	return &Controller{rules: rules}
}

// Rules returns the rule sets the controller validates against.
func (c *Controller) Rules() *Rules { return c.rules }

// Facts returns the cross-step facts of s as of today.
func (c *Controller) Facts(s State) Facts {
	return FactsFor(s.Record, c.rules.Today())
}

// CurrentStep returns the active step of s.
func (c *Controller) CurrentStep(s State) Step { return s.Step }

// Advance validates data against the active step. On success the normalised
// data replaces that step's slice of the record and the step moves forward by
// one. On failure the state is returned unchanged together with the field
// errors.
//
// At the review step data must be a Confirmation and Advance behaves like
// Submit. The returned error is non-nil only for integration mistakes: the
// state is already SUBMITTED, or data belongs to another step.
func (c *Controller) Advance(s State, data StepData) (State, FieldErrors, error) {
	if s.Step.IsTerminal() {
		return s, nil, ErrSubmitted
	}
	if data == nil || data.Step() != s.Step {
		return s, nil, fmt.Errorf("%w: got %T at %s", ErrStepMismatch, data, s.Step)
	}
	if conf, ok := data.(Confirmation); ok {
		return c.Submit(s, conf.Confirm)
	}

	facts := c.Facts(s)
	draft, _ := c.rules.Derive(data, facts)
	valid, errs := c.rules.Validate(s.Step, draft, facts)
	if errs != nil {
		return s, errs, nil
	}
	return State{Step: s.Step.next(), Record: s.Record.merge(valid)}, nil, nil
}

// Retreat moves one step back without validating. At the first step it is a
// no-op. Answers already in the record are kept.
func (c *Controller) Retreat(s State) (State, error) {
	if s.Step.IsTerminal() {
		return s, ErrSubmitted
	}
	return State{Step: s.Step.prev(), Record: s.Record.Clone()}, nil
}

// Submit finalises the intake from the review step. An unconfirmed submit
// yields a "confirm" field error and leaves the state unchanged.
func (c *Controller) Submit(s State, confirmed bool) (State, FieldErrors, error) {
	switch {
	case s.Step.IsTerminal():
		return s, nil, ErrSubmitted
	case s.Step != StepReview:
		return s, nil, fmt.Errorf("%w (active step %s)", ErrNotAtReview, s.Step)
	case !s.Record.Complete():
		return s, nil, ErrIncomplete
	}
	if _, errs := c.rules.ValidateConfirmation(Confirmation{Confirm: confirmed}); errs != nil {
		return s, errs, nil
	}
	rec := s.Record.Clone()
	rec.Confirmed = true
	return State{Step: StepSubmitted, Record: rec}, nil, nil
}

// Derive recomputes the dependent fields of an in-progress draft for the
// active step of s. See Rules.Derive.
func (c *Controller) Derive(s State, draft StepData) (StepData, Hints, error) {
	if s.Step.IsTerminal() {
		return nil, Hints{}, ErrSubmitted
	}
	if draft == nil || draft.Step() != s.Step {
		return nil, Hints{}, fmt.Errorf("%w: got %T at %s", ErrStepMismatch, draft, s.Step)
	}
	d, h := c.rules.Derive(draft, c.Facts(s))
	return d, h, nil
}
