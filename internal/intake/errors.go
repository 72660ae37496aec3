package intake

import (
	"errors"
	"sort"
	"strings"
)

// FieldErrors maps a field path (e.g. "startDate", "experience[Go]",
// "preferWorkTime.end") to a user-facing message. It is returned as data, never
// as an error: the UI renders it inline next to each field.
type FieldErrors map[string]string

// Add records msg for path unless path already has a message.
func (fe FieldErrors) Add(path, msg string) {
	if _, ok := fe[path]; !ok {
		fe[path] = msg
	}
}

// Has reports whether path has an error.
func (fe FieldErrors) Has(path string) bool {
	_, ok := fe[path]
	return ok
}

// Fields returns the failing paths in sorted order.
func (fe FieldErrors) Fields() []string {
	out := make([]string, 0, len(fe))
	for k := range fe {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (fe FieldErrors) String() string {
	var b strings.Builder
	for i, k := range fe.Fields() {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(fe[k])
	}
	return b.String()
}

func (fe FieldErrors) orNil() FieldErrors {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// ─── Sentinel errors ─────────────────────────────────────────────────────────
//
// These are integration errors: the caller drove the state machine in a way
// the UI should never allow. They are not shown to the applicant.

// ErrSubmitted is returned for any transition attempted after SUBMITTED.
var ErrSubmitted = errors.New("intake already submitted")

// ErrStepMismatch is returned when the data passed to Advance belongs to a
// different step than the active one.
var ErrStepMismatch = errors.New("step data does not match the active step")

// ErrNotAtReview is returned when Submit is called before the review step.
var ErrNotAtReview = errors.New("submit is only allowed from the review step")

// ErrIncomplete is returned when the review is requested before every data
// step has been completed.
var ErrIncomplete = errors.New("intake record is incomplete")
