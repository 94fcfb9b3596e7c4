package recurrence

import (
	"errors"
	"time"

	"github.com/samber/mo"
)

// DefaultMaxSteps bounds the forward walk of a single resolution.
const DefaultMaxSteps = 500

var ErrNilSchedule = errors.New("recurrence: nil schedule")

// Schedule is the resolver's view of a task: its persisted dates and rule.
// A nil Rule means the task has no recurrence configured.
type Schedule struct {
	StartDate mo.Option[time.Time]
	EndDate   mo.Option[time.Time]
	Rule      *Rule
}

// BaseDueDate is the end date when present, else the start date.
func (s Schedule) BaseDueDate() mo.Option[time.Time] {
	if d, ok := s.EndDate.Get(); ok {
		return mo.Some(DateOf(d))
	}
	if d, ok := s.StartDate.Get(); ok {
		return mo.Some(DateOf(d))
	}
	return mo.None[time.Time]()
}

// Outcome tells how a resolution terminated.
type Outcome int

const (
	// OutcomeStatic: the task does not recur, the base due date is returned as is.
	OutcomeStatic Outcome = iota
	// OutcomeUndated: recurrence is enabled but the task has no date to start from.
	OutcomeUndated
	// OutcomeDue: the walk reached an occurrence on or after the reference date.
	OutcomeDue
	// OutcomeSeriesEnded: an occurrence count or end date stopped the series first.
	OutcomeSeriesEnded
	// OutcomeStalled: the rule could not align or stopped moving forward.
	OutcomeStalled
	// OutcomeInconclusive: the step cap ran out before any other condition held.
	OutcomeInconclusive
)

func (o Outcome) String() string {
	switch o {
	case OutcomeStatic:
		return "static"
	case OutcomeUndated:
		return "undated"
	case OutcomeDue:
		return "due"
	case OutcomeSeriesEnded:
		return "series_ended"
	case OutcomeStalled:
		return "stalled"
	case OutcomeInconclusive:
		return "inconclusive"
	default:
		return "unknown"
	}
}

// Result is the effective due date of a task as of a reference instant.
type Result struct {
	DueDate     mo.Option[time.Time]
	IsRecurring bool
	Outcome     Outcome
	Steps       int
}

// Inconclusive reports whether the step cap was exhausted.
func (r Result) Inconclusive() bool {
	return r.Outcome == OutcomeInconclusive
}

type Resolver struct {
	MaxSteps int
}

type ResolverOption func(*Resolver)

func WithMaxSteps(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.MaxSteps = n
		}
	}
}

func NewResolver(opts ...ResolverOption) Resolver {
	r := Resolver{MaxSteps: DefaultMaxSteps}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Resolve uses a resolver with the default step cap.
func Resolve(s *Schedule, reference time.Time) (Result, error) {
	return NewResolver().Resolve(s, reference)
}

// Resolve computes the due date active at reference for s.
func (r Resolver) Resolve(s *Schedule, reference time.Time) (Result, error) {
	if s == nil {
		return Result{}, ErrNilSchedule
	}

	baseDue := s.BaseDueDate()
	if s.Rule == nil || !s.Rule.Enabled {
		return Result{DueDate: baseDue, Outcome: OutcomeStatic}, nil
	}

	due, ok := baseDue.Get()
	if !ok {
		return Result{IsRecurring: true, Outcome: OutcomeUndated}, nil
	}

	anchor := due
	if start, ok := s.StartDate.Get(); ok {
		anchor = DateOf(start)
	}
	return r.walk(*s.Rule, s.Rule.Stepper(anchor), due, DateOf(reference)), nil
}

func (r Resolver) walk(rule Rule, stepper Stepper, due, reference time.Time) Result {
	recurring := func(d time.Time, outcome Outcome, steps int) Result {
		return Result{DueDate: mo.Some(d), IsRecurring: true, Outcome: outcome, Steps: steps}
	}

	current, ok := stepper.Align(due)
	if !ok {
		return recurring(due, OutcomeStalled, 0)
	}

	limit, hasLimit := rule.EndDate.Get()
	hasLimit = hasLimit && rule.EndCondition == EndOnDate
	maxCount := 0
	if rule.EndCondition == EndAfter {
		maxCount = rule.EndAfterOccurrences
	}

	if hasLimit && current.After(limit) {
		return recurring(limit, OutcomeSeriesEnded, 0)
	}

	maxSteps := r.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	previous := mo.None[time.Time]()
	index := 1
	for step := 0; step < maxSteps; step++ {
		if hasLimit && current.After(limit) {
			return recurring(previous.OrElse(limit), OutcomeSeriesEnded, step)
		}
		if maxCount > 0 && index > maxCount {
			return recurring(previous.OrElse(current), OutcomeSeriesEnded, step)
		}
		if !current.Before(reference) {
			return recurring(current, OutcomeDue, step)
		}

		next, ok := stepper.Advance(current)
		if !ok || !next.After(current) {
			return recurring(current, OutcomeStalled, step)
		}
		previous = mo.Some(current)
		current = next
		index++
	}
	return recurring(current, OutcomeInconclusive, maxSteps)
}
