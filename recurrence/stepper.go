package recurrence

import (
	"slices"
	"time"

	"github.com/samber/mo"
)

// Stepper walks one frequency family over calendar dates.
// Align returns the first valid occurrence on or after anchor; Advance the
// occurrence following a valid one. The bool is false when no date can be produced.
type Stepper interface {
	Align(anchor time.Time) (time.Time, bool)
	Advance(current time.Time) (time.Time, bool)
}

// Stepper selects the stepping rules for r once. anchor supplies the implicit
// weekday and day-of-month when the rule does not name them.
func (r Rule) Stepper(anchor time.Time) Stepper {
	interval := CoerceInterval(mo.Some(r.Interval))
	anchor = DateOf(anchor)

	switch r.Frequency {
	case FrequencyWeekly:
		return newWeekly(r, anchor, interval)
	case FrequencyMonthly:
		return newMonthly(r, anchor, interval)
	case FrequencyCustom:
		switch r.CustomUnit {
		case UnitWeeks:
			return newWeekly(r, anchor, interval)
		case UnitMonths:
			return newMonthly(r, anchor, interval)
		}
	}
	return dailyStepper{interval: interval}
}

type dailyStepper struct {
	interval int
}

func (s dailyStepper) Align(anchor time.Time) (time.Time, bool) {
	return DateOf(anchor), true
}

func (s dailyStepper) Advance(current time.Time) (time.Time, bool) {
	return addDays(DateOf(current), s.interval), true
}

type weeklyStepper struct {
	days     []int
	interval int
}

func newWeekly(r Rule, anchor time.Time, interval int) weeklyStepper {
	days := slices.Clone(r.WeeklyDays)
	if len(days) == 0 {
		days = []int{WeekdayIndex(anchor)}
	}
	slices.Sort(days)
	return weeklyStepper{days: slices.Compact(days), interval: interval}
}

func (s weeklyStepper) Align(anchor time.Time) (time.Time, bool) {
	return s.next(DateOf(anchor), true)
}

func (s weeklyStepper) Advance(current time.Time) (time.Time, bool) {
	return s.next(DateOf(current), false)
}

// next scans the rest of d's week for a target day, then jumps interval weeks.
func (s weeklyStepper) next(d time.Time, inclusive bool) (time.Time, bool) {
	if len(s.days) == 0 {
		return time.Time{}, false
	}
	today := WeekdayIndex(d)
	for _, day := range s.days {
		if day > today || (inclusive && day == today) {
			return addDays(d, day-today), true
		}
	}
	weekStart := addDays(d, -today)
	return addDays(weekStart, 7*s.interval+s.days[0]), true
}

type monthlyStepper struct {
	day      int
	interval int
}

func newMonthly(r Rule, anchor time.Time, interval int) monthlyStepper {
	day := r.MonthlyDay.OrElse(anchor.Day())
	return monthlyStepper{day: max(1, min(day, 31)), interval: interval}
}

// in builds the target day inside the month of d, clamped to its length.
func (s monthlyStepper) in(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), min(s.day, DaysIn(d.Year(), d.Month())), 0, 0, 0, 0, time.UTC)
}

func (s monthlyStepper) Align(anchor time.Time) (time.Time, bool) {
	anchor = DateOf(anchor)
	candidate := s.in(anchor)
	if candidate.Before(anchor) {
		candidate = s.in(AddMonths(candidate, s.interval))
	}
	return candidate, true
}

func (s monthlyStepper) Advance(current time.Time) (time.Time, bool) {
	return s.in(AddMonths(DateOf(current), s.interval)), true
}
