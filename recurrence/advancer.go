package recurrence

import (
	"time"

	"github.com/samber/mo"
)

// NextOccurrence is the candidate instance that follows a completed one.
type NextOccurrence struct {
	Start            mo.Option[time.Time]
	End              mo.Option[time.Time]
	Index            int
	SeriesShouldStop bool
}

// Advance steps the occurrence starting at currentStart once. The time of day
// of currentStart is kept and currentEnd is shifted by the original duration.
func Advance(currentStart, currentEnd mo.Option[time.Time], rule Rule) (mo.Option[time.Time], mo.Option[time.Time]) {
	start, ok := currentStart.Get()
	if !ok {
		return mo.None[time.Time](), mo.None[time.Time]()
	}

	nextDate, ok := rule.Stepper(start).Advance(DateOf(start))
	if !ok {
		return mo.None[time.Time](), mo.None[time.Time]()
	}
	nextStart := time.Date(nextDate.Year(), nextDate.Month(), nextDate.Day(),
		start.Hour(), start.Minute(), start.Second(), start.Nanosecond(), start.Location())

	end, ok := currentEnd.Get()
	if !ok {
		return mo.Some(nextStart), mo.None[time.Time]()
	}
	return mo.Some(nextStart), mo.Some(nextStart.Add(end.Sub(start)))
}

// ShouldStop reports whether the occurrence numbered nextIndex, starting at
// nextStart, falls outside the series.
func ShouldStop(rule Rule, nextIndex int, nextStart time.Time) bool {
	switch rule.EndCondition {
	case EndAfter:
		return rule.EndAfterOccurrences > 0 && nextIndex > rule.EndAfterOccurrences
	case EndOnDate:
		limit, ok := rule.EndDate.Get()
		return ok && DateOf(nextStart).After(DateOf(limit))
	default:
		return false
	}
}

// Next advances the occurrence numbered currentIndex and decides whether the
// series continues past it.
func Next(currentStart, currentEnd mo.Option[time.Time], rule Rule, currentIndex int) NextOccurrence {
	start, end := Advance(currentStart, currentEnd, rule)
	next := NextOccurrence{Start: start, End: end, Index: max(currentIndex, 0) + 1}
	if s, ok := start.Get(); ok {
		next.SeriesShouldStop = ShouldStop(rule, next.Index, s)
	} else {
		next.SeriesShouldStop = true
	}
	return next
}

// Preview lists up to limit occurrences following the one numbered fromIndex,
// stopping early when the series ends.
func Preview(start, end mo.Option[time.Time], rule Rule, fromIndex, limit int) []NextOccurrence {
	var out []NextOccurrence
	for len(out) < limit {
		next := Next(start, end, rule, fromIndex)
		if next.SeriesShouldStop {
			break
		}
		out = append(out, next)
		start, end, fromIndex = next.Start, next.End, next.Index
	}
	return out
}
