package recurrence

import (
	"strings"
	"time"

	"github.com/samber/mo"
)

// DateLayout is the wire format of a calendar date.
const DateLayout = "2006-01-02"

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
	DateLayout,
}

// ParseInstant decodes a date-only string, an ISO-8601 timestamp or an already
// structured time value. Anything else yields None.
func ParseInstant(v any) mo.Option[time.Time] {
	switch t := v.(type) {
	case nil:
		return mo.None[time.Time]()
	case time.Time:
		if t.IsZero() {
			return mo.None[time.Time]()
		}
		return mo.Some(t)
	case *time.Time:
		if t == nil || t.IsZero() {
			return mo.None[time.Time]()
		}
		return mo.Some(*t)
	case mo.Option[time.Time]:
		return t
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return mo.None[time.Time]()
		}
		for _, layout := range instantLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return mo.Some(parsed)
			}
		}
		return mo.None[time.Time]()
	case interface{ Time() time.Time }:
		return ParseInstant(t.Time())
	default:
		return mo.None[time.Time]()
	}
}

// ParseDate is ParseInstant reduced to the calendar date, as midnight UTC.
func ParseDate(v any) mo.Option[time.Time] {
	if t, ok := ParseInstant(v).Get(); ok {
		return mo.Some(DateOf(t))
	}
	return mo.None[time.Time]()
}

// DateOf drops the clock part of t, keeping the calendar date seen in t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// WeekdayIndex numbers days from Monday=0 to Sunday=6.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// AddMonths moves d by n months and clamps the day to the length of the target month.
func AddMonths(d time.Time, n int) time.Time {
	index := int(d.Month()) - 1 + n
	year := d.Year() + floorDiv(index, 12)
	month := time.Month(index - floorDiv(index, 12)*12 + 1)
	day := min(d.Day(), DaysIn(year, month))
	return time.Date(year, month, day, d.Hour(), d.Minute(), d.Second(), d.Nanosecond(), d.Location())
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func addDays(d time.Time, n int) time.Time {
	return d.AddDate(0, 0, n)
}
