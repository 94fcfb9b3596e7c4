package recurrence

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"
)

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyCustom  Frequency = "custom"
)

type Unit string

const (
	UnitDays   Unit = "days"
	UnitWeeks  Unit = "weeks"
	UnitMonths Unit = "months"
)

type EndCondition string

const (
	EndNever  EndCondition = "never"
	EndAfter  EndCondition = "after"
	EndOnDate EndCondition = "onDate"
)

// weekdays maps the first three letters of a day name to its index, Monday first.
var weekdays = map[string]int{
	"mon": 0,
	"tue": 1,
	"wed": 2,
	"thu": 3,
	"fri": 4,
	"sat": 5,
	"sun": 6,
}

// Rule is the normalized recurrence configuration of a task.
// When Enabled is false no other field is meaningful.
type Rule struct {
	Enabled             bool
	Frequency           Frequency
	Interval            int
	WeeklyDays          []int
	MonthlyDay          mo.Option[int]
	CustomUnit          Unit
	EndCondition        EndCondition
	EndAfterOccurrences int
	EndDate             mo.Option[time.Time]
}

// Step is the interval actually used for arithmetic, never below 1.
func (r Rule) Step() int {
	return CoerceInterval(mo.Some(r.Interval))
}

// key spellings accepted for every field
var ruleKeys = map[string][]string{
	"enabled":               {"enabled"},
	"frequency":             {"frequency"},
	"interval":              {"interval"},
	"weekly_days":           {"weeklyDays", "weekly_days"},
	"monthly_day":           {"monthlyDay", "monthly_day"},
	"custom_unit":           {"customUnit", "custom_unit"},
	"end_condition":         {"endCondition", "end_condition"},
	"end_after_occurrences": {"endAfterOccurrences", "end_after_occurrences"},
	"end_date":              {"endDate", "end_date"},
}

// Lookup reads a rule field from a raw object under any accepted spelling.
// field is the snake_case name.
func Lookup(m map[string]any, field string) (any, bool) {
	for _, key := range ruleKeys[field] {
		if v, ok := m[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// FromMap normalizes a raw recurrence object, in either camelCase or snake_case,
// into a Rule. Malformed sub-fields fall back to safe defaults instead of failing.
func FromMap(m map[string]any) Rule {
	if m == nil {
		return Rule{}
	}
	enabled, _ := Lookup(m, "enabled")
	if !toBool(enabled) {
		return Rule{}
	}

	rule := Rule{
		Enabled:      true,
		Frequency:    FrequencyDaily,
		Interval:     1,
		CustomUnit:   UnitDays,
		EndCondition: EndNever,
	}

	if v, ok := Lookup(m, "frequency"); ok {
		rule.Frequency = ParseFrequency(v)
	}
	if v, ok := Lookup(m, "interval"); ok {
		rule.Interval = CoerceInterval(toInt(v))
	}
	if v, ok := Lookup(m, "weekly_days"); ok {
		rule.WeeklyDays = ParseWeekdays(v)
	}
	if v, ok := Lookup(m, "monthly_day"); ok {
		if day, ok := toInt(v).Get(); ok {
			rule.MonthlyDay = mo.Some(day)
		}
	}
	if v, ok := Lookup(m, "custom_unit"); ok {
		rule.CustomUnit = ParseUnit(v)
	}
	if v, ok := Lookup(m, "end_condition"); ok {
		rule.EndCondition = ParseEndCondition(v)
	}
	if v, ok := Lookup(m, "end_after_occurrences"); ok {
		if n, ok := toInt(v).Get(); ok && n > 0 {
			rule.EndAfterOccurrences = n
		}
	}
	if v, ok := Lookup(m, "end_date"); ok {
		rule.EndDate = ParseDate(v)
	}
	return rule
}

// ToMap returns the canonical snake_case form used for persistence.
func (r Rule) ToMap() map[string]any {
	if !r.Enabled {
		return map[string]any{"enabled": false}
	}
	m := map[string]any{
		"enabled":       true,
		"frequency":     string(r.Frequency),
		"interval":      CoerceInterval(mo.Some(r.Interval)),
		"custom_unit":   string(r.CustomUnit),
		"end_condition": string(r.EndCondition),
	}
	if len(r.WeeklyDays) > 0 {
		days := make([]any, len(r.WeeklyDays))
		for i, d := range r.WeeklyDays {
			days[i] = d
		}
		m["weekly_days"] = days
	}
	if day, ok := r.MonthlyDay.Get(); ok {
		m["monthly_day"] = day
	}
	if r.EndAfterOccurrences > 0 {
		m["end_after_occurrences"] = r.EndAfterOccurrences
	}
	if d, ok := r.EndDate.Get(); ok {
		m["end_date"] = d.Format(DateLayout)
	}
	return m
}

type ruleJSON struct {
	Enabled             bool   `json:"enabled"`
	Frequency           string `json:"frequency,omitempty"`
	Interval            int    `json:"interval,omitempty"`
	WeeklyDays          []int  `json:"weeklyDays,omitempty"`
	MonthlyDay          *int   `json:"monthlyDay,omitempty"`
	CustomUnit          string `json:"customUnit,omitempty"`
	EndCondition        string `json:"endCondition,omitempty"`
	EndAfterOccurrences int    `json:"endAfterOccurrences,omitempty"`
	EndDate             string `json:"endDate,omitempty"`
}

func (r Rule) MarshalJSON() ([]byte, error) {
	out := ruleJSON{Enabled: r.Enabled}
	if r.Enabled {
		out.Frequency = string(r.Frequency)
		out.Interval = CoerceInterval(mo.Some(r.Interval))
		out.WeeklyDays = r.WeeklyDays
		out.CustomUnit = string(r.CustomUnit)
		out.EndCondition = string(r.EndCondition)
		out.EndAfterOccurrences = r.EndAfterOccurrences
		if day, ok := r.MonthlyDay.Get(); ok {
			out.MonthlyDay = &day
		}
		if d, ok := r.EndDate.Get(); ok {
			out.EndDate = d.Format(DateLayout)
		}
	}
	return json.Marshal(out)
}

func (r *Rule) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*r = FromMap(raw)
	return nil
}

func ParseFrequency(v any) Frequency {
	s, _ := v.(string)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weekly":
		return FrequencyWeekly
	case "monthly":
		return FrequencyMonthly
	case "custom":
		return FrequencyCustom
	default:
		return FrequencyDaily
	}
}

func ParseUnit(v any) Unit {
	s, _ := v.(string)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weeks", "week":
		return UnitWeeks
	case "months", "month":
		return UnitMonths
	default:
		return UnitDays
	}
}

func ParseEndCondition(v any) EndCondition {
	s, _ := v.(string)
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "")) {
	case "after":
		return EndAfter
	case "ondate":
		return EndOnDate
	default:
		return EndNever
	}
}

// CoerceInterval maps absent or non-positive intervals to 1.
func CoerceInterval(v mo.Option[int]) int {
	if n, ok := v.Get(); ok && n > 0 {
		return n
	}
	return 1
}

// ParseWeekday accepts an index 0-6 or a day name whose first three letters
// identify the day, case-insensitively.
func ParseWeekday(v any) (int, bool) {
	if s, ok := v.(string); ok {
		s = strings.ToLower(strings.TrimSpace(s))
		if len(s) >= 3 {
			if d, ok := weekdays[s[:3]]; ok {
				return d, true
			}
		}
		if n, err := strconv.Atoi(s); err == nil && n >= 0 && n <= 6 {
			return n, true
		}
		return 0, false
	}
	n, ok := toInt(v).Get()
	if !ok || n < 0 || n > 6 {
		return 0, false
	}
	return n, true
}

// ParseWeekdays decodes any slice of weekday values (or a comma separated
// string), dropping unknown entries and duplicates. The result is sorted.
func ParseWeekdays(v any) []int {
	var items []any
	switch t := v.(type) {
	case string:
		for _, part := range strings.Split(t, ",") {
			items = append(items, part)
		}
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil
		}
		for i := 0; i < rv.Len(); i++ {
			items = append(items, rv.Index(i).Interface())
		}
	}

	seen := make(map[int]bool)
	var days []int
	for _, item := range items {
		d, ok := ParseWeekday(item)
		if !ok || seen[d] {
			continue
		}
		seen[d] = true
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}

func toBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return err == nil && b
	default:
		return false
	}
}

func toInt(v any) mo.Option[int] {
	switch t := v.(type) {
	case int:
		return mo.Some(t)
	case int8:
		return mo.Some(int(t))
	case int16:
		return mo.Some(int(t))
	case int32:
		return mo.Some(int(t))
	case int64:
		return mo.Some(int(t))
	case uint:
		return mo.Some(int(t))
	case uint8:
		return mo.Some(int(t))
	case uint16:
		return mo.Some(int(t))
	case uint32:
		return mo.Some(int(t))
	case uint64:
		return mo.Some(int(t))
	case float32:
		return mo.Some(int(t))
	case float64:
		return mo.Some(int(t))
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return mo.Some(int(n))
		}
		if f, err := t.Float64(); err == nil {
			return mo.Some(int(f))
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return mo.Some(n)
		}
	}
	return mo.None[int]()
}
