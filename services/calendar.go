package services

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"taskboard/model"
	"taskboard/recurrence"

	"github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"
)

const calendarProductID = "-//taskboard//Recurring Tasks//EN"

var ErrNotExportable = errors.New("task has no start date to export")

var rruleWeekdays = []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU}

// ToRRule expresses rule as an RFC 5545 recurrence anchored at start. The
// occurrence numbered fromIndex is the first one produced; an After-N limit
// only counts the occurrences still left from there.
func ToRRule(rule recurrence.Rule, start time.Time, fromIndex int) (*rrule.RRule, error) {
	if !rule.Enabled {
		return nil, errors.New("recurrence is not enabled")
	}

	stepper := rule.Stepper(start)
	first, ok := stepper.Align(recurrence.DateOf(start))
	if !ok {
		return nil, errors.New("recurrence cannot be aligned")
	}
	dtstart := time.Date(first.Year(), first.Month(), first.Day(),
		start.Hour(), start.Minute(), start.Second(), 0, start.Location())

	opt := rrule.ROption{
		Dtstart:  dtstart,
		Interval: rule.Step(),
		Wkst:     rrule.MO,
	}

	switch unitOf(rule) {
	case recurrence.UnitWeeks:
		opt.Freq = rrule.WEEKLY
		days := rule.WeeklyDays
		if len(days) == 0 {
			days = []int{recurrence.WeekdayIndex(start)}
		}
		for _, d := range days {
			opt.Byweekday = append(opt.Byweekday, rruleWeekdays[d])
		}
	case recurrence.UnitMonths:
		opt.Freq = rrule.MONTHLY
		day := min(max(rule.MonthlyDay.OrElse(start.Day()), 1), 31)
		if day <= 28 {
			opt.Bymonthday = []int{day}
		} else {
			// last available day up to the target, so short months clamp
			for d := 28; d <= day; d++ {
				opt.Bymonthday = append(opt.Bymonthday, d)
			}
			opt.Bysetpos = []int{-1}
		}
	default:
		opt.Freq = rrule.DAILY
	}

	switch rule.EndCondition {
	case recurrence.EndAfter:
		if rule.EndAfterOccurrences > 0 {
			opt.Count = max(rule.EndAfterOccurrences-max(fromIndex, 1)+1, 1)
		}
	case recurrence.EndOnDate:
		if limit, ok := rule.EndDate.Get(); ok {
			opt.Until = time.Date(limit.Year(), limit.Month(), limit.Day(), 23, 59, 59, 0, start.Location())
		}
	}

	return rrule.NewRRule(opt)
}

func unitOf(rule recurrence.Rule) recurrence.Unit {
	switch rule.Frequency {
	case recurrence.FrequencyWeekly:
		return recurrence.UnitWeeks
	case recurrence.FrequencyMonthly:
		return recurrence.UnitMonths
	case recurrence.FrequencyCustom:
		return rule.CustomUnit
	default:
		return recurrence.UnitDays
	}
}

func todoStatus(status model.TaskStatus) string {
	switch status {
	case model.StatusCompleted:
		return "COMPLETED"
	case model.StatusOngoing, model.StatusUnderReview:
		return "IN-PROCESS"
	default:
		return "NEEDS-ACTION"
	}
}

// RenderCalendar exports task as a VCALENDAR holding one VTODO, with an
// RRULE when the task recurs. A recurring task is exported from its first
// aligned occurrence, the date the resolver starts walking from, and its due
// time moves with it.
func RenderCalendar(task *model.Task, now time.Time) ([]byte, error) {
	if task.StartDate == nil || task.StartDate.IsZero() {
		return nil, ErrNotExportable
	}
	start := task.StartDate.UTC()
	var due *time.Time
	if task.EndDate != nil && !task.EndDate.Before(start) {
		end := task.EndDate.UTC()
		due = &end
	}

	var rr *rrule.RRule
	if task.IsRecurring() {
		var err error
		rr, err = ToRRule(task.Recurrence.Rule, start, task.RecurrenceOccurrence)
		if err != nil {
			return nil, fmt.Errorf("build rrule: %w", err)
		}
		if aligned := rr.OrigOptions.Dtstart; !aligned.Equal(start) {
			if due != nil {
				shifted := aligned.Add(due.Sub(start))
				due = &shifted
			}
			start = aligned
		}
	}

	todo := ical.NewComponent(ical.CompToDo)
	todo.Props.SetText(ical.PropUID, task.TaskID+"@taskboard")
	todo.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	todo.Props.SetText(ical.PropSummary, task.TaskName)
	if task.Description != "" {
		todo.Props.SetText(ical.PropDescription, task.Description)
	}
	todo.Props.SetText(ical.PropStatus, todoStatus(task.Status))
	todo.Props.SetDateTime(ical.PropDateTimeStart, start)
	if due != nil {
		todo.Props.SetDateTime(ical.PropDue, *due)
	}

	if rr != nil {
		prop := ical.NewProp(ical.PropRecurrenceRule)
		prop.Value = rr.OrigOptions.RRuleString()
		todo.Props.Set(prop)
		if task.RecurrenceSeriesID != "" {
			todo.Props.SetText("X-TASKBOARD-SERIES", task.RecurrenceSeriesID)
		}
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, calendarProductID)
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Children = append(cal.Children, todo)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}
