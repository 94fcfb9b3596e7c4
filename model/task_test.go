package model

import (
	"encoding/json"
	"testing"
	"time"

	"taskboard/recurrence"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func weeklyRule() recurrence.Rule {
	return recurrence.Rule{
		Enabled:             true,
		Frequency:           recurrence.FrequencyWeekly,
		Interval:            1,
		WeeklyDays:          []int{0, 2},
		CustomUnit:          recurrence.UnitDays,
		EndCondition:        recurrence.EndAfter,
		EndAfterOccurrences: 4,
	}
}

func TestRecurrenceBSON(t *testing.T) {
	start := day(2025, 10, 20)
	task := Task{
		TaskID:               "t1",
		UserID:               "u1",
		TaskName:             "Standup notes",
		StartDate:            &start,
		Status:               StatusOngoing,
		Recurrence:           NewRecurrence(weeklyRule()),
		RecurrenceOccurrence: 1,
		RecurrenceSeriesID:   "s1",
	}

	data, err := bson.Marshal(task)
	require.NoError(t, err)

	var raw bson.M
	require.NoError(t, bson.Unmarshal(data, &raw))
	stored, ok := raw["recurrence"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, "weekly", stored["frequency"])
	assert.Contains(t, stored, "weekly_days")
	assert.Contains(t, stored, "end_after_occurrences")

	var decoded Task
	require.NoError(t, bson.Unmarshal(data, &decoded))
	require.NotNil(t, decoded.Recurrence)
	assert.Equal(t, weeklyRule(), decoded.Recurrence.Rule)
	assert.True(t, decoded.StartDate.Equal(start))
}

func TestRecurrenceBSONReadsCamelCaseDocuments(t *testing.T) {
	data, err := bson.Marshal(bson.M{
		"_id":       "t2",
		"user_id":   "u1",
		"task_name": "Legacy",
		"recurrence": bson.M{
			"enabled":      true,
			"frequency":    "monthly",
			"interval":     int32(2),
			"monthlyDay":   int64(31),
			"endCondition": "onDate",
			"endDate":      "2026-06-30",
		},
	})
	require.NoError(t, err)

	var task Task
	require.NoError(t, bson.Unmarshal(data, &task))
	require.True(t, task.IsRecurring())

	rule := task.Recurrence.Rule
	assert.Equal(t, recurrence.FrequencyMonthly, rule.Frequency)
	assert.Equal(t, 2, rule.Interval)
	assert.Equal(t, mo.Some(31), rule.MonthlyDay)
	assert.Equal(t, recurrence.EndOnDate, rule.EndCondition)
	assert.Equal(t, mo.Some(day(2026, 6, 30)), rule.EndDate)
}

func TestRecurrenceJSONAcceptsBothSpellings(t *testing.T) {
	var task Task
	err := json.Unmarshal([]byte(`{
		"task_name": "Report",
		"recurrence": {"enabled": true, "frequency": "custom", "interval": 2, "custom_unit": "weeks"}
	}`), &task)
	require.NoError(t, err)
	require.True(t, task.IsRecurring())
	assert.Equal(t, recurrence.UnitWeeks, task.Recurrence.CustomUnit)

	out, err := json.Marshal(task.Recurrence)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"customUnit":"weeks"`)
}

func TestTaskSchedule(t *testing.T) {
	start := day(2025, 1, 1)
	end := day(2025, 1, 3)

	plain := Task{StartDate: &start, EndDate: &end}
	s := plain.Schedule()
	assert.Nil(t, s.Rule)
	assert.Equal(t, mo.Some(end), s.BaseDueDate())

	zero := time.Time{}
	undated := Task{StartDate: &zero, Recurrence: NewRecurrence(weeklyRule())}
	s = undated.Schedule()
	assert.True(t, s.StartDate.IsAbsent())
	require.NotNil(t, s.Rule)
	assert.True(t, s.Rule.Enabled)

	// the schedule owns a copy of the rule
	s.Rule.Interval = 9
	assert.Equal(t, 1, undated.Recurrence.Interval)
}

func TestNextOccurrenceTask(t *testing.T) {
	start := time.Date(2025, 10, 20, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, 10, 20, 17, 0, 0, 0, time.UTC)
	now := time.Date(2025, 10, 20, 18, 0, 0, 0, time.UTC)
	task := &Task{
		TaskID:               "t1",
		UserID:               "u1",
		TaskName:             "Standup notes",
		StartDate:            &start,
		EndDate:              &end,
		Status:               StatusCompleted,
		AssignedTo:           []string{"a", "b"},
		Recurrence:           NewRecurrence(weeklyRule()),
		RecurrenceOccurrence: 1,
		RecurrenceSeriesID:   "s1",
	}

	next := recurrence.Next(OptionalTime(task.StartDate), OptionalTime(task.EndDate), task.Recurrence.Rule, task.RecurrenceOccurrence)
	require.False(t, next.SeriesShouldStop)

	created := task.NextOccurrence(next, now)
	assert.Empty(t, created.TaskID)
	assert.Equal(t, StatusNotStarted, created.Status)
	assert.Equal(t, 2, created.RecurrenceOccurrence)
	assert.Equal(t, "s1", created.RecurrenceSeriesID)
	assert.Equal(t, time.Date(2025, 10, 22, 9, 0, 0, 0, time.UTC), *created.StartDate)
	assert.Equal(t, time.Date(2025, 10, 22, 17, 0, 0, 0, time.UTC), *created.EndDate)
	assert.Equal(t, now, created.CreatedAt)

	created.AssignedTo[0] = "changed"
	assert.Equal(t, "a", task.AssignedTo[0])
	assert.NotSame(t, task.Recurrence, created.Recurrence)
}

func TestTaskStatusValid(t *testing.T) {
	assert.True(t, StatusUnderReview.Valid())
	assert.False(t, TaskStatus("Done").Valid())
}
