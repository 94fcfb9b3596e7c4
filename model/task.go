package model

import (
	"time"

	"taskboard/recurrence"

	"github.com/samber/mo"
)

type TaskStatus string

const (
	StatusNotStarted  TaskStatus = "Not Started"
	StatusOngoing     TaskStatus = "Ongoing"
	StatusUnderReview TaskStatus = "Under Review"
	StatusCompleted   TaskStatus = "Completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusNotStarted, StatusOngoing, StatusUnderReview, StatusCompleted:
		return true
	}
	return false
}

type Task struct {
	TaskID               string      `bson:"_id,omitempty" json:"id"`
	UserID               string      `bson:"user_id" json:"user_id"`
	ProjectID            string      `bson:"proj_id,omitempty" json:"proj_id,omitempty"`
	TaskName             string      `bson:"task_name" json:"task_name"`
	Description          string      `bson:"task_desc" json:"task_desc"`
	StartDate            *time.Time  `bson:"start_date,omitempty" json:"start_date,omitempty"`
	EndDate              *time.Time  `bson:"end_date,omitempty" json:"end_date,omitempty"`
	Status               TaskStatus  `bson:"task_status" json:"task_status"`
	AssignedTo           []string    `bson:"assigned_to,omitempty" json:"assigned_to,omitempty"`
	Recurrence           *Recurrence `bson:"recurrence,omitempty" json:"recurrence,omitempty"`
	RecurrenceOccurrence int         `bson:"recurrence_occurrence,omitempty" json:"recurrence_occurrence,omitempty"`
	RecurrenceSeriesID   string      `bson:"recurrence_series_id,omitempty" json:"recurrence_series_id,omitempty"`
	CreatedAt            time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt            time.Time   `bson:"updated_at" json:"updated_at"`
}

// IsRecurring reports whether the task carries an enabled rule.
func (t *Task) IsRecurring() bool {
	return t.Recurrence != nil && t.Recurrence.Enabled
}

func (t *Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// Schedule derives the resolver input from the persisted fields.
func (t *Task) Schedule() *recurrence.Schedule {
	s := &recurrence.Schedule{
		StartDate: OptionalTime(t.StartDate),
		EndDate:   OptionalTime(t.EndDate),
	}
	if t.Recurrence != nil {
		rule := t.Recurrence.Rule
		s.Rule = &rule
	}
	return s
}

// NextOccurrence builds the follow-up instance of a recurring task. The copy
// keeps the series identity and content and starts over as not started.
func (t *Task) NextOccurrence(next recurrence.NextOccurrence, now time.Time) *Task {
	assigned := append([]string(nil), t.AssignedTo...)
	rule := *t.Recurrence
	return &Task{
		UserID:               t.UserID,
		ProjectID:            t.ProjectID,
		TaskName:             t.TaskName,
		Description:          t.Description,
		StartDate:            TimePtr(next.Start),
		EndDate:              TimePtr(next.End),
		Status:               StatusNotStarted,
		AssignedTo:           assigned,
		Recurrence:           &rule,
		RecurrenceOccurrence: next.Index,
		RecurrenceSeriesID:   t.RecurrenceSeriesID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

func OptionalTime(t *time.Time) mo.Option[time.Time] {
	if t == nil || t.IsZero() {
		return mo.None[time.Time]()
	}
	return mo.Some(*t)
}

func TimePtr(o mo.Option[time.Time]) *time.Time {
	if t, ok := o.Get(); ok {
		return &t
	}
	return nil
}
