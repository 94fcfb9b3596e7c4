package dto

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"taskboard/model"
	"taskboard/recurrence"
	"taskboard/utils"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidRecurrence = errors.New("invalid recurrence")

var validate = func() *validator.Validate {
	v := validator.New()
	utils.RegisterCustomValidators(v)
	return v
}()

type Link struct {
	Href   string `json:"href"`
	Method string `json:"method,omitempty"`
}

// CreateTaskRequest accepts dates as YYYY-MM-DD or ISO-8601 timestamps and a
// recurrence object in camelCase or snake_case.
type CreateTaskRequest struct {
	TaskName    string         `json:"task_name" binding:"required,max=200"`
	Description string         `json:"task_desc" binding:"max=5000"`
	ProjectID   string         `json:"proj_id"`
	StartDate   string         `json:"start_date" binding:"required"`
	EndDate     string         `json:"end_date"`
	Status      string         `json:"task_status"`
	AssignedTo  []string       `json:"assigned_to" binding:"max=20"`
	Recurrence  map[string]any `json:"recurrence"`
}

// UpdateTaskRequest only touches fields that are present.
type UpdateTaskRequest struct {
	TaskName    *string        `json:"task_name" binding:"omitempty,min=1,max=200"`
	Description *string        `json:"task_desc" binding:"omitempty,max=5000"`
	StartDate   *string        `json:"start_date"`
	EndDate     *string        `json:"end_date"`
	Status      *string        `json:"task_status"`
	AssignedTo  *[]string      `json:"assigned_to"`
	Recurrence  map[string]any `json:"recurrence"`
}

type TaskResponse struct {
	ID                   string           `json:"id"`
	ProjectID            string           `json:"proj_id,omitempty"`
	TaskName             string           `json:"task_name"`
	Description          string           `json:"task_desc"`
	StartDate            *time.Time       `json:"start_date,omitempty"`
	EndDate              *time.Time       `json:"end_date,omitempty"`
	Status               model.TaskStatus `json:"task_status"`
	AssignedTo           []string         `json:"assigned_to,omitempty"`
	Recurrence           *recurrence.Rule `json:"recurrence,omitempty"`
	RecurrenceOccurrence int              `json:"recurrence_occurrence,omitempty"`
	RecurrenceSeriesID   string           `json:"recurrence_series_id,omitempty"`
	EffectiveDueDate     *time.Time       `json:"effective_due_date,omitempty"`
	IsRecurring          bool             `json:"is_recurring"`
	DueOutcome           string           `json:"due_outcome"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
	Links                map[string]Link  `json:"_links,omitempty"`
}

type OccurrenceResponse struct {
	Index     int        `json:"index"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

func ToTaskResponse(task *model.Task, due recurrence.Result) TaskResponse {
	resp := TaskResponse{
		ID:                   task.TaskID,
		ProjectID:            task.ProjectID,
		TaskName:             task.TaskName,
		Description:          task.Description,
		StartDate:            task.StartDate,
		EndDate:              task.EndDate,
		Status:               task.Status,
		AssignedTo:           task.AssignedTo,
		RecurrenceOccurrence: task.RecurrenceOccurrence,
		RecurrenceSeriesID:   task.RecurrenceSeriesID,
		EffectiveDueDate:     model.TimePtr(due.DueDate),
		IsRecurring:          due.IsRecurring,
		DueOutcome:           due.Outcome.String(),
		CreatedAt:            task.CreatedAt,
		UpdatedAt:            task.UpdatedAt,
		Links:                taskLinks(task),
	}
	if task.Recurrence != nil {
		rule := task.Recurrence.Rule
		resp.Recurrence = &rule
	}
	return resp
}

func ToOccurrenceResponses(next []recurrence.NextOccurrence) []OccurrenceResponse {
	out := make([]OccurrenceResponse, len(next))
	for i, n := range next {
		out[i] = OccurrenceResponse{
			Index:     n.Index,
			StartDate: model.TimePtr(n.Start),
			EndDate:   model.TimePtr(n.End),
		}
	}
	return out
}

func taskLinks(task *model.Task) map[string]Link {
	self := "/api/tasks/" + task.TaskID
	links := map[string]Link{
		"self":   {Href: self, Method: "GET"},
		"update": {Href: self, Method: "PUT"},
		"delete": {Href: self, Method: "DELETE"},
	}
	if task.IsRecurring() {
		links["complete"] = Link{Href: self + "/complete", Method: "POST"}
		links["occurrences"] = Link{Href: self + "/occurrences", Method: "GET"}
		links["calendar"] = Link{Href: self + "/calendar.ics", Method: "GET"}
	}
	return links
}

// ParseDateField decodes an optional request date. Blank means absent.
func ParseDateField(name, value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, ok := recurrence.ParseInstant(value).Get()
	if !ok {
		return nil, fmt.Errorf("invalid %s: %q", name, value)
	}
	return &t, nil
}

// recurrenceCheck mirrors the fields of a raw rule that can be rejected outright.
type recurrenceCheck struct {
	Frequency    string `validate:"required,frequency"`
	CustomUnit   string `validate:"omitempty,oneof=days weeks months day week month"`
	EndCondition string `validate:"endcondition"`
	WeeklyDays   []any  `validate:"omitempty,dive,weekday"`
}

// ParseRecurrence turns a request rule into its persisted form. Enabled rules
// must name a frequency and may only use known values; everything else
// degrades the same way stored rules do. A nil map yields nil.
func ParseRecurrence(raw map[string]any) (*model.Recurrence, error) {
	if raw == nil {
		return nil, nil
	}
	rule := recurrence.FromMap(raw)
	if !rule.Enabled {
		return model.NewRecurrence(rule), nil
	}

	var check recurrenceCheck
	if v, ok := recurrence.Lookup(raw, "frequency"); ok {
		check.Frequency, _ = v.(string)
	}
	if v, ok := recurrence.Lookup(raw, "custom_unit"); ok {
		unit, _ := v.(string)
		check.CustomUnit = strings.ToLower(strings.TrimSpace(unit))
	}
	if v, ok := recurrence.Lookup(raw, "end_condition"); ok {
		check.EndCondition, _ = v.(string)
	}
	if v, ok := recurrence.Lookup(raw, "weekly_days"); ok {
		if days, isList := v.([]any); isList {
			check.WeeklyDays = days
		}
	}
	if err := validate.Struct(check); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecurrence, err)
	}

	if rule.EndCondition == recurrence.EndOnDate && rule.EndDate.IsAbsent() {
		return nil, fmt.Errorf("%w: end date required for onDate", ErrInvalidRecurrence)
	}
	if rule.EndCondition == recurrence.EndAfter && rule.EndAfterOccurrences <= 0 {
		return nil, fmt.Errorf("%w: endAfterOccurrences must be positive", ErrInvalidRecurrence)
	}
	return model.NewRecurrence(rule), nil
}
