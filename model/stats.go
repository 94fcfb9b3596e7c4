package model

import "time"

type Deadline struct {
	TaskID      string     `json:"task_id"`
	TaskName    string     `json:"task_name"`
	Status      TaskStatus `json:"task_status"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	IsRecurring bool       `json:"is_recurring"`
	Overdue     bool       `json:"overdue"`
	Outcome     string     `json:"outcome"`
}

type DeadlineStats struct {
	Total        int `json:"total"`
	Recurring    int `json:"recurring"`
	Overdue      int `json:"overdue"`
	DueToday     int `json:"due_today"`
	DueThisWeek  int `json:"due_this_week"`
	Undated      int `json:"undated"`
	Inconclusive int `json:"inconclusive"`
}

// DeadlineReport is the dashboard view of a user's open tasks.
type DeadlineReport struct {
	GeneratedAt time.Time     `json:"generated_at"`
	WindowDays  int           `json:"window_days"`
	Stats       DeadlineStats `json:"stats"`
	Upcoming    []Deadline    `json:"upcoming"`
	Overdue     []Deadline    `json:"overdue"`
}
