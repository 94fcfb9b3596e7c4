package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"taskboard/model"
	"taskboard/recurrence"
	"taskboard/repository"
	"taskboard/services"
	"taskboard/utils"

	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidTask  = errors.New("invalid task")
	ErrNotRecurring = errors.New("task does not recur")
	ErrTaskNotFound = repository.ErrTaskNotFound
)

// resolutions running at once while building a deadline report
const deadlineWorkers = 8

// TaskStore is the persistence the service needs; repository.TasksRepo implements it.
type TaskStore interface {
	CreateTask(ctx context.Context, task *model.Task) error
	GetTaskByID(ctx context.Context, userID, taskID string) (*model.Task, error)
	GetUserTasks(ctx context.Context, userID string) ([]*model.Task, error)
	GetOpenTasks(ctx context.Context, userID string) ([]*model.Task, error)
	GetSeries(ctx context.Context, userID, seriesID string) ([]*model.Task, error)
	UpdateTask(ctx context.Context, task *model.Task) error
	DeleteTask(ctx context.Context, userID, taskID string) error
	CountByStatus(ctx context.Context, userID string) (map[model.TaskStatus]int, error)
}

// TaskView is a task together with its effective due date.
type TaskView struct {
	Task *model.Task
	Due  recurrence.Result
}

// TaskChange is the result of a write that may have continued a series.
type TaskChange struct {
	Task        TaskView
	Next        *TaskView
	SeriesEnded bool
}

// TaskUpdate carries the fields of a partial update. Nil means unchanged.
type TaskUpdate struct {
	TaskName    *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	// ClearEndDate removes the end date; EndDate is ignored when set.
	ClearEndDate bool
	Status       *model.TaskStatus
	AssignedTo   *[]string
	Recurrence   *model.Recurrence
}

type TasksService struct {
	store          TaskStore
	cache          services.DueCache
	resolver       recurrence.Resolver
	cacheTTL       time.Duration
	previewLimit   int
	deadlineWindow int

	Now func() time.Time
}

type Option func(*TasksService)

func WithResolver(r recurrence.Resolver) Option {
	return func(svc *TasksService) { svc.resolver = r }
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(svc *TasksService) { svc.cacheTTL = ttl }
}

func WithPreviewLimit(n int) Option {
	return func(svc *TasksService) {
		if n > 0 {
			svc.previewLimit = n
		}
	}
}

func WithDeadlineWindow(days int) Option {
	return func(svc *TasksService) {
		if days > 0 {
			svc.deadlineWindow = days
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(svc *TasksService) { svc.Now = now }
}

func NewTasksService(store TaskStore, cache services.DueCache, opts ...Option) *TasksService {
	svc := &TasksService{
		store:          store,
		cache:          cache,
		resolver:       recurrence.NewResolver(),
		cacheTTL:       5 * time.Minute,
		previewLimit:   52,
		deadlineWindow: 7,
		Now:            time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTask, fmt.Sprintf(format, args...))
}

// resolve computes the effective due date of task as of now.
func (svc *TasksService) resolve(task *model.Task, now time.Time) TaskView {
	res, err := svc.resolver.Resolve(task.Schedule(), now)
	if err != nil {
		log.Printf("Failed to resolve due date of task %s: %v", task.TaskID, err)
		return TaskView{Task: task}
	}

	utils.TrackResolution(res.Outcome.String(), res.Steps)
	switch res.Outcome {
	case recurrence.OutcomeInconclusive:
		log.Printf("Due date of task %s inconclusive after %d steps", task.TaskID, res.Steps)
	case recurrence.OutcomeStalled:
		log.Printf("Recurrence of task %s stopped advancing after %d steps", task.TaskID, res.Steps)
	}
	return TaskView{Task: task, Due: res}
}

func (svc *TasksService) invalidate(ctx context.Context, userID string) {
	if err := svc.cache.Invalidate(ctx, userID); err != nil {
		log.Printf("Failed to invalidate deadline cache for user %s: %v", userID, err)
	}
}

func validateDates(task *model.Task) error {
	if task.StartDate == nil || task.StartDate.IsZero() {
		return invalid("start date is required")
	}
	if task.EndDate != nil && task.EndDate.Before(*task.StartDate) {
		return invalid("end date cannot be before start date")
	}
	return nil
}

// startSeries gives a task whose rule was just enabled its series identity.
func startSeries(task *model.Task) {
	if !task.IsRecurring() {
		return
	}
	if task.RecurrenceSeriesID == "" {
		task.RecurrenceSeriesID = utils.NewID()
	}
	if task.RecurrenceOccurrence <= 0 {
		task.RecurrenceOccurrence = 1
	}
}

// Create Task
func (svc *TasksService) CreateTask(ctx context.Context, task *model.Task) (TaskView, error) {
	if task.UserID == "" {
		return TaskView{}, repository.ErrMissingUserID
	}
	task.TaskName = strings.TrimSpace(task.TaskName)
	if task.TaskName == "" {
		return TaskView{}, invalid("task name is required")
	}
	if err := validateDates(task); err != nil {
		return TaskView{}, err
	}
	if task.Status == "" {
		task.Status = model.StatusNotStarted
	}
	if !task.Status.Valid() {
		return TaskView{}, invalid("unknown status %q", task.Status)
	}

	now := svc.Now()
	if task.TaskID == "" {
		task.TaskID = utils.NewID()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	startSeries(task)

	if err := svc.store.CreateTask(ctx, task); err != nil {
		return TaskView{}, err
	}
	svc.invalidate(ctx, task.UserID)
	return svc.resolve(task, now), nil
}

func (svc *TasksService) GetTask(ctx context.Context, userID, taskID string) (TaskView, error) {
	task, err := svc.store.GetTaskByID(ctx, userID, taskID)
	if err != nil {
		return TaskView{}, err
	}
	return svc.resolve(task, svc.Now()), nil
}

// ListTasks returns every task of the user with its effective due date.
func (svc *TasksService) ListTasks(ctx context.Context, userID string) ([]TaskView, error) {
	tasks, err := svc.store.GetUserTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := svc.Now()
	views := make([]TaskView, len(tasks))
	for i, task := range tasks {
		views[i] = svc.resolve(task, now)
	}
	return views, nil
}

// UpdateTask applies update to the task. Setting a recurring task to
// Completed materializes its next occurrence, also when it already was
// completed, so a failed attempt can be retried.
func (svc *TasksService) UpdateTask(ctx context.Context, userID, taskID string, update TaskUpdate) (*TaskChange, error) {
	task, err := svc.store.GetTaskByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	wasCompleted := task.IsCompleted()

	if update.TaskName != nil {
		name := strings.TrimSpace(*update.TaskName)
		if name == "" {
			return nil, invalid("task name cannot be empty")
		}
		task.TaskName = name
	}
	if update.Description != nil {
		task.Description = *update.Description
	}
	if update.StartDate != nil {
		task.StartDate = update.StartDate
	}
	if update.ClearEndDate {
		task.EndDate = nil
	} else if update.EndDate != nil {
		task.EndDate = update.EndDate
	}
	if update.Status != nil {
		if !update.Status.Valid() {
			return nil, invalid("unknown status %q", *update.Status)
		}
		task.Status = *update.Status
	}
	if update.AssignedTo != nil {
		task.AssignedTo = *update.AssignedTo
	}
	if update.Recurrence != nil {
		task.Recurrence = update.Recurrence
	}
	if err := validateDates(task); err != nil {
		return nil, err
	}
	startSeries(task)

	if err := svc.store.UpdateTask(ctx, task); err != nil {
		return nil, err
	}
	defer svc.invalidate(ctx, userID)

	change := &TaskChange{}
	if update.Status != nil && task.IsCompleted() {
		if err := svc.continueSeries(ctx, task, change, !wasCompleted); err != nil {
			return nil, err
		}
	}

	now := svc.Now()
	change.Task = svc.resolve(task, now)
	if change.Next != nil {
		*change.Next = svc.resolve(change.Next.Task, now)
	}
	return change, nil
}

// CompleteOccurrence marks the task completed and creates the next occurrence
// of its series unless the series has ended. Completing an already completed
// occurrence returns the follow-up created the first time.
func (svc *TasksService) CompleteOccurrence(ctx context.Context, userID, taskID string) (*TaskChange, error) {
	task, err := svc.store.GetTaskByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if !task.IsRecurring() {
		return nil, ErrNotRecurring
	}

	defer svc.invalidate(ctx, userID)

	wasCompleted := task.IsCompleted()
	if !wasCompleted {
		task.Status = model.StatusCompleted
		if err := svc.store.UpdateTask(ctx, task); err != nil {
			return nil, err
		}
	}

	change := &TaskChange{}
	if err := svc.continueSeries(ctx, task, change, !wasCompleted); err != nil {
		return nil, err
	}

	now := svc.Now()
	change.Task = svc.resolve(task, now)
	if change.Next != nil {
		*change.Next = svc.resolve(change.Next.Task, now)
	}
	return change, nil
}

// continueSeries materializes the occurrence after task into change. The end
// of a series is counted only when justCompleted is set.
func (svc *TasksService) continueSeries(ctx context.Context, task *model.Task, change *TaskChange, justCompleted bool) error {
	if !task.IsRecurring() {
		return nil
	}

	next := recurrence.Next(
		model.OptionalTime(task.StartDate),
		model.OptionalTime(task.EndDate),
		task.Recurrence.Rule,
		max(task.RecurrenceOccurrence, 1),
	)
	if next.SeriesShouldStop {
		change.SeriesEnded = true
		if !justCompleted {
			return nil
		}
		utils.TrackSeriesCompleted()
		log.Printf("Series %s of task %s ended at occurrence %d", task.RecurrenceSeriesID, task.TaskID, task.RecurrenceOccurrence)
		return nil
	}

	series, err := svc.store.GetSeries(ctx, task.UserID, task.RecurrenceSeriesID)
	if err != nil {
		return fmt.Errorf("load series %s: %w", task.RecurrenceSeriesID, err)
	}
	for _, existing := range series {
		if existing.RecurrenceOccurrence == next.Index {
			change.Next = &TaskView{Task: existing}
			return nil
		}
	}

	created := task.NextOccurrence(next, svc.Now())
	created.TaskID = utils.NewID()
	if err := svc.store.CreateTask(ctx, created); err != nil {
		return fmt.Errorf("create occurrence %d of series %s: %w", next.Index, task.RecurrenceSeriesID, err)
	}
	utils.TrackOccurrenceCreated()
	log.Printf("Created occurrence %d of series %s as task %s", next.Index, created.RecurrenceSeriesID, created.TaskID)

	change.Next = &TaskView{Task: created}
	return nil
}

func (svc *TasksService) DeleteTask(ctx context.Context, userID, taskID string) error {
	if err := svc.store.DeleteTask(ctx, userID, taskID); err != nil {
		return err
	}
	svc.invalidate(ctx, userID)
	return nil
}

// PreviewOccurrences lists the upcoming occurrences of a recurring task
// without persisting them. limit is capped at the configured preview limit.
func (svc *TasksService) PreviewOccurrences(ctx context.Context, userID, taskID string, limit int) ([]recurrence.NextOccurrence, error) {
	task, err := svc.store.GetTaskByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if !task.IsRecurring() {
		return nil, ErrNotRecurring
	}
	if limit <= 0 || limit > svc.previewLimit {
		limit = svc.previewLimit
	}
	return recurrence.Preview(
		model.OptionalTime(task.StartDate),
		model.OptionalTime(task.EndDate),
		task.Recurrence.Rule,
		max(task.RecurrenceOccurrence, 1),
		limit,
	), nil
}

// Calendar exports the task as an iCalendar document.
func (svc *TasksService) Calendar(ctx context.Context, userID, taskID string) ([]byte, error) {
	task, err := svc.store.GetTaskByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	return services.RenderCalendar(task, svc.Now())
}

func (svc *TasksService) StatusCounts(ctx context.Context, userID string) (map[model.TaskStatus]int, error) {
	return svc.store.CountByStatus(ctx, userID)
}

// Deadlines reports the effective due dates of the user's open tasks over the
// next days days. Reports are cached per user and day until the next write.
func (svc *TasksService) Deadlines(ctx context.Context, userID string, days int) (*model.DeadlineReport, error) {
	if days <= 0 {
		days = svc.deadlineWindow
	}
	now := svc.Now()
	key := services.DeadlinesKey(userID, now, days)

	cached, ok, err := svc.cache.Get(ctx, key)
	if err != nil {
		log.Printf("Deadline cache lookup failed for %s: %v", key, err)
	} else if ok {
		var report model.DeadlineReport
		if err := json.Unmarshal(cached, &report); err == nil {
			return &report, nil
		}
		log.Printf("Discarding unreadable deadline report %s", key)
	}

	tasks, err := svc.store.GetOpenTasks(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]TaskView, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(deadlineWorkers)
	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			views[i] = svc.resolve(task, now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := BuildDeadlineReport(views, now, days)
	if body, err := json.Marshal(report); err == nil {
		if err := svc.cache.Set(ctx, key, body, svc.cacheTTL); err != nil {
			log.Printf("Failed to cache deadline report %s: %v", key, err)
		}
	}
	return report, nil
}

// BuildDeadlineReport buckets resolved tasks relative to the day of now.
// Upcoming holds tasks due within days days, overdue ones are listed apart.
func BuildDeadlineReport(views []TaskView, now time.Time, days int) *model.DeadlineReport {
	today := recurrence.DateOf(now)
	weekEnd := today.AddDate(0, 0, 7)
	windowEnd := today.AddDate(0, 0, days)

	report := &model.DeadlineReport{
		GeneratedAt: now,
		WindowDays:  days,
		Upcoming:    []model.Deadline{},
		Overdue:     []model.Deadline{},
	}
	stats := &report.Stats

	for _, view := range views {
		d := model.Deadline{
			TaskID:      view.Task.TaskID,
			TaskName:    view.Task.TaskName,
			Status:      view.Task.Status,
			DueDate:     model.TimePtr(view.Due.DueDate),
			IsRecurring: view.Due.IsRecurring,
			Outcome:     view.Due.Outcome.String(),
		}

		stats.Total++
		if d.IsRecurring {
			stats.Recurring++
		}
		if view.Due.Inconclusive() {
			stats.Inconclusive++
		}

		due, ok := view.Due.DueDate.Get()
		if !ok {
			stats.Undated++
			continue
		}
		due = recurrence.DateOf(due)

		switch {
		case due.Before(today):
			d.Overdue = true
			stats.Overdue++
			report.Overdue = append(report.Overdue, d)
			continue
		case due.Equal(today):
			stats.DueToday++
		}
		if due.Before(weekEnd) {
			stats.DueThisWeek++
		}
		if !due.After(windowEnd) {
			report.Upcoming = append(report.Upcoming, d)
		}
	}

	sortDeadlines(report.Upcoming)
	sortDeadlines(report.Overdue)
	return report
}

func sortDeadlines(list []model.Deadline) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i].DueDate, list[j].DueDate
		if !a.Equal(*b) {
			return a.Before(*b)
		}
		return list[i].TaskName < list[j].TaskName
	})
}
