package repository_test

import (
	"context"
	"testing"
	"time"

	"taskboard/model"
	"taskboard/recurrence"
	"taskboard/repository"
	"taskboard/test/testutils"
	"taskboard/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTask(userID, name string, start time.Time, status model.TaskStatus) *model.Task {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &model.Task{
		TaskID:    utils.NewID(),
		UserID:    userID,
		TaskName:  name,
		StartDate: &start,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestTasksRepo(t *testing.T) {
	coll, cleanup := testutils.SetupTestDB(t, "tasks")
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, repository.SetupIndexes(ctx, coll))
	repo := &repository.TasksRepo{MongoCollection: coll}

	userID := utils.NewID()
	day := func(d int) time.Time { return time.Date(2025, 10, d, 0, 0, 0, 0, time.UTC) }

	t.Run("create requires a user", func(t *testing.T) {
		err := repo.CreateTask(ctx, newTask("", "orphan", day(1), model.StatusNotStarted))
		assert.ErrorIs(t, err, repository.ErrMissingUserID)
	})

	recurring := newTask(userID, "Weekly review", day(20), model.StatusOngoing)
	recurring.Recurrence = model.NewRecurrence(recurrence.Rule{
		Enabled:      true,
		Frequency:    recurrence.FrequencyWeekly,
		Interval:     1,
		WeeklyDays:   []int{0, 3},
		CustomUnit:   recurrence.UnitDays,
		EndCondition: recurrence.EndNever,
	})
	recurring.RecurrenceSeriesID = utils.NewID()
	recurring.RecurrenceOccurrence = 1

	plain := newTask(userID, "File taxes", day(5), model.StatusCompleted)
	other := newTask(utils.NewID(), "Not mine", day(2), model.StatusNotStarted)

	for _, task := range []*model.Task{recurring, plain, other} {
		require.NoError(t, repo.CreateTask(ctx, task))
	}

	t.Run("get is scoped to the owner", func(t *testing.T) {
		got, err := repo.GetTaskByID(ctx, userID, recurring.TaskID)
		require.NoError(t, err)
		require.True(t, got.IsRecurring())
		assert.Equal(t, []int{0, 3}, got.Recurrence.WeeklyDays)

		_, err = repo.GetTaskByID(ctx, userID, other.TaskID)
		assert.ErrorIs(t, err, repository.ErrTaskNotFound)
	})

	t.Run("list and open tasks", func(t *testing.T) {
		all, err := repo.GetUserTasks(ctx, userID)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		open, err := repo.GetOpenTasks(ctx, userID)
		require.NoError(t, err)
		require.Len(t, open, 1)
		assert.Equal(t, recurring.TaskID, open[0].TaskID)
	})

	t.Run("series in occurrence order", func(t *testing.T) {
		second := newTask(userID, "Weekly review", day(23), model.StatusNotStarted)
		second.Recurrence = recurring.Recurrence
		second.RecurrenceSeriesID = recurring.RecurrenceSeriesID
		second.RecurrenceOccurrence = 2
		require.NoError(t, repo.CreateTask(ctx, second))

		duplicate := newTask(userID, "Weekly review", day(23), model.StatusNotStarted)
		duplicate.RecurrenceSeriesID = recurring.RecurrenceSeriesID
		duplicate.RecurrenceOccurrence = 2
		assert.Error(t, repo.CreateTask(ctx, duplicate))

		series, err := repo.GetSeries(ctx, userID, recurring.RecurrenceSeriesID)
		require.NoError(t, err)
		require.Len(t, series, 2)
		assert.Equal(t, 1, series[0].RecurrenceOccurrence)
		assert.Equal(t, 2, series[1].RecurrenceOccurrence)
	})

	t.Run("update and count", func(t *testing.T) {
		recurring.Status = model.StatusCompleted
		require.NoError(t, repo.UpdateTask(ctx, recurring))

		counts, err := repo.CountByStatus(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 2, counts[model.StatusCompleted])
		assert.Equal(t, 1, counts[model.StatusNotStarted])

		missing := newTask(userID, "ghost", day(1), model.StatusNotStarted)
		assert.ErrorIs(t, repo.UpdateTask(ctx, missing), repository.ErrTaskNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteTask(ctx, userID, plain.TaskID))
		assert.ErrorIs(t, repo.DeleteTask(ctx, userID, plain.TaskID), repository.ErrTaskNotFound)
		assert.ErrorIs(t, repo.DeleteTask(ctx, userID, other.TaskID), repository.ErrTaskNotFound)
	})
}
