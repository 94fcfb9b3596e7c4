package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskboard/model"
	"taskboard/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrMissingUserID = errors.New("user ID is required")
)

type TasksRepo struct {
	MongoCollection *mongo.Collection
}

// GetTasksRepo binds the repository to database/collection on client.
func GetTasksRepo(client *mongo.Client, database, collection string) *TasksRepo {
	return &TasksRepo{
		MongoCollection: client.Database(database).Collection(collection),
	}
}

func (r *TasksRepo) collectionName() string {
	return r.MongoCollection.Name()
}

// Add a new task into the database
func (r *TasksRepo) CreateTask(ctx context.Context, task *model.Task) error {
	timer := utils.TrackDBOperation("insert", r.collectionName())
	defer timer.ObserveDuration()

	if task.UserID == "" {
		utils.TrackError("database", "missing_user_id")
		return ErrMissingUserID
	}

	if _, err := r.MongoCollection.InsertOne(ctx, task); err != nil {
		utils.TrackError("database", "task_creation_failed")
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetTaskByID returns the task only when it belongs to userID.
func (r *TasksRepo) GetTaskByID(ctx context.Context, userID, taskID string) (*model.Task, error) {
	timer := utils.TrackDBOperation("find_one", r.collectionName())
	defer timer.ObserveDuration()

	var task model.Task
	err := r.MongoCollection.FindOne(ctx, bson.M{"_id": taskID, "user_id": userID}).Decode(&task)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		utils.TrackError("database", "task_fetch_failed")
		return nil, fmt.Errorf("find task %s: %w", taskID, err)
	}
	return &task, nil
}

// Retrieves all tasks of a user, oldest due first
func (r *TasksRepo) GetUserTasks(ctx context.Context, userID string) ([]*model.Task, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

// GetSeries lists every occurrence of a recurring series in index order.
func (r *TasksRepo) GetSeries(ctx context.Context, userID, seriesID string) ([]*model.Task, error) {
	return r.find(ctx, bson.M{"user_id": userID, "recurrence_series_id": seriesID},
		options.Find().SetSort(bson.D{{Key: "recurrence_occurrence", Value: 1}}))
}

// GetOpenTasks lists tasks that are not completed.
func (r *TasksRepo) GetOpenTasks(ctx context.Context, userID string) ([]*model.Task, error) {
	return r.find(ctx, bson.M{
		"user_id":     userID,
		"task_status": bson.M{"$ne": model.StatusCompleted},
	})
}

func (r *TasksRepo) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]*model.Task, error) {
	timer := utils.TrackDBOperation("find", r.collectionName())
	defer timer.ObserveDuration()

	if len(opts) == 0 {
		opts = append(opts, options.Find().SetSort(bson.D{
			{Key: "end_date", Value: 1},
			{Key: "start_date", Value: 1},
		}))
	}

	cursor, err := r.MongoCollection.Find(ctx, filter, opts...)
	if err != nil {
		utils.TrackError("database", "task_fetch_failed")
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	defer cursor.Close(ctx)

	tasks := []*model.Task{}
	if err = cursor.All(ctx, &tasks); err != nil {
		utils.TrackError("database", "task_decode_failed")
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask replaces the stored document of task, scoped to its owner.
func (r *TasksRepo) UpdateTask(ctx context.Context, task *model.Task) error {
	timer := utils.TrackDBOperation("update", r.collectionName())
	defer timer.ObserveDuration()

	task.UpdatedAt = time.Now()
	result, err := r.MongoCollection.ReplaceOne(ctx,
		bson.M{"_id": task.TaskID, "user_id": task.UserID}, task)
	if err != nil {
		utils.TrackError("database", "task_update_failed")
		return fmt.Errorf("update task %s: %w", task.TaskID, err)
	}
	if result.MatchedCount == 0 {
		utils.TrackError("database", "task_not_found")
		return ErrTaskNotFound
	}
	return nil
}

// Removes a specific task from database
func (r *TasksRepo) DeleteTask(ctx context.Context, userID, taskID string) error {
	timer := utils.TrackDBOperation("delete", r.collectionName())
	defer timer.ObserveDuration()

	result, err := r.MongoCollection.DeleteOne(ctx, bson.M{"_id": taskID, "user_id": userID})
	if err != nil {
		utils.TrackError("database", "task_deletion_failed")
		return fmt.Errorf("delete task %s: %w", taskID, err)
	}
	if result.DeletedCount == 0 {
		utils.TrackError("database", "task_not_found")
		return ErrTaskNotFound
	}
	return nil
}

// Counts tasks per status for a user
func (r *TasksRepo) CountByStatus(ctx context.Context, userID string) (map[model.TaskStatus]int, error) {
	timer := utils.TrackDBOperation("aggregate", r.collectionName())
	defer timer.ObserveDuration()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$group", Value: bson.M{"_id": "$task_status", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.MongoCollection.Aggregate(ctx, pipeline)
	if err != nil {
		utils.TrackError("database", "task_count_failed")
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status model.TaskStatus `bson:"_id"`
		Count  int              `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		utils.TrackError("database", "task_decode_failed")
		return nil, fmt.Errorf("decode task counts: %w", err)
	}

	counts := make(map[model.TaskStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
