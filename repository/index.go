package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TaskIndexes are the indexes the task queries rely on.
func TaskIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		// Listing and deadline scans
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "end_date", Value: 1},
				{Key: "start_date", Value: 1},
			},
			Options: options.Index().SetName("user_tasks_due"),
		},
		// Open task filter
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "task_status", Value: 1},
			},
			Options: options.Index().SetName("user_tasks_status"),
		},
		// Series lookups, one document per occurrence index
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "recurrence_series_id", Value: 1},
				{Key: "recurrence_occurrence", Value: 1},
			},
			Options: options.Index().
				SetName("user_task_series").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"recurrence_series_id": bson.M{"$exists": true}}),
		},
	}
}

func SetupIndexes(ctx context.Context, tasks *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	names, err := tasks.Indexes().CreateMany(ctx, TaskIndexes())
	if err != nil {
		return fmt.Errorf("failed to create task indexes: %w", err)
	}

	log.Printf("Successfully created indexes on %s: %v", tasks.Name(), names)
	return nil
}
