package repositories

import (
	"context"
	"errors"
	"fmt"

	"taskmanager/backend/logging"
	"taskmanager/backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TaskRepo struct {
	collection *mongo.Collection
}

func NewTaskRepo(collection *mongo.Collection) *TaskRepo {
	return &TaskRepo{collection: collection}
}

// EnsureIndexes creates the indexes role-scoped queries rely on.
func (r *TaskRepo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "assignedTo", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create task indexes: %w", err)
	}
	logging.Logger.Info("Event ID: DB_TASK_INDEXES_READY, Description: Task indexes created")
	return nil
}

func (r *TaskRepo) FindTasks(ctx context.Context, q TaskQuery) ([]models.Task, error) {
	cursor, err := r.collection.Find(ctx, q.Filter())
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %w", err)
	}
	defer cursor.Close(ctx)

	tasks := []models.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}
	return tasks, nil
}

// FindTask loads one task by id, additionally constrained by q.
func (r *TaskRepo) FindTask(ctx context.Context, id primitive.ObjectID, q TaskQuery) (*models.Task, error) {
	filter := q.Filter()
	filter["_id"] = id

	var task models.Task
	err := r.collection.FindOne(ctx, filter).Decode(&task)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve task %s: %w", id.Hex(), err)
	}
	return &task, nil
}

func (r *TaskRepo) CountTasks(ctx context.Context, q TaskQuery) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, q.Filter())
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return n, nil
}

// CountTasksBy groups the tasks matching q by field and counts each group.
// Values with no tasks are absent from the result.
func (r *TaskRepo) CountTasksBy(ctx context.Context, field GroupField, q TaskQuery) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: q.Filter()}},
		{{Key: "$group", Value: bson.M{"_id": "$" + string(field), "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate tasks by %s: %w", field, err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Value string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode %s groups: %w", field, err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Value] = row.Count
	}
	return counts, nil
}

func (r *TaskRepo) RecentTasks(ctx context.Context, q TaskQuery, limit int64) ([]models.RecentTask, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit).
		SetProjection(bson.M{"title": 1, "status": 1, "priority": 1, "dueDate": 1, "createdAt": 1})

	cursor, err := r.collection.Find(ctx, q.Filter(), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve recent tasks: %w", err)
	}
	defer cursor.Close(ctx)

	recent := []models.RecentTask{}
	if err := cursor.All(ctx, &recent); err != nil {
		return nil, fmt.Errorf("failed to decode recent tasks: %w", err)
	}
	return recent, nil
}

func (r *TaskRepo) InsertTask(ctx context.Context, task *models.Task) error {
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, task); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// SaveTask replaces the stored document with task.
func (r *TaskRepo) SaveTask(ctx context.Context, task *models.Task) error {
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": task.ID}, task)
	if err != nil {
		return fmt.Errorf("failed to save task %s: %w", task.ID.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TaskRepo) DeleteTask(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete task %s: %w", id.Hex(), err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
