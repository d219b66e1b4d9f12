package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KarpovAlexandrGo/task-api/internal/entity"
	"github.com/KarpovAlexandrGo/task-api/pkg/logger"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type taskDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description,omitempty"`
	Status      string             `bson:"status"`
	DueDate     *time.Time         `bson:"dueDate,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d taskDocument) toEntity() entity.Task {
	task := entity.Task{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Status:      entity.Status(d.Status),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
	if d.DueDate != nil {
		due := d.DueDate.UTC()
		task.DueDate = &due
	}
	return task
}

type TaskRepository struct {
	client  *mongo.Client
	coll    *mongo.Collection
	timeout time.Duration
	logger  *logrus.Logger
}

// NewTaskRepository создает клиент MongoDB. Соединение устанавливается лениво,
// поэтому ошибка здесь означает только некорректный URI.
func NewTaskRepository(ctx context.Context, uri, database, collection string, timeout time.Duration) (*TaskRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	return &TaskRepository{
		client:  client,
		coll:    client.Database(database).Collection(collection),
		timeout: timeout,
		logger:  logger.Log,
	}, nil
}

func (r *TaskRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.client.Ping(ctx, readpref.Primary())
}

func (r *TaskRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *TaskRepository) Create(ctx context.Context, task entity.Task) (entity.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := taskDocument{
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		DueDate:     toMillis(task.DueDate),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"method": "Create",
			"title":  task.Title,
		}).WithError(err).Error("Failed to create task")
		return entity.Task{}, fmt.Errorf("failed to create task: %w", err)
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return entity.Task{}, fmt.Errorf("failed to create task: unexpected id type %T", res.InsertedID)
	}
	doc.ID = id

	return doc.toEntity(), nil
}

func (r *TaskRepository) Get(ctx context.Context, id string) (entity.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	oid, err := r.parseID("Get", id)
	if err != nil {
		return entity.Task{}, err
	}

	var doc taskDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return entity.Task{}, entity.ErrTaskNotFound
		}
		r.logger.WithFields(logrus.Fields{
			"method":  "Get",
			"task_id": id,
		}).WithError(err).Error("Failed to get task")
		return entity.Task{}, fmt.Errorf("failed to get task: %w", err)
	}

	return doc.toEntity(), nil
}

func (r *TaskRepository) List(ctx context.Context) ([]entity.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		r.logger.WithField("method", "List").WithError(err).Error("Failed to list tasks")
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	var docs []taskDocument
	if err := cur.All(ctx, &docs); err != nil {
		r.logger.WithField("method", "List").WithError(err).Error("Failed to decode tasks")
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}

	tasks := make([]entity.Task, 0, len(docs))
	for _, d := range docs {
		tasks = append(tasks, d.toEntity())
	}
	return tasks, nil
}

func (r *TaskRepository) Update(ctx context.Context, id string, patch entity.TaskPatch) (entity.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	oid, err := r.parseID("Update", id)
	if err != nil {
		return entity.Task{}, err
	}

	set := bson.M{"updatedAt": time.Now().UTC().Truncate(time.Millisecond)}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}
	if patch.DueDate != nil {
		set["dueDate"] = *toMillis(patch.DueDate)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc taskDocument
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return entity.Task{}, entity.ErrTaskNotFound
		}
		r.logger.WithFields(logrus.Fields{
			"method":  "Update",
			"task_id": id,
		}).WithError(err).Error("Failed to update task")
		return entity.Task{}, fmt.Errorf("failed to update task: %w", err)
	}

	return doc.toEntity(), nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	oid, err := r.parseID("Delete", id)
	if err != nil {
		return err
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"method":  "Delete",
			"task_id": id,
		}).WithError(err).Error("Failed to delete task")
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if res.DeletedCount == 0 {
		return entity.ErrTaskNotFound
	}
	return nil
}

// Некорректный ObjectID считается ошибкой поиска, а не "не найдено".
func (r *TaskRepository) parseID(method, id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"method":  method,
			"task_id": id,
		}).WithError(err).Warn("Invalid task ID format")
		return primitive.NilObjectID, fmt.Errorf("%w: %q", entity.ErrInvalidID, id)
	}
	return oid, nil
}

// BSON хранит время с точностью до миллисекунд.
func toMillis(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC().Truncate(time.Millisecond)
	return &v
}
