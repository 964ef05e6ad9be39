package mongostore

import (
	"time"

	"github.com/taskmaster-dev/task-master/backend/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type taskDocument struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	Title       string               `bson:"title"`
	Description string               `bson:"description"`
	DueDate     time.Time            `bson:"dueDate"`
	Priority    string               `bson:"priority"`
	Status      string               `bson:"status"`
	AssignedTo  []primitive.ObjectID `bson:"assignedTo"`
	CreatedAt   time.Time            `bson:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt"`
	Version     int32                `bson:"version"`
}

func (d *taskDocument) toDomain() *domain.Task {
	return &domain.Task{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		DueDate:     d.DueDate.UTC(),
		Priority:    domain.Priority(d.Priority),
		Status:      domain.Status(d.Status),
		AssignedTo:  hexIDs(d.AssignedTo),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
		Version:     d.Version,
	}
}

// taskQuery turns filter into a find document. The assignee match relies on
// MongoDB matching a scalar against any element of an array field.
func taskQuery(filter domain.TaskFilter) (bson.M, error) {
	query := bson.M{}

	if filter.AssignedTo != "" {
		oid, err := primitive.ObjectIDFromHex(filter.AssignedTo)
		if err != nil {
			return nil, err
		}
		query["assignedTo"] = oid
	}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}
	if filter.Priority != "" {
		query["priority"] = string(filter.Priority)
	}

	dueDate := bson.M{}
	if filter.DueFrom != nil {
		dueDate["$gte"] = *filter.DueFrom
	}
	if filter.DueTo != nil {
		dueDate["$lte"] = *filter.DueTo
	}
	if len(dueDate) > 0 {
		query["dueDate"] = dueDate
	}

	return query, nil
}

func (s *Store) FindTasks(filter domain.TaskFilter) ([]*domain.Task, error) {
	query, err := taskQuery(filter)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.queryContext()
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "dueDate", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.tasks.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tasks := make([]*domain.Task, 0)
	for cursor.Next(ctx) {
		var doc taskDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		tasks = append(tasks, doc.toDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return tasks, nil
}

func (s *Store) GetTaskByID(id string) (*domain.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	ctx, cancel := s.queryContext()
	defer cancel()

	var doc taskDocument
	if err := s.tasks.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translate(err)
	}

	return doc.toDomain(), nil
}

func (s *Store) CreateTask(task *domain.Task) error {
	assignees, err := objectIDs(task.AssignedTo)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	doc := taskDocument{
		ID:          primitive.NewObjectID(),
		Title:       task.Title,
		Description: task.Description,
		DueDate:     task.DueDate,
		Priority:    string(task.Priority),
		Status:      string(task.Status),
		AssignedTo:  assignees,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}

	ctx, cancel := s.queryContext()
	defer cancel()

	if _, err := s.tasks.InsertOne(ctx, doc); err != nil {
		return translate(err)
	}

	task.ID = doc.ID.Hex()
	task.CreatedAt = now
	task.UpdatedAt = now
	task.Version = doc.Version

	return nil
}

// UpdateTask overwrites every field and bumps the version without comparing
// it, so the last writer wins.
func (s *Store) UpdateTask(task *domain.Task) error {
	oid, err := primitive.ObjectIDFromHex(task.ID)
	if err != nil {
		return domain.ErrNotFound
	}
	assignees, err := objectIDs(task.AssignedTo)
	if err != nil {
		return err
	}

	update := bson.M{
		"$set": bson.M{
			"title":       task.Title,
			"description": task.Description,
			"dueDate":     task.DueDate,
			"priority":    string(task.Priority),
			"status":      string(task.Status),
			"assignedTo":  assignees,
			"updatedAt":   time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}

	ctx, cancel := s.queryContext()
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc taskDocument
	if err := s.tasks.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		return translate(err)
	}

	task.UpdatedAt = doc.UpdatedAt.UTC()
	task.Version = doc.Version

	return nil
}

func (s *Store) DeleteTask(id string) (*domain.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	ctx, cancel := s.queryContext()
	defer cancel()

	var doc taskDocument
	if err := s.tasks.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translate(err)
	}

	return doc.toDomain(), nil
}
