package mongostore

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskmaster-dev/task-master/backend/internal/config"
	"github.com/taskmaster-dev/task-master/backend/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var testStore *Store

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	flag.Parse()
	if testing.Short() {
		return m.Run()
	}

	pool, err := dockertest.NewPool("")
	if err != nil || pool.Client.Ping() != nil {
		return m.Run()
	}

	resource, err := pool.Run("mongo", "7", nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "could not start mongo:", err)
		return 1
	}
	defer func() {
		_ = pool.Purge(resource)
	}()
	_ = resource.Expire(120)

	uri := fmt.Sprintf("mongodb://%s", resource.GetHostPort("27017/tcp"))

	var client *mongo.Client
	pool.MaxWait = 60 * time.Second
	if err := pool.Retry(func() error {
		var err error
		client, err = mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
		if err != nil {
			return err
		}
		return client.Ping(context.Background(), nil)
	}); err != nil {
		fmt.Fprintln(os.Stderr, "could not connect to mongo:", err)
		return 1
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	cfg := &config.Config{}
	cfg.Database.QueryTimeout = 5
	cfg.Database.TransactionTimeout = 10

	testStore = NewStore(cfg, client.Database("task_master_test"))
	if err := testStore.EnsureIndexes(); err != nil {
		fmt.Fprintln(os.Stderr, "could not create indexes:", err)
		return 1
	}

	return m.Run()
}

func requireMongo(t *testing.T) *Store {
	t.Helper()
	if testStore == nil {
		t.Skip("mongo is not available")
	}
	return testStore
}

func TestTaskQuery(t *testing.T) {
	assignee := primitive.NewObjectID()
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	query, err := taskQuery(domain.TaskFilter{
		AssignedTo: assignee.Hex(),
		Status:     domain.StatusOnHold,
		DueFrom:    &from,
		DueTo:      &to,
	})
	require.NoError(t, err)

	assert.Equal(t, bson.M{
		"assignedTo": assignee,
		"status":     "on-hold",
		"dueDate":    bson.M{"$gte": from, "$lte": to},
	}, query)
}

func TestTaskQueryEmptyFilter(t *testing.T) {
	query, err := taskQuery(domain.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, query)

	_, err = taskQuery(domain.TaskFilter{AssignedTo: "u1"})
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	s := &Store{}
	hex := primitive.NewObjectID().Hex()

	got, ok := s.ParseID(hex)
	assert.True(t, ok)
	assert.Equal(t, hex, got)

	got, ok = s.ParseID(strings.ToUpper(hex))
	assert.True(t, ok)
	assert.Equal(t, hex, got)

	for _, id := range []string{"not-an-id", "", hex[:23], "ObjectId(" + hex + ")"} {
		_, ok := s.ParseID(id)
		assert.False(t, ok, id)
	}
}

func TestTaskLifecycle(t *testing.T) {
	s := requireMongo(t)
	u1 := primitive.NewObjectID().Hex()
	u2 := primitive.NewObjectID().Hex()

	task := &domain.Task{
		Title:       "Prepare demo",
		Description: "Slides and a dry run",
		DueDate:     time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC),
		Priority:    domain.PriorityHigh,
		Status:      domain.StatusNotStarted,
		AssignedTo:  []string{u1, u2},
	}
	require.NoError(t, s.CreateTask(task))
	id, ok := s.ParseID(task.ID)
	require.True(t, ok)
	require.Equal(t, task.ID, id)

	got, err := s.GetTaskByID(task.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{u1, u2}, got.AssignedTo)
	assert.True(t, task.DueDate.Equal(got.DueDate))

	got.AssignedTo = []string{u2}
	got.Status = domain.StatusInProgress
	require.NoError(t, s.UpdateTask(got))
	assert.Equal(t, int32(2), got.Version)

	tasks, err := s.FindTasks(domain.TaskFilter{AssignedTo: u2, Status: domain.StatusInProgress})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, task.ID, tasks[0].ID)

	tasks, err = s.FindTasks(domain.TaskFilter{AssignedTo: u1})
	require.NoError(t, err)
	assert.Empty(t, tasks)

	deleted, err := s.DeleteTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, deleted.Status)

	_, err = s.DeleteTask(task.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.UpdateTask(got), domain.ErrNotFound)
}

func TestUsers(t *testing.T) {
	s := requireMongo(t)

	user := &domain.User{Username: "bob", Email: "bob@example.com", PasswordHash: "hash", Role: domain.RoleUser}
	require.NoError(t, s.CreateUser(user))

	got, err := s.GetUserByEmail("bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	got, err = s.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Username)

	err = s.CreateUser(&domain.User{Username: "bob2", Email: "bob@example.com", PasswordHash: "hash", Role: domain.RoleUser})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = s.GetUserByID(primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
