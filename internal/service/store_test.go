package service

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/taskmaster-dev/task-master/backend/internal/domain"
)

var idPattern = regexp.MustCompile(`^[a-z]+[0-9]+$`)

// memoryStore keeps copies so callers never share memory with it, the way a
// real database would behave.
type memoryStore struct {
	mu      sync.Mutex
	tasks   map[string]*domain.Task
	users   map[string]*domain.User
	nextID  int
	queries int
	writes  int
	failing error

	// beforeUpdate runs once, outside the lock, before the next UpdateTask
	beforeUpdate func()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		tasks: make(map[string]*domain.Task),
		users: make(map[string]*domain.User),
	}
}

func cloneTask(t *domain.Task) *domain.Task {
	c := *t
	c.AssignedTo = slices.Clone(t.AssignedTo)
	return &c
}

// ParseID accepts ids in any letter case, like hex ids in a real store, and
// lower-cases them.
func (m *memoryStore) ParseID(id string) (string, bool) {
	id = strings.ToLower(id)
	if !idPattern.MatchString(id) {
		return "", false
	}
	return id, true
}

func (m *memoryStore) put(task *domain.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID] = cloneTask(task)
}

func (m *memoryStore) GetTaskByID(id string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++
	if m.failing != nil {
		return nil, m.failing
	}
	task, ok := m.tasks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneTask(task), nil
}

func (m *memoryStore) FindTasks(filter domain.TaskFilter) ([]*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++
	if m.failing != nil {
		return nil, m.failing
	}

	var tasks []*domain.Task
	for _, task := range m.tasks {
		if filter.AssignedTo != "" && !task.IsAssigned(filter.AssignedTo) {
			continue
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && task.Priority != filter.Priority {
			continue
		}
		if filter.DueFrom != nil && task.DueDate.Before(*filter.DueFrom) {
			continue
		}
		if filter.DueTo != nil && task.DueDate.After(*filter.DueTo) {
			continue
		}
		tasks = append(tasks, cloneTask(task))
	}
	slices.SortFunc(tasks, func(a, b *domain.Task) int { return a.DueDate.Compare(b.DueDate) })
	return tasks, nil
}

func (m *memoryStore) CreateTask(task *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.failing != nil {
		return m.failing
	}
	m.nextID++
	task.ID = fmt.Sprintf("t%d", m.nextID)
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	task.Version = 1
	m.tasks[task.ID] = cloneTask(task)
	return nil
}

func (m *memoryStore) UpdateTask(task *domain.Task) error {
	m.mu.Lock()
	hook := m.beforeUpdate
	m.beforeUpdate = nil
	m.mu.Unlock()
	if hook != nil {
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.failing != nil {
		return m.failing
	}
	stored, ok := m.tasks[task.ID]
	if !ok {
		return domain.ErrNotFound
	}
	task.Version = stored.Version + 1
	task.UpdatedAt = time.Now()
	m.tasks[task.ID] = cloneTask(task)
	return nil
}

func (m *memoryStore) DeleteTask(id string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	task, ok := m.tasks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	delete(m.tasks, id)
	return task, nil
}

func (m *memoryStore) GetUserByID(id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *user
	return &c, nil
}

func (m *memoryStore) GetUserByEmail(email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			c := *user
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memoryStore) CreateUser(user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing != nil {
		return m.failing
	}
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return domain.ErrConflict
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("u%d", m.nextID)
	user.CreatedAt = time.Now()
	c := *user
	m.users[user.ID] = &c
	return nil
}

func (m *memoryStore) GetAllUsers() ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var users []*domain.User
	for _, user := range m.users {
		c := *user
		users = append(users, &c)
	}
	return users, nil
}
