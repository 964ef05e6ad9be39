package handler

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/taskmaster-dev/task-master/backend/internal/domain"
)

var fakeIDPattern = regexp.MustCompile(`^[a-z]+[0-9]+$`)

type fakeStore struct {
	mu     sync.Mutex
	tasks  map[string]domain.Task
	users  map[string]domain.User
	nextID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks: make(map[string]domain.Task),
		users: make(map[string]domain.User),
	}
}

func (s *fakeStore) ParseID(id string) (string, bool) {
	id = strings.ToLower(id)
	if !fakeIDPattern.MatchString(id) {
		return "", false
	}
	return id, true
}

func (s *fakeStore) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s%d", prefix, s.nextID)
}

func copyTask(t domain.Task) *domain.Task {
	t.AssignedTo = slices.Clone(t.AssignedTo)
	return &t
}

func (s *fakeStore) GetTaskByID(id string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyTask(task), nil
}

func (s *fakeStore) FindTasks(filter domain.TaskFilter) ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := make([]*domain.Task, 0)
	for _, task := range s.tasks {
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
		tasks = append(tasks, copyTask(task))
	}
	slices.SortFunc(tasks, func(a, b *domain.Task) int { return a.DueDate.Compare(b.DueDate) })
	return tasks, nil
}

func (s *fakeStore) CreateTask(task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task.ID = s.id("t")
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	task.Version = 1
	s.tasks[task.ID] = *copyTask(*task)
	return nil
}

func (s *fakeStore) UpdateTask(task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.tasks[task.ID]
	if !ok {
		return domain.ErrNotFound
	}
	task.Version = stored.Version + 1
	task.UpdatedAt = time.Now()
	s.tasks[task.ID] = *copyTask(*task)
	return nil
}

func (s *fakeStore) DeleteTask(id string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	delete(s.tasks, id)
	return copyTask(task), nil
}

func (s *fakeStore) GetUserByID(id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &user, nil
}

func (s *fakeStore) GetUserByEmail(email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *fakeStore) CreateUser(user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return domain.ErrConflict
		}
	}
	user.ID = s.id("u")
	user.CreatedAt = time.Now()
	s.users[user.ID] = *user
	return nil
}

func (s *fakeStore) GetAllUsers() ([]*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]*domain.User, 0, len(s.users))
	for _, user := range s.users {
		u := user
		users = append(users, &u)
	}
	return users, nil
}

type fakeDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func (d *fakeDenylist) Revoke(jti string, until time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.revoked[jti] = until
	return nil
}

func (d *fakeDenylist) IsRevoked(jti string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.revoked[jti]
	return ok, nil
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []domain.MailMessage
	fail     bool
}

func (p *fakePublisher) Publish(m domain.MailMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.messages = append(p.messages, m)
	return nil
}

func (p *fakePublisher) sent() []domain.MailMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.messages)
}
