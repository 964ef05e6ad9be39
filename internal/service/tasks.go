package service

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/taskmaster-dev/task-master/backend/internal/access"
	"github.com/taskmaster-dev/task-master/backend/internal/domain"
)

type CreateTaskInput struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description" validate:"required"`
	DueDate     string   `json:"dueDate" validate:"required"`
	Priority    string   `json:"priority" validate:"required,oneof=low medium high"`
	Status      string   `json:"status" validate:"required,oneof=pending not-started in-progress completed cancelled on-hold"`
	AssignedTo  []string `json:"assignedTo"`
}

// UpdateTaskInput replaces the fields that are present.
type UpdateTaskInput struct {
	Title       *string `json:"title" validate:"omitnil,min=1"`
	Description *string `json:"description" validate:"omitnil,min=1"`
	DueDate     *string `json:"dueDate" validate:"omitnil,min=1"`
	Priority    *string `json:"priority" validate:"omitnil,oneof=low medium high"`
	Status      *string `json:"status" validate:"omitnil,oneof=pending not-started in-progress completed cancelled on-hold"`
}

func (in UpdateTaskInput) touchesMoreThanStatus() bool {
	return in.Title != nil || in.Description != nil || in.DueDate != nil || in.Priority != nil
}

// TaskService is the only way tasks are read or written. It validates input,
// applies the access rules and normalizes store errors.
type TaskService struct {
	store    TaskStore
	validate *validator.Validate
}

func NewTaskService(store TaskStore, validate *validator.Validate) *TaskService {
	return &TaskService{
		store:    store,
		validate: validate,
	}
}

// FindByID does not check access; callers pass the result to
// access.Authorize before exposing it.
func (s *TaskService) FindByID(id string) (*domain.Task, error) {
	canonical, ok := s.store.ParseID(id)
	if !ok {
		return nil, fmt.Errorf("%w: task with ID %s not found", domain.ErrNotFound, id)
	}

	task, err := s.store.GetTaskByID(canonical)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: task with ID %s not found", domain.ErrNotFound, id)
		}
		return nil, storeError(err)
	}

	return task, nil
}

// FindWithFilters lists the tasks of targetUserID (all tasks for an admin
// with no target). A non-admin asking for someone else's tasks is rejected
// before the store is queried.
func (s *TaskService) FindWithFilters(caller domain.Identity, targetUserID string, criteria domain.TaskCriteria) ([]*domain.Task, error) {
	if targetUserID != "" {
		canonical, ok := s.store.ParseID(targetUserID)
		if ok {
			targetUserID = canonical
		}
		if !caller.IsAdmin() && targetUserID != caller.ID {
			return nil, fmt.Errorf("%w: you are not authorized to view tasks for this user", domain.ErrForbidden)
		}
		if !ok {
			return nil, fmt.Errorf("%w: invalid assigned user ID: %s", domain.ErrValidation, targetUserID)
		}
	}

	filter, err := access.BuildListFilter(targetUserID, caller, criteria)
	if err != nil {
		return nil, err
	}

	tasks, err := s.store.FindTasks(filter)
	if err != nil {
		return nil, storeError(err)
	}
	if tasks == nil {
		tasks = make([]*domain.Task, 0)
	}

	return tasks, nil
}

func (s *TaskService) Create(in CreateTaskInput) (*domain.Task, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, invalid(err)
	}

	dueDate, err := parseDueDate(in.DueDate)
	if err != nil {
		return nil, err
	}

	assignedTo := make([]string, 0, len(in.AssignedTo))
	if len(in.AssignedTo) > 0 {
		if assignedTo, err = s.userIDSet(in.AssignedTo); err != nil {
			return nil, err
		}
	}

	task := &domain.Task{
		Title:       in.Title,
		Description: in.Description,
		DueDate:     dueDate,
		Priority:    domain.Priority(in.Priority),
		Status:      domain.Status(in.Status),
		AssignedTo:  assignedTo,
	}

	if err := s.store.CreateTask(task); err != nil {
		return nil, storeError(err)
	}

	return task, nil
}

// Update replaces the provided fields. An assignee who is not an admin may
// only change the status.
//
// There is no version check: of two concurrent updates the later write wins.
func (s *TaskService) Update(caller domain.Identity, id string, in UpdateTaskInput) (*domain.Task, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, invalid(err)
	}

	var dueDate time.Time
	if in.DueDate != nil {
		var err error
		if dueDate, err = parseDueDate(*in.DueDate); err != nil {
			return nil, err
		}
	}

	task, err := s.FindByID(id)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(caller, task); err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && in.touchesMoreThanStatus() {
		return nil, fmt.Errorf("%w: assignees may only change the status of a task", domain.ErrForbidden)
	}

	if in.Title != nil {
		task.Title = *in.Title
	}
	if in.Description != nil {
		task.Description = *in.Description
	}
	if in.DueDate != nil {
		task.DueDate = dueDate
	}
	if in.Priority != nil {
		task.Priority = domain.Priority(*in.Priority)
	}
	if in.Status != nil {
		task.Status = domain.Status(*in.Status)
	}

	return s.save(task)
}

// ChangeStatus touches nothing but the status, so assignees can move their
// tasks along without being able to rewrite them.
func (s *TaskService) ChangeStatus(caller domain.Identity, id string, status string) (*domain.Task, error) {
	newStatus := domain.Status(status)
	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: invalid status value: %s", domain.ErrValidation, status)
	}

	task, err := s.FindByID(id)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(caller, task); err != nil {
		return nil, err
	}

	task.Status = newStatus
	return s.save(task)
}

// Assign replaces the assignee set with userIDs. Either every id is valid and
// the set is replaced, or nothing changes.
func (s *TaskService) Assign(id string, userIDs []string) (*domain.Task, error) {
	if len(userIDs) == 0 {
		return nil, fmt.Errorf("%w: invalid user IDs provided", domain.ErrValidation)
	}
	assignees, err := s.userIDSet(userIDs)
	if err != nil {
		return nil, err
	}

	task, err := s.FindByID(id)
	if err != nil {
		return nil, err
	}

	task.AssignedTo = assignees
	return s.save(task)
}

// Unassign drops userIDs from the assignee set. Ids that are not assigned are
// ignored, which makes the call idempotent.
func (s *TaskService) Unassign(id string, userIDs []string) (*domain.Task, error) {
	task, err := s.FindByID(id)
	if err != nil {
		return nil, err
	}

	// ids the store cannot parse were never assigned
	drop := make([]string, 0, len(userIDs))
	for _, userID := range userIDs {
		if canonical, ok := s.store.ParseID(userID); ok {
			drop = append(drop, canonical)
		}
	}

	remaining := slices.DeleteFunc(slices.Clone(task.AssignedTo), func(assignee string) bool {
		return slices.Contains(drop, assignee)
	})
	if len(remaining) == len(task.AssignedTo) {
		return task, nil
	}

	task.AssignedTo = remaining
	return s.save(task)
}

// Delete removes the task and returns its last known state.
func (s *TaskService) Delete(caller domain.Identity, id string) (*domain.Task, error) {
	task, err := s.FindByID(id)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(caller, task); err != nil {
		return nil, err
	}

	deleted, err := s.store.DeleteTask(task.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: task with ID %s not found", domain.ErrNotFound, task.ID)
		}
		return nil, storeError(err)
	}

	return deleted, nil
}

func (s *TaskService) save(task *domain.Task) (*domain.Task, error) {
	if err := s.store.UpdateTask(task); err != nil {
		// the task may have been deleted since it was read
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: task with ID %s not found", domain.ErrNotFound, task.ID)
		}
		return nil, storeError(err)
	}
	return task, nil
}

// userIDSet canonicalizes every id and removes duplicates, keeping the first
// occurrence's position.
func (s *TaskService) userIDSet(ids []string) ([]string, error) {
	set := make([]string, 0, len(ids))
	for _, id := range ids {
		canonical, ok := s.store.ParseID(id)
		if !ok {
			return nil, fmt.Errorf("%w: invalid user IDs provided", domain.ErrValidation)
		}
		if !slices.Contains(set, canonical) {
			set = append(set, canonical)
		}
	}
	return set, nil
}

func parseDueDate(s string) (time.Time, error) {
	dueDate, _, err := domain.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid dueDate: %s", domain.ErrValidation, s)
	}
	return dueDate, nil
}
