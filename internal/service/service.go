package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/taskmaster-dev/task-master/backend/internal/domain"
)

// TaskStore is the persistence boundary for tasks. Implementations report a
// missing task as domain.ErrNotFound.
type TaskStore interface {
	// ParseID reports whether id can name a record and returns its
	// canonical spelling.
	ParseID(id string) (string, bool)
	GetTaskByID(id string) (*domain.Task, error)
	FindTasks(filter domain.TaskFilter) ([]*domain.Task, error)
	CreateTask(task *domain.Task) error
	UpdateTask(task *domain.Task) error
	DeleteTask(id string) (*domain.Task, error)
}

// UserStore is the persistence boundary for credentials. Implementations
// report a missing user as domain.ErrNotFound and a duplicate email as
// domain.ErrConflict.
type UserStore interface {
	ParseID(id string) (string, bool)
	GetUserByID(id string) (*domain.User, error)
	GetUserByEmail(email string) (*domain.User, error)
	CreateUser(user *domain.User) error
	GetAllUsers() ([]*domain.User, error)
}

// NewValidator returns a validator that names fields by their json tag.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrValidation, err)
}

// storeError passes through the errors a store is allowed to report and
// turns everything else into ErrInternal, keeping the cause for logging.
func storeError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrConflict):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}
}
