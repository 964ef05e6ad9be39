package service

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/taskmaster-dev/task-master/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

type RegisterInput struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

var errInvalidCredentials = fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)

type UserService struct {
	store    UserStore
	validate *validator.Validate
	hashCost int
}

func NewUserService(store UserStore, validate *validator.Validate) *UserService {
	return &UserService{
		store:    store,
		validate: validate,
		hashCost: bcrypt.DefaultCost,
	}
}

// Register creates a regular user. Admins are only ever created by EnsureAdmin.
func (s *UserService) Register(in RegisterInput) (*domain.User, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, invalid(err)
	}

	return s.create(in.Username, in.Email, in.Password, domain.RoleUser)
}

// Authenticate answers the same way for an unknown email and a wrong
// password.
func (s *UserService) Authenticate(in LoginInput) (*domain.User, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, invalid(err)
	}

	user, err := s.store.GetUserByEmail(in.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, storeError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, errInvalidCredentials
		}
		return nil, storeError(err)
	}

	return user, nil
}

func (s *UserService) Get(id string) (*domain.User, error) {
	canonical, ok := s.store.ParseID(id)
	if !ok {
		return nil, fmt.Errorf("%w: user with ID %s not found", domain.ErrNotFound, id)
	}

	user, err := s.store.GetUserByID(canonical)
	if err != nil {
		return nil, storeError(err)
	}

	return user, nil
}

func (s *UserService) List() ([]*domain.User, error) {
	users, err := s.store.GetAllUsers()
	if err != nil {
		return nil, storeError(err)
	}
	if users == nil {
		users = make([]*domain.User, 0)
	}

	return users, nil
}

// EnsureAdmin creates the initial admin account. An account that already
// exists under the same email is left untouched.
func (s *UserService) EnsureAdmin(username, email, password string) error {
	_, err := s.create(username, email, password, domain.RoleAdmin)
	if err != nil && !errors.Is(err, domain.ErrConflict) {
		return err
	}
	return nil
}

func (s *UserService) create(username, email, password string, role domain.Role) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Email:        email,
		Role:         role,
	}

	if err := s.store.CreateUser(user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: user with this email already exists", domain.ErrConflict)
		}
		return nil, storeError(err)
	}

	return user, nil
}
