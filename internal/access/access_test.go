package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskmaster-dev/task-master/backend/internal/domain"
)

var (
	admin = domain.Identity{ID: "admin-1", Email: "admin@example.com", Role: domain.RoleAdmin}
	alice = domain.Identity{ID: "u1", Email: "alice@example.com", Role: domain.RoleUser}
	bob   = domain.Identity{ID: "u4", Email: "bob@example.com", Role: domain.RoleUser}
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name     string
		caller   domain.Identity
		assigned []string
		allowed  bool
	}{
		{"admin on unassigned task", admin, nil, true},
		{"admin on someone else's task", admin, []string{"u1"}, true},
		{"assignee", alice, []string{"u2", "u1"}, true},
		{"non assignee", bob, []string{"u1", "u2"}, false},
		{"user on unassigned task", alice, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &domain.Task{ID: "t1", AssignedTo: tt.assigned}
			err := Authorize(tt.caller, task)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrForbidden)
			}
		})
	}
}

func TestBuildListFilterOwnership(t *testing.T) {
	// a non-admin is pinned to their own id whatever they ask for
	filter, err := BuildListFilter("u2", alice, domain.TaskCriteria{})
	require.NoError(t, err)
	assert.Equal(t, "u1", filter.AssignedTo)

	filter, err = BuildListFilter("", alice, domain.TaskCriteria{})
	require.NoError(t, err)
	assert.Equal(t, "u1", filter.AssignedTo)

	filter, err = BuildListFilter("u2", admin, domain.TaskCriteria{})
	require.NoError(t, err)
	assert.Equal(t, "u2", filter.AssignedTo)

	filter, err = BuildListFilter("", admin, domain.TaskCriteria{})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskFilter{}, filter)
}

func TestBuildListFilterCriteria(t *testing.T) {
	filter, err := BuildListFilter("", admin, domain.TaskCriteria{
		Status:    "in-progress",
		Priority:  "high",
		StartDate: "2024-01-01",
		EndDate:   "2024-01-31",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusInProgress, filter.Status)
	assert.Equal(t, domain.PriorityHigh, filter.Priority)
	require.NotNil(t, filter.DueFrom)
	require.NotNil(t, filter.DueTo)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *filter.DueFrom)
	// date-only end bound covers the whole day
	assert.True(t, filter.DueTo.After(time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)))
	assert.True(t, filter.DueTo.Before(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
}

func TestBuildListFilterDueDate(t *testing.T) {
	filter, err := BuildListFilter("", admin, domain.TaskCriteria{DueDate: "2024-03-05"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), *filter.DueFrom)
	assert.Equal(t, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond), *filter.DueTo)

	filter, err = BuildListFilter("", admin, domain.TaskCriteria{DueDate: "2024-03-05T10:00:00Z"})
	require.NoError(t, err)
	assert.Equal(t, *filter.DueFrom, *filter.DueTo)

	filter, err = BuildListFilter("", admin, domain.TaskCriteria{DueDate: "2024-03-01,2024-03-10"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *filter.DueFrom)
	assert.Equal(t, 10, filter.DueTo.Day())

	filter, err = BuildListFilter("", admin, domain.TaskCriteria{StartDate: "2024-03-01"})
	require.NoError(t, err)
	assert.NotNil(t, filter.DueFrom)
	assert.Nil(t, filter.DueTo)
}

func TestBuildListFilterRejectsInvalidCriteria(t *testing.T) {
	tests := []struct {
		name     string
		criteria domain.TaskCriteria
	}{
		{"status", domain.TaskCriteria{Status: "done"}},
		{"priority", domain.TaskCriteria{Priority: "urgent"}},
		{"start date", domain.TaskCriteria{StartDate: "yesterday"}},
		{"end date", domain.TaskCriteria{EndDate: "2024-13-40"}},
		{"reversed range", domain.TaskCriteria{StartDate: "2024-02-01", EndDate: "2024-01-01"}},
		{"due date", domain.TaskCriteria{DueDate: "soon"}},
		{"due date range", domain.TaskCriteria{DueDate: "2024-01-01,nope"}},
		{"due date three parts", domain.TaskCriteria{DueDate: "2024-01-01,2024-01-02,2024-01-03"}},
		{"due date with range", domain.TaskCriteria{DueDate: "2024-01-01", StartDate: "2024-01-01"}},
		{"valid status with invalid priority", domain.TaskCriteria{Status: "pending", Priority: "none"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildListFilter("", admin, tt.criteria)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}
