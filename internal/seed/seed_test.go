package seed

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskmaster-dev/task-master/backend/internal/domain"
	"github.com/taskmaster-dev/task-master/backend/internal/service"
)

type recordingCreator struct {
	inputs []service.CreateTaskInput
	reject string
}

func (c *recordingCreator) Create(in service.CreateTaskInput) (*domain.Task, error) {
	if in.Title == c.reject {
		return nil, fmt.Errorf("%w: rejected", domain.ErrValidation)
	}
	c.inputs = append(c.inputs, in)
	return &domain.Task{ID: fmt.Sprintf("t%d", len(c.inputs)), Title: in.Title}, nil
}

func TestImportTasks(t *testing.T) {
	csv := `title,description,dueDate,priority,status,assignedTo
Write docs, For the API ,2024-03-01,high,pending,u1;u2
Broken,Rejected row,2024-03-02,low,pending,
Ship it,Release,2024-03-03,medium,completed,
`
	creator := &recordingCreator{reject: "Broken"}

	n, err := ImportTasks(strings.NewReader(csv), creator)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, creator.inputs, 2)
	assert.Equal(t, service.CreateTaskInput{
		Title:       "Write docs",
		Description: "For the API",
		DueDate:     "2024-03-01",
		Priority:    "high",
		Status:      "pending",
		AssignedTo:  []string{"u1", "u2"},
	}, creator.inputs[0])
	assert.Equal(t, "Ship it", creator.inputs[1].Title)
	assert.Nil(t, creator.inputs[1].AssignedTo)
}

func TestImportTasksWithoutAssigneeColumn(t *testing.T) {
	csv := "title,description,dueDate,priority,status\nA,B,2024-01-01,low,pending\n"
	creator := &recordingCreator{}

	n, err := ImportTasks(strings.NewReader(csv), creator)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Nil(t, creator.inputs[0].AssignedTo)
}

func TestImportTasksRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want string
	}{
		{"empty", "", "empty file"},
		{"missing column", "title,description,dueDate,priority\n", `missing column "status"`},
		{"ragged row", "title,description,dueDate,priority,status\nA,B\n", "failed to read line 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ImportTasks(strings.NewReader(tt.csv), &recordingCreator{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
