package domain

import (
	"slices"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusNotStarted Status = "not-started"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusOnHold     Status = "on-hold"
)

// Statuses is a flat set: any status may move to any other.
var Statuses = []Status{
	StatusPending,
	StatusNotStarted,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
	StatusOnHold,
}

func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func (p Priority) Valid() bool {
	return slices.Contains(Priorities, p)
}

type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate"`
	Priority    Priority  `json:"priority"`
	Status      Status    `json:"status"`
	AssignedTo  []string  `json:"assignedTo"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Version     int32     `json:"version"`
}

func (t *Task) IsAssigned(userID string) bool {
	return slices.Contains(t.AssignedTo, userID)
}

// TaskFilter is the predicate handed to a task store. Zero-valued fields
// match every task. Both due date bounds are inclusive.
type TaskFilter struct {
	AssignedTo string
	Status     Status
	Priority   Priority
	DueFrom    *time.Time
	DueTo      *time.Time
}

// TaskCriteria are the raw, unvalidated narrowing parameters of a listing.
type TaskCriteria struct {
	Status    string
	Priority  string
	StartDate string
	EndDate   string
	// DueDate is either a single date or "start,end".
	DueDate string
}
