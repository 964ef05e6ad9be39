// Package access decides who may see and change which tasks.
//
// Every per-task read, update, status change and delete goes through
// Authorize, and every listing goes through BuildListFilter, so the ownership
// rule lives in exactly one place.
package access

import (
	"fmt"
	"strings"
	"time"

	"github.com/taskmaster-dev/task-master/backend/internal/domain"
)

// Authorize allows admins and assignees of task. Denial is ErrForbidden, never
// an empty result, so callers can tell it apart from ErrNotFound.
func Authorize(id domain.Identity, task *domain.Task) error {
	if id.IsAdmin() || task.IsAssigned(id.ID) {
		return nil
	}
	return fmt.Errorf("%w: you are not authorized to access this task", domain.ErrForbidden)
}

// BuildListFilter turns the criteria of a listing into a store predicate.
//
// A non-admin caller is always restricted to their own tasks whatever
// requestedUserID says. An admin is restricted to requestedUserID only when
// one is given. Any invalid criterion fails the whole listing.
func BuildListFilter(requestedUserID string, caller domain.Identity, criteria domain.TaskCriteria) (domain.TaskFilter, error) {
	filter := domain.TaskFilter{}

	if caller.IsAdmin() {
		filter.AssignedTo = requestedUserID
	} else {
		filter.AssignedTo = caller.ID
	}

	if criteria.Status != "" {
		status := domain.Status(criteria.Status)
		if !status.Valid() {
			return domain.TaskFilter{}, fmt.Errorf("%w: invalid status value: %s", domain.ErrValidation, criteria.Status)
		}
		filter.Status = status
	}

	if criteria.Priority != "" {
		priority := domain.Priority(criteria.Priority)
		if !priority.Valid() {
			return domain.TaskFilter{}, fmt.Errorf("%w: invalid priority value: %s", domain.ErrValidation, criteria.Priority)
		}
		filter.Priority = priority
	}

	from, to, err := dueDateRange(criteria)
	if err != nil {
		return domain.TaskFilter{}, err
	}
	filter.DueFrom = from
	filter.DueTo = to

	return filter, nil
}

func dueDateRange(criteria domain.TaskCriteria) (*time.Time, *time.Time, error) {
	startDate, endDate := criteria.StartDate, criteria.EndDate

	if criteria.DueDate != "" {
		if startDate != "" || endDate != "" {
			return nil, nil, fmt.Errorf("%w: dueDate cannot be combined with startDate or endDate", domain.ErrValidation)
		}

		parts := strings.Split(criteria.DueDate, ",")
		switch len(parts) {
		case 1:
			day, dateOnly, err := domain.ParseDate(parts[0])
			if err != nil {
				return nil, nil, fmt.Errorf("%w: invalid date format: %s", domain.ErrValidation, criteria.DueDate)
			}
			if !dateOnly {
				return &day, &day, nil
			}
			end := endOfDay(day)
			return &day, &end, nil
		case 2:
			startDate, endDate = parts[0], parts[1]
		default:
			return nil, nil, fmt.Errorf("%w: invalid date range format: %s", domain.ErrValidation, criteria.DueDate)
		}
	}

	var from, to *time.Time

	if startDate != "" {
		start, _, err := domain.ParseDate(startDate)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid startDate: %s", domain.ErrValidation, startDate)
		}
		from = &start
	}

	if endDate != "" {
		end, dateOnly, err := domain.ParseDate(endDate)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid endDate: %s", domain.ErrValidation, endDate)
		}
		if dateOnly {
			end = endOfDay(end)
		}
		to = &end
	}

	if from != nil && to != nil && from.After(*to) {
		return nil, nil, fmt.Errorf("%w: startDate must not be after endDate", domain.ErrValidation)
	}

	return from, to, nil
}

func endOfDay(day time.Time) time.Time {
	return day.Add(24*time.Hour - time.Nanosecond)
}
